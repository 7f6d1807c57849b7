package ir

import "fmt"

// HoverPhase orders as Entered < Moved = Stationary < Left.
type HoverPhase uint8

const (
	HoverEntered    HoverPhase = 0
	HoverMoved      HoverPhase = 1
	HoverStationary HoverPhase = 2
	HoverLeft       HoverPhase = 3
)

// PointerPhase orders as Began < Moved = Stationary < Ended = Canceled.
type PointerPhase uint8

const (
	PointerBegan      PointerPhase = 0
	PointerMoved      PointerPhase = 1
	PointerStationary PointerPhase = 2
	PointerEnded      PointerPhase = 3
	PointerCanceled   PointerPhase = 4
)

// KeyPhase orders as Down < Repeat < Up. The wire values are not in rank
// order: Up is 1 and Repeat is 2.
type KeyPhase uint8

const (
	KeyDown   KeyPhase = 0
	KeyUp     KeyPhase = 1
	KeyRepeat KeyPhase = 2
)

// Phase ranks shared by every phased category.
const (
	RankInitial  = 0
	RankOngoing  = 1
	RankTerminal = 2
)

var hoverNames = []string{"entered", "moved", "stationary", "left"}
var pointerNames = []string{"began", "moved", "stationary", "ended", "canceled"}
var keyPhaseNames = []string{"down", "up", "repeat"}

func (p HoverPhase) Valid() bool   { return p <= HoverLeft }
func (p PointerPhase) Valid() bool { return p <= PointerCanceled }
func (p KeyPhase) Valid() bool     { return p <= KeyRepeat }

func (p HoverPhase) String() string   { return phaseName(hoverNames, uint8(p)) }
func (p PointerPhase) String() string { return phaseName(pointerNames, uint8(p)) }
func (p KeyPhase) String() string     { return phaseName(keyPhaseNames, uint8(p)) }

func phaseName(names []string, v uint8) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("phase(%d)", v)
}

// Rank places the phase in the category's partial order.
func (p HoverPhase) Rank() int {
	switch p {
	case HoverEntered:
		return RankInitial
	case HoverLeft:
		return RankTerminal
	default:
		return RankOngoing
	}
}

func (p PointerPhase) Rank() int {
	switch p {
	case PointerBegan:
		return RankInitial
	case PointerEnded, PointerCanceled:
		return RankTerminal
	default:
		return RankOngoing
	}
}

func (p KeyPhase) Rank() int {
	switch p {
	case KeyDown:
		return RankInitial
	case KeyUp:
		return RankTerminal
	default:
		return RankOngoing
	}
}

// ParseHoverPhase, ParsePointerPhase and ParseKeyPhase invert String.
func ParseHoverPhase(s string) (HoverPhase, error) {
	v, err := parsePhase(hoverNames, s)
	return HoverPhase(v), err
}

func ParsePointerPhase(s string) (PointerPhase, error) {
	v, err := parsePhase(pointerNames, s)
	return PointerPhase(v), err
}

func ParseKeyPhase(s string) (KeyPhase, error) {
	v, err := parsePhase(keyPhaseNames, s)
	return KeyPhase(v), err
}

func parsePhase(names []string, s string) (uint8, error) {
	for i, n := range names {
		if n == s {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

// PhaseInfo describes where an event sits in its device's lifecycle.
type PhaseInfo struct {
	Name string
	Rank int
}

// PhaseOf returns the phase of a payload. ok is false for categories
// without phases (scroll).
func PhaseOf(p Payload) (info PhaseInfo, ok bool) {
	switch v := p.(type) {
	case HoverPayload:
		return PhaseInfo{Name: v.Phase.String(), Rank: v.Phase.Rank()}, true
	case PointerPayload:
		return PhaseInfo{Name: v.Phase.String(), Rank: v.Phase.Rank()}, true
	case KeyPayload:
		return PhaseInfo{Name: v.Phase.String(), Rank: v.Phase.Rank()}, true
	case ScrollPayload:
		return PhaseInfo{}, false
	default:
		return PhaseInfo{}, false
	}
}
