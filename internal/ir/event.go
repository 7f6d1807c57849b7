package ir

import "fmt"

// Category is the event category a handler is registered for.
type Category uint8

const (
	CategoryHover   Category = 0
	CategoryPointer Category = 1
	CategoryKey     Category = 2
	CategoryScroll  Category = 3
)

// Categories lists every category in wire order.
var Categories = []Category{CategoryHover, CategoryPointer, CategoryKey, CategoryScroll}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c <= CategoryScroll
}

func (c Category) String() string {
	switch c {
	case CategoryHover:
		return "hover"
	case CategoryPointer:
		return "pointer"
	case CategoryKey:
		return "key"
	case CategoryScroll:
		return "scroll"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

// ParseCategory is the inverse of Category.String.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown event category %q", s)
}

// PointerDevice is the kind of pointing device behind a hover or pointer event.
type PointerDevice uint8

const (
	DeviceTouch  PointerDevice = 0
	DevicePen    PointerDevice = 1
	DeviceEraser PointerDevice = 2
	DeviceCursor PointerDevice = 3
)

func (d PointerDevice) Valid() bool {
	return d <= DeviceCursor
}

func (d PointerDevice) String() string {
	switch d {
	case DeviceTouch:
		return "touch"
	case DevicePen:
		return "pen"
	case DeviceEraser:
		return "eraser"
	case DeviceCursor:
		return "cursor"
	default:
		return fmt.Sprintf("device(%d)", uint8(d))
	}
}

// ParsePointerDevice is the inverse of PointerDevice.String.
func ParsePointerDevice(s string) (PointerDevice, error) {
	for d := DeviceTouch; d <= DeviceCursor; d++ {
		if d.String() == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown pointer device %q", s)
}

// Modifiers is the modifier key state sampled at event time.
type Modifiers struct {
	Shift   bool
	Control bool
	Option  bool
	Command bool
}

// Event is one input event addressed to a handler. Its category is the
// category of its payload.
type Event struct {
	Handler HandlerID
	// Timestamp in seconds from a fixed point, or zero when unknown.
	Timestamp float64
	Payload   Payload
}

// Category returns the payload's category.
func (e Event) Category() Category {
	return e.Payload.Category()
}

// Route is the handler slot the event is dispatched to.
func (e Event) Route() HandlerID {
	return HandlerID{View: e.Handler.View, Category: e.Category()}
}

// Payload is the category-specific part of an event.
// Only HoverPayload, PointerPayload, KeyPayload and ScrollPayload implement it.
type Payload interface {
	Category() Category
	payload()
}

// HoverPayload reports a device hovering over the window.
type HoverPayload struct {
	Device         PointerDevice
	WindowLocation Vector2
	Tilt           Vector3
	// PointerID is stable when nonzero.
	PointerID uint64
	Phase     HoverPhase
	Modifiers Modifiers
}

func (HoverPayload) Category() Category { return CategoryHover }
func (HoverPayload) payload()           {}

// PointerPayload reports an active pointing device (touch, pressed button).
type PointerPayload struct {
	Device         PointerDevice
	WindowLocation Vector2
	Pressure       float64
	Tilt           Vector3
	PointerID      uint64
	Phase          PointerPhase
	Modifiers      Modifiers
}

func (PointerPayload) Category() Category { return CategoryPointer }
func (PointerPayload) payload()           {}

// KeyPayload reports a keyboard key transition.
type KeyPayload struct {
	Chars                 string
	CharsWithoutModifiers string
	Code                  KeyCode
	Phase                 KeyPhase
	Modifiers             Modifiers
}

func (KeyPayload) Category() Category { return CategoryKey }
func (KeyPayload) payload()           {}

// ScrollPayload reports a scroll gesture. Scrolls have no phase.
type ScrollPayload struct {
	WindowLocation Vector2
	Delta          Vector2
}

func (ScrollPayload) Category() Category { return CategoryScroll }
func (ScrollPayload) payload()           {}

// EventEqual compares two events field by field.
func EventEqual(a, b Event) bool {
	if a.Handler != b.Handler || a.Timestamp != b.Timestamp {
		return false
	}
	return a.Payload == b.Payload
}
