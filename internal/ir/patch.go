package ir

import "fmt"

// PatchType is the wire discriminant of a patch.
type PatchType uint8

const (
	PatchUpdate  PatchType = 0
	PatchSubview PatchType = 1
	PatchRemove  PatchType = 2
)

func (t PatchType) String() string {
	switch t {
	case PatchUpdate:
		return "update"
	case PatchSubview:
		return "subview"
	case PatchRemove:
		return "remove"
	default:
		return fmt.Sprintf("patch(%d)", uint8(t))
	}
}

// Patch is one tree-mutation command.
// Only Update, Subview and Remove implement it.
type Patch interface {
	Type() PatchType
	// Target is the view the patch is addressed to: the updated view, the
	// parent of a Subview, or the removed view.
	Target() ViewID
	patch()
}

// Update creates the view if unseen, else overwrites its properties in place.
type Update struct {
	View  ViewID
	Props Properties
}

func (Update) Type() PatchType  { return PatchUpdate }
func (p Update) Target() ViewID { return p.View }
func (Update) patch()           {}

// Subview makes Child a child of Parent, detaching it from any old parent.
type Subview struct {
	Parent ViewID
	Child  ViewID
}

func (Subview) Type() PatchType  { return PatchSubview }
func (p Subview) Target() ViewID { return p.Parent }
func (Subview) patch()           {}

// Remove deletes a view and its entire subtree.
type Remove struct {
	View ViewID
}

func (Remove) Type() PatchType  { return PatchRemove }
func (p Remove) Target() ViewID { return p.View }
func (Remove) patch()           {}

// PatchEqual compares two patches field by field.
func PatchEqual(a, b Patch) bool {
	switch av := a.(type) {
	case Update:
		bv, ok := b.(Update)
		return ok && av.View == bv.View && PropsEqual(av.Props, bv.Props)
	case Subview:
		bv, ok := b.(Subview)
		return ok && av == bv
	case Remove:
		bv, ok := b.(Remove)
		return ok && av == bv
	default:
		return false
	}
}
