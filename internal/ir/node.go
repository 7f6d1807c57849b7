package ir

import (
	"bytes"
	"fmt"
)

// NodeKind discriminates node property sets. Fixed at node creation.
type NodeKind uint8

const (
	KindLayer       NodeKind = 0
	KindText        NodeKind = 1
	KindTextField   NodeKind = 2
	KindSurfaceSink NodeKind = 3
)

// Valid reports whether k is a known node kind.
func (k NodeKind) Valid() bool {
	return k <= KindSurfaceSink
}

func (k NodeKind) String() string {
	switch k {
	case KindLayer:
		return "layer"
	case KindText:
		return "text"
	case KindTextField:
		return "text_field"
	case KindSurfaceSink:
		return "surface_sink"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseNodeKind is the inverse of NodeKind.String.
func ParseNodeKind(s string) (NodeKind, error) {
	for k := KindLayer; k <= KindSurfaceSink; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown node kind %q", s)
}

// Properties is the kind-specific property set of a node.
// Only LayerProps and OpaqueProps implement it.
type Properties interface {
	Kind() NodeKind
	properties()
}

// LayerProps describes a composited layer.
type LayerProps struct {
	Bounds       Rect
	Background   Color
	CornerRadius float64
	BorderWidth  float64
	BorderColor  Color
	ClipContents bool
	Transform    Matrix3
	Opacity      float64
}

func (LayerProps) Kind() NodeKind { return KindLayer }
func (LayerProps) properties()    {}

// OpaqueProps carries the property set of a non-layer node. The core never
// interprets Data; it only stores and forwards it.
type OpaqueProps struct {
	NodeKind NodeKind
	Data     []byte
}

func (p OpaqueProps) Kind() NodeKind { return p.NodeKind }
func (OpaqueProps) properties()      {}

// PropsEqual compares two property sets field by field.
func PropsEqual(a, b Properties) bool {
	switch av := a.(type) {
	case LayerProps:
		bv, ok := b.(LayerProps)
		return ok && av == bv
	case OpaqueProps:
		bv, ok := b.(OpaqueProps)
		return ok && av.NodeKind == bv.NodeKind && bytes.Equal(av.Data, bv.Data)
	default:
		return a == nil && b == nil
	}
}

// Node is a snapshot of one view's state. Parent is NilViewID for roots.
type Node struct {
	ID       ViewID
	Kind     NodeKind
	Props    Properties
	Parent   ViewID
	Children []ViewID
}

// IsRoot reports whether the node has no parent.
func (n Node) IsRoot() bool {
	return n.Parent.IsNil()
}
