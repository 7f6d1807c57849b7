package ir

import (
	"fmt"

	"github.com/google/uuid"
)

// ViewID identifies one view. It is a 128-bit UUID; equality is bitwise.
type ViewID uuid.UUID

// viewNamespace scopes NamedViewID so scenario names never collide with
// identifiers derived in other namespaces.
var viewNamespace = uuid.MustParse("6f0c7f52-9a3e-4d0b-8a3b-5d1e0c2b7a11")

// NilViewID is the zero identifier. It never names a live view.
var NilViewID ViewID

// NewViewID returns a fresh random identifier.
func NewViewID() ViewID {
	return ViewID(uuid.New())
}

// NamedViewID derives a stable identifier from a name.
// The same name always yields the same identifier.
func NamedViewID(name string) ViewID {
	return ViewID(uuid.NewSHA1(viewNamespace, []byte(name)))
}

// ParseViewID parses the canonical hyphenated UUID form.
func ParseViewID(s string) (ViewID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NilViewID, fmt.Errorf("parse view id %q: %w", s, err)
	}
	return ViewID(u), nil
}

// IsNil reports whether id is the zero identifier.
func (id ViewID) IsNil() bool {
	return id == NilViewID
}

// String returns the hyphenated UUID form.
func (id ViewID) String() string {
	return uuid.UUID(id).String()
}

// Bytes returns the 16 raw bytes in RFC 4122 order.
func (id ViewID) Bytes() [16]byte {
	return [16]byte(id)
}

// HandlerID names one receiver slot: a view and an event category.
type HandlerID struct {
	View     ViewID
	Category Category
}

func (h HandlerID) String() string {
	return fmt.Sprintf("%s/%s", h.View, h.Category)
}
