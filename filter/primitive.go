// Package filter implements the filter pipeline: a sequence of
// primitives reading one or two named slots and writing one, with
// per-primitive pixel kernels operating on premultiplied ARGB surfaces.
package filter

import (
	"errors"
	"sync"

	"github.com/gogpu/drawtree/geom"
)

// Common errors for filter primitives.
var (
	// ErrBadParameters marks a primitive whose configuration is invalid;
	// the primitive renders as an identity copy of its input.
	ErrBadParameters = errors.New("filter: bad primitive parameters")

	// ErrMissingInput is returned when a slot has no producer.
	ErrMissingInput = errors.New("filter: missing input slot")
)

// Primitive is one node of a filter pipeline.
type Primitive interface {
	// Render reads the primitive's input slots from the table and
	// writes its output slot.
	Render(st *SlotTable) error

	// AreaEnlarge reports how far outside the output rect the primitive
	// reads, under the given primitive-space-to-pixel transform.
	AreaEnlarge(area geom.IntRect, m geom.Matrix) geom.IntRect

	// CanHandleAffine reports whether the primitive's output under the
	// transform equals the transform of its output. Pixel-local
	// primitives return true unconditionally; spatial primitives only
	// accept translations.
	CanHandleAffine(m geom.Matrix) bool

	// Complexity is a relative per-pixel cost estimate used by the
	// cache scoring heuristic.
	Complexity() float64

	// Output returns the slot the primitive writes.
	Output() Slot

	// SetOutput redirects the primitive's output slot.
	SetOutput(Slot)

	// SetInput connects input index i (0 or 1) to a slot.
	SetInput(i int, s Slot)
}

// prim carries the slot wiring and the one-shot parameter warning
// shared by every primitive implementation.
type prim struct {
	in   Slot
	in2  Slot
	out  Slot
	warn sync.Once
}

func newPrim() prim {
	return prim{in: SlotNotSet, in2: SlotNotSet, out: SlotNotSet}
}

func (p *prim) Output() Slot     { return p.out }
func (p *prim) SetOutput(s Slot) { p.out = s }

func (p *prim) SetInput(i int, s Slot) {
	switch i {
	case 0:
		p.in = s
	case 1:
		p.in2 = s
	}
}

// warnOnce logs a bad-parameter message once for the primitive's
// lifetime, then the caller degrades to an identity copy.
func (p *prim) warnOnce(log func()) {
	p.warn.Do(log)
}

// identity copies the input slot to the output slot unchanged. Used
// when a primitive's parameters are invalid.
func (p *prim) identity(st *SlotTable) error {
	in, err := st.Get(p.in)
	if err != nil {
		return err
	}
	out := st.NewSurface(in.Format())
	copy(out.Data(), in.Data())
	st.Set(p.out, out)
	return nil
}
