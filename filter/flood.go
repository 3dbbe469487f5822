package filter

import (
	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/internal/blend"
)

// Flood fills the filter area with a solid color.
type Flood struct {
	prim
	// Color is the straight-alpha flood color as 0xRRGGBBAA.
	Color uint32
	// Opacity additionally scales the color's alpha, in [0, 1].
	Opacity float64
}

// NewFlood creates a flood primitive.
func NewFlood(rgba uint32, opacity float64) *Flood {
	return &Flood{prim: newPrim(), Color: rgba, Opacity: opacity}
}

// Render implements Primitive.
func (p *Flood) Render(st *SlotTable) error {
	r := (p.Color >> 24) & 0xff
	g := (p.Color >> 16) & 0xff
	b := (p.Color >> 8) & 0xff
	a := p.Color & 0xff
	a = blend.MulDiv255(a, blend.ClampRoundU8(p.Opacity*255))
	st.Set(p.out, flood(st.Area(), premulColor(r, g, b, a)))
	return nil
}

// AreaEnlarge implements Primitive.
func (p *Flood) AreaEnlarge(area geom.IntRect, _ geom.Matrix) geom.IntRect {
	return area
}

// CanHandleAffine implements Primitive; a constant fill is invariant.
func (p *Flood) CanHandleAffine(geom.Matrix) bool { return true }

// Complexity implements Primitive.
func (p *Flood) Complexity() float64 { return 1 }
