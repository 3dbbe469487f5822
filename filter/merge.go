package filter

import (
	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/internal/blend"
	"github.com/gogpu/drawtree/surface"
)

// Merge composites any number of inputs with OVER, first input at the
// bottom.
type Merge struct {
	prim
	inputs []Slot
}

// NewMerge creates a merge primitive over the given slots.
func NewMerge(inputs ...Slot) *Merge {
	return &Merge{prim: newPrim(), inputs: inputs}
}

// AddInput appends an input slot above the existing ones.
func (p *Merge) AddInput(s Slot) {
	p.inputs = append(p.inputs, s)
}

// Render implements Primitive.
func (p *Merge) Render(st *SlotTable) error {
	out := st.NewSurface(surface.ARGB32)
	w, h := out.Width(), out.Height()
	for _, slot := range p.inputs {
		in, err := st.Get(slot)
		if err != nil {
			return err
		}
		layer := ensureColor(st.Area(), in)
		st.Pool().Rows(h, func(y0, y1 int) {
			for y := y0; y < y1; y++ {
				for x := 0; x < w; x++ {
					out.Set32(x, y, blend.SourceOver(layer.Get32(x, y), out.Get32(x, y)))
				}
			}
		})
	}
	st.Set(p.out, out)
	return nil
}

// AreaEnlarge implements Primitive.
func (p *Merge) AreaEnlarge(area geom.IntRect, _ geom.Matrix) geom.IntRect {
	return area
}

// CanHandleAffine implements Primitive.
func (p *Merge) CanHandleAffine(geom.Matrix) bool { return true }

// Complexity implements Primitive.
func (p *Merge) Complexity() float64 {
	return float64(max(len(p.inputs), 1))
}
