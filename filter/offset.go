package filter

import (
	"math"

	"github.com/gogpu/drawtree/geom"
)

// Offset translates its input by a vector given in primitive units.
type Offset struct {
	prim
	DX, DY float64
}

// NewOffset creates an offset primitive reading the slot.
func NewOffset(dx, dy float64, in Slot) *Offset {
	p := &Offset{prim: newPrim(), DX: dx, DY: dy}
	p.SetInput(0, in)
	return p
}

// pixelOffset converts the primitive-unit vector to whole pixels.
func (p *Offset) pixelOffset(m geom.Matrix) (int, int) {
	v := m.TransformVector(geom.Point{X: p.DX, Y: p.DY})
	return int(math.Round(v.X)), int(math.Round(v.Y))
}

// Render implements Primitive.
func (p *Offset) Render(st *SlotTable) error {
	in, err := st.Get(p.in)
	if err != nil {
		return err
	}
	dx, dy := p.pixelOffset(st.Units().PrimitiveToPixel)
	out := st.NewSurface(in.Format())
	w, h := out.Width(), out.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Set32(x, y, in.Get32(x-dx, y-dy))
		}
	}
	st.Set(p.out, out)
	return nil
}

// AreaEnlarge implements Primitive: the output at a pixel depends on
// the input offset backwards.
func (p *Offset) AreaEnlarge(area geom.IntRect, m geom.Matrix) geom.IntRect {
	dx, dy := p.pixelOffset(m)
	return area.Union(area.Translate(-dx, -dy))
}

// CanHandleAffine implements Primitive.
func (p *Offset) CanHandleAffine(m geom.Matrix) bool {
	return m.IsTranslation()
}

// Complexity implements Primitive.
func (p *Offset) Complexity() float64 { return 1 }
