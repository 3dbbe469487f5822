package filter

import (
	"math"

	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/internal/blend"
	"github.com/gogpu/drawtree/surface"
)

// MorphologyOperator selects erosion or dilation.
type MorphologyOperator uint8

const (
	Erode MorphologyOperator = iota
	Dilate
)

// Morphology applies a rectangular erode or dilate.
//
// Over the neighborhood of half-sizes (xr, yr) the kernel takes the
// per-channel minimum (erode) or maximum (dilate) of un-premultiplied
// colors, then re-premultiplies by the extremal alpha. Alpha-only
// inputs operate on alpha alone. Radii are given in primitive units and
// scaled into pixels through the unit transform.
type Morphology struct {
	prim
	Operator MorphologyOperator
	RadiusX  float64
	RadiusY  float64
}

// NewMorphology creates a morphology primitive reading the slot.
func NewMorphology(op MorphologyOperator, rx, ry float64, in Slot) *Morphology {
	p := &Morphology{prim: newPrim(), Operator: op, RadiusX: rx, RadiusY: ry}
	p.SetInput(0, in)
	return p
}

// Render implements Primitive.
func (p *Morphology) Render(st *SlotTable) error {
	if p.RadiusX < 0 || p.RadiusY < 0 {
		p.warnOnce(func() { logBadParams("Morphology", "negative radius") })
		return p.identity(st)
	}
	in, err := st.Get(p.in)
	if err != nil {
		return err
	}

	m := st.Units().PrimitiveToPixel
	xr := int(math.Round(p.RadiusX * m.ExpansionX()))
	yr := int(math.Round(p.RadiusY * m.ExpansionY()))

	alphaOnly := in.Format() == surface.A8
	out := st.NewSurface(in.Format())
	w, h := out.Width(), out.Height()

	st.Pool().Rows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				if alphaOnly {
					out.Set32(x, y, p.alphaPixel(in, x, y, xr, yr, w, h))
				} else if p.Operator == Dilate {
					out.Set32(x, y, dilatePixel(in, x, y, xr, yr, w, h))
				} else {
					out.Set32(x, y, erodePixel(in, x, y, xr, yr, w, h))
				}
			}
		}
	})

	st.Set(p.out, out)
	return nil
}

func neighborhood(x, y, xr, yr, w, h int) (x0, x1, y0, y1 int) {
	return max(x-xr, 0), min(x+xr+1, w), max(y-yr, 0), min(y+yr+1, h)
}

func (p *Morphology) alphaPixel(in *surface.Surface, x, y, xr, yr, w, h int) uint32 {
	x0, x1, y0, y1 := neighborhood(x, y, xr, yr, w, h)
	if p.Operator == Dilate {
		var aOut uint32
		for i := y0; i < y1; i++ {
			for j := x0; j < x1; j++ {
				aOut = max(aOut, in.Get32(j, i)&0xff000000)
			}
		}
		return aOut
	}
	aOut := uint32(0xff000000)
	for i := y0; i < y1; i++ {
		for j := x0; j < x1; j++ {
			aOut = min(aOut, in.Get32(j, i)&0xff000000)
		}
	}
	return aOut
}

func erodePixel(in *surface.Surface, x, y, xr, yr, w, h int) uint32 {
	x0, x1, y0, y1 := neighborhood(x, y, xr, yr, w, h)
	aOut, rOut, gOut, bOut := uint32(255), uint32(255), uint32(255), uint32(255)
	for i := y0; i < y1; i++ {
		for j := x0; j < x1; j++ {
			a, r, g, b := blend.Unpack(in.Get32(j, i))
			if a == 0 {
				// a fully transparent pixel is the guaranteed minimum
				return 0
			}
			r = blend.UnpremulAlpha(r, a)
			g = blend.UnpremulAlpha(g, a)
			b = blend.UnpremulAlpha(b, a)
			aOut = min(aOut, a)
			rOut = min(rOut, r)
			gOut = min(gOut, g)
			bOut = min(bOut, b)
		}
	}
	return blend.Pack(aOut,
		blend.PremulAlpha(rOut, aOut),
		blend.PremulAlpha(gOut, aOut),
		blend.PremulAlpha(bOut, aOut),
	)
}

func dilatePixel(in *surface.Surface, x, y, xr, yr, w, h int) uint32 {
	x0, x1, y0, y1 := neighborhood(x, y, xr, yr, w, h)
	var aOut, rOut, gOut, bOut uint32
	for i := y0; i < y1; i++ {
		for j := x0; j < x1; j++ {
			a, r, g, b := blend.Unpack(in.Get32(j, i))
			if a == 0 {
				// cannot affect the maximum
				continue
			}
			r = blend.UnpremulAlpha(r, a)
			g = blend.UnpremulAlpha(g, a)
			b = blend.UnpremulAlpha(b, a)
			aOut = max(aOut, a)
			rOut = max(rOut, r)
			gOut = max(gOut, g)
			bOut = max(bOut, b)
		}
	}
	return blend.Pack(aOut,
		blend.PremulAlpha(rOut, aOut),
		blend.PremulAlpha(gOut, aOut),
		blend.PremulAlpha(bOut, aOut),
	)
}

// AreaEnlarge implements Primitive: the neighborhood reaches
// ceil(radius * (|m.A| + |m.B|)) pixels horizontally and the analogous
// amount vertically.
func (p *Morphology) AreaEnlarge(area geom.IntRect, m geom.Matrix) geom.IntRect {
	ex := int(math.Ceil(p.RadiusX * (math.Abs(m.A) + math.Abs(m.B))))
	ey := int(math.Ceil(p.RadiusY * (math.Abs(m.D) + math.Abs(m.E))))
	return area.ExpandXY(ex, ey)
}

// CanHandleAffine implements Primitive.
func (p *Morphology) CanHandleAffine(m geom.Matrix) bool {
	return m.IsTranslation()
}

// Complexity implements Primitive.
func (p *Morphology) Complexity() float64 {
	return (2*p.RadiusX + 1) * (2*p.RadiusY + 1)
}
