package filter

import (
	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/internal/blend"
	"github.com/gogpu/drawtree/surface"
)

// BlendMode selects the pixel combination of the Blend primitive.
type BlendMode uint8

const (
	BlendNormal BlendMode = iota
	BlendMultiply
	BlendScreen
	BlendDarken
	BlendLighten
)

// Blend composites two inputs pixel-wise. Input 0 is the "upper" image
// A, input 1 the "lower" image B. All modes produce the result opacity
// 1-(1-aA)(1-aB); normal mode reduces to A over B.
//
// Arithmetic is fixed-point on premultiplied 8-bit channels with
// (x+127)/255 rounding.
type Blend struct {
	prim
	Mode BlendMode
}

// NewBlend creates a blend primitive reading slots a and b.
func NewBlend(mode BlendMode, a, b Slot) *Blend {
	p := &Blend{prim: newPrim(), Mode: mode}
	p.SetInput(0, a)
	p.SetInput(1, b)
	return p
}

// Render implements Primitive.
func (p *Blend) Render(st *SlotTable) error {
	in1, err := st.Get(p.in)
	if err != nil {
		return err
	}
	in2, err := st.Get(p.in2)
	if err != nil {
		return err
	}
	a := ensureColor(st.Area(), in1)
	b := ensureColor(st.Area(), in2)
	out := st.NewSurface(surface.ARGB32)

	w, h := out.Width(), out.Height()
	kernel := blendKernel(p.Mode)
	st.Pool().Rows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				out.Set32(x, y, kernel(a.Get32(x, y), b.Get32(x, y)))
			}
		}
	})

	st.Set(p.out, out)
	return nil
}

func blendKernel(mode BlendMode) func(a, b uint32) uint32 {
	switch mode {
	case BlendMultiply:
		return blendMultiply
	case BlendScreen:
		return blendScreen
	case BlendDarken:
		return blendDarken
	case BlendLighten:
		return blendLighten
	default:
		return blend.SourceOver
	}
}

// blendAlpha computes the shared result opacity
// 255*255 - (255-aA)(255-aB), rounded back to 8 bits.
func blendAlpha(aa, ab uint32) uint32 {
	return (255*255 - (255-aa)*(255-ab) + 127) / 255
}

// cr = (1-qa)*cb + (1-qb)*ca + ca*cb
func blendMultiply(in1, in2 uint32) uint32 {
	aa, ra, ga, ba := blend.Unpack(in1)
	ab, rb, gb, bb := blend.Unpack(in2)
	aOut := blendAlpha(aa, ab)
	rOut := ((255-aa)*rb + (255-ab)*ra + ra*rb + 127) / 255
	gOut := ((255-aa)*gb + (255-ab)*ga + ga*gb + 127) / 255
	bOut := ((255-aa)*bb + (255-ab)*ba + ba*bb + 127) / 255
	return blend.Pack(aOut, rOut, gOut, bOut)
}

// cr = cb + ca - ca*cb
func blendScreen(in1, in2 uint32) uint32 {
	aa, ra, ga, ba := blend.Unpack(in1)
	ab, rb, gb, bb := blend.Unpack(in2)
	aOut := blendAlpha(aa, ab)
	rOut := (255*(rb+ra) - ra*rb + 127) / 255
	gOut := (255*(gb+ga) - ga*gb + 127) / 255
	bOut := (255*(bb+ba) - ba*bb + 127) / 255
	return blend.Pack(aOut, rOut, gOut, bOut)
}

// cr = Min((1-qa)*cb + ca, (1-qb)*ca + cb)
func blendDarken(in1, in2 uint32) uint32 {
	aa, ra, ga, ba := blend.Unpack(in1)
	ab, rb, gb, bb := blend.Unpack(in2)
	aOut := blendAlpha(aa, ab)
	rOut := (min((255-aa)*rb+255*ra, (255-ab)*ra+255*rb) + 127) / 255
	gOut := (min((255-aa)*gb+255*ga, (255-ab)*ga+255*gb) + 127) / 255
	bOut := (min((255-aa)*bb+255*ba, (255-ab)*ba+255*bb) + 127) / 255
	return blend.Pack(aOut, rOut, gOut, bOut)
}

// cr = Max((1-qa)*cb + ca, (1-qb)*ca + cb)
func blendLighten(in1, in2 uint32) uint32 {
	aa, ra, ga, ba := blend.Unpack(in1)
	ab, rb, gb, bb := blend.Unpack(in2)
	aOut := blendAlpha(aa, ab)
	rOut := (max((255-aa)*rb+255*ra, (255-ab)*ra+255*rb) + 127) / 255
	gOut := (max((255-aa)*gb+255*ga, (255-ab)*ga+255*gb) + 127) / 255
	bOut := (max((255-aa)*bb+255*ba, (255-ab)*ba+255*bb) + 127) / 255
	return blend.Pack(aOut, rOut, gOut, bOut)
}

// AreaEnlarge implements Primitive; blending is pixel-local.
func (p *Blend) AreaEnlarge(area geom.IntRect, _ geom.Matrix) geom.IntRect {
	return area
}

// CanHandleAffine implements Primitive; per-pixel combination is
// invariant under any transform.
func (p *Blend) CanHandleAffine(geom.Matrix) bool { return true }

// Complexity implements Primitive.
func (p *Blend) Complexity() float64 { return 1.1 }
