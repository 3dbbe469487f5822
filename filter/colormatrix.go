package filter

import (
	"math"

	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/internal/blend"
	"github.com/gogpu/drawtree/surface"
)

// ColorMatrixType selects one of the four feColorMatrix behaviors.
type ColorMatrixType uint8

const (
	// ColorMatrixMatrix applies a 20-entry matrix to straight RGBA.
	ColorMatrixMatrix ColorMatrixType = iota

	// ColorMatrixSaturate blends toward luminance by 1-Value.
	ColorMatrixSaturate

	// ColorMatrixHueRotate rotates hue by Value degrees.
	ColorMatrixHueRotate

	// ColorMatrixLuminanceToAlpha emits luminance as alpha.
	ColorMatrixLuminanceToAlpha
)

// ColorMatrix transforms colors per-pixel.
//
// The 20-entry mode un-premultiplies, applies the matrix in fixed point
// (coefficients scaled by 255, offsets by 255*255), clamps to
// [0, 255*255], rounds with (x+127)/255, and re-premultiplies.
// Saturate and hue-rotate operate directly on premultiplied channels;
// luminance-to-alpha emits an alpha-only surface.
type ColorMatrix struct {
	prim
	Type   ColorMatrixType
	Value  float64     // saturate amount or hue angle in degrees
	Values [20]float64 // matrix entries for ColorMatrixMatrix
}

// NewColorMatrix creates a color matrix primitive of the given type
// reading the given slot.
func NewColorMatrix(t ColorMatrixType, in Slot) *ColorMatrix {
	p := &ColorMatrix{prim: newPrim(), Type: t}
	p.SetInput(0, in)
	return p
}

// Render implements Primitive.
func (p *ColorMatrix) Render(st *SlotTable) error {
	in, err := st.Get(p.in)
	if err != nil {
		return err
	}
	src := ensureColor(st.Area(), in)

	var out *surface.Surface
	var kernel func(uint32) uint32
	switch p.Type {
	case ColorMatrixMatrix:
		out = st.NewSurface(surface.ARGB32)
		kernel = matrixKernel(p.Values)
	case ColorMatrixSaturate:
		out = st.NewSurface(surface.ARGB32)
		kernel = saturateKernel(p.Value)
	case ColorMatrixHueRotate:
		out = st.NewSurface(surface.ARGB32)
		kernel = hueRotateKernel(p.Value)
	case ColorMatrixLuminanceToAlpha:
		out = st.NewSurface(surface.A8)
		kernel = luminanceToAlphaKernel
	default:
		p.warnOnce(func() { logBadParams("ColorMatrix", "unknown type") })
		return p.identity(st)
	}

	w, h := out.Width(), out.Height()
	st.Pool().Rows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				out.Set32(x, y, kernel(src.Get32(x, y)))
			}
		}
	})

	st.Set(p.out, out)
	return nil
}

// matrixKernel builds the fixed-point 20-entry transform.
func matrixKernel(values [20]float64) func(uint32) uint32 {
	var v [20]int32
	for i, f := range values {
		if i%5 == 4 {
			v[i] = int32(math.Round(f * 255 * 255))
		} else {
			v[i] = int32(math.Round(f * 255))
		}
	}
	return func(in uint32) uint32 {
		a, r, g, b := blend.Unpack(in)
		if a != 0 {
			r = blend.UnpremulAlpha(r, a)
			g = blend.UnpremulAlpha(g, a)
			b = blend.UnpremulAlpha(b, a)
		}
		ri, gi, bi, ai := int32(r), int32(g), int32(b), int32(a)
		rOut := ri*v[0] + gi*v[1] + bi*v[2] + ai*v[3] + v[4]
		gOut := ri*v[5] + gi*v[6] + bi*v[7] + ai*v[8] + v[9]
		bOut := ri*v[10] + gi*v[11] + bi*v[12] + ai*v[13] + v[14]
		aOut := ri*v[15] + gi*v[16] + bi*v[17] + ai*v[18] + v[19]
		roc := uint32(blend.Clamp(rOut, 0, 255*255)+127) / 255
		goc := uint32(blend.Clamp(gOut, 0, 255*255)+127) / 255
		boc := uint32(blend.Clamp(bOut, 0, 255*255)+127) / 255
		aoc := uint32(blend.Clamp(aOut, 0, 255*255)+127) / 255
		return blend.Pack(aoc,
			blend.PremulAlpha(roc, aoc),
			blend.PremulAlpha(goc, aoc),
			blend.PremulAlpha(boc, aoc),
		)
	}
}

// saturateKernel blends toward luminance. Runs in floating point on
// premultiplied values directly; the parameter clamp to [0,1] keeps the
// results inside the valid premultiplied range.
func saturateKernel(value float64) func(uint32) uint32 {
	v := math.Max(0, math.Min(1, value))
	m := [9]float64{
		0.213 + 0.787*v, 0.715 - 0.715*v, 0.072 - 0.072*v,
		0.213 - 0.213*v, 0.715 + 0.285*v, 0.072 - 0.072*v,
		0.213 - 0.213*v, 0.715 - 0.715*v, 0.072 + 0.928*v,
	}
	return func(in uint32) uint32 {
		a, r, g, b := blend.Unpack(in)
		rf, gf, bf := float64(r), float64(g), float64(b)
		rOut := uint32(rf*m[0] + gf*m[1] + bf*m[2] + 0.5)
		gOut := uint32(rf*m[3] + gf*m[4] + bf*m[5] + 0.5)
		bOut := uint32(rf*m[6] + gf*m[7] + bf*m[8] + 0.5)
		return blend.Pack(a, rOut, gOut, bOut)
	}
}

// hueRotateKernel rotates hue with integer coefficients at 255 scale.
// Out-of-range results are clamped to the pixel's alpha, keeping the
// output premultiplied.
func hueRotateKernel(degrees float64) func(uint32) uint32 {
	sin, cos := math.Sincos(degrees * math.Pi / 180)
	var m [9]int32
	coef := [9]float64{
		0.213 + 0.787*cos - 0.213*sin,
		0.715 - 0.715*cos - 0.715*sin,
		0.072 - 0.072*cos + 0.928*sin,
		0.213 - 0.213*cos + 0.143*sin,
		0.715 + 0.285*cos + 0.140*sin,
		0.072 - 0.072*cos - 0.283*sin,
		0.213 - 0.213*cos - 0.787*sin,
		0.715 - 0.715*cos + 0.715*sin,
		0.072 + 0.928*cos + 0.072*sin,
	}
	for i, f := range coef {
		m[i] = int32(math.Round(f * 255))
	}
	return func(in uint32) uint32 {
		a, r, g, b := blend.Unpack(in)
		maxpx := int32(a) * 255
		ri, gi, bi := int32(r), int32(g), int32(b)
		rOut := uint32(blend.Clamp(ri*m[0]+gi*m[1]+bi*m[2], 0, maxpx)+127) / 255
		gOut := uint32(blend.Clamp(ri*m[3]+gi*m[4]+bi*m[5], 0, maxpx)+127) / 255
		bOut := uint32(blend.Clamp(ri*m[6]+gi*m[7]+bi*m[8], 0, maxpx)+127) / 255
		return blend.Pack(a, rOut, gOut, bOut)
	}
}

// luminanceToAlphaKernel un-premultiplies, then computes
// alpha = (54r + 182g + 18b + 127)/255.
func luminanceToAlphaKernel(in uint32) uint32 {
	a, r, g, b := blend.Unpack(in)
	if a != 0 {
		r = blend.UnpremulAlpha(r, a)
		g = blend.UnpremulAlpha(g, a)
		b = blend.UnpremulAlpha(b, a)
	}
	aOut := r*54 + g*182 + b*18
	return ((aOut + 127) / 255) << 24
}

// AreaEnlarge implements Primitive; color transforms are pixel-local.
func (p *ColorMatrix) AreaEnlarge(area geom.IntRect, _ geom.Matrix) geom.IntRect {
	return area
}

// CanHandleAffine implements Primitive.
func (p *ColorMatrix) CanHandleAffine(geom.Matrix) bool { return true }

// Complexity implements Primitive.
func (p *ColorMatrix) Complexity() float64 { return 2 }
