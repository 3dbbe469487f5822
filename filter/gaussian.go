package filter

import (
	"math"

	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/surface"
)

// GaussianBlur blurs its input with a separable Gaussian approximated
// by three box passes per axis. The separable algorithm processes
// horizontal and vertical passes independently, O(w*h*(rx+ry)) instead
// of O(w*h*rx*ry). Standard deviations are given in primitive units.
type GaussianBlur struct {
	prim
	StdDevX float64
	StdDevY float64
}

// NewGaussianBlur creates a blur primitive reading the slot.
func NewGaussianBlur(stdX, stdY float64, in Slot) *GaussianBlur {
	p := &GaussianBlur{prim: newPrim(), StdDevX: stdX, StdDevY: stdY}
	p.SetInput(0, in)
	return p
}

// pixelDeviation scales the primitive-unit deviations into pixels.
func (p *GaussianBlur) pixelDeviation(m geom.Matrix) (float64, float64) {
	return p.StdDevX * m.ExpansionX(), p.StdDevY * m.ExpansionY()
}

// boxRadii derives the three box-blur radii approximating a Gaussian
// of the given standard deviation, per the SVG 1.1 recipe:
// d = floor(s*3*sqrt(2*pi)/4 + 0.5).
func boxRadii(stddev float64) [3]int {
	d := int(math.Floor(stddev*3*math.Sqrt(2*math.Pi)/4 + 0.5))
	if d < 1 {
		return [3]int{0, 0, 0}
	}
	if d%2 == 1 {
		r := d / 2
		return [3]int{r, r, r}
	}
	r := d / 2
	return [3]int{r, r, r - 1}
}

// Render implements Primitive.
func (p *GaussianBlur) Render(st *SlotTable) error {
	if p.StdDevX < 0 || p.StdDevY < 0 {
		p.warnOnce(func() { logBadParams("GaussianBlur", "negative deviation") })
		return p.identity(st)
	}
	in, err := st.Get(p.in)
	if err != nil {
		return err
	}
	src := ensureColor(st.Area(), in)
	sx, sy := p.pixelDeviation(st.Units().PrimitiveToPixel)

	w, h := src.Width(), src.Height()
	cur := st.NewSurface(surface.ARGB32)
	copy(cur.Data(), src.Data())
	tmp := st.NewSurface(surface.ARGB32)

	for _, r := range boxRadii(sx) {
		if r <= 0 {
			continue
		}
		radius := r
		st.Pool().Rows(h, func(y0, y1 int) {
			for y := y0; y < y1; y++ {
				boxBlurRow(cur, tmp, y, w, radius)
			}
		})
		cur, tmp = tmp, cur
	}
	for _, r := range boxRadii(sy) {
		if r <= 0 {
			continue
		}
		radius := r
		st.Pool().Rows(w, func(x0, x1 int) {
			for x := x0; x < x1; x++ {
				boxBlurColumn(cur, tmp, x, h, radius)
			}
		})
		cur, tmp = tmp, cur
	}

	st.Set(p.out, cur)
	return nil
}

// boxBlurRow runs a sliding box average over one row.
func boxBlurRow(src, dst *surface.Surface, y, w, r int) {
	size := uint32(2*r + 1)
	var sa, sr, sg, sb uint32
	for x := -r; x <= r; x++ {
		a, rr, g, b := unpackAt(src, x, y)
		sa += a
		sr += rr
		sg += g
		sb += b
	}
	for x := 0; x < w; x++ {
		dst.Set32(x, y, packAvg(sa, sr, sg, sb, size))
		a0, r0, g0, b0 := unpackAt(src, x-r, y)
		a1, r1, g1, b1 := unpackAt(src, x+r+1, y)
		sa += a1 - a0
		sr += r1 - r0
		sg += g1 - g0
		sb += b1 - b0
	}
}

// boxBlurColumn runs a sliding box average over one column.
func boxBlurColumn(src, dst *surface.Surface, x, h, r int) {
	size := uint32(2*r + 1)
	var sa, sr, sg, sb uint32
	for y := -r; y <= r; y++ {
		a, rr, g, b := unpackAt(src, x, y)
		sa += a
		sr += rr
		sg += g
		sb += b
	}
	for y := 0; y < h; y++ {
		dst.Set32(x, y, packAvg(sa, sr, sg, sb, size))
		a0, r0, g0, b0 := unpackAt(src, x, y-r)
		a1, r1, g1, b1 := unpackAt(src, x, y+r+1)
		sa += a1 - a0
		sr += r1 - r0
		sg += g1 - g0
		sb += b1 - b0
	}
}

func unpackAt(s *surface.Surface, x, y int) (a, r, g, b uint32) {
	px := s.Get32(x, y)
	return px >> 24, (px >> 16) & 0xff, (px >> 8) & 0xff, px & 0xff
}

func packAvg(a, r, g, b, n uint32) uint32 {
	return (a/n)<<24 | (r/n)<<16 | (g/n)<<8 | b/n
}

// AreaEnlarge implements Primitive: three standard deviations cover the
// visible support of the Gaussian.
func (p *GaussianBlur) AreaEnlarge(area geom.IntRect, m geom.Matrix) geom.IntRect {
	sx, sy := p.pixelDeviation(m)
	return area.ExpandXY(int(math.Ceil(sx*3)), int(math.Ceil(sy*3)))
}

// CanHandleAffine implements Primitive.
func (p *GaussianBlur) CanHandleAffine(m geom.Matrix) bool {
	return m.IsTranslation()
}

// Complexity implements Primitive.
func (p *GaussianBlur) Complexity() float64 {
	return 3 * (p.StdDevX + p.StdDevY + 1)
}
