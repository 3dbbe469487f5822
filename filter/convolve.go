package filter

import (
	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/internal/blend"
	"github.com/gogpu/drawtree/surface"
)

// EdgeMode selects how ConvolveMatrix extends pixels past the input
// edge. Only EdgeNone is implemented; other modes log once and degrade
// to EdgeNone.
type EdgeMode uint8

const (
	EdgeNone EdgeMode = iota
	EdgeDuplicate
	EdgeWrap
)

// ConvolveMatrix applies a general convolution.
//
// For each output pixel the kernel sum runs over the OrderX x OrderY
// neighborhood anchored at (x-TargetX+j, y-TargetY+i), using the kernel
// pre-divided by Divisor. Kernel entries are indexed rotated:
// entry (OrderX-1-j, OrderY-1-i) weighs sample (j, i). Channels are
// clamped to [0, 255*alpha] and rounded; Bias is added per channel as
// channel + alpha*bias after the sum (alpha: sum + 255*bias).
// The output is split into nine regions so the interior runs without
// bounds checks.
type ConvolveMatrix struct {
	prim
	OrderX, OrderY   int
	TargetX, TargetY int
	Kernel           []float64
	Divisor          float64
	Bias             float64
	Edge             EdgeMode
	PreserveAlpha    bool
}

// NewConvolveMatrix creates a convolution primitive reading the slot.
func NewConvolveMatrix(in Slot) *ConvolveMatrix {
	p := &ConvolveMatrix{prim: newPrim(), Divisor: 1}
	p.SetInput(0, in)
	return p
}

// valid checks the parameter contract.
func (p *ConvolveMatrix) valid() (string, bool) {
	if p.OrderX <= 0 || p.OrderY <= 0 {
		return "empty kernel", false
	}
	if p.TargetX < 0 || p.TargetX >= p.OrderX || p.TargetY < 0 || p.TargetY >= p.OrderY {
		return "target outside kernel", false
	}
	if len(p.Kernel) != p.OrderX*p.OrderY {
		return "kernel size does not match order", false
	}
	if p.Divisor == 0 {
		return "zero divisor", false
	}
	return "", true
}

// Render implements Primitive.
func (p *ConvolveMatrix) Render(st *SlotTable) error {
	if reason, ok := p.valid(); !ok {
		p.warnOnce(func() { logBadParams("ConvolveMatrix", reason) })
		return p.identity(st)
	}
	if p.Edge != EdgeNone {
		p.warnOnce(func() { logBadParams("ConvolveMatrix", "unsupported edge mode, using none") })
	}

	in, err := st.Get(p.in)
	if err != nil {
		return err
	}
	src := ensureColor(st.Area(), in)
	out := st.NewSurface(surface.ARGB32)

	kernel := make([]float64, len(p.Kernel))
	for i, k := range p.Kernel {
		kernel[i] = k / p.Divisor
	}

	w, h := out.Width(), out.Height()
	c := &convolver{
		src: src, out: out,
		w: w, h: h,
		orderX: p.OrderX, orderY: p.OrderY,
		targetX: p.TargetX, targetY: p.TargetY,
		kernel: kernel, bias: p.Bias,
		preserveAlpha: p.PreserveAlpha,
	}

	// Split rows into the three vertical bands; each band splits its
	// columns again inside convolveRow.
	lowerEnd := min(p.TargetY, h)
	upperBegin := h - min(h, p.OrderY-1-p.TargetY)
	midY0 := min(lowerEnd, upperBegin)
	midY1 := max(lowerEnd, upperBegin)
	clampedMid := lowerEnd > upperBegin

	st.Pool().Rows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			switch {
			case y < midY0:
				c.convolveRow(y, true, false)
			case y < midY1 && !clampedMid:
				c.convolveRow(y, false, false)
			case y < midY1:
				c.convolveRow(y, true, true)
			default:
				c.convolveRow(y, false, true)
			}
		}
	})

	st.Set(p.out, out)
	return nil
}

type convolver struct {
	src, out         *surface.Surface
	w, h             int
	orderX, orderY   int
	targetX, targetY int
	kernel           []float64
	bias             float64
	preserveAlpha    bool
}

// convolveRow processes one output row, splitting columns into the
// left, middle, and right bands.
func (c *convolver) convolveRow(y int, yLower, yUpper bool) {
	lowerEnd := min(c.targetX, c.w)
	upperBegin := c.w - min(c.w, c.orderX-1-c.targetX)
	mid0 := min(lowerEnd, upperBegin)
	mid1 := max(lowerEnd, upperBegin)
	clamped := lowerEnd > upperBegin

	for x := 0; x < mid0; x++ {
		c.pixel(x, y, true, false, yLower, yUpper)
	}
	if clamped {
		for x := mid0; x < mid1; x++ {
			c.pixel(x, y, true, true, yLower, yUpper)
		}
	} else {
		for x := mid0; x < mid1; x++ {
			c.pixel(x, y, false, false, yLower, yUpper)
		}
	}
	for x := mid1; x < c.w; x++ {
		c.pixel(x, y, false, true, yLower, yUpper)
	}
}

// pixel accumulates the kernel sum for one output pixel, adjusting loop
// bounds only in the edge bands.
func (c *convolver) pixel(x, y int, xLower, xUpper, yLower, yUpper bool) {
	var sumR, sumG, sumB, sumA float64

	iBegin, iEnd := 0, c.orderY
	if yLower {
		iBegin = c.targetY - y
	}
	if yUpper {
		iEnd = c.h + c.targetY - y
	}
	jBegin, jEnd := 0, c.orderX
	if xLower {
		jBegin = c.targetX - x
	}
	if xUpper {
		jEnd = c.w + c.targetX - x
	}

	for i := iBegin; i < iEnd; i++ {
		sy := y - c.targetY + i
		for j := jBegin; j < jEnd; j++ {
			sx := x - c.targetX + j
			k := c.kernel[(c.orderX-j-1)+c.orderX*(c.orderY-i-1)]
			a, r, g, b := blend.Unpack(c.src.Get32(sx, sy))
			sumR += float64(r) * k
			sumG += float64(g) * k
			sumB += float64(b) * k
			sumA += float64(a) * k
		}
	}

	var aOut uint32
	if c.preserveAlpha {
		aOut = c.src.Get32(x, y) >> 24
	} else {
		aOut = blend.ClampRoundU8(sumA + 255*c.bias)
	}
	rOut := blend.ClampRoundU8Alpha(sumR+float64(aOut)*c.bias, aOut)
	gOut := blend.ClampRoundU8Alpha(sumG+float64(aOut)*c.bias, aOut)
	bOut := blend.ClampRoundU8Alpha(sumB+float64(aOut)*c.bias, aOut)
	c.out.Set32(x, y, blend.Pack(aOut, rOut, gOut, bOut))
}

// AreaEnlarge implements Primitive: the convolution reads Target pixels
// beyond one side and Order-1-Target beyond the other.
func (p *ConvolveMatrix) AreaEnlarge(area geom.IntRect, _ geom.Matrix) geom.IntRect {
	if _, ok := p.valid(); !ok || area.IsEmpty() {
		return area
	}
	return geom.IntRect{
		MinX: area.MinX - p.TargetX,
		MinY: area.MinY - p.TargetY,
		MaxX: area.MaxX + p.OrderX - p.TargetX - 1,
		MaxY: area.MaxY + p.OrderY - p.TargetY - 1,
	}
}

// CanHandleAffine implements Primitive: the kernel is resolution
// dependent, so only translations keep the output stable.
func (p *ConvolveMatrix) CanHandleAffine(m geom.Matrix) bool {
	return m.IsTranslation()
}

// Complexity implements Primitive.
func (p *ConvolveMatrix) Complexity() float64 {
	if _, ok := p.valid(); !ok {
		return 1
	}
	return float64(p.OrderX * p.OrderY)
}
