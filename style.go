package drawtree

import (
	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/internal/blend"
	"github.com/gogpu/drawtree/surface"
)

// Paint is a source of color for fills and strokes. Solid colors are
// provided by SolidPaint; gradients and patterns come from the host,
// which installs them on a context when asked. Paints are referenced,
// never owned: the host guarantees they outlive every item using them.
type Paint interface {
	// Apply installs the paint as the context's source. bbox is the
	// item bounding box in user units, for bbox-relative paint servers.
	Apply(ct *surface.Context, bbox geom.Rect)
}

// SolidPaint is a straight-alpha 0xRRGGBBAA color.
type SolidPaint uint32

// Apply implements Paint.
func (p SolidPaint) Apply(ct *surface.Context, _ geom.Rect) {
	ct.SetSourcePremul(p.Premul())
}

// Premul returns the color as a premultiplied ARGB32 word.
func (p SolidPaint) Premul() uint32 {
	r := uint32(p>>24) & 0xff
	g := uint32(p>>16) & 0xff
	b := uint32(p>>8) & 0xff
	a := uint32(p) & 0xff
	return blend.Pack(a,
		blend.PremulAlpha(r, a),
		blend.PremulAlpha(g, a),
		blend.PremulAlpha(b, a),
	)
}

// Style resolves the visual properties of a shape or text item. A nil
// Fill or Stroke paint means "none". A paint that references an
// unresolvable gradient or pattern is represented by the host as nil.
type Style struct {
	Fill   Paint
	Stroke Paint

	FillRule      surface.FillRule
	FillOpacity   float64
	StrokeOpacity float64

	StrokeWidth float64
	Cap         surface.LineCap
	Join        surface.LineJoin
	MiterLimit  float64
	Dashes      []float64
	DashOffset  float64
}

// DefaultStyle returns an unstroked opaque black fill.
func DefaultStyle() *Style {
	return &Style{
		Fill:          SolidPaint(0x000000ff),
		FillOpacity:   1,
		StrokeOpacity: 1,
		StrokeWidth:   1,
		MiterLimit:    4,
	}
}

// HasFill reports whether the style paints the interior.
func (s *Style) HasFill() bool {
	return s != nil && s.Fill != nil && s.FillOpacity > 0
}

// HasStroke reports whether the style paints the outline.
func (s *Style) HasStroke() bool {
	return s != nil && s.Stroke != nil && s.StrokeOpacity > 0 && s.StrokeWidth > 0
}

// strokeParams converts the style's stroke settings for the context.
func (s *Style) strokeParams() surface.StrokeParams {
	return surface.StrokeParams{
		Width:      s.StrokeWidth,
		Cap:        s.Cap,
		Join:       s.Join,
		MiterLimit: s.MiterLimit,
		Dashes:     s.Dashes,
		DashOffset: s.DashOffset,
	}
}

// paintPremul extracts a premultiplied color from a paint for the
// filter paint slots; non-solid paints contribute transparent black.
func paintPremul(p Paint) uint32 {
	if sp, ok := p.(SolidPaint); ok {
		return sp.Premul()
	}
	return 0
}
