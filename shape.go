package drawtree

import (
	"math"
	"time"

	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/internal/blend"
	"github.com/gogpu/drawtree/surface"
)

// shapeVariant renders a stroked and filled path. Children act as
// markers and render above the shape's own geometry.
type shapeVariant struct {
	it    *Item
	path  surface.PathVector
	style *Style

	// pick throttling for huge paths
	lastPick    *Item
	repickAfter int
}

// NewShape creates a shape item.
func NewShape(d *Drawing) *Item {
	s := &shapeVariant{style: DefaultStyle()}
	it := newItem(d, s)
	s.it = it
	return it
}

// SetPath replaces the item's path geometry. Meaningful for shape and
// glyph items.
func (it *Item) SetPath(pv surface.PathVector) {
	type pathSetter interface{ setPath(surface.PathVector) }
	if ps, ok := it.variant.(pathSetter); ok {
		it.markForRendering()
		ps.setPath(pv)
		it.markForUpdate(StateAll, false)
	}
}

// SetStyle replaces the item's resolved style. Meaningful for shape,
// text, and glyph items.
func (it *Item) SetStyle(s *Style) {
	type styleSetter interface{ setStyle(*Style) }
	if ss, ok := it.variant.(styleSetter); ok {
		it.markForRendering()
		ss.setStyle(s)
		it.markForUpdate(StateAll, false)
	}
}

// ShapeStyle returns the item's style for variants that carry one,
// nil otherwise.
func (it *Item) ShapeStyle() *Style {
	type styleGetter interface{ getStyle() *Style }
	if sg, ok := it.variant.(styleGetter); ok {
		return sg.getStyle()
	}
	return nil
}

func (s *shapeVariant) setPath(pv surface.PathVector) {
	s.path = pv
	s.lastPick = nil
	s.repickAfter = 0
}

func (s *shapeVariant) setStyle(st *Style) { s.style = st }
func (s *shapeVariant) getStyle() *Style   { return s.style }

func (s *shapeVariant) kind() ItemKind { return KindShape }

// strokeEnlarge returns the pixel growth of the bbox caused by the
// stroke: the device-space stroke width with a minimum covering
// antialiasing spill, plus the worst-case miter spike of that width.
func (s *shapeVariant) strokeEnlarge(ctm geom.Matrix) float64 {
	if !s.style.HasStroke() {
		return 0
	}
	width := math.Max(0.125, s.style.StrokeWidth*ctm.Expansion())
	return width + s.style.MiterLimit*width
}

func (s *shapeVariant) updateItem(area geom.IntRect, ctx UpdateContext, flags, reset State) State {
	it := s.it
	if s.path == nil {
		it.bbox = geom.EmptyIntRect()
		it.itemBBox = geom.EmptyRect()
	} else {
		if local, ok := s.path.BoundsExactTransformed(geom.Identity()); ok {
			it.itemBBox = local
		} else {
			it.itemBBox = geom.EmptyRect()
		}
		bounds, ok := s.path.BoundsExactTransformed(ctx.CTM)
		if !ok {
			it.bbox = geom.EmptyIntRect()
		} else {
			bounds = bounds.Expand(s.strokeEnlarge(ctx.CTM))
			it.bbox = bounds.OutwardRound()
		}
	}

	// markers
	for _, c := range it.children {
		c.Update(area, ctx, flags, reset)
		if c.visible {
			it.bbox = it.bbox.Union(c.drawbox)
		}
	}
	return StateAll
}

func (s *shapeVariant) renderItem(ct *surface.Context, area geom.IntRect, flags RenderFlags) {
	it := s.it
	if s.path != nil {
		if it.drawing.renderMode == RenderModeOutline {
			s.renderOutline(ct)
		} else {
			s.renderStyled(ct)
		}
	}
	// markers render above the shape
	for _, c := range it.children {
		c.Render(ct, area, flags)
	}
}

func (s *shapeVariant) renderStyled(ct *surface.Context) {
	it := s.it
	defer ct.Guard()()
	ct.SetTransform(it.ctm)
	ct.Path(s.path)

	if s.style.HasFill() {
		s.style.Fill.Apply(ct, it.itemBBox)
		applyPaintOpacity(ct, s.style.Fill, s.style.FillOpacity)
		ct.SetFillRule(s.style.FillRule)
		ct.FillPreserve()
	}
	if s.style.HasStroke() {
		s.style.Stroke.Apply(ct, it.itemBBox)
		applyPaintOpacity(ct, s.style.Stroke, s.style.StrokeOpacity)
		ct.SetStrokeParams(s.style.strokeParams())
		ct.StrokePreserve()
	}
	ct.NewPath()
}

// renderOutline draws the hairline wireframe of the path.
func (s *shapeVariant) renderOutline(ct *surface.Context) {
	it := s.it
	defer ct.Guard()()
	ct.SetTransform(it.ctm)
	ct.Path(s.path)
	ct.SetSourcePremul(SolidPaint(it.drawing.outlineColor).Premul())
	params := surface.DefaultStrokeParams()
	params.Width = outlineWidth(it.ctm)
	ct.SetStrokeParams(params)
	ct.Stroke()
}

// outlineWidth keeps wireframe strokes one device pixel wide.
func outlineWidth(ctm geom.Matrix) float64 {
	e := ctm.Expansion()
	if e <= 0 {
		return 1
	}
	return 1 / e
}

// applyPaintOpacity folds a fill/stroke opacity into a solid source.
// Host paint servers carry their own opacity.
func applyPaintOpacity(ct *surface.Context, p Paint, opacity float64) {
	if opacity >= 1 {
		return
	}
	if sp, ok := p.(SolidPaint); ok {
		ct.SetSourcePremul(blend.MulAlpha(sp.Premul(), blend.ClampRoundU8(opacity*255)))
	}
}

func (s *shapeVariant) clipItem(ct *surface.Context, area geom.IntRect) {
	if s.path == nil {
		return
	}
	defer ct.Guard()()
	ct.SetTransform(s.it.ctm)
	ct.SetFillRule(s.style.FillRule)
	ct.Path(s.path)
	ct.Fill()
}

// slowPickThreshold is the query duration beyond which a shape starts
// skipping picks, in microseconds.
const slowPickThreshold = 10000

func (s *shapeVariant) pickItem(p geom.Point, delta float64, sticky bool) *Item {
	if s.path == nil {
		return nil
	}
	if s.repickAfter > 0 {
		s.repickAfter--
	}
	if s.repickAfter > 0 {
		// a slow, huge path: skip this pick and answer what we
		// answered last time near this point
		if memo, ok := s.it.drawing.recallPick(s.it, p); ok {
			return memo
		}
		return s.lastPick
	}

	it := s.it
	start := time.Now()

	tolerance := delta
	if s.style.HasStroke() {
		tolerance += 0.5 * s.style.StrokeWidth * it.ctm.Expansion()
	}

	viewbox := it.bbox.Rect().Expand(tolerance + 1)
	winding, distance := s.path.WindDistance(it.ctm, p, &viewbox)

	var picked *Item
	if it.drawing.renderMode == RenderModeOutline {
		// in outline mode the hit is anywhere near a segment
		if distance <= math.Max(delta, 0.125)+outlineWidth(it.ctm) {
			picked = it
		}
	} else {
		switch {
		case s.style.HasFill() && windingHit(winding, s.style.FillRule):
			picked = it
		case distance <= tolerance:
			picked = it
		}
	}

	elapsed := time.Since(start).Microseconds()
	if elapsed > slowPickThreshold {
		// slow picking: remember the answer and skip several new picks
		s.repickAfter = int(elapsed / 5000)
		it.drawing.rememberPick(it, p, picked)
	}
	s.lastPick = picked
	return picked
}

// windingHit interprets a winding number under a fill rule.
func windingHit(winding int, rule surface.FillRule) bool {
	if rule == surface.FillEvenOdd {
		return winding%2 != 0
	}
	return winding != 0
}

func (s *shapeVariant) canClip() bool { return true }
