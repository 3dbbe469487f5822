package drawtree

import (
	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/surface"
)

// glyphsVariant is a single positioned glyph outline. Its path comes
// pre-extracted from the host's font machinery; the styling lives on
// the text parent.
type glyphsVariant struct {
	it   *Item
	path surface.PathVector
}

// NewGlyphs creates a glyph item.
func NewGlyphs(d *Drawing) *Item {
	v := &glyphsVariant{}
	it := newItem(d, v)
	v.it = it
	return it
}

func (v *glyphsVariant) setPath(pv surface.PathVector) { v.path = pv }

func (v *glyphsVariant) kind() ItemKind { return KindGlyphs }

func (v *glyphsVariant) updateItem(_ geom.IntRect, ctx UpdateContext, _, _ State) State {
	it := v.it
	if v.path == nil {
		it.bbox = geom.EmptyIntRect()
		it.itemBBox = geom.EmptyRect()
		return StateAll
	}
	if local, ok := v.path.BoundsExactTransformed(geom.Identity()); ok {
		it.itemBBox = local
	}
	if bounds, ok := v.path.BoundsExactTransformed(ctx.CTM); ok {
		it.bbox = bounds.OutwardRound()
	} else {
		it.bbox = geom.EmptyIntRect()
	}
	return StateAll
}

// renderItem draws the glyph only in outline mode; in normal rendering
// the text parent gathers all glyph paths and paints them at once.
func (v *glyphsVariant) renderItem(ct *surface.Context, _ geom.IntRect, _ RenderFlags) {
	if v.path == nil || v.it.drawing.renderMode != RenderModeOutline {
		return
	}
	it := v.it
	defer ct.Guard()()
	ct.SetTransform(it.ctm)
	ct.Path(v.path)
	ct.SetSourcePremul(SolidPaint(it.drawing.outlineColor).Premul())
	params := surface.DefaultStrokeParams()
	params.Width = outlineWidth(it.ctm)
	ct.SetStrokeParams(params)
	ct.Stroke()
}

func (v *glyphsVariant) clipItem(ct *surface.Context, _ geom.IntRect) {
	if v.path == nil {
		return
	}
	defer ct.Guard()()
	ct.SetTransform(v.it.ctm)
	ct.Path(v.path)
	ct.Fill()
}

func (v *glyphsVariant) pickItem(p geom.Point, delta float64, _ bool) *Item {
	// the common pick already verified the expanded bbox contains p
	return v.it
}

func (v *glyphsVariant) canClip() bool { return true }

// textVariant groups glyph children and styles them in one go: all
// glyph paths are gathered and filled/stroked once, so overlapping
// glyphs at partial opacity do not double-paint.
type textVariant struct {
	groupVariant
	style *Style
}

// NewText creates a text item. Its children are glyph items.
func NewText(d *Drawing) *Item {
	v := &textVariant{style: DefaultStyle()}
	it := newItem(d, v)
	v.it = it
	return it
}

func (v *textVariant) setStyle(s *Style) { v.style = s }
func (v *textVariant) getStyle() *Style  { return v.style }

func (v *textVariant) kind() ItemKind { return KindText }

func (v *textVariant) renderItem(ct *surface.Context, area geom.IntRect, flags RenderFlags) {
	it := v.it
	if it.drawing.renderMode == RenderModeOutline {
		// wireframe: each glyph draws its own outline
		v.groupVariant.renderItem(ct, area, flags)
		return
	}

	defer ct.Guard()()
	gathered := false
	for _, c := range it.children {
		g, ok := c.variant.(*glyphsVariant)
		if !ok || !c.visible || g.path == nil {
			continue
		}
		ct.SetTransform(c.ctm)
		ct.Path(g.path)
		gathered = true
	}
	if !gathered {
		return
	}

	if v.style.HasFill() {
		v.style.Fill.Apply(ct, it.itemBBox)
		applyPaintOpacity(ct, v.style.Fill, v.style.FillOpacity)
		ct.SetFillRule(v.style.FillRule)
		ct.FillPreserve()
	}
	if v.style.HasStroke() {
		v.style.Stroke.Apply(ct, it.itemBBox)
		applyPaintOpacity(ct, v.style.Stroke, v.style.StrokeOpacity)
		ct.SetStrokeParams(v.style.strokeParams())
		ct.StrokePreserve()
	}
	ct.NewPath()
}

func (v *textVariant) pickItem(p geom.Point, delta float64, sticky bool) *Item {
	// group-style descent, but the text item is what gets picked
	for i := len(v.it.children) - 1; i >= 0; i-- {
		if picked := v.it.children[i].Pick(p, delta, sticky); picked != nil {
			return v.it
		}
	}
	return nil
}
