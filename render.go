package drawtree

import (
	"github.com/gogpu/drawtree/cache"
	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/surface"
)

// opacityOpaque is the opacity above which an item counts as fully
// opaque and skips the intermediate surface.
const opacityOpaque = 0.995

// Render composites the item into the drawing context, restricted to
// area. The pipeline combines the item's content with its clip, mask,
// filter, and opacity; items that need none of them take the fast path
// straight into the target.
func (it *Item) Render(ct *surface.Context, area geom.IntRect, flags RenderFlags) {
	d := it.drawing
	if !it.visible {
		return
	}
	if d.renderMode == RenderModeOutline {
		it.renderOutline(ct, area, flags)
		return
	}
	renderFilters := d.renderMode == RenderModeNormal

	// carea is the bounding box for intermediate rendering
	carea := area.Intersect(it.drawbox)
	if carea.IsEmpty() {
		return
	}

	useCache := it.cached && flags&RenderBypassCache == 0
	if useCache {
		if it.tile != nil {
			it.tile.Prepare()
			if it.tile.PaintFromCache(ct, carea) {
				return
			}
		} else {
			// no tile yet: caching was turned on after the last update,
			// or the item just entered the canvas
			cl := it.cacheRect()
			if !cl.IsEmpty() {
				it.tile = cache.NewTile(cl)
				if it.tile == nil {
					// transient allocation failure: render directly
					useCache = false
				}
			} else {
				useCache = false
			}
		}
	}

	// expand carea so filters see their dependent pixels
	if it.filt != nil && renderFilters {
		carea = it.filt.AreaEnlarge(carea, it.ctm, it.itemBBox).Intersect(it.drawbox)
	}

	// an intermediate surface is needed whenever the content cannot be
	// composited into the target directly
	needsOpacity := it.opacity < opacityOpaque
	intermediate := it.clip != nil || it.mask != nil ||
		(it.filt != nil && renderFilters) || needsOpacity

	if !intermediate {
		if useCache && it.tile != nil {
			tct := surface.NewContext(it.tile.Surface())
			func() {
				defer tct.Guard()()
				tct.RectangleInt(area)
				tct.Clip()
				// clear the part of the tile being repainted
				tct.SetSourcePremul(0)
				tct.SetOperator(surface.OpSource)
				tct.Paint()
				tct.SetOperator(surface.OpOver)
				it.variant.renderItem(tct, carea, flags)
			}()
			it.tile.MarkClean(area)

			defer ct.Guard()()
			ct.RectangleInt(carea)
			ct.Clip()
			ct.SetSourceSurface(it.tile.Surface(), 0, 0)
			ct.Paint()
			ct.ClearSource()
			return
		}
		it.variant.renderItem(ct, carea, flags)
		return
	}

	// slow path: build clip+mask+opacity alpha, render content into a
	// group, and composite with IN
	iSurf, err := surface.New(carea)
	if err != nil {
		// transient resource failure: skip this item's render
		logAllocFailure(carea)
		return
	}
	ict := surface.NewContext(iSurf)

	// 1. render the clipping path with alpha = opacity; SOURCE avoids
	// double-counting overlapping clip children
	ict.SetSourceRGBA(0, 0, 0, it.opacity)
	ict.SetOperator(surface.OpSource)
	if it.clip != nil {
		it.clip.ClipRender(ict, carea)
	} else {
		ict.Paint()
	}
	ict.SetOperator(surface.OpOver)

	// 2. render the mask and fold its luminance into the alpha
	if it.mask != nil {
		ict.PushGroup()
		it.mask.Render(ict, carea, flags)
		surface.LuminanceToAlpha(ict.Target())
		ict.PopGroupToSource()
		ict.SetOperator(surface.OpIn)
		ict.Paint()
		ict.SetOperator(surface.OpOver)
	}

	// 3. render the object itself into a group
	ict.PushGroup()
	it.variant.renderItem(ict, carea, flags)

	// 4. apply the filter to the group's target
	if it.filt != nil && renderFilters {
		src := ict.Target()
		out, ferr := it.filt.Render(src, carea, it.ctm, it.itemBBox, d.pool,
			nil, it.fillPaintPremul(), it.strokePaintPremul())
		if ferr == nil {
			surface.CopyRect(src, out, carea)
		}
		// a filter that errors renders as if absent
	}

	// 5. composite the content inside the clip+mask+opacity alpha
	ict.PopGroupToSource()
	ict.SetOperator(surface.OpIn)
	ict.Paint()

	// 6. paint the finished intermediate onto the target, going through
	// the cache when enabled
	if useCache && it.tile != nil {
		cct := surface.NewContext(it.tile.Surface())
		func() {
			defer cct.Guard()()
			cct.RectangleInt(area)
			cct.Clip()
			cct.SetOperator(surface.OpSource)
			cct.SetSourceSurface(iSurf, 0, 0)
			cct.Paint()
		}()
		it.tile.MarkClean(area)
	}
	defer ct.Guard()()
	ct.RectangleInt(carea)
	ct.Clip()
	ct.SetSourceSurface(iSurf, 0, 0)
	ct.Paint()
	// drop the reference to the intermediate surface
	ct.ClearSource()
}

// renderOutline draws the wireframe of the item, its clip in the clip
// color, and its mask in the mask color.
func (it *Item) renderOutline(ct *surface.Context, area geom.IntRect, flags RenderFlags) {
	d := it.drawing
	// intersect with bbox rather than drawbox: outline mode shows
	// geometry outside the clipping path too
	carea := area.Intersect(it.bbox)
	if carea.IsEmpty() {
		return
	}
	it.variant.renderItem(ct, carea, flags)

	saved := d.outlineColor
	if it.clip != nil {
		d.outlineColor = d.clipColor
		it.clip.Render(ct, carea, flags)
	}
	if it.mask != nil {
		d.outlineColor = d.maskColor
		it.mask.Render(ct, carea, flags)
	}
	d.outlineColor = saved
}

// ClipRender renders the item as an opaque shape, for use as the clip
// of another item. If the clip itself has a clip, the two are
// composited inside a temporary group first.
func (it *Item) ClipRender(ct *surface.Context, area geom.IntRect) {
	if !it.variant.canClip() {
		return
	}
	if !it.visible {
		return
	}
	if !area.Intersects(it.bbox) {
		return
	}

	// a clipping path that itself has a clipping path: render this
	// item's clip onto a temporary surface and composite with IN
	if it.clip != nil {
		ct.PushGroupWithContent(surface.ContentAlpha)
		func() {
			defer ct.Guard()()
			ct.SetSourceRGBA(0, 0, 0, 1)
			it.clip.ClipRender(ct, area)
		}()
		ct.PushGroupWithContent(surface.ContentAlpha)
	}

	it.variant.clipItem(ct, area)

	if it.clip != nil {
		ct.PopGroupToSource()
		ct.SetOperator(surface.OpIn)
		ct.Paint()
		ct.PopGroupToSource()
		ct.SetOperator(surface.OpSource)
		ct.Paint()
	}
}

// fillPaintPremul resolves the item's fill paint for filter paint slots.
func (it *Item) fillPaintPremul() uint32 {
	if s := it.ShapeStyle(); s != nil {
		return paintPremul(s.Fill)
	}
	return 0
}

// strokePaintPremul resolves the item's stroke paint for filter slots.
func (it *Item) strokePaintPremul() uint32 {
	if s := it.ShapeStyle(); s != nil {
		return paintPremul(s.Stroke)
	}
	return 0
}
