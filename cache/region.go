// Package cache implements per-item cached rasterizations: tiles with
// sub-region dirty tracking, and the budget registry with score-based
// eviction. Each Drawing owns its own registry; registries of different
// drawings do not share a byte budget.
package cache

import "github.com/gogpu/drawtree/geom"

// Region is a set of pixel rectangles, which may overlap. It tracks the dirty
// parts of a cache tile: rectangles are added when the item underneath
// changes and subtracted as areas are repainted.
type Region struct {
	rects []geom.IntRect
}

// IsEmpty reports whether the region covers no pixels.
func (r *Region) IsEmpty() bool {
	return len(r.rects) == 0
}

// Rects returns the rectangles of the region. The slice is owned by the
// region and must not be mutated.
func (r *Region) Rects() []geom.IntRect {
	return r.rects
}

// Clear empties the region.
func (r *Region) Clear() {
	r.rects = r.rects[:0]
}

// Add unions a rectangle into the region. Rectangles fully contained in
// an existing one are dropped; an added rectangle swallows the existing
// ones it contains.
func (r *Region) Add(rect geom.IntRect) {
	if rect.IsEmpty() {
		return
	}
	kept := r.rects[:0]
	for _, e := range r.rects {
		if rect.ContainsRect(e) {
			continue
		}
		if e.ContainsRect(rect) {
			return
		}
		kept = append(kept, e)
	}
	r.rects = append(kept, rect)
}

// Subtract removes a rectangle from the region. Partially covered
// rectangles are split into up to four remainders.
func (r *Region) Subtract(rect geom.IntRect) {
	if rect.IsEmpty() || len(r.rects) == 0 {
		return
	}
	out := make([]geom.IntRect, 0, len(r.rects))
	for _, e := range r.rects {
		if !e.Intersects(rect) {
			out = append(out, e)
			continue
		}
		out = appendDifference(out, e, rect)
	}
	r.rects = out
}

// appendDifference appends e minus cut to dst.
func appendDifference(dst []geom.IntRect, e, cut geom.IntRect) []geom.IntRect {
	// top band
	if cut.MinY > e.MinY {
		dst = append(dst, geom.IntRect{MinX: e.MinX, MinY: e.MinY, MaxX: e.MaxX, MaxY: cut.MinY})
	}
	// bottom band
	if cut.MaxY < e.MaxY {
		dst = append(dst, geom.IntRect{MinX: e.MinX, MinY: cut.MaxY, MaxX: e.MaxX, MaxY: e.MaxY})
	}
	midY0 := max(e.MinY, cut.MinY)
	midY1 := min(e.MaxY, cut.MaxY)
	// left band
	if cut.MinX > e.MinX {
		dst = append(dst, geom.IntRect{MinX: e.MinX, MinY: midY0, MaxX: cut.MinX, MaxY: midY1})
	}
	// right band
	if cut.MaxX < e.MaxX {
		dst = append(dst, geom.IntRect{MinX: cut.MaxX, MinY: midY0, MaxX: e.MaxX, MaxY: midY1})
	}
	return dst
}

// Intersects reports whether the region overlaps the rectangle.
func (r *Region) Intersects(rect geom.IntRect) bool {
	for _, e := range r.rects {
		if e.Intersects(rect) {
			return true
		}
	}
	return false
}

// Bounds returns the bounding rectangle of the region.
func (r *Region) Bounds() geom.IntRect {
	out := geom.EmptyIntRect()
	for _, e := range r.rects {
		out = out.Union(e)
	}
	return out
}
