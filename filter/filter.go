package filter

import (
	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/internal/parallel"
	"github.com/gogpu/drawtree/surface"
)

// UnitsMode selects the coordinate system of the filter region and of
// primitive lengths.
type UnitsMode uint8

const (
	// ObjectBoundingBox measures in fractions of the item's bounding box.
	ObjectBoundingBox UnitsMode = iota

	// UserSpaceOnUse measures in item user units.
	UserSpaceOnUse
)

// Units carries the affine pair between primitive space and device
// pixel space for one pipeline run. Spatial primitives scale their
// radii through PrimitiveToPixel; source slots are produced in pixel
// space directly.
type Units struct {
	PrimitiveToPixel geom.Matrix
	PixelToPrimitive geom.Matrix
}

// Filter is a pipeline of primitives applied to an item's rendered
// content. Primitives run in order; slot references express the DAG.
type Filter struct {
	primitives []Primitive

	// FilterUnits governs the region; PrimitiveUnits governs lengths
	// inside primitives. SVG defaults.
	FilterUnits    UnitsMode
	PrimitiveUnits UnitsMode

	// Region is the filter effects region in FilterUnits.
	Region geom.Rect
}

// New creates a filter with the standard region of -10% to 110% of the
// item bounding box.
func New() *Filter {
	return &Filter{
		FilterUnits:    ObjectBoundingBox,
		PrimitiveUnits: UserSpaceOnUse,
		Region:         geom.Rect{MinX: -0.1, MinY: -0.1, MaxX: 1.1, MaxY: 1.1},
	}
}

// Add appends a primitive to the pipeline.
func (f *Filter) Add(p Primitive) {
	f.primitives = append(f.primitives, p)
}

// Primitives returns the pipeline in execution order.
func (f *Filter) Primitives() []Primitive { return f.primitives }

// userRegion resolves the filter region into item user units.
func (f *Filter) userRegion(itemBBox geom.Rect) geom.Rect {
	if f.FilterUnits == UserSpaceOnUse {
		return f.Region
	}
	if itemBBox.IsEmpty() {
		return geom.EmptyRect()
	}
	w, h := itemBBox.Width(), itemBBox.Height()
	return geom.Rect{
		MinX: itemBBox.MinX + f.Region.MinX*w,
		MinY: itemBBox.MinY + f.Region.MinY*h,
		MaxX: itemBBox.MinX + f.Region.MaxX*w,
		MaxY: itemBBox.MinY + f.Region.MaxY*h,
	}
}

// ComputeDrawbox returns the pixel rect the filtered item paints: the
// filter effects region transformed by the item's total transform.
func (f *Filter) ComputeDrawbox(ctm geom.Matrix, itemBBox geom.Rect) geom.IntRect {
	user := f.userRegion(itemBBox)
	if user.IsEmpty() {
		return geom.EmptyIntRect()
	}
	return ctm.TransformRect(user).OutwardRound()
}

// BuildUnits derives the primitive-to-pixel transform pair for a run.
func (f *Filter) BuildUnits(ctm geom.Matrix, itemBBox geom.Rect) Units {
	p2p := ctm
	if f.PrimitiveUnits == ObjectBoundingBox && !itemBBox.IsEmpty() {
		bboxToUser := geom.Translate(itemBBox.MinX, itemBBox.MinY).
			Multiply(geom.Scale(itemBBox.Width(), itemBBox.Height()))
		p2p = ctm.Multiply(bboxToUser)
	}
	inv, ok := p2p.Invert()
	if !ok {
		inv = geom.Identity()
	}
	return Units{PrimitiveToPixel: p2p, PixelToPrimitive: inv}
}

// AreaEnlarge grows the rect by every primitive's dependent area, in
// pipeline order. The result never shrinks.
func (f *Filter) AreaEnlarge(area geom.IntRect, ctm geom.Matrix, itemBBox geom.Rect) geom.IntRect {
	units := f.BuildUnits(ctm, itemBBox)
	out := area
	for _, p := range f.primitives {
		out = out.Union(p.AreaEnlarge(out, units.PrimitiveToPixel))
	}
	return out
}

// Complexity estimates the per-pixel cost of the pipeline relative to a
// plain blit. Feeds the cache score.
func (f *Filter) Complexity() float64 {
	c := 1.0
	for _, p := range f.primitives {
		c += p.Complexity()
	}
	return c
}

// CanHandleAffine reports whether every primitive is invariant under
// the transform.
func (f *Filter) CanHandleAffine(m geom.Matrix) bool {
	for _, p := range f.primitives {
		if !p.CanHandleAffine(m) {
			return false
		}
	}
	return true
}

// Render runs the pipeline over the item's rendered content and returns
// the filtered surface covering area. src holds the content in pixel
// space; background, when non-nil, feeds the backdrop slots; the paints
// are premultiplied ARGB words.
//
// On error the caller renders the item as if the filter were absent.
func (f *Filter) Render(src *surface.Surface, area geom.IntRect,
	ctm geom.Matrix, itemBBox geom.Rect, pool *parallel.Pool,
	background *surface.Surface, fillPaint, strokePaint uint32) (*surface.Surface, error) {

	if area.IsEmpty() {
		return nil, ErrMissingInput
	}
	units := f.BuildUnits(ctm, itemBBox)
	st := NewSlotTable(area, units, pool, src, background, fillPaint, strokePaint)

	for _, p := range f.primitives {
		if err := p.Render(st); err != nil {
			return nil, err
		}
	}

	out, err := st.Last()
	if err != nil {
		return nil, err
	}
	return ensureColor(area, out), nil
}
