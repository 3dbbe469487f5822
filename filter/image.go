package filter

import (
	"image"

	"github.com/disintegration/imaging"

	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/surface"
)

// TreeRenderer renders a document sub-tree into a context. The drawing
// package supplies it when a filter image references scene content
// instead of an external bitmap.
type TreeRenderer interface {
	RenderInto(ct *surface.Context, area geom.IntRect)
}

// Image rasterizes an external bitmap, or a document sub-tree, into the
// filter region.
//
// The bitmap is placed into Region (primitive units), scaled with a
// bilinear resample; the transform from filter units to primitive units
// is applied before sampling.
type Image struct {
	prim

	// Bitmap is the straight-alpha source image, when set.
	Bitmap image.Image

	// Tree renders scene content, when set. Bitmap wins when both are set.
	Tree TreeRenderer

	// Region is the destination rectangle in primitive units.
	Region geom.Rect
}

// NewImage creates an image primitive placing bitmap into region.
func NewImage(bitmap image.Image, region geom.Rect) *Image {
	return &Image{prim: newPrim(), Bitmap: bitmap, Region: region}
}

// NewImageTree creates an image primitive rendering a sub-tree.
func NewImageTree(tree TreeRenderer, region geom.Rect) *Image {
	return &Image{prim: newPrim(), Tree: tree, Region: region}
}

// Render implements Primitive.
func (p *Image) Render(st *SlotTable) error {
	out := st.NewSurface(surface.ARGB32)

	switch {
	case p.Bitmap != nil:
		p.renderBitmap(st, out)
	case p.Tree != nil:
		ct := surface.NewContext(out)
		p.Tree.RenderInto(ct, st.Area())
	default:
		p.warnOnce(func() { logBadParams("Image", "no pixel source") })
	}

	st.Set(p.out, out)
	return nil
}

func (p *Image) renderBitmap(st *SlotTable, out *surface.Surface) {
	dest := st.Units().PrimitiveToPixel.TransformRect(p.Region).OutwardRound()
	visible := dest.Intersect(st.Area())
	if visible.IsEmpty() || dest.Width() <= 0 || dest.Height() <= 0 {
		return
	}

	scaled := imaging.Resize(p.Bitmap, dest.Width(), dest.Height(), imaging.Linear)
	area := st.Area()
	for y := visible.MinY; y < visible.MaxY; y++ {
		for x := visible.MinX; x < visible.MaxX; x++ {
			c := scaled.NRGBAAt(x-dest.MinX, y-dest.MinY)
			out.Set32(x-area.MinX, y-area.MinY,
				premulColor(uint32(c.R), uint32(c.G), uint32(c.B), uint32(c.A)))
		}
	}
}

// AreaEnlarge implements Primitive; the image replaces the area.
func (p *Image) AreaEnlarge(area geom.IntRect, _ geom.Matrix) geom.IntRect {
	return area
}

// CanHandleAffine implements Primitive: placement is resolution
// dependent beyond translation.
func (p *Image) CanHandleAffine(m geom.Matrix) bool {
	return m.IsTranslation()
}

// Complexity implements Primitive.
func (p *Image) Complexity() float64 { return 2 }
