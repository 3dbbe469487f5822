package drawtree

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/surface"
)

// imageVariant renders an embedded premultiplied-ARGB pixel buffer
// scaled into a destination rectangle. An item without pixels renders a
// placeholder rectangle.
type imageVariant struct {
	it   *Item
	pix  *surface.Surface
	rect geom.Rect // destination in item user units
}

// NewImage creates an image item.
func NewImage(d *Drawing) *Item {
	v := &imageVariant{rect: geom.EmptyRect()}
	it := newItem(d, v)
	v.it = it
	return it
}

// SetPixels installs the image item's pixel buffer and its destination
// rectangle in user units. The buffer must be premultiplied ARGB32;
// pass nil to render the placeholder.
func (it *Item) SetPixels(pix *surface.Surface, rect geom.Rect) {
	type pixelSetter interface {
		setPixels(*surface.Surface, geom.Rect)
	}
	if ps, ok := it.variant.(pixelSetter); ok {
		it.markForRendering()
		ps.setPixels(pix, rect)
		it.markForUpdate(StateAll, false)
	}
}

func (v *imageVariant) setPixels(pix *surface.Surface, rect geom.Rect) {
	v.pix = pix
	v.rect = rect
}

func (v *imageVariant) kind() ItemKind { return KindImage }

func (v *imageVariant) updateItem(_ geom.IntRect, ctx UpdateContext, _, _ State) State {
	it := v.it
	it.itemBBox = v.rect
	if v.rect.IsEmpty() {
		it.bbox = geom.EmptyIntRect()
	} else {
		it.bbox = ctx.CTM.TransformRect(v.rect).OutwardRound()
	}
	return StateAll
}

// contentTransform maps source pixel coordinates to device pixels.
func (v *imageVariant) contentTransform(srcW, srcH int) geom.Matrix {
	place := geom.Translate(v.rect.MinX, v.rect.MinY).
		Multiply(geom.Scale(v.rect.Width()/float64(srcW), v.rect.Height()/float64(srcH)))
	return v.it.ctm.Multiply(place)
}

func (v *imageVariant) renderItem(ct *surface.Context, area geom.IntRect, _ RenderFlags) {
	it := v.it
	if it.drawing.renderMode == RenderModeOutline {
		v.renderOutline(ct)
		return
	}
	if v.rect.IsEmpty() {
		return
	}

	src := v.sourceImage()
	if src == nil {
		return
	}
	b := src.Bounds()

	carea := area.Intersect(it.bbox).Intersect(ct.Target().PixelArea())
	if carea.IsEmpty() {
		return
	}
	tmp, err := surface.New(carea)
	if err != nil {
		return
	}
	dst := image.NewRGBA(image.Rect(0, 0, carea.Width(), carea.Height()))

	m := geom.Translate(float64(-carea.MinX), float64(-carea.MinY)).
		Multiply(v.contentTransform(b.Dx(), b.Dy()))
	draw.ApproxBiLinear.Transform(dst, f64.Aff3{m.A, m.B, m.C, m.D, m.E, m.F},
		src, b, draw.Src, nil)
	surface.FromImage(tmp, dst)

	defer ct.Guard()()
	ct.RectangleInt(carea)
	ct.Clip()
	ct.SetSourceSurface(tmp, 0, 0)
	ct.Paint()
	ct.ClearSource()
}

// sourceImage returns the premultiplied pixels as an image.RGBA, or the
// generated placeholder when the item has no pixel source.
func (v *imageVariant) sourceImage() *image.RGBA {
	if v.pix != nil {
		return surface.ToImage(v.pix)
	}
	// missing pixel source: a flat placeholder block
	ph := imaging.New(8, 8, color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff})
	out := image.NewRGBA(ph.Rect)
	draw.Draw(out, out.Bounds(), ph, ph.Rect.Min, draw.Src)
	return out
}

// renderOutline draws the image frame plus its diagonals.
func (v *imageVariant) renderOutline(ct *surface.Context) {
	if v.rect.IsEmpty() {
		return
	}
	it := v.it
	defer ct.Guard()()
	ct.SetTransform(it.ctm)
	ct.SetSourcePremul(SolidPaint(it.drawing.outlineColor).Premul())
	r := v.rect
	ct.MoveTo(r.MinX, r.MinY)
	ct.LineTo(r.MaxX, r.MinY)
	ct.LineTo(r.MaxX, r.MaxY)
	ct.LineTo(r.MinX, r.MaxY)
	ct.ClosePath()
	ct.MoveTo(r.MinX, r.MinY)
	ct.LineTo(r.MaxX, r.MaxY)
	ct.MoveTo(r.MaxX, r.MinY)
	ct.LineTo(r.MinX, r.MaxY)
	params := surface.DefaultStrokeParams()
	params.Width = outlineWidth(it.ctm)
	ct.SetStrokeParams(params)
	ct.Stroke()
}

func (v *imageVariant) clipItem(*surface.Context, geom.IntRect) {
	// images do not participate in clipping paths
}

func (v *imageVariant) pickItem(p geom.Point, _ float64, _ bool) *Item {
	it := v.it
	if v.rect.IsEmpty() {
		return nil
	}
	inv, ok := it.ctm.Invert()
	if !ok {
		return nil
	}
	local := inv.TransformPoint(p)
	if !v.rect.Contains(local) {
		return nil
	}
	if v.pix == nil {
		// the placeholder is opaque
		return it
	}
	// sample the pixel under the point
	sx := (local.X - v.rect.MinX) / v.rect.Width() * float64(v.pix.Width())
	sy := (local.Y - v.rect.MinY) / v.rect.Height() * float64(v.pix.Height())
	if v.pix.Get32(int(sx), int(sy))>>24 > 0 {
		return it
	}
	return nil
}

func (v *imageVariant) canClip() bool { return false }
