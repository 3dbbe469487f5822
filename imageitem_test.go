package drawtree

import (
	"testing"

	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/surface"
)

// solidPix builds a premultiplied pixel buffer of one color.
func solidPix(t *testing.T, w, h int, px uint32) *surface.Surface {
	t.Helper()
	s, err := surface.New(geom.NewIntRect(0, 0, w, h))
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s.Set32(x, y, px)
		}
	}
	return s
}

func TestImageItemRender(t *testing.T) {
	d, root := newTestDrawing()
	img := NewImage(d)
	img.SetPixels(solidPix(t, 4, 4, 0xff0000ff), geom.NewRect(8, 8, 16, 16))
	_ = root.AppendChild(img)
	d.UpdateAll()

	if img.BBox() != geom.NewIntRect(8, 8, 16, 16) {
		t.Errorf("bbox = %+v", img.BBox())
	}

	s := renderToSurface(t, d, geom.NewIntRect(0, 0, 24, 24))
	if got := s.Get32(12, 12); got>>24 == 0 {
		t.Errorf("image content missing: %08x", got)
	}
	if got := s.Get32(2, 2); got != 0 {
		t.Errorf("outside the image rect: %08x", got)
	}
}

func TestImageItemScales(t *testing.T) {
	d, root := newTestDrawing()
	img := NewImage(d)
	img.SetPixels(solidPix(t, 2, 2, 0xffffffff), geom.NewRect(0, 0, 20, 20))
	img.SetTransform(geom.Translate(10, 0))
	_ = root.AppendChild(img)
	d.UpdateAll()

	if img.BBox() != geom.NewIntRect(10, 0, 30, 20) {
		t.Errorf("transformed bbox = %+v", img.BBox())
	}
	s := renderToSurface(t, d, geom.NewIntRect(0, 0, 32, 24))
	if s.Get32(20, 10)>>24 == 0 {
		t.Error("scaled image missing")
	}
}

func TestImageItemPickSamplesAlpha(t *testing.T) {
	d, root := newTestDrawing()
	img := NewImage(d)
	pix := solidPix(t, 2, 1, 0)
	pix.Set32(0, 0, 0xffffffff) // left half opaque, right transparent
	img.SetPixels(pix, geom.NewRect(0, 0, 20, 10))
	_ = root.AppendChild(img)
	d.UpdateAll()

	if d.Pick(geom.Point{X: 5, Y: 5}, 0, false) != img {
		t.Error("opaque half should pick")
	}
	if d.Pick(geom.Point{X: 15, Y: 5}, 0, false) != nil {
		t.Error("transparent half should not pick")
	}
}

func TestImagePlaceholderRendersAndPicks(t *testing.T) {
	d, root := newTestDrawing()
	img := NewImage(d)
	img.SetPixels(nil, geom.NewRect(0, 0, 8, 8))
	_ = root.AppendChild(img)
	d.UpdateAll()

	s := renderToSurface(t, d, geom.NewIntRect(0, 0, 8, 8))
	if s.Get32(4, 4)>>24 == 0 {
		t.Error("missing pixel source should render a placeholder")
	}
	if d.Pick(geom.Point{X: 4, Y: 4}, 0, false) != img {
		t.Error("placeholder should pick")
	}
}

func TestTextGathersGlyphs(t *testing.T) {
	d, root := newTestDrawing()
	text := NewText(d)
	style := DefaultStyle()
	style.Fill = SolidPaint(0x000000ff)
	text.SetStyle(style)
	_ = root.AppendChild(text)

	for i := 0; i < 2; i++ {
		g := NewGlyphs(d)
		g.SetPath(rectPath{r: geom.NewRect(float64(i*10), 0, float64(i*10+8), 8)})
		_ = text.AppendChild(g)
	}
	d.UpdateAll()

	if text.BBox() != geom.NewIntRect(0, 0, 18, 8) {
		t.Errorf("text bbox = %+v", text.BBox())
	}

	s := renderToSurface(t, d, geom.NewIntRect(0, 0, 20, 10))
	if s.Get32(4, 4) != 0xff000000 {
		t.Errorf("first glyph missing: %08x", s.Get32(4, 4))
	}
	if s.Get32(14, 4) != 0xff000000 {
		t.Errorf("second glyph missing: %08x", s.Get32(14, 4))
	}
	if s.Get32(9, 4) != 0 {
		t.Error("gap between glyphs painted")
	}

	// picking resolves to the text item, not the glyph
	if got := d.Pick(geom.Point{X: 4, Y: 4}, 0, false); got != text {
		t.Errorf("pick = %v, want the text item", got)
	}
}

func TestGlyphsPickByBBox(t *testing.T) {
	d, root := newTestDrawing()
	g := NewGlyphs(d)
	g.SetPath(rectPath{r: geom.NewRect(0, 0, 6, 6)})
	_ = root.AppendChild(g)
	d.UpdateAll()

	if d.Pick(geom.Point{X: 3, Y: 3}, 0, false) != g {
		t.Error("glyph should pick inside its bbox")
	}
	if d.Pick(geom.Point{X: 7.5, Y: 3}, 2, false) != g {
		t.Error("tolerance should expand the glyph pick")
	}
}
