package drawtree

import (
	"testing"

	"github.com/gogpu/drawtree/filter"
	"github.com/gogpu/drawtree/geom"
)

// blackoutFilter keeps alpha and zeroes every color channel.
func blackoutFilter() *filter.Filter {
	f := filter.New()
	cm := filter.NewColorMatrix(filter.ColorMatrixMatrix, filter.SlotSourceGraphic)
	cm.Values = [20]float64{
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 0, 1, 0,
	}
	f.Add(cm)
	return f
}

// blurFilter3 covers the bbox plus three pixels on each side.
func blurFilter3() *filter.Filter {
	f := filter.New()
	f.FilterUnits = filter.UserSpaceOnUse
	f.Region = geom.NewRect(7, 7, 33, 33)
	f.Add(filter.NewGaussianBlur(1, 1, filter.SlotSourceGraphic))
	return f
}

func TestFilterExpandsDrawbox(t *testing.T) {
	d, root := newTestDrawing()
	shape := NewShape(d)
	shape.SetPath(rectPath{r: geom.NewRect(10, 10, 30, 30)})
	shape.SetStyle(redFill())
	shape.SetFilter(blurFilter3())
	_ = root.AppendChild(shape)
	d.UpdateAll()

	if shape.BBox() != geom.NewIntRect(10, 10, 30, 30) {
		t.Errorf("bbox = %+v", shape.BBox())
	}
	if shape.Drawbox() != geom.NewIntRect(7, 7, 33, 33) {
		t.Errorf("drawbox = %+v, want the filter region", shape.Drawbox())
	}
	// drawbox containment: inside bbox enlarged by the filter region
	if !shape.BBox().Expand(3).ContainsRect(shape.Drawbox()) {
		t.Errorf("drawbox %+v exceeds the bbox enlarged by the filter region", shape.Drawbox())
	}
}

func TestFilterAppliesToContent(t *testing.T) {
	d, root := newTestDrawing()
	shape := NewShape(d)
	shape.SetPath(rectPath{r: geom.NewRect(4, 4, 12, 12)})
	shape.SetStyle(redFill())
	shape.SetFilter(blackoutFilter())
	_ = root.AppendChild(shape)
	d.UpdateAll()

	s := renderToSurface(t, d, geom.NewIntRect(0, 0, 16, 16))
	px := s.Get32(8, 8)
	if px>>24 == 0 {
		t.Fatal("filtered content missing")
	}
	if px&0x00ffffff != 0 {
		t.Errorf("blackout filter left color: %08x", px)
	}
}

func TestCachedFilterCleanAfterRender(t *testing.T) {
	d, root := newTestDrawing()
	d.Budget().SetThreshold(1)
	shape := NewShape(d)
	shape.SetPath(rectPath{r: geom.NewRect(10, 10, 30, 30)})
	shape.SetStyle(redFill())
	shape.SetFilter(blurFilter3())
	_ = root.AppendChild(shape)
	d.UpdateAll()

	if !shape.Cached() || shape.CacheTile() == nil {
		t.Fatal("high-scoring filtered shape should be cached after update")
	}

	_ = renderToSurface(t, d, geom.NewIntRect(0, 0, 40, 40))

	// cache coherence: the tile is clean over the drawbox
	tile := shape.CacheTile()
	target, _ := newSurfaceOver(t, shape.Drawbox())
	if !tile.PaintFromCache(target, shape.Drawbox()) {
		t.Error("tile should be clean over the drawbox after render")
	}

	// invalidation: a style change dirties the cache over the drawbox
	ns := DefaultStyle()
	ns.Fill = SolidPaint(0x00ff00ff)
	shape.SetStyle(ns)

	target2, _ := newSurfaceOver(t, shape.Drawbox())
	if tile.PaintFromCache(target2, shape.Drawbox()) {
		t.Error("style change should dirty the cache over the drawbox")
	}

	// and the item must still pick
	d.UpdateAll()
	if d.Pick(geom.Point{X: 20, Y: 20}, 0, false) != shape {
		t.Error("pick after style change should still find the shape")
	}
}

func TestFilterErrorRendersUnfiltered(t *testing.T) {
	d, root := newTestDrawing()
	shape := NewShape(d)
	shape.SetPath(rectPath{r: geom.NewRect(2, 2, 10, 10)})
	shape.SetStyle(redFill())

	f := filter.New()
	f.Add(filter.NewBlend(filter.BlendMultiply, filter.Slot(77), filter.Slot(78)))
	shape.SetFilter(f)
	_ = root.AppendChild(shape)
	d.UpdateAll()

	s := renderToSurface(t, d, geom.NewIntRect(0, 0, 12, 12))
	if got := s.Get32(5, 5); got != 0xffff0000 {
		t.Errorf("erroring filter should render as absent: %08x", got)
	}
}
