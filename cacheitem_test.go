package drawtree

import (
	"testing"

	"github.com/gogpu/drawtree/geom"
)

func TestFastPathCacheReadBack(t *testing.T) {
	d, root := newTestDrawing()
	d.Budget().SetThreshold(1)
	shape := NewShape(d)
	shape.SetPath(rectPath{r: geom.NewRect(0, 0, 16, 16)})
	shape.SetStyle(redFill())
	_ = root.AppendChild(shape)
	d.UpdateAll()

	if shape.CacheTile() == nil {
		t.Fatal("shape should carry a tile")
	}

	// first render populates the tile
	_ = renderToSurface(t, d, geom.NewIntRect(0, 0, 16, 16))

	// poison the tile; a second render of the shape must come from its
	// cache. The shape is rendered directly because the root group is
	// cached too and would answer from its own tile first.
	shape.CacheTile().Surface().Set32(8, 8, 0xff00ff00)
	ct, s := newSurfaceOver(t, geom.NewIntRect(0, 0, 16, 16))
	shape.Render(ct, geom.NewIntRect(0, 0, 16, 16), RenderDefault)
	if got := s.Get32(8, 8); got != 0xff00ff00 {
		t.Errorf("second render ignored the cache: %08x", got)
	}
}

func TestCacheInvalidatedByMove(t *testing.T) {
	d, root := newTestDrawing()
	d.Budget().SetThreshold(1)
	shape := NewShape(d)
	shape.SetPath(rectPath{r: geom.NewRect(0, 0, 16, 16)})
	shape.SetStyle(redFill())
	_ = root.AppendChild(shape)
	d.UpdateAll()
	_ = renderToSurface(t, d, geom.NewIntRect(0, 0, 32, 32))

	// a whole-pixel translation keeps the tile, shifted
	shape.SetTransform(geom.Translate(4, 0))
	d.UpdateAll()
	_ = renderToSurface(t, d, geom.NewIntRect(0, 0, 32, 32))

	tile := shape.CacheTile()
	if tile == nil {
		t.Fatal("translation should keep the tile alive")
	}
	if tile.Region() != geom.NewIntRect(4, 0, 20, 16) {
		t.Errorf("tile region = %+v", tile.Region())
	}

	s := renderToSurface(t, d, geom.NewIntRect(0, 0, 32, 32))
	if s.Get32(10, 8) != 0xffff0000 {
		t.Errorf("moved shape = %08x", s.Get32(10, 8))
	}
	if s.Get32(1, 8) != 0 {
		t.Errorf("old position still painted: %08x", s.Get32(1, 8))
	}
}

func TestCacheDroppedWhenHidden(t *testing.T) {
	d, root := newTestDrawing()
	d.Budget().SetThreshold(1)
	shape := NewShape(d)
	shape.SetPath(rectPath{r: geom.NewRect(0, 0, 16, 16)})
	shape.SetStyle(redFill())
	_ = root.AppendChild(shape)
	d.UpdateAll()
	if shape.CacheTile() == nil {
		t.Fatal("expected a tile")
	}

	shape.SetVisible(false)
	d.UpdateAll()
	if shape.CacheTile() != nil {
		t.Error("hiding the item should destroy its tile")
	}
}

func TestPickThrottleReturnsLastAnswer(t *testing.T) {
	d, root := newTestDrawing()
	shape := NewShape(d)
	shape.SetPath(rectPath{r: geom.NewRect(0, 0, 16, 16)})
	shape.SetStyle(redFill())
	_ = root.AppendChild(shape)
	d.UpdateAll()

	sv := shape.variant.(*shapeVariant)
	sv.repickAfter = 3
	sv.lastPick = nil

	// while throttled, the shape answers from memory even though the
	// point is inside
	if got := d.Pick(geom.Point{X: 8, Y: 8}, 0, false); got != nil {
		t.Errorf("throttled pick = %v, want the remembered nil", got)
	}
	if sv.repickAfter != 2 {
		t.Errorf("repickAfter = %d, want 2", sv.repickAfter)
	}

	// once the countdown expires, real picking resumes
	sv.repickAfter = 1
	if got := d.Pick(geom.Point{X: 8, Y: 8}, 0, false); got != shape {
		t.Errorf("resumed pick = %v, want the shape", got)
	}
}

func TestPickMemoForgetOnDestroy(t *testing.T) {
	d, root := newTestDrawing()
	shape := NewShape(d)
	shape.SetPath(rectPath{r: geom.NewRect(0, 0, 16, 16)})
	shape.SetStyle(redFill())
	_ = root.AppendChild(shape)
	d.UpdateAll()

	d.rememberPick(shape, geom.Point{X: 8, Y: 8}, shape)
	if _, ok := d.recallPick(shape, geom.Point{X: 8, Y: 8}); !ok {
		t.Fatal("memo should hold the answer")
	}
	shape.Destroy()
	if _, ok := d.recallPick(shape, geom.Point{X: 8, Y: 8}); ok {
		t.Error("destroying the item must clear its memoized picks")
	}
}
