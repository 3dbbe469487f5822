package drawtree

import (
	"errors"
	"testing"

	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/surface"
)

func TestUpdateComputesBoxes(t *testing.T) {
	// a red 20x20 rectangle: bbox and drawbox match the geometry
	d, root := newTestDrawing()
	shape := NewShape(d)
	shape.SetPath(rectPath{r: geom.NewRect(10, 10, 30, 30)})
	shape.SetStyle(redFill())
	if err := root.AppendChild(shape); err != nil {
		t.Fatal(err)
	}

	d.UpdateAll()

	want := geom.NewIntRect(10, 10, 30, 30)
	if shape.BBox() != want {
		t.Errorf("bbox = %+v, want %+v", shape.BBox(), want)
	}
	if shape.Drawbox() != want {
		t.Errorf("drawbox = %+v, want %+v", shape.Drawbox(), want)
	}
	if root.BBox() != want {
		t.Errorf("group bbox = %+v, want %+v", root.BBox(), want)
	}
}

func TestStrokeExpandsBBox(t *testing.T) {
	// the stroked bbox grows by max(0.125, width*scale) plus the
	// worst-case miter spike of miterLimit times that width
	d, root := newTestDrawing()
	shape := NewShape(d)
	shape.SetPath(rectPath{r: geom.NewRect(10, 10, 30, 30)})
	style := redFill()
	style.Stroke = SolidPaint(0x000000ff)
	style.StrokeWidth = 2
	style.MiterLimit = 4
	shape.SetStyle(style)
	_ = root.AppendChild(shape)
	d.UpdateAll()

	// width 2, miter term 8: ten pixels on every side
	want := geom.NewIntRect(0, 0, 40, 40)
	if shape.BBox() != want {
		t.Errorf("stroked bbox = %+v, want %+v", shape.BBox(), want)
	}
}

func TestStrokeExpansionFloorAndJoin(t *testing.T) {
	d, root := newTestDrawing()
	shape := NewShape(d)
	shape.SetPath(rectPath{r: geom.NewRect(10, 10, 30, 30)})
	style := redFill()
	style.Stroke = SolidPaint(0x000000ff)
	style.StrokeWidth = 0.01 // below the antialiasing floor
	style.MiterLimit = 4
	style.Join = surface.JoinBevel // the miter term applies regardless
	shape.SetStyle(style)
	_ = root.AppendChild(shape)
	d.UpdateAll()

	// width floors at 0.125, total expansion 0.625 per side
	want := geom.NewIntRect(9, 9, 31, 31)
	if shape.BBox() != want {
		t.Errorf("hairline stroked bbox = %+v, want %+v", shape.BBox(), want)
	}
}

func TestPickFindsShape(t *testing.T) {
	d, root := newTestDrawing()
	shape := NewShape(d)
	shape.SetPath(rectPath{r: geom.NewRect(10, 10, 30, 30)})
	shape.SetStyle(redFill())
	_ = root.AppendChild(shape)
	d.UpdateAll()

	if got := d.Pick(geom.Point{X: 20, Y: 20}, 0, false); got != shape {
		t.Errorf("pick = %v, want the shape", got)
	}
	if got := d.Pick(geom.Point{X: 50, Y: 50}, 0, false); got != nil {
		t.Errorf("pick far away = %v, want nil", got)
	}
}

func TestPickZOrder(t *testing.T) {
	d, root := newTestDrawing()
	bottom := NewShape(d)
	bottom.SetPath(rectPath{r: geom.NewRect(0, 0, 20, 20)})
	bottom.SetStyle(redFill())
	top := NewShape(d)
	top.SetPath(rectPath{r: geom.NewRect(0, 0, 20, 20)})
	top.SetStyle(redFill())
	_ = root.AppendChild(bottom)
	_ = root.AppendChild(top)
	d.UpdateAll()

	if got := d.Pick(geom.Point{X: 10, Y: 10}, 0, false); got != top {
		t.Error("topmost item should win the pick")
	}

	// move bottom above top
	bottom.SetZOrder(2)
	d.UpdateAll()
	if got := d.Pick(geom.Point{X: 10, Y: 10}, 0, false); got != bottom {
		t.Error("reordered item should win the pick")
	}
}

func TestPickInvisibleAndSticky(t *testing.T) {
	d, root := newTestDrawing()
	shape := NewShape(d)
	shape.SetPath(rectPath{r: geom.NewRect(0, 0, 10, 10)})
	shape.SetStyle(redFill())
	_ = root.AppendChild(shape)
	d.UpdateAll()

	shape.SetVisible(false)
	d.UpdateAll()
	if d.Pick(geom.Point{X: 5, Y: 5}, 0, false) != nil {
		t.Error("invisible item picked without sticky")
	}
	if d.Pick(geom.Point{X: 5, Y: 5}, 0, true) == nil {
		t.Error("sticky pick should see invisible items")
	}
}

func TestAppendChildErrors(t *testing.T) {
	d, root := newTestDrawing()
	child := NewGroup(d)
	if err := root.AppendChild(child); err != nil {
		t.Fatal(err)
	}
	if err := root.AppendChild(child); !errors.Is(err, ErrHasParent) {
		t.Errorf("re-adopting should fail with ErrHasParent, got %v", err)
	}

	other := NewDrawing(nil)
	foreign := NewGroup(other)
	if err := root.AppendChild(foreign); !errors.Is(err, ErrForeignItem) {
		t.Errorf("foreign item should be rejected, got %v", err)
	}
}

func TestClipCycleRejected(t *testing.T) {
	d, root := newTestDrawing()
	group := NewGroup(d)
	_ = root.AppendChild(group)

	if err := group.SetClip(root); !errors.Is(err, ErrCycle) {
		t.Errorf("ancestor clip should fail with ErrCycle, got %v", err)
	}
	if err := group.SetClip(group); !errors.Is(err, ErrCycle) {
		t.Errorf("self clip should fail with ErrCycle, got %v", err)
	}
	// the tree stays unchanged
	if group.Clip() != nil {
		t.Error("failed SetClip must leave the tree unchanged")
	}
}

func TestClipMaskOwnership(t *testing.T) {
	d, root := newTestDrawing()
	host := NewShape(d)
	host.SetPath(rectPath{r: geom.NewRect(0, 0, 10, 10)})
	_ = root.AppendChild(host)

	clip := NewShape(d)
	clip.SetPath(rectPath{r: geom.NewRect(2, 2, 8, 8)})
	if err := host.SetClip(clip); err != nil {
		t.Fatal(err)
	}
	if clip.Parent() != host {
		t.Error("clip's parent should be the host")
	}
	if len(host.Children()) != 0 {
		t.Error("clip must not be a regular child")
	}

	var deleted []*Item
	d.OnItemDeleted(func(it *Item) { deleted = append(deleted, it) })
	if err := host.SetClip(nil); err != nil {
		t.Fatal(err)
	}
	if len(deleted) != 1 || deleted[0] != clip {
		t.Error("replacing the clip should destroy the old one")
	}
}

func TestClipShrinksDrawbox(t *testing.T) {
	d, root := newTestDrawing()
	shape := NewShape(d)
	shape.SetPath(rectPath{r: geom.NewRect(10, 10, 30, 30)})
	shape.SetStyle(redFill())
	clip := NewShape(d)
	clip.SetPath(rectPath{r: geom.NewRect(15, 15, 25, 25)})
	_ = shape.SetClip(clip)
	_ = root.AppendChild(shape)
	d.UpdateAll()

	if shape.BBox() != geom.NewIntRect(10, 10, 30, 30) {
		t.Errorf("bbox = %+v", shape.BBox())
	}
	if shape.Drawbox() != geom.NewIntRect(15, 15, 25, 25) {
		t.Errorf("drawbox should shrink to the clip: %+v", shape.Drawbox())
	}
}

func TestUpdateIdempotent(t *testing.T) {
	d, root := newTestDrawing()
	shape := NewShape(d)
	shape.SetPath(rectPath{r: geom.NewRect(0, 0, 16, 16)})
	shape.SetStyle(redFill())
	_ = root.AppendChild(shape)

	d.UpdateAll()
	bbox, drawbox := shape.BBox(), shape.Drawbox()

	var redraws int
	d.OnNeedsRedraw(func(geom.IntRect) { redraws++ })
	d.UpdateAll()

	if shape.BBox() != bbox || shape.Drawbox() != drawbox {
		t.Error("second update changed the boxes")
	}
	if redraws != 0 {
		t.Errorf("second update emitted %d redraws, want 0", redraws)
	}
}

func TestMarkForUpdatePropagatesToRoot(t *testing.T) {
	d, root := newTestDrawing()
	inner := NewGroup(d)
	_ = root.AppendChild(inner)
	shape := NewShape(d)
	shape.SetPath(rectPath{r: geom.NewRect(0, 0, 8, 8)})
	_ = inner.AppendChild(shape)
	d.UpdateAll()

	var updated []*Item
	d.OnNeedsUpdate(func(it *Item) { updated = append(updated, it) })

	shape.SetTransform(geom.Translate(5, 5))

	if root.State()&StateBBox != 0 {
		t.Error("root state should be invalidated")
	}
	if len(updated) == 0 || updated[0] != root {
		t.Error("needs-update should reach the host with the root item")
	}

	d.UpdateAll()
	if shape.BBox() != geom.NewIntRect(5, 5, 13, 13) {
		t.Errorf("bbox after move = %+v", shape.BBox())
	}
}

func TestTransformComposition(t *testing.T) {
	d, root := newTestDrawing()
	group := NewGroup(d)
	group.SetTransform(geom.Translate(10, 0))
	_ = root.AppendChild(group)
	shape := NewShape(d)
	shape.SetPath(rectPath{r: geom.NewRect(0, 0, 10, 10)})
	shape.SetTransform(geom.Translate(0, 10))
	_ = group.AppendChild(shape)
	d.UpdateAll()

	if shape.BBox() != geom.NewIntRect(10, 10, 20, 20) {
		t.Errorf("composed bbox = %+v", shape.BBox())
	}
	want := geom.Translate(10, 10)
	if !shape.CTM().Near(want) {
		t.Errorf("ctm = %+v", shape.CTM())
	}
}

func TestChildTransform(t *testing.T) {
	d, root := newTestDrawing()
	group := NewGroup(d)
	group.SetChildTransform(geom.Translate(100, 0))
	_ = root.AppendChild(group)
	shape := NewShape(d)
	shape.SetPath(rectPath{r: geom.NewRect(0, 0, 10, 10)})
	_ = group.AppendChild(shape)

	clip := NewShape(d)
	clip.SetPath(rectPath{r: geom.NewRect(0, 0, 500, 500)})
	_ = group.SetClip(clip)
	d.UpdateAll()

	if shape.BBox() != geom.NewIntRect(100, 0, 110, 10) {
		t.Errorf("child transform not applied: %+v", shape.BBox())
	}
	// the clip does not inherit the child transform
	if clip.BBox() != geom.NewIntRect(0, 0, 500, 500) {
		t.Errorf("clip must not inherit the child transform: %+v", clip.BBox())
	}
}

func TestDestroyDetaches(t *testing.T) {
	d, root := newTestDrawing()
	shape := NewShape(d)
	shape.SetPath(rectPath{r: geom.NewRect(0, 0, 10, 10)})
	_ = root.AppendChild(shape)
	d.UpdateAll()

	var deleted []*Item
	d.OnItemDeleted(func(it *Item) { deleted = append(deleted, it) })
	shape.Destroy()

	if len(root.Children()) != 0 {
		t.Error("destroyed item should leave the parent's children")
	}
	if len(deleted) != 1 || deleted[0] != shape {
		t.Error("item-deleted signal missing")
	}
	d.UpdateAll()
	if !root.BBox().IsEmpty() {
		t.Errorf("empty group bbox = %+v", root.BBox())
	}
}

func TestOwnershipAcyclic(t *testing.T) {
	// every descendant is reached exactly once through
	// children + clip + mask, and parent walks terminate
	d, root := newTestDrawing()
	g1 := NewGroup(d)
	g2 := NewGroup(d)
	s := NewShape(d)
	s.SetPath(rectPath{r: geom.NewRect(0, 0, 4, 4)})
	c := NewShape(d)
	c.SetPath(rectPath{r: geom.NewRect(0, 0, 4, 4)})
	m := NewShape(d)
	m.SetPath(rectPath{r: geom.NewRect(0, 0, 4, 4)})
	_ = root.AppendChild(g1)
	_ = g1.AppendChild(g2)
	_ = g2.AppendChild(s)
	_ = g1.SetClip(c)
	_ = g1.SetMask(m)

	seen := map[*Item]int{}
	var walk func(*Item)
	walk = func(it *Item) {
		seen[it]++
		for _, ch := range it.Children() {
			walk(ch)
		}
		if it.Clip() != nil {
			walk(it.Clip())
		}
		if it.Mask() != nil {
			walk(it.Mask())
		}
	}
	walk(root)
	for it, n := range seen {
		if n != 1 {
			t.Errorf("item %p reached %d times", it, n)
		}
	}
	if len(seen) != 6 {
		t.Errorf("reached %d items, want 6", len(seen))
	}

	for it := range seen {
		steps := 0
		for p := it; p != nil; p = p.Parent() {
			if steps++; steps > 10 {
				t.Fatal("parent walk does not terminate")
			}
		}
	}
}
