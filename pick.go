package drawtree

import (
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gogpu/drawtree/geom"
)

// Pick returns the topmost item within delta of the point, walking the
// tree in reverse z-order. With sticky set, invisible and insensitive
// items can be picked too.
func (it *Item) Pick(p geom.Point, delta float64, sticky bool) *Item {
	// the item must have been updated since the last invalidation
	if it.state&StateBBox == 0 || it.state&StatePick == 0 {
		return nil
	}
	if !sticky && !(it.visible && it.sensitive) {
		return nil
	}
	ref := it.drawbox
	if it.drawing.renderMode == RenderModeOutline {
		// wireframe editing picks on geometry, not on the painted area
		ref = it.bbox
	}
	if ref.IsEmpty() {
		return nil
	}
	expanded := ref.Rect().Expand(delta)
	if !expanded.Contains(p) {
		return nil
	}
	return it.variant.pickItem(p, delta, sticky)
}

// pickKey identifies one memoized pick answer: the item plus the
// quantized query point.
type pickKey struct {
	item   *Item
	qx, qy int
}

// pickMemoSize bounds the number of memoized slow-pick answers held at
// once across all items.
const pickMemoSize = 256

// pickQuantum is the cell size, in pixels, at which slow-pick answers
// are memoized.
const pickQuantum = 4.0

// pickMemoCache is the bounded LRU holding memoized slow-pick answers.
type pickMemoCache = lru.Cache[pickKey, *Item]

func newPickMemo() *pickMemoCache {
	c, _ := lru.New[pickKey, *Item](pickMemoSize)
	return c
}

// rememberPick memoizes the answer of an expensive pick so nearby
// queries can reuse it while the item throttles itself.
func (d *Drawing) rememberPick(it *Item, p geom.Point, answer *Item) {
	d.pickMemo.Add(pickKey{
		item: it,
		qx:   int(math.Floor(p.X / pickQuantum)),
		qy:   int(math.Floor(p.Y / pickQuantum)),
	}, answer)
}

// recallPick returns a memoized answer for a nearby earlier query.
func (d *Drawing) recallPick(it *Item, p geom.Point) (*Item, bool) {
	return d.pickMemo.Get(pickKey{
		item: it,
		qx:   int(math.Floor(p.X / pickQuantum)),
		qy:   int(math.Floor(p.Y / pickQuantum)),
	})
}

// forgetPicks drops every memoized answer involving the item, called
// before the item is torn down.
func (d *Drawing) forgetPicks(it *Item) {
	for _, k := range d.pickMemo.Keys() {
		if k.item == it {
			d.pickMemo.Remove(k)
			continue
		}
		if v, ok := d.pickMemo.Peek(k); ok && v == it {
			d.pickMemo.Remove(k)
		}
	}
}
