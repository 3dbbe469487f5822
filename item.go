package drawtree

import (
	"errors"

	"github.com/gogpu/drawtree/cache"
	"github.com/gogpu/drawtree/filter"
	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/surface"
)

// Structural errors. These are programming errors on the host's side;
// the failing operation leaves the tree unchanged and the error is also
// reported through the Drawing's error callback.
var (
	// ErrHasParent is returned when adopting an item that is already
	// owned by another parent, clip, or mask slot.
	ErrHasParent = errors.New("drawtree: item already has a parent")

	// ErrCycle is returned when a clip or mask assignment would make an
	// item an ancestor of itself.
	ErrCycle = errors.New("drawtree: clip or mask would create a cycle")

	// ErrForeignItem is returned when an item from another Drawing is
	// attached.
	ErrForeignItem = errors.New("drawtree: item belongs to a different drawing")
)

// State tracks which derived data of an item is up to date.
type State uint8

const (
	// StateBBox: the geometric bounding box is current.
	StateBBox State = 1 << iota

	// StateDrawbox: the visual bounding box is current.
	StateDrawbox

	// StateCache: cache extents and the clean area are current.
	StateCache

	// StatePick: the item can process pick requests.
	StatePick

	// StateRender: the item can be rendered.
	StateRender
)

// StateNone and StateAll are the empty and full flag sets.
const (
	StateNone State = 0
	StateAll        = StateBBox | StateDrawbox | StateCache | StatePick | StateRender
)

// RenderFlags adjust one render call, mainly for cache control.
type RenderFlags uint8

const (
	// RenderDefault renders normally.
	RenderDefault RenderFlags = 0

	// RenderBypassCache ignores cache contents for this call.
	RenderBypassCache RenderFlags = 1 << iota
)

// UpdateContext carries the state cascading down an update pass.
type UpdateContext struct {
	// CTM is the accumulated transform of the ancestors.
	CTM geom.Matrix
}

// ItemKind discriminates the item variants.
type ItemKind uint8

const (
	KindGroup ItemKind = iota
	KindShape
	KindImage
	KindText
	KindGlyphs
)

// variant is the per-kind behavior of an item.
type variant interface {
	kind() ItemKind

	// updateItem recomputes the item's bbox and returns the state bits
	// now valid.
	updateItem(area geom.IntRect, ctx UpdateContext, flags, reset State) State

	// renderItem draws the item's own content.
	renderItem(ct *surface.Context, area geom.IntRect, flags RenderFlags)

	// clipItem draws the item as an opaque shape for clipping.
	clipItem(ct *surface.Context, area geom.IntRect)

	// pickItem resolves a hit after the common bbox test passed.
	pickItem(p geom.Point, delta float64, sticky bool) *Item

	// canClip reports whether the variant can act as a clipping path.
	canClip() bool
}

// Item is one node of the drawing tree. The concrete behavior lives in
// the variant; the Item carries the header every node shares: links,
// transforms, boxes, dirty state, and the cache.
//
// An item owns its children, its clip, its mask, and its filter;
// destroying it destroys them transitively.
type Item struct {
	drawing *Drawing
	parent  *Item

	children []*Item
	clip     *Item
	mask     *Item
	filt     *filter.Filter

	key      uint64
	userData any

	opacity   float64
	transform *geom.Matrix // nil means identity
	ctm       geom.Matrix

	bbox     geom.IntRect
	drawbox  geom.IntRect
	itemBBox geom.Rect // in item coordinates; empty when unknown

	tile *cache.Tile

	state            State
	visible          bool
	sensitive        bool
	cached           bool
	cachedPersistent bool
	propagate        bool
	clipChild        bool
	maskChild        bool
	pickChildren     bool
	isRoot           bool

	variant variant
}

// newItem initializes the shared header.
func newItem(d *Drawing, v variant) *Item {
	return &Item{
		drawing:   d,
		opacity:   1,
		visible:   true,
		sensitive: true,
		ctm:       geom.Identity(),
		bbox:      geom.EmptyIntRect(),
		drawbox:   geom.EmptyIntRect(),
		itemBBox:  geom.EmptyRect(),
		variant:   v,
	}
}

// Kind returns the item's variant tag.
func (it *Item) Kind() ItemKind { return it.variant.kind() }

// Drawing returns the owning drawing.
func (it *Item) Drawing() *Drawing { return it.drawing }

// Parent returns the containing item. For clip and mask sub-items this
// is the host.
func (it *Item) Parent() *Item { return it.parent }

// Children returns the regular children in z-order (index 0 bottom).
// The slice is owned by the item.
func (it *Item) Children() []*Item { return it.children }

// BBox returns the geometric pixel bounding box.
func (it *Item) BBox() geom.IntRect { return it.bbox }

// Drawbox returns the visual pixel bounding box: the bbox enlarged by
// the filter region and shrunk by clip and mask.
func (it *Item) Drawbox() geom.IntRect { return it.drawbox }

// CTM returns the total transform from item coordinates to pixels.
func (it *Item) CTM() geom.Matrix { return it.ctm }

// Transform returns the incremental transform from the parent.
func (it *Item) Transform() geom.Matrix {
	if it.transform == nil {
		return geom.Identity()
	}
	return *it.transform
}

// ItemBBox returns the bounding box in item-local coordinates.
func (it *Item) ItemBBox() geom.Rect { return it.itemBBox }

// Visible reports the visibility flag.
func (it *Item) Visible() bool { return it.visible }

// Sensitive reports whether the item responds to picks.
func (it *Item) Sensitive() bool { return it.sensitive }

// Cached reports whether the item stores its rendering.
func (it *Item) Cached() bool { return it.cached }

// Clip returns the clip sub-item, nil when absent.
func (it *Item) Clip() *Item { return it.clip }

// Mask returns the mask sub-item, nil when absent.
func (it *Item) Mask() *Item { return it.mask }

// Filter returns the filter pipeline, nil when absent.
func (it *Item) Filter() *filter.Filter { return it.filt }

// Opacity returns the item opacity in [0, 1].
func (it *Item) Opacity() float64 { return it.opacity }

// SetKey associates a host key with the item; hosts use keys to tell
// apart multiple items belonging to one document node.
func (it *Item) SetKey(key uint64) { it.key = key }

// Key returns the host key.
func (it *Item) Key() uint64 { return it.key }

// SetData attaches opaque host data.
func (it *Item) SetData(data any) { it.userData = data }

// Data returns the attached host data.
func (it *Item) Data() any { return it.userData }

// State returns the current validity flags.
func (it *Item) State() State { return it.state }

// Tree structure operations.

// AppendChild adopts item as the topmost regular child.
func (it *Item) AppendChild(item *Item) error {
	if err := it.adoptable(item); err != nil {
		return err
	}
	item.parent = it
	it.children = append(it.children, item)
	it.markForUpdate(StateAll, false)
	return nil
}

// PrependChild adopts item as the bottom regular child.
func (it *Item) PrependChild(item *Item) error {
	if err := it.adoptable(item); err != nil {
		return err
	}
	item.parent = it
	it.children = append([]*Item{item}, it.children...)
	it.markForUpdate(StateAll, false)
	return nil
}

// adoptable validates an item before linking it into the tree.
func (it *Item) adoptable(item *Item) error {
	if item.parent != nil {
		return it.drawing.structuralError(ErrHasParent)
	}
	if item.drawing != it.drawing {
		return it.drawing.structuralError(ErrForeignItem)
	}
	if item == it || it.hasAncestor(item) {
		return it.drawing.structuralError(ErrCycle)
	}
	return nil
}

// hasAncestor reports whether a is an ancestor of it.
func (it *Item) hasAncestor(a *Item) bool {
	for p := it.parent; p != nil; p = p.parent {
		if p == a {
			return true
		}
	}
	return false
}

// ClearChildren destroys all regular children (not clip or mask).
func (it *Item) ClearChildren() {
	// detach first so children do not try to unlink themselves from a
	// list they are being removed from
	victims := it.children
	it.children = nil
	for _, c := range victims {
		c.parent = nil
		c.destroy()
	}
	it.markForUpdate(StateAll, false)
}

// SetZOrder moves the item to position z among its siblings; index 0 is
// the bottom. Does nothing for parentless items.
func (it *Item) SetZOrder(z int) {
	p := it.parent
	if p == nil || it.clipChild || it.maskChild {
		return
	}
	idx := -1
	for i, c := range p.children {
		if c == it {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	p.children = append(p.children[:idx], p.children[idx+1:]...)
	if z > len(p.children) {
		z = len(p.children)
	}
	p.children = append(p.children[:z], append([]*Item{it}, p.children[z:]...)...)
	it.markForRendering()
}

// Destroy removes the item from the tree and releases it together with
// its children, clip, mask, and filter.
func (it *Item) Destroy() {
	it.destroy()
}

func (it *Item) destroy() {
	d := it.drawing
	d.emitItemDeleted(it)

	// remove from the cache registries
	d.budget.Forget(it)
	it.tile = nil
	d.forgetPicks(it)

	if it.parent != nil {
		it.markForRendering()
		switch {
		case it.clipChild:
			it.parent.clip = nil
		case it.maskChild:
			it.parent.mask = nil
		default:
			p := it.parent
			for i, c := range p.children {
				if c == it {
					p.children = append(p.children[:i], p.children[i+1:]...)
					break
				}
			}
		}
		it.parent.markForUpdate(StateAll, false)
		it.parent = nil
	} else if it.isRoot {
		d.root = nil
	}

	victims := it.children
	it.children = nil
	for _, c := range victims {
		c.parent = nil
		c.destroy()
	}
	if it.clip != nil {
		c := it.clip
		it.clip = nil
		c.parent = nil
		c.destroy()
	}
	if it.mask != nil {
		m := it.mask
		it.mask = nil
		m.parent = nil
		m.destroy()
	}
	it.filt = nil
}

// Attribute setters.

// SetTransform sets the incremental transform from the parent.
func (it *Item) SetTransform(m geom.Matrix) {
	if it.Transform().Near(m) {
		return
	}
	// mark the area where the object was for redraw
	it.markForRendering()
	if m.IsIdentity() {
		it.transform = nil
	} else {
		copied := m
		it.transform = &copied
	}
	it.markForUpdate(StateAll, true)
}

// SetOpacity sets the item opacity in [0, 1].
func (it *Item) SetOpacity(opacity float64) {
	if opacity == it.opacity {
		return
	}
	it.opacity = opacity
	it.markForRendering()
}

// SetVisible toggles visibility.
func (it *Item) SetVisible(v bool) {
	if v == it.visible {
		return
	}
	it.visible = v
	it.markForRendering()
	it.markForUpdate(StateAll, false)
}

// SetSensitive toggles pick sensitivity.
func (it *Item) SetSensitive(s bool) {
	it.sensitive = s
}

// SetItemBounds sets the item-local bounding box, needed by filters
// that scale with object size.
func (it *Item) SetItemBounds(bounds geom.Rect) {
	it.itemBBox = bounds
}

// SetCached enables or disables storing the rendering in memory.
// A persistent request is sticky: once set, non-persistent calls cannot
// disable caching. Caching is also subject to the drawing-wide disable
// switch and is never active in outline mode.
func (it *Item) SetCached(cached, persistent bool) {
	if it.drawing.cachesDisabled {
		return
	}
	if it.cachedPersistent && !persistent {
		return
	}
	it.cached = cached
	if persistent {
		it.cachedPersistent = cached
	}
	if cached {
		it.drawing.budget.MarkCached(it)
	} else {
		it.drawing.budget.UnmarkCached(it)
		it.tile = nil
	}
}

// SetClip replaces the clip sub-item. The previous clip is destroyed.
// Passing nil removes the clip.
func (it *Item) SetClip(item *Item) error {
	if item != nil {
		if item == it || it.hasAncestor(item) {
			return it.drawing.structuralError(ErrCycle)
		}
		if item.parent != nil {
			return it.drawing.structuralError(ErrHasParent)
		}
		if item.drawing != it.drawing {
			return it.drawing.structuralError(ErrForeignItem)
		}
	}
	it.markForRendering()
	if it.clip != nil {
		old := it.clip
		it.clip = nil
		old.parent = nil
		old.destroy()
	}
	it.clip = item
	if item != nil {
		item.parent = it
		item.clipChild = true
	}
	it.markForUpdate(StateAll, true)
	return nil
}

// SetMask replaces the mask sub-item. The previous mask is destroyed.
// Passing nil removes the mask.
func (it *Item) SetMask(item *Item) error {
	if item != nil {
		if item == it || it.hasAncestor(item) {
			return it.drawing.structuralError(ErrCycle)
		}
		if item.parent != nil {
			return it.drawing.structuralError(ErrHasParent)
		}
		if item.drawing != it.drawing {
			return it.drawing.structuralError(ErrForeignItem)
		}
	}
	it.markForRendering()
	if it.mask != nil {
		old := it.mask
		it.mask = nil
		old.parent = nil
		old.destroy()
	}
	it.mask = item
	if item != nil {
		item.parent = it
		item.maskChild = true
	}
	it.markForUpdate(StateAll, true)
	return nil
}

// SetFilter attaches a filter pipeline; nil removes it.
func (it *Item) SetFilter(f *filter.Filter) {
	it.markForRendering()
	it.filt = f
	it.markForUpdate(StateAll, false)
}

// SetPickChildren selects whether picks inside a group resolve to the
// picked child or to the group itself. Meaningful for groups only.
func (it *Item) SetPickChildren(p bool) {
	it.pickChildren = p
}

// Dirty-state machinery.

// markForRendering marks the current visual bounding box of the item
// for redrawing: the caches of all ancestors holding the area are
// dirtied and a needs-redraw signal is emitted.
func (it *Item) markForRendering() {
	dirty := it.drawbox
	if it.drawing.renderMode == RenderModeOutline {
		dirty = it.bbox
	}
	if dirty.IsEmpty() {
		return
	}
	for i := it; i != nil; i = i.parent {
		if i.cached && i.tile != nil {
			i.tile.MarkDirty(dirty)
		}
	}
	it.drawing.emitRedraw(dirty)
}

// markForUpdate clears state flags up the tree so that the next update
// pass visits this item. propagate additionally forces all descendants
// to reset their own state during that pass.
func (it *Item) markForUpdate(flags State, propagate bool) {
	// a previous call may have requested propagation even if this one
	// does not
	if propagate {
		it.propagate = true
	}
	if it.state&flags != 0 {
		it.state &^= flags
		if it.parent != nil {
			it.parent.markForUpdate(flags, false)
		} else {
			it.drawing.emitUpdate(it)
		}
	}
}

// Cache scoring and the cache.User contract.

// cacheRect returns the pixel rect a tile for this item would cover.
func (it *Item) cacheRect() geom.IntRect {
	return it.drawbox.Intersect(it.drawing.cacheLimit)
}

// cacheScore estimates how valuable caching this item is: the pixels of
// its cache rect, scaled by filter complexity and expansion, plus half
// of the clip's bbox pixels and the mask's own score.
func (it *Item) cacheScore() float64 {
	cr := it.cacheRect()
	if cr.IsEmpty() {
		return -1
	}
	score := float64(cr.Area())
	if it.filt != nil && it.drawing.renderMode == RenderModeNormal {
		score *= it.filt.Complexity()
		ref := geom.NewIntRect(0, 0, 16, 16)
		test := it.filt.AreaEnlarge(ref, it.ctm, it.itemBBox)
		// horizontal growth is clamped to the reference width so an
		// extreme expansion cannot dominate the score
		limit := geom.NewIntRect(0, geom.InfiniteIntRect().MinY, 16, geom.InfiniteIntRect().MaxY)
		test = test.Intersect(limit)
		score *= float64(test.Area()) / float64(ref.Area())
	}
	if it.clip != nil && !it.clip.bbox.IsEmpty() {
		score += float64(it.clip.bbox.Area()) * 0.5
	}
	if it.mask != nil {
		if ms := it.mask.cacheScore(); ms > 0 {
			score += ms
		}
	}
	return score
}

// DropCache implements cache.User: the budget evicts this item's tile.
func (it *Item) DropCache() {
	it.tile = nil
	it.cached = false
	it.cachedPersistent = false
}

// CacheBytes implements cache.User.
func (it *Item) CacheBytes() int {
	if it.tile == nil {
		return 0
	}
	return it.tile.ByteSize()
}

// CacheTile returns the item's tile, nil when none is held.
func (it *Item) CacheTile() *cache.Tile { return it.tile }

// Update brings derived data up to date: it recomputes the pixel
// bounding boxes, stores the total transform, and handles cache
// invalidation. area restricts the traversal when the bounding box is
// already known; flags selects which state must be recomputed; reset
// forces state bits to be recomputed even if the item considers them
// valid.
func (it *Item) Update(area geom.IntRect, ctx UpdateContext, flags, reset State) {
	d := it.drawing
	outline := d.renderMode == RenderModeOutline
	renderFilters := d.renderMode == RenderModeNormal

	if it.propagate {
		reset |= ^it.state & StateAll
		it.propagate = false
	}
	it.state &^= reset

	if ^it.state&flags == 0 {
		return // nothing to do
	}

	if it.state&StateBBox != 0 {
		ref := it.drawbox
		if outline {
			ref = it.bbox
		}
		if !area.Intersects(ref) {
			return
		}
	}

	childCtx := ctx
	if it.transform != nil {
		childCtx.CTM = ctx.CTM.Multiply(*it.transform)
	}
	// remember how the total transform moved for the cache
	oldInv, invertible := it.ctm.Invert()
	ctmChange := geom.Identity()
	if invertible {
		ctmChange = childCtx.CTM.Multiply(oldInv)
	}
	it.ctm = childCtx.CTM

	// recompute bbox
	it.state = it.variant.updateItem(area, childCtx, flags, reset)

	// derive drawbox
	if it.filt != nil && renderFilters && !it.itemBBox.IsEmpty() {
		it.drawbox = it.filt.ComputeDrawbox(it.ctm, it.itemBBox)
	} else {
		it.drawbox = it.bbox
	}

	if it.clip != nil {
		it.clip.Update(area, childCtx, flags, reset)
		if outline {
			it.bbox = it.bbox.Union(it.clip.bbox)
		} else {
			it.drawbox = it.drawbox.Intersect(it.clip.bbox)
		}
	}
	if it.mask != nil {
		it.mask.Update(area, childCtx, flags, reset)
		if outline {
			it.bbox = it.bbox.Union(it.mask.bbox)
		} else {
			// masking needs the full drawbox of the mask
			it.drawbox = it.drawbox.Intersect(it.mask.drawbox)
		}
	}

	// refresh this item's cache score
	score := it.cacheScore()
	d.budget.UpdateCandidate(it, score, it.cacheRect().Area()*4)

	// tell the cache how it will have to transform during the render
	// phase; the transformation is deferred because the item may have
	// its caching turned off before then
	if it.tile != nil {
		cl := it.cacheRect()
		if it.visible && !cl.IsEmpty() {
			it.tile.ScheduleTransform(cl, ctmChange)
		} else {
			// invisible or outside the canvas: drop the tile
			it.tile = nil
		}
	}

	// unless filtered, groups do not draw by themselves, only their
	// members do
	drawsSelf := it.Kind() != KindGroup && it.Kind() != KindText
	if it.filt != nil && renderFilters {
		drawsSelf = true
	}
	if drawsSelf && flags&^StateCache != 0 {
		it.markForRendering()
	}
}
