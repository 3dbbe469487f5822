package drawtree

import (
	"sort"

	"github.com/gogpu/drawtree/cache"
	"github.com/gogpu/drawtree/filter"
	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/internal/logging"
	"github.com/gogpu/drawtree/internal/parallel"
	"github.com/gogpu/drawtree/surface"
)

// RenderMode selects how the tree is rasterized.
type RenderMode uint8

const (
	// RenderModeNormal renders with filters and caches enabled.
	RenderModeNormal RenderMode = iota

	// RenderModeNoFilters skips filter pipelines.
	RenderModeNoFilters

	// RenderModeOutline draws thin wireframe outlines of every path,
	// with distinct clip and mask colors; caches stay off.
	RenderModeOutline
)

// Default configuration values, overridable through Preferences.
const (
	defaultCacheBytes   = 64 << 20
	defaultOutlineColor = 0xff0000ff // red wireframes
	defaultClipColor    = 0x00ff00ff // green clips
	defaultMaskColor    = 0x0000ffff // blue masks
)

// Drawing is the root of a render tree. It owns the root item, the
// cache budget and candidate registry, the worker pool for kernel row
// loops, and the host-facing callbacks.
//
// All methods must be called from the owning host thread; the only
// internal parallelism is row-splitting inside pixel kernels.
type Drawing struct {
	root *Item

	renderMode   RenderMode
	outlineColor uint32
	clipColor    uint32
	maskColor    uint32

	cacheLimit     geom.IntRect
	cachesDisabled bool
	budget         *cache.Budget
	pool           *parallel.Pool
	filterQuality  int
	delta          float64

	pickMemo *pickMemoCache

	onRedraw      []func(geom.IntRect)
	onUpdate      []func(*Item)
	onItemDeleted []func(*Item)
	onError       []func(error)
}

// NewDrawing creates a drawing configured from the preferences; pass
// nil for defaults. Attach a root with SetRoot.
func NewDrawing(prefs Preferences) *Drawing {
	if prefs == nil {
		prefs = &StaticPrefs{}
	}
	threads := prefs.Int(PrefNumThreads, 1, 1, parallel.MaxWorkers)
	budget := prefs.Int(PrefCacheBytes, defaultCacheBytes, 0, 1<<31-1)
	d := &Drawing{
		renderMode:    RenderModeNormal,
		outlineColor:  prefs.Color(PrefOutlineColor, defaultOutlineColor),
		clipColor:     prefs.Color(PrefClipColor, defaultClipColor),
		maskColor:     prefs.Color(PrefMaskColor, defaultMaskColor),
		cacheLimit:    geom.InfiniteIntRect(),
		budget:        cache.NewBudget(budget),
		pool:          parallel.NewPool(threads),
		filterQuality: prefs.Int(PrefFilterQuality, 1, 0, 2),
		pickMemo:      newPickMemo(),
	}
	return d
}

// SetRoot installs the root item. Any previous root is released.
func (d *Drawing) SetRoot(root *Item) error {
	if root != nil {
		if root.parent != nil {
			return d.structuralError(ErrHasParent)
		}
		if root.drawing != d {
			return d.structuralError(ErrForeignItem)
		}
	}
	if d.root != nil && d.root != root {
		old := d.root
		d.root = nil
		old.isRoot = false
		old.destroy()
	}
	d.root = root
	if root != nil {
		root.isRoot = true
	}
	return nil
}

// Root returns the root item.
func (d *Drawing) Root() *Item { return d.root }

// SetRenderMode switches between normal, no-filter, and outline
// rendering. Entering outline mode drops every cache tile.
func (d *Drawing) SetRenderMode(mode RenderMode) {
	if mode == d.renderMode {
		return
	}
	d.renderMode = mode
	if mode == RenderModeOutline {
		d.dropAllCaches(d.root)
	}
	if d.root != nil {
		d.root.markForUpdate(StateAll, true)
	}
}

// RenderMode returns the active render mode.
func (d *Drawing) RenderMode() RenderMode { return d.renderMode }

// SetOutlineColor sets the wireframe color as 0xRRGGBBAA.
func (d *Drawing) SetOutlineColor(rgba uint32) { d.outlineColor = rgba }

// SetCacheBudget sets the byte budget shared by all cache tiles.
func (d *Drawing) SetCacheBudget(bytes int) {
	d.budget.SetLimit(bytes)
	d.budget.Enforce()
}

// SetCacheLimit restricts caching to the given pixel rect, normally the
// visible canvas area. Tiles never extend outside it.
func (d *Drawing) SetCacheLimit(area geom.IntRect) {
	d.cacheLimit = area
}

// SetDelta sets the default pick tolerance used by the host.
func (d *Drawing) SetDelta(delta float64) { d.delta = delta }

// Delta returns the default pick tolerance.
func (d *Drawing) Delta() float64 { return d.delta }

// DisableCaches globally prevents items from caching; existing tiles
// are dropped.
func (d *Drawing) DisableCaches(disabled bool) {
	d.cachesDisabled = disabled
	if disabled {
		d.dropAllCaches(d.root)
	}
}

// Pool returns the worker pool shared by the filter kernels.
func (d *Drawing) Pool() *parallel.Pool { return d.pool }

// Budget returns the cache budget registry.
func (d *Drawing) Budget() *cache.Budget { return d.budget }

// FilterQuality returns the configured filter quality level.
func (d *Drawing) FilterQuality() int { return d.filterQuality }

// Callbacks. The core invokes them synchronously on the host thread.

// OnNeedsRedraw registers a callback receiving dirty pixel rects.
func (d *Drawing) OnNeedsRedraw(fn func(geom.IntRect)) {
	d.onRedraw = append(d.onRedraw, fn)
}

// OnNeedsUpdate registers a callback fired when the root needs an
// update pass.
func (d *Drawing) OnNeedsUpdate(fn func(*Item)) {
	d.onUpdate = append(d.onUpdate, fn)
}

// OnItemDeleted registers a callback fired as an item is destroyed,
// before its links are torn down.
func (d *Drawing) OnItemDeleted(fn func(*Item)) {
	d.onItemDeleted = append(d.onItemDeleted, fn)
}

// OnError registers a callback receiving structural errors.
func (d *Drawing) OnError(fn func(error)) {
	d.onError = append(d.onError, fn)
}

func (d *Drawing) emitRedraw(r geom.IntRect) {
	for _, fn := range d.onRedraw {
		fn(r)
	}
}

func (d *Drawing) emitUpdate(it *Item) {
	for _, fn := range d.onUpdate {
		fn(it)
	}
}

func (d *Drawing) emitItemDeleted(it *Item) {
	for _, fn := range d.onItemDeleted {
		fn(it)
	}
}

// structuralError reports an invalid-structure error to the host and
// returns it for the failing call.
func (d *Drawing) structuralError(err error) error {
	logging.Get().Warn("invalid drawing tree operation", "err", err)
	for _, fn := range d.onError {
		fn(err)
	}
	return err
}

// Update brings the whole tree up to date over the given area and
// re-balances the cache assignment: the highest-scoring candidates are
// granted caches until the byte budget is filled, everything else is
// dropped.
func (d *Drawing) Update(area geom.IntRect) {
	if d.root == nil {
		return
	}
	d.root.Update(area, UpdateContext{CTM: geom.Identity()}, StateAll, StateNone)
	d.updateCaches()
	d.budget.Enforce()
}

// UpdateAll updates the whole plane.
func (d *Drawing) UpdateAll() {
	d.Update(geom.InfiniteIntRect())
}

// updateCaches walks the candidate list in score order, switching
// caching on for the prefix that fits the budget and off for the rest.
// Outline mode never caches.
func (d *Drawing) updateCaches() {
	if d.cachesDisabled || d.renderMode == RenderModeOutline {
		return
	}

	// items that fell below the score threshold stop caching even when
	// space is available
	var stale []*Item
	d.budget.ForEachCached(func(u cache.User) {
		it, ok := u.(*Item)
		if ok && !d.budget.IsCandidate(u) && !it.cachedPersistent {
			stale = append(stale, it)
		}
	})
	for _, it := range stale {
		it.setCachedAuto(false)
	}

	recs := append([]cache.Record(nil), d.budget.Candidates()...)
	sort.Slice(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })

	used := 0
	limit := d.budget.Limit()
	full := false
	for _, rec := range recs {
		it, ok := rec.User.(*Item)
		if !ok {
			continue
		}
		if !full && used+rec.Bytes <= limit {
			used += rec.Bytes
			it.setCachedAuto(true)
		} else {
			full = true
			if !it.cachedPersistent {
				it.setCachedAuto(false)
			}
		}
	}
}

// setCachedAuto flips the cached flag from the scoring pass without
// touching the persistent request.
func (it *Item) setCachedAuto(on bool) {
	if on == it.cached {
		return
	}
	it.cached = on
	if on {
		it.drawing.budget.MarkCached(it)
		// never create tiles for invisible items; they get one at the
		// render phase if they become visible again
		if it.tile == nil && it.visible {
			cl := it.cacheRect()
			if !cl.IsEmpty() {
				it.tile = cache.NewTile(cl)
			}
		}
	} else {
		it.drawing.budget.UnmarkCached(it)
		it.tile = nil
	}
}

// Render rasterizes the area into the context.
func (d *Drawing) Render(ct *surface.Context, area geom.IntRect) {
	if d.root == nil {
		return
	}
	d.root.Render(ct, area, RenderDefault)
}

// Pick returns the topmost item under the point within the tolerance.
func (d *Drawing) Pick(p geom.Point, delta float64, sticky bool) *Item {
	if d.root == nil {
		return nil
	}
	return d.root.Pick(p, delta, sticky)
}

// dropAllCaches recursively releases every tile in the subtree.
func (d *Drawing) dropAllCaches(it *Item) {
	if it == nil {
		return
	}
	if it.tile != nil {
		it.tile = nil
	}
	if it.cached {
		it.cached = false
		it.cachedPersistent = false
		d.budget.UnmarkCached(it)
	}
	for _, c := range it.children {
		d.dropAllCaches(c)
	}
	d.dropAllCaches(it.clip)
	d.dropAllCaches(it.mask)
}

// logAllocFailure records a failed intermediate surface allocation;
// the current item's render is skipped and nothing is written.
func logAllocFailure(area geom.IntRect) {
	logging.Get().Warn("intermediate surface allocation failed, skipping item render",
		"w", area.Width(), "h", area.Height())
}

// TreeRendererFor adapts a subtree into the filter package's
// TreeRenderer contract, letting filter Image primitives rasterize
// scene content.
func TreeRendererFor(it *Item) filter.TreeRenderer {
	return subtreeRenderer{it: it}
}

type subtreeRenderer struct{ it *Item }

// RenderInto implements filter.TreeRenderer.
func (s subtreeRenderer) RenderInto(ct *surface.Context, area geom.IntRect) {
	s.it.Render(ct, area, RenderBypassCache)
}
