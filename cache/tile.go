package cache

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/surface"
)

// Tile is one item's stored rasterization. It owns a surface covering
// its region, a dirty set of sub-rectangles that must be repainted
// before reuse, and an optional transform recorded during update that
// the next render applies to the stored pixels.
type Tile struct {
	region  geom.IntRect
	surf    *surface.Surface
	dirty   Region
	pending *pendingTransform
}

type pendingTransform struct {
	newRegion geom.IntRect
	change    geom.Matrix
}

// NewTile allocates a tile covering the given pixel region. The whole
// tile starts dirty. Returns nil if the surface cannot be allocated.
func NewTile(region geom.IntRect) *Tile {
	s, err := surface.New(region)
	if err != nil {
		return nil
	}
	t := &Tile{region: region, surf: s}
	t.dirty.Add(region)
	return t
}

// Region returns the pixel rect the tile may store.
func (t *Tile) Region() geom.IntRect { return t.region }

// ByteSize returns the memory held by the tile's pixels.
func (t *Tile) ByteSize() int { return t.surf.ByteSize() }

// MarkDirty records that the given device rect must be repainted before
// the tile can satisfy reads over it.
func (t *Tile) MarkDirty(rect geom.IntRect) {
	t.dirty.Add(rect.Intersect(t.region))
}

// MarkClean records that the given device rect now holds fresh pixels.
func (t *Tile) MarkClean(rect geom.IntRect) {
	t.dirty.Subtract(rect)
}

// ScheduleTransform records the change of the owning item's total
// transform, to be applied to the stored pixels at the next render.
// Consecutive schedules compose.
func (t *Tile) ScheduleTransform(newRegion geom.IntRect, change geom.Matrix) {
	if change.IsIdentity() && newRegion == t.region {
		return
	}
	if t.pending != nil {
		change = change.Multiply(t.pending.change)
	}
	t.pending = &pendingTransform{newRegion: newRegion, change: change}
}

// Prepare applies any pending transform before rendering. Integer
// translations shift the stored pixels; mild axis-aligned transforms are
// resampled with a bilinear blit; anything else discards the content by
// marking the whole tile dirty.
func (t *Tile) Prepare() {
	if t.pending == nil {
		return
	}
	p := t.pending
	t.pending = nil

	switch {
	case p.change.IsIdentity():
		t.retarget(p.newRegion, 0, 0)
	case isIntTranslation(p.change):
		t.shift(p.newRegion, int(math.Round(p.change.C)), int(math.Round(p.change.F)))
	case isMildAxisAligned(p.change):
		t.resample(p.newRegion, p.change)
	default:
		// ill-conditioned: drop the content
		t.reallocate(p.newRegion)
	}
}

// PaintFromCache blits the tile onto the context if the requested area
// is fully clean inside the tile. Returns whether the request was
// satisfied entirely from the cache.
func (t *Tile) PaintFromCache(ct *surface.Context, area geom.IntRect) bool {
	painted := area.Intersect(t.region)
	if painted.IsEmpty() {
		return false
	}
	if t.dirty.Intersects(painted) {
		return false
	}
	// the tile can only answer for pixels it stores; a request poking
	// outside the region is not fully satisfied
	if !t.region.ContainsRect(area) {
		return false
	}
	defer ct.Guard()()
	ct.RectangleInt(painted)
	ct.Clip()
	ct.SetSourceSurface(t.surf, 0, 0)
	ct.Paint()
	return true
}

// Surface returns the tile's backing surface for rendering into.
func (t *Tile) Surface() *surface.Surface { return t.surf }

// retarget moves the tile to a new region without transforming pixels
// beyond an integer shift of the region bounds.
func (t *Tile) retarget(newRegion geom.IntRect, dx, dy int) {
	if newRegion == t.region {
		return
	}
	t.shift(newRegion, dx, dy)
}

// shift moves the stored pixels by an integer translation and adopts
// the new region, marking uncovered parts dirty.
func (t *Tile) shift(newRegion geom.IntRect, dx, dy int) {
	ns, err := surface.New(newRegion)
	if err != nil {
		t.reallocate(newRegion)
		return
	}
	// stored pixel at device p moves to device p+(dx,dy)
	moved := t.region.Translate(dx, dy)
	overlap := moved.Intersect(newRegion)
	if !overlap.IsEmpty() {
		copyShifted(ns, t.surf, overlap, dx, dy)
	}
	var nd Region
	nd.Add(newRegion)
	if !overlap.IsEmpty() {
		// carried-over pixels stay clean unless they were dirty before
		nd.Subtract(overlap)
		for _, d := range t.dirty.Rects() {
			nd.Add(d.Translate(dx, dy).Intersect(newRegion))
		}
	}
	t.surf = ns
	t.region = newRegion
	t.dirty = nd
}

// resample applies a mild axis-aligned affine to the stored pixels with
// a bilinear blit and adopts the new region. The whole new region is
// marked dirty, resampled interior included, so PaintFromCache does not
// serve the resampled pixels until they are repainted.
func (t *Tile) resample(newRegion geom.IntRect, change geom.Matrix) {
	ns, err := surface.New(newRegion)
	if err != nil {
		t.reallocate(newRegion)
		return
	}
	src := surface.ToImage(t.surf)
	dst := image.NewRGBA(image.Rect(0, 0, newRegion.Width(), newRegion.Height()))
	// device transform, rebased to the two buffers' origins
	m := geom.Translate(float64(-newRegion.MinX), float64(-newRegion.MinY)).
		Multiply(change).
		Multiply(geom.Translate(float64(t.region.MinX), float64(t.region.MinY)))
	draw.ApproxBiLinear.Transform(dst, f64.Aff3{m.A, m.B, m.C, m.D, m.E, m.F},
		src, src.Bounds(), draw.Src, nil)
	surface.FromImage(ns, dst)
	t.surf = ns
	t.region = newRegion
	t.dirty.Clear()
	t.dirty.Add(newRegion)
}

// reallocate drops the stored pixels and adopts the new region fully dirty.
func (t *Tile) reallocate(newRegion geom.IntRect) {
	ns, err := surface.New(newRegion)
	if err != nil {
		// keep the old surface; everything dirty
		t.dirty.Clear()
		t.dirty.Add(t.region)
		return
	}
	t.surf = ns
	t.region = newRegion
	t.dirty.Clear()
	t.dirty.Add(newRegion)
}

// copyShifted copies the device-space overlap rect from src to dst where
// src pixels are considered translated by (dx, dy).
func copyShifted(dst, src *surface.Surface, overlap geom.IntRect, dx, dy int) {
	do := dst.PixelArea()
	so := src.PixelArea()
	for y := overlap.MinY; y < overlap.MaxY; y++ {
		for x := overlap.MinX; x < overlap.MaxX; x++ {
			px := src.Get32(x-dx-so.MinX, y-dy-so.MinY)
			dst.Set32(x-do.MinX, y-do.MinY, px)
		}
	}
}

// isIntTranslation reports whether m is a translation by whole pixels.
func isIntTranslation(m geom.Matrix) bool {
	if !m.IsTranslation() {
		return false
	}
	return math.Abs(m.C-math.Round(m.C)) < 1e-6 &&
		math.Abs(m.F-math.Round(m.F)) < 1e-6
}

// isMildAxisAligned reports whether m keeps axes aligned and scales
// within a factor of two, the range where a bilinear resample of the
// stored pixels is still worth showing.
func isMildAxisAligned(m geom.Matrix) bool {
	if m.B != 0 || m.D != 0 {
		return false
	}
	sx, sy := math.Abs(m.A), math.Abs(m.E)
	return sx >= 0.5 && sx <= 2 && sy >= 0.5 && sy <= 2
}
