package filter

import (
	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/internal/blend"
	"github.com/gogpu/drawtree/internal/parallel"
	"github.com/gogpu/drawtree/surface"
)

// Slot names a buffer in a filter pipeline. Non-negative values are
// intermediate results; the reserved negative values denote surfaces
// derived from the scene, materialized lazily on first read.
type Slot int

const (
	// SlotNotSet means "use the previous primitive's output", or
	// SourceGraphic for the first primitive.
	SlotNotSet Slot = -1 - iota

	// SlotSourceGraphic is the item's rendered content.
	SlotSourceGraphic

	// SlotSourceAlpha is the alpha channel of the content.
	SlotSourceAlpha

	// SlotBackgroundImage is the accumulated backdrop.
	SlotBackgroundImage

	// SlotBackgroundAlpha is the alpha channel of the backdrop.
	SlotBackgroundAlpha

	// SlotFillPaint is an infinite surface of the item's fill paint.
	SlotFillPaint

	// SlotStrokePaint is an infinite surface of the item's stroke paint.
	SlotStrokePaint
)

// SlotTable holds the materialized surfaces of a pipeline run. All
// slot surfaces share the same pixel area (the filter area) and the
// ARGB32 format unless a primitive produces A8.
type SlotTable struct {
	area  geom.IntRect
	units Units
	pool  *parallel.Pool

	source      *surface.Surface
	background  *surface.Surface
	fillPaint   uint32
	strokePaint uint32

	slots map[Slot]*surface.Surface
	last  Slot
}

// NewSlotTable creates a table for one pipeline run. source is the
// rendered content of the item over the filter area; background may be
// nil. The paints are premultiplied ARGB words.
func NewSlotTable(area geom.IntRect, units Units, pool *parallel.Pool,
	source, background *surface.Surface, fillPaint, strokePaint uint32) *SlotTable {

	return &SlotTable{
		area:        area,
		units:       units,
		pool:        pool,
		source:      source,
		background:  background,
		fillPaint:   fillPaint,
		strokePaint: strokePaint,
		slots:       make(map[Slot]*surface.Surface),
		last:        SlotNotSet,
	}
}

// Area returns the pixel area every slot surface covers.
func (st *SlotTable) Area() geom.IntRect { return st.area }

// Units returns the unit transforms of the run.
func (st *SlotTable) Units() Units { return st.units }

// Pool returns the worker pool kernels split their rows over.
func (st *SlotTable) Pool() *parallel.Pool { return st.pool }

// NewSurface allocates a fresh slot-sized surface.
func (st *SlotTable) NewSurface(f surface.Format) *surface.Surface {
	s, _ := surface.NewFormat(st.area, f)
	return s
}

// Set stores a primitive result and records it as the most recent
// output, which SlotNotSet resolves to.
func (st *SlotTable) Set(s Slot, out *surface.Surface) {
	if s == SlotNotSet {
		s = st.nextFree()
	}
	st.slots[s] = out
	st.last = s
}

func (st *SlotTable) nextFree() Slot {
	for i := Slot(0); ; i++ {
		if _, ok := st.slots[i]; !ok {
			return i
		}
	}
}

// Last returns the most recently written slot surface, or the source
// graphic when no primitive has run.
func (st *SlotTable) Last() (*surface.Surface, error) {
	if st.last == SlotNotSet {
		return st.Get(SlotSourceGraphic)
	}
	return st.Get(st.last)
}

// Get returns the surface for a slot, materializing reserved sources on
// first read.
func (st *SlotTable) Get(s Slot) (*surface.Surface, error) {
	if s == SlotNotSet {
		if st.last != SlotNotSet {
			return st.slots[st.last], nil
		}
		s = SlotSourceGraphic
	}
	if out, ok := st.slots[s]; ok {
		return out, nil
	}

	var out *surface.Surface
	switch s {
	case SlotSourceGraphic:
		out = st.cropToArea(st.source)
	case SlotSourceAlpha:
		src, err := st.Get(SlotSourceGraphic)
		if err != nil {
			return nil, err
		}
		out = extractAlpha(st.area, src)
	case SlotBackgroundImage:
		if st.background == nil {
			out = st.NewSurface(surface.ARGB32)
		} else {
			out = st.cropToArea(st.background)
		}
	case SlotBackgroundAlpha:
		src, err := st.Get(SlotBackgroundImage)
		if err != nil {
			return nil, err
		}
		out = extractAlpha(st.area, src)
	case SlotFillPaint:
		out = flood(st.area, st.fillPaint)
	case SlotStrokePaint:
		out = flood(st.area, st.strokePaint)
	default:
		return nil, ErrMissingInput
	}
	st.slots[s] = out
	return out, nil
}

// cropToArea returns a slot-sized surface holding src's pixels over the
// filter area, padded transparent where src does not cover it.
func (st *SlotTable) cropToArea(src *surface.Surface) *surface.Surface {
	out := st.NewSurface(surface.ARGB32)
	if src == nil {
		return out
	}
	surface.CopyRect(out, src, st.area)
	return out
}

// extractAlpha keeps only the alpha channel of src.
func extractAlpha(area geom.IntRect, src *surface.Surface) *surface.Surface {
	out, _ := surface.NewFormat(area, surface.ARGB32)
	w, h := out.Width(), out.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Set32(x, y, src.Get32(x, y)&0xff000000)
		}
	}
	return out
}

// flood fills a slot-sized surface with a premultiplied color.
func flood(area geom.IntRect, px uint32) *surface.Surface {
	out, _ := surface.NewFormat(area, surface.ARGB32)
	w, h := out.Width(), out.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Set32(x, y, px)
		}
	}
	return out
}

// ensureColor converts an A8 slot surface to ARGB32 carrying alpha so
// color kernels can consume either. Returns the input unchanged for
// ARGB32 surfaces.
func ensureColor(area geom.IntRect, s *surface.Surface) *surface.Surface {
	if s.Format() == surface.ARGB32 {
		return s
	}
	out, _ := surface.NewFormat(area, surface.ARGB32)
	w, h := out.Width(), out.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Set32(x, y, s.Get32(x, y)&0xff000000)
		}
	}
	return out
}

// premulColor packs a straight RGBA color (bytes) into a premultiplied
// ARGB32 word.
func premulColor(r, g, b, a uint32) uint32 {
	return blend.Pack(a,
		blend.PremulAlpha(r, a),
		blend.PremulAlpha(g, a),
		blend.PremulAlpha(b, a),
	)
}
