package filter

import (
	"testing"

	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/internal/parallel"
	"github.com/gogpu/drawtree/surface"
)

// newTestTable builds a slot table over the given area with an identity
// unit transform and a single-worker pool.
func newTestTable(t *testing.T, area geom.IntRect, source *surface.Surface) *SlotTable {
	t.Helper()
	units := Units{PrimitiveToPixel: geom.Identity(), PixelToPrimitive: geom.Identity()}
	return NewSlotTable(area, units, parallel.NewPool(1), source, nil, 0, 0)
}

// solidSurface fills a surface over area with one premultiplied pixel.
func solidSurface(t *testing.T, area geom.IntRect, px uint32) *surface.Surface {
	t.Helper()
	s, err := surface.New(area)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < s.Height(); y++ {
		for x := 0; x < s.Width(); x++ {
			s.Set32(x, y, px)
		}
	}
	return s
}

// runPrimitive renders one primitive over the source and returns its
// output surface.
func runPrimitive(t *testing.T, p Primitive, area geom.IntRect, source *surface.Surface) *surface.Surface {
	t.Helper()
	st := newTestTable(t, area, source)
	if err := p.Render(st); err != nil {
		t.Fatalf("primitive render: %v", err)
	}
	out, err := st.Last()
	if err != nil {
		t.Fatalf("no output slot: %v", err)
	}
	return out
}
