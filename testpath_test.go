package drawtree

import (
	"testing"

	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/surface"
)

// rectPath is a minimal PathVector describing an axis-aligned
// rectangle; it stands in for the host's curve machinery in tests.
type rectPath struct {
	r geom.Rect
}

func (p rectPath) BoundsExactTransformed(m geom.Matrix) (geom.Rect, bool) {
	if p.r.IsEmpty() {
		return geom.EmptyRect(), false
	}
	return m.TransformRect(p.r), true
}

func (p rectPath) WindDistance(m geom.Matrix, pt geom.Point, _ *geom.Rect) (int, float64) {
	dev := m.TransformRect(p.r)
	if dev.Contains(pt) {
		return 1, 0
	}
	dx := 0.0
	if pt.X < dev.MinX {
		dx = dev.MinX - pt.X
	} else if pt.X > dev.MaxX {
		dx = pt.X - dev.MaxX
	}
	dy := 0.0
	if pt.Y < dev.MinY {
		dy = dev.MinY - pt.Y
	} else if pt.Y > dev.MaxY {
		dy = pt.Y - dev.MaxY
	}
	if dx > dy {
		return 0, dx
	}
	return 0, dy
}

func (p rectPath) FillCoverage(dst []byte, stride, w, h int, origin geom.Point, m geom.Matrix, _ surface.FillRule) {
	dev := m.TransformRect(p.r)
	for y := 0; y < h; y++ {
		py := origin.Y + float64(y) + 0.5
		for x := 0; x < w; x++ {
			px := origin.X + float64(x) + 0.5
			if px >= dev.MinX && px < dev.MaxX && py >= dev.MinY && py < dev.MaxY {
				dst[y*stride+x] = 0xff
			}
		}
	}
}

func (p rectPath) StrokeCoverage(dst []byte, stride, w, h int, origin geom.Point, m geom.Matrix, s *surface.StrokeParams) {
	dev := m.TransformRect(p.r)
	half := s.Width / 2
	for y := 0; y < h; y++ {
		py := origin.Y + float64(y) + 0.5
		for x := 0; x < w; x++ {
			px := origin.X + float64(x) + 0.5
			nearX := (px >= dev.MinX-half && px < dev.MinX+half) || (px >= dev.MaxX-half && px < dev.MaxX+half)
			nearY := (py >= dev.MinY-half && py < dev.MinY+half) || (py >= dev.MaxY-half && py < dev.MaxY+half)
			inX := px >= dev.MinX-half && px < dev.MaxX+half
			inY := py >= dev.MinY-half && py < dev.MaxY+half
			if (nearX && inY) || (nearY && inX) {
				dst[y*stride+x] = 0xff
			}
		}
	}
}

// redFill returns a style filling opaque red with no stroke.
func redFill() *Style {
	s := DefaultStyle()
	s.Fill = SolidPaint(0xff0000ff)
	return s
}

// newSurfaceOver allocates a context over the given pixel area.
func newSurfaceOver(t *testing.T, area geom.IntRect) (*surface.Context, *surface.Surface) {
	t.Helper()
	s, err := surface.New(area)
	if err != nil {
		t.Fatal(err)
	}
	return surface.NewContext(s), s
}

// newTestDrawing builds a drawing with a pick-through root group.
func newTestDrawing() (*Drawing, *Item) {
	d := NewDrawing(nil)
	root := NewGroup(d)
	root.SetPickChildren(true)
	_ = d.SetRoot(root)
	return d, root
}
