package filter

import (
	"testing"

	"github.com/gogpu/drawtree/geom"
)

func TestGaussianZeroDeviationIdentity(t *testing.T) {
	area := geom.NewIntRect(0, 0, 4, 4)
	src := solidSurface(t, area, 0)
	src.Set32(1, 1, 0xff00ff00)

	p := NewGaussianBlur(0, 0, SlotSourceGraphic)
	out := runPrimitive(t, p, area, src)
	if out.Get32(1, 1) != 0xff00ff00 || out.Get32(0, 0) != 0 {
		t.Error("zero deviation should be an identity copy")
	}
}

func TestGaussianSpreads(t *testing.T) {
	area := geom.NewIntRect(0, 0, 9, 9)
	src := solidSurface(t, area, 0)
	src.Set32(4, 4, 0xffffffff)

	p := NewGaussianBlur(1, 1, SlotSourceGraphic)
	out := runPrimitive(t, p, area, src)

	center := out.Get32(4, 4) >> 24
	if center == 0 || center == 255 {
		t.Errorf("center should be attenuated but present: %d", center)
	}
	if out.Get32(3, 4)>>24 == 0 {
		t.Error("neighbors should receive spread")
	}
}

func TestGaussianUniformStaysUniform(t *testing.T) {
	area := geom.NewIntRect(0, 0, 7, 7)
	src := solidSurface(t, area, 0xff808080)
	p := NewGaussianBlur(1, 1, SlotSourceGraphic)
	out := runPrimitive(t, p, area, src)
	// away from the boundary the average of a constant is the constant
	if got := out.Get32(3, 3); got != 0xff808080 {
		t.Errorf("interior changed: %08x", got)
	}
}

func TestGaussianAreaEnlarge(t *testing.T) {
	p := NewGaussianBlur(2, 0.5, SlotSourceGraphic)
	r := geom.NewIntRect(0, 0, 10, 10)
	got := p.AreaEnlarge(r, geom.Identity())
	want := geom.NewIntRect(-6, -2, 16, 12)
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestBoxRadii(t *testing.T) {
	if r := boxRadii(0); r != [3]int{0, 0, 0} {
		t.Errorf("zero deviation radii = %v", r)
	}
	for _, s := range []float64{0.5, 1, 2, 5} {
		r := boxRadii(s)
		if r[0] < 0 || r[1] < 0 || r[2] < 0 {
			t.Errorf("negative radius for s=%v: %v", s, r)
		}
	}
}
