package filter

import (
	"testing"

	"github.com/gogpu/drawtree/geom"
	"github.com/gogpu/drawtree/surface"
)

func blendPair(t *testing.T, mode BlendMode, a, b uint32) uint32 {
	t.Helper()
	area := geom.NewIntRect(0, 0, 1, 1)
	st := newTestTable(t, area, nil)
	sa, _ := surface.New(area)
	sa.Set32(0, 0, a)
	sb, _ := surface.New(area)
	sb.Set32(0, 0, b)
	st.Set(Slot(0), sa)
	st.Set(Slot(1), sb)

	p := NewBlend(mode, Slot(0), Slot(1))
	if err := p.Render(st); err != nil {
		t.Fatal(err)
	}
	out, _ := st.Last()
	return out.Get32(0, 0)
}

func TestBlendNormalOverTransparent(t *testing.T) {
	a := uint32(0x80402010)
	if got := blendPair(t, BlendNormal, a, 0); got != a {
		t.Errorf("A over transparent = %08x, want %08x", got, a)
	}
}

func TestBlendMultiplyWithWhite(t *testing.T) {
	// multiply with opaque white keeps A up to (x+127)/255 rounding
	a := uint32(0xff402010)
	got := blendPair(t, BlendMultiply, a, 0xffffffff)
	for shift := 0; shift <= 24; shift += 8 {
		want := (a >> shift) & 0xff
		have := (got >> shift) & 0xff
		diff := int(want) - int(have)
		if diff < 0 {
			diff = -diff
		}
		if diff > 1 {
			t.Fatalf("multiply with white: %08x, want about %08x", got, a)
		}
	}
}

func TestBlendMultiplyAlpha(t *testing.T) {
	// qr = 1 - (1-qa)(1-qb)
	got := blendPair(t, BlendMultiply, 0x80000000, 0x80000000)
	a := got >> 24
	want := uint32((255*255 - (255-128)*(255-128) + 127) / 255)
	if a != want {
		t.Errorf("alpha = %d, want %d", a, want)
	}
}

func TestBlendScreenWithBlack(t *testing.T) {
	// screen with opaque black keeps the color channels
	a := uint32(0xff402010)
	got := blendPair(t, BlendScreen, a, 0xff000000)
	if got != a {
		t.Errorf("screen with black = %08x, want %08x", got, a)
	}
}

func TestBlendDarkenLighten(t *testing.T) {
	a := uint32(0xff404040)
	b := uint32(0xff808080)
	dark := blendPair(t, BlendDarken, a, b)
	light := blendPair(t, BlendLighten, a, b)
	if (dark>>16)&0xff != 0x40 {
		t.Errorf("darken = %08x", dark)
	}
	if (light>>16)&0xff != 0x80 {
		t.Errorf("lighten = %08x", light)
	}
}

func TestBlendAreaEnlargeIsNoop(t *testing.T) {
	p := NewBlend(BlendMultiply, SlotSourceGraphic, SlotBackgroundImage)
	r := geom.NewIntRect(0, 0, 5, 5)
	if p.AreaEnlarge(r, geom.Identity()) != r {
		t.Error("blend is pixel-local")
	}
	if !p.CanHandleAffine(geom.Rotate(1)) {
		t.Error("blend should be affine invariant")
	}
}
