package geom

import (
	"math"
	"testing"
)

func TestIdentity(t *testing.T) {
	m := Identity()
	if !m.IsIdentity() {
		t.Error("Identity() should be identity")
	}
	p := m.TransformPoint(Point{X: 3, Y: 4})
	if p.X != 3 || p.Y != 4 {
		t.Errorf("identity moved point: got (%v, %v)", p.X, p.Y)
	}
}

func TestMultiplyOrder(t *testing.T) {
	// translate then scale: scale * translate applies translate first
	m := Scale(2, 2).Multiply(Translate(1, 0))
	p := m.TransformPoint(Point{X: 1, Y: 1})
	if p.X != 4 || p.Y != 2 {
		t.Errorf("got (%v, %v), want (4, 2)", p.X, p.Y)
	}
}

func TestInvert(t *testing.T) {
	tests := []struct {
		name string
		m    Matrix
	}{
		{"translate", Translate(5, -3)},
		{"scale", Scale(2, 0.5)},
		{"rotate", Rotate(math.Pi / 3)},
		{"composed", Translate(1, 2).Multiply(Rotate(0.7)).Multiply(Scale(3, 1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, ok := tt.m.Invert()
			if !ok {
				t.Fatal("matrix should be invertible")
			}
			if !tt.m.Multiply(inv).Near(Identity()) {
				t.Errorf("m * m^-1 != identity: %+v", tt.m.Multiply(inv))
			}
		})
	}
}

func TestInvertSingular(t *testing.T) {
	if _, ok := (Matrix{}).Invert(); ok {
		t.Error("zero matrix should not be invertible")
	}
}

func TestTransformRect(t *testing.T) {
	r := Rect{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	out := Translate(5, 5).TransformRect(r)
	want := Rect{MinX: 5, MinY: 5, MaxX: 15, MaxY: 15}
	if out != want {
		t.Errorf("got %+v, want %+v", out, want)
	}

	// rotation by 90 degrees keeps the bbox size
	rot := Rotate(math.Pi / 2).TransformRect(r)
	if math.Abs(rot.Width()-10) > 1e-9 || math.Abs(rot.Height()-10) > 1e-9 {
		t.Errorf("rotated bbox wrong size: %+v", rot)
	}
}

func TestExpansion(t *testing.T) {
	if e := Scale(2, 2).Expansion(); math.Abs(e-2) > 1e-9 {
		t.Errorf("expansion of uniform scale 2 = %v, want 2", e)
	}
	if e := Rotate(1.1).Expansion(); math.Abs(e-1) > 1e-9 {
		t.Errorf("expansion of rotation = %v, want 1", e)
	}
}

func TestIsTranslation(t *testing.T) {
	if !Translate(3, 4).IsTranslation() {
		t.Error("Translate should be a translation")
	}
	if Scale(2, 1).IsTranslation() {
		t.Error("Scale should not be a translation")
	}
}
