package geom

import "testing"

func TestRectUnionIntersect(t *testing.T) {
	a := NewRect(0, 0, 10, 10)
	b := NewRect(5, 5, 15, 15)

	u := a.Union(b)
	if u != (Rect{MinX: 0, MinY: 0, MaxX: 15, MaxY: 15}) {
		t.Errorf("union: %+v", u)
	}
	i := a.Intersect(b)
	if i != (Rect{MinX: 5, MinY: 5, MaxX: 10, MaxY: 10}) {
		t.Errorf("intersect: %+v", i)
	}
	if !a.Intersect(NewRect(20, 20, 30, 30)).IsEmpty() {
		t.Error("disjoint rects should intersect to empty")
	}
}

func TestEmptyRectUnion(t *testing.T) {
	r := EmptyRect().Union(NewRect(1, 2, 3, 4))
	if r != NewRect(1, 2, 3, 4) {
		t.Errorf("union with empty: %+v", r)
	}
	if !EmptyRect().IsEmpty() {
		t.Error("EmptyRect should be empty")
	}
}

func TestOutwardRound(t *testing.T) {
	r := Rect{MinX: 0.3, MinY: -0.7, MaxX: 9.1, MaxY: 10}
	got := r.OutwardRound()
	want := IntRect{MinX: 0, MinY: -1, MaxX: 10, MaxY: 10}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestIntRectOps(t *testing.T) {
	a := NewIntRect(0, 0, 10, 10)
	if a.Area() != 100 {
		t.Errorf("area: %d", a.Area())
	}
	if !a.Contains(9, 9) || a.Contains(10, 10) {
		t.Error("Contains should be inclusive-exclusive")
	}
	b := a.Expand(2)
	if b != NewIntRect(-2, -2, 12, 12) {
		t.Errorf("expand: %+v", b)
	}
	if !a.ContainsRect(NewIntRect(1, 1, 9, 9)) {
		t.Error("ContainsRect inner")
	}
	if a.ContainsRect(NewIntRect(1, 1, 11, 9)) {
		t.Error("ContainsRect overflowing")
	}
}

func TestInfiniteIntRect(t *testing.T) {
	inf := InfiniteIntRect()
	r := NewIntRect(-5, -5, 5, 5)
	if inf.Intersect(r) != r {
		t.Error("infinite rect should intersect as no-op")
	}
	if !inf.ContainsRect(r) {
		t.Error("infinite rect should contain everything")
	}
}

func TestIntRectTranslate(t *testing.T) {
	r := NewIntRect(1, 2, 3, 4).Translate(10, -2)
	if r != NewIntRect(11, 0, 13, 2) {
		t.Errorf("translate: %+v", r)
	}
}
