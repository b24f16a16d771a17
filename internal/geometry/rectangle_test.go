package geometry

import "testing"

func TestIntersection(t *testing.T) {
	a := Rectangle{X: 0, Y: 0, Width: 100, Height: 100}
	b := Rectangle{X: 50, Y: 50, Width: 100, Height: 100}
	got, ok := a.Intersection(b)
	if !ok {
		t.Fatalf("expected intersection")
	}
	want := Rectangle{X: 50, Y: 50, Width: 50, Height: 50}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestIntersectionDisjoint(t *testing.T) {
	a := Rectangle{X: 0, Y: 0, Width: 10, Height: 10}
	b := Rectangle{X: 100, Y: 100, Width: 10, Height: 10}
	if _, ok := a.Intersection(b); ok {
		t.Fatalf("expected no intersection")
	}
}

func TestContains(t *testing.T) {
	r := Rectangle{X: 0, Y: 0, Width: 10, Height: 10}
	if !r.Contains(0, 0) {
		t.Fatalf("expected (0,0) contained")
	}
	if r.Contains(10, 10) {
		t.Fatalf("expected (10,10) out of bounds (exclusive extent)")
	}
}

func TestScaleRounding(t *testing.T) {
	r := Rectangle{X: -3, Y: 5, Width: 7, Height: 7}
	got := r.Scale(1, 2)
	// origin truncates toward zero: -3/2 = -1 (not -2)
	if got.X != -1 {
		t.Fatalf("x = %d, want -1", got.X)
	}
	if got.Y != 2 {
		t.Fatalf("y = %d, want 2", got.Y)
	}
	// extent ceils: 7/2 = 4
	if got.Width != 4 || got.Height != 4 {
		t.Fatalf("got %+v, want width/height 4", got)
	}
}

func TestParseRoundTrip(t *testing.T) {
	s := "10,20 300x400"
	r, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Rectangle{X: 10, Y: 20, Width: 300, Height: 400}
	if r != want {
		t.Fatalf("got %+v, want %+v", r, want)
	}
	if r.String() != s {
		t.Fatalf("String() = %q, want %q", r.String(), s)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "10,20", "10 300x400", "a,20 300x400"} {
		if _, err := Parse(s); err == nil {
			t.Fatalf("Parse(%q): expected error", s)
		}
	}
}
