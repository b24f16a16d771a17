package wire

import "testing"

func TestStringRoundTrip(t *testing.T) {
	w := NewRequestWriter()
	w.PutUint(0xdeadbeef)
	w.PutString("wl_output")
	w.PutUint(42)

	r := &EventReader{buf: w.Bytes()}
	u, err := r.Uint()
	if err != nil || u != 0xdeadbeef {
		t.Fatalf("Uint: %v %v", u, err)
	}
	s, err := r.String()
	if err != nil || s != "wl_output" {
		t.Fatalf("String: %q %v", s, err)
	}
	tail, err := r.Uint()
	if err != nil || tail != 42 {
		t.Fatalf("tail Uint: %v %v", tail, err)
	}
}

func TestFixedRoundTrip(t *testing.T) {
	w := NewRequestWriter()
	w.PutFixed(1.5)
	r := &EventReader{buf: w.Bytes()}
	v, err := r.Fixed()
	if err != nil {
		t.Fatalf("Fixed: %v", err)
	}
	if v != 1.5 {
		t.Fatalf("got %v, want 1.5", v)
	}
}

func TestArrayPadding(t *testing.T) {
	w := NewRequestWriter()
	w.PutArray([]byte{1, 2, 3})
	w.PutUint(99)
	if len(w.Bytes())%4 != 0 {
		t.Fatalf("expected 4-byte aligned buffer")
	}
	r := &EventReader{buf: w.Bytes()}
	arr, err := r.Array()
	if err != nil {
		t.Fatalf("Array: %v", err)
	}
	if len(arr) != 3 || arr[0] != 1 || arr[2] != 3 {
		t.Fatalf("got %v", arr)
	}
	tail, err := r.Uint()
	if err != nil || tail != 99 {
		t.Fatalf("tail: %v %v", tail, err)
	}
}
