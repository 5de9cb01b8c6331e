package scene

import (
	"errors"
	"testing"
)

func named(r *Registry) []string {
	var out []string
	for _, obj := range r.All() {
		out = append(out, obj.Name)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRegistryCreateAndGet(t *testing.T) {
	r := NewRegistry()
	a := r.Create(Object{Name: "a"})
	b := r.Create(Object{Name: "b"})

	if a == b {
		t.Fatal("handles must be distinct")
	}
	if a.IsZero() || b.IsZero() {
		t.Fatal("issued handle is zero")
	}
	obj, err := r.Get(b)
	if err != nil || obj.Name != "b" {
		t.Errorf("Get(b) = %v, %v", obj, err)
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d, want 2", r.Len())
	}
}

func TestRegistryStaleHandles(t *testing.T) {
	r := NewRegistry()
	a := r.Create(Object{Name: "a"})
	if _, err := r.Remove(a); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	// The freed slot is reused but the old handle stays dead.
	c := r.Create(Object{Name: "c"})
	if c == a {
		t.Fatal("reused slot returned the old handle")
	}

	tests := []struct {
		name string
		h    Handle
	}{
		{"removed", a},
		{"zero", Handle{}},
		{"never issued", Handle{index: 40, gen: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Get(tt.h); !errors.Is(err, ErrStaleHandle) {
				t.Errorf("Get() error = %v, want ErrStaleHandle", err)
			}
			if _, err := r.Remove(tt.h); !errors.Is(err, ErrStaleHandle) {
				t.Errorf("Remove() error = %v, want ErrStaleHandle", err)
			}
			if r.Contains(tt.h) {
				t.Error("Contains() = true")
			}
		})
	}

	if obj, err := r.Get(c); err != nil || obj.Name != "c" {
		t.Errorf("Get(c) = %v, %v", obj, err)
	}
}

func TestRegistryCreationOrder(t *testing.T) {
	r := NewRegistry()
	a := r.Create(Object{Name: "a"})
	r.Create(Object{Name: "b"})
	r.Create(Object{Name: "c"})
	if _, err := r.Remove(a); err != nil {
		t.Fatal(err)
	}
	// d lands in a's slot but iterates last.
	r.Create(Object{Name: "d"})

	if got, want := named(r), []string{"b", "c", "d"}; !equal(got, want) {
		t.Errorf("All() = %v, want %v", got, want)
	}
	// Restartable.
	if got, want := named(r), []string{"b", "c", "d"}; !equal(got, want) {
		t.Errorf("second All() = %v, want %v", got, want)
	}
}

func TestRegistryRemoveDuringIteration(t *testing.T) {
	r := NewRegistry()
	var hs []Handle
	for _, name := range []string{"a", "b", "c", "d"} {
		hs = append(hs, r.Create(Object{Name: name}))
	}

	var seen []string
	for h, obj := range r.All() {
		seen = append(seen, obj.Name)
		if h == hs[0] {
			if _, err := r.Remove(hs[2]); err != nil {
				t.Fatal(err)
			}
		}
	}
	if want := []string{"a", "b", "d"}; !equal(seen, want) {
		t.Errorf("iteration = %v, want %v", seen, want)
	}
}

func TestRegistryCompaction(t *testing.T) {
	r := NewRegistry()
	var hs []Handle
	for i := 0; i < 100; i++ {
		hs = append(hs, r.Create(Object{}))
	}
	for _, h := range hs[:90] {
		if _, err := r.Remove(h); err != nil {
			t.Fatal(err)
		}
	}
	if len(r.order) >= 100 {
		t.Errorf("order not compacted: %d entries", len(r.order))
	}
	got := r.Handles()
	if len(got) != 10 {
		t.Fatalf("Handles() = %d, want 10", len(got))
	}
	for i, h := range got {
		if h != hs[90+i] {
			t.Errorf("Handles()[%d] = %v, want %v", i, h, hs[90+i])
		}
	}
}

func TestRegistryEarlyBreak(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 5; i++ {
		r.Create(Object{})
	}
	n := 0
	for range r.All() {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("visited %d, want 2", n)
	}
}

func TestHandleString(t *testing.T) {
	if got := (Handle{}).String(); got != "none" {
		t.Errorf("zero handle = %q", got)
	}
	if got := (Handle{index: 3, gen: 2}).String(); got != "3.2" {
		t.Errorf("handle = %q, want 3.2", got)
	}
}
