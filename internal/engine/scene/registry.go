package scene

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

// ErrStaleHandle is returned for a handle whose object has been deleted or
// that was never issued.
var ErrStaleHandle = errors.New("stale object handle")

// Handle refers to one object in a Registry. A handle stays invalid forever
// once its object is removed, even if the slot is reused. The zero Handle is
// never valid.
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero reports whether h is the zero handle.
func (h Handle) IsZero() bool {
	return h.gen == 0
}

func (h Handle) String() string {
	if h.IsZero() {
		return "none"
	}
	return fmt.Sprintf("%d.%d", h.index, h.gen)
}

type slot struct {
	gen  uint32
	live bool
	obj  Object
}

// Registry is a generation-tagged slot table of objects. Iteration yields
// live objects in creation order regardless of slot reuse.
type Registry struct {
	slots []slot
	free  []uint32
	order []Handle // creation order, may hold dead handles
	dead  int      // dead entries in order
	live  int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Create stores obj and returns its handle.
func (r *Registry) Create(obj Object) Handle {
	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		idx = uint32(len(r.slots))
		r.slots = append(r.slots, slot{})
	}

	s := &r.slots[idx]
	s.gen++
	s.live = true
	s.obj = obj

	h := Handle{index: idx, gen: s.gen}
	r.order = append(r.order, h)
	r.live++
	return h
}

func (r *Registry) slotFor(h Handle) (*slot, error) {
	if h.IsZero() || int(h.index) >= len(r.slots) {
		return nil, fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	s := &r.slots[h.index]
	if !s.live || s.gen != h.gen {
		return nil, fmt.Errorf("%w: %s", ErrStaleHandle, h)
	}
	return s, nil
}

// Get returns the live object for h. The pointer is valid until the next
// Create or Remove.
func (r *Registry) Get(h Handle) (*Object, error) {
	s, err := r.slotFor(h)
	if err != nil {
		return nil, err
	}
	return &s.obj, nil
}

// Contains reports whether h refers to a live object.
func (r *Registry) Contains(h Handle) bool {
	_, err := r.slotFor(h)
	return err == nil
}

// Remove deletes the object for h and returns it.
func (r *Registry) Remove(h Handle) (Object, error) {
	s, err := r.slotFor(h)
	if err != nil {
		return Object{}, err
	}
	obj := s.obj
	s.live = false
	s.obj = Object{}
	r.free = append(r.free, h.index)
	r.live--
	r.dead++

	if r.dead > 32 && r.dead > len(r.order)/2 {
		// A fresh slice keeps any iteration over the old one intact.
		r.order = slices.DeleteFunc(slices.Clone(r.order), func(o Handle) bool {
			return !r.Contains(o)
		})
		r.dead = 0
	}
	return obj, nil
}

// Len returns the number of live objects.
func (r *Registry) Len() int {
	return r.live
}

// All yields every live object in creation order. Objects removed during
// iteration are not yielded; objects created during iteration are not
// yielded either.
func (r *Registry) All() iter.Seq2[Handle, *Object] {
	return func(yield func(Handle, *Object) bool) {
		order := r.order
		for _, h := range order {
			obj, err := r.Get(h)
			if err != nil {
				continue
			}
			if !yield(h, obj) {
				return
			}
		}
	}
}

// Handles returns the live handles in creation order.
func (r *Registry) Handles() []Handle {
	out := make([]Handle, 0, r.live)
	for h := range r.All() {
		out = append(out, h)
	}
	return out
}
