package resource

import (
	"math"

	"github.com/wippyai/rcell/arc"
	"github.com/wippyai/rcell/errors"
)

// entry is one table slot. Exactly one of strong and weak is set while the
// slot is valid.
type entry struct {
	strong *arc.Arc[any]
	weak   *arc.Weak[any]
	typeID uint32
	lends  int
	valid  bool
}

func (e entry) strength() Strength {
	if e.weak != nil {
		return Weak
	}
	return Strong
}

// release drops the slot's reference. It must run without the table lock
// held since it may run a destructor.
func (e entry) release() {
	if e.strong != nil {
		e.strong.Release()
	}
	if e.weak != nil {
		e.weak.Release()
	}
}

// slots is a dense handle allocator with a free list. It is not safe for
// concurrent use; Table guards it.
type slots struct {
	entries  []entry
	freeList []Handle
	live     int
}

func newSlots() *slots {
	return &slots{
		entries:  make([]entry, 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

func (s *slots) put(e entry) (Handle, error) {
	e.valid = true
	s.live++

	if len(s.freeList) > 0 {
		h := s.freeList[len(s.freeList)-1]
		s.freeList = s.freeList[:len(s.freeList)-1]
		s.entries[h-1] = e
		return h, nil
	}

	if len(s.entries) >= math.MaxUint32 {
		s.live--
		return 0, errors.AllocationFailed(errors.PhaseHandle, "resource.Handle", nil)
	}
	s.entries = append(s.entries, e)
	return Handle(len(s.entries)), nil
}

// lookup returns the live slot for h, or nil.
func (s *slots) lookup(h Handle) *entry {
	if h == 0 || int(h) > len(s.entries) {
		return nil
	}
	e := &s.entries[h-1]
	if !e.valid {
		return nil
	}
	return e
}

// free invalidates h and returns its former contents for release.
func (s *slots) free(h Handle) entry {
	e := s.entries[h-1]
	s.entries[h-1] = entry{}
	s.freeList = append(s.freeList, h)
	s.live--
	return e
}

func (s *slots) len() int {
	return s.live
}

func (s *slots) each(fn func(Handle, *entry) bool) {
	for i := range s.entries {
		if s.entries[i].valid {
			if !fn(Handle(i+1), &s.entries[i]) {
				return
			}
		}
	}
}

// drain invalidates every slot and returns the live ones in handle order.
func (s *slots) drain() ([]Handle, []entry) {
	var (
		handles []Handle
		out     []entry
	)
	for i, e := range s.entries {
		if e.valid {
			handles = append(handles, Handle(i+1))
			out = append(out, e)
		}
	}
	s.entries = s.entries[:0]
	s.freeList = s.freeList[:0]
	s.live = 0
	return handles, out
}
