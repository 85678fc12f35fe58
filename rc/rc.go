package rc

import (
	"github.com/wippyai/rcell/errors"
)

// Rc is a strong handle to a reference counted value.
// The zero value is a released handle.
type Rc[T any] struct {
	_ noCopy
	b *block[T]
}

// New allocates a block holding v with one strong reference.
func New[T any](v T) *Rc[T] {
	return NewFunc(v, nil)
}

// NewFunc is like New but also runs drop on the value when the last strong
// handle is released, before the value's own Drop method.
func NewFunc[T any](v T, drop func(T)) *Rc[T] {
	return &Rc[T]{b: &block[T]{value: v, drop: drop, strong: 1}}
}

// NewCyclic builds a value that can hold a weak reference to itself.
// fn receives a weak handle to the block under construction; it must Clone
// the handle to keep it. Upgrading it inside fn fails.
func NewCyclic[T any](fn func(self *Weak[T]) T) *Rc[T] {
	b := &block[T]{weak: 1, pinned: true}
	self := &Weak[T]{b: b}
	b.value = fn(self)
	b.pinned = false
	b.strong = 1
	self.Release()
	return &Rc[T]{b: b}
}

func (r *Rc[T]) live(phase errors.Phase) *block[T] {
	if r == nil || r.b == nil {
		panic(errors.UseAfterRelease(phase, errors.TypeName[T](), "rc handle"))
	}
	return r.b
}

// Value returns a view of the shared value. Other handles observe the same
// value, so callers must treat it as read-only; use GetMut, MakeMut or a
// refcell.RefCell inside T to mutate.
func (r *Rc[T]) Value() *T {
	return &r.live(errors.PhaseAccess).value
}

// Load returns a copy of the shared value.
func (r *Rc[T]) Load() T {
	return r.live(errors.PhaseAccess).value
}

// Clone returns a new strong handle to the same block.
func (r *Rc[T]) Clone() *Rc[T] {
	b := r.live(errors.PhaseClone)
	b.incStrong(errors.PhaseClone)
	return &Rc[T]{b: b}
}

// Release drops this handle's share. Releasing the last strong handle
// destroys the value; the block itself is reclaimed once no weak handles
// remain. Calling Release again on the same handle does nothing.
func (r *Rc[T]) Release() {
	if r == nil || r.b == nil {
		return
	}
	b := r.b
	r.b = nil
	b.releaseStrong()
}

// Downgrade creates a weak handle to the same block.
func (r *Rc[T]) Downgrade() *Weak[T] {
	b := r.live(errors.PhaseDowngrade)
	b.incWeak(errors.PhaseDowngrade)
	return &Weak[T]{b: b}
}

// Downgrade creates a weak handle from r.
func Downgrade[T any](r *Rc[T]) *Weak[T] {
	return r.Downgrade()
}

// StrongCount reports the number of strong handles sharing the block.
func (r *Rc[T]) StrongCount() int {
	return r.live(errors.PhaseAccess).strong
}

// WeakCount reports the number of weak handles referencing the block.
func (r *Rc[T]) WeakCount() int {
	return r.live(errors.PhaseAccess).weak
}

// GetMut returns a mutable view of the value iff r is the only handle of
// any kind. Exclusivity covers handle counts only; a refcell.RefCell inside
// the value keeps its own borrow contract.
func (r *Rc[T]) GetMut() (*T, bool) {
	b := r.live(errors.PhaseAccess)
	if b.strong != 1 || b.weak != 0 {
		return nil, false
	}
	return &b.value, true
}

// MakeMut returns a mutable view, cloning the value into a fresh block when
// other strong handles exist. When r is the only strong handle but weak
// handles exist, the value moves to a fresh block and those weak handles
// can no longer upgrade.
func (r *Rc[T]) MakeMut(clone func(T) T) *T {
	b := r.live(errors.PhaseAccess)
	switch {
	case b.strong > 1:
		nb := &block[T]{value: clone(b.value), drop: b.drop, strong: 1}
		b.releaseStrong()
		r.b = nb
	case b.weak > 0:
		nb := &block[T]{drop: b.drop, strong: 1}
		b.strong = 0
		nb.value = b.forget()
		r.b = nb
	}
	return &r.b.value
}

// TryUnwrap takes the value out when r is the only strong handle. The
// destructor does not run; ownership passes to the caller and r is
// released. Outstanding weak handles can no longer upgrade.
func (r *Rc[T]) TryUnwrap() (T, bool) {
	b := r.live(errors.PhaseRelease)
	if b.strong != 1 {
		var zero T
		return zero, false
	}
	r.b = nil
	b.strong = 0
	v := b.forget()
	if b.weak == 0 {
		b.reclaim()
	}
	return v, true
}

// PtrEq reports whether r and other share the same block.
func (r *Rc[T]) PtrEq(other *Rc[T]) bool {
	if r == nil || other == nil || r.b == nil {
		return false
	}
	return r.b == other.b
}

// Released reports whether Release has been called on r.
func (r *Rc[T]) Released() bool {
	return r == nil || r.b == nil
}
