package arc

import (
	"github.com/wippyai/rcell/errors"
)

// Arc is a thread-safe strong handle to a reference counted value.
// The zero value is a released handle.
type Arc[T any] struct {
	_ noCopy
	b *block[T]
}

// New allocates a block holding v with one strong reference.
func New[T any](v T) *Arc[T] {
	return &Arc[T]{b: newBlock(v, nil)}
}

// NewFunc is like New but also runs drop on the value when the last strong
// handle is released, before the value's own Drop method.
func NewFunc[T any](v T, drop func(T)) *Arc[T] {
	return &Arc[T]{b: newBlock(v, drop)}
}

// NewCyclic builds a value that can hold a weak reference to itself.
// fn receives a weak handle to the block under construction; it must Clone
// the handle to keep it. Upgrading it inside fn fails.
func NewCyclic[T any](fn func(self *Weak[T]) T) *Arc[T] {
	b := &block[T]{}
	// self plus the implicit reference held by strong handles.
	b.weak.Store(2)
	self := &Weak[T]{b: b}

	b.value = fn(self)
	b.strong.Store(1)
	self.Release()
	return &Arc[T]{b: b}
}

func (a *Arc[T]) live(phase errors.Phase) *block[T] {
	if a == nil || a.b == nil {
		panic(errors.UseAfterRelease(phase, errors.TypeName[T](), "arc handle"))
	}
	return a.b
}

// Value returns a view of the shared value. Any number of goroutines may
// read through it concurrently; mutation needs GetMut, MakeMut, or a lock
// inside T.
func (a *Arc[T]) Value() *T {
	return &a.live(errors.PhaseAccess).value
}

// Load returns a copy of the shared value.
func (a *Arc[T]) Load() T {
	return a.live(errors.PhaseAccess).value
}

// Clone returns a new strong handle to the same block.
func (a *Arc[T]) Clone() *Arc[T] {
	b := a.live(errors.PhaseClone)
	b.incStrong(errors.PhaseClone)
	return &Arc[T]{b: b}
}

// Release drops this handle's share. The goroutine releasing the last
// strong handle runs the destructor. Calling Release again on the same
// handle does nothing.
func (a *Arc[T]) Release() {
	if a == nil || a.b == nil {
		return
	}
	b := a.b
	a.b = nil
	b.releaseStrong()
}

// Downgrade creates a weak handle to the same block.
func (a *Arc[T]) Downgrade() *Weak[T] {
	b := a.live(errors.PhaseDowngrade)
	b.incWeakFromStrong()
	return &Weak[T]{b: b}
}

// Downgrade creates a weak handle from a.
func Downgrade[T any](a *Arc[T]) *Weak[T] {
	return a.Downgrade()
}

// StrongCount reports the number of strong handles. Other goroutines may
// change it immediately after it is read.
func (a *Arc[T]) StrongCount() int {
	return int(a.live(errors.PhaseAccess).strong.Load())
}

// WeakCount reports the number of weak handles. Other goroutines may
// change it immediately after it is read.
func (a *Arc[T]) WeakCount() int {
	return a.live(errors.PhaseAccess).weakHandles()
}

// GetMut returns a mutable view of the value iff a is the only handle of
// any kind. The weak counter is locked during the check so no weak handle
// can be created or upgraded in between.
func (a *Arc[T]) GetMut() (*T, bool) {
	b := a.live(errors.PhaseAccess)
	if !b.weak.CompareAndSwap(1, weakLocked) {
		return nil, false
	}
	unique := b.strong.Load() == 1
	b.weak.Store(1)
	if !unique {
		return nil, false
	}
	return &b.value, true
}

// MakeMut returns a mutable view, cloning the value into a fresh block when
// other strong handles exist. When a is the only strong handle but weak
// handles exist, the value moves to a fresh block and those weak handles
// can no longer upgrade.
func (a *Arc[T]) MakeMut(clone func(T) T) *T {
	b := a.live(errors.PhaseAccess)
	if b.strong.CompareAndSwap(1, 0) {
		if b.weak.Load() == 1 {
			b.strong.Store(1)
			return &b.value
		}
		nb := newBlock(b.forget(), b.drop)
		b.releaseWeak()
		a.b = nb
		return &nb.value
	}

	nb := newBlock(clone(b.value), b.drop)
	b.releaseStrong()
	a.b = nb
	return &nb.value
}

// TryUnwrap takes the value out when a is the only strong handle. The
// destructor does not run; ownership passes to the caller and a is
// released. Outstanding weak handles can no longer upgrade.
func (a *Arc[T]) TryUnwrap() (T, bool) {
	b := a.live(errors.PhaseRelease)
	if !b.strong.CompareAndSwap(1, 0) {
		var zero T
		return zero, false
	}
	a.b = nil
	v := b.forget()
	b.releaseWeak()
	return v, true
}

// PtrEq reports whether a and other share the same block.
func (a *Arc[T]) PtrEq(other *Arc[T]) bool {
	if a == nil || other == nil || a.b == nil {
		return false
	}
	return a.b == other.b
}

// Released reports whether Release has been called on a.
func (a *Arc[T]) Released() bool {
	return a == nil || a.b == nil
}
