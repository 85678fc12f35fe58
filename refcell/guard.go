package refcell

import (
	"github.com/wippyai/rcell/errors"
)

// Ref is a shared borrow of a RefCell's value. Release it exactly once,
// usually with defer; further releases are ignored.
type Ref[T any] struct {
	flag *int
	v    *T
}

func (r *Ref[T]) live() *T {
	if r == nil || r.flag == nil {
		panic(errors.UseAfterRelease(errors.PhaseAccess, errors.TypeName[T](), "shared borrow"))
	}
	return r.v
}

// Get returns a copy of the borrowed value.
func (r *Ref[T]) Get() T {
	return *r.live()
}

// Clone acquires another shared borrow of the same cell.
func (r *Ref[T]) Clone() *Ref[T] {
	v := r.live()
	if *r.flag >= maxReaders {
		panic(errors.Overflow(errors.PhaseBorrow, errors.TypeName[T](), "reader", maxReaders))
	}
	*r.flag++
	return &Ref[T]{flag: r.flag, v: v}
}

// Release ends the shared borrow.
func (r *Ref[T]) Release() {
	if r == nil || r.flag == nil {
		return
	}
	*r.flag--
	r.flag = nil
	r.v = nil
}

// Map projects a shared borrow onto part of the value. The borrow moves to
// the returned guard; r is released without ending it.
func Map[T, U any](r *Ref[T], fn func(*T) *U) *Ref[U] {
	v := r.live()
	out := &Ref[U]{flag: r.flag, v: fn(v)}
	r.flag = nil
	r.v = nil
	return out
}

// RefMut is the exclusive borrow of a RefCell's value. Release it exactly
// once, usually with defer; further releases are ignored.
type RefMut[T any] struct {
	flag *int
	v    *T
}

func (m *RefMut[T]) live() *T {
	if m == nil || m.flag == nil {
		panic(errors.UseAfterRelease(errors.PhaseAccess, errors.TypeName[T](), "exclusive borrow"))
	}
	return m.v
}

// Get returns a copy of the borrowed value.
func (m *RefMut[T]) Get() T {
	return *m.live()
}

// Set overwrites the borrowed value.
func (m *RefMut[T]) Set(v T) {
	*m.live() = v
}

// Ptr returns a mutable view of the value, valid until Release.
func (m *RefMut[T]) Ptr() *T {
	return m.live()
}

// Release ends the exclusive borrow.
func (m *RefMut[T]) Release() {
	if m == nil || m.flag == nil {
		return
	}
	*m.flag = unsharedFlag
	m.flag = nil
	m.v = nil
}

// MapMut projects an exclusive borrow onto part of the value. The borrow
// moves to the returned guard; m is released without ending it.
func MapMut[T, U any](m *RefMut[T], fn func(*T) *U) *RefMut[U] {
	v := m.live()
	out := &RefMut[U]{flag: m.flag, v: fn(v)}
	m.flag = nil
	m.v = nil
	return out
}
