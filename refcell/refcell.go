package refcell

import (
	"github.com/wippyai/rcell/errors"
)

// RefCell wraps a value and checks borrows when they happen.
// The zero value holds the zero T and is unshared.
type RefCell[T any] struct {
	_     noCopy
	flag  int
	value T
}

// New returns an unshared cell holding v.
func New[T any](v T) *RefCell[T] {
	return &RefCell[T]{value: v}
}

// State reports the current borrow state.
func (c *RefCell[T]) State() BorrowState {
	return stateOf(c.flag)
}

func (c *RefCell[T]) conflict(mutable bool) *errors.Error {
	return errors.BorrowConflict(errors.TypeName[T](), mutable, c.State().String())
}

// TryBorrow acquires a shared borrow, or returns a borrow conflict if the
// cell is mutably borrowed.
func (c *RefCell[T]) TryBorrow() (*Ref[T], error) {
	if c.flag == exclusiveFlag {
		return nil, c.conflict(false)
	}
	if c.flag >= maxReaders {
		panic(errors.Overflow(errors.PhaseBorrow, errors.TypeName[T](), "reader", maxReaders))
	}
	c.flag++
	return &Ref[T]{flag: &c.flag, v: &c.value}, nil
}

// Borrow acquires a shared borrow. It panics with a borrow conflict
// *errors.Error if the cell is mutably borrowed.
func (c *RefCell[T]) Borrow() *Ref[T] {
	r, err := c.TryBorrow()
	if err != nil {
		panic(err)
	}
	return r
}

// TryBorrowMut acquires the exclusive borrow, or returns a borrow conflict
// if any borrow is outstanding.
func (c *RefCell[T]) TryBorrowMut() (*RefMut[T], error) {
	if c.flag != unsharedFlag {
		return nil, c.conflict(true)
	}
	c.flag = exclusiveFlag
	return &RefMut[T]{flag: &c.flag, v: &c.value}, nil
}

// BorrowMut acquires the exclusive borrow. It panics with a borrow conflict
// *errors.Error if any borrow is outstanding.
func (c *RefCell[T]) BorrowMut() *RefMut[T] {
	m, err := c.TryBorrowMut()
	if err != nil {
		panic(err)
	}
	return m
}

// WithBorrow runs fn with a copy of the value under a shared borrow. The
// borrow is released when fn returns or panics.
func (c *RefCell[T]) WithBorrow(fn func(v T) error) error {
	r, err := c.TryBorrow()
	if err != nil {
		return err
	}
	defer r.Release()
	return fn(*r.v)
}

// WithBorrowMut runs fn with a mutable view of the value under the
// exclusive borrow. The borrow is released when fn returns or panics; fn
// must not retain the pointer.
func (c *RefCell[T]) WithBorrowMut(fn func(v *T) error) error {
	m, err := c.TryBorrowMut()
	if err != nil {
		return err
	}
	defer m.Release()
	return fn(m.v)
}

// Replace stores v and returns the previous value. It panics with a borrow
// conflict if any borrow is outstanding.
func (c *RefCell[T]) Replace(v T) T {
	if c.flag != unsharedFlag {
		panic(c.conflict(true))
	}
	old := c.value
	c.value = v
	return old
}

// ReplaceWith computes a replacement from a mutable view of the current
// value and returns the previous value.
func (c *RefCell[T]) ReplaceWith(fn func(*T) T) T {
	m := c.BorrowMut()
	defer m.Release()
	next := fn(m.v)
	old := *m.v
	*m.v = next
	return old
}

// Take returns the value and leaves the zero T in its place.
func (c *RefCell[T]) Take() T {
	var zero T
	return c.Replace(zero)
}

// Swap exchanges the values of two cells. Both must be unshared.
func (c *RefCell[T]) Swap(other *RefCell[T]) {
	if c == other {
		return
	}
	if c.flag != unsharedFlag {
		panic(c.conflict(true))
	}
	if other.flag != unsharedFlag {
		panic(other.conflict(true))
	}
	c.value, other.value = other.value, c.value
}

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
