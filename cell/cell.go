// Package cell provides interior mutability by value.
//
// A Cell never hands out a pointer to its contents: Get copies the value
// out, Set and Replace copy a value in. With no reference escaping there is
// no aliasing to police, so no operation can fail.
//
// Get copies shallowly. Cells suit small values (numbers, flags, small
// structs, pointers); a slice or map stored in a Cell still shares its
// backing storage with every copy.
//
// A Cell is not safe for concurrent use.
package cell

import (
	"github.com/wippyai/rcell"
)

// Cell is a mutable memory location accessed only by value.
// The zero value holds the zero T.
type Cell[T any] struct {
	_ noCopy
	v T
}

// New returns a cell holding v.
func New[T any](v T) *Cell[T] {
	return &Cell[T]{v: v}
}

// Get returns a copy of the contained value.
func (c *Cell[T]) Get() T {
	return c.v
}

// Set replaces the contained value. The previous value is dropped if it
// implements rcell.Dropper.
func (c *Cell[T]) Set(v T) {
	old := c.v
	c.v = v
	rcell.Drop(old)
}

// Replace stores v and returns the previous value to the caller, who now
// owns it.
func (c *Cell[T]) Replace(v T) T {
	old := c.v
	c.v = v
	return old
}

// Take returns the contained value and leaves the zero T in its place.
func (c *Cell[T]) Take() T {
	var zero T
	return c.Replace(zero)
}

// Swap exchanges the contents of two cells.
func (c *Cell[T]) Swap(other *Cell[T]) {
	if c == other {
		return
	}
	c.v, other.v = other.v, c.v
}

// Update applies fn to the contained value, stores the result and returns it.
func (c *Cell[T]) Update(fn func(T) T) T {
	c.v = fn(c.v)
	return c.v
}

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
