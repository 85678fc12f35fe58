package resource

import (
	"fmt"

	"github.com/wippyai/rcell/errors"
)

// Typed provides type-safe access to the resources of one type ID in a
// Table.
type Typed[T any] struct {
	table  *Table
	typeID uint32
}

// NewTyped returns a view of t restricted to typeID, whose values are T.
func NewTyped[T any](t *Table, typeID uint32) *Typed[T] {
	return &Typed[T]{table: t, typeID: typeID}
}

// Insert adds a value and returns its handle.
func (tt *Typed[T]) Insert(v T) (Handle, error) {
	return tt.table.Insert(tt.typeID, v)
}

// Get retrieves a value by handle. It reports false for handles of other
// types.
func (tt *Typed[T]) Get(h Handle) (T, bool) {
	v, ok := tt.table.GetTyped(h, tt.typeID)
	if !ok {
		var zero T
		return zero, false
	}
	out, ok := v.(T)
	return out, ok
}

// Remove drops h if it is a handle of this type.
func (tt *Typed[T]) Remove(h Handle) (T, error) {
	var zero T
	v, err := tt.table.remove(h, func(e *entry) error {
		if e.typeID != tt.typeID {
			return errors.New(errors.PhaseHandle, errors.KindInvalidHandle).
				GoType(errors.TypeName[T]()).
				Value(uint32(h)).
				Detail("handle %d has type %d, want %d", h, e.typeID, tt.typeID).
				Build()
		}
		return nil
	})
	if err != nil {
		return zero, err
	}
	out, _ := v.(T)
	return out, nil
}

// Len returns the number of strong handles of this type.
func (tt *Typed[T]) Len() int {
	n := 0
	tt.Each(func(Handle, T) bool {
		n++
		return true
	})
	return n
}

// Each iterates over the strong handles of this type.
func (tt *Typed[T]) Each(fn func(Handle, T) bool) {
	tt.table.Each(func(h Handle, typeID uint32, value any) bool {
		if typeID != tt.typeID {
			return true
		}
		v, ok := value.(T)
		if !ok {
			return true
		}
		return fn(h, v)
	})
}

func (tt *Typed[T]) String() string {
	return fmt.Sprintf("resource.Typed[%s](%d)", errors.TypeName[T](), tt.typeID)
}
