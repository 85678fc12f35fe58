package arc

// Weak references a block without keeping its value alive.
// The zero value is an empty handle.
type Weak[T any] struct {
	_ noCopy
	b *block[T]
}

// NewWeak returns an empty weak handle.
func NewWeak[T any]() *Weak[T] {
	return &Weak[T]{}
}

// Upgrade returns a new strong handle if the value is still alive.
// It never resurrects a value whose strong count already reached zero.
func (w *Weak[T]) Upgrade() (*Arc[T], bool) {
	if w == nil || w.b == nil || !w.b.tryIncStrong() {
		return nil, false
	}
	return &Arc[T]{b: w.b}, true
}

// Clone returns another weak handle to the same block.
func (w *Weak[T]) Clone() *Weak[T] {
	if w == nil || w.b == nil {
		return NewWeak[T]()
	}
	w.b.incWeak()
	return &Weak[T]{b: w.b}
}

// Release drops this weak reference. After Release the handle is empty.
func (w *Weak[T]) Release() {
	if w == nil || w.b == nil {
		return
	}
	b := w.b
	w.b = nil
	b.releaseWeak()
}

// StrongCount reports the strong count of the target, or 0 if empty.
func (w *Weak[T]) StrongCount() int {
	if w == nil || w.b == nil {
		return 0
	}
	return int(w.b.strong.Load())
}

// WeakCount reports the number of weak handles to the target, or 0 if empty.
func (w *Weak[T]) WeakCount() int {
	if w == nil || w.b == nil {
		return 0
	}
	return w.b.weakHandles()
}

// PtrEq reports whether both weak handles reference the same block.
// Two empty handles compare equal.
func (w *Weak[T]) PtrEq(other *Weak[T]) bool {
	return w.block() == other.block()
}

// Points reports whether w references the block owned by a.
func (w *Weak[T]) Points(a *Arc[T]) bool {
	return w.block() != nil && a != nil && w.block() == a.b
}

func (w *Weak[T]) block() *block[T] {
	if w == nil {
		return nil
	}
	return w.b
}
