package arc

import (
	"math"
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/rcell"
	"github.com/wippyai/rcell/errors"
)

const (
	// maxRefs bounds both counters. Reaching it panics instead of wrapping.
	maxRefs = math.MaxInt32

	// weakLocked marks the weak counter while GetMut checks uniqueness.
	weakLocked = -1
)

type block[T any] struct {
	strong atomic.Int64
	// weak counts weak handles plus one implicit reference shared by all
	// strong handles.
	weak atomic.Int64

	value T
	drop  func(T)

	destroyed atomic.Bool
	reclaimed atomic.Bool
}

func newBlock[T any](v T, drop func(T)) *block[T] {
	b := &block[T]{value: v, drop: drop}
	b.strong.Store(1)
	b.weak.Store(1)
	return b
}

func (b *block[T]) incStrong(phase errors.Phase) {
	if n := b.strong.Add(1); n > maxRefs {
		b.strong.Add(-1)
		panic(errors.Overflow(phase, errors.TypeName[T](), "strong", maxRefs))
	}
}

// tryIncStrong increments the strong count only if it is non-zero.
func (b *block[T]) tryIncStrong() bool {
	for {
		n := b.strong.Load()
		if n == 0 {
			return false
		}
		if n >= maxRefs {
			panic(errors.Overflow(errors.PhaseUpgrade, errors.TypeName[T](), "strong", maxRefs))
		}
		if b.strong.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// incWeakFromStrong adds a weak reference on behalf of a strong handle,
// waiting out a concurrent uniqueness check.
func (b *block[T]) incWeakFromStrong() {
	for {
		n := b.weak.Load()
		if n == weakLocked {
			runtime.Gosched()
			continue
		}
		if n >= maxRefs {
			panic(errors.Overflow(errors.PhaseDowngrade, errors.TypeName[T](), "weak", maxRefs))
		}
		if b.weak.CompareAndSwap(n, n+1) {
			return
		}
	}
}

// incWeak is used by existing weak handles; the counter cannot be locked
// while one exists.
func (b *block[T]) incWeak() {
	if n := b.weak.Add(1); n > maxRefs {
		b.weak.Add(-1)
		panic(errors.Overflow(errors.PhaseClone, errors.TypeName[T](), "weak", maxRefs))
	}
}

func (b *block[T]) releaseStrong() {
	if b.strong.Add(-1) != 0 {
		return
	}
	b.destroy()
	b.releaseWeak()
}

func (b *block[T]) releaseWeak() {
	if b.weak.Add(-1) == 0 {
		b.reclaim()
	}
}

func (b *block[T]) destroy() {
	if !b.destroyed.CompareAndSwap(false, true) {
		return
	}
	v := b.value
	var zero T
	b.value = zero

	if b.drop != nil {
		b.drop(v)
	}
	rcell.Drop(v)

	if ce := Logger().Check(zap.DebugLevel, "value destroyed"); ce != nil {
		ce.Write(zap.String("type", errors.TypeName[T]()))
	}
}

// forget moves the value out without running its destructor. The caller
// must have taken the strong count to zero.
func (b *block[T]) forget() T {
	v := b.value
	var zero T
	b.value = zero
	b.destroyed.Store(true)
	return v
}

func (b *block[T]) reclaim() {
	if !b.reclaimed.CompareAndSwap(false, true) {
		return
	}
	b.drop = nil

	if ce := Logger().Check(zap.DebugLevel, "block reclaimed"); ce != nil {
		ce.Write(zap.String("type", errors.TypeName[T]()))
	}
}

// weakHandles reports the number of weak handles, excluding the implicit
// reference held by strong handles. The result is a snapshot.
func (b *block[T]) weakHandles() int {
	w := b.weak.Load()
	if w == weakLocked {
		return 0
	}
	if b.strong.Load() > 0 {
		w--
	}
	if w < 0 {
		return 0
	}
	return int(w)
}

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
