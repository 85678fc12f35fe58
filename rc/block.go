package rc

import (
	"math"

	"go.uber.org/zap"

	"github.com/wippyai/rcell"
	"github.com/wippyai/rcell/errors"
)

// maxRefs bounds both counters. Reaching it panics instead of wrapping.
const maxRefs = math.MaxInt32

// block is the allocation shared by every strong and weak handle.
// It is owned by the counters, not by any single handle.
type block[T any] struct {
	value  T
	drop   func(T)
	strong int
	weak   int

	// pinned is set while the value is built or destroyed so that a weak
	// handle released in between does not reclaim the block early.
	pinned    bool
	destroyed bool
	reclaimed bool
}

func (b *block[T]) incStrong(phase errors.Phase) {
	if b.strong >= maxRefs {
		panic(errors.Overflow(phase, errors.TypeName[T](), "strong", maxRefs))
	}
	b.strong++
}

func (b *block[T]) incWeak(phase errors.Phase) {
	if b.weak >= maxRefs {
		panic(errors.Overflow(phase, errors.TypeName[T](), "weak", maxRefs))
	}
	b.weak++
}

// releaseStrong runs the first phase of teardown when the count hits zero.
func (b *block[T]) releaseStrong() {
	b.strong--
	if b.strong > 0 {
		return
	}

	b.pinned = true
	b.destroy()
	b.pinned = false

	if b.weak == 0 {
		b.reclaim()
	}
}

func (b *block[T]) releaseWeak() {
	b.weak--
	if b.weak == 0 && b.strong == 0 && !b.pinned {
		b.reclaim()
	}
}

func (b *block[T]) destroy() {
	if b.destroyed {
		return
	}
	v := b.value
	var zero T
	b.value = zero
	b.destroyed = true

	if b.drop != nil {
		b.drop(v)
	}
	rcell.Drop(v)

	if ce := Logger().Check(zap.DebugLevel, "value destroyed"); ce != nil {
		ce.Write(zap.String("type", errors.TypeName[T]()), zap.Int("weak", b.weak))
	}
}

// forget marks the value as gone without running its destructor. Used when
// ownership of the value moves out of the block.
func (b *block[T]) forget() T {
	v := b.value
	var zero T
	b.value = zero
	b.destroyed = true
	return v
}

func (b *block[T]) reclaim() {
	if b.reclaimed {
		return
	}
	b.reclaimed = true
	b.drop = nil

	if ce := Logger().Check(zap.DebugLevel, "block reclaimed"); ce != nil {
		ce.Write(zap.String("type", errors.TypeName[T]()))
	}
}

type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
