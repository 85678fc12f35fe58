// Package rc provides single-goroutine reference counting with weak
// back-references.
//
// An Rc owns one share of an allocation block holding a value and two
// counters. The value is destroyed exactly once, when the last strong
// handle is released; the block is reclaimed exactly once, when both
// counters have reached zero:
//
//	a := rc.New(buf)       // strong=1 weak=0
//	b := a.Clone()         // strong=2
//	w := b.Downgrade()     // weak=1
//	a.Release()
//	b.Release()            // strong=0: value destroyed, block kept for w
//	w.Release()            // weak=0: block reclaimed
//
// Handles are not safe for concurrent use. Counters are plain integers and
// every operation assumes a single goroutine; use package arc when handles
// cross goroutines.
//
// Releasing a handle twice is a no-op, which makes
//
//	defer h.Release()
//
// safe alongside an early explicit Release. Any other method on a released
// strong handle panics with an *errors.Error of kind KindUseAfterRelease.
// A released weak handle behaves like an empty one.
package rc
