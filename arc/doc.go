// Package arc provides atomically reference counted strong and weak handles
// that may be shared across goroutines.
//
// Arc and Weak have the same contract as their rc counterparts. Counter
// updates use sync/atomic, which is sequentially consistent in Go and so
// subsumes the acquire/release pairing the teardown needs: every write made
// through any handle happens before the destructor observes the value.
//
// All strong handles together hold one implicit weak reference. The
// goroutine that releases the last strong handle destroys the value, then
// drops that implicit reference; whichever decrement takes the weak counter
// to zero reclaims the block. Upgrade never increments a strong count of
// zero, so a weak handle racing the final Release either wins a live handle
// (and delays destruction until that handle is released) or fails cleanly.
//
// Individual handle values are not themselves synchronized: give each
// goroutine its own handle via Clone rather than sharing one *Arc.
package arc
