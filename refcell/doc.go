// Package refcell provides interior mutability with borrows checked at run
// time.
//
// A RefCell tracks its outstanding borrows in a small state machine:
//
//	unshared --Borrow-->    shared(1) --Borrow--> shared(n+1)
//	unshared --BorrowMut--> exclusive
//	shared(1) --release--> unshared, shared(n) --release--> shared(n-1)
//	exclusive --release--> unshared
//
// A shared borrow while exclusive, or an exclusive borrow while anything is
// outstanding, is a borrow conflict. Borrow and BorrowMut panic with an
// *errors.Error of kind KindBorrowConflict, which indicates a logic error;
// TryBorrow and TryBorrowMut return the same error as a value for callers
// that can take another path.
//
// Guards must be released on every exit path:
//
//	g := c.BorrowMut()
//	defer g.Release()
//
// or use the scoped helpers, which release even if fn panics:
//
//	err := c.WithBorrowMut(func(v *Config) error {
//		v.Retries++
//		return nil
//	})
//
// A RefCell is not safe for concurrent use. It does not depend on the
// handle packages; place one inside a value owned by rc.Rc to combine
// shared ownership with controlled mutation. rc.Rc.GetMut only checks
// handle counts and knows nothing about borrows of a RefCell inside T.
package refcell
