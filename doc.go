// Package rcell provides shared ownership and runtime-checked mutability
// primitives with deterministic destruction.
//
// # Architecture Overview
//
// The module is organized into small packages with distinct responsibilities:
//
//	rcell/               Root package with the Dropper destructor protocol
//	├── rc/              Single-goroutine strong/weak reference counting
//	├── arc/             Atomic strong/weak reference counting
//	├── cell/            Copy-in/copy-out interior mutability
//	├── refcell/         Dynamically checked borrows with scoped guards
//	├── resource/        Handle table of arc-owned values with lend tracking
//	├── wasmhost/        Exposes a resource table to WebAssembly guests
//	└── errors/          Structured error types
//
// # Quick Start
//
// Share a value and observe its lifetime:
//
//	a := rc.New(conn)             // strong=1
//	b := a.Clone()                // strong=2
//	w := a.Downgrade()            // weak=1, does not keep conn alive
//	a.Release()
//	b.Release()                   // strong=0: conn.Drop() runs here
//	_, ok := w.Upgrade()          // ok == false
//	w.Release()
//
// Mutate through a shared path with runtime borrow checks:
//
//	c := refcell.New(5)
//	g := c.BorrowMut()
//	*g.Ptr() = 6
//	_, err := c.TryBorrow()       // borrow conflict while g is held
//	g.Release()
//
// # Destruction
//
// Go has no scope-exit destructors. Every strong handle, weak handle and
// borrow guard must be released explicitly, usually with defer. A value's
// destructor is its Drop method (see Dropper) plus any function passed to
// NewFunc, and runs exactly once when the last strong handle is released.
//
// # Thread Safety
//
// arc handles are safe for concurrent use. rc, cell and refcell are NOT:
// they must stay on one goroutine, or access must be synchronized by the
// caller. For shared mutable state across goroutines put a sync.Mutex inside
// the value owned by an arc.Arc.
//
// # Cycles
//
// A cycle of strong handles never reaches zero and leaks. Make at least one
// direction of every cycle a weak handle and treat a failed Upgrade as an
// absent neighbor.
package rcell
