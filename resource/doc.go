// Package resource maps integer handles to shared Go values.
//
// Code that cannot hold Go pointers, such as a WebAssembly guest or a
// script interpreter, names values by Handle instead. Each strong handle
// owns one arc.Arc share of its value, so handles follow the same
// ownership rules as the arc package: clones share the value, weak handles
// observe it, and the value is destroyed when its last strong handle is
// removed.
//
// # Handle Table
//
//	table := resource.NewTable(resource.WithLogger(log))
//
//	h, err := table.Insert(typeID, value)   // strong handle
//	h2, err := table.Clone(h)               // second strong handle
//	w, err := table.Downgrade(h)            // weak handle
//
//	table.Remove(h)
//	table.Remove(h2)                        // value destroyed here
//
//	_, ok, err := table.Upgrade(w)          // ok == false
//
// Handle 0 is never issued. Removed handles are reused.
//
// # Type Safety
//
// Handles carry a type ID chosen by the caller:
//
//	const FileTypeID = 1
//	const SocketTypeID = 2
//
//	value, ok := table.GetTyped(fileHandle, FileTypeID)   // ok
//	value, ok := table.GetTyped(fileHandle, SocketTypeID) // !ok
//
// Typed wraps a table for a single Go type.
//
// # Lending
//
// Borrow marks a strong handle as lent out; Remove fails with
// KindOutstandingBorrow until every lend is returned with EndBorrow.
//
// # Observers
//
//	cancel := table.Subscribe(obs)
//	defer cancel()
//
// Observers see EventCreated for every new handle, EventDropped when a
// handle is removed, and EventDestroyed once per value when the value
// itself is destroyed. Values implementing rcell.Dropper have Drop called
// at that point.
//
// # Memory Management
//
// Handles are not garbage collected. Call Remove for every handle, or
// Close to release everything at once.
package resource
