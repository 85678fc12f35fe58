// Package errors provides structured error types for the rcell module.
//
// Errors are categorized by Phase (which operation failed) and Kind (error category).
// The Error type carries the Go type of the wrapped value, the borrow or
// counter state at the time of failure, and an optional cause chain.
//
// Use the Builder for structured construction:
//
//	err := errors.New(errors.PhaseBorrow, errors.KindBorrowConflict).
//		GoType("int").
//		State("exclusive").
//		Detail("already mutably borrowed").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.BorrowConflict("int", false, "exclusive")
//	err := errors.Overflow(errors.PhaseClone, "int", "strong", max)
//
// Recoverable errors (borrow conflicts, handle table failures) are returned.
// Broken invariants (counter overflow, use after release) are raised with
// panic(*Error) and report Fatal() == true.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
