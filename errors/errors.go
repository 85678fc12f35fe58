package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates which operation raised the error
type Phase string

const (
	PhaseBorrow    Phase = "borrow"    // guard acquisition
	PhaseRelease   Phase = "release"   // handle or guard release
	PhaseClone     Phase = "clone"     // strong or weak clone
	PhaseUpgrade   Phase = "upgrade"   // weak to strong
	PhaseDowngrade Phase = "downgrade" // strong to weak
	PhaseAccess    Phase = "access"    // dereferencing a handle or guard
	PhaseHandle    Phase = "handle"    // resource table operations
	PhaseScript    Phase = "script"    // playground scripts
)

// Kind categorizes the error
type Kind string

const (
	KindBorrowConflict    Kind = "borrow_conflict"
	KindOverflow          Kind = "overflow"
	KindUseAfterRelease   Kind = "use_after_release"
	KindAllocation        Kind = "allocation"
	KindInvalidHandle     Kind = "invalid_handle"
	KindOutstandingBorrow Kind = "outstanding_borrow"
	KindClosed            Kind = "closed"
	KindInvalidInput      Kind = "invalid_input"
	KindNotFound          Kind = "not_found"
)

// Sentinels for errors.Is. Matching compares Phase and Kind only.
var (
	ErrBorrowConflict = &Error{Phase: PhaseBorrow, Kind: KindBorrowConflict}
	ErrClosed         = &Error{Phase: PhaseHandle, Kind: KindClosed}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	GoType string
	State  string
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.GoType != "" {
		b.WriteString(": Go type ")
		b.WriteString(e.GoType)
	}

	if e.Detail != "" {
		if e.GoType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.State != "" {
		b.WriteString(" (state ")
		b.WriteString(e.State)
		b.WriteByte(')')
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Fatal reports whether the error marks a broken invariant rather than a
// condition the caller can recover from.
func (e *Error) Fatal() bool {
	switch e.Kind {
	case KindOverflow, KindUseAfterRelease, KindAllocation:
		return true
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// State sets the rendered state at the time of failure
func (b *Builder) State(s string) *Builder {
	b.err.State = s
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// BorrowConflict creates the error reported when a guard cannot be acquired
// because the cell's current borrow state forbids it.
func BorrowConflict(goType string, mutable bool, state string) *Error {
	detail := "already mutably borrowed"
	if mutable {
		detail = "already borrowed"
	}
	return &Error{
		Phase:  PhaseBorrow,
		Kind:   KindBorrowConflict,
		GoType: goType,
		State:  state,
		Detail: detail,
	}
}

// IsBorrowConflict reports whether err is, or wraps, a borrow conflict.
func IsBorrowConflict(err error) bool {
	var e *Error
	return As(err, &e) && e.Kind == KindBorrowConflict
}

// Is forwards to the standard library errors.Is.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As forwards to the standard library errors.As.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Overflow creates a reference counter overflow error
func Overflow(phase Phase, goType, counter string, limit uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		GoType: goType,
		Detail: fmt.Sprintf("%s count would exceed %d", counter, limit),
		Value:  limit,
	}
}

// UseAfterRelease creates an error for access through a released handle or guard
func UseAfterRelease(phase Phase, goType, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUseAfterRelease,
		GoType: goType,
		Detail: fmt.Sprintf("%s used after release", what),
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, goType string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		GoType: goType,
		Detail: "allocation failed",
		Cause:  cause,
	}
}

// InvalidHandle creates an invalid resource handle error
func InvalidHandle(handle uint32) *Error {
	return &Error{
		Phase:  PhaseHandle,
		Kind:   KindInvalidHandle,
		Detail: fmt.Sprintf("invalid handle %d", handle),
		Value:  handle,
	}
}

// OutstandingBorrow creates an error for removal of a handle that is still lent out
func OutstandingBorrow(handle uint32, lends int) *Error {
	return &Error{
		Phase:  PhaseHandle,
		Kind:   KindOutstandingBorrow,
		Detail: fmt.Sprintf("handle %d has %d active borrows", handle, lends),
		Value:  handle,
	}
}

// Closed creates an error for operations on a closed table
func Closed(what string) *Error {
	return &Error{
		Phase:  PhaseHandle,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s closed", what),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// TypeName renders the Go type of T for diagnostics.
func TypeName[T any]() string {
	var p *T
	return fmt.Sprintf("%T", p)[1:]
}
