package refcell

import "strconv"

// Mode is the coarse borrow state of a RefCell.
type Mode uint8

const (
	Unshared Mode = iota
	Shared
	Exclusive
)

// String returns a lower-case name of the mode.
func (m Mode) String() string {
	switch m {
	case Unshared:
		return "unshared"
	case Shared:
		return "shared"
	case Exclusive:
		return "exclusive"
	default:
		return "?"
	}
}

// BorrowState is a snapshot of a RefCell's outstanding borrows.
// Readers is non-zero only in Shared mode.
type BorrowState struct {
	Mode    Mode
	Readers int
}

// String renders the state as unshared, shared(N) or exclusive.
func (s BorrowState) String() string {
	if s.Mode == Shared {
		return "shared(" + strconv.Itoa(s.Readers) + ")"
	}
	return s.Mode.String()
}

// flag encoding: 0 unshared, n > 0 shared by n readers, exclusiveFlag for a writer.
const (
	unsharedFlag  = 0
	exclusiveFlag = -1
	maxReaders    = 1<<31 - 1
)

func stateOf(flag int) BorrowState {
	switch {
	case flag == unsharedFlag:
		return BorrowState{Mode: Unshared}
	case flag == exclusiveFlag:
		return BorrowState{Mode: Exclusive}
	default:
		return BorrowState{Mode: Shared, Readers: flag}
	}
}
