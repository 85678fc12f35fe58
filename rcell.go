package rcell

// Dropper is implemented by values that hold resources needing cleanup
// when their last owner goes away. rc and arc call Drop exactly once, when
// the strong count reaches zero.
type Dropper interface {
	Drop()
}

// Drop runs v's destructor if it has one.
func Drop(v any) {
	if d, ok := v.(Dropper); ok {
		d.Drop()
	}
}

// DropFunc adapts a plain function to Dropper.
type DropFunc func()

// Drop implements Dropper.
func (f DropFunc) Drop() {
	if f != nil {
		f()
	}
}
