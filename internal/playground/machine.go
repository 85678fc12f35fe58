// Package playground interprets small scripts that exercise shared
// ownership and borrow checking. Every value is an int inside a
// refcell.RefCell; slots name the handles and guards referring to it.
package playground

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/rcell/errors"
	"github.com/wippyai/rcell/rc"
	"github.com/wippyai/rcell/refcell"
	"github.com/wippyai/rcell/resource"
)

// Handle kinds for OpNew.
const (
	KindRc  = "rc"
	KindArc = "arc"
)

// boxTypeID tags table entries created by the playground.
const boxTypeID = 1

// SlotKind identifies what a slot holds.
type SlotKind uint8

const (
	SlotRc SlotKind = iota
	SlotRcWeak
	SlotArc
	SlotArcWeak
	SlotRef
	SlotRefMut
)

func (k SlotKind) String() string {
	switch k {
	case SlotRc:
		return "rc"
	case SlotRcWeak:
		return "rc-weak"
	case SlotArc:
		return "arc"
	case SlotArcWeak:
		return "arc-weak"
	case SlotRef:
		return "ref"
	case SlotRefMut:
		return "ref-mut"
	default:
		return "?"
	}
}

type box struct {
	id   string
	cell *refcell.RefCell[int]
}

type slot struct {
	kind   SlotKind
	strong *rc.Rc[*box]
	weak   *rc.Weak[*box]
	handle resource.Handle
	ref    *refcell.Ref[int]
	mut    *refcell.RefMut[int]
	owner  *box
}

// SlotInfo describes a slot for display.
type SlotInfo struct {
	Name   string
	Kind   SlotKind
	Value  string
	State  string
	Strong int
	Weak   int
}

// Machine executes steps against named slots. It is not safe for
// concurrent use.
type Machine struct {
	slots  map[string]*slot
	table  *resource.Table
	logger *zap.Logger
	trace  []string
}

// Option configures a Machine.
type Option func(*Machine)

// WithLogger sets the machine's logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates an empty machine. arc values live in a resource table owned
// by the machine.
func New(opts ...Option) *Machine {
	m := &Machine{
		slots:  make(map[string]*slot),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.table = resource.NewTable(
		resource.WithLogger(m.logger),
		resource.WithObserver(resource.ObserverFunc(func(e resource.Event) {
			if e.Type == resource.EventDestroyed {
				if b, ok := e.Value.(*box); ok {
					m.tracef("destroyed %s", b.id)
				}
			}
		})),
	)
	return m
}

// Trace returns the lines recorded so far.
func (m *Machine) Trace() []string {
	return append([]string(nil), m.trace...)
}

func (m *Machine) tracef(format string, args ...any) {
	m.trace = append(m.trace, fmt.Sprintf(format, args...))
}

// Run executes every step of s, stopping at the first error or when ctx
// is done.
func (m *Machine) Run(ctx context.Context, s *Script) error {
	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.Exec(st); err != nil {
			return errors.Wrap(errors.PhaseScript, kindOf(err), err, fmt.Sprintf("%s: step %d (%s %s)", s.Name, i+1, st.Op, st.Name))
		}
	}
	return nil
}

func kindOf(err error) errors.Kind {
	var e *errors.Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return errors.KindInvalidInput
}

// Exec executes a single step.
func (m *Machine) Exec(st Step) error {
	if err := st.validate(); err != nil {
		return err
	}
	if ce := m.logger.Check(zap.DebugLevel, "exec"); ce != nil {
		ce.Write(zap.String("op", st.Op), zap.String("name", st.Name), zap.String("from", st.From))
	}

	switch st.Op {
	case OpNew:
		return m.opNew(st)
	case OpClone:
		return m.opClone(st)
	case OpDowngrade:
		return m.opDowngrade(st)
	case OpUpgrade:
		return m.opUpgrade(st)
	case OpRelease:
		return m.opRelease(st)
	case OpBorrow, OpBorrowMut:
		return m.opBorrow(st)
	case OpSet:
		return m.opSet(st)
	case OpGetMut:
		return m.opGetMut(st)
	case OpExpect:
		return m.opExpect(st)
	}
	return nil
}

func (m *Machine) lookup(name string) (*slot, error) {
	s, ok := m.slots[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseScript, "slot", name)
	}
	return s, nil
}

func (m *Machine) vacant(name string) error {
	if _, ok := m.slots[name]; ok {
		return errors.InvalidInput(errors.PhaseScript, fmt.Sprintf("slot %q already defined", name))
	}
	return nil
}

func wrongKind(name string, got SlotKind, want string) error {
	return errors.InvalidInput(errors.PhaseScript, fmt.Sprintf("slot %q is %s, want %s", name, got, want))
}

func (m *Machine) opNew(st Step) error {
	if err := m.vacant(st.Name); err != nil {
		return err
	}
	v := 0
	if st.Value != nil {
		v = *st.Value
	}
	b := &box{id: st.Name, cell: refcell.New(v)}

	if st.Kind == KindArc {
		h, err := m.table.Insert(boxTypeID, b)
		if err != nil {
			return err
		}
		m.slots[st.Name] = &slot{kind: SlotArc, handle: h}
	} else {
		r := rc.NewFunc(b, func(b *box) { m.tracef("destroyed %s", b.id) })
		m.slots[st.Name] = &slot{kind: SlotRc, strong: r}
	}
	m.tracef("new %s = %d", st.Name, v)
	return nil
}

func (m *Machine) opClone(st Step) error {
	src, err := m.lookup(st.From)
	if err != nil {
		return err
	}
	if err := m.vacant(st.Name); err != nil {
		return err
	}

	var ns *slot
	switch src.kind {
	case SlotRc:
		ns = &slot{kind: SlotRc, strong: src.strong.Clone()}
	case SlotRcWeak:
		ns = &slot{kind: SlotRcWeak, weak: src.weak.Clone()}
	case SlotArc, SlotArcWeak:
		h, err := m.table.Clone(src.handle)
		if err != nil {
			return err
		}
		ns = &slot{kind: src.kind, handle: h}
	default:
		return wrongKind(st.From, src.kind, "a handle")
	}
	m.slots[st.Name] = ns
	m.tracef("clone %s <- %s", st.Name, st.From)
	return nil
}

func (m *Machine) opDowngrade(st Step) error {
	src, err := m.lookup(st.From)
	if err != nil {
		return err
	}
	if err := m.vacant(st.Name); err != nil {
		return err
	}

	switch src.kind {
	case SlotRc:
		m.slots[st.Name] = &slot{kind: SlotRcWeak, weak: src.strong.Downgrade()}
	case SlotArc:
		h, err := m.table.Downgrade(src.handle)
		if err != nil {
			return err
		}
		m.slots[st.Name] = &slot{kind: SlotArcWeak, handle: h}
	default:
		return wrongKind(st.From, src.kind, "a strong handle")
	}
	m.tracef("downgrade %s <- %s", st.Name, st.From)
	return nil
}

func (m *Machine) opUpgrade(st Step) error {
	src, err := m.lookup(st.From)
	if err != nil {
		return err
	}
	if err := m.vacant(st.Name); err != nil {
		return err
	}

	var (
		ns *slot
		ok bool
	)
	switch src.kind {
	case SlotRcWeak:
		var r *rc.Rc[*box]
		if r, ok = src.weak.Upgrade(); ok {
			ns = &slot{kind: SlotRc, strong: r}
		}
	case SlotArcWeak:
		var h resource.Handle
		h, ok, err = m.table.Upgrade(src.handle)
		if err != nil {
			return err
		}
		if ok {
			ns = &slot{kind: SlotArc, handle: h}
		}
	default:
		return wrongKind(st.From, src.kind, "a weak handle")
	}

	want := true
	if st.Alive != nil {
		want = *st.Alive
	}
	if ok {
		m.slots[st.Name] = ns
	}
	if ok != want {
		return expectation(st.Name, "upgrade succeeded", ok, want)
	}
	if ok {
		m.tracef("upgrade %s <- %s", st.Name, st.From)
	} else {
		m.tracef("upgrade %s <- %s: value gone", st.Name, st.From)
	}
	return nil
}

func (m *Machine) opRelease(st Step) error {
	s, err := m.lookup(st.Name)
	if err != nil {
		return err
	}
	delete(m.slots, st.Name)
	m.tracef("release %s", st.Name)
	return m.release(s)
}

func (m *Machine) release(s *slot) error {
	switch s.kind {
	case SlotRc:
		s.strong.Release()
	case SlotRcWeak:
		s.weak.Release()
	case SlotArc, SlotArcWeak:
		if _, err := m.table.Remove(s.handle); err != nil {
			return err
		}
	case SlotRef:
		s.ref.Release()
	case SlotRefMut:
		s.mut.Release()
	}
	return nil
}

// boxOf resolves a strong slot to its value. For arc slots the table's
// reference keeps the value alive while the slot exists.
func (m *Machine) boxOf(name string) (*box, error) {
	s, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	switch s.kind {
	case SlotRc:
		return *s.strong.Value(), nil
	case SlotArc:
		v, ok := m.table.GetTyped(s.handle, boxTypeID)
		if !ok {
			return nil, errors.InvalidHandle(uint32(s.handle))
		}
		return v.(*box), nil
	default:
		return nil, wrongKind(name, s.kind, "a strong handle")
	}
}

func (m *Machine) opBorrow(st Step) error {
	b, err := m.boxOf(st.From)
	if err != nil {
		return err
	}
	if err := m.vacant(st.Name); err != nil {
		return err
	}

	var ns *slot
	if st.Op == OpBorrowMut {
		g, err := b.cell.TryBorrowMut()
		if err != nil {
			if st.Conflict {
				m.tracef("borrow_mut %s <- %s: conflict", st.Name, st.From)
				return nil
			}
			return err
		}
		ns = &slot{kind: SlotRefMut, mut: g, owner: b}
	} else {
		g, err := b.cell.TryBorrow()
		if err != nil {
			if st.Conflict {
				m.tracef("borrow %s <- %s: conflict", st.Name, st.From)
				return nil
			}
			return err
		}
		ns = &slot{kind: SlotRef, ref: g, owner: b}
	}

	m.slots[st.Name] = ns
	if st.Conflict {
		return expectation(st.Name, "borrow conflict", false, true)
	}
	m.tracef("%s %s <- %s: %s", st.Op, st.Name, st.From, b.cell.State())
	return nil
}

func (m *Machine) opSet(st Step) error {
	s, err := m.lookup(st.Name)
	if err != nil {
		return err
	}
	if s.kind != SlotRefMut {
		return wrongKind(st.Name, s.kind, "ref-mut")
	}
	s.mut.Set(*st.Value)
	m.tracef("set %s = %d", st.Name, *st.Value)
	return nil
}

func (m *Machine) opGetMut(st Step) error {
	s, err := m.lookup(st.Name)
	if err != nil {
		return err
	}
	if s.kind != SlotRc {
		return wrongKind(st.Name, s.kind, "rc")
	}

	want := true
	if st.Unique != nil {
		want = *st.Unique
	}
	p, ok := s.strong.GetMut()
	if ok {
		g, err := (*p).cell.TryBorrowMut()
		if err != nil {
			return err
		}
		g.Set(*st.Value)
		g.Release()
		m.tracef("get_mut %s = %d", st.Name, *st.Value)
	} else {
		m.tracef("get_mut %s: shared", st.Name)
	}
	if ok != want {
		return expectation(st.Name, "unique", ok, want)
	}
	return nil
}

func (m *Machine) opExpect(st Step) error {
	info, err := m.info(st.Name)
	if err != nil {
		return err
	}
	if st.Strong != nil && info.Strong != *st.Strong {
		return expectation(st.Name, "strong count", info.Strong, *st.Strong)
	}
	if st.Weak != nil && info.Weak != *st.Weak {
		return expectation(st.Name, "weak count", info.Weak, *st.Weak)
	}
	if st.Alive != nil && (info.Strong > 0) != *st.Alive {
		return expectation(st.Name, "alive", info.Strong > 0, *st.Alive)
	}
	if st.Value != nil && info.Value != strconv.Itoa(*st.Value) {
		return expectation(st.Name, "value", info.Value, *st.Value)
	}
	if st.State != "" && info.State != st.State {
		return expectation(st.Name, "borrow state", info.State, st.State)
	}
	m.tracef("expect %s ok", st.Name)
	return nil
}

func expectation(name, what string, got, want any) error {
	return errors.New(errors.PhaseScript, errors.KindInvalidInput).
		State(fmt.Sprint(got)).
		Detail("%s: %s is %v, want %v", name, what, got, want).
		Build()
}

func readCell(b *box) string {
	if g, err := b.cell.TryBorrow(); err == nil {
		defer g.Release()
		return strconv.Itoa(g.Get())
	}
	return "(borrowed)"
}

func (m *Machine) info(name string) (SlotInfo, error) {
	s, err := m.lookup(name)
	if err != nil {
		return SlotInfo{}, err
	}
	info := SlotInfo{Name: name, Kind: s.kind}

	switch s.kind {
	case SlotRc:
		info.Strong, info.Weak = s.strong.StrongCount(), s.strong.WeakCount()
		b := *s.strong.Value()
		info.Value, info.State = readCell(b), b.cell.State().String()
	case SlotRcWeak:
		info.Strong, info.Weak = s.weak.StrongCount(), s.weak.WeakCount()
		if r, ok := s.weak.Upgrade(); ok {
			b := *r.Value()
			info.Value, info.State = readCell(b), b.cell.State().String()
			r.Release()
		}
	case SlotArc, SlotArcWeak:
		strong, weak, err := m.table.Counts(s.handle)
		if err != nil {
			return SlotInfo{}, err
		}
		info.Strong, info.Weak = strong, weak
		if s.kind == SlotArc {
			b, err := m.boxOf(name)
			if err != nil {
				return SlotInfo{}, err
			}
			info.Value, info.State = readCell(b), b.cell.State().String()
		}
	case SlotRef:
		info.Value, info.State = strconv.Itoa(s.ref.Get()), s.owner.cell.State().String()
	case SlotRefMut:
		info.Value, info.State = strconv.Itoa(s.mut.Get()), s.owner.cell.State().String()
	}
	return info, nil
}

// Slots describes every slot, sorted by name.
func (m *Machine) Slots() []SlotInfo {
	names := make([]string, 0, len(m.slots))
	for n := range m.slots {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]SlotInfo, 0, len(names))
	for _, n := range names {
		if info, err := m.info(n); err == nil {
			out = append(out, info)
		}
	}
	return out
}

// Close releases every slot, guards first.
func (m *Machine) Close() error {
	names := make([]string, 0, len(m.slots))
	for n := range m.slots {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		gi := m.slots[names[i]].kind >= SlotRef
		gj := m.slots[names[j]].kind >= SlotRef
		if gi != gj {
			return gi
		}
		return names[i] < names[j]
	})

	var first error
	for _, n := range names {
		s := m.slots[n]
		delete(m.slots, n)
		if err := m.release(s); err != nil && first == nil {
			first = err
		}
	}
	if err := m.table.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
