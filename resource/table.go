package resource

import (
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/rcell/arc"
	"github.com/wippyai/rcell/errors"
)

// Table maps integer handles to shared values. Every strong handle holds
// its own arc.Arc share of the value, so a value inserted once and cloned
// into several handles is destroyed when the last of them is removed.
// Weak handles observe a value without keeping it alive.
//
// A Table is safe for concurrent use.
type Table struct {
	slots     *slots
	observers []*subscription
	logger    *zap.Logger
	mu        sync.RWMutex
	obsMu     sync.RWMutex
	closed    bool
}

// Option configures a Table.
type Option func(*Table)

// WithLogger sets the table's logger. It defaults to the package Logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Table) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithObserver subscribes o before the table is used.
func WithObserver(o Observer) Option {
	return func(t *Table) {
		t.observers = append(t.observers, &subscription{o: o})
	}
}

// NewTable creates an empty table.
func NewTable(opts ...Option) *Table {
	t := &Table{
		slots:  newSlots(),
		logger: Logger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Insert stores value under a new strong handle. When the last strong
// reference to the value goes away the value's Drop method runs, if any,
// and observers see EventDestroyed.
func (t *Table) Insert(typeID uint32, value any) (Handle, error) {
	var first Handle
	ref := arc.NewFunc(value, func(v any) {
		t.notify(Event{Type: EventDestroyed, Handle: first, TypeID: typeID, Value: v})
	})

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		ref.TryUnwrap()
		return 0, errors.ErrClosed
	}
	h, err := t.slots.put(entry{strong: ref, typeID: typeID})
	if err != nil {
		t.mu.Unlock()
		ref.TryUnwrap()
		return 0, err
	}
	first = h
	t.mu.Unlock()

	if ce := t.logger.Check(zap.DebugLevel, "resource inserted"); ce != nil {
		ce.Write(zap.Uint32("handle", uint32(h)), zap.Uint32("type_id", typeID))
	}
	t.notify(Event{Type: EventCreated, Handle: h, TypeID: typeID, Value: value})
	return h, nil
}

// lookupLocked resolves h. The caller holds t.mu.
func (t *Table) lookupLocked(h Handle) (*entry, error) {
	if t.closed {
		return nil, errors.ErrClosed
	}
	e := t.slots.lookup(h)
	if e == nil {
		return nil, errors.InvalidHandle(uint32(h))
	}
	return e, nil
}

func weakHandleErr(h Handle) error {
	return errors.InvalidInput(errors.PhaseHandle, fmt.Sprintf("handle %d is weak", h))
}

// Get returns the value behind a strong handle.
func (t *Table) Get(h Handle) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, err := t.lookupLocked(h)
	if err != nil || e.strong == nil {
		return nil, false
	}
	return e.strong.Load(), true
}

// GetTyped retrieves a value only if it matches the expected type.
func (t *Table) GetTyped(h Handle, typeID uint32) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, err := t.lookupLocked(h)
	if err != nil || e.strong == nil || e.typeID != typeID {
		return nil, false
	}
	return e.strong.Load(), true
}

// Acquire returns a new strong arc handle to the value behind h. The
// value stays alive until the caller releases it, even if h is removed.
func (t *Table) Acquire(h Handle) (*arc.Arc[any], error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, err := t.lookupLocked(h)
	if err != nil {
		return nil, err
	}
	if e.strong == nil {
		return nil, weakHandleErr(h)
	}
	return e.strong.Clone(), nil
}

// Adopt stores an existing arc handle under a new strong handle. The table
// takes over a; the caller must not release it.
func (t *Table) Adopt(typeID uint32, a *arc.Arc[any]) (Handle, error) {
	if a.Released() {
		return 0, errors.UseAfterRelease(errors.PhaseHandle, errors.TypeName[arc.Arc[any]](), "adopted handle")
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, errors.ErrClosed
	}
	h, err := t.slots.put(entry{strong: a, typeID: typeID})
	t.mu.Unlock()
	if err != nil {
		return 0, err
	}

	t.notify(Event{Type: EventCreated, Handle: h, TypeID: typeID, Value: a.Load()})
	return h, nil
}

// Clone creates a second handle of the same strength referring to the
// same value.
func (t *Table) Clone(h Handle) (Handle, error) {
	t.mu.Lock()
	e, err := t.lookupLocked(h)
	if err != nil {
		t.mu.Unlock()
		return 0, err
	}
	ne := entry{typeID: e.typeID}
	if e.strong != nil {
		ne.strong = e.strong.Clone()
	} else {
		ne.weak = e.weak.Clone()
	}
	nh, err := t.slots.put(ne)
	t.mu.Unlock()
	if err != nil {
		ne.release()
		return 0, err
	}

	t.notify(t.event(EventCreated, nh, &ne))
	return nh, nil
}

// Downgrade creates a weak handle to the value behind the strong handle h.
func (t *Table) Downgrade(h Handle) (Handle, error) {
	t.mu.Lock()
	e, err := t.lookupLocked(h)
	if err != nil {
		t.mu.Unlock()
		return 0, err
	}
	if e.strong == nil {
		t.mu.Unlock()
		return 0, weakHandleErr(h)
	}
	ne := entry{weak: e.strong.Downgrade(), typeID: e.typeID}
	wh, err := t.slots.put(ne)
	t.mu.Unlock()
	if err != nil {
		ne.release()
		return 0, err
	}

	t.notify(t.event(EventCreated, wh, &ne))
	return wh, nil
}

// Upgrade creates a strong handle from the weak handle h. It reports false
// if the value has already been destroyed.
func (t *Table) Upgrade(h Handle) (Handle, bool, error) {
	t.mu.Lock()
	e, err := t.lookupLocked(h)
	if err != nil {
		t.mu.Unlock()
		return 0, false, err
	}
	if e.weak == nil {
		t.mu.Unlock()
		return 0, false, errors.InvalidInput(errors.PhaseUpgrade, fmt.Sprintf("handle %d is strong", h))
	}
	strong, ok := e.weak.Upgrade()
	if !ok {
		t.mu.Unlock()
		return 0, false, nil
	}
	ne := entry{strong: strong, typeID: e.typeID}
	nh, err := t.slots.put(ne)
	t.mu.Unlock()
	if err != nil {
		ne.release()
		return 0, false, err
	}

	t.notify(t.event(EventCreated, nh, &ne))
	return nh, true, nil
}

// Counts reports the strong and weak counts of the value behind h. A weak
// handle to a destroyed value reports zero strong handles.
func (t *Table) Counts(h Handle) (strong, weak int, err error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, err := t.lookupLocked(h)
	if err != nil {
		return 0, 0, err
	}
	if e.strong != nil {
		return e.strong.StrongCount(), e.strong.WeakCount(), nil
	}
	return e.weak.StrongCount(), e.weak.WeakCount(), nil
}

// TypeOf reports the type ID and strength of h.
func (t *Table) TypeOf(h Handle) (uint32, Strength, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, err := t.lookupLocked(h)
	if err != nil {
		return 0, 0, err
	}
	return e.typeID, e.strength(), nil
}

// Borrow lends out the strong handle h. A lent handle cannot be removed
// until every Borrow is matched by EndBorrow.
func (t *Table) Borrow(h Handle) error {
	t.mu.Lock()
	e, err := t.lookupLocked(h)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	if e.strong == nil {
		t.mu.Unlock()
		return weakHandleErr(h)
	}
	e.lends++
	ev := t.event(EventBorrowed, h, e)
	t.mu.Unlock()

	t.notify(ev)
	return nil
}

// EndBorrow returns one lend of h.
func (t *Table) EndBorrow(h Handle) error {
	t.mu.Lock()
	e, err := t.lookupLocked(h)
	if err != nil {
		t.mu.Unlock()
		return err
	}
	if e.lends == 0 {
		t.mu.Unlock()
		return errors.InvalidInput(errors.PhaseHandle, fmt.Sprintf("handle %d is not borrowed", h))
	}
	e.lends--
	ev := t.event(EventBorrowReturned, h, e)
	t.mu.Unlock()

	t.notify(ev)
	return nil
}

// Remove drops handle h and returns the value it referred to, or nil for a
// weak handle whose value is gone. Removing the last strong handle
// destroys the value. A lent handle cannot be removed.
func (t *Table) Remove(h Handle) (any, error) {
	return t.remove(h, nil)
}

func (t *Table) remove(h Handle, check func(*entry) error) (any, error) {
	t.mu.Lock()
	e, err := t.lookupLocked(h)
	if err != nil {
		t.mu.Unlock()
		return nil, err
	}
	if check != nil {
		if err := check(e); err != nil {
			t.mu.Unlock()
			return nil, err
		}
	}
	if e.lends > 0 {
		t.mu.Unlock()
		return nil, errors.OutstandingBorrow(uint32(h), e.lends)
	}
	old := t.slots.free(h)
	t.mu.Unlock()

	ev := t.event(EventDropped, h, &old)
	if ce := t.logger.Check(zap.DebugLevel, "resource removed"); ce != nil {
		ce.Write(zap.Uint32("handle", uint32(h)), zap.Stringer("strength", old.strength()))
	}
	t.notify(ev)
	old.release()
	return ev.Value, nil
}

// Len returns the number of live handles, strong and weak.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.slots.len()
}

// Each iterates over strong handles in handle order. The table is read
// locked while fn runs; fn must not modify it.
func (t *Table) Each(fn func(h Handle, typeID uint32, value any) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	t.slots.each(func(h Handle, e *entry) bool {
		if e.strong == nil {
			return true
		}
		return fn(h, e.typeID, e.strong.Load())
	})
}

// Clear drops every handle, lent or not.
func (t *Table) Clear() {
	t.mu.Lock()
	handles, entries := t.slots.drain()
	t.mu.Unlock()

	t.releaseAll(handles, entries)
}

// Close drops every handle and rejects later operations with ErrClosed.
// Closing twice is a no-op.
func (t *Table) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	handles, entries := t.slots.drain()
	t.mu.Unlock()

	t.releaseAll(handles, entries)
	t.logger.Debug("resource table closed", zap.Int("released", len(entries)))
	return nil
}

func (t *Table) releaseAll(handles []Handle, entries []entry) {
	for i := range entries {
		t.notify(t.event(EventDropped, handles[i], &entries[i]))
		entries[i].release()
	}
}

type subscription struct {
	o Observer
}

// Subscribe adds an observer for lifecycle events. The returned func
// removes this subscription and works for any observer, ObserverFunc
// included. Calling it more than once is a no-op.
func (t *Table) Subscribe(o Observer) (cancel func()) {
	s := &subscription{o: o}
	t.obsMu.Lock()
	t.observers = append(t.observers, s)
	t.obsMu.Unlock()

	return func() {
		t.obsMu.Lock()
		defer t.obsMu.Unlock()
		for i, obs := range t.observers {
			if obs == s {
				t.observers = append(t.observers[:i], t.observers[i+1:]...)
				return
			}
		}
	}
}

// Unsubscribe removes the first subscription of o. Observers whose dynamic
// type is not comparable, such as ObserverFunc, never match; use the func
// returned by Subscribe for those.
func (t *Table) Unsubscribe(o Observer) {
	if o == nil || !reflect.TypeOf(o).Comparable() {
		return
	}
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if reflect.TypeOf(obs.o).Comparable() && obs.o == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

func (t *Table) event(typ EventType, h Handle, e *entry) Event {
	ev := Event{Type: typ, Handle: h, TypeID: e.typeID, Strength: e.strength()}
	if e.strong != nil {
		ev.Value = e.strong.Load()
	}
	return ev
}

func (t *Table) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, s := range t.observers {
		s.o.OnResourceEvent(e)
	}
}
