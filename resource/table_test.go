package resource

import (
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/wippyai/rcell/errors"
)

type testObserver struct {
	mu     sync.Mutex
	events []Event
}

func (o *testObserver) OnResourceEvent(e Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

func (o *testObserver) types() []EventType {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]EventType, len(o.events))
	for i, e := range o.events {
		out[i] = e.Type
	}
	return out
}

func (o *testObserver) count(typ EventType) int {
	n := 0
	for _, et := range o.types() {
		if et == typ {
			n++
		}
	}
	return n
}

func mustInsert(t *testing.T, table *Table, typeID uint32, v any) Handle {
	t.Helper()
	h, err := table.Insert(typeID, v)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if h == 0 {
		t.Fatal("Expected non-zero handle")
	}
	return h
}

func TestTable_Basic(t *testing.T) {
	table := NewTable()

	h := mustInsert(t, table, 1, "test")

	val, ok := table.Get(h)
	if !ok {
		t.Fatal("Get failed")
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}

	if _, ok := table.GetTyped(h, 1); !ok {
		t.Fatal("GetTyped with correct type failed")
	}
	if _, ok := table.GetTyped(h, 2); ok {
		t.Fatal("GetTyped with wrong type should fail")
	}

	val, err := table.Remove(h)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if val != "test" {
		t.Fatalf("Expected 'test', got %v", val)
	}
	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Remove")
	}
}

func TestTable_InvalidHandle(t *testing.T) {
	table := NewTable()
	h := mustInsert(t, table, 1, "a")
	if _, err := table.Remove(h); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		op   func() error
	}{
		{"remove zero", func() error { _, err := table.Remove(0); return err }},
		{"remove twice", func() error { _, err := table.Remove(h); return err }},
		{"clone", func() error { _, err := table.Clone(h); return err }},
		{"downgrade", func() error { _, err := table.Downgrade(999); return err }},
		{"borrow", func() error { return table.Borrow(h) }},
		{"counts", func() error { _, _, err := table.Counts(h); return err }},
		{"acquire", func() error { _, err := table.Acquire(h); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op()
			var e *errors.Error
			if !errors.As(err, &e) || e.Kind != errors.KindInvalidHandle {
				t.Fatalf("Expected invalid handle error, got %v", err)
			}
		})
	}

	if _, ok := table.Get(0); ok {
		t.Fatal("Handle 0 should be invalid")
	}
}

func TestTable_CloneSharesValue(t *testing.T) {
	obs := &testObserver{}
	table := NewTable(WithObserver(obs))
	d := &dropCounter{}

	h1 := mustInsert(t, table, 7, d)
	h2, err := table.Clone(h1)
	if err != nil {
		t.Fatalf("Clone failed: %v", err)
	}
	if h2 == h1 {
		t.Fatal("Clone must issue a new handle")
	}

	strong, weak, err := table.Counts(h2)
	if err != nil || strong != 2 || weak != 0 {
		t.Fatalf("Expected counts (2, 0), got (%d, %d, %v)", strong, weak, err)
	}

	table.Remove(h1)
	if d.count != 0 {
		t.Fatal("Value destroyed while a strong handle remains")
	}
	if typeID, strength, _ := table.TypeOf(h2); typeID != 7 || strength != Strong {
		t.Fatalf("Clone lost type info: %d %v", typeID, strength)
	}

	table.Remove(h2)
	if d.count != 1 {
		t.Fatalf("Expected Drop() once, got %d", d.count)
	}
	if n := obs.count(EventDestroyed); n != 1 {
		t.Fatalf("Expected one EventDestroyed, got %d", n)
	}
}

func TestTable_WeakHandles(t *testing.T) {
	table := NewTable()
	d := &dropCounter{}

	h := mustInsert(t, table, 1, d)
	w, err := table.Downgrade(h)
	if err != nil {
		t.Fatalf("Downgrade failed: %v", err)
	}
	if _, strength, _ := table.TypeOf(w); strength != Weak {
		t.Fatal("Downgrade should produce a weak handle")
	}
	if _, ok := table.Get(w); ok {
		t.Fatal("Get on a weak handle should fail")
	}
	if _, err := table.Downgrade(w); err == nil {
		t.Fatal("Downgrade of a weak handle should fail")
	}

	s, ok, err := table.Upgrade(w)
	if err != nil || !ok {
		t.Fatalf("Upgrade failed: %v", err)
	}
	if strong, weak, _ := table.Counts(w); strong != 2 || weak != 1 {
		t.Fatalf("Expected counts (2, 1), got (%d, %d)", strong, weak)
	}
	if _, _, err := table.Upgrade(s); err == nil {
		t.Fatal("Upgrade of a strong handle should fail")
	}

	table.Remove(h)
	table.Remove(s)
	if d.count != 1 {
		t.Fatalf("Expected Drop() once, got %d", d.count)
	}

	_, ok, err = table.Upgrade(w)
	if err != nil || ok {
		t.Fatalf("Upgrade after destruction must report false, got ok=%v err=%v", ok, err)
	}
	if strong, _, _ := table.Counts(w); strong != 0 {
		t.Fatalf("Expected strong count 0, got %d", strong)
	}

	val, err := table.Remove(w)
	if err != nil || val != nil {
		t.Fatalf("Removing a dead weak handle should succeed with nil value, got %v %v", val, err)
	}
}

func TestTable_Borrow(t *testing.T) {
	table := NewTable()
	h := mustInsert(t, table, 1, "v")

	for i := 0; i < 3; i++ {
		if err := table.Borrow(h); err != nil {
			t.Fatalf("Borrow %d failed: %v", i, err)
		}
	}

	_, err := table.Remove(h)
	var e *errors.Error
	if !errors.As(err, &e) || e.Kind != errors.KindOutstandingBorrow {
		t.Fatalf("Expected outstanding borrow error, got %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := table.EndBorrow(h); err != nil {
			t.Fatalf("EndBorrow %d failed: %v", i, err)
		}
	}
	if err := table.EndBorrow(h); err == nil {
		t.Fatal("EndBorrow without Borrow should fail")
	}

	if _, err := table.Remove(h); err != nil {
		t.Fatalf("Remove should succeed after returning borrows: %v", err)
	}
}

func TestTable_Observer(t *testing.T) {
	table := NewTable()
	obs := &testObserver{}
	table.Subscribe(obs)

	h := mustInsert(t, table, 1, "test")
	table.Borrow(h)
	table.EndBorrow(h)
	table.Remove(h)

	want := []EventType{EventCreated, EventBorrowed, EventBorrowReturned, EventDropped, EventDestroyed}
	got := obs.types()
	if len(got) != len(want) {
		t.Fatalf("Expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: expected %v, got %v", i, want[i], got[i])
		}
	}
	if obs.events[0].Handle != h || obs.events[4].Handle != h {
		t.Fatal("Wrong handle in event")
	}

	table.Unsubscribe(obs)
	mustInsert(t, table, 1, "test2")
	if len(obs.types()) != len(want) {
		t.Fatal("Should not receive events after Unsubscribe")
	}
}

func TestTable_SubscribeFunc(t *testing.T) {
	var created, other int
	table := NewTable(WithObserver(ObserverFunc(func(e Event) {
		if e.Type == EventCreated {
			other++
		}
	})))
	fn := ObserverFunc(func(e Event) {
		if e.Type == EventCreated {
			created++
		}
	})
	cancel := table.Subscribe(fn)

	mustInsert(t, table, 1, "a")
	if created != 1 || other != 1 {
		t.Fatalf("Expected one event each, got %d and %d", created, other)
	}

	// Unsubscribe cannot match func observers and must not panic.
	table.Unsubscribe(fn)
	table.Unsubscribe(nil)
	mustInsert(t, table, 1, "b")
	if created != 2 {
		t.Fatalf("Unsubscribe should leave func observers in place, got %d", created)
	}

	cancel()
	cancel()
	mustInsert(t, table, 1, "c")
	if created != 2 {
		t.Fatalf("Should not receive events after cancel, got %d", created)
	}
	if other != 3 {
		t.Fatalf("cancel removed the wrong observer: other=%d", other)
	}
}

func TestTable_Acquire(t *testing.T) {
	table := NewTable()
	d := &dropCounter{}
	h := mustInsert(t, table, 1, d)

	a, err := table.Acquire(h)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	table.Remove(h)
	if d.count != 0 {
		t.Fatal("Acquired handle should keep the value alive")
	}
	a.Release()
	if d.count != 1 {
		t.Fatalf("Expected Drop() once, got %d", d.count)
	}
}

func TestTable_Adopt(t *testing.T) {
	table := NewTable()
	src := mustInsert(t, table, 3, "shared")

	a, err := table.Acquire(src)
	if err != nil {
		t.Fatal(err)
	}
	h, err := table.Adopt(3, a)
	if err != nil {
		t.Fatalf("Adopt failed: %v", err)
	}
	if strong, _, _ := table.Counts(h); strong != 2 {
		t.Fatalf("Expected strong count 2, got %d", strong)
	}

	a2, _ := table.Acquire(src)
	a2.Release()
	if _, err := table.Adopt(3, a2); err == nil {
		t.Fatal("Adopting a released handle should fail")
	}
}

func TestTable_Clear(t *testing.T) {
	obs := &testObserver{}
	table := NewTable(WithObserver(obs))

	mustInsert(t, table, 1, "a")
	h := mustInsert(t, table, 1, "b")
	mustInsert(t, table, 1, "c")
	table.Borrow(h)

	if table.Len() != 3 {
		t.Fatal("Expected Len() == 3")
	}

	table.Clear()

	if table.Len() != 0 {
		t.Fatal("Expected Len() == 0 after Clear")
	}
	if n := obs.count(EventDestroyed); n != 3 {
		t.Fatalf("Expected 3 destroyed values, got %d", n)
	}
	mustInsert(t, table, 1, "d")
}

func TestTable_Close(t *testing.T) {
	table := NewTable()
	d := &dropCounter{}

	table.Insert(1, d)
	h := mustInsert(t, table, 1, "b")

	if err := table.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := table.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if d.count != 1 {
		t.Fatalf("Expected Drop() on Close, got %d", d.count)
	}

	if _, err := table.Insert(1, "c"); !errors.Is(err, errors.ErrClosed) {
		t.Fatalf("Expected ErrClosed after Close, got %v", err)
	}
	if _, err := table.Remove(h); !errors.Is(err, errors.ErrClosed) {
		t.Fatalf("Expected ErrClosed after Close, got %v", err)
	}
}

type dropCounter struct {
	count int
}

func (d *dropCounter) Drop() {
	d.count++
}

func TestTable_DropperInterface(t *testing.T) {
	table := NewTable()
	d := &dropCounter{}

	h := mustInsert(t, table, 1, d)
	table.Remove(h)

	if d.count != 1 {
		t.Fatalf("Expected Drop() to be called once, called %d times", d.count)
	}
}

func TestTable_Each(t *testing.T) {
	table := NewTable()

	mustInsert(t, table, 1, "a")
	h := mustInsert(t, table, 2, "b")
	mustInsert(t, table, 1, "c")
	table.Downgrade(h)

	count := 0
	table.Each(func(Handle, uint32, any) bool {
		count++
		return true
	})
	if count != 3 {
		t.Fatalf("Expected to iterate over 3 strong handles, got %d", count)
	}
	if table.Len() != 4 {
		t.Fatalf("Expected Len() == 4 including the weak handle, got %d", table.Len())
	}
}

func TestTable_Concurrent(t *testing.T) {
	table := NewTable()
	shared := mustInsert(t, table, 1, "shared")

	var g errgroup.Group
	for i := 0; i < 64; i++ {
		g.Go(func() error {
			h, err := table.Clone(shared)
			if err != nil {
				return err
			}
			w, err := table.Downgrade(h)
			if err != nil {
				return err
			}
			if err := table.Borrow(h); err != nil {
				return err
			}
			if err := table.EndBorrow(h); err != nil {
				return err
			}
			if _, err := table.Remove(h); err != nil {
				return err
			}
			_, err = table.Remove(w)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}

	strong, weak, err := table.Counts(shared)
	if err != nil || strong != 1 || weak != 0 {
		t.Fatalf("Expected counts (1, 0), got (%d, %d, %v)", strong, weak, err)
	}
	if table.Len() != 1 {
		t.Fatalf("Expected Len() == 1, got %d", table.Len())
	}
}

func TestTyped(t *testing.T) {
	table := NewTable()
	files := NewTyped[*dropCounter](table, 1)
	names := NewTyped[string](table, 2)

	fh, err := files.Insert(&dropCounter{})
	if err != nil {
		t.Fatal(err)
	}
	nh, _ := names.Insert("n")

	if _, ok := files.Get(nh); ok {
		t.Fatal("Typed.Get must reject handles of another type")
	}
	if v, ok := names.Get(nh); !ok || v != "n" {
		t.Fatalf("Expected 'n', got %q", v)
	}
	if files.Len() != 1 || names.Len() != 1 {
		t.Fatal("Expected one handle per type")
	}

	if _, err := names.Remove(fh); err == nil {
		t.Fatal("Typed.Remove must reject handles of another type")
	}
	d, err := files.Remove(fh)
	if err != nil {
		t.Fatal(err)
	}
	if d.count != 1 {
		t.Fatal("Expected Drop() on typed remove")
	}
}
