package arc_test

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/rcell/arc"
	"github.com/wippyai/rcell/errors"
)

type probe struct {
	dead  atomic.Bool
	drops *atomic.Int32
}

func (p *probe) Drop() {
	p.dead.Store(true)
	if p.drops != nil {
		p.drops.Add(1)
	}
}

func TestScenarioA(t *testing.T) {
	a := arc.New(10)
	b := a.Clone()
	require.Equal(t, 2, a.StrongCount())
	a.Release()
	require.Equal(t, 1, b.StrongCount())
	b.Release()
}

func TestScenarioB(t *testing.T) {
	a := arc.New("x")
	w := arc.Downgrade(a)
	a.Release()
	_, ok := w.Upgrade()
	require.False(t, ok)
	w.Release()
}

func TestCounts(t *testing.T) {
	a := arc.New(1)
	require.Equal(t, 1, a.StrongCount())
	require.Equal(t, 0, a.WeakCount())

	w1 := a.Downgrade()
	w2 := w1.Clone()
	require.Equal(t, 2, a.WeakCount())
	require.Equal(t, 2, w1.WeakCount())
	require.Equal(t, 1, w2.StrongCount())

	a.Release()
	require.Equal(t, 0, w1.StrongCount())
	require.Equal(t, 2, w1.WeakCount())

	w1.Release()
	require.Equal(t, 1, w2.WeakCount())
	w2.Release()
	require.Equal(t, 0, w2.WeakCount())
}

func TestWeakDoesNotExtendLife(t *testing.T) {
	p := &probe{}
	a := arc.New(p)
	w := a.Downgrade()
	a.Release()
	require.True(t, p.dead.Load())
	_, ok := w.Upgrade()
	require.False(t, ok)
	w.Release()
}

func TestPtrEq(t *testing.T) {
	a := arc.New(5)
	b := a.Clone()
	c := arc.New(5)
	require.True(t, a.PtrEq(b))
	require.False(t, a.PtrEq(c))

	w := a.Downgrade()
	require.True(t, w.Points(b))
	require.False(t, w.Points(c))
	require.True(t, arc.NewWeak[int]().PtrEq(arc.NewWeak[int]()))

	w.Release()
	a.Release()
	b.Release()
	c.Release()
}

func TestEmptyWeak(t *testing.T) {
	w := arc.NewWeak[int]()
	_, ok := w.Upgrade()
	require.False(t, ok)
	require.Zero(t, w.StrongCount())
	require.Zero(t, w.WeakCount())
	w.Clone().Release()
	w.Release()
}

func TestGetMut(t *testing.T) {
	a := arc.New(1)
	p, ok := a.GetMut()
	require.True(t, ok)
	*p = 2

	b := a.Clone()
	_, ok = a.GetMut()
	require.False(t, ok)
	b.Release()

	w := a.Downgrade()
	_, ok = a.GetMut()
	require.False(t, ok)
	w.Release()

	_, ok = a.GetMut()
	require.True(t, ok)
	require.Equal(t, 2, a.Load())

	w = a.Downgrade()
	require.Equal(t, 1, a.WeakCount(), "weak counter is unlocked after GetMut")
	w.Release()
	a.Release()
}

func TestMakeMut(t *testing.T) {
	clone := func(m map[string]int) map[string]int {
		out := make(map[string]int, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out
	}

	a := arc.New(map[string]int{"a": 1})
	b := a.Clone()
	(*a.MakeMut(clone))["a"] = 2
	require.Equal(t, 2, a.Load()["a"])
	require.Equal(t, 1, b.Load()["a"])
	require.False(t, a.PtrEq(b))

	w := b.Downgrade()
	(*b.MakeMut(clone))["b"] = 3
	_, ok := w.Upgrade()
	require.False(t, ok)
	require.Equal(t, 3, b.Load()["b"])

	same := b.Value()
	require.Same(t, same, b.MakeMut(clone))

	w.Release()
	a.Release()
	b.Release()
}

func TestTryUnwrap(t *testing.T) {
	drops := &atomic.Int32{}
	a := arc.New(&probe{drops: drops})
	b := a.Clone()
	_, ok := a.TryUnwrap()
	require.False(t, ok)
	b.Release()

	v, ok := a.TryUnwrap()
	require.True(t, ok)
	require.False(t, v.dead.Load())
	require.Zero(t, drops.Load())
	require.True(t, a.Released())
}

func TestNewCyclic(t *testing.T) {
	type node struct {
		self *arc.Weak[node]
	}
	upgraded := true
	n := arc.NewCyclic(func(self *arc.Weak[node]) node {
		_, upgraded = self.Upgrade()
		return node{self: self.Clone()}
	})
	require.False(t, upgraded)
	require.Equal(t, 1, n.StrongCount())
	require.Equal(t, 1, n.WeakCount())

	s, ok := n.Value().self.Upgrade()
	require.True(t, ok)
	require.True(t, s.PtrEq(n))
	s.Release()

	self := n.Value().self
	n.Release()
	_, ok = self.Upgrade()
	require.False(t, ok)
	self.Release()
}

func TestNewCyclicReleasesSelf(t *testing.T) {
	type node struct {
		self *arc.Weak[node]
	}
	n := arc.NewCyclic(func(self *arc.Weak[node]) node {
		keep := self.Clone()
		self.Release()
		return node{self: keep}
	})
	require.Equal(t, 1, n.StrongCount())
	require.Equal(t, 1, n.WeakCount())
	_, ok := n.GetMut()
	require.False(t, ok, "a weak handle is still alive")

	self := n.Value().self
	require.Equal(t, 1, self.WeakCount())
	n.Release()
	require.Zero(t, self.StrongCount())
	self.Release()

	drops := &atomic.Int32{}
	d := arc.NewCyclic(func(self *arc.Weak[*probe]) *probe {
		self.Release()
		return &probe{drops: drops}
	})
	require.Zero(t, d.WeakCount())
	_, ok = d.GetMut()
	require.True(t, ok)
	d.Release()
	require.EqualValues(t, 1, drops.Load())
}

func TestUseAfterRelease(t *testing.T) {
	a := arc.New(1)
	a.Release()
	a.Release()
	defer func() {
		err, ok := recover().(*errors.Error)
		require.True(t, ok)
		require.Equal(t, errors.KindUseAfterRelease, err.Kind)
	}()
	a.Clone()
}

func TestConcurrentCloneRelease(t *testing.T) {
	drops := &atomic.Int32{}
	root := arc.New(&probe{drops: drops})

	var g errgroup.Group
	for i := 0; i < 32; i++ {
		h := root.Clone()
		g.Go(func() error {
			defer h.Release()
			for j := 0; j < 1000; j++ {
				c := h.Clone()
				w := c.Downgrade()
				if u, ok := w.Upgrade(); ok {
					u.Release()
				}
				w.Release()
				c.Release()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.Zero(t, drops.Load())
	require.Equal(t, 1, root.StrongCount())
	require.Equal(t, 0, root.WeakCount())

	root.Release()
	require.Equal(t, int32(1), drops.Load())
}

// An upgrade racing the final release must never observe a destroyed value.
func TestUpgradeRace(t *testing.T) {
	for i := 0; i < 2000; i++ {
		drops := &atomic.Int32{}
		a := arc.New(&probe{drops: drops})
		w := a.Downgrade()

		var (
			wg       sync.WaitGroup
			upgraded atomic.Bool
			sawDead  atomic.Bool
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			a.Release()
		}()
		go func() {
			defer wg.Done()
			u, ok := w.Upgrade()
			if !ok {
				return
			}
			upgraded.Store(true)
			p := u.Load()
			if p == nil || p.dead.Load() {
				sawDead.Store(true)
			}
			runtime.Gosched()
			if p == nil || p.dead.Load() {
				sawDead.Store(true)
			}
			u.Release()
		}()
		wg.Wait()

		require.False(t, sawDead.Load(), "iteration %d", i)
		require.Equal(t, int32(1), drops.Load(), "iteration %d upgraded=%v", i, upgraded.Load())
		_, ok := w.Upgrade()
		require.False(t, ok)
		w.Release()
	}
}

func TestGetMutRacesDowngrade(t *testing.T) {
	a := arc.New(0)
	b := a.Clone()

	var g errgroup.Group
	g.Go(func() error {
		for i := 0; i < 1000; i++ {
			w := b.Downgrade()
			w.Release()
		}
		return nil
	})
	g.Go(func() error {
		for i := 0; i < 1000; i++ {
			if _, ok := a.GetMut(); ok {
				return errors.InvalidInput(errors.PhaseAccess, "GetMut succeeded while shared")
			}
		}
		return nil
	})
	require.NoError(t, g.Wait())
	b.Release()

	_, ok := a.GetMut()
	require.True(t, ok)
	a.Release()
}
