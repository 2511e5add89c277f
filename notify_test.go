package xlgrid

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajack/xlgrid/cell"
)

func TestNotify_BatchCoalesced(t *testing.T) {
	ed, sched := newTestEditor(t)
	var events []ChangeEvent
	ed.OnChange(func(ev ChangeEvent) error {
		events = append(events, ev)
		return nil
	})

	require.NoError(t, ed.SetCell(0, 0, "1"))
	require.NoError(t, ed.SetCell(0, 1, "2"))
	require.NoError(t, ed.SetCell(0, 2, "=A1+B1"))
	assert.Equal(t, 1, sched.Pending())
	assert.Equal(t, []time.Duration{DefaultNotifyDelay}, sched.delays)

	assert.Equal(t, 1, sched.RunAll())
	require.Len(t, events, 1)
	assert.Equal(t, []string{"1", "2", "=A1+B1", "", ""}, events[0].Data[0])
	assert.Equal(t, uint64(1), events[0].Seq)
	assert.Equal(t, ed.ID(), events[0].EditorID)

	// a new quiet period starts a new notification
	require.NoError(t, ed.SetCell(1, 0, "x"))
	assert.Equal(t, 1, sched.RunAll())
	require.Len(t, events, 2)
	assert.Equal(t, uint64(2), events[1].Seq)
	assert.Equal(t, "x", events[1].Data[1][0])
}

func TestNotify_SnapshotTakenWhenFired(t *testing.T) {
	ed, sched := newTestEditor(t)
	var got [][]string
	ed.OnChange(func(ev ChangeEvent) error {
		got = ev.Data
		return nil
	})
	require.NoError(t, ed.SetCell(0, 0, "first"))
	require.NoError(t, ed.ApplyColor(cell.NewRange(cell.At(0, 0), cell.At(0, 0)), ColorBackground, "red"))
	require.NoError(t, ed.SetCell(0, 0, "latest"))
	sched.RunAll()
	assert.Equal(t, "latest", got[0][0])

	// the snapshot is a copy
	got[0][0] = "changed"
	assert.Equal(t, "latest", ed.Raw(0, 0))
}

func TestNotify_RealTimer(t *testing.T) {
	ed, err := New(WithNotifyDelay(10*time.Millisecond), WithLogger(quietLogger()))
	require.NoError(t, err)

	var mu sync.Mutex
	var events []ChangeEvent
	ed.OnChange(func(ev ChangeEvent) error {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, ev)
		return nil
	})

	require.NoError(t, ed.SetCell(0, 0, "a"))
	require.NoError(t, ed.SetCell(1, 0, "b"))
	require.NoError(t, ed.SetCell(2, 0, "c"))

	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(events)
	}
	require.Eventually(t, func() bool { return count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, count())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "a", events[0].Data[0][0])
	assert.Equal(t, "b", events[0].Data[1][0])
	assert.Equal(t, "c", events[0].Data[2][0])
}

func TestNotify_CloseFlushes(t *testing.T) {
	ed, sched := newTestEditor(t)
	var events []ChangeEvent
	ed.OnChange(func(ev ChangeEvent) error {
		events = append(events, ev)
		return nil
	})
	require.NoError(t, ed.SetCell(0, 0, "last"))
	require.NoError(t, ed.Close())
	require.Len(t, events, 1)
	assert.Equal(t, "last", events[0].Data[0][0])

	// the scheduled timer still fires but has nothing left to send
	assert.Equal(t, 1, sched.RunAll())
	assert.Len(t, events, 1)
}

func TestNotify_ListenerMayMutate(t *testing.T) {
	ed, sched := newTestEditor(t)
	calls := 0
	ed.OnChange(func(ev ChangeEvent) error {
		calls++
		if calls == 1 {
			return ed.SetCell(0, 1, "from listener")
		}
		return nil
	})
	require.NoError(t, ed.SetCell(0, 0, "x"))
	sched.RunAll()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, sched.Pending())
	sched.RunAll()
	assert.Equal(t, 2, calls)
}

func TestNotify_NoListenersNoPanic(t *testing.T) {
	ed, sched := newTestEditor(t)
	require.NoError(t, ed.SetCell(0, 0, "x"))
	assert.Equal(t, 1, sched.RunAll())
}

func TestListenerErrorsForwarded(t *testing.T) {
	ed, sched := newTestEditor(t)
	boom := errors.New("boom")
	var reported []error
	ed.OnError(func(err error) { reported = append(reported, err) })
	ed.OnChange(func(ChangeEvent) error { return boom })
	ed.OnChange(func(ChangeEvent) error { panic("kaput") })
	delivered := false
	ed.OnChange(func(ChangeEvent) error {
		delivered = true
		return nil
	})

	require.NoError(t, ed.SetCell(0, 0, "x"))
	sched.RunAll()

	require.Len(t, reported, 2)
	assert.ErrorIs(t, reported[0], boom)
	assert.Contains(t, reported[1].Error(), "kaput")
	assert.True(t, delivered)
}

func TestListenerErrorsLoggedWithoutErrorListener(t *testing.T) {
	logger, buf := bufferLogger()
	sched := &manualScheduler{}
	ed, err := New(WithScheduler(sched), WithLogger(logger))
	require.NoError(t, err)
	ed.OnSelect(func(SelectionEvent) error { return errors.New("select failed") })

	ed.Select(cell.At(0, 0), cell.At(0, 0))
	assert.Contains(t, buf.String(), "listener failed")
	assert.Contains(t, buf.String(), "select failed")
	assert.Contains(t, buf.String(), ed.ID().String())
}

func TestErrorListenerPanicIsContained(t *testing.T) {
	ed, _ := newTestEditor(t)
	ed.OnError(func(error) { panic("again") })
	ed.OnSelect(func(SelectionEvent) error { return errors.New("x") })
	assert.NotPanics(t, func() { ed.Select(cell.At(0, 0), cell.At(1, 1)) })
}

func TestSelect(t *testing.T) {
	ed, _ := newTestEditor(t)
	var got []SelectionEvent
	ed.OnSelect(func(ev SelectionEvent) error {
		got = append(got, ev)
		return nil
	})
	ed.Select(cell.At(1, 1), cell.At(1, 1))
	ed.Select(cell.At(0, 0), cell.At(2, 3))

	require.Len(t, got, 2)
	assert.True(t, got[0].Single)
	assert.False(t, got[1].Single)
	assert.Equal(t, cell.At(2, 3), got[1].To)
	assert.Equal(t, ed.ID(), got[1].EditorID)
}

func TestActivate(t *testing.T) {
	ed, _ := newTestEditor(t, WithData([][]any{{"plain", `{"name":"fig","value":2}`}}))
	var all, objects []ActivateEvent
	ed.OnActivate(func(ev ActivateEvent) error {
		all = append(all, ev)
		return nil
	})
	ed.OnObjectActivate(func(ev ActivateEvent) error {
		objects = append(objects, ev)
		return nil
	})

	require.NoError(t, ed.Activate(0, 0))
	require.NoError(t, ed.Activate(0, 1))
	require.NoError(t, ed.Activate(7, 7))
	assert.ErrorIs(t, ed.Activate(-1, 0), ErrOutOfRange)

	require.Len(t, all, 3)
	assert.Equal(t, "plain", all[0].Raw)
	assert.Nil(t, all[0].Object)
	assert.Equal(t, cell.At(0, 1), all[1].At)
	assert.Equal(t, ed.ID(), all[1].EditorID)
	assert.Empty(t, all[2].Raw)

	require.Len(t, objects, 1)
	assert.Equal(t, map[string]any{"name": "fig", "value": 2.0}, objects[0].Object)

	// the event carries a copy of the object
	objects[0].Object["name"] = "changed"
	assert.Equal(t, "fig", ed.Cell(0, 1).Obj["name"])
}

func TestActivate_ListenerErrorForwarded(t *testing.T) {
	ed, _ := newTestEditor(t, WithData([][]any{{`{"value":1}`}}))
	var reported []error
	ed.OnError(func(err error) { reported = append(reported, err) })
	ed.OnObjectActivate(func(ActivateEvent) error { panic("bad object") })

	require.NoError(t, ed.Activate(0, 0))
	require.Len(t, reported, 1)
	assert.Contains(t, reported[0].Error(), "activate listener panicked")
}
