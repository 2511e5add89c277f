package xlgrid

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Scheduler runs f once after d. Implementations must not run f
// synchronously inside AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, f func()) { time.AfterFunc(d, f) }

// ChangeEvent carries the full raw matrix after a batch of mutations.
type ChangeEvent struct {
	EditorID uuid.UUID  `json:"editorId"`
	Seq      uint64     `json:"seq"`
	Data     [][]string `json:"data"`
}

// touch records a mutation. The first mutation of a quiet period schedules
// one notification; later ones are coalesced into it. Callers hold e.mu.
func (e *Editor) touch() {
	if e.pending {
		return
	}
	e.pending = true
	e.log.Debug("change notification scheduled", "delay", e.opts.notifyDelay)
	e.sched.AfterFunc(e.opts.notifyDelay, e.flush)
}

// flush emits the pending notification with a snapshot taken now, so the
// last notification always carries the latest data. Events are delivered
// in sequence order by whichever caller is already delivering.
func (e *Editor) flush() {
	e.mu.Lock()
	if e.pending {
		e.pending = false
		e.seq++
		e.outbox = append(e.outbox, ChangeEvent{EditorID: e.id, Seq: e.seq, Data: e.rows.raw()})
	}
	if e.delivering {
		e.mu.Unlock()
		return
	}
	e.delivering = true
	for len(e.outbox) > 0 {
		ev := e.outbox[0]
		e.outbox = e.outbox[1:]
		handlers := slices.Clone(e.onChange)
		e.mu.Unlock()

		e.log.Debug("change notification delivered", "seq", ev.Seq, "listeners", len(handlers))
		for _, h := range handlers {
			e.safeCall("change", func() error { return h(ev) })
		}

		e.mu.Lock()
	}
	e.delivering = false
	e.mu.Unlock()
}

// Close flushes a pending notification and rejects later mutations with
// ErrClosed. Read and evaluation methods keep working. Called from inside
// a change listener, the final notification is delivered after that
// listener returns.
func (e *Editor) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.flush()
	e.log.Debug("editor closed")
	return nil
}
