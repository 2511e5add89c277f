package xlgrid

import (
	"bytes"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// manualScheduler queues deferred notifications until the test runs them.
type manualScheduler struct {
	mu     sync.Mutex
	tasks  []func()
	delays []time.Duration
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, f)
	s.delays = append(s.delays, d)
}

// RunAll runs the queued tasks and returns how many ran.
func (s *manualScheduler) RunAll() int {
	s.mu.Lock()
	tasks := s.tasks
	s.tasks = nil
	s.mu.Unlock()
	for _, f := range tasks {
		f()
	}
	return len(tasks)
}

func (s *manualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// bufferLogger returns a logger writing text records to the returned buffer.
func bufferLogger() (*slog.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// newTestEditor creates an editor with a manual scheduler and a silent logger.
func newTestEditor(t *testing.T, opts ...Option) (*Editor, *manualScheduler) {
	t.Helper()
	sched := &manualScheduler{}
	all := append([]Option{WithScheduler(sched), WithLogger(quietLogger())}, opts...)
	ed, err := New(all...)
	require.NoError(t, err)
	return ed, sched
}
