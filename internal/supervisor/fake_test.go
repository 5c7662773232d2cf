package supervisor

import (
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"variantd/internal/logsink"
	"variantd/internal/variant"
)

// fakeHandle is a process that exits when killed or when finish is called.
type fakeHandle struct {
	pid    int
	once   sync.Once
	done   chan struct{}
	code   int
	killed bool
	hold   chan struct{}
	mu     sync.Mutex
	stdout io.Writer
	stderr io.Writer
}

func (h *fakeHandle) Pid() int { return h.pid }

func (h *fakeHandle) Kill() error {
	h.mu.Lock()
	h.killed = true
	h.mu.Unlock()
	h.finish(-1)
	return nil
}

func (h *fakeHandle) Wait() (int, error) {
	<-h.done
	if h.hold != nil {
		<-h.hold
	}
	return h.code, nil
}

func (h *fakeHandle) finish(code int) {
	h.once.Do(func() {
		h.code = code
		close(h.done)
	})
}

func (h *fakeHandle) wasKilled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.killed
}

// fakeLauncher records launches and hands out fakeHandles.
type fakeLauncher struct {
	mu       sync.Mutex
	launches int
	handles  []*fakeHandle
	lastArgs []string
	err      error
	delay    time.Duration
	gate     chan struct{}
	// hold, when set, delays Wait on the handles launched while it is set.
	hold chan struct{}
}

func (l *fakeLauncher) Launch(bin string, args []string, stdout, stderr io.Writer) (Handle, error) {
	if l.gate != nil {
		<-l.gate
	}
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.launches++
	l.lastArgs = append([]string(nil), args...)
	if l.err != nil {
		return nil, l.err
	}
	h := &fakeHandle{pid: 1000 + l.launches, done: make(chan struct{}), hold: l.hold, stdout: stdout, stderr: stderr}
	l.handles = append(l.handles, h)
	return h, nil
}

func (l *fakeLauncher) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches
}

func (l *fakeLauncher) handle(i int) *fakeHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handles[i]
}

var errNoSuchFile = errors.New("exec: \"ffmpeg\": executable file not found in $PATH")

func newTestSupervisor(t *testing.T, l *fakeLauncher) (*Supervisor, *logsink.Sink, *MemoryPublisher) {
	t.Helper()
	sink, err := logsink.New(100)
	if err != nil {
		t.Fatalf("sink: %v", err)
	}
	pub := NewMemoryPublisher()
	s := New(Config{Launcher: l, Sink: sink, Events: pub, RunningAfter: -1})
	return s, sink, pub
}

func mustKey(t *testing.T, src, res string, tier variant.Tier) variant.Key {
	t.Helper()
	k, err := variant.DeriveKey(src, res, tier)
	if err != nil {
		t.Fatalf("DeriveKey: %v", err)
	}
	return k
}

func waitDone(t *testing.T, s *Supervisor, key string) {
	t.Helper()
	done, ok := s.Done(key)
	if !ok {
		return
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for %s to exit", key)
	}
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met: %s", msg)
}

func countRecords(sink *logsink.Sink, substr string) int {
	n := 0
	for _, r := range sink.Query(nil) {
		if strings.Contains(r.Message, substr) {
			n++
		}
	}
	return n
}
