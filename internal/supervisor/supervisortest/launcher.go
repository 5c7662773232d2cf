// Package supervisortest provides an in-memory Launcher for tests of packages
// built on the supervisor.
package supervisortest

import (
	"io"
	"sync"

	"variantd/internal/supervisor"
)

// Handle is a fake process. It exits when killed or when Exit is called.
type Handle struct {
	pid    int
	once   sync.Once
	done   chan struct{}
	code   int
	Stdout io.Writer
	Stderr io.Writer

	mu     sync.Mutex
	killed bool
}

func (h *Handle) Pid() int { return h.pid }

func (h *Handle) Kill() error {
	h.mu.Lock()
	h.killed = true
	h.mu.Unlock()
	h.Exit(-1)
	return nil
}

func (h *Handle) Wait() (int, error) {
	<-h.done
	return h.code, nil
}

// Exit terminates the fake process with code. Only the first call counts.
func (h *Handle) Exit(code int) {
	h.once.Do(func() {
		h.code = code
		close(h.done)
	})
}

// Killed reports whether Kill was called.
func (h *Handle) Killed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.killed
}

// Launcher hands out fake Handles and records every launch.
type Launcher struct {
	// Err, when set, fails every launch.
	Err error

	mu      sync.Mutex
	handles []*Handle
	args    [][]string
	bins    []string
}

var _ supervisor.Launcher = (*Launcher)(nil)

func (l *Launcher) Launch(bin string, args []string, stdout, stderr io.Writer) (supervisor.Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bins = append(l.bins, bin)
	l.args = append(l.args, append([]string(nil), args...))
	if l.Err != nil {
		return nil, l.Err
	}
	h := &Handle{pid: 4000 + len(l.handles), done: make(chan struct{}), Stdout: stdout, Stderr: stderr}
	l.handles = append(l.handles, h)
	return h, nil
}

// Launches is the number of Launch calls, failed ones included.
func (l *Launcher) Launches() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.args)
}

// Handle returns the i-th successfully launched handle.
func (l *Launcher) Handle(i int) *Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handles[i]
}

// Args returns the argv of the i-th launch.
func (l *Launcher) Args(i int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.args[i]
}

// Bin returns the binary path of the i-th launch.
func (l *Launcher) Bin(i int) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bins[i]
}
