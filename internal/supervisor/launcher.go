package supervisor

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"time"
)

// Handle is exclusive ownership of one spawned process.
type Handle interface {
	Pid() int
	// Kill terminates the process without a grace period.
	Kill() error
	// Wait blocks until the process exits and returns its exit code
	// (-1 when killed by a signal).
	Wait() (int, error)
}

// Launcher spawns transcoder processes.
type Launcher interface {
	Launch(bin string, args []string, stdout, stderr io.Writer) (Handle, error)
}

// ExecLauncher spawns real processes with os/exec. Arguments are passed as a
// literal argv; no shell is involved.
type ExecLauncher struct {
	// Env replaces the inherited environment when non-nil.
	Env []string
	// WaitDelay bounds how long Wait keeps draining output after exit.
	WaitDelay time.Duration
}

func (l ExecLauncher) Launch(bin string, args []string, stdout, stderr io.Writer) (Handle, error) {
	cmd := exec.Command(bin, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if l.Env != nil {
		cmd.Env = l.Env
	}
	cmd.WaitDelay = l.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = 2 * time.Second
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &execHandle{cmd: cmd}, nil
}

type execHandle struct {
	cmd *exec.Cmd
}

func (h *execHandle) Pid() int { return h.cmd.Process.Pid }

func (h *execHandle) Kill() error {
	err := h.cmd.Process.Kill()
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}

func (h *execHandle) Wait() (int, error) {
	err := h.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode(), nil
	}
	return -1, err
}
