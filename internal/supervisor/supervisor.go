package supervisor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"variantd/internal/logsink"
)

type entry struct {
	info         ProcessInfo
	handle       Handle
	stopReq      bool
	done         chan struct{}
	runTimer     *time.Timer
	lastProgress time.Time
}

// Supervisor owns one transcoder process per variant key.
type Supervisor struct {
	mu    sync.Mutex
	procs map[string]*entry

	bin           string
	launcher      Launcher
	sink          Sink
	log           zerolog.Logger
	publisher     EventPublisher
	metrics       *Metrics
	runningAfter  time.Duration
	progressEvery time.Duration
	now           func() time.Time
}

// New constructs a Supervisor from cfg, applying defaults.
func New(cfg Config) *Supervisor {
	s := &Supervisor{
		procs:         make(map[string]*entry),
		bin:           cfg.Bin,
		launcher:      cfg.Launcher,
		sink:          cfg.Sink,
		log:           cfg.Logger,
		publisher:     cfg.Events,
		metrics:       cfg.Metrics,
		runningAfter:  cfg.RunningAfter,
		progressEvery: cfg.ProgressEvery,
		now:           time.Now,
	}
	if s.bin == "" {
		s.bin = "ffmpeg"
	}
	if s.launcher == nil {
		s.launcher = ExecLauncher{}
	}
	if s.sink == nil {
		s.sink = discardSink{}
	}
	if s.publisher == nil {
		s.publisher = noopPublisher{}
	}
	if s.runningAfter == 0 {
		s.runningAfter = defaultRunningAfter
	}
	if s.progressEvery <= 0 {
		s.progressEvery = defaultProgressEvery
	}
	return s
}

// Start spawns the transcoder for req.Key unless one is already tracked, in
// which case it returns started=false and no error. The entry is inserted
// before the spawn so concurrent starts for the same key never spawn twice.
func (s *Supervisor) Start(req StartRequest) (bool, error) {
	key := req.Key.String()

	s.mu.Lock()
	if _, ok := s.procs[key]; ok {
		s.mu.Unlock()
		s.log.Debug().Str("event", "start_noop").Str("key", key).Msg("variant already tracked")
		return false, nil
	}
	e := &entry{
		info: ProcessInfo{
			Key:            key,
			SourceID:       req.Key.SourceID,
			Resolution:     req.Key.Resolution,
			Tier:           req.Key.Tier,
			OutputStreamID: key,
			State:          StateStarting,
			StartedAt:      s.now(),
		},
		done: make(chan struct{}),
	}
	s.procs[key] = e
	s.metrics.setRunning(len(s.procs))
	s.mu.Unlock()

	stdout := newLineWriter(func(line string) { s.onOutput(e, line) })
	stderr := newLineWriter(func(line string) { s.onOutput(e, line) })
	h, err := s.launcher.Launch(s.bin, req.Args, stdout, stderr)
	if err != nil {
		s.mu.Lock()
		if s.procs[key] == e {
			delete(s.procs, key)
		}
		e.info.State = StateTerminated
		s.metrics.setRunning(len(s.procs))
		s.mu.Unlock()
		close(e.done)

		s.metrics.spawnFailed()
		s.log.Error().Str("event", "spawn_error").Str("key", key).Err(err).Msg("transcoder launch failed")
		s.sink.Append(logsink.SeverityError, fmt.Sprintf("transcoder launch failed: %s - %v", key, err))
		s.publisher.Publish(Event{Name: "spawn_error", Key: key, Fields: map[string]any{"error": err.Error()}})
		return false, ErrLaunchFailed(key, err)
	}

	s.mu.Lock()
	e.handle = h
	e.info.PID = h.Pid()
	// Stopped (or dropped by StopAll) while the spawn was in flight.
	kill := e.stopReq || s.procs[key] != e
	if !kill && s.runningAfter > 0 {
		e.runTimer = time.AfterFunc(s.runningAfter, func() { s.markRunning(e) })
	}
	s.mu.Unlock()

	s.metrics.spawned(string(req.Key.Tier))
	s.log.Info().Str("event", "spawn_start").Str("key", key).Int("pid", e.info.PID).Strs("args", req.Args).Msg("transcoder started")
	s.publisher.Publish(Event{Name: "spawn_start", Key: key, Fields: map[string]any{"pid": e.info.PID}})

	go s.watch(e, h, stdout, stderr)
	if kill {
		_ = h.Kill()
	}
	return true, nil
}

// Stop kills the process tracked under key. The entry stays until the exit
// watcher observes termination, so a start for the same key remains a no-op
// meanwhile. It reports whether a running process was signalled.
func (s *Supervisor) Stop(key string) bool {
	s.mu.Lock()
	e, ok := s.procs[key]
	var h Handle
	signalled := false
	if ok {
		h, signalled = s.markStopLocked(e)
	}
	s.mu.Unlock()
	if !signalled {
		return false
	}
	s.kill(e, h)
	return true
}

// StopWhere stops every tracked process whose info matches pred and returns
// how many were signalled.
func (s *Supervisor) StopWhere(pred func(ProcessInfo) bool) int {
	type target struct {
		e *entry
		h Handle
	}
	var targets []target
	s.mu.Lock()
	for _, e := range s.procs {
		if !pred(e.info) {
			continue
		}
		if h, ok := s.markStopLocked(e); ok {
			targets = append(targets, target{e: e, h: h})
		}
	}
	s.mu.Unlock()
	for _, t := range targets {
		s.kill(t.e, t.h)
	}
	return len(targets)
}

// StopAll kills every tracked process and drops all entries at once, without
// waiting for the exit watchers. It returns the number of entries dropped.
func (s *Supervisor) StopAll() int {
	n, _ := s.stopAll()
	return n
}

// Shutdown is StopAll followed by waiting for the dropped processes to exit,
// bounded by ctx.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	_, dones := s.stopAll()
	for _, d := range dones {
		select {
		case <-d:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (s *Supervisor) stopAll() (int, []chan struct{}) {
	s.mu.Lock()
	entries := make([]*entry, 0, len(s.procs))
	handles := make([]Handle, 0, len(s.procs))
	dones := make([]chan struct{}, 0, len(s.procs))
	for _, e := range s.procs {
		e.stopReq = true
		e.info.State = StateStopping
		entries = append(entries, e)
		handles = append(handles, e.handle)
		dones = append(dones, e.done)
	}
	s.procs = make(map[string]*entry)
	s.metrics.setRunning(0)
	s.mu.Unlock()

	for i, e := range entries {
		if h := handles[i]; h != nil {
			if err := h.Kill(); err != nil {
				s.log.Warn().Str("event", "kill_error").Str("key", e.info.Key).Err(err).Msg("kill failed")
			}
		}
	}
	if len(entries) > 0 {
		s.sink.Append(logsink.SeverityWarning, fmt.Sprintf("emergency stop: %d transcoder processes stopped", len(entries)))
	}
	s.log.Info().Str("event", "stop_all").Int("count", len(entries)).Msg("all variants stopped")
	s.publisher.Publish(Event{Name: "stop_all", Fields: map[string]any{"count": len(entries)}})
	return len(entries), dones
}

// markStopLocked flags e for termination. It returns the handle to kill (nil
// while the spawn is still in flight) and whether e was not already stopping.
func (s *Supervisor) markStopLocked(e *entry) (Handle, bool) {
	if e.stopReq {
		return nil, false
	}
	e.stopReq = true
	e.info.State = StateStopping
	if e.runTimer != nil {
		e.runTimer.Stop()
	}
	return e.handle, true
}

func (s *Supervisor) kill(e *entry, h Handle) {
	key := e.info.Key
	if h != nil {
		if err := h.Kill(); err != nil {
			s.log.Warn().Str("event", "kill_error").Str("key", key).Err(err).Msg("kill failed")
		}
	}
	s.log.Info().Str("event", "spawn_stop").Str("key", key).Msg("variant stop requested")
	s.sink.Append(logsink.SeverityInfo, "stopping variant: "+key)
	s.publisher.Publish(Event{Name: "spawn_stop", Key: key, Fields: map[string]any{}})
}

// watch waits for the process to exit, removes its entry if it is still the
// one tracked under its key, and records the exit code.
func (s *Supervisor) watch(e *entry, h Handle, stdout, stderr *lineWriter) {
	code, err := h.Wait()
	stdout.Flush()
	stderr.Flush()

	key := e.info.Key
	s.mu.Lock()
	if s.procs[key] == e {
		delete(s.procs, key)
	}
	stopped := e.stopReq
	e.info.State = StateTerminated
	if e.runTimer != nil {
		e.runTimer.Stop()
	}
	s.metrics.setRunning(len(s.procs))
	s.mu.Unlock()

	reason := "exited"
	sev := logsink.SeverityWarning
	if stopped {
		reason = "stopped"
		sev = logsink.SeverityInfo
	} else if code == 0 {
		sev = logsink.SeverityInfo
	}
	s.metrics.exited(reason)
	ev := s.log.Info().Str("event", "spawn_exit").Str("key", key).Int("code", code).Bool("stopped", stopped)
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg("transcoder exited")
	s.sink.Append(sev, fmt.Sprintf("variant stopped: %s (code: %d)", key, code))
	s.publisher.Publish(Event{Name: "spawn_exit", Key: key, Fields: map[string]any{"code": code, "stopped": stopped}})
	close(e.done)
}

func (s *Supervisor) onOutput(e *entry, line string) {
	key := e.info.Key
	s.log.Debug().Str("event", "output").Str("key", key).Msg(line)
	if isReadyMarker(line) {
		s.markRunning(e)
	}
	if isProgressLine(line) {
		now := s.now()
		s.mu.Lock()
		due := now.Sub(e.lastProgress) >= s.progressEvery
		if due {
			e.lastProgress = now
		}
		s.mu.Unlock()
		if due {
			s.sink.Append(logsink.SeverityInfo, key+": processing... "+line)
		}
		return
	}
	s.sink.Append(logsink.SeverityInfo, key+": "+line)
}

// markRunning moves a starting process to running. Later calls are no-ops.
func (s *Supervisor) markRunning(e *entry) {
	s.mu.Lock()
	if e.info.State != StateStarting || e.handle == nil {
		s.mu.Unlock()
		return
	}
	e.info.State = StateRunning
	if e.runTimer != nil {
		e.runTimer.Stop()
	}
	key, pid := e.info.Key, e.info.PID
	s.mu.Unlock()

	s.log.Info().Str("event", "spawn_running").Str("key", key).Int("pid", pid).Msg("transcoder running")
	s.sink.Append(logsink.SeveritySuccess, "transcoder running: "+key)
	s.publisher.Publish(Event{Name: "spawn_running", Key: key, Fields: map[string]any{"pid": pid}})
}

// Get returns the info tracked under key.
func (s *Supervisor) Get(key string) (ProcessInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.procs[key]
	if !ok {
		return ProcessInfo{}, false
	}
	return e.info, true
}

// Done returns a channel closed when the process tracked under key exits.
func (s *Supervisor) Done(key string) (<-chan struct{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.procs[key]
	if !ok {
		return nil, false
	}
	return e.done, true
}

// Count is the number of tracked processes.
func (s *Supervisor) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.procs)
}

// Snapshot lists tracked processes ordered by key.
func (s *Supervisor) Snapshot() []ProcessInfo {
	s.mu.Lock()
	out := make([]ProcessInfo, 0, len(s.procs))
	for _, e := range s.procs {
		out = append(out, e.info)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
