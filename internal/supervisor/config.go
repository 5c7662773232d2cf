package supervisor

import (
	"time"

	"github.com/rs/zerolog"

	"variantd/internal/logsink"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultRunningAfter  = 2 * time.Second
	defaultProgressEvery = 5 * time.Second
)

// Sink receives user-facing log records.
type Sink interface {
	Append(sev logsink.Severity, msg string) logsink.Record
}

// Config encapsulates all tunables for Supervisor construction.
type Config struct {
	// Bin is the transcoder executable.
	Bin      string
	Launcher Launcher
	Sink     Sink
	Logger   zerolog.Logger
	Events   EventPublisher
	Metrics  *Metrics
	// RunningAfter marks a still-starting process as running once elapsed.
	// Negative disables the timer; zero uses the default.
	RunningAfter time.Duration
	// ProgressEvery throttles forwarded progress lines per process.
	ProgressEvery time.Duration
}

type discardSink struct{}

func (discardSink) Append(sev logsink.Severity, msg string) logsink.Record {
	return logsink.Record{Severity: sev, Message: msg}
}
