package orchestrator

import (
	"github.com/rs/zerolog"

	"variantd/internal/logsink"
	"variantd/internal/registry"
	"variantd/internal/supervisor"
	"variantd/internal/variant"
)

// DefaultRTMPBase is where the local ingest engine accepts RTMP.
const DefaultRTMPBase = "rtmp://127.0.0.1:1935"

// Sources is the view of the source registry the orchestrator needs.
type Sources interface {
	App() string
	IsActive(id string) bool
	List() []registry.SourceStream
}

// Processes is the view of the transcoder supervisor the orchestrator needs.
type Processes interface {
	Start(supervisor.StartRequest) (bool, error)
	Stop(key string) bool
	StopWhere(func(supervisor.ProcessInfo) bool) int
	StopAll() int
	Snapshot() []supervisor.ProcessInfo
}

// Sink receives user-facing log records.
type Sink interface {
	Append(logsink.Severity, string) logsink.Record
}

// Config wires an Orchestrator. Sources and Processes are required.
type Config struct {
	Sources   Sources
	Processes Processes
	// Catalog defaults to variant.DefaultCatalog().
	Catalog *variant.Catalog
	Sink    Sink
	Logger  zerolog.Logger

	// RTMPBase is the ingest engine's RTMP root, e.g. rtmp://127.0.0.1:1935.
	RTMPBase string
	// PlaybackBase, when set, is the HTTP-FLV root viewers play variants from.
	PlaybackBase string
	// ExtraArgs are appended to every transcoder argv before the output muxer.
	ExtraArgs []string
	// CascadeStopOnUnpublish stops a source's variants when it stops publishing.
	CascadeStopOnUnpublish bool
}

type discardSink struct{}

func (discardSink) Append(sev logsink.Severity, msg string) logsink.Record {
	return logsink.Record{Severity: sev, Message: msg}
}
