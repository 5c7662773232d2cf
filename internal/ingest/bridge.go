// Package ingest turns publish and play notifications from the RTMP ingest
// engine into registry updates.
package ingest

import (
	"fmt"

	"github.com/rs/zerolog"

	"variantd/internal/logsink"
	"variantd/internal/registry"
)

// Events is what the ingest engine reports. Paths are raw ingest paths such
// as /live/cam1?token=x.
type Events interface {
	PublishStarted(path string) error
	PublishEnded(path string) error
	PlayStarted(path string) error
	PlayEnded(path string) error
}

// Registry is the part of the source registry the bridge mutates.
type Registry interface {
	OnPublishStart(rawPath string) (registry.SourceStream, error)
	OnPublishEnd(rawPath string) (string, bool, error)
	OnPlayStart(rawPath string) (string, error)
	OnPlayEnd(rawPath string) (string, error)
}

// Policy decides what happens to a source's variants when it stops publishing.
type Policy interface {
	HandlePublishEnded(sourceID string) int
}

// Sink receives user-facing log records.
type Sink interface {
	Append(logsink.Severity, string) logsink.Record
}

// Bridge implements Events over a Registry.
type Bridge struct {
	reg    Registry
	policy Policy
	sink   Sink
	log    zerolog.Logger
}

var _ Events = (*Bridge)(nil)

// NewBridge wires a bridge. policy and sink may be nil.
func NewBridge(reg Registry, policy Policy, sink Sink, log zerolog.Logger) *Bridge {
	return &Bridge{reg: reg, policy: policy, sink: sink, log: log}
}

// PublishStarted registers the source. An unparseable path is logged and
// returned so the caller can refuse the publisher.
func (b *Bridge) PublishStarted(path string) error {
	s, err := b.reg.OnPublishStart(path)
	if err != nil {
		b.rejected("publish", path, err)
		return err
	}
	b.record(logsink.SeveritySuccess, fmt.Sprintf("source published: %s (app=%s)", s.ID, s.App))
	return nil
}

// PublishEnded removes the source and applies the unpublish policy.
func (b *Bridge) PublishEnded(path string) error {
	id, known, err := b.reg.OnPublishEnd(path)
	if err != nil {
		b.rejected("unpublish", path, err)
		return err
	}
	if !known {
		return nil
	}
	b.record(logsink.SeverityInfo, "source ended: "+id)
	if b.policy != nil {
		b.policy.HandlePublishEnded(id)
	}
	return nil
}

func (b *Bridge) PlayStarted(path string) error {
	if _, err := b.reg.OnPlayStart(path); err != nil {
		b.rejected("play", path, err)
		return err
	}
	return nil
}

func (b *Bridge) PlayEnded(path string) error {
	if _, err := b.reg.OnPlayEnd(path); err != nil {
		b.rejected("play_done", path, err)
		return err
	}
	return nil
}

func (b *Bridge) rejected(kind, path string, err error) {
	b.log.Warn().Str("event", "ingest_rejected").Str("kind", kind).Str("path", path).Err(err).Msg("ingest event dropped")
	b.record(logsink.SeverityWarning, fmt.Sprintf("ignored %s event: %v", kind, err))
}

func (b *Bridge) record(sev logsink.Severity, msg string) {
	if b.sink != nil {
		b.sink.Append(sev, msg)
	}
}
