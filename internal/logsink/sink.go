// Package logsink keeps the bounded, user-facing event log that the viewer
// polls through GET /logs.
package logsink

import (
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// DefaultCapacity matches the number of records the viewer expects to page through.
const DefaultCapacity = 1000

// Severity classifies a record for the viewer.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Record is one log entry.
type Record struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Severity  Severity  `json:"type"`
	Message   string    `json:"message"`
}

// Sink is a fixed-capacity FIFO ring of records, safe for concurrent use.
type Sink struct {
	mu    sync.Mutex
	buf   []Record
	head  int // index of the oldest record
	size  int
	last  time.Time
	now   func() time.Time
	log   zerolog.Logger
	total uint64
}

// Option customises a Sink.
type Option func(*Sink)

// WithLogger mirrors every appended record to l.
func WithLogger(l zerolog.Logger) Option { return func(s *Sink) { s.log = l } }

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(s *Sink) { s.now = now } }

// New allocates a sink holding at most capacity records.
func New(capacity int, opts ...Option) (*Sink, error) {
	if capacity <= 0 {
		return nil, errors.New("logsink: capacity must be positive")
	}
	s := &Sink{buf: make([]Record, capacity), now: time.Now, log: zerolog.Nop()}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Append stores a record, evicting the oldest one when full. Timestamps are
// strictly increasing so a since-cursor never skips a record that shares an
// instant with the cursor.
func (s *Sink) Append(sev Severity, msg string) Record {
	s.mu.Lock()
	ts := s.now().UTC()
	if !ts.After(s.last) {
		ts = s.last.Add(time.Nanosecond)
	}
	s.last = ts
	rec := Record{ID: ulid.Make().String(), Timestamp: ts, Severity: sev, Message: msg}
	idx := (s.head + s.size) % len(s.buf)
	if s.size == len(s.buf) {
		s.head = (s.head + 1) % len(s.buf)
	} else {
		s.size++
	}
	s.buf[idx] = rec
	s.total++
	s.mu.Unlock()

	s.mirror(rec)
	return rec
}

// Info, Success, Warn and Error are shorthands for Append.
func (s *Sink) Info(msg string)    { s.Append(SeverityInfo, msg) }
func (s *Sink) Success(msg string) { s.Append(SeveritySuccess, msg) }
func (s *Sink) Warn(msg string)    { s.Append(SeverityWarning, msg) }
func (s *Sink) Error(msg string)   { s.Append(SeverityError, msg) }

// Query returns records newer than since (all records when since is nil), in
// insertion order.
func (s *Sink) Query(since *time.Time) []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, 0, s.size)
	for i := 0; i < s.size; i++ {
		rec := s.buf[(s.head+i)%len(s.buf)]
		if since != nil && !rec.Timestamp.After(*since) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Len is the number of retained records.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Capacity is the maximum number of retained records.
func (s *Sink) Capacity() int { return len(s.buf) }

// Total counts every record ever appended, evicted ones included.
func (s *Sink) Total() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *Sink) mirror(rec Record) {
	var ev *zerolog.Event
	switch rec.Severity {
	case SeverityError:
		ev = s.log.Error()
	case SeverityWarning:
		ev = s.log.Warn()
	default:
		ev = s.log.Info()
	}
	ev.Str("type", string(rec.Severity)).Msg(rec.Message)
}
