package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// SourceStream is a live input currently published to the ingest engine.
type SourceStream struct {
	ID          string    `json:"id"`
	App         string    `json:"app"`
	FirstSeenAt time.Time `json:"firstSeenAt"`
	Viewers     int       `json:"viewers"`
}

// Config configures a Registry. Zero values are usable.
type Config struct {
	// App is the accepted ingest application; DefaultApp when empty.
	App    string
	Logger zerolog.Logger
	// Registerer receives the active sources gauge when non-nil.
	Registerer prometheus.Registerer
}

// Registry tracks which sources are live. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]*SourceStream

	app    string
	log    zerolog.Logger
	active prometheus.Gauge
	now    func() time.Time
}

func New(cfg Config) *Registry {
	r := &Registry{
		sources: make(map[string]*SourceStream),
		app:     cfg.App,
		log:     cfg.Logger,
		now:     time.Now,
	}
	if r.app == "" {
		r.app = DefaultApp
	}
	if cfg.Registerer != nil {
		r.active = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "variantd",
			Subsystem: "registry",
			Name:      "sources_active",
			Help:      "Number of live sources published to the ingest engine.",
		})
		cfg.Registerer.MustRegister(r.active)
	}
	return r
}

// App returns the ingest application this registry accepts.
func (r *Registry) App() string { return r.app }

// Parse parses rawPath against the registry's application.
func (r *Registry) Parse(rawPath string) (StreamPath, error) {
	return ParseStreamPath(rawPath, r.app)
}

// OnPublishStart registers the source published at rawPath. Re-publishing an
// active id refreshes its metadata and keeps the entry.
func (r *Registry) OnPublishStart(rawPath string) (SourceStream, error) {
	p, err := r.Parse(rawPath)
	if err != nil {
		return SourceStream{}, err
	}
	r.mu.Lock()
	s, ok := r.sources[p.StreamID]
	if ok {
		s.App = p.App
	} else {
		s = &SourceStream{ID: p.StreamID, App: p.App, FirstSeenAt: r.now()}
		r.sources[p.StreamID] = s
	}
	out := *s
	n := len(r.sources)
	r.mu.Unlock()

	r.setActive(n)
	r.log.Info().Str("event", "publish_start").Str("source", p.StreamID).Bool("republish", ok).Msg("source published")
	return out, nil
}

// OnPublishEnd removes the source published at rawPath. It returns the stream
// id and whether it was active; ending an unknown id is a no-op.
func (r *Registry) OnPublishEnd(rawPath string) (string, bool, error) {
	p, err := r.Parse(rawPath)
	if err != nil {
		return "", false, err
	}
	r.mu.Lock()
	_, ok := r.sources[p.StreamID]
	delete(r.sources, p.StreamID)
	n := len(r.sources)
	r.mu.Unlock()

	r.setActive(n)
	r.log.Info().Str("event", "publish_end").Str("source", p.StreamID).Bool("known", ok).Msg("source unpublished")
	return p.StreamID, ok, nil
}

// OnPlayStart counts a viewer on an active source.
func (r *Registry) OnPlayStart(rawPath string) (string, error) {
	return r.adjustViewers(rawPath, 1)
}

// OnPlayEnd removes a viewer; the count never drops below zero.
func (r *Registry) OnPlayEnd(rawPath string) (string, error) {
	return r.adjustViewers(rawPath, -1)
}

func (r *Registry) adjustViewers(rawPath string, delta int) (string, error) {
	p, err := r.Parse(rawPath)
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sources[p.StreamID]; ok {
		s.Viewers += delta
		if s.Viewers < 0 {
			s.Viewers = 0
		}
	}
	return p.StreamID, nil
}

func (r *Registry) IsActive(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sources[id]
	return ok
}

func (r *Registry) Get(id string) (SourceStream, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[id]
	if !ok {
		return SourceStream{}, false
	}
	return *s, true
}

// List returns the active sources ordered by first-seen time, then id.
func (r *Registry) List() []SourceStream {
	r.mu.RLock()
	out := make([]SourceStream, 0, len(r.sources))
	for _, s := range r.sources {
		out = append(out, *s)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FirstSeenAt.Equal(out[j].FirstSeenAt) {
			return out[i].FirstSeenAt.Before(out[j].FirstSeenAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}

func (r *Registry) setActive(n int) {
	if r.active != nil {
		r.active.Set(float64(n))
	}
}
