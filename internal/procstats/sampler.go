// Package procstats samples CPU and memory of running transcoders on a
// schedule and exports the latest values.
package procstats

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"variantd/internal/supervisor"
)

// DefaultInterval is how often running transcoders are sampled.
const DefaultInterval = 15 * time.Second

// Sample is one resource reading of a transcoder.
type Sample struct {
	PID        int       `json:"pid"`
	CPUPercent float64   `json:"cpuPercent"`
	RSSBytes   uint64    `json:"rssBytes"`
	SampledAt  time.Time `json:"sampledAt"`
}

// Processes lists the transcoders to sample.
type Processes interface {
	Snapshot() []supervisor.ProcessInfo
}

// Config configures a Sampler. Processes is required.
type Config struct {
	Processes Processes
	// Source defaults to a gopsutil ProcessSource.
	Source Source
	// Interval between samples; zero means DefaultInterval. Negative
	// disables scheduled sampling.
	Interval   time.Duration
	Registerer prometheus.Registerer
	Logger     zerolog.Logger
}

// Sampler keeps the latest Sample per variant key.
type Sampler struct {
	procs    Processes
	source   Source
	interval time.Duration
	log      zerolog.Logger
	now      func() time.Time

	cpu *prometheus.GaugeVec
	rss *prometheus.GaugeVec

	mu     sync.RWMutex
	latest map[string]Sample
	cron   *cron.Cron
}

func New(cfg Config) *Sampler {
	s := &Sampler{
		procs:    cfg.Processes,
		source:   cfg.Source,
		interval: cfg.Interval,
		log:      cfg.Logger,
		now:      time.Now,
		latest:   make(map[string]Sample),
	}
	if s.source == nil {
		s.source = NewProcessSource()
	}
	if s.interval == 0 {
		s.interval = DefaultInterval
	}
	if cfg.Registerer != nil {
		s.cpu = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "variantd",
			Subsystem: "variant",
			Name:      "cpu_percent",
			Help:      "CPU usage of the transcoder behind a variant.",
		}, []string{"key"})
		s.rss = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "variantd",
			Subsystem: "variant",
			Name:      "rss_bytes",
			Help:      "Resident memory of the transcoder behind a variant.",
		}, []string{"key"})
		cfg.Registerer.MustRegister(s.cpu, s.rss)
	}
	return s
}

// Start schedules sampling. It is a no-op when sampling is disabled.
func (s *Sampler) Start() error {
	if s.interval < 0 {
		return nil
	}
	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.interval), s.SampleOnce); err != nil {
		return fmt.Errorf("schedule sampler: %w", err)
	}
	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()
	c.Start()
	s.log.Info().Str("event", "procstats_start").Dur("interval", s.interval).Msg("process sampler started")
	return nil
}

// Stop cancels the schedule and waits for a running sample to finish.
func (s *Sampler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// SampleOnce reads every tracked transcoder once and drops state for keys
// that are no longer tracked.
func (s *Sampler) SampleOnce() {
	infos := s.procs.Snapshot()
	next := make(map[string]Sample, len(infos))
	live := make(map[int]struct{}, len(infos))
	for _, p := range infos {
		if p.PID <= 0 {
			continue
		}
		live[p.PID] = struct{}{}
		cpu, rss, err := s.source.Sample(p.PID)
		if err != nil {
			s.log.Debug().Str("event", "procstats_sample").Str("key", p.Key).Int("pid", p.PID).Err(err).Msg("sample failed")
			continue
		}
		next[p.Key] = Sample{PID: p.PID, CPUPercent: cpu, RSSBytes: rss, SampledAt: s.now()}
	}
	s.source.Forget(live)

	s.mu.Lock()
	prev := s.latest
	s.latest = next
	s.mu.Unlock()

	if s.cpu == nil {
		return
	}
	for key := range prev {
		if _, ok := next[key]; !ok {
			s.cpu.DeleteLabelValues(key)
			s.rss.DeleteLabelValues(key)
		}
	}
	for key, smp := range next {
		s.cpu.WithLabelValues(key).Set(smp.CPUPercent)
		s.rss.WithLabelValues(key).Set(float64(smp.RSSBytes))
	}
}

// Latest returns the most recent sample for key.
func (s *Sampler) Latest(key string) (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	smp, ok := s.latest[key]
	return smp, ok
}
