package orchestrator

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"variantd/internal/logsink"
	"variantd/internal/registry"
	"variantd/internal/supervisor"
	"variantd/internal/variant"
)

// StartResult describes a started (or already running) variant.
type StartResult struct {
	Key            string             `json:"key"`
	OutputStreamID string             `json:"outputStreamId"`
	OutputURL      string             `json:"outputUrl"`
	PlaybackURL    string             `json:"playbackUrl,omitempty"`
	Tier           variant.Tier       `json:"tier"`
	Resolution     string             `json:"resolution"`
	Preset         variant.PresetSpec `json:"preset"`
	AlreadyRunning bool               `json:"alreadyRunning"`
}

// Orchestrator turns variant requests into supervised transcoder processes.
type Orchestrator struct {
	sources   Sources
	procs     Processes
	catalog   *variant.Catalog
	sink      Sink
	log       zerolog.Logger
	rtmpBase  string
	playBase  string
	extraArgs []string
	cascade   bool
}

func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		sources:   cfg.Sources,
		procs:     cfg.Processes,
		catalog:   cfg.Catalog,
		sink:      cfg.Sink,
		log:       cfg.Logger,
		rtmpBase:  strings.TrimRight(cfg.RTMPBase, "/"),
		playBase:  strings.TrimRight(cfg.PlaybackBase, "/"),
		extraArgs: append([]string(nil), cfg.ExtraArgs...),
		cascade:   cfg.CascadeStopOnUnpublish,
	}
	if o.catalog == nil {
		o.catalog = variant.DefaultCatalog()
	}
	if o.sink == nil {
		o.sink = discardSink{}
	}
	if o.rtmpBase == "" {
		o.rtmpBase = DefaultRTMPBase
	}
	return o
}

// Catalog returns the preset catalog variants are built from.
func (o *Orchestrator) Catalog() *variant.Catalog { return o.catalog }

// App returns the ingest application sources and variants live under.
func (o *Orchestrator) App() string { return o.sources.App() }

// StreamURL is the RTMP locator of stream id in the ingest application.
func (o *Orchestrator) StreamURL(id string) string {
	return o.rtmpBase + "/" + o.sources.App() + "/" + id
}

// PlaybackURL is the HTTP-FLV locator of stream id, empty when no playback
// base is configured.
func (o *Orchestrator) PlaybackURL(id string) string {
	if o.playBase == "" {
		return ""
	}
	return o.playBase + "/" + o.sources.App() + "/" + id + ".flv"
}

// StartVariant starts the transcoder for (sourceID, resolution, tier) and
// returns as soon as it is spawned. A variant that is already tracked is
// reported with AlreadyRunning and not spawned again.
func (o *Orchestrator) StartVariant(sourceID, resolution string, tier variant.Tier) (StartResult, error) {
	o.sink.Append(logsink.SeverityInfo, fmt.Sprintf("variant requested: %s -> %s (tier=%s)", sourceID, resolution, tier))

	if !o.sources.IsActive(sourceID) {
		err := ErrSourceNotActive(sourceID)
		o.fail(sourceID, err)
		return StartResult{}, err
	}
	spec, err := o.catalog.Lookup(resolution, tier)
	if err != nil {
		o.fail(sourceID, err)
		return StartResult{}, err
	}
	key, err := o.catalog.DeriveKey(sourceID, resolution, tier)
	if err != nil {
		o.fail(sourceID, err)
		return StartResult{}, err
	}

	id := key.String()
	output := o.StreamURL(id)
	args := variant.BuildArgs(spec, o.StreamURL(sourceID), output, o.extraArgs...)
	started, err := o.procs.Start(supervisor.StartRequest{Key: key, Args: args})
	if err != nil {
		o.fail(sourceID, err)
		return StartResult{}, err
	}

	res := StartResult{
		Key:            id,
		OutputStreamID: id,
		OutputURL:      output,
		PlaybackURL:    o.PlaybackURL(id),
		Tier:           tier,
		Resolution:     resolution,
		Preset:         spec,
		AlreadyRunning: !started,
	}
	if started {
		o.sink.Append(logsink.SeveritySuccess, fmt.Sprintf("%s variant started: %s -> %s", tier, sourceID, resolution))
	} else {
		o.sink.Append(logsink.SeverityInfo, "variant already running: "+id)
	}
	o.log.Info().Str("event", "variant_start").Str("key", id).Bool("already_running", !started).Msg("variant start handled")
	return res, nil
}

func (o *Orchestrator) fail(sourceID string, err error) {
	o.sink.Append(logsink.SeverityError, err.Error())
	o.log.Warn().Str("event", "variant_start_failed").Str("source", sourceID).Err(err).Msg("variant start rejected")
}

// StopVariant stops one variant. It reports false when nothing was running.
func (o *Orchestrator) StopVariant(sourceID, resolution string, tier variant.Tier) (bool, error) {
	key, err := o.catalog.DeriveKey(sourceID, resolution, tier)
	if err != nil {
		return false, err
	}
	return o.procs.Stop(key.String()), nil
}

// StopVariantsForSource stops every variant derived from sourceID.
func (o *Orchestrator) StopVariantsForSource(sourceID string) int {
	n := o.procs.StopWhere(func(p supervisor.ProcessInfo) bool { return p.SourceID == sourceID })
	o.log.Info().Str("event", "variant_stop").Str("source", sourceID).Int("count", n).Msg("source variants stopped")
	return n
}

// StopScoped stops the variants of sourceID, narrowed by resolution and tier
// when those are non-empty.
func (o *Orchestrator) StopScoped(sourceID, resolution, tier string) (int, error) {
	var want variant.Tier
	if tier != "" {
		t, err := variant.ParseTier(tier)
		if err != nil {
			return 0, err
		}
		want = t
	}
	n := o.procs.StopWhere(func(p supervisor.ProcessInfo) bool {
		return p.SourceID == sourceID &&
			(resolution == "" || p.Resolution == resolution) &&
			(want == "" || p.Tier == want)
	})
	o.log.Info().Str("event", "variant_stop").Str("source", sourceID).Str("resolution", resolution).Str("tier", tier).Int("count", n).Msg("scoped stop")
	return n, nil
}

// StopAll stops every running variant.
func (o *Orchestrator) StopAll() int { return o.procs.StopAll() }

// Variants lists the tracked transcoders ordered by key.
func (o *Orchestrator) Variants() []supervisor.ProcessInfo { return o.procs.Snapshot() }

// Sources lists the live sources.
func (o *Orchestrator) Sources() []registry.SourceStream { return o.sources.List() }

// HandlePublishEnded applies the unpublish policy for sourceID and returns
// the number of variants it stopped.
func (o *Orchestrator) HandlePublishEnded(sourceID string) int {
	if !o.cascade {
		return 0
	}
	n := o.StopVariantsForSource(sourceID)
	if n > 0 {
		o.sink.Append(logsink.SeverityInfo, fmt.Sprintf("source %s ended: stopped %d variants", sourceID, n))
	}
	return n
}
