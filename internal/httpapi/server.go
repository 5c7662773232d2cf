package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"variantd/internal/ingest"
	"variantd/internal/logsink"
	"variantd/internal/orchestrator"
	"variantd/internal/procstats"
	"variantd/internal/registry"
	"variantd/internal/supervisor"
	"variantd/internal/variant"
	"variantd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Sources() []registry.SourceStream
	StartVariant(sourceID, resolution string, tier variant.Tier) (orchestrator.StartResult, error)
	StopScoped(sourceID, resolution, tier string) (int, error)
	StopAll() int
	Variants() []supervisor.ProcessInfo
	Catalog() *variant.Catalog
	StreamURL(id string) string
}

// LogSource serves the user-facing log.
type LogSource interface {
	Query(since *time.Time) []logsink.Record
}

// StatsSource returns the latest resource sample of a variant.
type StatsSource interface {
	Latest(key string) (procstats.Sample, bool)
}

// Options carries the optional collaborators of the API.
type Options struct {
	Logs LogSource
	// Hooks receives ingest webhooks; the /hooks routes are not mounted when nil.
	Hooks ingest.Events
	Stats StatsSource
	Info  types.ServerInfo
}

func NewMux(svc Service, opts Options) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	h := &handlers{svc: svc, opts: opts}
	r.Group(func(r chi.Router) {
		r.Use(inflightMiddleware)

		r.Get("/streams", h.listStreams)
		r.Post("/stream/variant/stop/{sourceId}", h.stopVariants)
		r.Post("/stream/variant/{sourceId}/{resolution}", h.startVariant)
		r.Post("/stream/stop-all", h.stopAll)
		r.Get("/variants", h.listVariants)
		r.Get("/resolutions", h.listResolutions)
		r.Get("/server-info", h.serverInfo)
		if opts.Logs != nil {
			r.Get("/logs", h.logs)
		}
		if opts.Hooks != nil {
			r.Post("/hooks/{kind}", h.hook)
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return MetricsMiddleware(r)
}

type handlers struct {
	svc  Service
	opts Options
}

// listStreams godoc
// @Summary  List live sources
// @Tags     streams
// @Produce  json
// @Success  200 {array} types.StreamInfo
// @Router   /streams [get]
func (h *handlers) listStreams(w http.ResponseWriter, r *http.Request) {
	sources := h.svc.Sources()
	out := make([]types.StreamInfo, 0, len(sources))
	for _, s := range sources {
		out = append(out, types.StreamInfo{App: s.App, Stream: s.ID, Viewers: s.Viewers, PublishedAt: s.FirstSeenAt})
	}
	writeJSON(w, http.StatusOK, out)
}

// startVariant godoc
// @Summary  Start a transcoded variant of a live source
// @Tags     variants
// @Produce  json
// @Param    sourceId   path  string true  "Source stream id"
// @Param    resolution path  string true  "Resolution, e.g. 480p"
// @Param    tier       query string false "standard (default), low, ultra or extreme"
// @Success  200 {object} orchestrator.StartResult
// @Failure  400 {object} types.ErrorResponse
// @Failure  404 {object} types.ErrorResponse
// @Failure  502 {object} types.ErrorResponse
// @Router   /stream/variant/{sourceId}/{resolution} [post]
func (h *handlers) startVariant(w http.ResponseWriter, r *http.Request) {
	tier, err := variant.ParseTier(r.URL.Query().Get("tier"))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.StartVariant(chi.URLParam(r, "sourceId"), chi.URLParam(r, "resolution"), tier)
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// stopVariants godoc
// @Summary  Stop the variants of a source
// @Tags     variants
// @Produce  json
// @Param    sourceId   path  string true  "Source stream id"
// @Param    tier       query string false "Only this tier"
// @Param    resolution query string false "Only this resolution"
// @Success  200 {object} types.StopResponse
// @Failure  400 {object} types.ErrorResponse
// @Router   /stream/variant/stop/{sourceId} [post]
func (h *handlers) stopVariants(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	n, err := h.svc.StopScoped(chi.URLParam(r, "sourceId"), q.Get("resolution"), q.Get("tier"))
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, types.StopResponse{Stopped: n})
}

// stopAll godoc
// @Summary  Stop every running variant
// @Tags     variants
// @Produce  json
// @Success  200 {object} types.StopResponse
// @Router   /stream/stop-all [post]
func (h *handlers) stopAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.StopResponse{Stopped: h.svc.StopAll()})
}

// listVariants godoc
// @Summary  List tracked variants
// @Tags     variants
// @Produce  json
// @Success  200 {array} types.VariantStatus
// @Router   /variants [get]
func (h *handlers) listVariants(w http.ResponseWriter, r *http.Request) {
	procs := h.svc.Variants()
	out := make([]types.VariantStatus, 0, len(procs))
	for _, p := range procs {
		vs := types.VariantStatus{
			Key:        p.Key,
			SourceID:   p.SourceID,
			Resolution: p.Resolution,
			Tier:       string(p.Tier),
			State:      string(p.State),
			PID:        p.PID,
			StartedAt:  p.StartedAt,
			OutputURL:  h.svc.StreamURL(p.OutputStreamID),
		}
		if h.opts.Stats != nil {
			if smp, ok := h.opts.Stats.Latest(p.Key); ok {
				vs.Stats = &types.ProcessStats{CPUPercent: smp.CPUPercent, RSSBytes: smp.RSSBytes, SampledAt: smp.SampledAt}
			}
		}
		out = append(out, vs)
	}
	writeJSON(w, http.StatusOK, out)
}

// listResolutions godoc
// @Summary  List resolutions per tier
// @Tags     variants
// @Produce  json
// @Param    tier query string false "Restrict to one tier"
// @Success  200 {object} map[string][]string
// @Failure  400 {object} types.ErrorResponse
// @Router   /resolutions [get]
func (h *handlers) listResolutions(w http.ResponseWriter, r *http.Request) {
	cat := h.svc.Catalog()
	tiers := variant.Tiers()
	if raw := r.URL.Query().Get("tier"); raw != "" {
		t, err := variant.ParseTier(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		tiers = []variant.Tier{t}
	}
	out := make(map[string][]string, len(tiers))
	for _, t := range tiers {
		out[string(t)] = cat.Resolutions(t)
	}
	writeJSON(w, http.StatusOK, out)
}

// serverInfo godoc
// @Summary  Where to publish and play
// @Tags     server
// @Produce  json
// @Success  200 {object} types.ServerInfo
// @Router   /server-info [get]
func (h *handlers) serverInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.opts.Info)
}

// logs godoc
// @Summary  Read the activity log
// @Tags     logs
// @Produce  json
// @Param    since query string false "RFC3339Nano timestamp; only newer records are returned"
// @Success  200 {array} logsink.Record
// @Failure  400 {object} types.ErrorResponse
// @Router   /logs [get]
func (h *handlers) logs(w http.ResponseWriter, r *http.Request) {
	var since *time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("since")); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "since must be an RFC3339 timestamp")
			return
		}
		since = &t
	}
	writeJSON(w, http.StatusOK, h.opts.Logs.Query(since))
}
