package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"variantd/internal/common/fsutil"
	"variantd/internal/config"
	"variantd/internal/eventbus"
	"variantd/internal/httpapi"
	"variantd/internal/ingest"
	"variantd/internal/logsink"
	"variantd/internal/orchestrator"
	"variantd/internal/procstats"
	"variantd/internal/registry"
	"variantd/internal/supervisor"
	"variantd/pkg/types"
)

const shutdownTimeout = 5 * time.Second

// serveDeps carries what serve takes from its caller rather than from config.
type serveDeps struct {
	Logger     zerolog.Logger
	Registerer prometheus.Registerer
	// Launcher overrides how transcoders are started; exec when nil.
	Launcher supervisor.Launcher
	// Ready is called with the bound address once the listener is open.
	Ready func(addr string)
}

// serve runs the control API until ctx is done, then stops every transcoder.
func serve(ctx context.Context, cfg config.Config, deps serveDeps) error {
	log := deps.Logger

	sink, err := logsink.New(cfg.LogCapacity, logsink.WithLogger(log.With().Str("component", "activity").Logger()))
	if err != nil {
		return fmt.Errorf("log sink: %w", err)
	}

	bin, err := fsutil.ResolveExecutable(cfg.Transcoder.Bin)
	if err != nil {
		// Launch failures surface per request.
		log.Warn().Str("event", "transcoder_missing").Str("bin", cfg.Transcoder.Bin).Err(err).Msg("transcoder not found")
		sink.Warn(fmt.Sprintf("transcoder %q not found: %v", cfg.Transcoder.Bin, err))
		bin = cfg.Transcoder.Bin
	}

	var events eventbus.Multi
	var redisPub *eventbus.RedisPublisher
	if cfg.Redis.Addr != "" {
		redisPub, err = eventbus.NewRedisPublisher(eventbus.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Channel:  cfg.Redis.Channel,
			Logger:   log.With().Str("component", "eventbus").Logger(),
		})
		if err != nil {
			return fmt.Errorf("redis events: %w", err)
		}
		events = append(events, redisPub)
		log.Info().Str("event", "eventbus_redis").Str("addr", cfg.Redis.Addr).Str("channel", cfg.Redis.Channel).Msg("publishing lifecycle events")
	}

	sup := supervisor.New(supervisor.Config{
		Bin:           bin,
		Launcher:      deps.Launcher,
		Sink:          sink,
		Logger:        log.With().Str("component", "supervisor").Logger(),
		Events:        events,
		Metrics:       supervisor.NewMetrics(deps.Registerer),
		RunningAfter:  cfg.Transcoder.RunningAfter.Duration,
		ProgressEvery: cfg.Transcoder.ProgressEvery.Duration,
	})
	reg := registry.New(registry.Config{
		App:        cfg.Ingest.App,
		Logger:     log.With().Str("component", "registry").Logger(),
		Registerer: deps.Registerer,
	})
	orch := orchestrator.New(orchestrator.Config{
		Sources:                reg,
		Processes:              sup,
		Sink:                   sink,
		Logger:                 log.With().Str("component", "orchestrator").Logger(),
		RTMPBase:               cfg.Ingest.RTMPBase,
		PlaybackBase:           cfg.Ingest.PlaybackBase,
		ExtraArgs:              cfg.Transcoder.ExtraArgs,
		CascadeStopOnUnpublish: cfg.Ingest.CascadeStopOnUnpublish,
	})
	bridge := ingest.NewBridge(reg, orch, sink, log.With().Str("component", "ingest").Logger())

	interval := cfg.Stats.Interval.Duration
	if interval == 0 {
		interval = -1
	}
	sampler := procstats.New(procstats.Config{
		Processes:  sup,
		Interval:   interval,
		Registerer: deps.Registerer,
		Logger:     log.With().Str("component", "procstats").Logger(),
	})
	if err := sampler.Start(); err != nil {
		return err
	}
	defer sampler.Stop()

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetCORSOptions(cfg.CORS.Enabled, cfg.CORS.Origins, cfg.CORS.Methods, cfg.CORS.Headers)
	mux := httpapi.NewMux(orch, httpapi.Options{
		Logs:  sink,
		Hooks: bridge,
		Stats: sampler,
		Info:  buildServerInfo(cfg, version, localIPv4),
	})

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	addr := ln.Addr().String()
	log.Info().Str("event", "listening").Str("addr", addr).Str("transcoder", bin).Msg("variantd listening")
	sink.Success("control API listening on " + addr)
	sink.Info("publish sources to " + orch.StreamURL("STREAM_KEY"))
	if deps.Ready != nil {
		deps.Ready(addr)
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errc:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Str("event", "shutdown").Err(err).Msg("graceful shutdown error")
	}
	if err := sup.Shutdown(shutdownCtx); err != nil {
		log.Warn().Str("event", "shutdown").Err(err).Msg("transcoders did not exit in time")
	}
	if redisPub != nil {
		if err := redisPub.Close(shutdownCtx); err != nil {
			log.Warn().Str("event", "shutdown").Err(err).Msg("redis publisher close")
		}
	}
	log.Info().Str("event", "stopped").Msg("variantd stopped")

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return nil
}

// buildServerInfo derives the publisher-facing locators from cfg. A loopback
// RTMP host is replaced by lanIP when no public host is configured.
func buildServerInfo(cfg config.Config, ver string, lanIP func() string) types.ServerInfo {
	app := cfg.Ingest.App
	rtmpRoot := cfg.Ingest.RTMPBase
	if u, err := url.Parse(cfg.Ingest.RTMPBase); err == nil && u.Host != "" {
		host := cfg.Ingest.PublicHost
		if host == "" && isLoopback(u.Hostname()) && lanIP != nil {
			host = lanIP()
		}
		if host != "" {
			if port := u.Port(); port != "" {
				u.Host = net.JoinHostPort(host, port)
			} else {
				u.Host = host
			}
		}
		rtmpRoot = u.String()
	}
	info := types.ServerInfo{
		RTMPURL:    rtmpRoot + "/" + app,
		App:        app,
		PublishURL: rtmpRoot + "/" + app + "/STREAM_KEY",
		Version:    ver,
	}
	if cfg.Ingest.PlaybackBase != "" {
		info.PlaybackBaseURL = cfg.Ingest.PlaybackBase + "/" + app
	}
	return info
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// localIPv4 returns the first non-loopback IPv4 address, or "" if none.
func localIPv4() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, a := range addrs {
		if n, ok := a.(*net.IPNet); ok && !n.IP.IsLoopback() {
			if v4 := n.IP.To4(); v4 != nil {
				return v4.String()
			}
		}
	}
	return ""
}
