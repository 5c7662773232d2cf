package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VARIANTD_"

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides cfg with VARIANTD_* variables read through getenv
// (os.Getenv when nil). Unset or empty variables leave cfg unchanged.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	e := envReader{get: getenv}
	e.str("ADDR", &cfg.Addr)
	e.str("LOG_LEVEL", &cfg.LogLevel)
	e.str("LOG_FORMAT", &cfg.LogFormat)
	e.int("LOG_CAPACITY", &cfg.LogCapacity)

	e.bool("CORS_ENABLED", &cfg.CORS.Enabled)
	e.list("CORS_ORIGINS", &cfg.CORS.Origins)

	e.str("INGEST_APP", &cfg.Ingest.App)
	e.str("RTMP_BASE", &cfg.Ingest.RTMPBase)
	e.str("PLAYBACK_BASE", &cfg.Ingest.PlaybackBase)
	e.str("PUBLIC_HOST", &cfg.Ingest.PublicHost)
	e.bool("CASCADE_STOP_ON_UNPUBLISH", &cfg.Ingest.CascadeStopOnUnpublish)

	e.str("FFMPEG_BIN", &cfg.Transcoder.Bin)
	e.list("FFMPEG_EXTRA_ARGS", &cfg.Transcoder.ExtraArgs)
	e.dur("RUNNING_AFTER", &cfg.Transcoder.RunningAfter)

	e.dur("STATS_INTERVAL", &cfg.Stats.Interval)

	e.str("REDIS_ADDR", &cfg.Redis.Addr)
	e.str("REDIS_USERNAME", &cfg.Redis.Username)
	e.str("REDIS_PASSWORD", &cfg.Redis.Password)
	e.int("REDIS_DB", &cfg.Redis.DB)
	e.str("REDIS_CHANNEL", &cfg.Redis.Channel)
	return errors.Join(e.errs...)
}

type envReader struct {
	get  func(string) string
	errs []error
}

func (e *envReader) lookup(name string) (string, bool) {
	v := strings.TrimSpace(e.get(EnvPrefix + name))
	return v, v != ""
}

func (e *envReader) str(name string, dst *string) {
	if v, ok := e.lookup(name); ok {
		*dst = v
	}
}

func (e *envReader) int(name string, dst *int) {
	if v, ok := e.lookup(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = n
	}
}

func (e *envReader) bool(name string, dst *bool) {
	if v, ok := e.lookup(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = b
	}
}

func (e *envReader) dur(name string, dst *Duration) {
	if v, ok := e.lookup(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
			return
		}
		dst.Duration = d
	}
}

// list splits a comma separated value, dropping empty items.
func (e *envReader) list(name string, dst *[]string) {
	if v, ok := e.lookup(name); ok {
		*dst = SplitCSV(v)
	}
}

// SplitCSV splits s on commas and trims each item, dropping empty ones.
func SplitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
