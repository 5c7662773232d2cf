package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
)

// Validate reports every invalid field in cfg.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		errs = append(errs, fmt.Errorf("log_format must be json or console, got %q", c.LogFormat))
	}
	if c.LogCapacity <= 0 {
		errs = append(errs, fmt.Errorf("log_capacity must be positive, got %d", c.LogCapacity))
	}
	if c.Ingest.App == "" || strings.ContainsAny(c.Ingest.App, "/?") {
		errs = append(errs, fmt.Errorf("ingest.app %q must be a single path segment", c.Ingest.App))
	}
	if u, err := url.Parse(c.Ingest.RTMPBase); err != nil || (u.Scheme != "rtmp" && u.Scheme != "rtmps") || u.Host == "" {
		errs = append(errs, fmt.Errorf("ingest.rtmp_base %q must be an rtmp:// url", c.Ingest.RTMPBase))
	}
	if c.Ingest.PlaybackBase != "" {
		if u, err := url.Parse(c.Ingest.PlaybackBase); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("ingest.playback_base %q must be an http(s) url", c.Ingest.PlaybackBase))
		}
	}
	if strings.TrimSpace(c.Transcoder.Bin) == "" {
		errs = append(errs, errors.New("transcoder.bin is required"))
	}
	if c.Stats.Interval.Duration < 0 {
		errs = append(errs, errors.New("stats.interval must not be negative"))
	}
	if c.Redis.DB < 0 {
		errs = append(errs, errors.New("redis.db must not be negative"))
	}
	return errors.Join(errs...)
}
