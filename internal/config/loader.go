package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration written as a Go duration string ("15s") in
// every config format.
type Duration struct{ time.Duration }

func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return fmt.Errorf("duration %q: %w", string(b), err)
	}
	d.Duration = v
	return nil
}

// Config holds runtime parameters for the service.
type Config struct {
	Addr        string `json:"addr" yaml:"addr" toml:"addr"`
	LogLevel    string `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat   string `json:"log_format" yaml:"log_format" toml:"log_format"`
	LogCapacity int    `json:"log_capacity" yaml:"log_capacity" toml:"log_capacity"`

	CORS       CORSConfig       `json:"cors" yaml:"cors" toml:"cors"`
	Ingest     IngestConfig     `json:"ingest" yaml:"ingest" toml:"ingest"`
	Transcoder TranscoderConfig `json:"transcoder" yaml:"transcoder" toml:"transcoder"`
	Stats      StatsConfig      `json:"stats" yaml:"stats" toml:"stats"`
	Redis      RedisConfig      `json:"redis" yaml:"redis" toml:"redis"`
}

type CORSConfig struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Origins []string `json:"origins" yaml:"origins" toml:"origins"`
	Methods []string `json:"methods" yaml:"methods" toml:"methods"`
	Headers []string `json:"headers" yaml:"headers" toml:"headers"`
}

// IngestConfig describes the RTMP ingest engine sources publish to.
type IngestConfig struct {
	App          string `json:"app" yaml:"app" toml:"app"`
	RTMPBase     string `json:"rtmp_base" yaml:"rtmp_base" toml:"rtmp_base"`
	PlaybackBase string `json:"playback_base" yaml:"playback_base" toml:"playback_base"`
	// PublicHost is advertised to publishers in /server-info; defaults to
	// the RTMP base host.
	PublicHost             string `json:"public_host" yaml:"public_host" toml:"public_host"`
	CascadeStopOnUnpublish bool   `json:"cascade_stop_on_unpublish" yaml:"cascade_stop_on_unpublish" toml:"cascade_stop_on_unpublish"`
}

type TranscoderConfig struct {
	Bin           string   `json:"bin" yaml:"bin" toml:"bin"`
	ExtraArgs     []string `json:"extra_args" yaml:"extra_args" toml:"extra_args"`
	RunningAfter  Duration `json:"running_after" yaml:"running_after" toml:"running_after"`
	ProgressEvery Duration `json:"progress_every" yaml:"progress_every" toml:"progress_every"`
}

type StatsConfig struct {
	// Interval between process samples; 0 disables sampling.
	Interval Duration `json:"interval" yaml:"interval" toml:"interval"`
}

type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr" toml:"addr"`
	Username string `json:"username" yaml:"username" toml:"username"`
	Password string `json:"password" yaml:"password" toml:"password"`
	DB       int    `json:"db" yaml:"db" toml:"db"`
	Channel  string `json:"channel" yaml:"channel" toml:"channel"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Addr:        ":8080",
		LogLevel:    "info",
		LogFormat:   "json",
		LogCapacity: 1000,
		CORS: CORSConfig{
			Methods: []string{"GET", "POST", "OPTIONS"},
			Headers: []string{"Content-Type"},
		},
		Ingest: IngestConfig{
			App:      "live",
			RTMPBase: "rtmp://127.0.0.1:1935",
		},
		Transcoder: TranscoderConfig{
			Bin:           "ffmpeg",
			RunningAfter:  Duration{2 * time.Second},
			ProgressEvery: Duration{5 * time.Second},
		},
		Stats: StatsConfig{Interval: Duration{15 * time.Second}},
		Redis: RedisConfig{Channel: "variantd:events"},
	}
}

// Load reads a configuration file based on its extension on top of Default.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
