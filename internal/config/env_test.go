package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()
	err := ApplyEnv(&cfg, envMap(map[string]string{
		"VARIANTD_ADDR":                      ":9000",
		"VARIANTD_LOG_CAPACITY":              "25",
		"VARIANTD_CORS_ORIGINS":              "http://a, ,http://b",
		"VARIANTD_CASCADE_STOP_ON_UNPUBLISH": "true",
		"VARIANTD_FFMPEG_BIN":                "/usr/local/bin/ffmpeg",
		"VARIANTD_STATS_INTERVAL":            "1m",
		"VARIANTD_REDIS_ADDR":                "localhost:6379",
		"VARIANTD_REDIS_DB":                  "2",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Addr != ":9000" || cfg.LogCapacity != 25 || !cfg.Ingest.CascadeStopOnUnpublish {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if len(cfg.CORS.Origins) != 2 || cfg.CORS.Origins[1] != "http://b" {
		t.Fatalf("origins=%v", cfg.CORS.Origins)
	}
	if cfg.Transcoder.Bin != "/usr/local/bin/ffmpeg" || cfg.Stats.Interval.Duration != time.Minute {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.Redis.Addr != "localhost:6379" || cfg.Redis.DB != 2 {
		t.Fatalf("redis=%+v", cfg.Redis)
	}
	if cfg.Ingest.App != "live" {
		t.Fatalf("unset variable changed app: %q", cfg.Ingest.App)
	}
}

func TestApplyEnvReportsBadValues(t *testing.T) {
	cfg := Default()
	err := ApplyEnv(&cfg, envMap(map[string]string{
		"VARIANTD_LOG_CAPACITY":              "many",
		"VARIANTD_CASCADE_STOP_ON_UNPUBLISH": "maybe",
		"VARIANTD_STATS_INTERVAL":            "often",
	}))
	if err == nil {
		t.Fatalf("expected errors")
	}
	if cfg.LogCapacity != 1000 {
		t.Fatalf("bad value applied: %d", cfg.LogCapacity)
	}
}

func TestLoadDotEnv(t *testing.T) {
	d := t.TempDir()
	p := filepath.Join(d, "test.env")
	if err := os.WriteFile(p, []byte("VARIANTD_TEST_DOTENV=from-file\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("VARIANTD_TEST_DOTENV", "")
	os.Unsetenv("VARIANTD_TEST_DOTENV")
	if err := LoadDotEnv(filepath.Join(d, "missing.env"), p); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("VARIANTD_TEST_DOTENV"); got != "from-file" {
		t.Fatalf("env=%q", got)
	}
}

func TestSplitCSV(t *testing.T) {
	got := SplitCSV(" a, b ,,c ")
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("got %v", got)
	}
	if SplitCSV("") != nil {
		t.Fatalf("empty input should give nil")
	}
}
