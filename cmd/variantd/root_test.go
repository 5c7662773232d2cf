package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadConfigLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "variantd.yaml")
	yml := "addr: \":7000\"\nlog_level: warn\ntranscoder:\n  bin: /opt/ffmpeg/bin/ffmpeg\ningest:\n  app: studio\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	cmd := newServeCmd()
	if err := cmd.ParseFlags([]string{
		"--config", path,
		"--env-file", filepath.Join(dir, "missing.env"),
		"--addr", ":9000",
		"--cascade-stop",
	}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err := loadConfig(cmd, envMap(map[string]string{
		"VARIANTD_LOG_LEVEL": "debug",
		"VARIANTD_ADDR":      ":8000",
	}))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Fatalf("flag should win over env and file, addr=%q", cfg.Addr)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("env should win over file, log_level=%q", cfg.LogLevel)
	}
	if cfg.Transcoder.Bin != "/opt/ffmpeg/bin/ffmpeg" || cfg.Ingest.App != "studio" {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if !cfg.Ingest.CascadeStopOnUnpublish {
		t.Fatalf("--cascade-stop not applied")
	}
	if cfg.LogCapacity != 1000 {
		t.Fatalf("default lost: log_capacity=%d", cfg.LogCapacity)
	}
}

func TestLoadConfigConfigFromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "variantd.toml")
	if err := os.WriteFile(path, []byte("addr = \":7100\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cmd := newServeCmd()
	if err := cmd.ParseFlags([]string{"--env-file", filepath.Join(dir, "missing.env")}); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(cmd, envMap(map[string]string{"VARIANTD_CONFIG": path}))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Addr != ":7100" {
		t.Fatalf("addr=%q", cfg.Addr)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	cmd := newServeCmd()
	if err := cmd.ParseFlags([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env"), "--log-format", "xml"}); err != nil {
		t.Fatal(err)
	}
	_, err := loadConfig(cmd, envMap(nil))
	if err == nil || !strings.Contains(err.Error(), "log_format") {
		t.Fatalf("expected log_format error, got %v", err)
	}
}

func TestLoadConfigTrimsBaseSlashes(t *testing.T) {
	cmd := newServeCmd()
	if err := cmd.ParseFlags([]string{
		"--env-file", filepath.Join(t.TempDir(), "missing.env"),
		"--rtmp-base", "rtmp://10.0.0.2:1935/",
		"--playback-base", "http://10.0.0.2:8000/",
	}); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(cmd, envMap(nil))
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Ingest.RTMPBase != "rtmp://10.0.0.2:1935" || cfg.Ingest.PlaybackBase != "http://10.0.0.2:8000" {
		t.Fatalf("bases not trimmed: %q %q", cfg.Ingest.RTMPBase, cfg.Ingest.PlaybackBase)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPresetsTable(t *testing.T) {
	out, err := execute(t, "presets", "--tier", "low")
	if err != nil {
		t.Fatalf("presets: %v", err)
	}
	if !strings.HasPrefix(out, "TIER") {
		t.Fatalf("missing header:\n%s", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 {
		t.Fatalf("no rows:\n%s", out)
	}
	for _, l := range lines[1:] {
		if !strings.HasPrefix(l, "low ") {
			t.Fatalf("row from another tier: %q", l)
		}
	}
}

func TestPresetsJSON(t *testing.T) {
	out, err := execute(t, "presets", "--json")
	if err != nil {
		t.Fatalf("presets: %v", err)
	}
	var rows []presetRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	tiers := map[string]bool{}
	for _, r := range rows {
		tiers[string(r.Tier)] = true
		if r.Preset.Width <= 0 || r.Preset.Height <= 0 {
			t.Fatalf("bad preset %+v", r)
		}
	}
	for _, want := range []string{"standard", "low", "ultra", "extreme"} {
		if !tiers[want] {
			t.Fatalf("tier %s missing from %v", want, tiers)
		}
	}
}

func TestPresetsBadTier(t *testing.T) {
	if _, err := execute(t, "presets", "--tier", "turbo"); err == nil {
		t.Fatalf("expected error for unknown tier")
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "variantd "+version {
		t.Fatalf("version output %q", out)
	}
}
