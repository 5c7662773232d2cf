package orchestrator

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"variantd/internal/logsink"
	"variantd/internal/registry"
	"variantd/internal/supervisor"
	"variantd/internal/supervisor/supervisortest"
	"variantd/internal/variant"
)

type harness struct {
	reg  *registry.Registry
	sup  *supervisor.Supervisor
	fake *supervisortest.Launcher
	sink *logsink.Sink
	orch *Orchestrator
}

func newHarness(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()
	sink, err := logsink.New(200)
	if err != nil {
		t.Fatalf("sink: %v", err)
	}
	h := &harness{reg: registry.New(registry.Config{}), fake: &supervisortest.Launcher{}, sink: sink}
	h.sup = supervisor.New(supervisor.Config{Launcher: h.fake, Sink: sink, RunningAfter: -1})
	cfg := Config{
		Sources:      h.reg,
		Processes:    h.sup,
		Sink:         sink,
		RTMPBase:     "rtmp://127.0.0.1:1935",
		PlaybackBase: "http://127.0.0.1:8000",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	h.orch = New(cfg)
	return h
}

func (h *harness) publish(t *testing.T, id string) {
	t.Helper()
	if _, err := h.reg.OnPublishStart("/live/" + id); err != nil {
		t.Fatalf("publish %s: %v", id, err)
	}
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met: %s", msg)
}

func TestStartVariantForActiveSource(t *testing.T) {
	h := newHarness(t, nil)
	h.publish(t, "s")

	res, err := h.orch.StartVariant("s", "480p", variant.TierLow)
	if err != nil {
		t.Fatalf("StartVariant: %v", err)
	}
	if res.OutputStreamID != "s_480p_low" || res.Key != res.OutputStreamID || res.AlreadyRunning {
		t.Fatalf("result=%+v", res)
	}
	if res.OutputURL != "rtmp://127.0.0.1:1935/live/s_480p_low" {
		t.Fatalf("output url=%s", res.OutputURL)
	}
	if res.PlaybackURL != "http://127.0.0.1:8000/live/s_480p_low.flv" {
		t.Fatalf("playback url=%s", res.PlaybackURL)
	}
	if res.Preset.CRF != 28 || res.Preset.Width != 480 {
		t.Fatalf("preset=%+v", res.Preset)
	}
	args := strings.Join(h.fake.Args(0), " ")
	if !strings.Contains(args, "-i rtmp://127.0.0.1:1935/live/s ") || !strings.HasSuffix(args, "-f flv rtmp://127.0.0.1:1935/live/s_480p_low") {
		t.Fatalf("argv=%s", args)
	}
	if got := h.orch.Sources(); len(got) != 1 || got[0].ID != "s" {
		t.Fatalf("sources=%+v", got)
	}
	if v := h.orch.Variants(); len(v) != 1 || v[0].Key != "s_480p_low" {
		t.Fatalf("variants=%+v", v)
	}
}

func TestStartVariantStandardTierKey(t *testing.T) {
	h := newHarness(t, nil)
	h.publish(t, "s")
	res, err := h.orch.StartVariant("s", "480p", variant.TierStandard)
	if err != nil || res.OutputStreamID != "s_480p_standard" {
		t.Fatalf("res=%+v err=%v", res, err)
	}
}

func TestStartVariantWithoutSource(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.orch.StartVariant("ghost", "480p", variant.TierLow)
	if !IsSourceNotActive(err) {
		t.Fatalf("want source not active, got %v", err)
	}
	if h.fake.Launches() != 0 || len(h.orch.Variants()) != 0 {
		t.Fatalf("spawned for inactive source")
	}
	recs := h.sink.Query(nil)
	if last := recs[len(recs)-1]; last.Severity != logsink.SeverityError {
		t.Fatalf("failure not logged as error: %+v", last)
	}
}

func TestStartVariantPresetErrors(t *testing.T) {
	h := newHarness(t, nil)
	h.publish(t, "s")
	if _, err := h.orch.StartVariant("s", "240p", variant.TierUltra); !variant.IsPresetNotFound(err) {
		t.Fatalf("want preset not found, got %v", err)
	}
	if _, err := h.orch.StartVariant("s", "4k", variant.TierLow); !variant.IsInvalidPreset(err) {
		t.Fatalf("want invalid preset, got %v", err)
	}
	if h.fake.Launches() != 0 {
		t.Fatalf("spawned for a bad preset")
	}
}

func TestStartVariantTwiceIsAlreadyRunning(t *testing.T) {
	h := newHarness(t, nil)
	h.publish(t, "s")
	first, _ := h.orch.StartVariant("s", "720p", variant.TierUltra)
	second, err := h.orch.StartVariant("s", "720p", variant.TierUltra)
	if err != nil || !second.AlreadyRunning || second.Key != first.Key {
		t.Fatalf("second=%+v err=%v", second, err)
	}
	if h.fake.Launches() != 1 {
		t.Fatalf("launches=%d", h.fake.Launches())
	}
}

func TestConcurrentStartVariant(t *testing.T) {
	h := newHarness(t, nil)
	h.publish(t, "s")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.orch.StartVariant("s", "480p", variant.TierExtreme); err != nil {
				t.Errorf("StartVariant: %v", err)
			}
		}()
	}
	wg.Wait()
	if h.fake.Launches() != 1 {
		t.Fatalf("launches=%d want 1", h.fake.Launches())
	}
}

func TestStartVariantLaunchFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.fake.Err = errors.New("executable file not found")
	h.publish(t, "s")
	if _, err := h.orch.StartVariant("s", "480p", variant.TierLow); !supervisor.IsLaunchFailed(err) {
		t.Fatalf("want launch failed, got %v", err)
	}
	if len(h.orch.Variants()) != 0 {
		t.Fatalf("residual variant after failed launch")
	}
}

func TestStopScoped(t *testing.T) {
	h := newHarness(t, nil)
	h.publish(t, "a")
	h.publish(t, "b")
	for _, req := range []struct {
		src, res string
		tier     variant.Tier
	}{
		{"a", "480p", variant.TierLow},
		{"a", "720p", variant.TierLow},
		{"a", "720p", variant.TierUltra},
		{"b", "480p", variant.TierLow},
	} {
		if _, err := h.orch.StartVariant(req.src, req.res, req.tier); err != nil {
			t.Fatalf("start %+v: %v", req, err)
		}
	}
	if _, err := h.orch.StopScoped("a", "", "turbo"); !variant.IsInvalidPreset(err) {
		t.Fatalf("bad tier accepted: %v", err)
	}
	n, err := h.orch.StopScoped("a", "720p", "")
	if err != nil || n != 2 {
		t.Fatalf("stopped=%d err=%v", n, err)
	}
	n, _ = h.orch.StopScoped("a", "", "low")
	if n != 1 {
		t.Fatalf("stopped=%d want 1", n)
	}
	waitFor(t, func() bool { return len(h.orch.Variants()) == 1 }, "only b remains")
	if ok, _ := h.orch.StopVariant("b", "480p", variant.TierLow); !ok {
		t.Fatalf("StopVariant returned false")
	}
	if ok, _ := h.orch.StopVariant("b", "480p", variant.TierLow); ok {
		t.Fatalf("stopping a stopped variant should report false")
	}
}

func TestUnpublishWithoutCascadeKeepsVariants(t *testing.T) {
	h := newHarness(t, nil)
	h.publish(t, "s")
	_, _ = h.orch.StartVariant("s", "480p", variant.TierLow)
	_, _, _ = h.reg.OnPublishEnd("/live/s")
	if n := h.orch.HandlePublishEnded("s"); n != 0 {
		t.Fatalf("non-cascading policy stopped %d variants", n)
	}
	if h.reg.IsActive("s") {
		t.Fatalf("source still active")
	}
	if len(h.orch.Variants()) != 1 {
		t.Fatalf("variant should outlive its source")
	}
	if _, err := h.orch.StartVariant("s", "720p", variant.TierLow); !IsSourceNotActive(err) {
		t.Fatalf("new variant for ended source: %v", err)
	}
}

func TestUnpublishWithCascadeStopsVariants(t *testing.T) {
	h := newHarness(t, func(c *Config) { c.CascadeStopOnUnpublish = true })
	h.publish(t, "s")
	h.publish(t, "t")
	_, _ = h.orch.StartVariant("s", "480p", variant.TierLow)
	_, _ = h.orch.StartVariant("s", "720p", variant.TierUltra)
	_, _ = h.orch.StartVariant("t", "480p", variant.TierLow)
	if n := h.orch.HandlePublishEnded("s"); n != 2 {
		t.Fatalf("stopped=%d want 2", n)
	}
	waitFor(t, func() bool { return len(h.orch.Variants()) == 1 }, "only t remains")
}

func TestExitThenRestart(t *testing.T) {
	h := newHarness(t, nil)
	h.publish(t, "s")
	_, _ = h.orch.StartVariant("s", "480p", variant.TierLow)
	h.fake.Handle(0).Exit(1)
	waitFor(t, func() bool { return len(h.orch.Variants()) == 0 }, "entry removed on exit")
	res, err := h.orch.StartVariant("s", "480p", variant.TierLow)
	if err != nil || res.AlreadyRunning {
		t.Fatalf("restart: %+v %v", res, err)
	}
}

func TestExtraArgsAndDefaults(t *testing.T) {
	h := newHarness(t, func(c *Config) {
		c.RTMPBase = ""
		c.PlaybackBase = ""
		c.ExtraArgs = []string{"-threads", "2"}
	})
	h.publish(t, "s")
	res, _ := h.orch.StartVariant("s", "480p", variant.TierLow)
	if res.PlaybackURL != "" || !strings.HasPrefix(res.OutputURL, DefaultRTMPBase+"/live/") {
		t.Fatalf("res=%+v", res)
	}
	args := strings.Join(h.fake.Args(0), " ")
	if !strings.Contains(args, "-threads 2 -f flv ") {
		t.Fatalf("extra args misplaced: %s", args)
	}
}
