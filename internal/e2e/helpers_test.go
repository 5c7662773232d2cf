package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"variantd/internal/httpapi"
	"variantd/internal/ingest"
	"variantd/internal/logsink"
	"variantd/internal/orchestrator"
	"variantd/internal/registry"
	"variantd/internal/supervisor"
	"variantd/internal/supervisor/supervisortest"
)

// stack is the full service wired in-process with a fake transcoder launcher.
type stack struct {
	srv      *httptest.Server
	reg      *registry.Registry
	sup      *supervisor.Supervisor
	sink     *logsink.Sink
	launcher *supervisortest.Launcher
}

func newStack(t *testing.T, cascade bool) *stack {
	t.Helper()
	sink, err := logsink.New(500)
	if err != nil {
		t.Fatalf("sink: %v", err)
	}
	launcher := &supervisortest.Launcher{}
	sup := supervisor.New(supervisor.Config{
		Bin:          "ffmpeg",
		Launcher:     launcher,
		Sink:         sink,
		RunningAfter: -1,
	})
	reg := registry.New(registry.Config{})
	orch := orchestrator.New(orchestrator.Config{
		Sources:                reg,
		Processes:              sup,
		Sink:                   sink,
		PlaybackBase:           "http://127.0.0.1:8000",
		CascadeStopOnUnpublish: cascade,
	})
	bridge := ingest.NewBridge(reg, orch, sink, zerolog.Nop())
	srv := httptest.NewServer(httpapi.NewMux(orch, httpapi.Options{Logs: sink, Hooks: bridge}))
	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = sup.Shutdown(ctx)
	})
	return &stack{srv: srv, reg: reg, sup: sup, sink: sink, launcher: launcher}
}

func (s *stack) hook(t *testing.T, kind, stream string) {
	t.Helper()
	body := `{"action":"on_` + kind + `","app":"live","stream":"` + stream + `"}`
	resp, b := httpPostJSON(t, s.srv.URL+"/hooks/"+kind, []byte(body))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("hook %s %s: %d %s", kind, stream, resp.StatusCode, string(b))
	}
}

func decode(t *testing.T, body []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("decode %s: %v", string(body), err)
	}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}
