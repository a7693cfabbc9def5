package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vidgend/internal/engine"
	"vidgend/internal/httpapi"
	"vidgend/internal/loader"
	"vidgend/internal/manager"
	"vidgend/internal/retention"
	"vidgend/pkg/types"
)

type stack struct {
	srv *httptest.Server
	mgr *manager.Manager
	ret *retention.Manager
	syn *engine.Synthetic
}

// newStack wires the real pipeline behind an httptest server and starts the workers.
func newStack(t *testing.T, probe loader.Probe, tune func(*engine.Synthetic, *manager.ManagerConfig)) *stack {
	t.Helper()
	root := t.TempDir()
	log := zerolog.Nop()
	ret, err := retention.New(retention.Options{
		OutputDir: filepath.Join(root, "outputs"),
		TempDir:   filepath.Join(root, "temp"),
		Logger:    log,
	})
	if err != nil {
		t.Fatalf("retention: %v", err)
	}
	if probe == nil {
		probe = loader.StaticProbe{Accelerator: true, Headroom: 16}
	}
	syn := engine.NewSynthetic(ret, log)
	cfg := manager.ManagerConfig{
		QueueCapacity: 10,
		Loader:        loader.New(engine.SyntheticTiers(loader.DefaultHeadroomThreshold), probe, log),
		Engine:        syn,
		Retention:     ret,
		Logger:        log,
	}
	if tune != nil {
		tune(syn, &cfg)
	}
	mgr := manager.NewWithConfig(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = mgr.Run(ctx)
	}()
	srv := httptest.NewServer(httpapi.NewMux(mgr))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	s := &stack{srv: srv, mgr: mgr, ret: ret, syn: syn}
	s.waitReady(t)
	return s
}

func (s *stack) waitReady(t *testing.T) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, _ := httpGet(t, s.srv.URL+"/readyz")
		if resp.StatusCode == http.StatusOK {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("/readyz did not become ready; last=%d", resp.StatusCode)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// poll fetches the job until it reaches a terminal state.
func (s *stack) poll(t *testing.T, id string) types.JobView {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, body := httpGet(t, s.srv.URL+"/jobs/"+id)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("GET /jobs/%s %d %s", id, resp.StatusCode, body)
		}
		var v types.JobView
		mustJSON(t, body, &v)
		switch v.State {
		case manager.JobSucceeded, manager.JobPartial, manager.JobFailed, manager.JobCancelled:
			return v
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s stuck in %s", id, v.State)
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

func httpPostJSON(t *testing.T, url string, payload any) (*http.Response, []byte) {
	t.Helper()
	var b []byte
	switch p := payload.(type) {
	case nil:
	case string:
		b = []byte(p)
	default:
		var err error
		if b, err = json.Marshal(p); err != nil {
			t.Fatalf("marshal: %v", err)
		}
	}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(b))
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

func mustJSON(t *testing.T, body []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("json: %v body=%s", err, body)
	}
}

func oceanSunset() types.GenerateRequest {
	return types.GenerateRequest{Prompt: "ocean sunset", Duration: 1, FPS: 8, Resolution: "64x64"}
}
