package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"vidgend/internal/engine"
	"vidgend/internal/loader"
	"vidgend/internal/manager"
	"vidgend/internal/retention"
	"vidgend/pkg/types"
)

func testLogger() zerolog.Logger { return zerolog.Nop() }

// newIdleManager builds a real manager whose workers are never started, so
// admitted jobs stay queued.
func newIdleManager(t *testing.T, capacity int) *manager.Manager {
	t.Helper()
	root := t.TempDir()
	ret, err := retention.New(retention.Options{
		OutputDir: filepath.Join(root, "outputs"),
		TempDir:   filepath.Join(root, "temp"),
		Logger:    testLogger(),
	})
	if err != nil {
		t.Fatalf("retention: %v", err)
	}
	return manager.NewWithConfig(manager.ManagerConfig{
		QueueCapacity: capacity,
		Loader:        loader.New(engine.SyntheticTiers(loader.DefaultHeadroomThreshold), loader.StaticProbe{}, testLogger()),
		Engine:        engine.NewSynthetic(ret, testLogger()),
		Retention:     ret,
		Logger:        testLogger(),
	})
}

func TestSubmit_ValidationRejected(t *testing.T) {
	h := NewMux(newIdleManager(t, 5))
	w := postJSON(h, "/jobs", `{"prompt":"","duration":0,"resolution":"64x64"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	body := decodeError(t, w)
	if body.Title != "Validation Error" || body.Retryable {
		t.Fatalf("unexpected body %+v", body)
	}
	if !strings.Contains(body.Error, "Prompt cannot be empty") {
		t.Fatalf("missing complaint: %q", body.Error)
	}
}

func TestSubmit_QueueFullIs429(t *testing.T) {
	m := newIdleManager(t, 1)
	h := NewMux(m)
	if w := postJSON(h, "/jobs", validBody); w.Code != http.StatusAccepted {
		t.Fatalf("first submit status=%d", w.Code)
	}
	w := postJSON(h, "/jobs", validBody)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second submit status=%d", w.Code)
	}
	body := decodeError(t, w)
	if body.Title != "Queue Full" || !body.Retryable {
		t.Fatalf("unexpected body %+v", body)
	}
	if st := m.Status(); st.Pending != 1 || st.Rejected != 1 {
		t.Fatalf("unexpected status %+v", st)
	}

	mrr := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(mrr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !bytes.Contains(mrr.Body.Bytes(), []byte(`vidgend_http_backpressure_total{reason="queue_full"}`)) {
		t.Fatalf("backpressure counter not exported")
	}
}

func TestCancelQueuedJobOverHTTP(t *testing.T) {
	m := newIdleManager(t, 5)
	h := NewMux(m)
	v, err := m.Submit(validRequest())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if w := postJSON(h, "/jobs/"+v.ID+"/cancel", ""); w.Code != http.StatusOK {
		t.Fatalf("cancel status=%d", w.Code)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs/"+v.ID, nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"state":"queued"`) {
		t.Fatalf("job view %d %s", w.Code, w.Body.String())
	}
}

func validRequest() types.GenerateRequest {
	return types.GenerateRequest{Prompt: "ocean sunset", Duration: 1, FPS: 8, Resolution: "64x64"}
}
