package manager

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vidgend/internal/engine"
	"vidgend/internal/loader"
	"vidgend/internal/retention"
	"vidgend/pkg/types"
)

type fixture struct {
	m   *Manager
	ret *retention.Manager
	pub *MemoryPublisher
	ld  *loader.Loader
	syn *engine.Synthetic
}

// newFixture wires a manager over a synthetic engine unless eng is given.
func newFixture(t *testing.T, eng engine.Engine, mutate func(*ManagerConfig)) *fixture {
	t.Helper()
	root := t.TempDir()
	ret, err := retention.New(retention.Options{
		OutputDir: filepath.Join(root, "outputs"),
		TempDir:   filepath.Join(root, "temp"),
		Logger:    zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("retention: %v", err)
	}
	f := &fixture{ret: ret, pub: NewMemoryPublisher()}
	f.syn = engine.NewSynthetic(ret, zerolog.Nop())
	if eng == nil {
		eng = f.syn
	}
	f.ld = loader.New(engine.SyntheticTiers(8), loader.StaticProbe{Accelerator: true, Headroom: 16}, zerolog.Nop())
	cfg := ManagerConfig{
		QueueCapacity: 10,
		Loader:        f.ld,
		Engine:        eng,
		Retention:     ret,
		Publisher:     f.pub,
		Logger:        zerolog.Nop(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	f.m = NewWithConfig(cfg)
	return f
}

// start runs the workers until the test ends.
func (f *fixture) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.m.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Errorf("manager did not stop")
		}
	})
	deadline := time.Now().Add(2 * time.Second)
	for !f.m.Ready() {
		if time.Now().After(deadline) {
			t.Fatalf("manager never became ready")
		}
		time.Sleep(time.Millisecond)
	}
}

func (f *fixture) wait(t *testing.T, id string) (types.JobView, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := f.m.Wait(ctx, id)
	if ctx.Err() != nil {
		t.Fatalf("job %s did not finish", id)
	}
	return v, err
}

func validReq() types.GenerateRequest {
	return types.GenerateRequest{Prompt: "ocean sunset", Duration: 1, FPS: 8, Resolution: "64x64", SceneCount: 1}
}

// funcEngine adapts a function to engine.Engine.
type funcEngine func(ctx context.Context, h loader.Handle, req engine.Request, progress engine.ProgressFunc, cancel engine.Canceller) (string, error)

func (f funcEngine) Generate(ctx context.Context, h loader.Handle, req engine.Request, progress engine.ProgressFunc, cancel engine.Canceller) (string, error) {
	return f(ctx, h, req, progress, cancel)
}

// recordingEngine wraps the synthetic engine and remembers prompts in call order.
type recordingEngine struct {
	inner *engine.Synthetic
	mu    sync.Mutex
	order []string
}

func (r *recordingEngine) Generate(ctx context.Context, h loader.Handle, req engine.Request, progress engine.ProgressFunc, cancel engine.Canceller) (string, error) {
	r.mu.Lock()
	r.order = append(r.order, req.Prompt)
	r.mu.Unlock()
	return r.inner.Generate(ctx, h, req, progress, cancel)
}

// fakeMuxer writes a merged file next to the video or fails.
type fakeMuxer struct {
	paths engine.PathSource
	err   error
	calls int
}

func (f *fakeMuxer) Mux(_ context.Context, videoPath, audioPath string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	out := f.paths.ArtifactPath("video_music", ".mp4")
	if err := writeBytes(out); err != nil {
		return "", err
	}
	return out, nil
}

func writeBytes(p string) error { return os.WriteFile(p, []byte("merged"), 0o644) }

// failingLoader never yields a resource.
type failingLoader struct{}

func (failingLoader) Acquire(context.Context) (*loader.Lease, error) {
	return nil, &loader.ChainError{Attempts: 4, Last: errors.New("no resource")}
}
func (failingLoader) Invalidate()         {}
func (failingLoader) CurrentTier() string { return "none" }
