package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"vidgend/internal/common/execx"
	"vidgend/internal/errclass"
	"vidgend/internal/loader"
	"vidgend/internal/queue"
	"vidgend/internal/retention"
)

func newPaths(t *testing.T) *retention.Manager {
	t.Helper()
	root := t.TempDir()
	m, err := retention.New(retention.Options{
		OutputDir: filepath.Join(root, "outputs"),
		TempDir:   filepath.Join(root, "temp"),
		Logger:    zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("retention: %v", err)
	}
	return m
}

func handle(t *testing.T) loader.Handle {
	t.Helper()
	h, err := LoadSynthetic(context.Background(), loader.LoadOptions{Tier: loader.TierPrimary, Accelerator: true})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return h
}

func stagingEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read staging: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("staging dir not empty: %d entries", len(entries))
	}
}

func TestSynthetic_GeneratesArtifact(t *testing.T) {
	paths := newPaths(t)
	eng := NewSynthetic(paths, zerolog.Nop())
	var fractions []float64
	req := Request{JobID: "j1", Prompt: "ocean sunset", Duration: 1, FPS: 10, Width: 64, Height: 64, SceneCount: 2}

	out, err := eng.Generate(context.Background(), handle(t), req, func(f float64, _ string) {
		fractions = append(fractions, f)
	}, queue.NewCancelToken())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if filepath.Dir(out) != paths.OutputDir() {
		t.Fatalf("artifact %s not in output dir", out)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if !strings.Contains(string(b), "frames=10") || !strings.Contains(string(b), `prompt="ocean sunset"`) {
		t.Fatalf("unexpected artifact content:\n%s", b)
	}
	if len(fractions) != 10 || fractions[len(fractions)-1] != 1 {
		t.Fatalf("unexpected progress: %v", fractions)
	}
	for i := 1; i < len(fractions); i++ {
		if fractions[i] < fractions[i-1] {
			t.Fatalf("progress went backwards: %v", fractions)
		}
	}
	stagingEmpty(t, paths.TempDir())
}

func TestSynthetic_HonoursCancellation(t *testing.T) {
	paths := newPaths(t)
	eng := NewSynthetic(paths, zerolog.Nop())
	tok := queue.NewCancelToken()
	req := Request{JobID: "j2", Prompt: "p", Duration: 10, FPS: 24}
	calls := 0
	_, err := eng.Generate(context.Background(), handle(t), req, func(float64, string) {
		calls++
		if calls == 3 {
			tok.Cancel()
		}
	}, tok)
	if !errors.Is(err, queue.ErrCancelled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("engine should stop at the next frame boundary, saw %d frames", calls)
	}
	stagingEmpty(t, paths.TempDir())
}

func TestSynthetic_CancelDuringFrameDelay(t *testing.T) {
	paths := newPaths(t)
	eng := NewSynthetic(paths, zerolog.Nop())
	eng.FrameDelay = time.Hour
	tok := queue.NewCancelToken()
	go func() {
		time.Sleep(20 * time.Millisecond)
		tok.Cancel()
	}()
	_, err := eng.Generate(context.Background(), handle(t), Request{JobID: "j", Prompt: "p", Duration: 1, FPS: 1}, nil, tok)
	if !errors.Is(err, queue.ErrCancelled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestSynthetic_DeadlineIsTimeout(t *testing.T) {
	paths := newPaths(t)
	eng := NewSynthetic(paths, zerolog.Nop())
	eng.FrameDelay = 50 * time.Millisecond
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := eng.Generate(ctx, handle(t), Request{JobID: "j", Prompt: "p", Duration: 1, FPS: 24}, nil, queue.NewCancelToken())
	if errclass.CategoryOf(err) != errclass.CategoryTimeout {
		t.Fatalf("expected timeout category, got %v (%v)", errclass.CategoryOf(err), err)
	}
}

func TestSynthetic_FrameBudgetYieldsPartial(t *testing.T) {
	paths := newPaths(t)
	eng := NewSynthetic(paths, zerolog.Nop())
	eng.FrameBudget = 5
	_, err := eng.Generate(context.Background(), handle(t), Request{JobID: "j3", Prompt: "p", Duration: 1, FPS: 24}, nil, queue.NewCancelToken())
	if !errors.Is(err, errclass.ErrResourceExhausted) {
		t.Fatalf("expected resource exhaustion, got %v", err)
	}
	p, ok := eng.PartialOutput("j3")
	if !ok {
		t.Fatalf("expected a partial artifact")
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read partial: %v", err)
	}
	if n := strings.Count(string(b), "\nframe "); n != 5 {
		t.Fatalf("expected 5 frames in partial artifact, got %d", n)
	}
	if _, ok := eng.PartialOutput("j3"); ok {
		t.Fatalf("partial output should be handed out once")
	}
	stagingEmpty(t, paths.TempDir())
}

func TestSynthetic_NilHandle(t *testing.T) {
	eng := NewSynthetic(newPaths(t), zerolog.Nop())
	_, err := eng.Generate(context.Background(), nil, Request{Duration: 1, FPS: 1}, nil, nil)
	if !errors.Is(err, errclass.ErrRuntime) {
		t.Fatalf("expected runtime error, got %v", err)
	}
}

func TestLoadSynthetic_ReflectsOptions(t *testing.T) {
	h, err := LoadSynthetic(context.Background(), loader.LoadOptions{Tier: "compact", ReducedPrecision: true})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sh := h.(*SyntheticHandle)
	if sh.Tier() != "compact" || !sh.ReducedPrecision || !sh.CPU {
		t.Fatalf("unexpected handle %+v", sh)
	}
	if n := len(SyntheticTiers(8)); n != 4 {
		t.Fatalf("expected 4 tiers, got %d", n)
	}
}

func writeFile(t *testing.T, p string) string {
	t.Helper()
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestFFmpegMuxer_Success(t *testing.T) {
	paths := newPaths(t)
	video := writeFile(t, filepath.Join(paths.OutputDir(), "v.mp4"))
	audio := writeFile(t, filepath.Join(t.TempDir(), "a.mp3"))
	var gotName string
	var gotArgs []string
	m := NewFFmpegMuxer("", paths, zerolog.Nop())
	m.Runner = execx.RunnerFunc(func(_ context.Context, name string, args ...string) (execx.Result, error) {
		gotName, gotArgs = name, args
		return execx.Result{}, nil
	})
	out, err := m.Mux(context.Background(), video, audio)
	if err != nil {
		t.Fatalf("mux: %v", err)
	}
	if gotName != "ffmpeg" {
		t.Fatalf("expected default binary, got %q", gotName)
	}
	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "-i "+video) || !strings.Contains(joined, "-i "+audio) || gotArgs[len(gotArgs)-1] != out {
		t.Fatalf("unexpected args: %v", gotArgs)
	}
	if filepath.Dir(out) != paths.OutputDir() || out == video {
		t.Fatalf("unexpected output path %s", out)
	}
}

func TestFFmpegMuxer_FailureCarriesDetail(t *testing.T) {
	paths := newPaths(t)
	video := writeFile(t, filepath.Join(paths.OutputDir(), "v.mp4"))
	audio := writeFile(t, filepath.Join(t.TempDir(), "a.mp3"))
	m := NewFFmpegMuxer("ffmpeg", paths, zerolog.Nop())
	m.Runner = execx.RunnerFunc(func(context.Context, string, ...string) (execx.Result, error) {
		return execx.Result{Stderr: "Invalid data found when processing input", ExitCode: 1}, errors.New("exit status 1")
	})
	_, err := m.Mux(context.Background(), video, audio)
	var me *MuxError
	if !errors.As(err, &me) {
		t.Fatalf("expected MuxError, got %v", err)
	}
	if me.ExitCode != 1 || !strings.Contains(me.Detail(), "Invalid data") {
		t.Fatalf("unexpected mux error %+v", me)
	}
	if errclass.CategoryOf(err) != errclass.CategoryRuntime {
		t.Fatalf("mux failure should classify as runtime, got %v", errclass.CategoryOf(err))
	}
}

func TestFFmpegMuxer_MissingAudio(t *testing.T) {
	paths := newPaths(t)
	video := writeFile(t, filepath.Join(paths.OutputDir(), "v.mp4"))
	m := NewFFmpegMuxer("", paths, zerolog.Nop())
	m.Runner = execx.RunnerFunc(func(context.Context, string, ...string) (execx.Result, error) {
		t.Fatalf("runner must not be called")
		return execx.Result{}, nil
	})
	if _, err := m.Mux(context.Background(), video, filepath.Join(t.TempDir(), "missing.mp3")); err == nil {
		t.Fatalf("expected error for missing audio")
	}
}
