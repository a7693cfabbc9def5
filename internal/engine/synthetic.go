package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"vidgend/internal/errclass"
	"vidgend/internal/loader"
)

// SyntheticHandle is the resource handed out by LoadSynthetic.
type SyntheticHandle struct {
	TierName         string
	ReducedPrecision bool
	CPU              bool
}

func (h *SyntheticHandle) Tier() string { return h.TierName }
func (h *SyntheticHandle) Close() error { return nil }

// LoadSynthetic is a loader.LoadFunc that always succeeds.
func LoadSynthetic(_ context.Context, opts loader.LoadOptions) (loader.Handle, error) {
	return &SyntheticHandle{TierName: opts.Tier, ReducedPrecision: opts.ReducedPrecision, CPU: !opts.Accelerator}, nil
}

// SyntheticTiers is the default tier chain backed by LoadSynthetic.
func SyntheticTiers(headroomThreshold float64) []loader.Tier {
	return loader.DefaultTiers(LoadSynthetic, headroomThreshold)
}

// Synthetic writes a placeholder container with one record per frame. It
// honours cancellation between frames and, when FrameBudget is set,
// simulates running out of memory after that many frames, keeping what was
// rendered as a partial artifact.
type Synthetic struct {
	Paths       PathSource
	FrameDelay  time.Duration
	FrameBudget int
	Log         zerolog.Logger

	mu      sync.Mutex
	partial map[string]string
}

func NewSynthetic(paths PathSource, log zerolog.Logger) *Synthetic {
	return &Synthetic{Paths: paths, Log: log.With().Str("component", "engine").Logger(), partial: make(map[string]string)}
}

// Generate renders ceil(duration*fps) frames into a staging file and moves
// the finished file into the output directory.
func (s *Synthetic) Generate(ctx context.Context, h loader.Handle, req Request, progress ProgressFunc, cancel Canceller) (string, error) {
	if h == nil {
		return "", fmt.Errorf("no resource handle: %w", errclass.ErrRuntime)
	}
	if progress == nil {
		progress = func(float64, string) {}
	}
	fps := req.FPS
	if fps <= 0 {
		fps = 24
	}
	frames := int(math.Ceil(req.Duration * float64(fps)))
	if frames < 1 {
		frames = 1
	}

	staging := s.Paths.SafeTempPath("video", ".mp4")
	f, err := os.Create(staging)
	if err != nil {
		return "", fmt.Errorf("create staging file: %w", err)
	}
	keep := false
	defer func() {
		_ = f.Close()
		if !keep {
			_ = os.Remove(staging)
		}
	}()
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "SYNTHVID tier=%s size=%dx%d fps=%d frames=%d scenes=%d\nprompt=%q\n",
		h.Tier(), req.Width, req.Height, fps, frames, req.SceneCount, req.Prompt)

	for i := 0; i < frames; i++ {
		if cancel != nil && cancel.Cancelled() {
			return "", cancel.Err()
		}
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("frame %d: %w", i, err)
		}
		if s.FrameBudget > 0 && i >= s.FrameBudget {
			if err := s.salvage(req.JobID, w, f, staging); err != nil {
				s.Log.Warn().Err(err).Str("job_id", req.JobID).Msg("partial output lost")
			} else {
				keep = true
			}
			return "", fmt.Errorf("frame %d of %d: %w", i, frames, errclass.ErrResourceExhausted)
		}
		fmt.Fprintf(w, "frame %d scene %d\n", i, sceneOf(i, frames, req.SceneCount))
		progress(float64(i+1)/float64(frames), fmt.Sprintf("Rendering frame %d/%d", i+1, frames))
		if s.FrameDelay > 0 {
			if err := sleep(ctx, cancel, s.FrameDelay); err != nil {
				return "", err
			}
		}
	}
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("write video: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close video: %w", err)
	}
	out := s.Paths.ArtifactPath("video", ".mp4")
	if err := moveFile(staging, out); err != nil {
		return "", fmt.Errorf("publish video: %w", err)
	}
	keep = true
	return out, nil
}

func (s *Synthetic) salvage(jobID string, w *bufio.Writer, f *os.File, staging string) error {
	if err := w.Flush(); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	out := s.Paths.ArtifactPath("partial", ".mp4")
	if err := moveFile(staging, out); err != nil {
		return err
	}
	s.mu.Lock()
	if s.partial == nil {
		s.partial = make(map[string]string)
	}
	s.partial[jobID] = out
	s.mu.Unlock()
	return nil
}

// PartialOutput returns and forgets the partial artifact of jobID.
func (s *Synthetic) PartialOutput(jobID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partial[jobID]
	delete(s.partial, jobID)
	return p, ok
}

func sceneOf(frame, frames, scenes int) int {
	if scenes <= 1 {
		return 0
	}
	return frame * scenes / frames
}

func sleep(ctx context.Context, cancel Canceller, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	var done <-chan struct{}
	if cancel != nil {
		done = cancel.Done()
	}
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return cancel.Err()
	}
}

// moveFile renames src to dst, copying when they live on different filesystems.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !isCrossDevice(err) {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return os.Remove(src)
}
