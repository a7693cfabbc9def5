// Package engine defines the external collaborators of the pipeline (the
// generation engine and the audio muxer) and ships runnable implementations:
// a synthetic engine for development and tests, and an ffmpeg muxer.
package engine

import (
	"context"

	"vidgend/internal/loader"
)

// Request is the per-job input of a generation call.
type Request struct {
	JobID      string
	Prompt     string
	Duration   float64
	FPS        int
	Width      int
	Height     int
	SceneCount int
}

// ProgressFunc receives the engine's own progress in [0,1].
type ProgressFunc func(fraction float64, message string)

// Canceller is the cooperative cancellation flag of a job.
type Canceller interface {
	Cancelled() bool
	Done() <-chan struct{}
	Err() error
}

// Engine renders a video for req with the resource held in h and returns
// the artifact path. It must call progress periodically and check cancel at
// bounded intervals.
type Engine interface {
	Generate(ctx context.Context, h loader.Handle, req Request, progress ProgressFunc, cancel Canceller) (string, error)
}

// PartialOutputter is implemented by engines that can salvage the frames
// rendered before a resource exhaustion.
type PartialOutputter interface {
	PartialOutput(jobID string) (string, bool)
}

// Muxer merges an audio track into a video and returns the merged path.
type Muxer interface {
	Mux(ctx context.Context, videoPath, audioPath string) (string, error)
}

// PathSource hands out unique paths for staging and final artifacts.
type PathSource interface {
	SafeTempPath(prefix, suffix string) string
	ArtifactPath(prefix, suffix string) string
}
