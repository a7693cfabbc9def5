package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"vidgend/internal/common/execx"
	"vidgend/internal/errclass"
)

// MuxError carries the tail of ffmpeg's stderr as technical detail.
type MuxError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *MuxError) Error() string {
	return fmt.Sprintf("ffmpeg exited with code %d: %v", e.ExitCode, e.Err)
}

func (e *MuxError) Unwrap() error { return e.Err }

// Detail is picked up by the classifier as technical detail.
func (e *MuxError) Detail() string { return e.Stderr }

func (e *MuxError) Transient() bool { return true }

const stderrTail = 2048

// FFmpegMuxer merges an audio track into a video with ffmpeg, copying the
// video stream and trimming to the shorter input.
type FFmpegMuxer struct {
	Path   string
	Paths  PathSource
	Runner execx.Runner
	Log    zerolog.Logger
}

func NewFFmpegMuxer(path string, paths PathSource, log zerolog.Logger) *FFmpegMuxer {
	if strings.TrimSpace(path) == "" {
		path = "ffmpeg"
	}
	return &FFmpegMuxer{Path: path, Paths: paths, Runner: execx.ExecRunner{}, Log: log.With().Str("component", "muxer").Logger()}
}

// Mux writes a new artifact; the silent input is left untouched.
func (m *FFmpegMuxer) Mux(ctx context.Context, videoPath, audioPath string) (string, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return "", fmt.Errorf("video: %w", err)
	}
	if _, err := os.Stat(audioPath); err != nil {
		return "", fmt.Errorf("audio: %w", err)
	}
	out := m.Paths.ArtifactPath("video_music", ".mp4")
	runner := m.Runner
	if runner == nil {
		runner = execx.ExecRunner{}
	}
	res, err := runner.Run(ctx, m.Path,
		"-y", "-loglevel", "error",
		"-i", videoPath, "-i", audioPath,
		"-map", "0:v:0", "-map", "1:a:0",
		"-c:v", "copy", "-c:a", "aac", "-shortest",
		out,
	)
	if err != nil {
		_ = os.Remove(out)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("mux: %w", errclass.ErrTimeout)
		}
		return "", &MuxError{ExitCode: res.ExitCode, Stderr: tail(res.Stderr, stderrTail), Err: err}
	}
	m.Log.Debug().Str("video", videoPath).Str("audio", audioPath).Str("out", out).Msg("muxed audio")
	return out, nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
