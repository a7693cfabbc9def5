package types

import "time"

// Artifact is a stored output file.
type Artifact struct {
	// File name within the output directory.
	// example: video_1700000000000000_3f2a9c1b.mp4
	Name string `json:"name" example:"video_1700000000000000_3f2a9c1b.mp4"`
	// Absolute path on disk.
	Path string `json:"path"`
	// Last modification time.
	ModTime time.Time `json:"mod_time"`
	// Size in bytes.
	// example: 1048576
	Size int64 `json:"size" example:"1048576"`
}

// JobView is the externally visible state of a job.
type JobView struct {
	ID          string    `json:"id"`
	State       string    `json:"state"`
	Prompt      string    `json:"prompt"`
	SubmittedAt time.Time `json:"submitted_at"`
	StartedAt   time.Time `json:"started_at,omitempty"`
	FinishedAt  time.Time `json:"finished_at,omitempty"`
	// Overall progress in [0,1].
	Progress float64 `json:"progress"`
	// Last progress message.
	Message string `json:"message,omitempty"`
	// Tier that served the job.
	Tier string `json:"tier,omitempty"`
	// Path of the produced (or partial) artifact.
	Artifact string `json:"artifact,omitempty"`
	// Non-fatal problem, e.g. music could not be merged or the artifact is partial.
	Warning string `json:"warning,omitempty"`
	// Rendered classified error for failed jobs.
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// ErrorRecord is one entry of the append-only classified error log.
type ErrorRecord struct {
	Time    time.Time `json:"time"`
	Context string    `json:"context"`
	Kind    string    `json:"kind"`
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`
}
