package types

// GenerateRequest is the payload of POST /jobs.
type GenerateRequest struct {
	// Text description of the video.
	// example: ocean sunset
	Prompt string `json:"prompt" example:"ocean sunset"`
	// Length of the video in seconds.
	// example: 5
	Duration float64 `json:"duration" example:"5"`
	// Frame rate; 0 selects the server default.
	// example: 24
	FPS int `json:"fps,omitempty" example:"24"`
	// Frame size as WxH.
	// example: 512x512
	Resolution string `json:"resolution" example:"512x512"`
	// Number of scenes; 0 selects 1.
	// example: 1
	SceneCount int `json:"scene_count,omitempty" example:"1"`
	// Optional path to a music file on the server to mux into the result.
	MusicPath string `json:"music_path,omitempty"`
}

// SubmitResponse is returned by POST /jobs when the job was admitted.
type SubmitResponse struct {
	// example: 01920e4c-7b1a-7cc2-9d4e-3b4f5a6b7c8d
	ID string `json:"id" example:"01920e4c-7b1a-7cc2-9d4e-3b4f5a6b7c8d"`
	// example: queued
	State string `json:"state" example:"queued"`
}

// CancelResponse is returned by POST /jobs/{id}/cancel.
type CancelResponse struct {
	ID        string `json:"id"`
	Cancelled bool   `json:"cancelled"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
	// Short title of a classified failure.
	// example: Out of Memory
	Title string `json:"title,omitempty" example:"Out of Memory"`
	// Whether the caller may retry the same request later.
	Retryable bool `json:"retryable,omitempty"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Jobs admitted but not yet started.
	// example: 2
	Pending int `json:"pending" example:"2"`
	// Jobs currently executing.
	// example: 1
	Active int `json:"active" example:"1"`
	// Maximum pending jobs before submissions are rejected.
	// example: 50
	Capacity int `json:"capacity" example:"50"`
	// Number of worker loops.
	// example: 1
	Workers int `json:"workers" example:"1"`
	// Resource tier last selected by the loader, or "none".
	// example: primary
	CurrentTier string `json:"current_tier" example:"primary"`
	// Overall state (starting, ready, stopped).
	// example: ready
	State string `json:"state" example:"ready"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
	// Totals since start.
	Completed uint64 `json:"completed_total"`
	Failed    uint64 `json:"failed_total"`
	Rejected  uint64 `json:"rejected_total"`
	// Most recent classified error (user-facing message).
	LastError string `json:"last_error,omitempty"`
}

// ArtifactsResponse wraps GET /artifacts.
type ArtifactsResponse struct {
	Artifacts []Artifact `json:"artifacts"`
}

// ErrorsResponse wraps GET /errors.
type ErrorsResponse struct {
	Errors []ErrorRecord `json:"errors"`
}
