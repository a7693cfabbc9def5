package manager

import (
	"context"

	"vidgend/internal/loader"
	"vidgend/internal/retention"
	"vidgend/pkg/types"
)

// State represents the lifecycle state of the manager.
type State string

const (
	StateStarting State = "starting"
	StateReady    State = "ready"
	StateStopped  State = "stopped"
)

// Job states reported in views.
const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobPartial   = "partial"
	JobFailed    = "failed"
	JobCancelled = "cancelled"
)

func terminal(state string) bool {
	switch state {
	case JobSucceeded, JobPartial, JobFailed, JobCancelled:
		return true
	}
	return false
}

// ResourceLoader hands out leases on a compute resource.
type ResourceLoader interface {
	Acquire(ctx context.Context) (*loader.Lease, error)
	Invalidate()
	CurrentTier() string
}

// Retention is the storage policy run after every job.
type Retention interface {
	Cleanup(maxAgeDays, maxFiles int) retention.Report
	Hold(path string)
	Release(path string)
	OutputDir() string
	Artifacts() ([]types.Artifact, error)
}
