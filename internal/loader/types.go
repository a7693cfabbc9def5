package loader

import (
	"context"
	"errors"
	"fmt"
)

// Handle is a loaded compute resource. Concrete handles are provided by the
// tier load procedures; the generation engine interprets them.
type Handle interface {
	// Tier names the fallback tier that produced the handle.
	Tier() string
	// Close releases the resource.
	Close() error
}

// Reentrant is implemented by handles that may serve several jobs at once.
// Handles that do not implement it are leased to one job at a time.
type Reentrant interface {
	Reentrant() bool
}

// Probe reports accelerator availability and free headroom (GB).
type Probe interface {
	AcceleratorPresent() bool
	FreeHeadroom() (float64, error)
}

// LoadOptions are passed to a tier's load procedure.
type LoadOptions struct {
	Tier string
	// Accelerator is false when the tier must run on the CPU path.
	Accelerator bool
	// ReducedPrecision is set when free headroom is below the tier's threshold.
	ReducedPrecision bool
	// Headroom is the free headroom observed before the attempt (0 if unknown).
	Headroom float64
}

// LoadFunc initialises a tier. It must return a non-nil Handle or an error.
type LoadFunc func(ctx context.Context, opts LoadOptions) (Handle, error)

// Tier is one entry of the fallback chain.
type Tier struct {
	Name                string
	RequiresAccelerator bool
	// MinHeadroom > 0 declares a headroom requirement. Below it the tier is
	// still attempted, in reduced precision.
	MinHeadroom float64
	Load        LoadFunc
}

// Tier names of the default chain, best capability first.
const (
	TierPrimary  = "primary"
	TierStandard = "standard"
	TierCompact  = "compact"
	TierMinimal  = "minimal"
)

// DefaultHeadroomThreshold is the primary tier's headroom requirement (GB).
const DefaultHeadroomThreshold = 8.0

// DefaultTiers builds the four-tier chain around a single load procedure.
// The two smaller tiers allow the CPU path.
func DefaultTiers(load LoadFunc, headroomThreshold float64) []Tier {
	if headroomThreshold <= 0 {
		headroomThreshold = DefaultHeadroomThreshold
	}
	return []Tier{
		{Name: TierPrimary, RequiresAccelerator: true, MinHeadroom: headroomThreshold, Load: load},
		{Name: TierStandard, RequiresAccelerator: true, Load: load},
		{Name: TierCompact, Load: load},
		{Name: TierMinimal, Load: load},
	}
}

// ErrNoAccelerator is the per-tier failure for accelerator-only tiers on a host without one.
var ErrNoAccelerator = errors.New("accelerator not available")

// ChainError is returned when every tier failed. It is terminal for the
// load attempt but retryable from the caller's point of view.
type ChainError struct {
	Attempts int
	Last     error
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("all %d resource tiers failed; last error: %v", e.Attempts, e.Last)
}

func (e *ChainError) Unwrap() error { return e.Last }

// Transient marks the failure as retryable.
func (e *ChainError) Transient() bool { return true }

// IsChainFailure reports whether err is an aggregated all-tiers failure.
func IsChainFailure(err error) bool {
	var ce *ChainError
	return errors.As(err, &ce)
}
