// Package loader selects and initialises a compute resource through an
// ordered fallback chain of tiers, degrading precision under low headroom
// instead of skipping a tier, and caches the winning handle across jobs.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Loader is safe for concurrent use.
type Loader struct {
	tiers []Tier
	probe Probe
	log   zerolog.Logger

	loadMu sync.Mutex // serialises cache refills

	mu          sync.Mutex
	cur         *cached
	currentTier string

	// slot admits a single in-flight lease for non-reentrant handles.
	slot chan struct{}
}

type cached struct {
	h       Handle
	tier    string
	refs    int
	retired bool
}

// New returns a Loader over tiers, queried in the given order.
func New(tiers []Tier, probe Probe, log zerolog.Logger) *Loader {
	if probe == nil {
		probe = StaticProbe{}
	}
	return &Loader{
		tiers: append([]Tier(nil), tiers...),
		probe: probe,
		log:   log.With().Str("component", "loader").Logger(),
		slot:  make(chan struct{}, 1),
	}
}

// CurrentTier returns the tier selected by the last successful
// LoadWithFallback, or "none".
func (l *Loader) CurrentTier() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.currentTier == "" {
		return "none"
	}
	return l.currentTier
}

// LoadWithFallback attempts each tier exactly once in priority order and
// returns the first handle that loads. Per-tier failures are logged and
// never surfaced; if every tier fails a single *ChainError carrying the last
// underlying error is returned. Given the same probe results the same tier
// is chosen.
func (l *Loader) LoadWithFallback(ctx context.Context) (Handle, string, error) {
	if len(l.tiers) == 0 {
		return nil, "", &ChainError{Last: errors.New("no tiers configured")}
	}
	accel := l.probe.AcceleratorPresent()
	var lastErr error
	attempts := 0
	for _, t := range l.tiers {
		if err := ctx.Err(); err != nil {
			return nil, "", err
		}
		attempts++
		tl := l.log.With().Str("tier", t.Name).Logger()
		opts := LoadOptions{Tier: t.Name, Accelerator: accel}

		if t.RequiresAccelerator && !accel {
			lastErr = fmt.Errorf("%s: %w", t.Name, ErrNoAccelerator)
			tl.Warn().Err(lastErr).Msg("tier load failed")
			tierLoadsTotal.WithLabelValues(t.Name, "failed").Inc()
			continue
		}
		if accel && t.MinHeadroom > 0 {
			free, err := l.probe.FreeHeadroom()
			switch {
			case err != nil:
				// unknown headroom counts as insufficient
				tl.Warn().Err(err).Msg("headroom check failed, using reduced precision")
				opts.ReducedPrecision = true
			case free < t.MinHeadroom:
				tl.Warn().Float64("free", free).Float64("required", t.MinHeadroom).Msg("low headroom, using reduced precision")
				opts.Headroom = free
				opts.ReducedPrecision = true
			default:
				opts.Headroom = free
			}
		}
		if !accel {
			tl.Warn().Msg("no accelerator available, running on CPU (slow)")
		}

		tl.Info().Msg("attempting tier load")
		h, err := safeLoad(ctx, t, opts)
		if err != nil {
			lastErr = err
			tl.Warn().Err(err).Msg("tier load failed")
			tierLoadsTotal.WithLabelValues(t.Name, "failed").Inc()
			continue
		}
		result := "ok"
		if opts.ReducedPrecision {
			result = "degraded"
		}
		tierLoadsTotal.WithLabelValues(t.Name, result).Inc()
		l.setCurrentTier(t.Name)
		tl.Info().Bool("accelerator", accel).Bool("reduced_precision", opts.ReducedPrecision).Msg("tier loaded")
		return h, t.Name, nil
	}
	err := &ChainError{Attempts: attempts, Last: lastErr}
	l.log.Error().Err(err).Msg("all tiers failed")
	return nil, "", err
}

// safeLoad runs a tier's load procedure, turning panics and nil handles into errors.
func safeLoad(ctx context.Context, t Tier, opts LoadOptions) (h Handle, err error) {
	if t.Load == nil {
		return nil, fmt.Errorf("%s: no load procedure", t.Name)
	}
	defer func() {
		if r := recover(); r != nil {
			h, err = nil, fmt.Errorf("%s: load panicked: %v", t.Name, r)
		}
	}()
	h, err = t.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.Name, err)
	}
	if h == nil {
		return nil, fmt.Errorf("%s: load returned no handle", t.Name)
	}
	return h, nil
}

func (l *Loader) setCurrentTier(name string) {
	l.mu.Lock()
	prev := l.currentTier
	l.currentTier = name
	l.mu.Unlock()
	if prev != "" && prev != name {
		currentTier.WithLabelValues(prev).Set(0)
	}
	currentTier.WithLabelValues(name).Set(1)
}
