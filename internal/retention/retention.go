// Package retention bounds storage growth of the output directory by age and
// by count, and hands out collision-free paths for in-progress work.
package retention

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	"vidgend/internal/common/fsutil"
	"vidgend/internal/registry"
	"vidgend/pkg/types"
)

const (
	DefaultMaxAgeDays = 7
	DefaultMaxFiles   = 50
)

// Report summarises one cleanup run.
type Report struct {
	Scanned        int
	RemovedByAge   int
	RemovedByCount int
	Failed         int
	Removed        []string
}

// Total is the number of files removed by both passes.
func (r Report) Total() int { return r.RemovedByAge + r.RemovedByCount }

// Manager owns an output directory and a staging directory. Only the output
// directory is ever cleaned; staging is never scanned.
type Manager struct {
	outputDir string
	tempDir   string
	log       zerolog.Logger
	now       func() time.Time
	remove    func(string) error

	heldMu sync.Mutex
	held   map[string]int

	seqMu  sync.Mutex
	lastTS int64
	seq    uint64
}

// Options configure New.
type Options struct {
	OutputDir string
	TempDir   string
	Logger    zerolog.Logger
	// Now overrides the clock; tests only.
	Now func() time.Time
}

// EnsureDirs creates every directory and returns their absolute forms in order.
func EnsureDirs(dirs ...string) ([]string, error) {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		abs, err := fsutil.EnsureDir(d)
		if err != nil {
			return nil, err
		}
		out = append(out, abs)
	}
	return out, nil
}

// New creates both directories. An error here is a startup failure.
func New(opts Options) (*Manager, error) {
	dirs, err := EnsureDirs(opts.OutputDir, opts.TempDir)
	if err != nil {
		return nil, fmt.Errorf("retention dirs: %w", err)
	}
	if dirs[0] == dirs[1] {
		return nil, errors.New("retention dirs: output and staging directory must differ")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		outputDir: dirs[0],
		tempDir:   dirs[1],
		log:       opts.Logger.With().Str("component", "retention").Logger(),
		now:       now,
		remove:    os.Remove,
		held:      make(map[string]int),
	}, nil
}

func (m *Manager) OutputDir() string { return m.outputDir }
func (m *Manager) TempDir() string   { return m.tempDir }

// Artifacts lists the output directory, newest first.
func (m *Manager) Artifacts() ([]types.Artifact, error) { return registry.Scan(m.outputDir) }

// Hold excludes path from eviction until the matching Release.
func (m *Manager) Hold(path string) {
	if path == "" {
		return
	}
	m.heldMu.Lock()
	m.held[filepath.Clean(path)]++
	m.heldMu.Unlock()
}

// Release undoes one Hold.
func (m *Manager) Release(path string) {
	if path == "" {
		return
	}
	p := filepath.Clean(path)
	m.heldMu.Lock()
	if n := m.held[p]; n <= 1 {
		delete(m.held, p)
	} else {
		m.held[p] = n - 1
	}
	m.heldMu.Unlock()
}

func (m *Manager) isHeld(path string) bool {
	m.heldMu.Lock()
	defer m.heldMu.Unlock()
	return m.held[filepath.Clean(path)] > 0
}

// Cleanup runs the age pass then the count pass over the output directory.
// Non-positive arguments select the defaults. Per-file failures are logged
// and skipped; Cleanup itself never fails.
func (m *Manager) Cleanup(maxAgeDays, maxFiles int) Report {
	if maxAgeDays <= 0 {
		maxAgeDays = DefaultMaxAgeDays
	}
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	var rep Report
	arts, err := registry.Scan(m.outputDir)
	if err != nil {
		m.log.Warn().Err(err).Str("dir", m.outputDir).Msg("retention scan failed")
		return rep
	}
	rep.Scanned = len(arts)

	var errs error
	cutoff := m.now().Add(-time.Duration(maxAgeDays) * 24 * time.Hour)
	remaining := make([]types.Artifact, 0, len(arts))
	for _, a := range arts {
		if !a.ModTime.Before(cutoff) || m.isHeld(a.Path) {
			remaining = append(remaining, a)
			continue
		}
		gone, err := m.removeOne(a.Path)
		if err != nil {
			errs = multierr.Append(errs, err)
			remaining = append(remaining, a)
			continue
		}
		if gone {
			rep.RemovedByAge++
			rep.Removed = append(rep.Removed, a.Path)
		}
	}

	// arts is newest first, so remaining is too
	if len(remaining) > maxFiles {
		for _, a := range remaining[maxFiles:] {
			if m.isHeld(a.Path) {
				continue
			}
			gone, err := m.removeOne(a.Path)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			if gone {
				rep.RemovedByCount++
				rep.Removed = append(rep.Removed, a.Path)
			}
		}
	}

	rep.Failed = len(multierr.Errors(errs))
	removedTotal.WithLabelValues("age").Add(float64(rep.RemovedByAge))
	removedTotal.WithLabelValues("count").Add(float64(rep.RemovedByCount))
	failuresTotal.Add(float64(rep.Failed))
	sweepsTotal.Inc()
	if errs != nil {
		m.log.Warn().Err(errs).Int("failures", rep.Failed).Msg("retention could not remove some files")
	}
	if rep.Total() > 0 {
		m.log.Info().Int("by_age", rep.RemovedByAge).Int("by_count", rep.RemovedByCount).Msg("cleaned up old files")
	}
	return rep
}

// removeOne deletes a file inside the output directory. A file that is
// already gone is not an error and is not counted.
func (m *Manager) removeOne(path string) (bool, error) {
	if !fsutil.Within(m.outputDir, path) || filepath.Clean(path) == m.outputDir {
		return false, fmt.Errorf("refusing to remove %s outside %s", path, m.outputDir)
	}
	if err := m.remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		m.log.Warn().Err(err).Str("path", path).Msg("failed to remove file")
		return false, fmt.Errorf("remove %s: %w", path, err)
	}
	return true, nil
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration, maxAgeDays, maxFiles int, onSweep func(Report)) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			rep := m.Cleanup(maxAgeDays, maxFiles)
			if onSweep != nil {
				onSweep(rep)
			}
		}
	}
}

// SafeTempPath returns a path in the staging directory that no other call
// in this process returns.
func (m *Manager) SafeTempPath(prefix, suffix string) string {
	return filepath.Join(m.tempDir, m.uniqueName(prefix, suffix))
}

// ArtifactPath is SafeTempPath for the output directory.
func (m *Manager) ArtifactPath(prefix, suffix string) string {
	return filepath.Join(m.outputDir, m.uniqueName(prefix, suffix))
}

// uniqueName is prefix_<micros>_<hash><suffix>. The timestamp is strictly
// increasing within the process; the hash mixes in the pid so concurrent
// processes sharing a directory diverge.
func (m *Manager) uniqueName(prefix, suffix string) string {
	if prefix == "" {
		prefix = "temp"
	}
	prefix = strings.NewReplacer("/", "_", `\`, "_").Replace(prefix)
	suffix = strings.NewReplacer("/", "_", `\`, "_").Replace(suffix)

	m.seqMu.Lock()
	ts := m.now().UnixMicro()
	if ts <= m.lastTS {
		ts = m.lastTS + 1
	}
	m.lastTS = ts
	m.seq++
	seq := m.seq
	m.seqMu.Unlock()

	h := xxhash.Sum64String(fmt.Sprintf("%d:%d:%d", ts, os.Getpid(), seq))
	return fmt.Sprintf("%s_%d_%08x%s", prefix, ts, uint32(h), suffix)
}
