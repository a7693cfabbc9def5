// Package registry lists the artifacts stored in an output directory.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vidgend/internal/common/fsutil"
	"vidgend/pkg/types"
)

// Scanner lists regular files directly inside a directory. It never recurses.
type Scanner struct {
	// Extensions restricts results to these suffixes (case-insensitive). Empty means all files.
	Extensions []string
}

// NewVideoScanner returns a scanner for the container formats the pipeline writes.
func NewVideoScanner() Scanner { return Scanner{Extensions: []string{".mp4", ".webm", ".mov"}} }

// Scan lists every regular file in dir, newest first.
func Scan(dir string) ([]types.Artifact, error) { return Scanner{}.Scan(dir) }

// Scan returns artifacts sorted by modification time, newest first; ties are
// broken by name, descending. Entries that vanish while scanning are skipped.
func (s Scanner) Scan(dir string) ([]types.Artifact, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	out := make([]types.Artifact, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		if !s.match(name) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, types.Artifact{
			Name:    name,
			Path:    filepath.Join(abs, name),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	SortNewestFirst(out)
	return out, nil
}

func (s Scanner) match(name string) bool {
	if len(s.Extensions) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, ext := range s.Extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// SortNewestFirst orders artifacts by modification time descending, then name descending.
func SortNewestFirst(a []types.Artifact) {
	sort.SliceStable(a, func(i, j int) bool {
		if !a[i].ModTime.Equal(a[j].ModTime) {
			return a[i].ModTime.After(a[j].ModTime)
		}
		return a[i].Name > a[j].Name
	})
}
