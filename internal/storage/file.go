package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Reservation is a per-request output location inside the workspace.
// Base has no extension; yt-dlp appends one through the output template.
type Reservation struct {
	ID   string
	Base string
}

// Template returns the yt-dlp output template for this reservation
func (r Reservation) Template() string {
	return r.Base + ".%(ext)s"
}

// Path returns the expected output path for a container extension
func (r Reservation) Path(ext string) string {
	return r.Base + "." + strings.TrimPrefix(ext, ".")
}

// Workspace manages transient download files
type Workspace struct {
	dir string
}

// NewWorkspace creates the work directory if needed
func NewWorkspace(dir string) (*Workspace, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the work directory path
func (w *Workspace) Dir() string {
	return w.dir
}

// Reserve allocates a unique base path for one request
func (w *Workspace) Reserve() Reservation {
	id := uuid.NewString()
	return Reservation{
		ID:   id,
		Base: filepath.Join(w.dir, id),
	}
}

// Resolve finds the file produced for a reservation. The expected path for
// ext is preferred; otherwise any <base>.* file is picked by container
// priority. Leftover intermediate files (.part, .ytdl) are ignored.
func (w *Workspace) Resolve(r Reservation, ext string) (string, error) {
	expected := r.Path(ext)
	if info, err := os.Stat(expected); err == nil && info.Mode().IsRegular() && info.Size() > 0 {
		return expected, nil
	}

	candidates, err := w.produced(r)
	if err != nil {
		return "", err
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no output file found for %s", r.ID)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		pi := extPriority(filepath.Ext(candidates[i]))
		pj := extPriority(filepath.Ext(candidates[j]))
		if pi == pj {
			return candidates[i] < candidates[j]
		}
		return pi < pj
	})
	return candidates[0], nil
}

// Release removes every file belonging to a reservation
func (w *Workspace) Release(r Reservation) error {
	matches, err := filepath.Glob(r.Base + ".*")
	if err != nil {
		return fmt.Errorf("failed to list reservation files: %w", err)
	}
	var firstErr error
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = fmt.Errorf("failed to remove %s: %w", m, err)
		}
	}
	return firstErr
}

// Sweep removes files older than maxAge, left behind by crashed requests.
// It returns the number of files removed.
func (w *Workspace) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read work directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(w.dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (w *Workspace) produced(r Reservation) ([]string, error) {
	matches, err := filepath.Glob(r.Base + ".*")
	if err != nil {
		return nil, fmt.Errorf("failed to list output files: %w", err)
	}
	var out []string
	for _, m := range matches {
		if isIntermediate(m) {
			continue
		}
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() || info.Size() == 0 {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func isIntermediate(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".part", ".ytdl", ".temp", ".tmp":
		return true
	}
	// yt-dlp names unmerged streams <base>.f137.mp4
	return isFormatStream(filepath.Base(path))
}

// isFormatStream matches "<uuid>.f<digits>.<ext>"
func isFormatStream(name string) bool {
	parts := strings.Split(name, ".")
	if len(parts) < 3 {
		return false
	}
	p := parts[len(parts)-2]
	if len(p) < 2 || p[0] != 'f' {
		return false
	}
	for _, c := range p[1:] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// extPriority returns a priority score for file extensions (lower = better)
func extPriority(ext string) int {
	switch strings.ToLower(ext) {
	case ".mp4":
		return 0
	case ".mp3":
		return 1
	case ".m4a":
		return 2
	case ".mkv":
		return 3
	case ".webm":
		return 4
	default:
		return 100
	}
}
