//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-ps"
	"gopkg.in/yaml.v3"

	"github.com/avgplus/avg-release/internal/logger"
)

const (
	// MarkerFilename is the run marker created in the release directory.
	MarkerFilename = ".avg-release.lock"

	markerFileMode os.FileMode = 0o644
	markerDirMode  os.FileMode = 0o755
)

// ErrRunInProgress is returned when another run holds the marker.
var ErrRunInProgress = errors.New("another release run is in progress")

// MarkerInfo is the content of a run marker.
type MarkerInfo struct {
	// Actor started the run.
	Actor Actor `yaml:"actor"`
	// PID is the process id of the run.
	PID int `yaml:"pid"`
	// Executable is the process name of the run, used to detect pid reuse.
	Executable string `yaml:"executable,omitempty"`
	// RunID correlates the marker with log records.
	RunID string `yaml:"run_id"`
	// StartedAt is when the marker was created.
	StartedAt time.Time `yaml:"started_at"`
}

// Marker is a held run marker.
type Marker struct {
	path string
	info MarkerInfo
}

// MarkerOptions configure AcquireMarker.
type MarkerOptions struct {
	// Dir holds the marker file; it is created when missing.
	Dir string
	// RunID is written into the marker.
	RunID string
}

// AcquireMarker creates the run marker or fails with ErrRunInProgress.
// A marker left on this host by a process that no longer runs is reclaimed,
// as is one whose pid now belongs to a different executable.
func AcquireMarker(ctx context.Context, opts MarkerOptions) (*Marker, error) {
	actor, err := DetectActor()
	if err != nil {
		return nil, err
	}

	if err = os.MkdirAll(opts.Dir, markerDirMode); err != nil {
		return nil, fmt.Errorf("create marker directory: %w", err)
	}

	m := &Marker{
		path: filepath.Join(opts.Dir, MarkerFilename),
		info: MarkerInfo{
			Actor:      *actor,
			PID:        os.Getpid(),
			Executable: processExecutable(os.Getpid()),
			RunID:      opts.RunID,
			StartedAt:  time.Now().UTC(),
		},
	}

	err = m.create()
	if !errors.Is(err, os.ErrExist) {
		return m, err
	}

	holder, readErr := ReadMarker(m.path)
	if readErr != nil {
		return nil, fmt.Errorf("%w: unreadable marker %s: %w", ErrRunInProgress, m.path, readErr)
	}

	if !isStale(holder, actor) {
		return nil, fmt.Errorf("%w: started by %s (pid %d) at %s",
			ErrRunInProgress, holder.Actor.String(), holder.PID, holder.StartedAt.Format(time.RFC3339))
	}

	logger.WarnKV(ctx, "Reclaiming stale run marker",
		"path", m.path,
		"holder", holder.Actor.String(),
		"pid", holder.PID,
		"started_at", holder.StartedAt)

	if err = os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("remove stale marker: %w", err)
	}

	if err = m.create(); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, ErrRunInProgress
		}

		return nil, err
	}

	return m, nil
}

// ReadMarker parses a marker file.
func ReadMarker(path string) (*MarkerInfo, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	info := new(MarkerInfo)
	if err = yaml.Unmarshal(contents, info); err != nil {
		return nil, fmt.Errorf("unmarshal marker: %w", err)
	}

	return info, nil
}

// Path returns the marker file location.
func (m *Marker) Path() string {
	return m.path
}

// Release removes the marker. It is safe to call more than once.
func (m *Marker) Release() error {
	if m == nil {
		return nil
	}

	if err := os.Remove(m.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove marker: %w", err)
	}

	return nil
}

// create writes the marker, failing with os.ErrExist when one is present.
func (m *Marker) create() error {
	contents, err := yaml.Marshal(&m.info)
	if err != nil {
		return fmt.Errorf("marshal marker: %w", err)
	}

	f, err := os.OpenFile(m.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, markerFileMode)
	if err != nil {
		return err
	}

	if _, err = f.Write(contents); err != nil {
		_ = f.Close()
		_ = os.Remove(m.path)

		return fmt.Errorf("write marker: %w", err)
	}

	return f.Close()
}

// isStale reports whether the holder can be safely replaced.
// Markers from other hosts are never reclaimed since their process cannot be checked.
func isStale(holder *MarkerInfo, actor *Actor) bool {
	if holder.Actor.Hostname != actor.Hostname {
		return false
	}

	if holder.PID <= 0 {
		return true
	}

	process, err := ps.FindProcess(holder.PID)
	if err != nil {
		// Assume alive when the process table is unavailable.
		return false
	}

	if process == nil {
		return true
	}

	// The pid was reused by another program.
	return holder.Executable != "" && process.Executable() != holder.Executable
}

// processExecutable returns the process name of pid, empty when unknown.
func processExecutable(pid int) string {
	process, err := ps.FindProcess(pid)
	if err != nil || process == nil {
		return ""
	}

	return process.Executable()
}
