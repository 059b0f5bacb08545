package versioning

import (
	"context"
	"errors"
	"fmt"

	"github.com/avgplus/avg-release/internal/domain/release"
	"github.com/avgplus/avg-release/internal/logger"
	"github.com/avgplus/avg-release/internal/repository/pkgmeta"
)

// Manager reads the version record and commits the next version.
type Manager struct {
	// repo persists the version record.
	repo pkgmeta.Repository
}

// Bump is the outcome of a version step.
type Bump struct {
	// Original is the version recorded before the run.
	Original string
	// Next is the version being released.
	Next string
	// Persisted is true when the record was rewritten.
	Persisted bool
}

// NewManager creates a manager backed by the given repository.
func NewManager(repo pkgmeta.Repository) *Manager {
	return &Manager{repo: repo}
}

// Bump computes the next version and persists it unless this is a dev run.
// A dev run releases the current version again and leaves the record untouched.
func (m *Manager) Bump(ctx context.Context, kind release.BumpKind, id string, isDev bool) (*Bump, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", release.ErrInvalidBumpKind, kind)
	}

	current, err := m.repo.LoadVersion(ctx)
	if err != nil {
		if errors.Is(err, pkgmeta.ErrNoVersion) {
			return nil, fmt.Errorf("%w: %w", release.ErrInvalidVersionFormat, err)
		}

		return nil, fmt.Errorf("load version: %w", err)
	}

	if isDev {
		// Validate anyway so a broken record fails the run before any build starts.
		if _, err = parse(current); err != nil {
			return nil, err
		}

		logger.InfoKV(ctx, "Dev package, version is not incremented", "version", current)

		return &Bump{Original: current, Next: current}, nil
	}

	next, err := Next(current, kind, id)
	if err != nil {
		return nil, err
	}

	if greater, _ := Greater(next, current); !greater {
		logger.WarnKV(ctx, "Next version does not sort after the current one",
			"current", current, "next", next, "identifier", id)
	}

	logger.InfoKV(ctx, "Updating version record", "from", current, "to", next, "kind", kind)

	if err = m.repo.SaveVersion(ctx, next); err != nil {
		return nil, fmt.Errorf("save version: %w", err)
	}

	return &Bump{Original: current, Next: next, Persisted: true}, nil
}
