package builder

import (
	"context"

	"github.com/avgplus/avg-release/internal/domain/release"
)

// Task is the completion signal of a single build process.
type Task struct {
	// target is the build this task tracks.
	target release.BuildTarget
	// done is closed once result and err are set.
	done chan struct{}
	// result is the build outcome, valid after done is closed.
	result release.BuildResult
	// err is a *release.BuildFailedError for unsuccessful builds.
	err error
}

func newTask(target release.BuildTarget) *Task {
	return &Task{
		target: target,
		done:   make(chan struct{}),
	}
}

// resolve publishes the outcome; it must be called exactly once.
func (t *Task) resolve(result release.BuildResult, err error) {
	t.result = result
	t.err = err
	close(t.done)
}

// Target returns the build target.
func (t *Task) Target() release.BuildTarget {
	return t.target
}

// Done is closed when the build process has exited.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Result returns the build outcome; it is valid once Done is closed.
func (t *Task) Result() release.BuildResult {
	<-t.done

	return t.result
}

// Err returns a *release.BuildFailedError for an unsuccessful build, nil otherwise.
func (t *Task) Err() error {
	<-t.done

	return t.err
}

// Wait blocks until the build exits or ctx is done.
func (t *Task) Wait(ctx context.Context) (release.BuildResult, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return release.BuildResult{Target: t.target, ExitCode: -1}, ctx.Err()
	}
}
