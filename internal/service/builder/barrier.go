package builder

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/avgplus/avg-release/internal/domain/release"
)

// AwaitAll waits until every task succeeds or one fails.
// The first failure is returned as soon as it is observed, without waiting
// for the remaining builds; results of builds that already succeeded are
// discarded. On success there is exactly one result per task, sorted by platform.
func AwaitAll(ctx context.Context, tasks map[release.Platform]*Task) ([]release.BuildResult, error) {
	g, gctx := errgroup.WithContext(ctx)

	var (
		mu      sync.Mutex
		results = make([]release.BuildResult, 0, len(tasks))
	)

	for _, task := range tasks {
		g.Go(func() error {
			result, err := task.Wait(gctx)
			if err != nil {
				return err
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Target.Platform < results[j].Target.Platform
	})

	return results, nil
}

// Drain blocks until every task has finished, so no build outlives the run.
func Drain(tasks map[release.Platform]*Task) {
	for _, task := range tasks {
		<-task.Done()
	}
}
