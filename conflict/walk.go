package conflict

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/nanowc/wcedit/wcdb"
)

// directoryModificationStatus implements the directory half of
// localModificationStatus: "a full recursive walk checks text and property
// modifications" (spec.md §4.7.1). Every immediate child is probed
// concurrently via errgroup, recursing into subdirectories the same way.
func (d *Detector) directoryModificationStatus(ctx context.Context, path string) (modified bool, allDeletes bool, err error) {
	children, err := d.Probe.Children(ctx, path)
	if err != nil {
		return false, false, fmt.Errorf("conflict: list children of %s: %w", path, err)
	}
	if len(children) == 0 {
		return false, true, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if d.MaxConcurrentProbes > 0 {
		g.SetLimit(d.MaxConcurrentProbes)
	}

	var anyModified atomic.Bool
	var anyNonDeleteMod atomic.Bool
	var mu sync.Mutex
	var firstErr error

	for _, child := range children {
		child := child
		g.Go(func() error {
			entry, exists, err := d.Probe.Entry(gctx, child)
			if err != nil {
				return fmt.Errorf("conflict: probe child entry %s: %w", child, err)
			}
			if !exists {
				return nil
			}

			if entry.Schedule == wcdb.ScheduleDelete {
				anyModified.Store(true)
				return nil
			}

			childModified, childAllDeletes, err := d.localModificationStatus(gctx, child, entry)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return err
			}
			if childModified {
				anyModified.Store(true)
				if !childAllDeletes {
					anyNonDeleteMod.Store(true)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return false, false, err
	}

	return anyModified.Load(), !anyNonDeleteMod.Load(), nil
}
