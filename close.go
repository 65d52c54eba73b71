package wcedit

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/nanowc/wcedit/externals"
	"github.com/nanowc/wcedit/log"
	"github.com/nanowc/wcedit/logqueue"
	"github.com/nanowc/wcedit/notify"
	"github.com/nanowc/wcedit/wcdb"
)

const externalsPropName = "svn:externals"

// CloseDirectory implements spec.md §4.6.
func (e *EditContext) CloseDirectory(ctx context.Context, d *DirContext) error {
	logger := log.FromContextOrNoop(ctx)
	logger.Debug("close_directory", "path", d.abspath, "skipped", d.skipped)

	if d.skipped {
		return e.maybeBumpDirInfo(ctx, d.bump)
	}

	entryProps, wcProps, regularProps := partitionProps(d.propChanges)

	if len(wcProps) > 0 {
		values := make(map[string]string, len(wcProps))
		for _, p := range wcProps {
			if !p.Deleted {
				values[p.Name] = p.Value
			}
		}
		if err := e.adminStore.SetDAVCache(ctx, d.abspath, values); err != nil {
			return fmt.Errorf("wcedit: install wc-props for %s: %w", d.abspath, err)
		}
	}

	for _, p := range entryProps {
		if p.Name == entryPropCommittedRev {
			d.logBuffer.Append(logqueue.EntryModify(d.abspath, "", wcdb.Modification{
				Fields: []wcdb.Field{wcdb.FieldCommitInfo},
				Entry:  wcdb.Entry{CommitRevision: *e.targetRevision},
			}))
		}
	}

	var (
		externalsOld, externalsNew string
		externalsChanged           bool
	)

	if len(regularProps) > 0 || d.wasIncomplete {
		layers, err := e.adminStore.LoadProps(ctx, d.abspath)
		if err != nil {
			return fmt.Errorf("wcedit: load properties for %s: %w", d.abspath, err)
		}

		latest := layers.Working.Clone()
		if latest == nil {
			latest = wcdb.Props{}
		}
		for _, p := range regularProps {
			if p.Deleted {
				delete(latest, p.Name)
			} else {
				latest[p.Name] = p.Value
			}
		}

		if d.wasIncomplete {
			incoming := make(map[string]bool, len(regularProps))
			for _, p := range regularProps {
				incoming[p.Name] = true
			}
			for name := range layers.Base {
				if !incoming[name] {
					delete(latest, name)
				}
			}
		}

		oldExternals := layers.Working[externalsPropName]
		newExternals := latest[externalsPropName]
		if oldExternals != newExternals {
			externalsOld, externalsNew, externalsChanged = oldExternals, newExternals, true
		}

		merged, conflicts, err := e.mergeService.MergeProps(layers.Base, layers.Working, latest, e.resolvePropConflict(ctx, d.abspath))
		if err != nil {
			return fmt.Errorf("wcedit: merge properties for %s: %w", d.abspath, err)
		}

		d.logBuffer.Append(logqueue.MergeProps(d.abspath, wcdb.PropLayers{Base: latest, Working: merged, Revert: layers.Revert}))

		if len(conflicts) > 0 {
			e.notifier.Notify(notify.Event{Path: d.abspath, Action: notify.ActionTreeConflict, PropState: notify.PropStateConflicted})
		}
	}

	if externalsChanged {
		e.externalsSink.Changed(ctx, externals.Change{
			Path:         d.abspath,
			OldValue:     externalsOld,
			NewValue:     externalsNew,
			AmbientDepth: d.ambientDepth,
		})
	}

	if err := e.logRunner.FlushAndRun(ctx, d.abspath, d.logBuffer); err != nil {
		return fmt.Errorf("wcedit: flush and run log for %s: %w", d.abspath, err)
	}

	if err := e.maybeBumpDirInfo(ctx, d.bump); err != nil {
		return err
	}

	if !d.added && !d.insideDeletedTree() {
		action := notify.ActionUpdateUpdate
		if d.unversionedExisted {
			action = notify.ActionUpdateExists
		}
		e.notify(action, d.abspath, nil)
	}

	return nil
}

// CloseEdit implements spec.md §4.7 close_edit.
func (e *EditContext) CloseEdit(ctx context.Context) error {
	logger := log.FromContextOrNoop(ctx)
	logger.Debug("close_edit", "anchor", e.anchorAbspath, "targetRevision", *e.targetRevision)

	if e.targetName != "" && e.root != nil {
		targetPath := e.targetAbspath()
		if _, statErr := os.Stat(targetPath); os.IsNotExist(statErr) {
			if entry, entryErr := e.adminStore.GetEntry(ctx, targetPath, true, wcdb.KindUnknown); entryErr == nil {
				if err := e.doEntryDeletion(ctx, e.root, e.targetName, entry); err != nil {
					return fmt.Errorf("wcedit: synthesize deletion of vanished target %s: %w", targetPath, err)
				}
			}
		}
	}

	if !e.rootOpened {
		if err := e.completeDirectory(ctx, e.anchorAbspath); err != nil {
			return err
		}
	}

	if !e.targetDeleted {
		if err := e.updateCleanupSweep(ctx, e.anchorAbspath); err != nil {
			return err
		}
	}

	e.root = nil
	e.bumpByPath = make(map[string]*BumpRecord)
	return nil
}

// completeDirectory atomically finalizes one directory's bookkeeping once
// every child it owns has closed (spec.md §4.7 "complete_directory").
// Entries are mutated directly rather than through the log: by the time a
// directory completes, its own log has already run, and this sweep spans
// only entries already safely recorded.
func (e *EditContext) completeDirectory(ctx context.Context, path string) error {
	log.FromContextOrNoop(ctx).Debug("complete_directory", "path", path)

	entries, err := e.adminStore.ReadEntries(ctx, path)
	if err != nil {
		if isNotFoundErr(err) {
			return nil
		}
		return fmt.Errorf("wcedit: complete directory %s: %w", path, err)
	}

	thisDir := entries[""]

	for name, entry := range entries {
		if name == "" {
			continue
		}
		child, err := joinPath(path, name)
		if err != nil {
			continue
		}

		switch {
		case entry.Deleted && entry.Schedule != wcdb.ScheduleAdd:
			if err := e.adminStore.RemoveEntry(ctx, child); err != nil {
				return fmt.Errorf("wcedit: remove deleted entry %s: %w", child, err)
			}
			continue
		case entry.Deleted && entry.Schedule == wcdb.ScheduleAdd:
			if err := e.adminStore.ModifyEntry(ctx, path, name, wcdb.Modification{
				Fields: []wcdb.Field{wcdb.FieldDeleted},
				Entry:  wcdb.Entry{Deleted: false},
			}); err != nil {
				return fmt.Errorf("wcedit: clear deleted flag on %s: %w", child, err)
			}
		}

		if entry.Absent && entry.Revision != *e.targetRevision {
			if err := e.adminStore.RemoveEntry(ctx, child); err != nil {
				return fmt.Errorf("wcedit: remove stale absent entry %s: %w", child, err)
			}
			continue
		}

		if entry.Missing && entry.Schedule != wcdb.ScheduleAdd && !entry.Absent {
			if err := e.adminStore.RemoveEntry(ctx, child); err != nil {
				return fmt.Errorf("wcedit: remove missing entry %s: %w", child, err)
			}
			e.notify(notify.ActionUpdateDelete, child, nil)
		}
	}

	fields := []wcdb.Field{wcdb.FieldIncomplete}
	newThisDir := wcdb.Entry{Incomplete: false}

	switch {
	case thisDir.Depth == wcdb.DepthExclude && e.depthSticky && e.requestedDepth > wcdb.DepthExclude:
		fields = append(fields, wcdb.FieldDepth)
		newThisDir.Depth = e.requestedDepth
	case e.depthSticky && (e.requestedDepth == wcdb.DepthInfinity || path == e.targetAbspath()):
		fields = append(fields, wcdb.FieldDepth)
		newThisDir.Depth = e.requestedDepth
	}

	if err := e.adminStore.ModifyEntry(ctx, path, "", wcdb.Modification{Fields: fields, Entry: newThisDir}); err != nil {
		return fmt.Errorf("wcedit: clear incomplete flag on %s: %w", path, err)
	}

	return nil
}

// updateCleanupSweep implements spec.md §4.7 step 3: walk every
// non-skipped path and bump its recorded revision to the target; for a
// switch, also rewrite URLs recursively.
func (e *EditContext) updateCleanupSweep(ctx context.Context, dir string) error {
	for path := range e.deletedTrees {
		delete(e.skippedTrees, path)
	}
	return e.cleanupSweepDir(ctx, dir)
}

func (e *EditContext) cleanupSweepDir(ctx context.Context, dir string) error {
	if e.skippedTrees[dir] {
		return nil
	}

	entries, err := e.adminStore.ReadEntries(ctx, dir)
	if err != nil {
		if isNotFoundErr(err) {
			return nil
		}
		return fmt.Errorf("wcedit: read entries for cleanup sweep at %s: %w", dir, err)
	}

	for name, entry := range entries {
		path := dir
		if name != "" {
			p, err := joinPath(dir, name)
			if err != nil {
				continue
			}
			path = p
		}

		if e.skippedTrees[path] {
			continue
		}

		fields := []wcdb.Field{wcdb.FieldRevision}
		newEntry := wcdb.Entry{Revision: *e.targetRevision}
		if e.switchURL != "" {
			fields = append(fields, wcdb.FieldURL)
			newEntry.URL = e.switchedURLFor(path)
		}

		if err := e.adminStore.ModifyEntry(ctx, dir, name, wcdb.Modification{Fields: fields, Entry: newEntry}); err != nil {
			return fmt.Errorf("wcedit: cleanup sweep bump %s: %w", path, err)
		}

		if name != "" && entry.Kind == wcdb.KindDir {
			if err := e.cleanupSweepDir(ctx, path); err != nil {
				return err
			}
		}
	}

	return nil
}

// switchedURLFor computes path's new URL under the switch target, by
// re-anchoring its path relative to the edit's anchor onto switchURL.
func (e *EditContext) switchedURLFor(path string) string {
	rel := strings.TrimPrefix(path, e.anchorAbspath)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return e.switchURL
	}
	return newChildURL(e.switchURL, rel)
}
