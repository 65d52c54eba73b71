package wcedit

import (
	"context"
	"fmt"
	"os"

	"github.com/nanowc/wcedit/conflict"
	"github.com/nanowc/wcedit/log"
	"github.com/nanowc/wcedit/logqueue"
	"github.com/nanowc/wcedit/notify"
	"github.com/nanowc/wcedit/wcdb"
)

// targetAbspath is the edit's named target, or the anchor itself when no
// target name was given (spec.md §8 boundary behavior: "Empty target name =
// root is the target").
func (e *EditContext) targetAbspath() string {
	if e.targetName == "" {
		return e.anchorAbspath
	}
	p, err := joinPath(e.anchorAbspath, e.targetName)
	if err != nil {
		return e.anchorAbspath
	}
	return p
}

// DeleteEntry implements spec.md §4.2's deletion decision.
func (e *EditContext) DeleteEntry(ctx context.Context, parent *DirContext, relpath string, rev int64) error {
	logger := log.FromContextOrNoop(ctx)

	path, err := joinPath(parent.abspath, relpath)
	if err != nil {
		return err
	}
	logger.Debug("delete_entry", "path", path, "rev", rev)

	if parent.skipped || e.skipCheck(ctx, path) {
		return nil
	}

	entry, err := e.adminStore.GetEntry(ctx, path, true, wcdb.KindUnknown)
	if err != nil {
		return fmt.Errorf("wcedit: delete_entry %s: %w", path, err)
	}

	if entry.Depth == wcdb.DepthExclude {
		return e.adminStore.RemoveEntry(ctx, path)
	}

	detector := e.newConflictDetector()
	desc, conflicted, err := detector.Check(ctx, path, conflict.ActionDelete, wcdb.KindNone, conflict.Version{})
	if err != nil {
		return err
	}

	if conflicted {
		logger.Warn("tree conflict on delete_entry", "path", path, "reason", desc.Reason)
		e.recordTreeConflict(parent, relpath, desc)

		switch desc.Reason {
		case conflict.ReasonEdited:
			if err := e.logRunner.FlushAndRun(ctx, parent.abspath, parent.logBuffer); err != nil {
				return fmt.Errorf("wcedit: flush %s before re-add reschedule: %w", parent.abspath, err)
			}
			if err := e.scheduleForReadd(ctx, parent, relpath, entry, true); err != nil {
				return err
			}
			e.skippedTrees[path] = true
			return nil

		case conflict.ReasonReplaced:
			if err := e.logRunner.FlushAndRun(ctx, parent.abspath, parent.logBuffer); err != nil {
				return fmt.Errorf("wcedit: flush %s before re-add reschedule: %w", parent.abspath, err)
			}
			if err := e.scheduleForReadd(ctx, parent, relpath, entry, false); err != nil {
				return err
			}
			e.skippedTrees[path] = true
			return nil

		case conflict.ReasonDeleted:
			// Marker recorded; fall through to normal deletion.
		}
	}

	return e.doEntryDeletion(ctx, parent, relpath, entry)
}

// doEntryDeletion is the shared deletion tail (spec.md §4.2 steps 7-9),
// reused by close_edit when the target has vanished without an explicit
// delete_entry call (spec.md §4.7: "synthesize a do_entry_deletion").
func (e *EditContext) doEntryDeletion(ctx context.Context, parent *DirContext, relpath string, entry wcdb.Entry) error {
	path, err := joinPath(parent.abspath, relpath)
	if err != nil {
		return err
	}

	if path == e.targetAbspath() {
		// Recreate a 'deleted' stub entry in place rather than removing the
		// row outright, so the parent can still report accurately on this
		// path later. Revision and kind are brought up to date; URL is not
		// (this might be a switch, in which case the stub is left pointing
		// at its pre-switch location).
		parent.logBuffer.Append(logqueue.EntryModify(parent.abspath, relpath, wcdb.Modification{
			Fields: []wcdb.Field{wcdb.FieldDeleted, wcdb.FieldRevision, wcdb.FieldKind},
			Entry:  wcdb.Entry{Deleted: true, Revision: *e.targetRevision, Kind: entry.Kind},
		}))
		e.targetDeleted = true
	} else {
		parent.logBuffer.Append(logqueue.DeleteEntry(parent.abspath, relpath))
	}

	if e.switchURL != "" && entry.Kind == wcdb.KindDir {
		if err := e.adminStore.RemoveEntry(ctx, path); err != nil && !isNotFoundErr(err) {
			return fmt.Errorf("wcedit: remove switch victim %s from revision control: %w", path, err)
		}
	}

	if err := e.logRunner.FlushAndRun(ctx, parent.abspath, parent.logBuffer); err != nil {
		return fmt.Errorf("wcedit: run deletion log for %s: %w", path, err)
	}

	e.notify(notify.ActionUpdateDelete, path, nil)
	return nil
}

// scheduleForReadd implements spec.md §4.2.1: used when a remote delete
// hits a locally modified subtree. Entries are mutated directly rather than
// through the log because the subtree walk spans multiple directories and
// loggy semantics is scoped to one directory at a time.
func (e *EditContext) scheduleForReadd(ctx context.Context, parent *DirContext, relpath string, entry wcdb.Entry, preserveCopyfrom bool) error {
	path, err := joinPath(parent.abspath, relpath)
	if err != nil {
		return err
	}

	newURL := newChildURL(parent.newURL, relpath)
	mod := wcdb.Modification{
		Fields: []wcdb.Field{wcdb.FieldSchedule, wcdb.FieldURL, wcdb.FieldCopied},
		Entry:  wcdb.Entry{Schedule: wcdb.ScheduleAdd, URL: newURL, Copied: preserveCopyfrom},
	}
	if preserveCopyfrom {
		mod.Fields = append(mod.Fields, wcdb.FieldCopyFrom)
		mod.Entry.CopyFrom = wcdb.CopyFrom{URL: entry.URL, Revision: entry.Revision}
	}

	if err := e.adminStore.ModifyEntry(ctx, parent.abspath, relpath, mod); err != nil {
		return fmt.Errorf("wcedit: reschedule %s for re-add: %w", path, err)
	}

	if entry.Kind == wcdb.KindDir {
		if err := e.adminStore.ModifyEntry(ctx, path, "", mod); err != nil {
			return fmt.Errorf("wcedit: reschedule %s this-dir for re-add: %w", path, err)
		}
		if err := e.markDescendantsCopied(ctx, path); err != nil {
			return err
		}
	}

	return nil
}

// markDescendantsCopied walks the subtree rooted at dir, marking every
// normally-scheduled descendant copied=true (spec.md §4.2.1 step 2).
func (e *EditContext) markDescendantsCopied(ctx context.Context, dir string) error {
	entries, err := e.adminStore.ReadEntries(ctx, dir)
	if err != nil {
		if isNotFoundErr(err) {
			return nil
		}
		return fmt.Errorf("wcedit: read entries under %s: %w", dir, err)
	}

	for name, entry := range entries {
		if name == "" || entry.Schedule != wcdb.ScheduleNormal {
			continue
		}
		child, err := joinPath(dir, name)
		if err != nil {
			continue
		}

		if err := e.adminStore.ModifyEntry(ctx, dir, name, wcdb.Modification{
			Fields: []wcdb.Field{wcdb.FieldCopied},
			Entry:  wcdb.Entry{Copied: true},
		}); err != nil {
			return fmt.Errorf("wcedit: mark %s copied: %w", child, err)
		}

		if entry.Kind != wcdb.KindDir {
			continue
		}

		if _, statErr := os.Stat(child); statErr != nil {
			continue
		}
		if err := e.adminStore.ModifyEntry(ctx, child, "", wcdb.Modification{
			Fields: []wcdb.Field{wcdb.FieldCopied},
			Entry:  wcdb.Entry{Copied: true},
		}); err != nil {
			return fmt.Errorf("wcedit: mark %s this-dir copied: %w", child, err)
		}
		if err := e.markDescendantsCopied(ctx, child); err != nil {
			return err
		}
	}

	return nil
}
