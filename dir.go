package wcedit

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/nanowc/wcedit/conflict"
	"github.com/nanowc/wcedit/log"
	"github.com/nanowc/wcedit/logqueue"
	"github.com/nanowc/wcedit/notify"
	"github.com/nanowc/wcedit/wcdb"
)

// DirContext is one open directory in the drive (spec.md §3). Its log
// buffer accumulates every mutation driven against it or its children until
// close_directory flushes and replays it.
type DirContext struct {
	edit *EditContext

	abspath  string
	basename string
	parent   *DirContext // non-owning

	newURL      string
	oldRevision int64

	added                    bool
	unversionedExisted       bool
	addExistedWithoutHistory bool

	propChanges []PropChange

	logBuffer *logqueue.Buffer

	ambientDepth  wcdb.Depth
	wasIncomplete bool

	bump *BumpRecord

	skipped bool
}

// OpenRoot produces the root DirContext and marks the edit's root_opened
// flag (spec.md §4.1). If the edit has no named target (the anchor itself
// is the target), it also stages an entry-modify setting the root's
// revision, URL, and incomplete=true.
func (e *EditContext) OpenRoot(ctx context.Context) (*DirContext, error) {
	logger := log.FromContextOrNoop(ctx)
	logger.Debug("opening root directory", "anchor", e.anchorAbspath, "target", e.targetName)

	e.rootOpened = true

	bump := newBumpRecord(nil, e.anchorAbspath)
	e.registerBumpRecord(bump)

	rootURL := e.switchURL
	if rootURL == "" {
		if entry, err := e.adminStore.GetEntry(ctx, e.anchorAbspath, true, wcdb.KindDir); err == nil {
			rootURL = entry.URL
		}
	}

	root := &DirContext{
		edit:      e,
		abspath:   e.anchorAbspath,
		basename:  basename(e.anchorAbspath),
		newURL:    rootURL,
		logBuffer: logqueue.NewBuffer(),
		bump:      bump,
	}
	e.root = root

	if e.targetName == "" {
		root.logBuffer.Append(logqueue.EntryModify(e.anchorAbspath, "", wcdb.Modification{
			Fields: []wcdb.Field{wcdb.FieldRevision, wcdb.FieldURL, wcdb.FieldIncomplete},
			Entry:  wcdb.Entry{Revision: *e.targetRevision, URL: rootURL, Incomplete: true},
		}))
	}

	return root, nil
}

// SetTargetRevision stores the revision the drive will bump every
// non-skipped path to at close_edit (spec.md §4.1: "no other effect").
func (e *EditContext) SetTargetRevision(rev int64) {
	*e.targetRevision = rev
}

// skipCheck reports whether path itself is in skipped_trees and not in the
// locally deleted trees (spec.md §4.1 skip propagation). It looks up the
// given path only: it does not walk path's ancestors, and it neither adds a
// recorded tree-conflict victim to skipped_trees nor sends a skip
// notification.
func (e *EditContext) skipCheck(ctx context.Context, path string) (skip bool) {
	if e.skippedTrees[path] && !e.deletedTrees[path] {
		return true
	}
	return false
}

// newChildURL computes a child's new URL, extending the parent's URL
// (spec.md §4.3 step 1).
func newChildURL(parentURL, name string) string {
	if parentURL == "" {
		return ""
	}
	if parentURL[len(parentURL)-1] == '/' {
		return parentURL + name
	}
	return parentURL + "/" + name
}

// childAmbientDepth infers a child's ambient depth from the requested depth
// and the parent's ambient depth (spec.md §4.3 step 2: "tables omitted").
// An infinity or unknown request inherits the parent's ambient depth
// (infinity when the parent's is unknown); an immediates request narrows
// the child to files; empty, files and exclude requests are returned as is.
func childAmbientDepth(requested, parentAmbient wcdb.Depth) wcdb.Depth {
	if requested == wcdb.DepthInfinity || requested == wcdb.DepthUnknown {
		if parentAmbient == wcdb.DepthUnknown {
			return wcdb.DepthInfinity
		}
		return parentAmbient
	}
	if requested > wcdb.DepthFiles {
		return wcdb.DepthFiles
	}
	return requested
}

// AddDirectory implements spec.md §4.3 add_directory. copyfromURL non-empty
// is rejected per Open Question (b): copy-from within add_directory is not
// implemented.
func (e *EditContext) AddDirectory(ctx context.Context, parent *DirContext, relpath string, copyfromURL string, copyfromRev int64) (*DirContext, error) {
	logger := log.FromContextOrNoop(ctx)

	path, err := joinPath(parent.abspath, relpath)
	if err != nil {
		return nil, err
	}
	logger.Debug("add_directory", "path", path, "copyfrom", copyfromURL, "copyfromRev", copyfromRev)

	if copyfromURL != "" {
		return nil, fmt.Errorf("%w: copy-from within add_directory", ErrUnsupportedFeature)
	}

	if err := e.logRunner.Flush(ctx, parent.abspath, parent.logBuffer); err != nil {
		return nil, fmt.Errorf("wcedit: flush %s before add_directory: %w", parent.abspath, err)
	}

	if parent.skipped || e.skipCheck(ctx, path) {
		return e.newSkippedDir(parent, path, relpath), nil
	}

	newURL := newChildURL(parent.newURL, relpath)
	addExisted := false
	unversionedExisted := false

	existingEntry, entryErr := e.adminStore.GetEntry(ctx, path, true, wcdb.KindUnknown)
	versionedExists := entryErr == nil

	if info, statErr := os.Stat(path); statErr == nil {
		if !info.IsDir() {
			return nil, fmt.Errorf("%w: %s is a file, expected directory", ErrObstructedUpdate, path)
		}
		if !versionedExists {
			if !e.allowUnverObstructions {
				e.notify(notify.ActionUpdateObstruction, path, err)
				return nil, fmt.Errorf("%w: unversioned directory at %s", ErrObstructedUpdate, path)
			}
			unversionedExisted = true
		}
	}

	if versionedExists {
		switch {
		case existingEntry.ReposUUID != "" && e.reposUUID != "" && existingEntry.ReposUUID != e.reposUUID:
			return nil, fmt.Errorf("%w: repository UUID mismatch at %s", ErrObstructedUpdate, path)
		case existingEntry.URL != "" && existingEntry.URL != newURL:
			return nil, fmt.Errorf("%w: URL mismatch at %s", ErrObstructedUpdate, path)
		case existingEntry.Schedule == wcdb.ScheduleAdd && !existingEntry.Copied:
			addExisted = true
		case e.isAlreadyConflicted(path):
			logger.Warn("skipping add_directory, already conflicted", "path", path)
			d := e.newSkippedDir(parent, path, relpath)
			e.skippedTrees[path] = true
			e.notify(notify.ActionUpdateSkipObstruction, path, nil)
			return d, nil
		default:
			return nil, fmt.Errorf("%w: versioned directory already present at %s", ErrObstructedUpdate, path)
		}
	}

	depth := childAmbientDepth(e.requestedDepth, parent.ambientDepth)

	if err := e.adminStore.EnsureAdmin(ctx, path, e.reposUUID, e.reposRootURL, newURL, *e.targetRevision, depth); err != nil {
		return nil, fmt.Errorf("wcedit: ensure admin area at %s: %w", path, err)
	}

	mod := wcdb.Modification{
		Fields: []wcdb.Field{wcdb.FieldKind, wcdb.FieldURL, wcdb.FieldDeleted, wcdb.FieldAbsent},
		Entry:  wcdb.Entry{Kind: wcdb.KindDir, URL: newURL, Deleted: false, Absent: false},
	}
	parent.logBuffer.Append(logqueue.EntryModify(parent.abspath, relpath, mod))

	if addExisted {
		parent.logBuffer.Append(logqueue.EntryModify(path, "", wcdb.Modification{
			Fields: []wcdb.Field{wcdb.FieldSchedule, wcdb.FieldRevision},
			Entry:  wcdb.Entry{Schedule: wcdb.ScheduleNormal, Revision: *e.targetRevision},
		}))
	}

	if parent.insideDeletedTree() {
		e.deletedTrees[path] = true
		del := wcdb.Modification{Fields: []wcdb.Field{wcdb.FieldSchedule}, Entry: wcdb.Entry{Schedule: wcdb.ScheduleDelete}}
		parent.logBuffer.Append(logqueue.EntryModify(parent.abspath, relpath, del))
		parent.logBuffer.Append(logqueue.EntryModify(path, "", del))
	}

	bump := newBumpRecord(parent.bump, path)
	parent.bump.ref()
	e.registerBumpRecord(bump)

	action := notify.ActionUpdateAdd
	if addExisted || unversionedExisted {
		action = notify.ActionUpdateExists
	}
	e.notify(action, path, nil)

	return &DirContext{
		edit:                     e,
		abspath:                  path,
		basename:                 basename(path),
		parent:                   parent,
		newURL:                   newURL,
		added:                    true,
		unversionedExisted:       unversionedExisted,
		addExistedWithoutHistory: addExisted,
		logBuffer:                logqueue.NewBuffer(),
		ambientDepth:             depth,
		bump:                     bump,
	}, nil
}

// OpenDirectory implements spec.md §4.3 open_directory.
func (e *EditContext) OpenDirectory(ctx context.Context, parent *DirContext, relpath string, baseRev int64) (*DirContext, error) {
	logger := log.FromContextOrNoop(ctx)

	path, err := joinPath(parent.abspath, relpath)
	if err != nil {
		return nil, err
	}
	logger.Debug("open_directory", "path", path, "baseRev", baseRev)

	if err := e.logRunner.Flush(ctx, parent.abspath, parent.logBuffer); err != nil {
		return nil, fmt.Errorf("wcedit: flush %s before open_directory: %w", parent.abspath, err)
	}

	if parent.skipped || e.skipCheck(ctx, path) {
		return e.newSkippedDir(parent, path, relpath), nil
	}

	entry, err := e.adminStore.GetEntry(ctx, path, true, wcdb.KindDir)
	if err != nil {
		return nil, fmt.Errorf("wcedit: open_directory %s: %w", path, err)
	}

	dctx := &DirContext{
		edit:          e,
		abspath:       path,
		basename:      basename(path),
		parent:        parent,
		newURL:        newChildURL(parent.newURL, relpath),
		oldRevision:   entry.Revision,
		logBuffer:     logqueue.NewBuffer(),
		ambientDepth:  entry.Depth,
		wasIncomplete: entry.Incomplete,
	}

	detector := e.newConflictDetector()
	sourceRight := conflict.Version{URL: dctx.newURL, Revision: *e.targetRevision, Kind: wcdb.KindDir}
	desc, conflicted, cErr := detector.Check(ctx, path, conflict.ActionEdit, wcdb.KindDir, sourceRight)
	if cErr != nil {
		return nil, cErr
	}
	if conflicted {
		logger.Warn("tree conflict on open_directory, skipping subtree", "path", path, "reason", desc.Reason)
		e.recordTreeConflict(dctx.parent, relpath, desc)
		if desc.Reason == conflict.ReasonDeleted || desc.Reason == conflict.ReasonReplaced {
			e.deletedTrees[path] = true
		}
		dctx.skipped = true
		e.skippedTrees[path] = true
	}

	bump := newBumpRecord(parent.bump, path)
	bump.skipped = dctx.skipped
	parent.bump.ref()
	e.registerBumpRecord(bump)
	dctx.bump = bump

	if !dctx.skipped {
		dctx.logBuffer.Append(logqueue.EntryModify(path, "", wcdb.Modification{
			Fields: []wcdb.Field{wcdb.FieldRevision, wcdb.FieldURL, wcdb.FieldIncomplete},
			Entry:  wcdb.Entry{Revision: *e.targetRevision, URL: dctx.newURL, Incomplete: true},
		}))
	}

	return dctx, nil
}

func (e *EditContext) newSkippedDir(parent *DirContext, path, relpath string) *DirContext {
	e.skippedTrees[path] = true
	return &DirContext{
		edit:      e,
		abspath:   path,
		basename:  basename(path),
		parent:    parent,
		logBuffer: logqueue.NewBuffer(),
		skipped:   true,
	}
}

// insideDeletedTree reports whether d or any ancestor is a recorded local
// deletion root (spec.md §3: "membership in deleted_trees implies every
// descendant is inside a local deletion").
func (d *DirContext) insideDeletedTree() bool {
	for c := d; c != nil; c = c.parent {
		if c.edit.deletedTrees[c.abspath] {
			return true
		}
	}
	return false
}

func (e *EditContext) notify(action notify.Action, path string, err error) {
	e.notifier.Notify(notify.Event{
		Path:     path,
		Action:   action,
		Revision: *e.targetRevision,
		Time:     time.Time{},
		Err:      err,
	})
}

// recordTreeConflict appends a loggy add-tree-conflict command to the
// parent's log buffer (spec.md §4.7.1: "append a loggy add-tree-conflict
// command, and return the conflict to the caller").
func (e *EditContext) recordTreeConflict(parent *DirContext, name string, desc conflict.Description) {
	data := encodeTreeConflict(desc)
	if parent != nil {
		parent.logBuffer.Append(logqueue.AddTreeConflict(parent.abspath, name, data))
	}
	e.notify(notify.ActionTreeConflict, desc.Path, nil)
}

// encodeTreeConflict renders a conflict.Description into the opaque
// TreeConflictData string stored on the entry.
func encodeTreeConflict(desc conflict.Description) string {
	return fmt.Sprintf("action=%s;reason=%s;operation=%s;source-left=%s@%d;source-right=%s@%d",
		desc.Action, desc.Reason, desc.Operation,
		desc.SourceLeft.URL, desc.SourceLeft.Revision,
		desc.SourceRight.URL, desc.SourceRight.Revision)
}
