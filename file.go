package wcedit

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nanowc/wcedit/checksum"
	"github.com/nanowc/wcedit/conflict"
	"github.com/nanowc/wcedit/log"
	"github.com/nanowc/wcedit/notify"
	"github.com/nanowc/wcedit/pristine"
	"github.com/nanowc/wcedit/wcdb"
)

// FileContext is one open file in the drive (spec.md §3).
type FileContext struct {
	edit   *EditContext
	parent *DirContext // non-owning

	abspath  string
	basename string
	newURL   string

	oldRevision int64

	added             bool
	addedWithHistory  bool
	skipped           bool
	unversionedExists bool
	addExisted        bool

	deletedInLocalTree bool
	treeConflicted     bool

	receivedTextDelta bool

	// newPristineSum is the new text base's checksum, set once
	// apply_textdelta's handler finishes successfully; not installed
	// permanently until merge_file commits it (spec.md §4.5 step 6).
	newPristineSum checksum.Checksum
	newPristineSet bool

	// copiedBaseSum/copiedBaseProps/copiedWorkingPath/copiedWorkingProps
	// hold what the copy-from locator (§4.4.1) found for an add-with-history,
	// consumed by merge_file's action matrix (§4.5).
	copiedBaseSum      checksum.Checksum
	haveCopiedBase     bool
	copiedBaseProps    wcdb.Props
	copiedWorkingPath  string
	copiedWorkingProps wcdb.Props

	lastChangedDate time.Time

	propChanges []PropChange

	bump *BumpRecord
}

// AddFile implements spec.md §4.4 add_file: obstruction/conflict logic
// symmetrical to AddDirectory, plus the copy-from path (§4.4.1) when
// copyfrom arguments are supplied.
func (e *EditContext) AddFile(ctx context.Context, parent *DirContext, relpath string, copyfromURL string, copyfromRev int64) (*FileContext, error) {
	logger := log.FromContextOrNoop(ctx)

	path, err := joinPath(parent.abspath, relpath)
	if err != nil {
		return nil, err
	}
	logger.Debug("add_file", "path", path, "copyfrom", copyfromURL, "copyfromRev", copyfromRev)

	if parent.skipped || e.skipCheck(ctx, path) {
		return e.newSkippedFile(parent, path, relpath), nil
	}

	newURL := newChildURL(parent.newURL, relpath)
	unversionedExists := false
	addExisted := false

	existingEntry, entryErr := e.adminStore.GetEntry(ctx, path, true, wcdb.KindUnknown)
	versionedExists := entryErr == nil

	if _, statErr := os.Stat(path); statErr == nil && !versionedExists {
		if !e.allowUnverObstructions {
			e.notify(notify.ActionUpdateObstruction, path, nil)
			return nil, fmt.Errorf("%w: unversioned file at %s", ErrObstructedUpdate, path)
		}
		unversionedExists = true
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
			logger.Warn("skipping add_file, already conflicted", "path", path)
			f := e.newSkippedFile(parent, path, relpath)
			e.skippedTrees[path] = true
			e.notify(notify.ActionUpdateSkipObstruction, path, nil)
			return f, nil
		default:
			return nil, fmt.Errorf("%w: versioned file already present at %s", ErrObstructedUpdate, path)
		}
	}

	fctx := &FileContext{
		edit:              e,
		parent:            parent,
		abspath:           path,
		basename:          basename(path),
		newURL:            newURL,
		added:             true,
		unversionedExists: unversionedExists,
		addExisted:        addExisted,
		bump:              parent.bump,
	}
	parent.bump.ref()

	if copyfromURL != "" {
		if err := e.locateCopyFrom(ctx, fctx, parent, copyfromURL, copyfromRev); err != nil {
			return nil, err
		}
		fctx.addedWithHistory = true
	}

	if parent.insideDeletedTree() {
		fctx.deletedInLocalTree = true
	}

	return fctx, nil
}

// OpenFile implements spec.md §4.4 open_file: records the old revision and
// runs conflict checks for fresh tree conflicts.
func (e *EditContext) OpenFile(ctx context.Context, parent *DirContext, relpath string, baseRev int64) (*FileContext, error) {
	logger := log.FromContextOrNoop(ctx)

	path, err := joinPath(parent.abspath, relpath)
	if err != nil {
		return nil, err
	}
	logger.Debug("open_file", "path", path, "baseRev", baseRev)

	if parent.skipped || e.skipCheck(ctx, path) {
		return e.newSkippedFile(parent, path, relpath), nil
	}

	entry, err := e.adminStore.GetEntry(ctx, path, true, wcdb.KindFile)
	if err != nil {
		return nil, fmt.Errorf("wcedit: open_file %s: %w", path, err)
	}

	fctx := &FileContext{
		edit:        e,
		parent:      parent,
		abspath:     path,
		basename:    basename(path),
		newURL:      newChildURL(parent.newURL, relpath),
		oldRevision: entry.Revision,
		bump:        parent.bump,
	}
	parent.bump.ref()

	detector := e.newConflictDetector()
	sourceRight := conflict.Version{URL: fctx.newURL, Revision: *e.targetRevision, Kind: wcdb.KindFile}
	desc, conflicted, cErr := detector.Check(ctx, path, conflict.ActionEdit, wcdb.KindFile, sourceRight)
	if cErr != nil {
		return nil, cErr
	}
	if conflicted {
		logger.Warn("tree conflict on open_file, skipping", "path", path, "reason", desc.Reason)
		e.recordTreeConflict(parent, relpath, desc)
		fctx.treeConflicted = true
		fctx.skipped = true
		e.skippedTrees[path] = true
	}

	return fctx, nil
}

func (e *EditContext) newSkippedFile(parent *DirContext, path, relpath string) *FileContext {
	e.skippedTrees[path] = true
	return &FileContext{edit: e, parent: parent, abspath: path, basename: basename(path), skipped: true}
}

// HandlerContext is created by ApplyTextDelta and destroyed after the last
// delta window or on error (spec.md §3). The delta-application engine
// itself is an out-of-scope external collaborator (spec.md §6): windows
// arrive already reconstructed as fulltext chunks, and HandlerContext's job
// is solely to stage them into a new pristine text base while verifying the
// claimed source checksum.
type HandlerContext struct {
	file *FileContext

	expectedSourceSum checksum.Checksum
	haveExpectedSrc   bool

	sourceReader io.ReadCloser

	writer pristine.Writer

	closed bool
}

// ApplyTextDelta implements spec.md §4.4.2. If the FileContext is skipped,
// a no-op handler is returned.
func (e *EditContext) ApplyTextDelta(ctx context.Context, f *FileContext, baseChecksum string) (*HandlerContext, error) {
	logger := log.FromContextOrNoop(ctx)
	logger.Debug("apply_textdelta", "path", f.abspath, "baseChecksum", baseChecksum)

	if f.skipped {
		return &HandlerContext{file: f, closed: true}, nil
	}
	f.receivedTextDelta = true

	var expected checksum.Checksum
	haveExpected := false
	if baseChecksum != "" {
		sum, err := checksum.FromHex(baseChecksum)
		if err != nil {
			return nil, fmt.Errorf("wcedit: parse base checksum for %s: %w", f.abspath, err)
		}
		expected = sum
		haveExpected = true
	}

	var sourceReader io.ReadCloser
	entry, entryErr := e.adminStore.GetEntry(ctx, f.abspath, true, wcdb.KindFile)

	switch {
	case f.addedWithHistory && f.haveCopiedBase:
		rc, err := e.pristineStore.Open(ctx, f.copiedBaseSum)
		if err != nil {
			return nil, fmt.Errorf("wcedit: open copied pristine for %s: %w", f.abspath, err)
		}
		sourceReader = rc
	case f.added:
		sourceReader = io.NopCloser(bytes.NewReader(nil))
	default:
		if entryErr != nil {
			return nil, fmt.Errorf("wcedit: load entry for %s: %w", f.abspath, entryErr)
		}

		// A file scheduled for replace (locally deleted then re-added,
		// ahead of this drive) still carries its pre-replace pristine as
		// RevertChecksum; that, not the current Checksum, is the real
		// delta source, and the checksum-match precondition does not
		// apply to it (spec.md §4.4.2 steps 3-4).
		sourceChecksum := entry.Checksum
		replaced := entry.Schedule == wcdb.ScheduleReplace
		if replaced {
			sourceChecksum = entry.RevertChecksum
		}

		if !replaced && haveExpected && sourceChecksum != "" {
			current, err := checksum.FromHex(sourceChecksum)
			if err != nil {
				return nil, fmt.Errorf("wcedit: parse recorded checksum for %s: %w", f.abspath, err)
			}
			if current != expected {
				return nil, fmt.Errorf("%w: source checksum mismatch for %s", ErrCorruptTextBase, f.abspath)
			}
		}
		if sourceChecksum != "" {
			sum, err := checksum.FromHex(sourceChecksum)
			if err != nil {
				return nil, fmt.Errorf("wcedit: parse checksum for %s: %w", f.abspath, err)
			}
			rc, err := e.pristineStore.Open(ctx, sum)
			if err != nil {
				return nil, fmt.Errorf("wcedit: open pristine base for %s: %w", f.abspath, err)
			}
			sourceReader = rc
		} else {
			sourceReader = io.NopCloser(bytes.NewReader(nil))
		}
	}

	writer, err := e.pristineStore.NewWriter(ctx)
	if err != nil {
		if sourceReader != nil {
			_ = sourceReader.Close()
		}
		return nil, fmt.Errorf("wcedit: stage new pristine for %s: %w", f.abspath, err)
	}

	return &HandlerContext{
		file:              f,
		expectedSourceSum: expected,
		haveExpectedSrc:   haveExpected,
		sourceReader:      sourceReader,
		writer:            writer,
	}, nil
}

// Write feeds one reconstructed fulltext chunk (a "window") into the
// staged new text base (spec.md §4.4.2 step 7: "feed each window through
// the delta engine").
func (h *HandlerContext) Write(window []byte) error {
	if h.closed {
		return nil
	}
	if _, err := h.writer.Write(window); err != nil {
		return fmt.Errorf("wcedit: write delta window for %s: %w", h.file.abspath, err)
	}
	return nil
}

// Close finalizes the handler: verifies the source checksum and installs
// the new pristine checksum on success; on failure removes the staged
// temp file (spec.md §4.4.2 step 7, and the window_handler error-path
// cleanup supplement in SPEC_FULL.md §5).
func (h *HandlerContext) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true

	if h.sourceReader != nil {
		actual, _, err := checksum.CopyAndSum(io.Discard, h.sourceReader)
		_ = h.sourceReader.Close()
		if err != nil {
			_ = h.writer.Abort()
			return fmt.Errorf("wcedit: drain source for %s: %w", h.file.abspath, err)
		}
		if h.haveExpectedSrc && actual != h.expectedSourceSum {
			_ = h.writer.Abort()
			return fmt.Errorf("%w: delta source checksum mismatch for %s", ErrCorruptTextBase, h.file.abspath)
		}
	}

	sum, err := h.writer.Close()
	if err != nil {
		return fmt.Errorf("wcedit: finalize new pristine for %s: %w", h.file.abspath, err)
	}

	h.file.newPristineSum = sum
	h.file.newPristineSet = true
	return nil
}

// tempWorkPath returns a scratch path in the administrative temp area for
// staging a file installed by merge_file (spec.md §6 persisted state:
// ".admin/tmp/"), creating that area first if it does not already exist.
func (f *FileContext) tempWorkPath(suffix string) (string, error) {
	dir := filepath.Join(dirname(f.abspath), adminDirName, "tmp")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("wcedit: create admin temp area for %s: %w", f.abspath, err)
	}
	return filepath.Join(dir, f.basename+suffix), nil
}
