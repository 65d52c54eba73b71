package wcedit

import (
	"context"

	"github.com/nanowc/wcedit/log"
)

// BumpRecord is the refcounted completion tracker spec.md §3 keeps separate
// from DirContext: "a separate BumpRecord tree with its own arena-bound
// lifetime... so file contexts can keep the bump node alive past their
// directory's close" (spec.md §9). Its ref_count equals the number of live
// child files plus live child-directory BumpRecords, plus one while its own
// DirContext is open (spec.md §3 invariant).
type BumpRecord struct {
	parent   *BumpRecord
	path     string
	refCount int
	skipped  bool
}

// newBumpRecord creates a BumpRecord with the directory's own open-context
// reference already counted (spec.md §3: "+1 while its own DirContext is
// open").
func newBumpRecord(parent *BumpRecord, path string) *BumpRecord {
	return &BumpRecord{parent: parent, path: path, refCount: 1}
}

// ref increments the record's reference count, called when a child file or
// child directory context is created under it.
func (b *BumpRecord) ref() {
	b.refCount++
}

// registerBumpRecord installs b in the edit's non-owning path index, the
// accessor the original's bump_dirs_record wrapper guards: a postfix
// text-delta window may arrive after its DirContext has already closed and
// been freed, yet the bump record must still be reachable by path alone
// (spec.md §5 SUPPLEMENTED FEATURES).
func (e *EditContext) registerBumpRecord(b *BumpRecord) {
	if e.bumpByPath == nil {
		e.bumpByPath = make(map[string]*BumpRecord)
	}
	e.bumpByPath[b.path] = b
}

// bumpRecordFor looks up a BumpRecord by path without assuming the caller
// holds a live DirContext baton for it.
func (e *EditContext) bumpRecordFor(path string) (*BumpRecord, bool) {
	b, ok := e.bumpByPath[path]
	return b, ok
}

// maybeBumpDirInfo implements the completion cascade spec.md §4.7 names
// `maybe_bump_dir_info`: decrement the record; if it reaches zero and was
// never skipped, complete the directory, then recurse into the parent. This
// decouples directory finalization from the producer's close ordering —
// files may close in postfix order after their own directory already did.
func (e *EditContext) maybeBumpDirInfo(ctx context.Context, b *BumpRecord) error {
	logger := log.FromContextOrNoop(ctx)

	for b != nil {
		b.refCount--
		if b.refCount > 0 {
			return nil
		}

		delete(e.bumpByPath, b.path)

		if b.skipped {
			logger.Debug("bump reached zero but directory was skipped, leaving incomplete", "path", b.path)
		} else {
			logger.Debug("bump reached zero, completing directory", "path", b.path)
			if err := e.completeDirectory(ctx, b.path); err != nil {
				return err
			}
		}

		b = b.parent
	}
	return nil
}
