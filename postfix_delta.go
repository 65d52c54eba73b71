package wcedit

import (
	"context"
	"fmt"

	"github.com/nanowc/wcedit/log"
	"github.com/nanowc/wcedit/wcdb"
)

// ResumeFileForPostfixDelta reconstructs a FileContext for a file whose
// add_file/open_file baton the producer already discarded by the time its
// postfix text-delta window arrives (SPEC_FULL.md §5's bump_dirs_record
// supplement: "file postfix-delta windows arriving after close_directory").
// The containing directory's BumpRecord is looked up by path alone, since
// the caller holds no live DirContext for it; if that directory's own
// completion already ran, the record is gone and the delta is rejected as
// too late rather than silently skipped.
//
// The returned FileContext's bump is ref'd, so the completion cascade still
// waits on it. Callers must eventually call CompletePostfixTextDelta,
// success or failure, to release that ref.
func (e *EditContext) ResumeFileForPostfixDelta(ctx context.Context, dirAbspath, name string) (*FileContext, error) {
	logger := log.FromContextOrNoop(ctx)

	path, err := joinPath(dirAbspath, name)
	if err != nil {
		return nil, err
	}

	bump, ok := e.bumpRecordFor(dirAbspath)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPostfixDeltaTooLate, path)
	}

	entry, err := e.adminStore.GetEntry(ctx, path, true, wcdb.KindFile)
	if err != nil {
		return nil, fmt.Errorf("wcedit: resume %s for postfix text delta: %w", path, err)
	}

	bump.ref()
	logger.Debug("resuming file for postfix text delta", "path", path)

	return &FileContext{
		edit:        e,
		abspath:     path,
		basename:    basename(path),
		newURL:      entry.URL,
		oldRevision: entry.Revision,
		bump:        bump,
	}, nil
}

// CompletePostfixTextDelta installs the new pristine checksum a postfix
// delta's HandlerContext produced onto the entry, then releases the bump
// reference ResumeFileForPostfixDelta took out so the completion cascade can
// proceed once every other outstanding reference has also cleared.
func (e *EditContext) CompletePostfixTextDelta(ctx context.Context, f *FileContext) error {
	logger := log.FromContextOrNoop(ctx)
	logger.Debug("completing postfix text delta", "path", f.abspath, "installed", f.newPristineSet)

	if f.newPristineSet {
		if err := e.adminStore.ModifyEntry(ctx, dirname(f.abspath), f.basename, wcdb.Modification{
			Fields: []wcdb.Field{wcdb.FieldChecksum},
			Entry:  wcdb.Entry{Checksum: f.newPristineSum.String()},
		}); err != nil {
			return fmt.Errorf("wcedit: install postfix text delta checksum for %s: %w", f.abspath, err)
		}
	}

	return e.maybeBumpDirInfo(ctx, f.bump)
}
