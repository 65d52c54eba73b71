package wcedit

import (
	"context"
	"fmt"
	"strings"

	"github.com/nanowc/wcedit/logqueue"
	"github.com/nanowc/wcedit/wcdb"
)

// propKind names the three-way partition spec.md §9 "Property kinds" calls
// for: regular (merged), entry (installed into the entry via the log), and
// wc/dav-cache (installed into the repository cache, never versioned).
type propKind int

const (
	propKindRegular propKind = iota
	propKindEntry
	propKindWC
)

const (
	entryPropPrefix = "svn:entry:"
	wcPropPrefix    = "svn:wc:"

	entryPropLockToken     = "svn:entry:lock-token"
	entryPropCommittedRev  = "svn:entry:committed-rev"
	entryPropCommittedDate = "svn:entry:committed-date"
	entryPropLastAuthor    = "svn:entry:last-author"

	propSvnKeywords   = "svn:keywords"
	propSvnEOLStyle   = "svn:eol-style"
	propSvnSpecial    = "svn:special"
	propSvnExecutable = "svn:executable"
	propSvnNeedsLock  = "svn:needs-lock"
)

// isMagicProperty reports whether name is one of the regular properties
// spec.md §4.5 step 5 calls "magic": one whose value changes what the
// working file's bytes on disk should look like (keyword/EOL translation,
// the executable bit, the needs-lock read-only bit).
func isMagicProperty(name string) bool {
	switch name {
	case propSvnKeywords, propSvnEOLStyle, propSvnSpecial, propSvnExecutable, propSvnNeedsLock:
		return true
	default:
		return false
	}
}

func classifyProp(name string) propKind {
	switch {
	case strings.HasPrefix(name, entryPropPrefix):
		return propKindEntry
	case strings.HasPrefix(name, wcPropPrefix):
		return propKindWC
	default:
		return propKindRegular
	}
}

// partitionProps splits an accumulated property-change list into its three
// kinds, preserving arrival order within each (spec.md §5: "property changes
// ... order their log commands in arrival order").
func partitionProps(changes []PropChange) (entry, wc, regular []PropChange) {
	for _, c := range changes {
		switch classifyProp(c.Name) {
		case propKindEntry:
			entry = append(entry, c)
		case propKindWC:
			wc = append(wc, c)
		default:
			regular = append(regular, c)
		}
	}
	return entry, wc, regular
}

// ChangeDirProp implements spec.md §4.1 change_dir_prop: append to the
// context's property-change list. A no-op on a skipped context.
func (e *EditContext) ChangeDirProp(d *DirContext, name, value string, deleted bool) {
	if d.skipped {
		return
	}
	d.propChanges = append(d.propChanges, PropChange{Name: name, Value: value, Deleted: deleted})
}

// ChangeFileProp implements spec.md §4.1 change_file_prop.
func (e *EditContext) ChangeFileProp(f *FileContext, name, value string, deleted bool) {
	if f.skipped {
		return
	}
	f.propChanges = append(f.propChanges, PropChange{Name: name, Value: value, Deleted: deleted})
}

// AbsentFile implements spec.md §4.1 absent_file: insert a placeholder entry
// with kind=file and the target revision, absent=true, deleted=false. Fails
// if a path of the same name is already scheduled for add.
func (e *EditContext) AbsentFile(ctx context.Context, parent *DirContext, relpath string) error {
	return e.insertAbsentEntry(ctx, parent, relpath, wcdb.KindFile)
}

// AbsentDirectory implements spec.md §4.1 absent_directory.
func (e *EditContext) AbsentDirectory(ctx context.Context, parent *DirContext, relpath string) error {
	return e.insertAbsentEntry(ctx, parent, relpath, wcdb.KindDir)
}

func (e *EditContext) insertAbsentEntry(ctx context.Context, parent *DirContext, relpath string, kind wcdb.Kind) error {
	path, err := joinPath(parent.abspath, relpath)
	if err != nil {
		return err
	}

	if parent.skipped || e.skipCheck(ctx, path) {
		return nil
	}

	if existing, entryErr := e.adminStore.GetEntry(ctx, path, true, wcdb.KindUnknown); entryErr == nil {
		if existing.Schedule == wcdb.ScheduleAdd {
			return fmt.Errorf("%w: %s is already scheduled for add", ErrObstructedUpdate, path)
		}
	}

	parent.logBuffer.Append(logqueue.EntryModify(parent.abspath, relpath, wcdb.Modification{
		Fields: []wcdb.Field{wcdb.FieldKind, wcdb.FieldAbsent, wcdb.FieldDeleted, wcdb.FieldRevision},
		Entry:  wcdb.Entry{Kind: kind, Absent: true, Deleted: false, Revision: *e.targetRevision},
	}))
	return nil
}
