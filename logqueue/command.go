// Package logqueue implements the deferred log engine spec.md §6 names:
// per-directory buffers that accumulate mutation commands as the dispatcher
// walks an edit, flushed to numbered `log.N` files and replayed idempotently
// so an interrupted drive can resume cleanly (spec.md §5: "numbered log
// files log.N allow crash-safe replay on next startup").
//
// Grounded on the teacher's staged-writer accumulate-then-commit flow
// (writer.go stages blob/tree changes in memory before one atomic push);
// here the accumulation unit is a directory's pending command list instead
// of a Git tree, and the commit step is a local, idempotent replay instead
// of a network push.
package logqueue

import "github.com/nanowc/wcedit/wcdb"

// Op names one of the idempotent command kinds spec.md §6 lists verbatim:
// "entry-modify, delete-entry, copy, move, set-readonly, set-timestamp,
// set-working-size, delete-lock, add-tree-conflict, merge-props."
type Op int

const (
	OpEntryModify Op = iota
	OpDeleteEntry
	OpCopy
	OpMove
	OpSetReadonly
	OpSetTimestamp
	OpSetWorkingSize
	OpDeleteLock
	OpAddTreeConflict
	OpMergeProps
)

func (o Op) String() string {
	switch o {
	case OpEntryModify:
		return "entry-modify"
	case OpDeleteEntry:
		return "delete-entry"
	case OpCopy:
		return "copy"
	case OpMove:
		return "move"
	case OpSetReadonly:
		return "set-readonly"
	case OpSetTimestamp:
		return "set-timestamp"
	case OpSetWorkingSize:
		return "set-working-size"
	case OpDeleteLock:
		return "delete-lock"
	case OpAddTreeConflict:
		return "add-tree-conflict"
	case OpMergeProps:
		return "merge-props"
	default:
		return "unknown"
	}
}

// Command is one deferred mutation. Only the fields relevant to Op are
// populated; the rest are left zero. Every Command must be safe to execute
// more than once with the same effect (spec.md §8: "Log replay is
// idempotent").
type Command struct {
	Op Op

	// Dir is the directory the command's paths are relative to (the
	// admin area this command's log file belongs to).
	Dir string

	// Name is the entry name within Dir (OpEntryModify, OpDeleteEntry,
	// OpDeleteLock, OpAddTreeConflict); empty for the directory's own
	// "this dir" entry.
	Name string

	// Path/Dest are absolute paths: Path and Dest for OpCopy and OpMove;
	// Path alone for OpSetReadonly, OpSetTimestamp, OpSetWorkingSize and
	// OpMergeProps.
	Path string
	Dest string

	Modification      wcdb.Modification // OpEntryModify
	Readonly          bool              // OpSetReadonly
	TimestampUnixNano int64             // OpSetTimestamp
	WorkingSize       int64             // OpSetWorkingSize
	TreeConflictData  string            // OpAddTreeConflict
	PropLayers        wcdb.PropLayers   // OpMergeProps
}

// EntryModify builds an OpEntryModify command.
func EntryModify(dir, name string, mod wcdb.Modification) Command {
	return Command{Op: OpEntryModify, Dir: dir, Name: name, Modification: mod}
}

// DeleteEntry builds an OpDeleteEntry command.
func DeleteEntry(dir, name string) Command {
	return Command{Op: OpDeleteEntry, Dir: dir, Name: name}
}

// Copy builds an OpCopy command: copy the file at src to dst.
func Copy(src, dst string) Command {
	return Command{Op: OpCopy, Path: src, Dest: dst}
}

// Move builds an OpMove command: rename src to dst.
func Move(src, dst string) Command {
	return Command{Op: OpMove, Path: src, Dest: dst}
}

// SetReadonly builds an OpSetReadonly command.
func SetReadonly(path string, readonly bool) Command {
	return Command{Op: OpSetReadonly, Path: path, Readonly: readonly}
}

// SetTimestamp builds an OpSetTimestamp command. unixNano is the mtime to
// install, matching the entry's recorded text-time (spec.md §4.5 step 2).
func SetTimestamp(path string, unixNano int64) Command {
	return Command{Op: OpSetTimestamp, Path: path, TimestampUnixNano: unixNano}
}

// SetWorkingSize builds an OpSetWorkingSize command.
func SetWorkingSize(path string, size int64) Command {
	return Command{Op: OpSetWorkingSize, Path: path, WorkingSize: size}
}

// DeleteLock builds an OpDeleteLock command.
func DeleteLock(dir, name string) Command {
	return Command{Op: OpDeleteLock, Dir: dir, Name: name}
}

// AddTreeConflict builds an OpAddTreeConflict command.
func AddTreeConflict(dir, name, data string) Command {
	return Command{Op: OpAddTreeConflict, Dir: dir, Name: name, TreeConflictData: data}
}

// MergeProps builds an OpMergeProps command.
func MergeProps(path string, layers wcdb.PropLayers) Command {
	return Command{Op: OpMergeProps, Path: path, PropLayers: layers}
}
