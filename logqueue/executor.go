package logqueue

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/nanowc/wcedit/wcdb"
)

// Executor applies one Command's effect. DefaultExecutor is the reference
// implementation, combining a wcdb.Store for the entries-database commands
// with direct filesystem operations for the working-file commands (copy,
// move, set-readonly, set-timestamp).
type Executor interface {
	Execute(ctx context.Context, cmd Command) error
}

// DefaultExecutor executes commands against a Store and the local
// filesystem. Every method is written to be safe to call twice with the
// same Command (spec.md §8: "Log replay is idempotent").
type DefaultExecutor struct {
	Store wcdb.Store
}

// NewDefaultExecutor constructs a DefaultExecutor backed by store.
func NewDefaultExecutor(store wcdb.Store) *DefaultExecutor {
	return &DefaultExecutor{Store: store}
}

func (e *DefaultExecutor) Execute(ctx context.Context, cmd Command) error {
	switch cmd.Op {
	case OpEntryModify:
		return e.Store.ModifyEntry(ctx, cmd.Dir, cmd.Name, cmd.Modification)

	case OpDeleteEntry:
		return e.Store.RemoveEntry(ctx, joinEntryPath(cmd.Dir, cmd.Name))

	case OpCopy:
		return copyFile(cmd.Path, cmd.Dest)

	case OpMove:
		if err := os.Rename(cmd.Path, cmd.Dest); err != nil {
			if os.IsNotExist(err) {
				// Already moved by a prior (interrupted) replay.
				return nil
			}
			return fmt.Errorf("logqueue: move %s -> %s: %w", cmd.Path, cmd.Dest, err)
		}
		return nil

	case OpSetReadonly:
		mode := os.FileMode(0o644)
		if cmd.Readonly {
			mode = 0o444
		}
		if err := os.Chmod(cmd.Path, mode); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("logqueue: chmod %s: %w", cmd.Path, err)
		}
		return nil

	case OpSetTimestamp:
		t := time.Unix(0, cmd.TimestampUnixNano)
		if err := os.Chtimes(cmd.Path, t, t); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("logqueue: chtimes %s: %w", cmd.Path, err)
		}
		return nil

	case OpSetWorkingSize:
		// Recorded as entry metadata only; no filesystem action (the
		// file's actual size is whatever installing its content left it
		// at).
		dir, name := path.Dir(cmd.Path), path.Base(cmd.Path)
		return e.Store.ModifyEntry(ctx, dir, name, wcdb.Modification{
			Fields: []wcdb.Field{wcdb.FieldWorkingSize},
			Entry:  wcdb.Entry{WorkingSize: cmd.WorkingSize},
		})

	case OpDeleteLock:
		entry, err := e.Store.GetEntry(ctx, joinEntryPath(cmd.Dir, cmd.Name), true, wcdb.KindUnknown)
		if err != nil {
			return fmt.Errorf("logqueue: delete-lock lookup: %w", err)
		}
		entry.Lock = wcdb.Lock{}
		return e.Store.ModifyEntry(ctx, cmd.Dir, cmd.Name, wcdb.Modification{
			Fields: []wcdb.Field{wcdb.FieldLock},
			Entry:  entry,
		})

	case OpAddTreeConflict:
		return e.Store.ModifyEntry(ctx, cmd.Dir, cmd.Name, wcdb.Modification{
			Fields: []wcdb.Field{wcdb.FieldTreeConflictData},
			Entry:  wcdb.Entry{TreeConflictData: cmd.TreeConflictData},
		})

	case OpMergeProps:
		return e.Store.SaveProps(ctx, cmd.Path, cmd.PropLayers)

	default:
		return fmt.Errorf("logqueue: unknown command op %d", cmd.Op)
	}
}

func joinEntryPath(dir, name string) string {
	if name == "" {
		return dir
	}
	return dir + "/" + name
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		if os.IsNotExist(err) {
			// The source may have already been consumed by a prior
			// (interrupted) replay of this same command.
			return nil
		}
		return fmt.Errorf("logqueue: read copy source %s: %w", src, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("logqueue: write copy destination %s: %w", dst, err)
	}
	return nil
}
