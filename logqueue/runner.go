package logqueue

import (
	"context"
	"fmt"

	"github.com/nanowc/wcedit/cancel"
	"github.com/nanowc/wcedit/log"
	"github.com/nanowc/wcedit/retry"
)

// Runner ties a Buffer, FileStore, and Executor together: the flush-then-run
// cycle spec.md §4.3 step 5 describes ("Flush the log buffer to file, then
// replay the log, then reset log-sequence to 0") and §5's crash-recovery
// guarantee depends on (already-flushed log.N files survive a crash and are
// replayed by the next Run call before any new work proceeds).
type Runner struct {
	Files     *FileStore
	Executor  Executor
	Canceller cancel.Canceller
}

// NewRunner constructs a Runner. A nil Canceller behaves as cancel.Never.
func NewRunner(executor Executor, canceller cancel.Canceller) *Runner {
	if canceller == nil {
		canceller = cancel.Never{}
	}
	return &Runner{Files: NewFileStore(), Executor: executor, Canceller: canceller}
}

// Flush writes buf's pending commands to a new log.N file in dir and clears
// the in-memory buffer. It does not execute anything; call Run to replay.
func (r *Runner) Flush(ctx context.Context, dir string, buf *Buffer) error {
	if buf.Len() == 0 {
		return nil
	}

	seq, cmds := buf.Drain()
	if _, err := r.Files.WriteLog(dir, seq, cmds); err != nil {
		return fmt.Errorf("logqueue: flush %s: %w", dir, err)
	}
	return nil
}

// Run drains every pending log.N file in dir, lowest sequence number first,
// executing each command in order and removing the file once it fully
// replays. Run is itself idempotent: a file whose commands have already
// taken effect re-executes them with no further observable change (spec.md
// §8).
func (r *Runner) Run(ctx context.Context, dir string) error {
	logger := log.FromContextOrNoop(ctx)

	logs, err := r.Files.PendingLogs(dir)
	if err != nil {
		return fmt.Errorf("logqueue: run %s: %w", dir, err)
	}

	for _, lf := range logs {
		if err := r.Canceller.Check(); err != nil {
			return err
		}

		cmds, err := r.Files.ReadLog(lf.Path)
		if err != nil {
			return fmt.Errorf("logqueue: run %s: %w", dir, err)
		}

		logger.Debug("replaying log file", "dir", dir, "seq", lf.Seq, "commands", len(cmds))

		for _, cmd := range cmds {
			if err := r.Canceller.Check(); err != nil {
				return err
			}
			if err := retry.DoVoid(ctx, func() error { return r.Executor.Execute(ctx, cmd) }); err != nil {
				return fmt.Errorf("logqueue: execute %s in %s (log.%d): %w", cmd.Op, dir, lf.Seq, err)
			}
		}

		if err := r.Files.RemoveLog(lf.Path); err != nil {
			return fmt.Errorf("logqueue: remove completed log file %s: %w", lf.Path, err)
		}
	}

	return nil
}

// FlushAndRun is the common call sequence: flush the buffer then replay
// everything pending, resetting buf's sequence counter on success.
func (r *Runner) FlushAndRun(ctx context.Context, dir string, buf *Buffer) error {
	if err := r.Flush(ctx, dir, buf); err != nil {
		return err
	}
	if err := r.Run(ctx, dir); err != nil {
		return err
	}
	buf.ResetSequence()
	return nil
}
