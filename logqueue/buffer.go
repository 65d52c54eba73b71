package logqueue

import "sync"

// Buffer is one directory's in-memory log buffer: the accumulation point
// spec.md §4.4 step 9 calls "append the entire file's log to the parent
// directory's log buffer (atomic sub-transaction)." Commands accumulate
// here across an arbitrary number of child add/open/close operations until
// the directory itself closes and flushes them.
type Buffer struct {
	mu       sync.Mutex
	commands []Command
	seq      int
}

// NewBuffer creates an empty log buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds cmds to the buffer as one atomic group (spec.md's "atomic
// sub-transaction": a file's whole command set is appended together, never
// interleaved with another file's).
func (b *Buffer) Append(cmds ...Command) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commands = append(b.commands, cmds...)
}

// Len reports how many commands are currently buffered.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.commands)
}

// Drain returns the buffered commands and clears the buffer, incrementing
// the sequence number (spec.md §4.3 step 5: "reset log-sequence to 0" after
// a run — the caller resets separately; Drain only advances the monotonic
// counter used to name the next log.N file).
func (b *Buffer) Drain() (seq int, cmds []Command) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cmds = b.commands
	b.commands = nil
	b.seq++
	return b.seq, cmds
}

// ResetSequence sets the sequence counter back to zero, the step spec.md
// §4.3/§4.4 perform after a directory's log has fully run.
func (b *Buffer) ResetSequence() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq = 0
}

// Sequence returns the current sequence number.
func (b *Buffer) Sequence() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}
