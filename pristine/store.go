// Package pristine is the content-addressed pristine text base store
// (spec.md §6: "pristine text base store"). Every file version the editor
// ever applies, merges, or leaves for later reference is kept here, keyed by
// the MD5 checksum of its contents, so two entries that happen to share a
// version's bytes share one stored copy.
//
// Grounded on the teacher's object-writing path (writer.go's staged-blob
// write-then-finalize flow) and its storage package (pluggable, context
// injected collaborator); the teacher buffers and hashes raw bytes for a Git
// object database, this package buffers and hashes a working copy's text
// bases, compressed at rest with klauspost/compress/zstd the way the teacher
// compresses packfile data.
package pristine

import (
	"context"
	"errors"
	"io"

	"github.com/nanowc/wcedit/checksum"
)

// ErrNotFound is returned when no pristine text base is recorded under the
// requested checksum.
var ErrNotFound = errors.New("pristine: text base not found")

// Writer accumulates a new pristine text base. Callers write the delta
// engine's reconstructed fulltext to it, then call Close to finalize the
// checksum and move the staged content into the content-addressed store.
// Abort discards a partially written base (e.g. on source-checksum
// mismatch, spec.md §4.4.2 step 6).
type Writer interface {
	io.Writer

	// Close finalizes the staged write and returns the checksum the
	// content was stored under.
	Close() (checksum.Checksum, error)

	// Abort discards the staged write without installing anything.
	Abort() error
}

// Store is the pristine text base collaborator contract.
type Store interface {
	// Has reports whether a text base is already stored under sum,
	// letting callers skip re-fetching a fulltext the store already has
	// (spec.md §4.4.1 copy-from: "the local node's pristine is a valid
	// copy source when checksums match").
	Has(ctx context.Context, sum checksum.Checksum) (bool, error)

	// Open returns a reader over the stored text base. Returns
	// ErrNotFound if sum is not recorded.
	Open(ctx context.Context, sum checksum.Checksum) (io.ReadCloser, error)

	// NewWriter begins staging a new text base.
	NewWriter(ctx context.Context) (Writer, error)

	// Remove deletes the stored text base for sum, if present. A no-op
	// if nothing is stored under that checksum (other entries may still
	// reference it by a different checksum collision path only in
	// theory; in practice callers only remove once no entry's Checksum
	// field names sum anymore).
	Remove(ctx context.Context, sum checksum.Checksum) error
}
