package wcdb

import "errors"

// Sentinel errors returned by Store implementations. Callers in the root
// package wrap these with path context via fmt.Errorf("...: %w", ...) and
// unwrap them with errors.Is.
var (
	// ErrEntryNotFound is returned by GetEntry when no entry (or no
	// visible entry, if allowHidden is false) exists at the given path.
	ErrEntryNotFound = errors.New("wcdb: entry not found")

	// ErrUnexpectedKind is returned by GetEntry when the stored entry's
	// Kind does not match the caller's expectedKind.
	ErrUnexpectedKind = errors.New("wcdb: unexpected entry kind")

	// ErrNotWorkingCopy is returned by ReadEntries and SetDepth when dir
	// has no administrative area at all.
	ErrNotWorkingCopy = errors.New("wcdb: not a working copy directory")

	// ErrUUIDMismatch is returned by EnsureAdmin when dir already has an
	// administrative area bound to a different repository identity.
	ErrUUIDMismatch = errors.New("wcdb: repository identity mismatch")
)
