package wcedit

import "errors"

// Sentinel failure codes spec.md §6/§7 names as the stable boundary
// vocabulary. Call sites wrap these with fmt.Errorf("...: %w", err) to add
// path/detail context; callers unwrap with errors.Is/errors.As, following
// the teacher's errors.go convention of package-level sentinels plus %w
// wrapping (seen throughout blob.go, tree.go, writer.go).
var (
	// ErrObstructedUpdate is structural and fatal: an incoming add/open
	// collides with an on-disk node the dispatcher cannot reconcile
	// (spec.md §7 "Structural (fatal to the edit)").
	ErrObstructedUpdate = errors.New("wcedit: obstructed update")

	// ErrCorruptTextBase is fatal: a pristine text base could not be
	// read back in the shape its checksum promised.
	ErrCorruptTextBase = errors.New("wcedit: corrupt text base")

	// ErrChecksumMismatch is an integrity failure: the claimed and
	// computed checksums of a pristine text differ.
	ErrChecksumMismatch = errors.New("wcedit: checksum mismatch")

	// ErrUnsupportedFeature covers operations this module explicitly
	// does not implement (copy-from within add_directory, Open Question
	// (b)).
	ErrUnsupportedFeature = errors.New("wcedit: unsupported feature")

	// ErrUnversionedResource is raised when an operation needs a
	// versioned node and finds an unversioned one instead.
	ErrUnversionedResource = errors.New("wcedit: unversioned resource")

	// ErrInvalidSwitch is raised when a switch targets a URL outside
	// the working copy's repository root.
	ErrInvalidSwitch = errors.New("wcedit: invalid switch")

	// ErrCopyFromPathNotFound is raised when a copy-from source, local
	// or remote, cannot be located.
	ErrCopyFromPathNotFound = errors.New("wcedit: copyfrom path not found")

	// ErrEntryNotFound mirrors wcdb.ErrEntryNotFound at the dispatcher
	// boundary, wrapped with edit-specific context.
	ErrEntryNotFound = errors.New("wcedit: entry not found")

	// ErrEntryMissingURL is raised when an entry lacks a URL needed to
	// compute a conflict's source-right version or a copy-from target.
	ErrEntryMissingURL = errors.New("wcedit: entry missing URL")

	// ErrLeftLocalMod is semantic and recoverable: a deletion found
	// local modifications and left them in place rather than failing
	// the whole edit (spec.md §7).
	ErrLeftLocalMod = errors.New("wcedit: left local modifications in place")

	// ErrLocked is raised when the administrative area (or a node
	// within it) is locked by another operation.
	ErrLocked = errors.New("wcedit: working copy locked")

	// ErrNotWorkingCopy mirrors wcdb.ErrNotWorkingCopy, recoverable
	// during ancestor probes (spec.md §7: "not a candidate, abandon
	// search").
	ErrNotWorkingCopy = errors.New("wcedit: not a working copy")

	// ErrNodeUnexpectedKind mirrors wcdb.ErrUnexpectedKind, downgraded
	// during stub lookups per spec.md §7.
	ErrNodeUnexpectedKind = errors.New("wcedit: unexpected node kind")

	// ErrPathEscape is structural and fatal: a driven path resolves
	// outside the anchor directory.
	ErrPathEscape = errors.New("wcedit: path escapes working copy anchor")

	// ErrReservedName is structural and fatal: a driven path uses the
	// reserved administrative directory name.
	ErrReservedName = errors.New("wcedit: reserved name collision")

	// ErrPostfixDeltaTooLate is raised when a postfix text-delta window
	// names a directory whose completion bookkeeping has already run
	// (its BumpRecord is no longer reachable by path).
	ErrPostfixDeltaTooLate = errors.New("wcedit: postfix text delta arrived after directory completed")
)
