// Package wcedit implements the working-copy update editor: a state
// machine that integrates a remote-authored stream of tree edits
// (open/add/delete/close of directories and files, property changes, text
// deltas) into a locally mutable versioned tree, producing a new base
// revision while preserving local modifications, detecting conflicts, and
// deferring all destructive actions through a journaled log so that crashes
// leave the working copy recoverable.
//
// A drive has exactly one producer and is not safe for concurrent use
// (EditContext is strictly single-threaded and cooperative). Construct one
// with NewEditor, drive it through OpenRoot/OpenDirectory/AddDirectory/
// OpenFile/AddFile/... in the producer's own ordering, and finish with
// CloseEdit.
package wcedit
