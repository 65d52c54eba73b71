package wcedit_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	wcedit "github.com/nanowc/wcedit"
	"github.com/nanowc/wcedit/checksum"
	"github.com/nanowc/wcedit/wcdb"
)

// TestAddFile_CleanInstall drives a full add_file -> apply_textdelta ->
// close_file sequence and checks that the new text lands on disk, its
// checksum is recorded, and the entry comes out of close_file as an
// ordinary (non-skipped) file at the target revision.
func TestAddFile_CleanInstall(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := wcdb.NewInMemoryStore()
	anchor := newAnchor(t, store, 1)

	e, err := wcedit.NewEditor(ctx, anchor, wcedit.WithAdminStore(store))
	require.NoError(t, err)

	root, err := e.OpenRoot(ctx)
	require.NoError(t, err)
	e.SetTargetRevision(2)

	f, err := e.AddFile(ctx, root, "new.txt", "", 0)
	require.NoError(t, err)

	h, err := e.ApplyTextDelta(ctx, f, "")
	require.NoError(t, err)
	require.NoError(t, h.Write([]byte("hello world")))
	require.NoError(t, h.Close())

	require.NoError(t, e.CloseFile(ctx, f, ""))
	require.NoError(t, e.CloseDirectory(ctx, root))

	path := filepath.Join(anchor, "new.txt")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(data))

	got, err := store.GetEntry(ctx, path, true, wcdb.KindUnknown)
	require.NoError(t, err)
	require.Equal(t, wcdb.KindFile, got.Kind)
	require.Equal(t, int64(2), got.Revision)
	require.False(t, got.Deleted)
	require.Equal(t, checksum.Of([]byte("hello world")).String(), got.Checksum)
}

// TestApplyTextDelta_SourceChecksumMismatch pins spec.md §4.4.2: a claimed
// base checksum that does not match the file's recorded pristine checksum
// fails the handler rather than silently applying the delta.
func TestApplyTextDelta_SourceChecksumMismatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := wcdb.NewInMemoryStore()
	anchor := newAnchor(t, store, 1)

	path := filepath.Join(anchor, "existing.txt")
	require.NoError(t, store.ModifyEntry(ctx, anchor, "existing.txt", wcdb.Modification{
		Fields: []wcdb.Field{wcdb.FieldKind, wcdb.FieldURL, wcdb.FieldRevision, wcdb.FieldChecksum},
		Entry: wcdb.Entry{
			Kind:     wcdb.KindFile,
			URL:      testReposRoot + "/existing.txt",
			Revision: 1,
			Checksum: checksum.Of([]byte("original content")).String(),
		},
	}))
	writeTestFile(t, path, "original content")

	e, err := wcedit.NewEditor(ctx, anchor, wcedit.WithAdminStore(store))
	require.NoError(t, err)

	root, err := e.OpenRoot(ctx)
	require.NoError(t, err)
	e.SetTargetRevision(2)

	f, err := e.OpenFile(ctx, root, "existing.txt", 1)
	require.NoError(t, err)

	wrongSum := checksum.Of([]byte("not the original content")).String()
	_, err = e.ApplyTextDelta(ctx, f, wrongSum)
	require.ErrorIs(t, err, wcedit.ErrCorruptTextBase)
}
