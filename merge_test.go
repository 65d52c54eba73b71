package wcedit_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	wcedit "github.com/nanowc/wcedit"
	"github.com/nanowc/wcedit/pristine"
	"github.com/nanowc/wcedit/wcdb"
)

// TestCloseFile_LocallyModifiedMergesCleanly drives an update against a
// file carrying a local edit that does not overlap the incoming change,
// and checks the three-way merge installs the merged text without leaving
// any conflict sidecar behind.
func TestCloseFile_LocallyModifiedMergesCleanly(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := wcdb.NewInMemoryStore()
	anchor := newAnchor(t, store, 1)

	ps, err := pristine.NewFSStore(filepath.Join(t.TempDir(), "pristine"))
	require.NoError(t, err)

	oldBase := []byte("one\ntwo\nthree\n")
	w, err := ps.NewWriter(ctx)
	require.NoError(t, err)
	_, err = w.Write(oldBase)
	require.NoError(t, err)
	oldSum, err := w.Close()
	require.NoError(t, err)

	path := filepath.Join(anchor, "shared.txt")
	require.NoError(t, store.ModifyEntry(ctx, anchor, "shared.txt", wcdb.Modification{
		Fields: []wcdb.Field{wcdb.FieldKind, wcdb.FieldURL, wcdb.FieldRevision, wcdb.FieldChecksum},
		Entry: wcdb.Entry{
			Kind:     wcdb.KindFile,
			URL:      testReposRoot + "/shared.txt",
			Revision: 1,
			Checksum: oldSum.String(),
		},
	}))
	// Locally edited at the top, leaving the tail the incoming change
	// touches untouched.
	writeTestFile(t, path, "ONE\ntwo\nthree\n")

	e, err := wcedit.NewEditor(ctx, anchor, wcedit.WithAdminStore(store), wcedit.WithPristineStore(ps))
	require.NoError(t, err)

	root, err := e.OpenRoot(ctx)
	require.NoError(t, err)
	e.SetTargetRevision(2)

	f, err := e.OpenFile(ctx, root, "shared.txt", 1)
	require.NoError(t, err)

	h, err := e.ApplyTextDelta(ctx, f, oldSum.String())
	require.NoError(t, err)
	// Incoming change touches only the tail.
	require.NoError(t, h.Write([]byte("one\ntwo\nTHREE\n")))
	require.NoError(t, h.Close())

	require.NoError(t, e.CloseFile(ctx, f, ""))
	require.NoError(t, e.CloseDirectory(ctx, root))

	merged, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "ONE\ntwo\nTHREE\n", string(merged))

	for _, suffix := range []string{".mine", ".r1", ".r2"} {
		_, statErr := os.Stat(path + suffix)
		require.True(t, os.IsNotExist(statErr), "no conflict sidecar %s expected", suffix)
	}
}
