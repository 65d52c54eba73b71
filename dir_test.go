package wcedit_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	wcedit "github.com/nanowc/wcedit"
	"github.com/nanowc/wcedit/wcdb"
)

// TestAddDirectory_UnversionedObstruction pins spec.md §4.3's obstruction
// rule: an unversioned directory already on disk at the incoming add's
// path fails the add unless unversioned obstructions are explicitly
// allowed, in which case the add proceeds and adopts the existing node.
func TestAddDirectory_UnversionedObstruction(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	newCase := func(t *testing.T, allow bool) (anchor string, store wcdb.Store, root *wcedit.DirContext, e *wcedit.EditContext) {
		store = wcdb.NewInMemoryStore()
		anchor = newAnchor(t, store, 1)
		require.NoError(t, os.Mkdir(filepath.Join(anchor, "sub"), 0o755))

		opts := []wcedit.Option{wcedit.WithAdminStore(store)}
		if allow {
			opts = append(opts, wcedit.WithAllowUnverObstructions(true))
		}

		var err error
		e, err = wcedit.NewEditor(ctx, anchor, opts...)
		require.NoError(t, err)
		root, err = e.OpenRoot(ctx)
		require.NoError(t, err)
		e.SetTargetRevision(2)
		return anchor, store, root, e
	}

	t.Run("disallowed", func(t *testing.T) {
		t.Parallel()
		_, _, root, e := newCase(t, false)
		_, err := e.AddDirectory(ctx, root, "sub", "", 0)
		require.ErrorIs(t, err, wcedit.ErrObstructedUpdate)
	})

	t.Run("allowed", func(t *testing.T) {
		t.Parallel()
		anchor, store, root, e := newCase(t, true)
		d, err := e.AddDirectory(ctx, root, "sub", "", 0)
		require.NoError(t, err)
		require.NoError(t, e.CloseDirectory(ctx, d))
		require.NoError(t, e.CloseDirectory(ctx, root))
		require.NoError(t, e.CloseEdit(ctx))

		got, err := store.GetEntry(ctx, filepath.Join(anchor, "sub"), true, wcdb.KindUnknown)
		require.NoError(t, err)
		require.Equal(t, wcdb.KindDir, got.Kind)
		require.Equal(t, int64(2), got.Revision)
	})
}
