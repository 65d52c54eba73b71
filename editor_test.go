package wcedit_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	wcedit "github.com/nanowc/wcedit"
	"github.com/nanowc/wcedit/wcdb"
)

// TestNewEditor_SwitchAcrossRepositoriesRejected pins spec.md §8 boundary
// behavior #6: a switch naming a URL outside the anchor's known repository
// root fails at editor construction, before any drive begins.
func TestNewEditor_SwitchAcrossRepositoriesRejected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := wcdb.NewInMemoryStore()
	anchor := newAnchor(t, store, 1)

	_, err := wcedit.NewEditor(ctx, anchor,
		wcedit.WithAdminStore(store),
		wcedit.WithSwitchURL("https://repo.example/svn/other-proj/trunk"),
	)
	require.ErrorIs(t, err, wcedit.ErrInvalidSwitch)
}

// TestNewEditor_SwitchWithinRepositoryAccepted is the positive counterpart:
// a switch URL that shares the anchor's repository root is accepted.
func TestNewEditor_SwitchWithinRepositoryAccepted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := wcdb.NewInMemoryStore()
	anchor := newAnchor(t, store, 1)

	e, err := wcedit.NewEditor(ctx, anchor,
		wcedit.WithAdminStore(store),
		wcedit.WithSwitchURL(testReposRoot+"/branches/foo"),
	)
	require.NoError(t, err)
	require.NotNil(t, e)
}
