package conflictresolver_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nanowc/wcedit/conflictresolver"
)

func TestPostponing_AlwaysPostpones(t *testing.T) {
	t.Parallel()

	var r conflictresolver.Resolver = conflictresolver.Postponing{}
	resolution, err := r.Resolve(context.Background(), conflictresolver.Description{
		Path: "a.txt",
		Kind: conflictresolver.KindText,
	})
	require.NoError(t, err)
	require.Equal(t, conflictresolver.ChoicePostpone, resolution.Choice)
	require.Nil(t, resolution.ResolvedContent)
}

func TestKind_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "text", conflictresolver.KindText.String())
	require.Equal(t, "property", conflictresolver.KindProperty.String())
	require.Equal(t, "tree", conflictresolver.KindTree.String())
}

type takeTheirsResolver struct{}

func (takeTheirsResolver) Resolve(context.Context, conflictresolver.Description) (conflictresolver.Resolution, error) {
	return conflictresolver.Resolution{Choice: conflictresolver.ChoiceTheirsFull}, nil
}

func TestResolver_CustomImplementation(t *testing.T) {
	t.Parallel()

	var r conflictresolver.Resolver = takeTheirsResolver{}
	resolution, err := r.Resolve(context.Background(), conflictresolver.Description{Path: "b.txt", Kind: conflictresolver.KindTree})
	require.NoError(t, err)
	require.Equal(t, conflictresolver.ChoiceTheirsFull, resolution.Choice)
}
