package pristine_test

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nanowc/wcedit/checksum"
	"github.com/nanowc/wcedit/pristine"
)

func newStore(t *testing.T) *pristine.FSStore {
	t.Helper()
	s, err := pristine.NewFSStore(filepath.Join(t.TempDir(), "pristine"))
	require.NoError(t, err)
	return s
}

func TestFSStore_WriteAndRead(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	w, err := s.NewWriter(ctx)
	require.NoError(t, err)

	content := []byte("the quick brown fox jumps over the lazy dog")
	_, err = w.Write(content)
	require.NoError(t, err)

	sum, err := w.Close()
	require.NoError(t, err)
	require.Equal(t, checksum.Of(content), sum)

	has, err := s.Has(ctx, sum)
	require.NoError(t, err)
	require.True(t, has)

	r, err := s.Open(ctx, sum)
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestFSStore_Open_NotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	_, err := s.Open(ctx, checksum.Of([]byte("never written")))
	require.ErrorIs(t, err, pristine.ErrNotFound)

	has, err := s.Has(ctx, checksum.Of([]byte("never written")))
	require.NoError(t, err)
	require.False(t, has)
}

func TestFSStore_Abort(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	w, err := s.NewWriter(ctx)
	require.NoError(t, err)
	_, err = w.Write([]byte("partial content never finalized"))
	require.NoError(t, err)
	require.NoError(t, w.Abort())

	// Aborting twice is safe.
	require.NoError(t, w.Abort())
}

func TestFSStore_Remove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	w, err := s.NewWriter(ctx)
	require.NoError(t, err)
	content := []byte("removable content")
	_, err = w.Write(content)
	require.NoError(t, err)
	sum, err := w.Close()
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, sum))

	has, err := s.Has(ctx, sum)
	require.NoError(t, err)
	require.False(t, has)

	// Removing an absent checksum is a no-op.
	require.NoError(t, s.Remove(ctx, sum))
}

func TestFSStore_DeduplicatesIdenticalContent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	write := func(content []byte) checksum.Checksum {
		w, err := s.NewWriter(ctx)
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
		sum, err := w.Close()
		require.NoError(t, err)
		return sum
	}

	sum1 := write([]byte("same content twice"))
	sum2 := write([]byte("same content twice"))
	require.True(t, sum1.Is(sum2))
}
