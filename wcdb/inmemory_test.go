package wcdb_test

import (
	"context"
	"testing"

	"github.com/nanowc/wcedit/wcdb"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_EntryLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := wcdb.NewInMemoryStore()

	require.NoError(t, s.EnsureAdmin(ctx, "/wc", "uuid-1", "https://example/repo", "https://example/repo", 1, wcdb.DepthInfinity))

	_, err := s.GetEntry(ctx, "/wc/foo.txt", false, wcdb.KindUnknown)
	require.ErrorIs(t, err, wcdb.ErrEntryNotFound)

	err = s.ModifyEntry(ctx, "/wc", "foo.txt", wcdb.Modification{
		Fields: []wcdb.Field{wcdb.FieldKind, wcdb.FieldRevision, wcdb.FieldChecksum},
		Entry:  wcdb.Entry{Kind: wcdb.KindFile, Revision: 1, Checksum: "d41d8cd98f00b204e9800998ecf8427e"},
	})
	require.NoError(t, err)

	got, err := s.GetEntry(ctx, "/wc/foo.txt", false, wcdb.KindFile)
	require.NoError(t, err)
	require.Equal(t, "foo.txt", got.Name)
	require.Equal(t, int64(1), got.Revision)
	require.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", got.Checksum)

	_, err = s.GetEntry(ctx, "/wc/foo.txt", false, wcdb.KindDir)
	require.ErrorIs(t, err, wcdb.ErrUnexpectedKind)
}

func TestInMemoryStore_GetEntry_HiddenFiltering(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := wcdb.NewInMemoryStore()

	require.NoError(t, s.ModifyEntry(ctx, "/wc", "gone.txt", wcdb.Modification{
		Fields: []wcdb.Field{wcdb.FieldDeleted},
		Entry:  wcdb.Entry{Deleted: true},
	}))

	_, err := s.GetEntry(ctx, "/wc/gone.txt", false, wcdb.KindUnknown)
	require.ErrorIs(t, err, wcdb.ErrEntryNotFound)

	got, err := s.GetEntry(ctx, "/wc/gone.txt", true, wcdb.KindUnknown)
	require.NoError(t, err)
	require.True(t, got.Deleted)
}

func TestInMemoryStore_RemoveEntry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := wcdb.NewInMemoryStore()

	require.NoError(t, s.ModifyEntry(ctx, "/wc", "foo.txt", wcdb.Modification{
		Fields: []wcdb.Field{wcdb.FieldKind},
		Entry:  wcdb.Entry{Kind: wcdb.KindFile},
	}))
	require.NoError(t, s.RemoveEntry(ctx, "/wc/foo.txt"))

	_, err := s.GetEntry(ctx, "/wc/foo.txt", true, wcdb.KindUnknown)
	require.ErrorIs(t, err, wcdb.ErrEntryNotFound)

	// Removing a never-seen path is a no-op, not an error.
	require.NoError(t, s.RemoveEntry(ctx, "/wc/never-existed.txt"))
}

func TestInMemoryStore_ReadEntries(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := wcdb.NewInMemoryStore()

	require.NoError(t, s.ModifyEntry(ctx, "/wc", "", wcdb.Modification{
		Fields: []wcdb.Field{wcdb.FieldKind},
		Entry:  wcdb.Entry{Kind: wcdb.KindDir},
	}))
	require.NoError(t, s.ModifyEntry(ctx, "/wc", "a.txt", wcdb.Modification{
		Fields: []wcdb.Field{wcdb.FieldKind},
		Entry:  wcdb.Entry{Kind: wcdb.KindFile},
	}))
	require.NoError(t, s.ModifyEntry(ctx, "/wc", "b.txt", wcdb.Modification{
		Fields: []wcdb.Field{wcdb.FieldKind},
		Entry:  wcdb.Entry{Kind: wcdb.KindFile},
	}))

	entries, err := s.ReadEntries(ctx, "/wc")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Contains(t, entries, "")
	require.Contains(t, entries, "a.txt")
	require.Contains(t, entries, "b.txt")

	_, err = s.ReadEntries(ctx, "/nope")
	require.ErrorIs(t, err, wcdb.ErrNotWorkingCopy)
}

func TestInMemoryStore_EnsureAdmin_UUIDMismatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := wcdb.NewInMemoryStore()

	require.NoError(t, s.EnsureAdmin(ctx, "/wc", "uuid-1", "https://example/repo", "https://example/repo", 1, wcdb.DepthInfinity))
	require.NoError(t, s.EnsureAdmin(ctx, "/wc", "uuid-1", "https://example/repo", "https://example/repo", 1, wcdb.DepthInfinity))

	err := s.EnsureAdmin(ctx, "/wc", "uuid-2", "https://example/repo", "https://example/repo", 1, wcdb.DepthInfinity)
	require.ErrorIs(t, err, wcdb.ErrUUIDMismatch)
}

func TestInMemoryStore_SetDepth(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := wcdb.NewInMemoryStore()

	err := s.SetDepth(ctx, "/nope", wcdb.DepthFiles)
	require.ErrorIs(t, err, wcdb.ErrNotWorkingCopy)

	require.NoError(t, s.EnsureAdmin(ctx, "/wc", "uuid-1", "https://example/repo", "https://example/repo", 1, wcdb.DepthInfinity))
	require.NoError(t, s.SetDepth(ctx, "/wc", wcdb.DepthFiles))

	entries, err := s.ReadEntries(ctx, "/wc")
	require.NoError(t, err)
	require.Equal(t, wcdb.DepthFiles, entries[""].Depth)
}

func TestInMemoryStore_DAVCache(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := wcdb.NewInMemoryStore()

	require.NoError(t, s.SetDAVCache(ctx, "/wc/foo.txt", map[string]string{"version-name": "17"}))
	require.NoError(t, s.SetDAVCache(ctx, "/wc/foo.txt", map[string]string{"href": "/repo/!svn/ver/17/foo.txt"}))
}

func TestInMemoryStore_Props(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := wcdb.NewInMemoryStore()

	empty, err := s.LoadProps(ctx, "/wc/foo.txt")
	require.NoError(t, err)
	require.Nil(t, empty.Base)

	layers := wcdb.PropLayers{
		Base:    wcdb.Props{"svn:eol-style": "native"},
		Working: wcdb.Props{"svn:eol-style": "native", "custom": "value"},
	}
	require.NoError(t, s.SaveProps(ctx, "/wc/foo.txt", layers))

	got, err := s.LoadProps(ctx, "/wc/foo.txt")
	require.NoError(t, err)
	require.Equal(t, "native", got.Base["svn:eol-style"])
	require.Equal(t, "value", got.Working["custom"])

	// SaveProps stores an independent copy.
	layers.Working["custom"] = "mutated-after-save"
	got2, err := s.LoadProps(ctx, "/wc/foo.txt")
	require.NoError(t, err)
	require.Equal(t, "value", got2.Working["custom"])
}

func TestProps_Clone(t *testing.T) {
	t.Parallel()

	var nilProps wcdb.Props
	require.Nil(t, nilProps.Clone())

	p := wcdb.Props{"a": "1"}
	clone := p.Clone()
	clone["a"] = "2"
	require.Equal(t, "1", p["a"])
}
