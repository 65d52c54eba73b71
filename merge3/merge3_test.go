package merge3_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nanowc/wcedit/merge3"
)

func mergeText(t *testing.T, base, local, latest string) (string, merge3.TextResult) {
	t.Helper()
	svc := merge3.NewDefaultService()
	var out strings.Builder
	result, err := svc.MergeText(merge3.TextInput{
		Base:   strings.NewReader(base),
		Local:  strings.NewReader(local),
		Latest: strings.NewReader(latest),
	}, merge3.ConflictStyleMarkers, &out)
	require.NoError(t, err)
	return out.String(), result
}

func TestMergeText_NoChanges(t *testing.T) {
	t.Parallel()
	base := "one\ntwo\nthree\n"
	out, result := mergeText(t, base, base, base)
	require.False(t, result.Conflicted)
	require.Equal(t, base, out)
}

func TestMergeText_OnlyRemoteChanged(t *testing.T) {
	t.Parallel()
	base := "one\ntwo\nthree\n"
	local := base
	latest := "one\nTWO\nthree\n"

	out, result := mergeText(t, base, local, latest)
	require.False(t, result.Conflicted)
	require.Equal(t, latest, out)
}

func TestMergeText_OnlyLocalChanged(t *testing.T) {
	t.Parallel()
	base := "one\ntwo\nthree\n"
	local := "one\nTWO-LOCAL\nthree\n"
	latest := base

	out, result := mergeText(t, base, local, latest)
	require.False(t, result.Conflicted)
	require.Equal(t, local, out)
}

func TestMergeText_BothChangedIdentically(t *testing.T) {
	t.Parallel()
	base := "one\ntwo\nthree\n"
	local := "one\nSAME\nthree\n"
	latest := "one\nSAME\nthree\n"

	out, result := mergeText(t, base, local, latest)
	require.False(t, result.Conflicted)
	require.Equal(t, local, out)
}

func TestMergeText_Conflict(t *testing.T) {
	t.Parallel()
	base := "one\ntwo\nthree\n"
	local := "one\nLOCAL\nthree\n"
	latest := "one\nREMOTE\nthree\n"

	out, result := mergeText(t, base, local, latest)
	require.True(t, result.Conflicted)
	require.Equal(t, 1, result.Hunks)
	require.Contains(t, out, "<<<<<<< MINE")
	require.Contains(t, out, "LOCAL")
	require.Contains(t, out, "=======")
	require.Contains(t, out, "REMOTE")
	require.Contains(t, out, ">>>>>>> THEIRS")
}

func TestMergeText_ConflictWithOriginal(t *testing.T) {
	t.Parallel()
	svc := merge3.NewDefaultService()
	var out strings.Builder

	result, err := svc.MergeText(merge3.TextInput{
		Base:   strings.NewReader("one\ntwo\nthree\n"),
		Local:  strings.NewReader("one\nLOCAL\nthree\n"),
		Latest: strings.NewReader("one\nREMOTE\nthree\n"),
	}, merge3.ConflictStyleMarkersWithOriginal, &out)
	require.NoError(t, err)
	require.True(t, result.Conflicted)
	require.Contains(t, out.String(), "|||||||")
	require.Contains(t, out.String(), "two")
}

func TestMergeText_CustomLabels(t *testing.T) {
	t.Parallel()
	svc := merge3.NewDefaultService()
	var out strings.Builder

	_, err := svc.MergeText(merge3.TextInput{
		Base:       strings.NewReader("one\n"),
		Local:      strings.NewReader("local\n"),
		Latest:     strings.NewReader("remote\n"),
		LocalLabel: "working",
		LatestLabel: "rev 17",
	}, merge3.ConflictStyleMarkers, &out)
	require.NoError(t, err)
	require.Contains(t, out.String(), "<<<<<<< working")
	require.Contains(t, out.String(), ">>>>>>> rev 17")
}

func TestMergeProps_OnlyRemoteChanged(t *testing.T) {
	t.Parallel()
	svc := merge3.NewDefaultService()

	base := map[string]string{"svn:eol-style": "native"}
	local := map[string]string{"svn:eol-style": "native"}
	latest := map[string]string{"svn:eol-style": "LF"}

	merged, conflicts, err := svc.MergeProps(base, local, latest, nil)
	require.NoError(t, err)
	require.Empty(t, conflicts)
	require.Equal(t, "LF", merged["svn:eol-style"])
}

func TestMergeProps_OnlyLocalChanged(t *testing.T) {
	t.Parallel()
	svc := merge3.NewDefaultService()

	base := map[string]string{"svn:eol-style": "native"}
	local := map[string]string{"svn:eol-style": "CRLF"}
	latest := map[string]string{"svn:eol-style": "native"}

	merged, conflicts, err := svc.MergeProps(base, local, latest, nil)
	require.NoError(t, err)
	require.Empty(t, conflicts)
	require.Equal(t, "CRLF", merged["svn:eol-style"])
}

func TestMergeProps_ConflictWithoutResolver(t *testing.T) {
	t.Parallel()
	svc := merge3.NewDefaultService()

	base := map[string]string{"svn:eol-style": "native"}
	local := map[string]string{"svn:eol-style": "CRLF"}
	latest := map[string]string{"svn:eol-style": "LF"}

	merged, conflicts, err := svc.MergeProps(base, local, latest, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"svn:eol-style"}, conflicts)
	// Local value is preserved pending resolution.
	require.Equal(t, "CRLF", merged["svn:eol-style"])
}

func TestMergeProps_ConflictResolvedByCallback(t *testing.T) {
	t.Parallel()
	svc := merge3.NewDefaultService()

	base := map[string]string{"svn:eol-style": "native"}
	local := map[string]string{"svn:eol-style": "CRLF"}
	latest := map[string]string{"svn:eol-style": "LF"}

	var resolvedName string
	merged, conflicts, err := svc.MergeProps(base, local, latest, func(name string, base, local, latest *string) (*string, error) {
		resolvedName = name
		v := "LF"
		return &v, nil
	})
	require.NoError(t, err)
	require.Empty(t, conflicts)
	require.Equal(t, "svn:eol-style", resolvedName)
	require.Equal(t, "LF", merged["svn:eol-style"])
}

func TestMergeProps_NewPropertyFromRemote(t *testing.T) {
	t.Parallel()
	svc := merge3.NewDefaultService()

	merged, conflicts, err := svc.MergeProps(nil, nil, map[string]string{"svn:mime-type": "text/plain"}, nil)
	require.NoError(t, err)
	require.Empty(t, conflicts)
	require.Equal(t, "text/plain", merged["svn:mime-type"])
}

func TestMergeProps_BothAddSameValue(t *testing.T) {
	t.Parallel()
	svc := merge3.NewDefaultService()

	merged, conflicts, err := svc.MergeProps(nil,
		map[string]string{"custom": "value"},
		map[string]string{"custom": "value"}, nil)
	require.NoError(t, err)
	require.Empty(t, conflicts)
	require.Equal(t, "value", merged["custom"])
}
