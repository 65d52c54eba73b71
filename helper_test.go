package wcedit_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nanowc/wcedit/notify"
	"github.com/nanowc/wcedit/wcdb"
)

const (
	testReposRoot = "https://repo.example/svn/proj"
	testReposUUID = "11111111-1111-1111-1111-111111111111"
)

// recordingNotifier collects every event fired during a drive so tests can
// assert on them without coupling to notify.Noop's silence.
type recordingNotifier struct {
	events []notify.Event
}

func (r *recordingNotifier) Notify(e notify.Event) {
	r.events = append(r.events, e)
}

// newAnchor creates a real temporary working copy root and seeds its
// administrative "this dir" entry, returning the anchor path.
func newAnchor(t *testing.T, store wcdb.Store, rev int64) string {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	require.NoError(t, store.EnsureAdmin(ctx, dir, testReposUUID, testReposRoot, testReposRoot, rev, wcdb.DepthInfinity))
	require.NoError(t, store.ModifyEntry(ctx, dir, "", wcdb.Modification{
		Fields: []wcdb.Field{wcdb.FieldKind, wcdb.FieldURL, wcdb.FieldReposRoot, wcdb.FieldReposUUID, wcdb.FieldRevision, wcdb.FieldDepth},
		Entry: wcdb.Entry{
			Kind:      wcdb.KindDir,
			URL:       testReposRoot,
			ReposRoot: testReposRoot,
			ReposUUID: testReposUUID,
			Revision:  rev,
			Depth:     wcdb.DepthInfinity,
		},
	}))
	return dir
}

// writeTestFile writes contents to path; the parent directory must already
// exist.
func writeTestFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}
