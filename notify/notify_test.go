package notify_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nanowc/wcedit/notify"
)

func TestAction_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		action notify.Action
		want   string
	}{
		{notify.ActionUpdateAdd, "update_add"},
		{notify.ActionUpdateUpdate, "update_update"},
		{notify.ActionUpdateDelete, "update_delete"},
		{notify.ActionUpdateObstruction, "update_obstruction"},
		{notify.ActionUpdateExists, "exists"},
		{notify.ActionTreeConflict, "tree_conflict"},
		{notify.Action(999), "unknown"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, tt.action.String())
	}
}

func TestContentState_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "unchanged", notify.ContentStateUnchanged.String())
	require.Equal(t, "merged", notify.ContentStateMerged.String())
	require.Equal(t, "conflicted", notify.ContentStateConflicted.String())
}

func TestNoop_DiscardsEvents(t *testing.T) {
	t.Parallel()

	var n notify.Notifier = notify.Noop{}
	require.NotPanics(t, func() {
		n.Notify(notify.Event{Path: "foo.txt", Action: notify.ActionUpdateAdd})
	})
}

type recordingNotifier struct {
	events []notify.Event
}

func (r *recordingNotifier) Notify(e notify.Event) {
	r.events = append(r.events, e)
}

func TestNotifier_RecordsEvents(t *testing.T) {
	t.Parallel()

	var n notify.Notifier = &recordingNotifier{}
	n.Notify(notify.Event{Path: "a.txt", Action: notify.ActionUpdateUpdate, ContentState: notify.ContentStateMerged})

	rec := n.(*recordingNotifier)
	require.Len(t, rec.events, 1)
	require.Equal(t, "a.txt", rec.events[0].Path)
	require.Equal(t, notify.ContentStateMerged, rec.events[0].ContentState)
}
