// Package notify defines the best-effort event sink spec.md §6 names:
// "Notifier: best-effort event sink; never alters state." The dispatcher
// fires one Event per observable outcome (add, update, delete, obstruction,
// conflict) so a caller can render progress without influencing the edit in
// any way — a notifier may not return a value the dispatcher acts on.
//
// Interface shape grounded on the teacher's collaborator-contract
// convention (small, single-method interfaces injected via functional
// options; see retry.Retrier, wcdb.Store).
package notify

import "time"

// Action identifies what kind of change a notification reports.
type Action int

const (
	ActionUpdateAdd Action = iota
	ActionUpdateUpdate
	ActionUpdateDelete
	ActionUpdateObstruction
	ActionUpdateExists
	ActionUpdateExternal
	ActionUpdateStarted
	ActionUpdateCompleted
	ActionUpdateSkipObstruction
	ActionUpdateSkipWorkingOnly
	ActionUpdateSkipAccessDenied
	ActionTreeConflict
)

func (a Action) String() string {
	switch a {
	case ActionUpdateAdd:
		return "update_add"
	case ActionUpdateUpdate:
		return "update_update"
	case ActionUpdateDelete:
		return "update_delete"
	case ActionUpdateObstruction:
		return "update_obstruction"
	case ActionUpdateExists:
		return "exists"
	case ActionUpdateExternal:
		return "update_external"
	case ActionUpdateStarted:
		return "update_started"
	case ActionUpdateCompleted:
		return "update_completed"
	case ActionUpdateSkipObstruction:
		return "skip_obstruction"
	case ActionUpdateSkipWorkingOnly:
		return "skip_working_only"
	case ActionUpdateSkipAccessDenied:
		return "skip_access_denied"
	case ActionTreeConflict:
		return "tree_conflict"
	default:
		return "unknown"
	}
}

// ContentState describes the outcome of a file's text reconciliation
// (spec.md §8 scenario 2: "content_state=merged" / "content_state=conflicted").
type ContentState int

const (
	ContentStateUnchanged ContentState = iota
	ContentStateUpdated
	ContentStateMerged
	ContentStateConflicted
	ContentStateUnknown
)

func (s ContentState) String() string {
	switch s {
	case ContentStateUpdated:
		return "updated"
	case ContentStateMerged:
		return "merged"
	case ContentStateConflicted:
		return "conflicted"
	case ContentStateUnknown:
		return "unknown"
	default:
		return "unchanged"
	}
}

// PropState mirrors ContentState for the property half of a close_file /
// close_directory outcome.
type PropState int

const (
	PropStateUnchanged PropState = iota
	PropStateUpdated
	PropStateMerged
	PropStateConflicted
)

func (s PropState) String() string {
	switch s {
	case PropStateUpdated:
		return "updated"
	case PropStateMerged:
		return "merged"
	case PropStateConflicted:
		return "conflicted"
	default:
		return "unchanged"
	}
}

// Event is one notification fired during a drive.
type Event struct {
	Path         string
	Action       Action
	ContentState ContentState
	PropState    PropState
	Revision     int64
	Time         time.Time

	// Err, when set, accompanies ActionUpdateSkipObstruction and similar
	// skip notifications with the reason the operation was skipped.
	Err error
}

// Notifier receives notifications. Implementations must never block the
// dispatcher meaningfully and must never return an error the dispatcher
// acts on — spec.md §6 is explicit: "never alters state."
type Notifier interface {
	Notify(Event)
}

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -o ../internal/fakes/notifier.go . Notifier

// Noop is a Notifier that discards every event, the default when no
// notifier is configured.
type Noop struct{}

func (Noop) Notify(Event) {}
