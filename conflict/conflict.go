// Package conflict implements tree-conflict detection (spec.md §4.7.1) and
// the conflict Description record a detected tree conflict produces. A tree
// conflict is distinct from the text/property conflicts merge3 reports:
// it fires when an incoming structural action (edit/add/delete/replace)
// collides with the local tree's own schedule or modification state, before
// any merge is attempted.
package conflict

import (
	"context"
	"fmt"

	"github.com/nanowc/wcedit/wcdb"
)

// Action is the incoming operation being checked against local state
// (spec.md §4.7.1: "incoming_action ∈ {edit, add, delete, replace}").
type Action int

const (
	ActionEdit Action = iota
	ActionAdd
	ActionDelete
	ActionReplace
)

func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionDelete:
		return "delete"
	case ActionReplace:
		return "replace"
	default:
		return "edit"
	}
}

// Reason names why a tree conflict was raised (spec.md §4.7.1's bullet
// list).
type Reason int

const (
	ReasonNone Reason = iota
	ReasonEdited
	ReasonDeleted
	ReasonReplaced
	ReasonAdded
)

func (r Reason) String() string {
	switch r {
	case ReasonEdited:
		return "edited"
	case ReasonDeleted:
		return "deleted"
	case ReasonReplaced:
		return "replaced"
	case ReasonAdded:
		return "added"
	default:
		return "none"
	}
}

// Operation names the drive kind this conflict arose under, carried purely
// for display (spec.md's SUPPLEMENTED FEATURES: the original's
// action/reason/operation triple).
type Operation int

const (
	OperationUpdate Operation = iota
	OperationSwitch
)

func (o Operation) String() string {
	if o == OperationSwitch {
		return "switch"
	}
	return "update"
}

// Version describes one side of a conflict: the repository location and
// kind a path had, either before (source-left) or after (source-right) the
// colliding change.
type Version struct {
	URL      string
	Revision int64
	Kind     wcdb.Kind
}

// Description is the record spec.md §4.7.1 says to construct "with both
// source-left (old base's URL/rev/kind) and source-right (target rev/kind/
// URL) versions" on every detected tree conflict.
type Description struct {
	Path      string
	Action    Action
	Reason    Reason
	Operation Operation

	SourceLeft  Version
	SourceRight Version

	// SourceRightURLIncomplete is set whenever SourceRight.URL is empty;
	// a plain delete always reports it, since DeleteEntry has no incoming
	// directory to compute a switch-aware URL from (Open Question (a)).
	// Callers must check this before trusting SourceRight.URL.
	SourceRightURLIncomplete bool
}

// Probe supplies the local working-copy facts a tree-conflict check needs:
// the target's current schedule/modification state, without the detector
// needing direct access to the admin store or pristine store itself.
type Probe interface {
	// Entry returns the current entry for path, or ok=false if nothing
	// is versioned there.
	Entry(ctx context.Context, path string) (entry wcdb.Entry, ok bool, err error)

	// HasLocalTextMod reports whether path's working text differs from
	// its pristine text base.
	HasLocalTextMod(ctx context.Context, path string) (bool, error)

	// HasLocalPropMod reports whether path's working properties differ
	// from its base properties.
	HasLocalPropMod(ctx context.Context, path string) (bool, error)

	// Children lists the immediate versioned children of a directory
	// path, for the recursive local-mod walk.
	Children(ctx context.Context, path string) ([]string, error)
}

// AlreadyConflicted reports whether path already has an unresolved tree
// conflict recorded (spec.md §4.7.1: "not inside already-conflicted
// subtree").
type AlreadyConflicted func(path string) bool

// Detector runs the tree-conflict check of spec.md §4.7.1.
type Detector struct {
	Probe             Probe
	AlreadyConflicted AlreadyConflicted
	Operation         Operation

	// MaxConcurrentProbes bounds how many child subtrees the recursive
	// local-mod walk inspects at once (spec.md §4.7.1: "a full recursive
	// walk checks text and property modifications"). Zero means
	// unbounded (errgroup.SetLimit(-1)).
	MaxConcurrentProbes int
}

// NewDetector constructs a Detector.
func NewDetector(probe Probe, alreadyConflicted AlreadyConflicted, op Operation) *Detector {
	return &Detector{Probe: probe, AlreadyConflicted: alreadyConflicted, Operation: op}
}

// Check runs the detection matrix for path given the incoming action and
// kind, returning a Description when a conflict is raised, or ok=false when
// no conflict applies.
func (d *Detector) Check(ctx context.Context, path string, action Action, incomingKind wcdb.Kind, sourceRight Version) (desc Description, ok bool, err error) {
	if d.AlreadyConflicted != nil && d.AlreadyConflicted(path) {
		return Description{}, false, nil
	}

	entry, exists, err := d.Probe.Entry(ctx, path)
	if err != nil {
		return Description{}, false, fmt.Errorf("conflict: probe entry %s: %w", path, err)
	}

	locallyGone := exists && (entry.Schedule == wcdb.ScheduleDelete || entry.Schedule == wcdb.ScheduleReplace)

	var reason Reason
	switch action {
	case ActionEdit:
		if locallyGone {
			reason = reasonForSchedule(entry.Schedule)
		}

	case ActionAdd:
		if exists && !locallyGone {
			reason = ReasonAdded
		}

	case ActionDelete, ActionReplace:
		switch {
		case locallyGone:
			reason = reasonForSchedule(entry.Schedule)
		case exists:
			modified, allDeletes, mErr := d.localModificationStatus(ctx, path, entry)
			if mErr != nil {
				return Description{}, false, mErr
			}
			if modified {
				if allDeletes {
					reason = ReasonDeleted
				} else {
					reason = ReasonEdited
				}
			}
		}
	}

	if reason == ReasonNone {
		return Description{}, false, nil
	}

	desc = Description{
		Path:      path,
		Action:    action,
		Reason:    reason,
		Operation: d.Operation,
		SourceLeft: Version{
			URL:      entry.URL,
			Revision: entry.Revision,
			Kind:     entry.Kind,
		},
		SourceRight: sourceRight,
	}
	if sourceRight.URL == "" {
		desc.SourceRightURLIncomplete = true
	}

	return desc, true, nil
}

func reasonForSchedule(s wcdb.Schedule) Reason {
	if s == wcdb.ScheduleReplace {
		return ReasonReplaced
	}
	return ReasonDeleted
}

// localModificationStatus reports whether path (a file or a directory
// subtree) carries any local modification, and whether every modification
// found is itself a deletion (spec.md §4.7.1: "reason=edited (or deleted if
// all mods are deletes)"). For a directory, every descendant is probed
// concurrently (spec.md §3 domain-stack wiring: golang.org/x/sync/errgroup
// fans this walk out, bounded by MaxConcurrentProbes).
func (d *Detector) localModificationStatus(ctx context.Context, path string, entry wcdb.Entry) (modified bool, allDeletes bool, err error) {
	if entry.Kind == wcdb.KindFile {
		textMod, err := d.Probe.HasLocalTextMod(ctx, path)
		if err != nil {
			return false, false, fmt.Errorf("conflict: probe text mod %s: %w", path, err)
		}
		propMod, err := d.Probe.HasLocalPropMod(ctx, path)
		if err != nil {
			return false, false, fmt.Errorf("conflict: probe prop mod %s: %w", path, err)
		}
		return textMod || propMod, false, nil
	}

	return d.directoryModificationStatus(ctx, path)
}
