// Package externals defines the svn:externals property-change collaborator
// spec.md §6 names: "Externals sink: receives (path, old_externals_value,
// new_externals_value, ambient_depth) on property change." The dispatcher
// never interprets the externals definition language itself; it only
// forwards the raw before/after property values when they differ.
package externals

import (
	"context"

	"github.com/nanowc/wcedit/wcdb"
)

// Change is one observed svn:externals property transition.
type Change struct {
	Path         string
	OldValue     string
	NewValue     string
	AmbientDepth wcdb.Depth
}

// Sink receives externals property changes. It never returns a value the
// dispatcher acts on; externals resolution (checking out the referenced
// subtrees) happens entirely outside this module.
type Sink interface {
	Changed(ctx context.Context, change Change)
}

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -o ../internal/fakes/externals_sink.go . Sink

// Noop discards every externals change, the default when no sink is
// configured.
type Noop struct{}

func (Noop) Changed(context.Context, Change) {}
