// Package cancel defines the cooperative cancellation collaborator spec.md
// §5 names: "A cancellation callback may be invoked around any I/O; when it
// signals cancellation, the current operation returns a cancellation
// failure which propagates to the producer, halting the drive." No partial
// log is executed except those already written and run.
package cancel

import "errors"

// ErrCancelled is returned by Canceller.Check when the drive should halt.
var ErrCancelled = errors.New("cancel: operation cancelled")

// Canceller is polled by logqueue.Runner before it replays each log file and
// each command in it. The editor's other steps (entry reads, pristine
// streaming, resolver/notifier/fetch invocations) do not poll it.
type Canceller interface {
	// Check returns ErrCancelled (or a wrapped form of it) if the drive
	// should halt, nil otherwise.
	Check() error
}

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -o ../internal/fakes/canceller.go . Canceller

// Never never cancels, the default when no canceller is configured.
type Never struct{}

func (Never) Check() error { return nil }
