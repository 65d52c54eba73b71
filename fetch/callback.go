// Package fetch defines the add-with-history fallback spec.md §6 names:
// "Fetch callback (for add-with-history without local candidate):
// fetch(relpath, rev, into_stream) → base_props." The copy-from locator
// (spec.md §4.4.1) calls this only when no local pristine can serve as the
// copy source.
package fetch

import (
	"context"
	"io"
)

// Callback fetches the pristine bytes and base properties of relpath at rev
// from the repository, writing the bytes into dst, and returns the base
// property set.
type Callback interface {
	Fetch(ctx context.Context, relpath string, rev int64, dst io.Writer) (baseProps map[string]string, err error)
}

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -o ../internal/fakes/fetch_callback.go . Callback
