package wcedit

import (
	"context"

	"github.com/nanowc/wcedit/retry"
	"github.com/nanowc/wcedit/wcdb"
)

// retryingStore wraps a wcdb.Store so every write retries a transient
// failure (a momentarily locked entries database) through retry.DoVoid,
// per spec.md §5's crash/lock recovery story. Reads pass straight through:
// a locked read fails fast rather than a retry loop masking real
// corruption. With no retrier injected into ctx (retry.ToContext), DoVoid
// falls back to a single attempt, so this is a no-op wrapper by default.
type retryingStore struct {
	wcdb.Store
}

func (s retryingStore) ModifyEntry(ctx context.Context, dir, name string, mod wcdb.Modification) error {
	return retry.DoVoid(ctx, func() error { return s.Store.ModifyEntry(ctx, dir, name, mod) })
}

func (s retryingStore) RemoveEntry(ctx context.Context, abspath string) error {
	return retry.DoVoid(ctx, func() error { return s.Store.RemoveEntry(ctx, abspath) })
}

func (s retryingStore) EnsureAdmin(ctx context.Context, dir string, reposUUID, reposRoot, url string, rev int64, depth wcdb.Depth) error {
	return retry.DoVoid(ctx, func() error {
		return s.Store.EnsureAdmin(ctx, dir, reposUUID, reposRoot, url, rev, depth)
	})
}

func (s retryingStore) SetDepth(ctx context.Context, dir string, depth wcdb.Depth) error {
	return retry.DoVoid(ctx, func() error { return s.Store.SetDepth(ctx, dir, depth) })
}

func (s retryingStore) SetDAVCache(ctx context.Context, abspath string, values map[string]string) error {
	return retry.DoVoid(ctx, func() error { return s.Store.SetDAVCache(ctx, abspath, values) })
}

func (s retryingStore) SaveProps(ctx context.Context, abspath string, layers wcdb.PropLayers) error {
	return retry.DoVoid(ctx, func() error { return s.Store.SaveProps(ctx, abspath, layers) })
}
