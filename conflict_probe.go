package wcedit

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/nanowc/wcedit/checksum"
	"github.com/nanowc/wcedit/conflict"
	"github.com/nanowc/wcedit/wcdb"
)

// storeProbe adapts EditContext's admin store into the conflict.Probe
// contract the tree-conflict Detector needs, so conflict detection never has
// to reach back into dispatcher internals.
type storeProbe struct {
	store wcdb.Store
	e     *EditContext
}

func newStoreProbe(e *EditContext) *storeProbe {
	return &storeProbe{store: e.adminStore, e: e}
}

func (p *storeProbe) Entry(ctx context.Context, path string) (wcdb.Entry, bool, error) {
	entry, err := p.store.GetEntry(ctx, path, true, wcdb.KindUnknown)
	if err != nil {
		if isNotFoundErr(err) {
			return wcdb.Entry{}, false, nil
		}
		return wcdb.Entry{}, false, err
	}
	return entry, true, nil
}

func (p *storeProbe) HasLocalTextMod(ctx context.Context, path string) (bool, error) {
	entry, err := p.store.GetEntry(ctx, path, true, wcdb.KindFile)
	if err != nil {
		if isNotFoundErr(err) {
			return false, nil
		}
		return false, err
	}
	if entry.Checksum == "" {
		// Never had a recorded pristine (e.g. locally added); treat the
		// working file as modified relative to "nothing".
		_, statErr := os.Stat(path)
		return statErr == nil, nil
	}

	want, err := checksum.FromHex(entry.Checksum)
	if err != nil {
		return false, fmt.Errorf("conflict probe: parse checksum for %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("conflict probe: read %s: %w", path, err)
	}

	return checksum.Of(data) != want, nil
}

func (p *storeProbe) HasLocalPropMod(ctx context.Context, path string) (bool, error) {
	layers, err := p.store.LoadProps(ctx, path)
	if err != nil {
		return false, fmt.Errorf("conflict probe: load props for %s: %w", path, err)
	}
	return !propsEqual(layers.Base, layers.Working), nil
}

func (p *storeProbe) Children(ctx context.Context, path string) ([]string, error) {
	entries, err := p.store.ReadEntries(ctx, path)
	if err != nil {
		if isNotFoundErr(err) {
			return nil, nil
		}
		return nil, err
	}

	var children []string
	for name := range entries {
		if name == "" {
			continue
		}
		child, err := joinPath(path, name)
		if err != nil {
			continue
		}
		children = append(children, child)
	}
	return children, nil
}

func propsEqual(a, b wcdb.Props) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func isNotFoundErr(err error) bool {
	return err != nil && (errors.Is(err, wcdb.ErrEntryNotFound) || errors.Is(err, wcdb.ErrNotWorkingCopy))
}

// newConflictDetector builds a conflict.Detector bound to this edit's admin
// store and skipped-tree bookkeeping.
func (e *EditContext) newConflictDetector() *conflict.Detector {
	op := conflict.OperationUpdate
	if e.switchURL != "" {
		op = conflict.OperationSwitch
	}
	return conflict.NewDetector(newStoreProbe(e), e.isAlreadyConflicted, op)
}

func (e *EditContext) isAlreadyConflicted(path string) bool {
	return e.skippedTrees[path]
}
