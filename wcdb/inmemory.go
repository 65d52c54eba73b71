package wcdb

import (
	"context"
	"fmt"
	"path"
	"sync"
)

// InMemoryStore is a map-backed reference implementation of Store, used in
// tests and as the default when no backing store is configured. Adapted
// from the teacher's internal/storage.InMemoryStorage (a map keyed by
// object hash); here the key is the directory path, and each value is the
// set of entries that directory owns (mirroring one .svn/entries file).
type InMemoryStore struct {
	mu       sync.Mutex
	dirs     map[string]map[string]Entry // dir abspath -> name -> Entry ("" name = "this dir")
	props    map[string]PropLayers       // node abspath -> props
	davCache map[string]map[string]string
	admin    map[string]adminInfo
}

type adminInfo struct {
	reposUUID, reposRoot, url string
	rev                       int64
	depth                     Depth
}

// NewInMemoryStore creates an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		dirs:     make(map[string]map[string]Entry),
		props:    make(map[string]PropLayers),
		davCache: make(map[string]map[string]string),
		admin:    make(map[string]adminInfo),
	}
}

func (s *InMemoryStore) GetEntry(ctx context.Context, abspath string, allowHidden bool, expectedKind Kind) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, name := splitEntryPath(abspath)
	entries, ok := s.dirs[dir]
	if !ok {
		return Entry{}, fmt.Errorf("%s: %w", abspath, ErrEntryNotFound)
	}
	entry, ok := entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%s: %w", abspath, ErrEntryNotFound)
	}
	if !allowHidden && (entry.Deleted || entry.Absent) {
		return Entry{}, fmt.Errorf("%s: %w", abspath, ErrEntryNotFound)
	}
	if expectedKind != KindUnknown && entry.Kind != expectedKind {
		return Entry{}, fmt.Errorf("%s: want %s, got %s: %w", abspath, expectedKind, entry.Kind, ErrUnexpectedKind)
	}

	return entry, nil
}

func (s *InMemoryStore) ModifyEntry(ctx context.Context, dir, name string, mod Modification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.dirs[dir]
	if !ok {
		entries = make(map[string]Entry)
		s.dirs[dir] = entries
	}

	entry := entries[name]
	entry.Name = name
	applyModification(&entry, mod)
	entries[name] = entry
	return nil
}

func applyModification(entry *Entry, mod Modification) {
	src := mod.Entry
	for _, f := range mod.Fields {
		switch f {
		case FieldRevision:
			entry.Revision = src.Revision
		case FieldURL:
			entry.URL = src.URL
		case FieldReposRoot:
			entry.ReposRoot = src.ReposRoot
		case FieldReposUUID:
			entry.ReposUUID = src.ReposUUID
		case FieldSchedule:
			entry.Schedule = src.Schedule
		case FieldCopied:
			entry.Copied = src.Copied
		case FieldCopyFrom:
			entry.CopyFrom = src.CopyFrom
		case FieldDeleted:
			entry.Deleted = src.Deleted
		case FieldAbsent:
			entry.Absent = src.Absent
		case FieldIncomplete:
			entry.Incomplete = src.Incomplete
		case FieldDepth:
			entry.Depth = src.Depth
			entry.DepthSticky = src.DepthSticky
		case FieldChecksum:
			entry.Checksum = src.Checksum
		case FieldRevertChecksum:
			entry.RevertChecksum = src.RevertChecksum
		case FieldCommitInfo:
			entry.CommitRevision = src.CommitRevision
			entry.CommitDate = src.CommitDate
			entry.CommitAuthor = src.CommitAuthor
		case FieldTextTime:
			entry.TextTime = src.TextTime
			entry.TextTimeSet = src.TextTimeSet
		case FieldWorkingSize:
			entry.WorkingSize = src.WorkingSize
		case FieldLock:
			entry.Lock = src.Lock
		case FieldFileExternalPath:
			entry.FileExternalPath = src.FileExternalPath
		case FieldTreeConflictData:
			entry.TreeConflictData = src.TreeConflictData
		case FieldKind:
			entry.Kind = src.Kind
		case FieldMissing:
			entry.Missing = src.Missing
		}
	}
}

func (s *InMemoryStore) RemoveEntry(ctx context.Context, abspath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir, name := splitEntryPath(abspath)
	entries, ok := s.dirs[dir]
	if !ok {
		return nil
	}
	delete(entries, name)
	if name == "" {
		delete(s.dirs, abspath)
	}
	return nil
}

func (s *InMemoryStore) ReadEntries(ctx context.Context, dir string) (map[string]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.dirs[dir]
	if !ok {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotWorkingCopy)
	}

	out := make(map[string]Entry, len(entries))
	for k, v := range entries {
		out[k] = v
	}
	return out, nil
}

func (s *InMemoryStore) EnsureAdmin(ctx context.Context, dir string, reposUUID, reposRoot, url string, rev int64, depth Depth) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.admin[dir]; ok {
		if existing.reposUUID != reposUUID || existing.reposRoot != reposRoot {
			return fmt.Errorf("%s: %w", dir, ErrUUIDMismatch)
		}
	}
	s.admin[dir] = adminInfo{reposUUID: reposUUID, reposRoot: reposRoot, url: url, rev: rev, depth: depth}

	if _, ok := s.dirs[dir]; !ok {
		s.dirs[dir] = make(map[string]Entry)
	}
	return nil
}

func (s *InMemoryStore) SetDepth(ctx context.Context, dir string, depth Depth) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.dirs[dir]
	if !ok {
		return fmt.Errorf("%s: %w", dir, ErrNotWorkingCopy)
	}
	this := entries[""]
	this.Depth = depth
	entries[""] = this
	return nil
}

func (s *InMemoryStore) SetDAVCache(ctx context.Context, abspath string, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache := s.davCache[abspath]
	if cache == nil {
		cache = make(map[string]string, len(values))
	}
	for k, v := range values {
		cache[k] = v
	}
	s.davCache[abspath] = cache
	return nil
}

func (s *InMemoryStore) LoadProps(ctx context.Context, abspath string) (PropLayers, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.props[abspath], nil
}

func (s *InMemoryStore) SaveProps(ctx context.Context, abspath string, layers PropLayers) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.props[abspath] = PropLayers{
		Base:    layers.Base.Clone(),
		Working: layers.Working.Clone(),
		Revert:  layers.Revert.Clone(),
	}
	return nil
}

// splitEntryPath splits an absolute node path into its parent directory and
// the entry name used as a key in that directory's entries (the root of a
// directory itself is keyed by "").
func splitEntryPath(abspath string) (dir, name string) {
	clean := path.Clean(abspath)
	dir = path.Dir(clean)
	name = path.Base(clean)
	return dir, name
}
