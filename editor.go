package wcedit

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/nanowc/wcedit/cancel"
	"github.com/nanowc/wcedit/conflictresolver"
	"github.com/nanowc/wcedit/externals"
	"github.com/nanowc/wcedit/fetch"
	"github.com/nanowc/wcedit/logqueue"
	"github.com/nanowc/wcedit/merge3"
	"github.com/nanowc/wcedit/notify"
	"github.com/nanowc/wcedit/pristine"
	"github.com/nanowc/wcedit/wcdb"
	"github.com/nanowc/wcedit/xlate"
)

// PropChange is a single property mutation queued against a directory or
// file context (spec.md §3). An empty Value with Deleted set denotes
// property removal; a genuinely empty string value is a legitimate property
// value and is distinguished from deletion by the Deleted flag.
type PropChange struct {
	Name    string
	Value   string
	Deleted bool
}

// EditContext is the root of the whole drive: spec.md §3's entity table,
// carried as one struct. A drive has exactly one producer and EditContext is
// not safe for concurrent use.
type EditContext struct {
	anchorAbspath string
	targetName    string

	targetRevision *int64

	requestedDepth wcdb.Depth
	depthSticky    bool

	switchURL    string
	reposRootURL string
	reposUUID    string

	allowUnverObstructions bool
	useCommitTimes         bool
	diff3Command           string
	preservedExtensions    []string

	notifier         notify.Notifier
	canceller        cancel.Canceller
	conflictResolver conflictresolver.Resolver
	externalsSink    externals.Sink
	fetchCallback    fetch.Callback

	adminStore    wcdb.Store
	pristineStore pristine.Store
	mergeService  merge3.Service
	translator    xlate.Translator
	logRunner     *logqueue.Runner

	skippedTrees map[string]bool
	deletedTrees map[string]bool

	rootOpened    bool
	targetDeleted bool

	root       *DirContext
	bumpByPath map[string]*BumpRecord
}

// Option configures an EditContext at construction time, following the
// functional-options shape used throughout this module's collaborators.
type Option func(*EditContext) error

// NewEditor constructs an EditContext anchored at anchorAbspath. Options are
// applied in order; each validates eagerly so construction-time mistakes
// (an invalid switch, an empty anchor) fail before any drive begins.
func NewEditor(ctx context.Context, anchorAbspath string, opts ...Option) (*EditContext, error) {
	if anchorAbspath == "" {
		return nil, fmt.Errorf("wcedit: anchor path must not be empty")
	}

	e := &EditContext{
		anchorAbspath:  anchorAbspath,
		targetRevision: new(int64),
		requestedDepth: wcdb.DepthUnknown,
		skippedTrees:   make(map[string]bool),
		deletedTrees:   make(map[string]bool),
		bumpByPath:     make(map[string]*BumpRecord),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	if e.adminStore == nil {
		e.adminStore = wcdb.NewInMemoryStore()
	}
	e.adminStore = retryingStore{Store: e.adminStore}
	if e.pristineStore == nil {
		store, err := pristine.NewFSStore(filepath.Join(anchorAbspath, adminDirName, "pristine"))
		if err != nil {
			return nil, fmt.Errorf("wcedit: create default pristine store: %w", err)
		}
		e.pristineStore = store
	}
	if e.mergeService == nil {
		e.mergeService = merge3.NewDefaultService()
		if e.diff3Command != "" {
			e.mergeService = merge3.NewExternalService(e.diff3Command, e.mergeService)
		}
	}
	if e.translator == nil {
		e.translator = xlate.NewDefaultTranslator()
	}
	if e.notifier == nil {
		e.notifier = notify.Noop{}
	}
	if e.canceller == nil {
		e.canceller = cancel.Never{}
	}
	if e.conflictResolver == nil {
		e.conflictResolver = conflictresolver.Postponing{}
	}
	if e.externalsSink == nil {
		e.externalsSink = externals.Noop{}
	}
	if e.logRunner == nil {
		e.logRunner = logqueue.NewRunner(logqueue.NewDefaultExecutor(e.adminStore), e.canceller)
	}

	// Learn the anchor's existing repository identity, when one is already
	// recorded, so a switch can be validated against it (spec.md §8
	// boundary behavior #6: "invalid_switch failure at editor creation").
	if anchorEntry, err := e.adminStore.GetEntry(ctx, anchorAbspath, true, wcdb.KindDir); err == nil {
		e.reposRootURL = anchorEntry.ReposRoot
		e.reposUUID = anchorEntry.ReposUUID
	}

	if e.switchURL != "" && e.reposRootURL != "" {
		if !urlWithinRepository(e.switchURL, e.reposRootURL) {
			return nil, fmt.Errorf("%w: switch URL %q is outside repository root %q", ErrInvalidSwitch, e.switchURL, e.reposRootURL)
		}
	}

	return e, nil
}

// urlWithinRepository reports whether url shares reposRoot as a prefix
// (spec.md §8 boundary behavior #6: a switch across repositories fails).
func urlWithinRepository(url, reposRoot string) bool {
	if len(url) < len(reposRoot) {
		return false
	}
	return url[:len(reposRoot)] == reposRoot
}

// WithSwitchURL configures the edit as a switch to a new URL within the same
// repository. Validated against the anchor's known repository root once
// NewEditor has had a chance to read it; an incompatible root surfaces
// ErrInvalidSwitch from NewEditor, not from this option itself (the anchor's
// repository identity is not known until the admin store is consulted).
func WithSwitchURL(url string) Option {
	return func(e *EditContext) error {
		if url == "" {
			return fmt.Errorf("%w: switch URL must not be empty", ErrInvalidSwitch)
		}
		e.switchURL = url
		return nil
	}
}

// WithTargetName names the edit's specific target within the anchor,
// mirroring an update invoked against a single path rather than the whole
// anchor directory (spec.md §3: "target name (possibly empty)"). Empty (the
// default) means the anchor itself is the target.
func WithTargetName(name string) Option {
	return func(e *EditContext) error {
		e.targetName = name
		return nil
	}
}

// WithRequestedDepth sets the depth the producer is requesting for this
// drive.
func WithRequestedDepth(depth wcdb.Depth) Option {
	return func(e *EditContext) error {
		e.requestedDepth = depth
		return nil
	}
}

// WithDepthSticky marks the requested depth as sticky: it is persisted as
// the node's new ambient depth rather than treated as a one-off restriction.
func WithDepthSticky(sticky bool) Option {
	return func(e *EditContext) error {
		e.depthSticky = sticky
		return nil
	}
}

// WithAllowUnverObstructions permits add operations to proceed over
// unversioned on-disk nodes instead of failing with ErrObstructedUpdate.
func WithAllowUnverObstructions(allow bool) Option {
	return func(e *EditContext) error {
		e.allowUnverObstructions = allow
		return nil
	}
}

// WithUseCommitTimes installs the committed revision's timestamp on working
// files instead of the time they were written, when set.
func WithUseCommitTimes(use bool) Option {
	return func(e *EditContext) error {
		e.useCommitTimes = use
		return nil
	}
}

// WithDiff3Command names an external diff3-compatible executable the merge
// service should shell out to instead of its built-in line merge. Empty
// (the default) keeps the built-in merge3.DefaultService behavior.
func WithDiff3Command(path string) Option {
	return func(e *EditContext) error {
		e.diff3Command = path
		return nil
	}
}

// WithPreservedExtensions names file extensions to preserve verbatim on
// conflict sidecar filenames (e.g. keeping "a.txt.mine" rather than
// "a.mine.txt").
func WithPreservedExtensions(exts []string) Option {
	return func(e *EditContext) error {
		e.preservedExtensions = exts
		return nil
	}
}

// WithNotifier installs the event sink. Defaults to notify.Noop.
func WithNotifier(n notify.Notifier) Option {
	return func(e *EditContext) error {
		if n == nil {
			return fmt.Errorf("wcedit: notifier must not be nil")
		}
		e.notifier = n
		return nil
	}
}

// WithConflictResolver installs the interactive conflict callback. Defaults
// to conflictresolver.Postponing.
func WithConflictResolver(r conflictresolver.Resolver) Option {
	return func(e *EditContext) error {
		if r == nil {
			return fmt.Errorf("wcedit: conflict resolver must not be nil")
		}
		e.conflictResolver = r
		return nil
	}
}

// WithExternalsSink installs the svn:externals change sink. Defaults to
// externals.Noop.
func WithExternalsSink(s externals.Sink) Option {
	return func(e *EditContext) error {
		if s == nil {
			return fmt.Errorf("wcedit: externals sink must not be nil")
		}
		e.externalsSink = s
		return nil
	}
}

// WithFetchCallback installs the add-with-history fallback fetcher, invoked
// by the copy-from locator when no local candidate can serve as a copy
// source.
func WithFetchCallback(c fetch.Callback) Option {
	return func(e *EditContext) error {
		if c == nil {
			return fmt.Errorf("wcedit: fetch callback must not be nil")
		}
		e.fetchCallback = c
		return nil
	}
}

// WithCanceller installs the cooperative-cancellation collaborator. Defaults
// to cancel.Never.
func WithCanceller(c cancel.Canceller) Option {
	return func(e *EditContext) error {
		if c == nil {
			return fmt.Errorf("wcedit: canceller must not be nil")
		}
		e.canceller = c
		return nil
	}
}

// WithAdminStore installs the administrative storage collaborator. Defaults
// to an in-memory wcdb.Store.
func WithAdminStore(s wcdb.Store) Option {
	return func(e *EditContext) error {
		if s == nil {
			return fmt.Errorf("wcedit: admin store must not be nil")
		}
		e.adminStore = s
		return nil
	}
}

// WithPristineStore installs the pristine text base collaborator. Defaults
// to a filesystem store rooted under the anchor's administrative area.
func WithPristineStore(s pristine.Store) Option {
	return func(e *EditContext) error {
		if s == nil {
			return fmt.Errorf("wcedit: pristine store must not be nil")
		}
		e.pristineStore = s
		return nil
	}
}

// WithLogEngine installs a pre-built log runner, overriding the default one
// constructed from the admin store and canceller. The installed runner is
// used as it is: the store and canceller given by WithAdminStore and
// WithCanceller, in whatever order, do not reach it, and its executor stays
// bound to the store it was built with.
func WithLogEngine(r *logqueue.Runner) Option {
	return func(e *EditContext) error {
		if r == nil {
			return fmt.Errorf("wcedit: log runner must not be nil")
		}
		e.logRunner = r
		return nil
	}
}

// WithMergeService installs the three-way merge collaborator. Defaults to
// merge3.DefaultService.
func WithMergeService(s merge3.Service) Option {
	return func(e *EditContext) error {
		if s == nil {
			return fmt.Errorf("wcedit: merge service must not be nil")
		}
		e.mergeService = s
		return nil
	}
}

// WithTranslator installs the keyword/EOL translation collaborator. Defaults
// to xlate.DefaultTranslator.
func WithTranslator(t xlate.Translator) Option {
	return func(e *EditContext) error {
		if t == nil {
			return fmt.Errorf("wcedit: translator must not be nil")
		}
		e.translator = t
		return nil
	}
}
