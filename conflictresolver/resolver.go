// Package conflictresolver defines the optional interactive callback
// spec.md §6 names: "Conflict resolver: optional interactive callback
// returning a resolution decision." When no resolver is configured, the
// dispatcher leaves the conflict recorded in the entry and moves on
// (spec.md §7: "Conflicts are not errors: they are first-class outcomes").
package conflictresolver

import "context"

// Kind identifies what sort of conflict is being presented.
type Kind int

const (
	KindText Kind = iota
	KindProperty
	KindTree
)

func (k Kind) String() string {
	switch k {
	case KindProperty:
		return "property"
	case KindTree:
		return "tree"
	default:
		return "text"
	}
}

// Description is what the dispatcher shows the resolver: enough context to
// decide without reaching back into working-copy state.
type Description struct {
	Path         string
	Kind         Kind
	PropertyName string // set only when Kind == KindProperty

	BaseContent, LocalContent, LatestContent []byte

	// MergedContent is the merge service's best-effort merged text with
	// conflict markers, offered as a starting point for "choose merged".
	MergedContent []byte
}

// Choice is the resolver's decision.
type Choice int

const (
	// ChoicePostpone leaves the conflict recorded and unresolved; the
	// dispatcher proceeds exactly as if no resolver had been configured.
	ChoicePostpone Choice = iota
	// ChoiceBase takes the common ancestor content.
	ChoiceBase
	// ChoiceMine keeps the local content, discarding the incoming change.
	ChoiceMine
	// ChoiceTheirsFull takes the incoming content, discarding local edits.
	ChoiceTheirsFull
	// ChoiceMergedFile accepts Description.MergedContent verbatim,
	// including any remaining conflict markers it carries.
	ChoiceMergedFile
)

// Resolution is the resolver's answer.
type Resolution struct {
	Choice Choice

	// ResolvedContent overrides the content installed when Choice is a
	// content-bearing choice and the resolver edited it further (e.g. an
	// interactive merge tool). Nil means "use the content implied by
	// Choice unmodified."
	ResolvedContent []byte
}

// Resolver is the conflict-resolution collaborator contract.
type Resolver interface {
	Resolve(ctx context.Context, desc Description) (Resolution, error)
}

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -o ../internal/fakes/resolver.go . Resolver

// Postponing always returns ChoicePostpone, the default when no resolver is
// configured: every conflict is recorded and left for the user to resolve
// out of band (spec.md §7).
type Postponing struct{}

func (Postponing) Resolve(context.Context, Description) (Resolution, error) {
	return Resolution{Choice: ChoicePostpone}, nil
}
