package templating

import (
	"fmt"

	"github.com/CTAG07/hcp/pkg/content"
)

// BadContextText is substituted for a Ctx node whose key is not in the context.
const BadContextText = "BAD CONTEXT"

// PlaceholderPrefix starts the text of a node that replaced a failed subtree.
const PlaceholderPrefix = "TEMPLATE ERROR: "

var defaultResolver = NewResolver(DefaultConfig())

// Resolve resolves node with the default configuration.
func Resolve(node content.Content, ctx Context, flags FlagSet) (content.Content, error) {
	return defaultResolver.Resolve(node, ctx, flags)
}

// ResolveSequence resolves nodes with the default configuration.
func ResolveSequence(nodes []content.Content, ctx Context, flags FlagSet, opts ...SequenceOption) ([]content.Content, error) {
	return defaultResolver.ResolveSequence(nodes, ctx, flags, opts...)
}

// Resolver eliminates templating directives from content trees. It holds no
// mutable state and is safe for concurrent use.
type Resolver struct {
	maxDepth int
	include  IncludePolicy
}

// NewResolver creates a Resolver from the depth and Include settings of cfg.
func NewResolver(cfg TemplateConfig) *Resolver {
	r := &Resolver{maxDepth: cfg.MaxDepth, include: cfg.IncludePolicy}
	if r.maxDepth <= 0 {
		r.maxDepth = DefaultMaxDepth
	}
	if r.include == "" {
		r.include = IncludePassThrough
	}
	return r
}

// Resolve returns a new tree in which every If is replaced by its selected
// branch and every Ctx by its resolved context value. The input is never
// modified and the output shares no child sequences with it. On error no
// partial tree is returned.
func (r *Resolver) Resolve(node content.Content, ctx Context, flags FlagSet) (content.Content, error) {
	s := &resolveState{r: r, ctx: ctx, flags: flags}
	return s.resolve(node)
}

// Placeholder returns the text node that stands in for a subtree that failed
// to resolve.
func Placeholder(err error) content.Content {
	return content.Text{Text: PlaceholderPrefix + err.Error()}
}

// SequenceOption configures ResolveSequence.
type SequenceOption func(*sequenceOptions)

type sequenceOptions struct {
	placeholders bool
}

// WithPlaceholders makes ResolveSequence replace failing nodes with
// Placeholder text instead of failing.
func WithPlaceholders() SequenceOption {
	return func(o *sequenceOptions) { o.placeholders = true }
}

// ResolveSequence resolves each top-level node of a File or Response on its
// own, so one failing node never affects its siblings.
func (r *Resolver) ResolveSequence(nodes []content.Content, ctx Context, flags FlagSet, opts ...SequenceOption) ([]content.Content, error) {
	var o sequenceOptions
	for _, opt := range opts {
		opt(&o)
	}
	out := make([]content.Content, len(nodes))
	for i, n := range nodes {
		resolved, err := r.Resolve(n, ctx, flags)
		if err != nil {
			if !o.placeholders {
				return nil, fmt.Errorf("node %d: %w", i, err)
			}
			resolved = Placeholder(err)
		}
		out[i] = resolved
	}
	return out, nil
}

type resolveState struct {
	r     *Resolver
	ctx   Context
	flags FlagSet
	keys  []string
}

// resolve walks node. The depth bound counts nested Ctx substitutions only;
// plain nesting is unbounded.
func (s *resolveState) resolve(node content.Content) (content.Content, error) {
	switch v := node.(type) {
	case nil:
		return nil, nil
	case content.If:
		if s.flags.Has(v.Flag) {
			return s.resolve(v.Then)
		}
		return s.resolve(v.Else)
	case content.Ctx:
		value, ok := s.ctx[v.Key]
		if !ok {
			return content.Text{Text: BadContextText}, nil
		}
		s.keys = append(s.keys, v.Key)
		defer func() { s.keys = s.keys[:len(s.keys)-1] }()
		if len(s.keys) > s.r.maxDepth {
			return nil, &CycleError{MaxDepth: s.r.maxDepth, Keys: append([]string(nil), s.keys...)}
		}
		return s.resolve(value)
	case content.Include:
		if s.r.include == IncludeReject {
			return nil, fmt.Errorf("%w: %s", ErrIncludeNotImplemented, v.URL)
		}
		return v, nil
	case content.HLayout, content.VLayout, content.InlineLayout, content.Table, content.Menu, content.Form:
		c := node.(content.Container)
		elems := c.Elements()
		children := make([]content.Content, len(elems))
		for i, child := range elems {
			resolved, err := s.resolve(child)
			if err != nil {
				return nil, err
			}
			children[i] = resolved
		}
		return c.WithElements(children), nil
	case content.Unknown:
		return content.Clone(v), nil
	default:
		// Text, Live, Blob, Ref, Field and variants from elsewhere carry no
		// templating and are returned as they are.
		return node, nil
	}
}
