package templating

import "github.com/CTAG07/hcp/pkg/envelope"

// IncludePolicy decides what the resolver does with Include nodes.
type IncludePolicy string

const (
	// IncludePassThrough leaves Include nodes in the output unchanged.
	IncludePassThrough IncludePolicy = "pass-through"
	// IncludeReject fails resolution with ErrIncludeNotImplemented.
	IncludeReject IncludePolicy = "reject"
)

// DefaultMaxDepth is the Ctx expansion depth limit used when none is configured.
const DefaultMaxDepth = 64

// TemplateConfig holds all configuration options for the templating engine.
type TemplateConfig struct {
	// MaxDepth bounds how many Ctx substitutions may nest inside one another.
	// Containers and If branches do not count. Values <= 0 mean DefaultMaxDepth.
	MaxDepth int `json:"max_depth"`

	// IncludePolicy controls Include handling. Empty means IncludePassThrough.
	IncludePolicy IncludePolicy `json:"include_policy"`

	// Placeholders replaces a failing top-level node with an error text node
	// instead of failing the whole document.
	Placeholders bool `json:"placeholders"`

	// Parallelism caps how many top-level nodes of one document are resolved
	// at once. Values <= 0 mean one per node.
	Parallelism int `json:"parallelism"`

	// DefaultContext names the stored context used when a render does not
	// ask for one.
	DefaultContext string `json:"default_context"`

	// Header, when set, is the server's HCP_INFO. Requested features are
	// negotiated against it before they become flags.
	Header *envelope.Header `json:"header,omitempty"`
}

// DefaultConfig returns a TemplateConfig with safe default values.
func DefaultConfig() TemplateConfig {
	return TemplateConfig{
		MaxDepth:       DefaultMaxDepth,
		IncludePolicy:  IncludePassThrough,
		Placeholders:   false,
		Parallelism:    8,
		DefaultContext: "default",
	}
}
