package templating

import (
	"sort"

	"github.com/CTAG07/hcp/pkg/content"
)

// Context maps context keys to the content substituted for Ctx nodes.
type Context map[string]content.Content

// FlagSet is the set of active feature flags If nodes branch on.
type FlagSet map[string]struct{}

// NewFlagSet builds a FlagSet from feature names. Duplicates collapse.
func NewFlagSet(names ...string) FlagSet {
	fs := make(FlagSet, len(names))
	for _, n := range names {
		fs[n] = struct{}{}
	}
	return fs
}

// Has reports whether name is active. A nil FlagSet has no flags.
func (fs FlagSet) Has(name string) bool {
	_, ok := fs[name]
	return ok
}

// Names returns the active flags in sorted order.
func (fs FlagSet) Names() []string {
	names := make([]string, 0, len(fs))
	for n := range fs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
