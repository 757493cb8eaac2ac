package templating

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTemplateCycle is wrapped by every CycleError.
	ErrTemplateCycle = errors.New("template: context expansion depth exceeded")
	// ErrIncludeNotImplemented is returned for Include nodes when the
	// resolver is configured with IncludeReject.
	ErrIncludeNotImplemented = errors.New("template: include is not implemented")
)

// CycleError is returned when Ctx substitutions nest deeper than the
// configured MaxDepth, which in practice means a context value refers back
// to itself.
type CycleError struct {
	MaxDepth int
	// Keys is the chain of context keys being expanded when the limit was hit,
	// outermost first.
	Keys []string
}

func (e *CycleError) Error() string {
	if chain := e.Cycle(); len(chain) > 0 {
		return fmt.Sprintf("%s: max depth %d, context cycle %s", ErrTemplateCycle, e.MaxDepth, strings.Join(chain, " -> "))
	}
	return fmt.Sprintf("%s: max depth %d", ErrTemplateCycle, e.MaxDepth)
}

func (e *CycleError) Unwrap() error {
	return ErrTemplateCycle
}

// Cycle returns the shortest repeating run of context keys, closed with its
// first key (for example a -> b -> a), or nil when no key repeats.
func (e *CycleError) Cycle() []string {
	last := make(map[string]int, len(e.Keys))
	for i, k := range e.Keys {
		if j, ok := last[k]; ok {
			chain := append([]string(nil), e.Keys[j:i]...)
			return append(chain, k)
		}
		last[k] = i
	}
	return nil
}
