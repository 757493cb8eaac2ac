package envelope

import (
	"fmt"
	"strings"
)

// MissingFeaturesError is returned by Negotiate when the request lacks
// features the server requires.
type MissingFeaturesError struct {
	Missing []string
}

func (e *MissingFeaturesError) Error() string {
	return fmt.Sprintf("envelope: request is missing required features: %s", strings.Join(e.Missing, ", "))
}

// Negotiate returns the request features the server will honour, in request
// order and without duplicates. A header with no features accepts every
// requested feature. Every feature in h.Required must be requested.
func Negotiate(h Header, req Request) ([]string, error) {
	requested := make(map[string]struct{}, len(req.Features))
	for _, f := range req.Features {
		requested[f] = struct{}{}
	}

	var missing []string
	for _, f := range h.Required {
		if _, ok := requested[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingFeaturesError{Missing: missing}
	}

	supported := make(map[string]struct{}, len(h.Features))
	for _, f := range h.Features {
		supported[f] = struct{}{}
	}

	seen := make(map[string]struct{}, len(req.Features))
	out := make([]string, 0, len(req.Features))
	for _, f := range req.Features {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		if _, ok := supported[f]; ok || len(h.Features) == 0 {
			out = append(out, f)
		}
	}
	return out, nil
}
