package validator

import (
	"path/filepath"
	"sync"
)

// claims maps a resolved output location (input directory, holding
// directory, result log) to the run writing it. Separate runs keep separate
// Log and Writer values, so two of them must never share a location.
var claims = struct {
	sync.Mutex
	held map[string]string
}{held: make(map[string]string)}

// claimOutputs reserves every location for runID. It fails without
// reserving anything when another run holds one of them.
func claimOutputs(runID string, locations ...string) (func(), error) {
	keys := make([]string, 0, len(locations))
	for _, loc := range locations {
		abs, err := filepath.Abs(loc)
		if err != nil {
			return nil, &Error{Kind: KindInput, Op: "claim", Path: loc, Err: err}
		}
		keys = append(keys, abs)
	}

	claims.Lock()
	defer claims.Unlock()
	for _, k := range keys {
		if owner, ok := claims.held[k]; ok && owner != runID {
			return nil, &Error{Kind: KindInput, Op: "claim", Path: k, Err: ErrOutputInUse}
		}
	}
	for _, k := range keys {
		claims.held[k] = runID
	}
	return func() {
		claims.Lock()
		defer claims.Unlock()
		for _, k := range keys {
			if claims.held[k] == runID {
				delete(claims.held, k)
			}
		}
	}, nil
}
