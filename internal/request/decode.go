package request

import (
	"fmt"

	"github.com/sweetpea-org/sweetpea-go/internal/compile"
)

// ErrAmbiguousTrial is returned when a sampler assignment sets more than
// one level variable true for the same factor at the same trial: this
// indicates either a sampler bug or a missing Consistency clause.
type ErrAmbiguousTrial struct {
	Factor string
	Trial  int
}

func (e ErrAmbiguousTrial) Error() string {
	return fmt.Sprintf("request: factor %q has more than one level assigned true at trial %d", e.Factor, e.Trial)
}

// Decode turns a satisfying assignment (indexed by variable identity, 1
// to NumVars, true meaning the positive literal holds) back into one map
// per trial from factor name to the level name assigned at that trial. A
// derived factor with no applicable window at a given trial (every level
// variable false, per resolve.go) is simply absent from that trial's map.
func Decode(layout *compile.Layout, assignment []bool) ([]map[string]string, error) {
	trials := make([]map[string]string, layout.TrialCount)
	for t := range trials {
		trials[t] = make(map[string]string)
	}

	for _, f := range layout.Factors {
		for t := 0; t < layout.TrialCount; t++ {
			found := ""
			for _, lvl := range f.Levels {
				idx := int(layout.Var(f, lvl, t))
				if idx < len(assignment) && assignment[idx] {
					if found != "" {
						return nil, ErrAmbiguousTrial{Factor: f.Name, Trial: t}
					}
					found = lvl.Name
				}
			}
			if found != "" {
				trials[t][f.Name] = found
			}
		}
	}
	return trials, nil
}
