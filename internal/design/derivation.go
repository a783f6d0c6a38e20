package design

import "fmt"

// Configuration is one element of the Cartesian product enumerated over a
// derivation's source factors: Configuration[i] holds the ordered (oldest
// to current) slice of levels that the i-th source factor contributes,
// with len(Configuration[i]) == the derivation's width.
type Configuration [][]*Level

// ErrInvalidWindow is returned when a Derivation's width or stride is < 1.
type ErrInvalidWindow struct {
	Width, Stride int
}

func (e ErrInvalidWindow) Error() string {
	return fmt.Sprintf("design: derivation width and stride must each be >= 1, got width=%d stride=%d", e.Width, e.Stride)
}

// ErrDuplicateSource is returned when a Derivation's source factors are not
// pairwise distinct by name.
type ErrDuplicateSource struct{ Name string }

func (e ErrDuplicateSource) Error() string {
	return fmt.Sprintf("design: derivation repeats source factor %q", e.Name)
}

// ErrEmptySources is returned when a Derivation has no source factors.
type ErrEmptySources struct{}

func (ErrEmptySources) Error() string {
	return "design: derivation must have at least one source factor"
}

// ErrNestedStride is returned when a source factor is itself derived with
// a stride greater than 1: composing strided derivations is forbidden,
// since a Window's own stride would need to reconcile with its source's.
type ErrNestedStride struct{ Factor string }

func (e ErrNestedStride) Error() string {
	return fmt.Sprintf("design: source factor %q is derived with stride > 1, which cannot be used as a derivation source", e.Factor)
}

// Derivation is the tuple (predicate, source factors, width, stride).
// Predicate is evaluated over a Configuration: for
// WithinTrial derivations every source factor contributes exactly one
// level (width == 1); for Transition and Window derivations every source
// factor contributes `width` levels ordered oldest-to-current.
type Derivation struct {
	Predicate func(Configuration) bool
	Sources   []*Factor
	Width     int
	Stride    int
}

func newDerivation(pred func(Configuration) bool, sources []*Factor, width, stride int) (*Derivation, error) {
	if width < 1 || stride < 1 {
		return nil, ErrInvalidWindow{Width: width, Stride: stride}
	}
	if len(sources) == 0 {
		return nil, ErrEmptySources{}
	}
	seen := make(map[string]bool, len(sources))
	for _, s := range sources {
		if seen[s.Name] {
			return nil, ErrDuplicateSource{Name: s.Name}
		}
		seen[s.Name] = true
		if s.Kind == DerivedFactorKind && s.Levels[0].Derivation.Stride > 1 {
			return nil, ErrNestedStride{Factor: s.Name}
		}
	}
	return &Derivation{Predicate: pred, Sources: sources, Width: width, Stride: stride}, nil
}

// WithinTrial builds a width=1, stride=1 derivation: pred receives one
// level per source factor, all from the current trial.
func WithinTrial(pred func(levels []*Level) bool, sources []*Factor) (*Derivation, error) {
	wrapped := func(cfg Configuration) bool {
		levels := make([]*Level, len(cfg))
		for i, group := range cfg {
			levels[i] = group[0]
		}
		return pred(levels)
	}
	return newDerivation(wrapped, sources, 1, 1)
}

// Transition builds a width=2, stride=1 derivation: pred receives, for
// each source factor, the pair [previous, current].
func Transition(pred func(groups [][]*Level) bool, sources []*Factor) (*Derivation, error) {
	return newDerivation(func(cfg Configuration) bool { return pred(cfg) }, sources, 2, 1)
}

// Window builds an arbitrary-width, arbitrary-stride derivation: pred
// receives, for each source factor, the `width` most recent levels ending
// at the current trial, oldest first.
func Window(pred func(groups [][]*Level) bool, sources []*Factor, width, stride int) (*Derivation, error) {
	return newDerivation(func(cfg Configuration) bool { return pred(cfg) }, sources, width, stride)
}

// ApplicableTrials returns the trial indices (0-based, within a block of T
// trials) at which a derivation with the given width and stride actually
// applies: t >= width-1 and (t+1) % stride == 0.
func ApplicableTrials(width, stride, trialCount int) []int {
	var out []int
	for t := 0; t < trialCount; t++ {
		if t >= width-1 && (t+1)%stride == 0 {
			out = append(out, t)
		}
	}
	return out
}
