// Package design implements the design-language data model: Factor, Level
// variants, Derivation variants. Levels and Factors are identified by
// handle — a monotonic integer assigned at construction time in a
// per-process registry — rather than by pointer, since a DerivedLevel
// references source Factors while a DerivedFactor holds its DerivedLevels,
// a cyclic reference a plain pointer graph can't express cleanly.
package design

import "fmt"

// LevelHandle identifies a Level by construction order. Two SimpleLevels
// sharing a name are distinct handles: level identity is by object, not
// by name.
type LevelHandle int

// FactorHandle identifies a Factor by construction order.
type FactorHandle int

var registry = newHandleRegistry()

// handleRegistry is a private, process-wide table mapping handles back to
// their Level/Factor values: a translation table between identifiers and
// solver-internal values, so a Level/Factor's identity survives being
// passed by value.
type handleRegistry struct {
	levels  []*Level
	factors []*Factor
}

func newHandleRegistry() *handleRegistry {
	return &handleRegistry{}
}

func (r *handleRegistry) addLevel(l *Level) LevelHandle {
	r.levels = append(r.levels, l)
	return LevelHandle(len(r.levels) - 1)
}

func (r *handleRegistry) addFactor(f *Factor) FactorHandle {
	r.factors = append(r.factors, f)
	return FactorHandle(len(r.factors) - 1)
}

// LevelOf resolves a handle back to its Level.
func LevelOf(h LevelHandle) *Level { return registry.levels[h] }

// FactorOf resolves a handle back to its Factor.
func FactorOf(h FactorHandle) *Factor { return registry.factors[h] }

// LevelKind distinguishes the three level variants.
type LevelKind int

const (
	SimpleKind LevelKind = iota
	DerivedKind
	ElseKind
)

// Level is a value a Factor can take: a SimpleLevel (bare name), a
// DerivedLevel (name plus Derivation), or an ElseLevel (resolved at
// Factor-construction time into a DerivedLevel whose predicate negates
// the disjunction of its sibling DerivedLevels' predicates).
type Level struct {
	Handle     LevelHandle
	Name       string
	Kind       LevelKind
	Derivation *Derivation // nil for SimpleKind
}

// SimpleLevel constructs a new, uniquely-identified simple level.
func SimpleLevel(name string) *Level {
	l := &Level{Name: name, Kind: SimpleKind}
	l.Handle = registry.addLevel(l)
	return l
}

// DerivedLevel constructs a new derived level with the given derivation.
func DerivedLevel(name string, derivation *Derivation) *Level {
	l := &Level{Name: name, Kind: DerivedKind, Derivation: derivation}
	l.Handle = registry.addLevel(l)
	return l
}

// elseLevelSpec is the pre-resolution representation of an ElseLevel; it is
// folded into a DerivedLevel by Factor construction (see resolveElse).
type elseLevelSpec struct {
	name string
}

// ElseLevelMarker is returned by ElseLevel so a Factor constructor can
// recognize it among a list of otherwise-DerivedLevels and resolve it.
type ElseLevelMarker struct {
	spec elseLevelSpec
}

// ElseLevel returns a marker that Factor resolves into a DerivedLevel whose
// predicate is true exactly when none of its sibling DerivedLevels' are.
func ElseLevel(name string) *ElseLevelMarker {
	return &ElseLevelMarker{spec: elseLevelSpec{name: name}}
}

// LevelLike is satisfied by *Level and *ElseLevelMarker, the two inputs a
// Factor constructor accepts.
type LevelLike interface {
	isLevelLike()
}

func (*Level) isLevelLike()           {}
func (*ElseLevelMarker) isLevelLike() {}

// ErrEmptyLevels is returned when a Factor is constructed with no levels.
type ErrEmptyLevels struct{ Factor string }

func (e ErrEmptyLevels) Error() string {
	return fmt.Sprintf("design: factor %q has no levels", e.Factor)
}

// ErrHeterogeneousLevels is returned when a Factor mixes SimpleLevels with
// DerivedLevels/ElseLevels.
type ErrHeterogeneousLevels struct{ Factor string }

func (e ErrHeterogeneousLevels) Error() string {
	return fmt.Sprintf("design: factor %q mixes simple and derived levels", e.Factor)
}

// ErrDanglingElse is returned when an ElseLevel has no DerivedLevel
// siblings to derive its predicate from.
type ErrDanglingElse struct{ Factor string }

func (e ErrDanglingElse) Error() string {
	return fmt.Sprintf("design: factor %q has an ElseLevel with no DerivedLevel siblings", e.Factor)
}

// ErrMixedWindows is returned when a derived Factor's levels do not share
// the same derivation window (width, stride).
type ErrMixedWindows struct{ Factor string }

func (e ErrMixedWindows) Error() string {
	return fmt.Sprintf("design: factor %q mixes derivation windows across its levels", e.Factor)
}

// FactorKind distinguishes simple factors (all SimpleLevel) from derived
// factors (all DerivedLevel, with ElseLevels resolved into DerivedLevels).
type FactorKind int

const (
	SimpleFactorKind FactorKind = iota
	DerivedFactorKind
)

// Factor is a named, ordered list of levels.
type Factor struct {
	Handle FactorHandle
	Name   string
	Kind   FactorKind
	Levels []*Level
}

// NewFactor dispatches on the first level's type: a list that starts with
// a *Level of SimpleKind produces a SimpleFactor; one that starts with a
// DerivedLevel or ElseLevel produces a DerivedFactor. Mixing kinds, empty
// level lists, inconsistent derivation windows, and a dangling ElseLevel
// are all rejected at construction.
func NewFactor(name string, levels ...LevelLike) (*Factor, error) {
	if len(levels) == 0 {
		return nil, ErrEmptyLevels{Factor: name}
	}

	switch first := levels[0].(type) {
	case *Level:
		if first.Kind != SimpleKind {
			return newDerivedFactor(name, levels)
		}
		resolved := make([]*Level, len(levels))
		for i, ll := range levels {
			lvl, ok := ll.(*Level)
			if !ok || lvl.Kind != SimpleKind {
				return nil, ErrHeterogeneousLevels{Factor: name}
			}
			resolved[i] = lvl
		}
		f := &Factor{Name: name, Kind: SimpleFactorKind, Levels: resolved}
		f.Handle = registry.addFactor(f)
		return f, nil
	case *ElseLevelMarker:
		return newDerivedFactor(name, levels)
	default:
		return nil, ErrHeterogeneousLevels{Factor: name}
	}
}

func newDerivedFactor(name string, levels []LevelLike) (*Factor, error) {
	var derivedSiblings []*Level
	for _, ll := range levels {
		if lvl, ok := ll.(*Level); ok {
			if lvl.Kind != DerivedKind {
				return nil, ErrHeterogeneousLevels{Factor: name}
			}
			derivedSiblings = append(derivedSiblings, lvl)
		}
	}

	resolved := make([]*Level, len(levels))
	for i, ll := range levels {
		switch v := ll.(type) {
		case *Level:
			resolved[i] = v
		case *ElseLevelMarker:
			lvl, err := resolveElse(name, v, derivedSiblings)
			if err != nil {
				return nil, err
			}
			resolved[i] = lvl
		default:
			return nil, ErrHeterogeneousLevels{Factor: name}
		}
	}

	if err := checkUniformWindow(name, resolved); err != nil {
		return nil, err
	}

	f := &Factor{Name: name, Kind: DerivedFactorKind, Levels: resolved}
	f.Handle = registry.addFactor(f)
	return f, nil
}

func checkUniformWindow(name string, levels []*Level) error {
	if len(levels) == 0 {
		return nil
	}
	width, stride := levels[0].Derivation.Width, levels[0].Derivation.Stride
	for _, l := range levels[1:] {
		if l.Derivation.Width != width || l.Derivation.Stride != stride {
			return ErrMixedWindows{Factor: name}
		}
	}
	return nil
}

// resolveElse synthesizes a DerivedLevel for an ElseLevel: a Window
// derivation whose predicate is the negation of the disjunction of every
// sibling DerivedLevel's predicate, and whose source factors/width/stride
// are the (shared) ones of those siblings.
func resolveElse(factor string, marker *ElseLevelMarker, siblings []*Level) (*Level, error) {
	if len(siblings) == 0 {
		return nil, ErrDanglingElse{Factor: factor}
	}
	first := siblings[0].Derivation
	for _, s := range siblings[1:] {
		if !sameSources(first.Sources, s.Derivation.Sources) ||
			first.Width != s.Derivation.Width || first.Stride != s.Derivation.Stride {
			return nil, ErrDanglingElse{Factor: factor}
		}
	}

	predicate := func(config Configuration) bool {
		for _, s := range siblings {
			if s.Derivation.Predicate(config) {
				return false
			}
		}
		return true
	}

	d := &Derivation{
		Predicate: predicate,
		Sources:   first.Sources,
		Width:     first.Width,
		Stride:    first.Stride,
	}
	return DerivedLevel(marker.spec.name, d), nil
}

func sameSources(a, b []*Factor) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Handle != b[i].Handle {
			return false
		}
	}
	return true
}
