// Package metric defines the canonical football metric table, the typed
// metric value, and extraction of values from raw upstream observations.
//
// The registry is built once and never mutated. Components receive it at
// construction time instead of reading package-level state.
package metric

import (
	"fmt"
	"slices"
)

// Kind is the numeric kind of a metric.
type Kind int

const (
	KindInteger Kind = iota
	KindReal
	KindPercentage
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "int"
	case KindReal:
		return "float"
	case KindPercentage:
		return "percentage"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Tier is the upstream availability class of a raw metric.
type Tier int

const (
	TierNone Tier = iota // derived metrics
	Tier1                // present in game summaries
	Tier2                // present only in detailed lineups
)

func (t Tier) String() string {
	switch t {
	case Tier1:
		return "L1"
	case Tier2:
		return "L2"
	}
	return ""
}

// MissingPolicy governs how an absent observation is interpreted.
type MissingPolicy int

const (
	// TrueZero: absence means the event did not happen.
	TrueZero MissingPolicy = iota
	// Missing: absence means the data was not collected.
	Missing
)

func (p MissingPolicy) String() string {
	if p == TrueZero {
		return "true_zero"
	}
	return "missing"
}

// Per90Rule describes how a metric is normalized to a 90-minute rate.
type Per90Rule int

const (
	Per90ByMinutes Per90Rule = iota
	Per90WeightedRatio
	Per90NotApplicable
)

func (r Per90Rule) String() string {
	switch r {
	case Per90ByMinutes:
		return "per90_by_minutes"
	case Per90WeightedRatio:
		return "weighted_ratio"
	}
	return "na"
}

// Formula is the aggregation formula of a derived metric. Operands are the
// definition's Inputs, in order.
type Formula int

const (
	FormulaNone Formula = iota
	// FormulaWeightedRatio: sum(Inputs[0]) / sum(Inputs[1]) over games where both are present.
	FormulaWeightedRatio
	// FormulaAdditive: sum of every input, absent counted as zero.
	FormulaAdditive
	// FormulaDifference: sum(Inputs[0]) - sum(Inputs[1]); Inputs[1] must be present in every game.
	FormulaDifference
	// FormulaRatioOfSums: sum(Inputs[0]) / sum(Inputs[1]), absent counted as zero.
	FormulaRatioOfSums
)

func (f Formula) String() string {
	switch f {
	case FormulaWeightedRatio:
		return "weighted_ratio"
	case FormulaAdditive:
		return "additive"
	case FormulaDifference:
		return "difference"
	case FormulaRatioOfSums:
		return "ratio_of_sums"
	}
	return "none"
}

// Definition describes one statistic.
type Definition struct {
	Key         string
	DisplayName string
	Unit        string

	// TypeID is the upstream stat type identifier; nil for derived metrics.
	TypeID *int
	// FallbackTypeIDs are tried in order after TypeID when it is not present.
	FallbackTypeIDs []int

	Kind    Kind
	Tier    Tier
	Missing MissingPolicy
	Per90   Per90Rule

	Derived bool
	Inputs  []string
	Formula Formula
}

// LookupIDs returns the canonical id followed by the fallbacks.
func (d Definition) LookupIDs() []int {
	if d.TypeID == nil {
		return nil
	}
	ids := make([]int, 0, 1+len(d.FallbackTypeIDs))
	ids = append(ids, *d.TypeID)
	return append(ids, d.FallbackTypeIDs...)
}

func (d Definition) clone() Definition {
	if d.TypeID != nil {
		id := *d.TypeID
		d.TypeID = &id
	}
	d.FallbackTypeIDs = slices.Clone(d.FallbackTypeIDs)
	d.Inputs = slices.Clone(d.Inputs)
	return d
}

// Registry is an immutable, ordered set of metric definitions.
type Registry struct {
	defs    []Definition
	byKey   map[string]int
	knownID map[int]string
}

// NewRegistry validates defs and builds a registry. Definition order is
// preserved by every accessor.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{
		defs:    make([]Definition, 0, len(defs)),
		byKey:   make(map[string]int, len(defs)),
		knownID: make(map[int]string),
	}

	for _, d := range defs {
		if d.Key == "" {
			return nil, fmt.Errorf("metric definition with empty key")
		}
		if _, dup := r.byKey[d.Key]; dup {
			return nil, fmt.Errorf("duplicate metric key %q", d.Key)
		}

		if d.Derived {
			if d.TypeID != nil || len(d.FallbackTypeIDs) > 0 {
				return nil, fmt.Errorf("derived metric %q must not carry upstream type ids", d.Key)
			}
			if len(d.Inputs) == 0 {
				return nil, fmt.Errorf("derived metric %q has no required inputs", d.Key)
			}
			if d.Formula == FormulaNone {
				return nil, fmt.Errorf("derived metric %q has no formula", d.Key)
			}
			if d.Formula != FormulaAdditive && len(d.Inputs) != 2 {
				return nil, fmt.Errorf("derived metric %q: %s needs exactly 2 inputs, got %d",
					d.Key, d.Formula, len(d.Inputs))
			}
		} else {
			if d.TypeID == nil {
				return nil, fmt.Errorf("raw metric %q has no upstream type id", d.Key)
			}
			if d.Tier == TierNone {
				return nil, fmt.Errorf("raw metric %q has no availability tier", d.Key)
			}
			if d.Formula != FormulaNone || len(d.Inputs) > 0 {
				return nil, fmt.Errorf("raw metric %q must not declare a formula", d.Key)
			}
			for _, id := range d.LookupIDs() {
				if owner, taken := r.knownID[id]; taken {
					return nil, fmt.Errorf("type id %d claimed by both %q and %q", id, owner, d.Key)
				}
				r.knownID[id] = d.Key
			}
		}

		r.byKey[d.Key] = len(r.defs)
		r.defs = append(r.defs, d.clone())
	}

	// Inputs may reference metrics declared later, so check them last.
	for _, d := range r.defs {
		for _, in := range d.Inputs {
			if _, ok := r.byKey[in]; !ok {
				return nil, fmt.Errorf("derived metric %q references unknown input %q", d.Key, in)
			}
		}
	}

	return r, nil
}

// Lookup returns the definition for key.
func (r *Registry) Lookup(key string) (Definition, bool) {
	i, ok := r.byKey[key]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i].clone(), true
}

// All returns every definition in registration order.
func (r *Registry) All() []Definition {
	out := make([]Definition, len(r.defs))
	for i, d := range r.defs {
		out[i] = d.clone()
	}
	return out
}

// ByTier returns raw definitions whose tier is one of tiers.
func (r *Registry) ByTier(tiers ...Tier) []Definition {
	var out []Definition
	for _, d := range r.defs {
		if !d.Derived && slices.Contains(tiers, d.Tier) {
			out = append(out, d.clone())
		}
	}
	return out
}

// Raw returns every non-derived definition.
func (r *Registry) Raw() []Definition {
	return r.ByTier(Tier1, Tier2)
}

// Derived returns every derived definition.
func (r *Registry) Derived() []Definition {
	var out []Definition
	for _, d := range r.defs {
		if d.Derived {
			out = append(out, d.clone())
		}
	}
	return out
}

// IsKnownTypeID reports whether any metric claims id, canonically or as a fallback.
func (r *Registry) IsKnownTypeID(id int) bool {
	_, ok := r.knownID[id]
	return ok
}
