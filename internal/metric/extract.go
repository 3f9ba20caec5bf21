package metric

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Observation is one raw (type id, value) pair from an upstream stats list.
// Value is whatever the upstream sent: nil, a number, a numeric string or a
// provider object.
type Observation struct {
	TypeID int
	Value  any
}

// Extract returns the value of def from observations, applying the
// definition's fallback ids and missing-data policy.
//
// The canonical id is looked up first, then each fallback in order. The first
// id that is present wins even if its value is null. A present value that
// cannot be parsed is absent regardless of policy.
func Extract(observations []Observation, def Definition) Value {
	if def.TypeID == nil {
		return Absent()
	}

	for _, id := range def.LookupIDs() {
		obs, found := find(observations, id)
		if !found {
			continue
		}
		if obs.Value == nil {
			return def.absence()
		}
		f, ok := ParseNumber(obs.Value)
		if !ok {
			return Absent()
		}
		if def.Kind == KindInteger {
			f = math.Round(f)
		}
		return Of(f)
	}

	return def.absence()
}

func find(observations []Observation, id int) (Observation, bool) {
	for _, o := range observations {
		if o.TypeID == id {
			return o, true
		}
	}
	return Observation{}, false
}

func (d Definition) absence() Value {
	if d.Missing == TrueZero {
		return Of(0)
	}
	return Absent()
}

// ParseNumber normalizes a stat value from the shapes upstream providers use.
//
// Flat numbers and numeric strings ("90", "7.2", "1e1") are accepted.
// SportMonks-style objects like {"total": 15, "goals": 12} are unwrapped via
// "total", "all", "count" or "average". NaN and infinities are rejected.
func ParseNumber(val any) (float64, bool) {
	var f float64
	switch v := val.(type) {
	case nil:
		return 0, false
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case map[string]any:
		for _, key := range []string{"total", "all", "count", "average"} {
			if inner, exists := v[key]; exists && inner != nil {
				return ParseNumber(inner)
			}
		}
		return 0, false
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
