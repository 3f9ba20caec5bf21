package baseline

import (
	"math"
	"sync/atomic"

	"github.com/albapepper/footiq/internal/diag"
	"github.com/albapepper/footiq/internal/metric"
)

// MinSampleSize is the smallest population n trusted for a z-score.
const MinSampleSize = 30

// Guardrail reasons carried in BASELINE_MISSING details.
const (
	ReasonNoBaseline   = "no baseline"
	ReasonZeroVariance = "zero_variance"
	ReasonLowSample    = "low_sample"
)

// Comparator scores per-90 values against a baseline table. The table can
// be replaced while requests are in flight; each ZScore call sees one table.
type Comparator struct {
	table atomic.Pointer[Table]
}

// NewComparator returns a comparator over t. A nil table behaves as empty.
func NewComparator(t *Table) *Comparator {
	c := &Comparator{}
	c.table.Store(t)
	return c
}

// Table returns the current table.
func (c *Comparator) Table() *Table { return c.table.Load() }

// Swap installs t and returns the previous table.
func (c *Comparator) Swap(t *Table) *Table { return c.table.Swap(t) }

// ZScore returns (per90 - mean) / std for key within pop. When the baseline
// cannot support a standardized comparison, the raw per90 value is returned
// with a BASELINE_MISSING warning naming the reason. Empty population
// fields take their defaults.
func (c *Comparator) ZScore(per90 metric.Value, key string, pop Population) diag.Result {
	v, ok := per90.Get()
	if !ok {
		return diag.Fail(diag.ReasonMissingInput, "Cannot compute z-score: per90 value for %s is absent.", key)
	}
	pop = pop.WithDefaults()

	fallback := func(reason, format string, args ...any) diag.Result {
		details := map[string]any{
			"fallback": "raw_per90",
			"reason":   reason,
			"metric":   key,
			"league":   pop.League,
			"season":   pop.Season,
			"position": pop.Position,
		}
		return diag.Result{
			Value:    per90,
			Warnings: []diag.Warning{diag.New(diag.CodeBaselineMissing, details, format, args...)},
		}
	}

	stats, found := c.Table().Lookup(pop, key)
	mean, hasMean := stats.Mean.Get()
	if !found || !hasMean {
		return fallback(ReasonNoBaseline,
			"No baseline for %s in %s. Returning raw per-90.", key, pop)
	}

	std, hasStd := stats.Std.Get()
	if !hasStd || std == 0 {
		return fallback(ReasonZeroVariance,
			"Cannot compute z-score: zero variance for %s. Returning raw per-90.", key)
	}

	if stats.N < MinSampleSize {
		r := fallback(ReasonLowSample,
			"Cannot compute z-score: insufficient sample (n=%d) for %s. Returning raw per-90.", stats.N, key)
		r.Warnings[0].Details["n"] = stats.N
		return r
	}

	return diag.Result{Value: metric.Of((v - mean) / std)}
}

// Interpret maps a z-score to a qualitative label.
func Interpret(z metric.Value) string {
	v, ok := z.Get()
	if !ok {
		return "unavailable"
	}

	direction := "below"
	if v > 0 {
		direction = "above"
	}

	switch abs := math.Abs(v); {
	case abs >= 3:
		return "Extraordinary (" + direction + " average)"
	case abs >= 2:
		return "Exceptional (" + direction + " average)"
	case abs >= 1:
		return "Notably " + direction + " average"
	case abs >= 0.5:
		return "Slightly " + direction + " average"
	}
	return "Average"
}
