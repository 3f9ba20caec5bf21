// Package aggregate computes per-90 rates, derived metrics and form series
// over canonical game records.
//
// Operations are pure and process games in caller order. Data problems
// produce warnings on the returned diag.Result; only a request that cannot
// run at all (unknown key, wrong metric class) produces a Failure.
package aggregate

import (
	"fmt"

	"github.com/albapepper/footiq/internal/diag"
	"github.com/albapepper/footiq/internal/metric"
	"github.com/albapepper/footiq/internal/provider"
)

// DefaultFormWindow is used when Form is called with a non-positive window.
const DefaultFormWindow = 5

// Aggregator is safe for concurrent use.
type Aggregator struct {
	reg *metric.Registry
}

// New returns an aggregator over reg.
func New(reg *metric.Registry) *Aggregator {
	return &Aggregator{reg: reg}
}

func (a *Aggregator) lookup(key string) (metric.Definition, *diag.Result) {
	def, ok := a.reg.Lookup(key)
	if !ok {
		r := diag.Fail(diag.ReasonUnknownMetric, "Unknown metric: %s", key)
		return def, &r
	}
	return def, nil
}

// ----------------------------------------------------------------------------
// Per-90
// ----------------------------------------------------------------------------

// Per90 returns sum(metric) / sum(minutes) * 90 over the games where the
// metric is present. Weighted-ratio metrics are delegated to Derived.
func (a *Aggregator) Per90(games []provider.GameRecord, key string) diag.Result {
	def, fail := a.lookup(key)
	if fail != nil {
		return *fail
	}

	switch def.Per90 {
	case metric.Per90NotApplicable:
		return diag.Fail(diag.ReasonPer90NotApplicable,
			"Metric '%s' does not support per-90 normalization.", key)
	case metric.Per90WeightedRatio:
		return a.Derived(games, key)
	}

	var (
		res          diag.Result
		total        float64
		totalMinutes float64
		contributed  int
	)

	for _, g := range games {
		v, ok := perGame(def, g).Get()
		if !ok {
			res.Warn(diag.New(diag.CodeMetricUnavailable,
				map[string]any{"game_id": gameIDDetail(g), "metric": key},
				"Metric '%s' unavailable for game %s", key, gameIDText(g)))
			continue
		}
		total += v
		totalMinutes += g.Metric(metric.KeyMinutesPlayed).OrZero()
		contributed++
	}

	if contributed == 0 {
		return diag.Result{
			Warnings: []diag.Warning{diag.New(diag.CodeMetricUnavailable,
				map[string]any{"metric": key, "games": len(games)},
				"Metric '%s' unavailable across all games.", key)},
		}
	}

	if totalMinutes < metric.Per90MinMinutes {
		res.Warn(diag.New(diag.CodeInsufficientMinutes,
			map[string]any{"total_minutes": totalMinutes, "threshold": metric.Per90MinMinutes},
			"Total minutes (%s) below threshold (%d).", formatNumber(totalMinutes), metric.Per90MinMinutes))
		return res
	}

	res.Value = metric.Of(total / totalMinutes * 90)
	return res
}

// ----------------------------------------------------------------------------
// Derived
// ----------------------------------------------------------------------------

// Derived computes a derived metric across games using its formula.
func (a *Aggregator) Derived(games []provider.GameRecord, key string) diag.Result {
	def, fail := a.lookup(key)
	if fail != nil {
		return *fail
	}
	if !def.Derived {
		return diag.Fail(diag.ReasonNotDerived, "Metric '%s' is not a derived metric.", key)
	}

	switch def.Formula {
	case metric.FormulaWeightedRatio:
		return weightedRatio(games, def)
	case metric.FormulaAdditive:
		return additive(games, def)
	case metric.FormulaDifference:
		return difference(games, def)
	case metric.FormulaRatioOfSums:
		return ratioOfSums(games, def)
	}
	return diag.Fail(diag.ReasonNoFormula, "No computation defined for derived metric: %s", key)
}

// weightedRatio: sum(num)/sum(den) over games where both inputs are present.
func weightedRatio(games []provider.GameRecord, def metric.Definition) diag.Result {
	numKey, denKey := def.Inputs[0], def.Inputs[1]

	var res diag.Result
	var num, den float64
	for _, g := range games {
		n, nok := g.Metric(numKey).Get()
		d, dok := g.Metric(denKey).Get()
		if !nok || !dok {
			res.Warn(diag.New(diag.CodeMetricUnavailable,
				map[string]any{"game_id": gameIDDetail(g), "metric": def.Key, "inputs": []string{numKey, denKey}},
				"Inputs for '%s' unavailable for game %s", def.Key, gameIDText(g)))
			continue
		}
		num += n
		den += d
	}

	if den == 0 {
		res.Warn(diag.New(diag.CodeMetricUnavailable,
			map[string]any{"metric": def.Key, "reason": "zero_denominator", "total_" + denKey: den},
			"Cannot compute %s: total %s is zero.", def.Key, denKey))
		return res
	}

	res.Value = metric.Of(num / den)
	return res
}

// additive sums every input with true-zero semantics. It never skips a game.
func additive(games []provider.GameRecord, def metric.Definition) diag.Result {
	var total float64
	for _, g := range games {
		for _, in := range def.Inputs {
			total += g.Metric(in).OrZero()
		}
	}
	return diag.Result{Value: metric.Of(total)}
}

// difference: sum(Inputs[0]) - sum(Inputs[1]). A single game without the
// second input aborts the whole computation; a partial figure would mislead.
func difference(games []provider.GameRecord, def metric.Definition) diag.Result {
	lhsKey, rhsKey := def.Inputs[0], def.Inputs[1]

	if len(games) == 0 {
		return diag.Result{Warnings: []diag.Warning{diag.New(diag.CodeMetricUnavailable,
			map[string]any{"metric": def.Key, "games": 0},
			"Cannot compute %s: no games supplied.", def.Key)}}
	}

	var lhs, rhs float64
	for _, g := range games {
		r, ok := g.Metric(rhsKey).Get()
		if !ok {
			return diag.Result{Warnings: []diag.Warning{diag.New(diag.CodeMetricUnavailable,
				map[string]any{"game_id": gameIDDetail(g), "metric": rhsKey},
				"%s unavailable for game %s; cannot compute %s.", rhsKey, gameIDText(g), def.Key)}}
		}
		lhs += g.Metric(lhsKey).OrZero()
		rhs += r
	}
	return diag.Result{Value: metric.Of(lhs - rhs)}
}

// ratioOfSums: sum(Inputs[0]) / sum(Inputs[1]) with absent inputs as zero.
func ratioOfSums(games []provider.GameRecord, def metric.Definition) diag.Result {
	numKey, denKey := def.Inputs[0], def.Inputs[1]

	var num, den float64
	for _, g := range games {
		num += g.Metric(numKey).OrZero()
		den += g.Metric(denKey).OrZero()
	}

	if den == 0 {
		return diag.Result{Warnings: []diag.Warning{diag.New(diag.CodeMetricUnavailable,
			map[string]any{"metric": def.Key, "total_" + denKey: 0},
			"Cannot compute %s: zero %s.", def.Key, denKey)}}
	}
	return diag.Result{Value: metric.Of(num / den)}
}

// ----------------------------------------------------------------------------
// Form
// ----------------------------------------------------------------------------

// Form returns one value per game, in caller order, for at most window
// games. Absent values stay in the series as gaps. Value is the number of
// present points.
func (a *Aggregator) Form(games []provider.GameRecord, key string, window int) diag.Result {
	def, fail := a.lookup(key)
	if fail != nil {
		return *fail
	}
	if window <= 0 {
		window = DefaultFormWindow
	}
	if len(games) > window {
		games = games[:window]
	}

	res := diag.Result{
		Series: make([]metric.Value, len(games)),
		Labels: make([]string, len(games)),
	}
	present := 0
	for i, g := range games {
		v := perGame(def, g)
		if v.IsPresent() {
			present++
		}
		res.Series[i] = v
		res.Labels[i] = g.Date
		if res.Labels[i] == "" {
			res.Labels[i] = fmt.Sprintf("G%d", i+1)
		}
	}
	res.Value = metric.Of(float64(present))
	return res
}

// perGame is the single-game value of def: the record's own value for raw
// metrics, the formula applied to one game for derived ones.
func perGame(def metric.Definition, g provider.GameRecord) metric.Value {
	if !def.Derived {
		return g.Metric(def.Key)
	}

	switch def.Formula {
	case metric.FormulaAdditive:
		var total float64
		for _, in := range def.Inputs {
			total += g.Metric(in).OrZero()
		}
		return metric.Of(total)
	case metric.FormulaWeightedRatio:
		n, nok := g.Metric(def.Inputs[0]).Get()
		d, dok := g.Metric(def.Inputs[1]).Get()
		if !nok || !dok || d == 0 {
			return metric.Absent()
		}
		return metric.Of(n / d)
	case metric.FormulaDifference:
		r, ok := g.Metric(def.Inputs[1]).Get()
		if !ok {
			return metric.Absent()
		}
		return metric.Of(g.Metric(def.Inputs[0]).OrZero() - r)
	case metric.FormulaRatioOfSums:
		d := g.Metric(def.Inputs[1]).OrZero()
		if d == 0 {
			return metric.Absent()
		}
		return metric.Of(g.Metric(def.Inputs[0]).OrZero() / d)
	}
	return metric.Absent()
}

func gameIDDetail(g provider.GameRecord) any {
	if g.GameID == nil {
		return nil
	}
	return *g.GameID
}

func gameIDText(g provider.GameRecord) string {
	if g.GameID == nil {
		return "unknown"
	}
	return fmt.Sprint(*g.GameID)
}

func formatNumber(f float64) string {
	return fmt.Sprintf("%g", f)
}
