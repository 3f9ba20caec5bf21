package playerdata

import (
	"context"
	"fmt"
	"slices"

	"github.com/albapepper/footiq/internal/aggregate"
	"github.com/albapepper/footiq/internal/baseline"
	"github.com/albapepper/footiq/internal/diag"
	"github.com/albapepper/footiq/internal/metric"
	"github.com/albapepper/footiq/internal/provider"
)

// AnalyzeParams selects the athlete, metric and comparison population.
type AnalyzeParams struct {
	AthleteID  int64
	Metric     string
	LastN      int
	FormWindow int
	Population baseline.Population
}

// Analysis is the full per-metric report for one athlete.
type Analysis struct {
	AthleteID      int64               `json:"athlete_id"`
	Metric         string              `json:"metric"`
	DisplayName    string              `json:"display_name"`
	Unit           string              `json:"unit"`
	GamesAnalyzed  int                 `json:"games_analyzed"`
	Value          metric.Value        `json:"value"`
	Per90          bool                `json:"per90"`
	ZScore         metric.Value        `json:"z_score"`
	Interpretation string              `json:"interpretation"`
	Population     baseline.Population `json:"population"`
	Form           []metric.Value      `json:"form"`
	FormLabels     []string            `json:"form_labels"`
	Failure        *diag.Failure       `json:"failure,omitempty"`
	CacheHit       bool                `json:"cache_hit"`
	Warnings       []diag.Warning      `json:"warnings"`
}

// Analyzer runs games -> per-90/derived -> z-score -> form for one metric.
type Analyzer struct {
	svc *Service
	agg *aggregate.Aggregator
	cmp *baseline.Comparator
}

// NewAnalyzer creates an Analyzer over svc's data.
func NewAnalyzer(svc *Service, cmp *baseline.Comparator) *Analyzer {
	return &Analyzer{
		svc: svc,
		agg: aggregate.New(svc.norm.Registry()),
		cmp: cmp,
	}
}

// Analyze builds the report. Data source errors are returned as err;
// analytics failures are reported in Analysis.Failure. Every warning raised
// along the way is collected in Analysis.Warnings in the order it occurred.
func (a *Analyzer) Analyze(ctx context.Context, req Request, p AnalyzeParams) (out Analysis, err error) {
	reg := a.svc.norm.Registry()
	pop := p.Population.WithDefaults()
	out = Analysis{AthleteID: p.AthleteID, Metric: p.Metric, Population: pop}

	def, ok := reg.Lookup(p.Metric)
	if !ok {
		out.Failure = &diag.Failure{
			Reason:  diag.ReasonUnknownMetric,
			Message: fmt.Sprintf("Unknown metric: %s", p.Metric),
		}
		return out, out.Failure
	}
	out.DisplayName, out.Unit = def.DisplayName, def.Unit

	var log diag.Log
	defer func() {
		out.Warnings = log.Warnings()
		a.svc.metrics.Warnings(out.Warnings...)
	}()

	games, err := a.svc.games(ctx, req, p.AthleteID, p.LastN)
	log.Add(games.Warnings...)
	out.CacheHit = games.CacheHit
	if err != nil {
		return out, err
	}
	if len(games.Games) == 0 {
		return out, fmt.Errorf("athlete %d: %w", p.AthleteID, ErrNoGames)
	}

	records := games.Games
	if needsLineups(reg, def) {
		records = a.withLineups(ctx, req, p.AthleteID, records, &log)
	}
	out.GamesAnalyzed = len(records)

	headline := a.headline(records, def)
	log.AddResult(headline)
	out.Value = headline.Value
	out.Per90 = def.Per90 == metric.Per90ByMinutes
	out.Failure = headline.Failure

	out.ZScore = metric.Absent()
	out.Interpretation = baseline.Interpret(out.ZScore)
	if out.Per90 && out.Value.IsPresent() {
		z := log.AddResult(a.cmp.ZScore(out.Value, def.Key, pop))
		if z.OK() && !hasCode(z.Warnings, diag.CodeBaselineMissing) {
			out.ZScore = z.Value
			out.Interpretation = baseline.Interpret(z.Value)
		}
	}

	form := log.AddResult(a.agg.Form(records, def.Key, p.FormWindow))
	out.Form, out.FormLabels = form.Series, form.Labels
	return out, nil
}

// headline is the per-90 rate where one exists and the aggregate value for
// derived metrics that have none. Raw metrics without a per-90 rule fail.
func (a *Analyzer) headline(games []provider.GameRecord, def metric.Definition) diag.Result {
	if def.Derived && def.Per90 == metric.Per90NotApplicable {
		return a.agg.Derived(games, def.Key)
	}
	return a.agg.Per90(games, def.Key)
}

// withLineups merges each game's lineup metrics into its summary record.
// Summary values win for keys both carry; lineup failures leave the game
// as it was and surface later as METRIC_UNAVAILABLE.
func (a *Analyzer) withLineups(ctx context.Context, req Request, athleteID int64, games []provider.GameRecord, log *diag.Log) []provider.GameRecord {
	out := make([]provider.GameRecord, len(games))
	for i, g := range games {
		out[i] = g
		if g.GameID == nil {
			continue
		}

		lr, err := a.svc.lineup(ctx, req, athleteID, *g.GameID)
		log.Add(lr.Warnings...)
		if err != nil {
			a.svc.logger.Warn("lineup unavailable", "athlete_id", athleteID, "game_id", *g.GameID, "error", err)
			continue
		}

		merged := make(map[string]metric.Value, len(g.Metrics)+len(lr.Record.Metrics))
		for k, v := range lr.Record.Metrics {
			merged[k] = v
		}
		for k, v := range g.Metrics {
			merged[k] = v
		}
		out[i].Metrics = merged
		if out[i].Position == "" {
			out[i].Position = lr.Record.Position
		}
	}
	return out
}

// needsLineups reports whether def, or any of its inputs, is Tier2.
func needsLineups(reg *metric.Registry, def metric.Definition) bool {
	if !def.Derived {
		return def.Tier == metric.Tier2
	}
	for _, in := range def.Inputs {
		d, ok := reg.Lookup(in)
		if ok && needsLineups(reg, d) {
			return true
		}
	}
	return false
}

func hasCode(ws []diag.Warning, code string) bool {
	return slices.ContainsFunc(ws, func(w diag.Warning) bool { return w.Code == code })
}
