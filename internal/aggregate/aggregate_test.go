package aggregate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/footiq/internal/aggregate"
	"github.com/albapepper/footiq/internal/diag"
	"github.com/albapepper/footiq/internal/metric"
	"github.com/albapepper/footiq/internal/provider"
)

// game builds a record; a nil entry leaves the metric absent.
func game(id int64, date string, metrics map[string]*float64) provider.GameRecord {
	rec := provider.GameRecord{GameID: &id, Date: date, Metrics: map[string]metric.Value{}}
	for k, v := range metrics {
		if v == nil {
			rec.Metrics[k] = metric.Absent()
			continue
		}
		rec.Metrics[k] = metric.Of(*v)
	}
	return rec
}

func f(v float64) *float64 { return &v }

func haalandGames() []provider.GameRecord {
	goals := []float64{2, 2, 0, 1, 0}
	assists := []float64{0, 1, 1, 0, 0}
	minutes := []float64{90, 90, 78, 85, 90}
	dates := []string{"2026-02-08", "2026-02-01", "2026-01-25", "2026-01-18", "2026-01-11"}

	out := make([]provider.GameRecord, len(goals))
	for i := range goals {
		out[i] = game(int64(11001+i), dates[i], map[string]*float64{
			metric.KeyGoals:         f(goals[i]),
			metric.KeyAssists:       f(assists[i]),
			metric.KeyMinutesPlayed: f(minutes[i]),
		})
	}
	return out
}

func codes(ws []diag.Warning) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Code
	}
	return out
}

func TestPer90_Goals(t *testing.T) {
	agg := aggregate.New(metric.Default())

	res := agg.Per90(haalandGames(), metric.KeyGoals)
	require.True(t, res.OK())
	v, ok := res.Value.Get()
	require.True(t, ok)
	assert.InDelta(t, 5.0/433.0*90, v, 1e-9)
	assert.InDelta(t, 1.0393, v, 1e-4)
	assert.Empty(t, res.Warnings)
}

func TestPer90_InsufficientMinutes(t *testing.T) {
	agg := aggregate.New(metric.Default())
	games := []provider.GameRecord{
		game(1, "", map[string]*float64{metric.KeyGoals: f(1), metric.KeyMinutesPlayed: f(30)}),
		game(2, "", map[string]*float64{metric.KeyGoals: f(0), metric.KeyMinutesPlayed: f(15)}),
	}

	res := agg.Per90(games, metric.KeyGoals)
	require.True(t, res.OK())
	assert.False(t, res.Value.IsPresent())
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, diag.CodeInsufficientMinutes, res.Warnings[0].Code)
	assert.Equal(t, 45.0, res.Warnings[0].Details["total_minutes"])
	assert.Equal(t, 90, res.Warnings[0].Details["threshold"])
}

func TestPer90_SkipsAbsentGames(t *testing.T) {
	agg := aggregate.New(metric.Default())
	games := []provider.GameRecord{
		game(1, "", map[string]*float64{metric.KeyExpectedGoals: f(0.9), metric.KeyMinutesPlayed: f(90)}),
		game(2, "", map[string]*float64{metric.KeyExpectedGoals: nil, metric.KeyMinutesPlayed: f(90)}),
		game(3, "", map[string]*float64{metric.KeyExpectedGoals: f(0.3), metric.KeyMinutesPlayed: f(90)}),
	}

	res := agg.Per90(games, metric.KeyExpectedGoals)
	v, ok := res.Value.Get()
	require.True(t, ok)
	// game 2 contributes to neither numerator nor denominator
	assert.InDelta(t, 1.2/180*90, v, 1e-9)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, diag.CodeMetricUnavailable, res.Warnings[0].Code)
	assert.Equal(t, int64(2), res.Warnings[0].Details["game_id"])
}

func TestPer90_AllAbsentGivesOneAggregateWarning(t *testing.T) {
	agg := aggregate.New(metric.Default())
	games := []provider.GameRecord{
		game(1, "", map[string]*float64{metric.KeyExpectedGoals: nil}),
		game(2, "", map[string]*float64{metric.KeyExpectedGoals: nil}),
	}

	res := agg.Per90(games, metric.KeyExpectedGoals)
	require.True(t, res.OK())
	assert.False(t, res.Value.IsPresent())
	assert.Equal(t, []string{diag.CodeMetricUnavailable}, codes(res.Warnings))
	assert.Equal(t, metric.KeyExpectedGoals, res.Warnings[0].Details["metric"])

	empty := agg.Per90(nil, metric.KeyGoals)
	assert.False(t, empty.Value.IsPresent())
	assert.Len(t, empty.Warnings, 1)
}

func TestPer90_Failures(t *testing.T) {
	agg := aggregate.New(metric.Default())

	res := agg.Per90(haalandGames(), "nope")
	require.NotNil(t, res.Failure)
	assert.Equal(t, diag.ReasonUnknownMetric, res.Failure.Reason)

	for _, key := range []string{metric.KeyRating, metric.KeyMinutesPlayed, metric.KeyMinutesPerGoal} {
		res := agg.Per90(haalandGames(), key)
		require.NotNil(t, res.Failure, key)
		assert.Equal(t, diag.ReasonPer90NotApplicable, res.Failure.Reason, key)
		assert.False(t, res.Value.IsPresent())
	}
}

func TestPer90_WeightedRatioDelegates(t *testing.T) {
	agg := aggregate.New(metric.Default())
	games := []provider.GameRecord{
		game(1, "", map[string]*float64{metric.KeyShotsOnTarget: f(3), metric.KeyShotsTotal: f(5), metric.KeyMinutesPlayed: f(10)}),
	}

	res := agg.Per90(games, metric.KeyShotAccuracy)
	assert.Equal(t, metric.Of(0.6), res.Value)
	assert.Empty(t, res.Warnings)
}

func TestPer90_DerivedByMinutes(t *testing.T) {
	agg := aggregate.New(metric.Default())
	res := agg.Per90(haalandGames(), metric.KeyGoalInvolvement)
	v, ok := res.Value.Get()
	require.True(t, ok)
	assert.InDelta(t, 7.0/433.0*90, v, 1e-9)
}

func TestDerived_ShotAccuracy(t *testing.T) {
	agg := aggregate.New(metric.Default())

	res := agg.Derived([]provider.GameRecord{
		game(1, "", map[string]*float64{metric.KeyShotsOnTarget: f(3), metric.KeyShotsTotal: f(5)}),
	}, metric.KeyShotAccuracy)
	assert.Equal(t, metric.Of(0.6), res.Value)

	res = agg.Derived([]provider.GameRecord{
		game(1, "", map[string]*float64{metric.KeyShotsOnTarget: f(2), metric.KeyShotsTotal: f(4)}),
		game(2, "", map[string]*float64{metric.KeyShotsOnTarget: nil, metric.KeyShotsTotal: f(6)}),
		game(3, "", map[string]*float64{metric.KeyShotsOnTarget: f(1), metric.KeyShotsTotal: f(1)}),
	}, metric.KeyShotAccuracy)
	assert.Equal(t, metric.Of(0.6), res.Value)
	assert.Equal(t, []string{diag.CodeMetricUnavailable}, codes(res.Warnings))

	res = agg.Derived([]provider.GameRecord{
		game(1, "", map[string]*float64{metric.KeyShotsOnTarget: f(0), metric.KeyShotsTotal: f(0)}),
	}, metric.KeyShotAccuracy)
	assert.True(t, res.OK())
	assert.False(t, res.Value.IsPresent())
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "zero_denominator", res.Warnings[0].Details["reason"])
}

func TestDerived_GoalInvolvement(t *testing.T) {
	agg := aggregate.New(metric.Default())

	res := agg.Derived(haalandGames(), metric.KeyGoalInvolvement)
	assert.Equal(t, metric.Of(7), res.Value)
	assert.Empty(t, res.Warnings)

	// absent inputs count as zero, never skip
	res = agg.Derived([]provider.GameRecord{
		game(1, "", map[string]*float64{metric.KeyGoals: nil, metric.KeyAssists: f(1)}),
		game(2, "", map[string]*float64{}),
	}, metric.KeyGoalInvolvement)
	assert.Equal(t, metric.Of(1), res.Value)
}

func TestDerived_XGOverperformance(t *testing.T) {
	agg := aggregate.New(metric.Default())

	res := agg.Derived([]provider.GameRecord{
		game(1, "", map[string]*float64{metric.KeyGoals: f(2), metric.KeyExpectedGoals: f(1.35)}),
	}, metric.KeyXGOverperformance)
	v, ok := res.Value.Get()
	require.True(t, ok)
	assert.InDelta(t, 0.65, v, 1e-9)
	assert.Empty(t, res.Warnings)

	// one missing xG aborts regardless of the rest
	res = agg.Derived([]provider.GameRecord{
		game(1, "", map[string]*float64{metric.KeyGoals: f(2), metric.KeyExpectedGoals: f(1.35)}),
		game(2, "", map[string]*float64{metric.KeyGoals: f(1), metric.KeyExpectedGoals: nil}),
		game(3, "", map[string]*float64{metric.KeyGoals: f(0), metric.KeyExpectedGoals: nil}),
	}, metric.KeyXGOverperformance)
	assert.True(t, res.OK())
	assert.False(t, res.Value.IsPresent())
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, int64(2), res.Warnings[0].Details["game_id"])

	res = agg.Derived(nil, metric.KeyXGOverperformance)
	assert.False(t, res.Value.IsPresent())
	assert.Len(t, res.Warnings, 1)
}

func TestDerived_MinutesPerGoal(t *testing.T) {
	agg := aggregate.New(metric.Default())

	res := agg.Derived(haalandGames(), metric.KeyMinutesPerGoal)
	v, ok := res.Value.Get()
	require.True(t, ok)
	assert.InDelta(t, 86.6, v, 1e-9)

	res = agg.Derived([]provider.GameRecord{
		game(1, "", map[string]*float64{metric.KeyGoals: f(0), metric.KeyMinutesPlayed: f(90)}),
		game(2, "", map[string]*float64{metric.KeyGoals: nil, metric.KeyMinutesPlayed: f(90)}),
	}, metric.KeyMinutesPerGoal)
	assert.True(t, res.OK())
	assert.False(t, res.Value.IsPresent())
	assert.Equal(t, []string{diag.CodeMetricUnavailable}, codes(res.Warnings))
}

func TestDerived_Failures(t *testing.T) {
	agg := aggregate.New(metric.Default())

	res := agg.Derived(nil, "nope")
	require.Error(t, res.Err())
	assert.Equal(t, diag.ReasonUnknownMetric, res.Failure.Reason)

	res = agg.Derived(nil, metric.KeyGoals)
	require.Error(t, res.Err())
	assert.Equal(t, diag.ReasonNotDerived, res.Failure.Reason)
}

func TestForm(t *testing.T) {
	agg := aggregate.New(metric.Default())

	games := []provider.GameRecord{
		game(1, "2026-02-08", map[string]*float64{metric.KeyExpectedGoals: f(1.35)}),
		game(2, "", map[string]*float64{metric.KeyExpectedGoals: nil}),
		game(3, "2026-01-25", map[string]*float64{metric.KeyExpectedGoals: f(0.45)}),
	}

	res := agg.Form(games, metric.KeyExpectedGoals, 0)
	require.True(t, res.OK())
	assert.Equal(t, []metric.Value{metric.Of(1.35), metric.Absent(), metric.Of(0.45)}, res.Series)
	assert.Equal(t, []string{"2026-02-08", "G2", "2026-01-25"}, res.Labels)
	assert.Equal(t, metric.Of(2), res.Value)

	res = agg.Form(haalandGames(), metric.KeyGoals, 3)
	assert.Equal(t, []metric.Value{metric.Of(2), metric.Of(2), metric.Of(0)}, res.Series)
	assert.Len(t, res.Labels, 3)

	res = agg.Form(haalandGames(), metric.KeyGoalInvolvement, 10)
	assert.Equal(t, []metric.Value{metric.Of(2), metric.Of(3), metric.Of(1), metric.Of(1), metric.Of(0)}, res.Series)

	res = agg.Form(haalandGames(), "nope", 5)
	assert.NotNil(t, res.Failure)
}

func TestForm_PreservesCallerOrder(t *testing.T) {
	agg := aggregate.New(metric.Default())
	games := haalandGames()
	reversed := make([]provider.GameRecord, len(games))
	for i := range games {
		reversed[len(games)-1-i] = games[i]
	}

	res := agg.Form(reversed, metric.KeyMinutesPlayed, 5)
	assert.Equal(t, []metric.Value{metric.Of(90), metric.Of(85), metric.Of(78), metric.Of(90), metric.Of(90)}, res.Series)
	assert.Equal(t, "2026-01-11", res.Labels[0])
}
