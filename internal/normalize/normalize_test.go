package normalize_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/footiq/internal/diag"
	"github.com/albapepper/footiq/internal/metric"
	"github.com/albapepper/footiq/internal/normalize"
	"github.com/albapepper/footiq/internal/provider"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	v, err := provider.DecodePayload([]byte(s))
	require.NoError(t, err)
	return v
}

func loadFixture(t *testing.T, name string) any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "fixtures", "sportapi", name))
	require.NoError(t, err)
	return decode(t, string(data))
}

const liveGames = `{
	"games": [{
		"game": {
			"id": 4452657,
			"startTime": "2026-02-08T16:30:00+00:00",
			"homeCompetitor": {"id": 108, "name": "Liverpool", "score": 1},
			"awayCompetitor": {"id": 110, "name": "Manchester City", "score": 1},
			"scores": [1, 1]
		},
		"relatedCompetitor": 110,
		"athleteStats": [
			{"type": 229, "value": "90"},
			{"type": 225, "value": "1"},
			{"type": 226, "value": "0"},
			{"type": 0, "value": "7.2"}
		]
	}]
}`

func TestGames_LiveShapeUsesFallbackIDs(t *testing.T) {
	n := normalize.New(metric.Default())

	games, warnings := n.Games(decode(t, liveGames))
	require.Len(t, games, 1)
	assert.Empty(t, warnings)

	g := games[0]
	require.NotNil(t, g.GameID)
	assert.Equal(t, int64(4452657), *g.GameID)
	assert.Equal(t, "2026-02-08T16:30:00+00:00", g.Date)
	assert.Equal(t, "1-1", g.Score)
	assert.Equal(t, "Liverpool", g.Opponent)
	assert.Equal(t, metric.Of(90), g.Metric(metric.KeyMinutesPlayed))
	assert.Equal(t, metric.Of(1), g.Metric(metric.KeyGoals))
	assert.Equal(t, metric.Of(0), g.Metric(metric.KeyAssists))
	assert.Equal(t, metric.Of(7.2), g.Metric(metric.KeyRating))
	assert.Empty(t, g.UnknownTypeIDs)
}

func TestGames_Tier1Only(t *testing.T) {
	n := normalize.New(metric.Default())
	games, _ := n.Games(loadFixture(t, "athletes_games__939180__last5.json"))
	require.Len(t, games, 5)

	for _, g := range games {
		assert.Len(t, g.Metrics, 6)
		assert.False(t, g.Has(metric.KeyExpectedGoals))
		assert.False(t, g.Has(metric.KeyShotsTotal))
		// true-zero metrics are never absent
		assert.Equal(t, metric.Of(0), g.Metric(metric.KeyYellowCards))
		assert.Equal(t, metric.Of(0), g.Metric(metric.KeyRedCards))
	}
}

func TestGames_HaalandFixtureValues(t *testing.T) {
	n := normalize.New(metric.Default())
	games, warnings := n.Games(loadFixture(t, "athletes_games__939180__last5.json"))
	require.Len(t, games, 5)
	assert.Empty(t, warnings)

	g1 := games[0]
	assert.Equal(t, int64(11001), *g1.GameID)
	assert.Equal(t, "Liverpool", g1.Opponent)
	assert.Equal(t, "3-1", g1.Score)
	assert.Equal(t, metric.Of(8.2), g1.Metric(metric.KeyRating))
	assert.Equal(t, "West Ham", games[4].Opponent)
	assert.Equal(t, metric.Of(6.3), games[4].Metric(metric.KeyRating))

	var goals, assists, minutes float64
	for _, g := range games {
		goals += g.Metric(metric.KeyGoals).OrZero()
		assists += g.Metric(metric.KeyAssists).OrZero()
		minutes += g.Metric(metric.KeyMinutesPlayed).OrZero()
	}
	assert.Equal(t, 5.0, goals)
	assert.Equal(t, 2.0, assists)
	assert.Equal(t, 433.0, minutes)
}

func TestGames_SakaLiveFixture(t *testing.T) {
	n := normalize.New(metric.Default())
	games, warnings := n.Games(loadFixture(t, "athletes_games__934235__last5.json"))
	require.Len(t, games, 5)
	assert.Empty(t, warnings)

	assert.Equal(t, int64(21001), *games[0].GameID)
	assert.Equal(t, metric.Of(1), games[0].Metric(metric.KeyGoals))
	assert.Equal(t, metric.Of(90), games[0].Metric(metric.KeyMinutesPlayed))
	assert.Equal(t, "Leeds United", games[0].Opponent)
	assert.Equal(t, "Brentford", games[1].Opponent)
	assert.Equal(t, "1-1", games[1].Score)
}

func TestGames_BareListAndMalformedEntries(t *testing.T) {
	n := normalize.New(metric.Default())

	games, _ := n.Games(decode(t, `[{"game_id": 1, "statistics": [{"type": 21, "value": 2}]}, "junk", 7]`))
	require.Len(t, games, 1)
	assert.Equal(t, metric.Of(2), games[0].Metric(metric.KeyGoals))

	for _, raw := range []any{nil, "x", 42, map[string]any{}, map[string]any{"games": "nope"}} {
		games, warnings := n.Games(raw)
		assert.Empty(t, games)
		assert.Empty(t, warnings)
	}
}

func TestGames_UnknownIDsOneWarningPerGame(t *testing.T) {
	n := normalize.New(metric.Default())
	raw := decode(t, `{"games": [
		{"game_id": 7, "statistics": [
			{"type": 21, "value": 1},
			{"type": 999, "value": 3},
			{"type": 998, "value": null},
			{"type": 999, "value": 4}
		]},
		{"game_id": 8, "statistics": [{"type": 21, "value": 0}]}
	]}`)

	games, warnings := n.Games(raw)
	require.Len(t, games, 2)
	assert.Equal(t, []int{999, 998}, games[0].UnknownTypeIDs)
	assert.Equal(t, metric.Of(1), games[0].Metric(metric.KeyGoals))
	assert.Empty(t, games[1].UnknownTypeIDs)

	require.Len(t, warnings, 1)
	assert.Equal(t, diag.CodeNormalizationGap, warnings[0].Code)
	assert.Equal(t, int64(7), warnings[0].Details["game_id"])
	assert.Equal(t, []int{999, 998}, warnings[0].Details["unknown_type_ids"])
}

func TestLineup_LiveShape(t *testing.T) {
	n := normalize.New(metric.Default())
	rec, warnings := n.Lineup(decode(t, `{
		"lineup": {
			"game": {"id": 4452657},
			"athleteId": 65760,
			"position": {"name": "Attacker"},
			"athleteStats": [
				{"type": 229, "value": "90"},
				{"type": 225, "value": "1"},
				{"type": 226, "value": "0"},
				{"type": 0, "value": "7.8"}
			]
		}
	}`))

	assert.Empty(t, warnings)
	assert.Equal(t, int64(4452657), *rec.GameID)
	assert.Equal(t, int64(65760), *rec.AthleteID)
	assert.Equal(t, "Attacker", rec.Position)
	assert.Equal(t, metric.Of(90), rec.Metric(metric.KeyMinutesPlayed))
	assert.Equal(t, metric.Of(1), rec.Metric(metric.KeyGoals))
	assert.Equal(t, metric.Of(0), rec.Metric(metric.KeyAssists))
	assert.Equal(t, metric.Of(7.8), rec.Metric(metric.KeyRating))

	assert.Len(t, rec.Metrics, 12)
	assert.False(t, rec.Metric(metric.KeyExpectedGoals).IsPresent())
}

func TestLineup_FixtureTier2(t *testing.T) {
	n := normalize.New(metric.Default())
	rec, warnings := n.Lineup(loadFixture(t, "athlete_lineup__939180__11001.json"))
	assert.Empty(t, warnings)

	assert.Equal(t, "ST", rec.Position)
	assert.Equal(t, metric.Of(2), rec.Metric(metric.KeyGoals))
	assert.Equal(t, metric.Of(90), rec.Metric(metric.KeyMinutesPlayed))
	assert.Equal(t, metric.Of(8.2), rec.Metric(metric.KeyRating))
	assert.Equal(t, metric.Of(1.35), rec.Metric(metric.KeyExpectedGoals))
	assert.Equal(t, metric.Of(5), rec.Metric(metric.KeyShotsTotal))
	assert.Equal(t, metric.Of(3), rec.Metric(metric.KeyShotsOnTarget))
	assert.Equal(t, metric.Of(7), rec.Metric(metric.KeyTouchesInBox))
	assert.Equal(t, metric.Of(1), rec.Metric(metric.KeyKeyPasses))
	assert.Equal(t, metric.Of(0), rec.Metric(metric.KeyTacklesWon))

	saka, _ := n.Lineup(loadFixture(t, "athlete_lineup__934235__21001.json"))
	assert.Equal(t, "RW", saka.Position)
	assert.Equal(t, metric.Of(0.65), saka.Metric(metric.KeyExpectedGoals))
}

func TestLineup_FlatShapeAndPerIDWarnings(t *testing.T) {
	n := normalize.New(metric.Default())
	rec, warnings := n.Lineup(decode(t, `{
		"game_id": 3, "athlete_id": "12", "position": "CM",
		"statistics": [
			{"type_id": 42, "value": "1.5e-1"},
			{"typeId": 56, "value": 2},
			{"type": {"id": 57}, "value": 1},
			{"type": 501, "value": 1},
			{"type": 502, "value": 1},
			{"value": 9}
		]
	}`))

	assert.Equal(t, int64(3), *rec.GameID)
	assert.Equal(t, int64(12), *rec.AthleteID)
	assert.Equal(t, "CM", rec.Position)
	assert.Equal(t, metric.Of(0.15), rec.Metric(metric.KeyExpectedGoals))
	assert.Equal(t, metric.Of(2), rec.Metric(metric.KeyShotsTotal))
	assert.Equal(t, metric.Of(1), rec.Metric(metric.KeyShotsOnTarget))
	assert.Equal(t, []int{501, 502}, rec.UnknownTypeIDs)

	require.Len(t, warnings, 2)
	assert.Equal(t, 501, warnings[0].Details["unknown_type_id"])
	assert.Equal(t, 502, warnings[1].Details["unknown_type_id"])
}

func TestLineup_MalformedInputIsAllPolicyDefaults(t *testing.T) {
	n := normalize.New(metric.Default())
	for _, raw := range []any{nil, []any{1, 2}, "lineup", map[string]any{"lineup": 5}} {
		rec, warnings := n.Lineup(raw)
		assert.Empty(t, warnings)
		assert.Nil(t, rec.GameID)
		assert.Equal(t, metric.Of(0), rec.Metric(metric.KeyGoals))
		assert.False(t, rec.Metric(metric.KeyExpectedGoals).IsPresent())
	}
}

func TestShapes_FirstNonEmptyWins(t *testing.T) {
	n := normalize.New(metric.Default())

	cases := map[string]string{
		"statistics":        `{"statistics": [{"type": 21, "value": 1}], "athleteStats": [{"type": 21, "value": 9}]}`,
		"athleteStats":      `{"statistics": [], "athleteStats": [{"type": 21, "value": 1}]}`,
		"game.statistics":   `{"game": {"statistics": [{"type": 21, "value": 1}]}}`,
		"game.athleteStats": `{"game": {"athleteStats": [{"type": 225, "value": 1}]}}`,
		"":                  `{"game": {"id": 1}}`,
	}
	for want, payload := range cases {
		raw := decode(t, payload)
		assert.Equal(t, want, n.ResolvedShape(raw), payload)
		if want != "" {
			games, _ := n.Games([]any{raw})
			assert.Equal(t, metric.Of(1), games[0].Metric(metric.KeyGoals), want)
		}
	}
}

func TestAuxFields(t *testing.T) {
	n := normalize.New(metric.Default())

	tests := []struct {
		name         string
		payload      string
		wantOpponent string
		wantScore    string
	}{
		{
			name:         "home vs away fallback",
			payload:      `{"home_team": "Arsenal", "away_team": "Chelsea"}`,
			wantOpponent: "Arsenal vs Chelsea",
		},
		{
			name:         "single side",
			payload:      `{"away_team": "Chelsea"}`,
			wantOpponent: "Chelsea",
		},
		{
			name:         "opponent object",
			payload:      `{"opponent": {"name": "Spurs"}, "score": "2-2"}`,
			wantOpponent: "Spurs",
			wantScore:    "2-2",
		},
		{
			name: "related competitor is home",
			payload: `{"relatedCompetitor": 1,
				"homeCompetitor": {"id": 1, "name": "A", "score": 2},
				"awayCompetitor": {"id": 2, "name": "B", "score": 0}}`,
			wantOpponent: "B",
			wantScore:    "2-0",
		},
		{
			name: "competitor names without hint",
			payload: `{"game": {"homeCompetitor": {"id": 1, "name": "A", "score": -1},
				"awayCompetitor": {"id": 2, "name": "B", "score": -1}}}`,
			wantOpponent: "A vs B",
		},
		{
			name:      "nested score object",
			payload:   `{"game": {"score": {"home": 3, "away": 1}}}`,
			wantScore: "3-1",
		},
		{
			name:      "score pair with negatives ignored",
			payload:   `{"scores": [-1, -1]}`,
			wantScore: "",
		},
		{
			name:      "nested score pair",
			payload:   `{"game": {"scores": [0, 2]}}`,
			wantScore: "0-2",
		},
		{
			name:    "nothing known",
			payload: `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			games, _ := n.Games([]any{decode(t, tt.payload)})
			require.Len(t, games, 1)
			assert.Equal(t, tt.wantOpponent, games[0].Opponent)
			assert.Equal(t, tt.wantScore, games[0].Score)
		})
	}
}

func TestIdempotence(t *testing.T) {
	n := normalize.New(metric.Default())
	payload := `{"games": [
		{"game_id": 1, "statistics": [{"type": 21, "value": 1}, {"type": 777, "value": 1}, {"type": 10, "value": null}]},
		{"game": {"id": 2, "homeCompetitor": {"id": 5, "name": "X", "score": 1}}, "athleteStats": [{"type": 0, "value": "6.1"}]}
	]}`

	marshal := func() (string, string) {
		games, warnings := n.Games(decode(t, payload))
		g, err := json.Marshal(games)
		require.NoError(t, err)
		w, err := json.Marshal(warnings)
		require.NoError(t, err)
		return string(g), string(w)
	}

	g1, w1 := marshal()
	g2, w2 := marshal()
	assert.Equal(t, g1, g2)
	assert.Equal(t, w1, w2)
	assert.Contains(t, g1, `"rating":null`)
}
