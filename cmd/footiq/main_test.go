package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/footiq/internal/replay"
)

const fixtureDir = "../../fixtures/sportapi"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestNormalizeGames(t *testing.T) {
	out, err := run(t, "normalize", "games", "--file", fixtureDir+"/athletes_games__939180__last5.json")
	require.NoError(t, err)

	var body struct {
		Games []struct {
			GameID   int64              `json:"game_id"`
			Opponent string             `json:"opponent"`
			Metrics  map[string]*float64 `json:"metrics"`
		} `json:"games"`
		Warnings []json.RawMessage `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	require.Len(t, body.Games, 5)
	assert.Equal(t, int64(11001), body.Games[0].GameID)
	assert.Equal(t, "Liverpool", body.Games[0].Opponent)
	require.NotNil(t, body.Games[0].Metrics["rating"])
	assert.InDelta(t, 8.2, *body.Games[0].Metrics["rating"], 1e-9)
	assert.NotNil(t, body.Warnings)
	assert.Empty(t, body.Warnings)
}

func TestNormalizeLineup(t *testing.T) {
	out, err := run(t, "normalize", "lineup", "--file", fixtureDir+"/athlete_lineup__939180__11001.json")
	require.NoError(t, err)

	var body struct {
		Record struct {
			GameID  int64               `json:"game_id"`
			Metrics map[string]*float64 `json:"metrics"`
		} `json:"record"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, int64(11001), body.Record.GameID)
	assert.Contains(t, body.Record.Metrics, "expected_goals")
}

func TestNormalizeErrors(t *testing.T) {
	_, err := run(t, "normalize", "games")
	assert.ErrorContains(t, err, "--file is required")

	_, err = run(t, "normalize", "games", "--file", fixtureDir+"/missing.json")
	assert.ErrorContains(t, err, "read payload")
}

func TestBaselinesShowFromFile(t *testing.T) {
	out, err := run(t, "baselines", "show", "--file", "../../config/baselines.json", "--position", "forwards")
	require.NoError(t, err)

	assert.Contains(t, out, "LEAGUE")
	assert.Contains(t, out, "expected_goals")
	assert.Contains(t, out, "0.450")
	assert.NotContains(t, out, "all_positions")
	assert.NotContains(t, out, "goalkeepers")
}

func TestFixturesCheck(t *testing.T) {
	out, err := run(t, "fixtures", "check", "--dir", fixtureDir)
	require.NoError(t, err)
	assert.Contains(t, out, "files=8")
	assert.Contains(t, out, "lineups=6")
	assert.Contains(t, out, "errors=0")
}

func TestFixturesCheckFlagsUnknownNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, replay.New(dir).Save("something_else.json", map[string]any{"games": []any{}}))

	out, err := run(t, "fixtures", "check", "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, out, "unrecognized fixture name")
}

func TestAnalyzeRequiresFlags(t *testing.T) {
	_, err := run(t, "analyze", "--metric", "goals")
	assert.ErrorContains(t, err, "--athlete and --metric are required")
}
