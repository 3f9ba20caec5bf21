package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/albapepper/footiq/internal/provider"
)

// ----------------------------------------------------------------------------
// Payload probing helpers
// ----------------------------------------------------------------------------

func asInt64(raw any) (int64, bool) {
	switch v := raw.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case float64:
		return floatToInt(v)
	case float32:
		return floatToInt(float64(v))
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

func asFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

func getInt64(src provider.Payload, path string) (int64, bool) {
	raw, ok := src.Lookup(path)
	if !ok || raw == nil {
		return 0, false
	}
	return asInt64(raw)
}

func getString(src provider.Payload, path string) string {
	raw, ok := src.Lookup(path)
	if !ok || raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// getName reads a plain string or an object's "name".
func getName(src provider.Payload, path string) string {
	if s := getString(src, path); s != "" {
		return s
	}
	return getString(src, path+".name")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstID(src provider.Payload, paths ...string) *int64 {
	for _, p := range paths {
		if id, ok := getInt64(src, p); ok {
			return &id
		}
	}
	return nil
}

// ----------------------------------------------------------------------------
// Auxiliary fields
// ----------------------------------------------------------------------------

func gameID(game provider.Payload) *int64 {
	return firstID(game, "game_id", "gameId", "id", "game.id")
}

func lineupGameID(lineup provider.Payload) *int64 {
	// A lineup's own "id" identifies the lineup entry, not the game.
	return firstID(lineup, "game_id", "gameId", "game.id")
}

func athleteID(lineup provider.Payload) *int64 {
	return firstID(lineup, "athlete_id", "athleteId", "athlete.id")
}

func gameDate(game provider.Payload) string {
	return firstNonEmpty(
		getString(game, "date"),
		getString(game, "startTime"),
		getString(game, "game.date"),
		getString(game, "game.startTime"),
	)
}

func position(lineup provider.Payload) string {
	return getName(lineup, "position")
}

// competitor is one side of a fixture.
type competitor struct {
	id       *int64
	name     string
	score    float64
	hasScore bool
}

// competitors prefers the sides nested under "game", then top-level ones.
func competitors(game provider.Payload) (home, away competitor) {
	read := func(path string) competitor {
		c := competitor{name: getName(game, path)}
		if id, ok := getInt64(game, path+".id"); ok {
			c.id = &id
		}
		if raw, ok := game.Lookup(path + ".score"); ok {
			if f, ok := asFloat(raw); ok && f >= 0 {
				c.score, c.hasScore = f, true
			}
		}
		return c
	}

	for _, prefix := range []string{"game.", ""} {
		h, a := read(prefix+"homeCompetitor"), read(prefix+"awayCompetitor")
		if h.id != nil || a.id != nil || h.name != "" || a.name != "" {
			return h, a
		}
	}
	return competitor{}, competitor{}
}

func formatScore(home, away float64) string {
	return strconv.FormatFloat(home, 'f', -1, 64) + "-" + strconv.FormatFloat(away, 'f', -1, 64)
}

// directScore accepts "2-1" strings and {"home": 2, "away": 1} objects.
func directScore(game provider.Payload, path string) string {
	if s := getString(game, path); s != "" {
		return s
	}
	obj, ok := game.Object(path)
	if !ok {
		return ""
	}
	h, hok := asFloat(obj["home"])
	a, aok := asFloat(obj["away"])
	if !hok || !aok || h < 0 || a < 0 {
		return ""
	}
	return formatScore(h, a)
}

func scorePair(game provider.Payload, path string) string {
	list, ok := game.List(path)
	if !ok || len(list) < 2 {
		return ""
	}
	h, hok := asFloat(list[0])
	a, aok := asFloat(list[1])
	if !hok || !aok || h < 0 || a < 0 {
		return ""
	}
	return formatScore(h, a)
}

// gameScore: direct field, nested field, competitor sub-scores, score pair.
// Negative sub-scores mean the game has not been played.
func gameScore(game provider.Payload) string {
	if s := firstNonEmpty(directScore(game, "score"), directScore(game, "game.score")); s != "" {
		return s
	}
	if home, away := competitors(game); home.hasScore && away.hasScore {
		return formatScore(home.score, away.score)
	}
	return firstNonEmpty(scorePair(game, "scores"), scorePair(game, "game.scores"))
}

// opponent: explicit field, then the side opposite relatedCompetitor, then
// "home vs away", then whichever single name exists.
func opponent(game provider.Payload) string {
	if s := firstNonEmpty(getName(game, "opponent"), getName(game, "game.opponent")); s != "" {
		return s
	}

	home, away := competitors(game)
	if related := firstID(game, "relatedCompetitor", "game.relatedCompetitor"); related != nil {
		switch {
		case home.id != nil && *home.id == *related && away.name != "":
			return away.name
		case away.id != nil && *away.id == *related && home.name != "":
			return home.name
		}
	}

	homeName := firstNonEmpty(getName(game, "home_team"), home.name)
	awayName := firstNonEmpty(getName(game, "away_team"), away.name)
	if homeName != "" && awayName != "" {
		return homeName + " vs " + awayName
	}
	return firstNonEmpty(homeName, awayName)
}
