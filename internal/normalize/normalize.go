// Package normalize turns raw upstream game and lineup payloads into
// canonical records.
//
// Every known metric is extracted through the registry's definitions and
// fallback ids. Observations with unrecognized type ids never block known
// metrics; they are reported as NORMALIZATION_GAP warnings instead.
// Malformed input yields best-effort records, never a panic.
package normalize

import (
	"fmt"

	"github.com/albapepper/footiq/internal/diag"
	"github.com/albapepper/footiq/internal/metric"
	"github.com/albapepper/footiq/internal/provider"
)

// Normalizer is safe for concurrent use.
type Normalizer struct {
	reg        *metric.Registry
	shapes     []ShapeStrategy
	gameDefs   []metric.Definition
	lineupDefs []metric.Definition
}

// New builds a normalizer over reg using DefaultShapes.
func New(reg *metric.Registry) *Normalizer {
	return NewWithShapes(reg, DefaultShapes())
}

// NewWithShapes builds a normalizer with a custom observation resolution order.
func NewWithShapes(reg *metric.Registry, shapes []ShapeStrategy) *Normalizer {
	return &Normalizer{
		reg:        reg,
		shapes:     append([]ShapeStrategy(nil), shapes...),
		gameDefs:   reg.ByTier(metric.Tier1),
		lineupDefs: reg.ByTier(metric.Tier1, metric.Tier2),
	}
}

// Registry returns the registry the normalizer extracts with.
func (n *Normalizer) Registry() *metric.Registry { return n.reg }

// Games normalizes a game-list payload ({"games": [...]} or a bare list)
// with Tier1 metrics only. Non-object entries are skipped. Each game with
// unknown type ids produces a single NORMALIZATION_GAP warning listing all
// of them.
func (n *Normalizer) Games(raw any) ([]provider.GameRecord, []diag.Warning) {
	var list []any
	for _, s := range gameListShapes {
		if l, ok := s.resolve(raw); ok {
			list = l
			break
		}
	}

	records := make([]provider.GameRecord, 0, len(list))
	var warnings []diag.Warning

	for _, item := range list {
		game, ok := provider.AsPayload(item)
		if !ok {
			continue
		}

		obs, _ := resolveObservations(game, n.shapes)
		rec := provider.GameRecord{
			GameID:   gameID(game),
			Date:     gameDate(game),
			Opponent: opponent(game),
			Score:    gameScore(game),
		}
		rec.Metrics, rec.UnknownTypeIDs = n.extract(obs, n.gameDefs)

		if len(rec.UnknownTypeIDs) > 0 {
			warnings = append(warnings, diag.New(diag.CodeNormalizationGap,
				map[string]any{
					"game_id":          idDetail(rec.GameID),
					"unknown_type_ids": append([]int(nil), rec.UnknownTypeIDs...),
				},
				"Unknown stat type IDs encountered in game %s: %v", idText(rec.GameID), rec.UnknownTypeIDs))
		}
		records = append(records, rec)
	}

	return records, warnings
}

// Lineup normalizes a lineup payload with Tier1 and Tier2 metrics. The
// record is read from the "lineup" wrapper when present. Each unknown type
// id produces its own NORMALIZATION_GAP warning.
func (n *Normalizer) Lineup(raw any) (provider.GameRecord, []diag.Warning) {
	lineup := lineupRecord(raw)

	obs, _ := resolveObservations(lineup, n.shapes)
	rec := provider.GameRecord{
		GameID:    lineupGameID(lineup),
		Date:      gameDate(lineup),
		Opponent:  opponent(lineup),
		Score:     gameScore(lineup),
		AthleteID: athleteID(lineup),
		Position:  position(lineup),
	}
	rec.Metrics, rec.UnknownTypeIDs = n.extract(obs, n.lineupDefs)

	var warnings []diag.Warning
	for _, id := range rec.UnknownTypeIDs {
		warnings = append(warnings, diag.New(diag.CodeNormalizationGap,
			map[string]any{"unknown_type_id": id, "game_id": idDetail(rec.GameID)},
			"Unknown stat type ID: %d", id))
	}
	return rec, warnings
}

// ResolvedShape reports which observation strategy matches a single game or
// lineup object, or "" when none does.
func (n *Normalizer) ResolvedShape(raw any) string {
	p, ok := provider.AsPayload(raw)
	if !ok {
		return ""
	}
	_, name := resolveObservations(p, n.shapes)
	return name
}

func (n *Normalizer) extract(obs []metric.Observation, defs []metric.Definition) (map[string]metric.Value, []int) {
	metrics := make(map[string]metric.Value, len(defs))
	for _, def := range defs {
		metrics[def.Key] = metric.Extract(obs, def)
	}

	unknown := []int{}
	seen := map[int]bool{}
	for _, o := range obs {
		if n.reg.IsKnownTypeID(o.TypeID) || seen[o.TypeID] {
			continue
		}
		seen[o.TypeID] = true
		unknown = append(unknown, o.TypeID)
	}
	return metrics, unknown
}

func idDetail(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func idText(id *int64) string {
	if id == nil {
		return "unknown"
	}
	return fmt.Sprint(*id)
}
