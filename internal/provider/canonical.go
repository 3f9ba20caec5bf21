// Package provider defines the canonical game record every upstream payload
// is normalized into, plus the raw payload representation the normalizer
// consumes.
//
// Upstream clients hand back Payloads; the normalizer turns them into
// GameRecords; the aggregator and comparator never see raw upstream shapes.
package provider

import "github.com/albapepper/footiq/internal/metric"

// GameRecord is one normalized game (game-list mode) or lineup (lineup mode)
// observation. Identifier fields are empty or nil when upstream did not
// supply them.
type GameRecord struct {
	GameID   *int64 `json:"game_id"`
	Date     string `json:"date,omitempty"`
	Opponent string `json:"opponent,omitempty"`
	Score    string `json:"score,omitempty"`

	// Lineup mode only.
	AthleteID *int64 `json:"athlete_id,omitempty"`
	Position  string `json:"position,omitempty"`

	// Metrics holds exactly the keys requested at normalization time.
	Metrics map[string]metric.Value `json:"metrics"`
	// UnknownTypeIDs lists upstream type ids no registered metric claims, in
	// first-seen order without duplicates.
	UnknownTypeIDs []int `json:"unknown_type_ids"`
}

// Metric returns the value for key; keys that were not extracted are absent.
func (g GameRecord) Metric(key string) metric.Value {
	return g.Metrics[key]
}

// Has reports whether key was part of the extraction set for this record.
func (g GameRecord) Has(key string) bool {
	_, ok := g.Metrics[key]
	return ok
}
