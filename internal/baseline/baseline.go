// Package baseline holds population statistics per metric and scores
// per-90 values against them.
//
// A Table is loaded once (from a JSON/YAML file or Postgres) and is
// read-only afterwards, so one Comparator can serve concurrent requests.
package baseline

import (
	"sort"

	"github.com/albapepper/footiq/internal/metric"
)

// Default population segment.
const (
	DefaultLeague   = "premier_league"
	DefaultSeason   = "2025_2026"
	DefaultPosition = "all_positions"
)

// Population identifies a baseline segment.
type Population struct {
	League   string `json:"league"`
	Season   string `json:"season"`
	Position string `json:"position"`
}

// DefaultPopulation returns premier_league/2025_2026/all_positions.
func DefaultPopulation() Population {
	return Population{League: DefaultLeague, Season: DefaultSeason, Position: DefaultPosition}
}

// WithDefaults fills empty fields from DefaultPopulation.
func (p Population) WithDefaults() Population {
	if p.League == "" {
		p.League = DefaultLeague
	}
	if p.Season == "" {
		p.Season = DefaultSeason
	}
	if p.Position == "" {
		p.Position = DefaultPosition
	}
	return p
}

func (p Population) String() string {
	return p.League + "/" + p.Season + "/" + p.Position
}

// Stats are the population statistics for one metric.
type Stats struct {
	Mean metric.Value `json:"mean"`
	Std  metric.Value `json:"std"`
	N    int          `json:"n"`
}

// Entry is one flattened table row.
type Entry struct {
	Population
	Metric string `json:"metric"`
	Stats
}

// Table is an immutable baseline lookup.
type Table struct {
	rows map[Population]map[string]Stats
	n    int
}

// NewTable builds a table. A later entry for the same population and metric
// replaces an earlier one.
func NewTable(entries []Entry) *Table {
	t := &Table{rows: make(map[Population]map[string]Stats)}
	for _, e := range entries {
		byMetric, ok := t.rows[e.Population]
		if !ok {
			byMetric = make(map[string]Stats)
			t.rows[e.Population] = byMetric
		}
		if _, dup := byMetric[e.Metric]; !dup {
			t.n++
		}
		byMetric[e.Metric] = e.Stats
	}
	return t
}

// Lookup returns the stats for key within pop.
func (t *Table) Lookup(pop Population, key string) (Stats, bool) {
	if t == nil {
		return Stats{}, false
	}
	s, ok := t.rows[pop][key]
	return s, ok
}

// Len returns the number of (population, metric) entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.n
}

// Entries returns every row sorted by population then metric.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, 0, t.n)
	for pop, byMetric := range t.rows {
		for key, s := range byMetric {
			out = append(out, Entry{Population: pop, Metric: key, Stats: s})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Population != b.Population {
			return a.Population.String() < b.Population.String()
		}
		return a.Metric < b.Metric
	})
	return out
}
