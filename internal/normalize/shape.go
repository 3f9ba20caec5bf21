package normalize

import (
	"github.com/albapepper/footiq/internal/metric"
	"github.com/albapepper/footiq/internal/provider"
)

// ShapeStrategy locates the raw observation list inside one game or lineup
// object. Resolve returns ok=false when the shape does not match or the list
// is empty.
type ShapeStrategy struct {
	Name    string
	Resolve func(provider.Payload) ([]any, bool)
}

func listAt(path string) func(provider.Payload) ([]any, bool) {
	return func(p provider.Payload) ([]any, bool) {
		list, ok := p.List(path)
		return list, ok && len(list) > 0
	}
}

// DefaultShapes is the resolution order for observation lists: the flat
// legacy field first, then the live field, then both nested under "game".
func DefaultShapes() []ShapeStrategy {
	return []ShapeStrategy{
		{Name: "statistics", Resolve: listAt("statistics")},
		{Name: "athleteStats", Resolve: listAt("athleteStats")},
		{Name: "game.statistics", Resolve: listAt("game.statistics")},
		{Name: "game.athleteStats", Resolve: listAt("game.athleteStats")},
	}
}

// resolveObservations runs shapes in order and converts the first non-empty
// list. The matched strategy name is empty when nothing matched.
func resolveObservations(p provider.Payload, shapes []ShapeStrategy) ([]metric.Observation, string) {
	for _, s := range shapes {
		list, ok := s.Resolve(p)
		if !ok {
			continue
		}
		return toObservations(list), s.Name
	}
	return nil, ""
}

func toObservations(list []any) []metric.Observation {
	out := make([]metric.Observation, 0, len(list))
	for _, item := range list {
		entry, ok := provider.AsPayload(item)
		if !ok {
			continue
		}
		id, ok := observationTypeID(entry)
		if !ok {
			continue
		}
		out = append(out, metric.Observation{TypeID: id, Value: entry["value"]})
	}
	return out
}

// observationTypeID reads "type" (a number, numeric string, or {"id": n}),
// then "type_id", then "typeId".
func observationTypeID(entry provider.Payload) (int, bool) {
	if raw, ok := entry["type"]; ok && raw != nil {
		if obj, isObj := provider.AsPayload(raw); isObj {
			if id, ok := getInt64(obj, "id"); ok {
				return int(id), true
			}
		} else if id, ok := asInt64(raw); ok {
			return int(id), true
		}
	}
	for _, key := range []string{"type_id", "typeId"} {
		if id, ok := getInt64(entry, key); ok {
			return int(id), true
		}
	}
	return 0, false
}

// gameListShapes locate the list of games in a game-list payload.
var gameListShapes = []struct {
	name    string
	resolve func(any) ([]any, bool)
}{
	{"games", func(raw any) ([]any, bool) {
		p, ok := provider.AsPayload(raw)
		if !ok {
			return nil, false
		}
		return p.List("games")
	}},
	{"bare list", func(raw any) ([]any, bool) {
		list, ok := raw.([]any)
		return list, ok
	}},
}

// lineupRecord returns the object that holds the lineup fields: the
// "lineup" wrapper when present, the payload itself otherwise.
func lineupRecord(raw any) provider.Payload {
	p, ok := provider.AsPayload(raw)
	if !ok {
		return provider.Payload{}
	}
	if inner, ok := p.Object("lineup"); ok {
		return inner
	}
	return p
}
