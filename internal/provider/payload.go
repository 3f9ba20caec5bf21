package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Payload is a decoded JSON object from an upstream provider.
type Payload map[string]any

// DecodePayload decodes a raw upstream body. Numbers are kept as json.Number
// so large ids survive and numeric strings are not confused with floats.
// The result is either a Payload-compatible map, a list, or a scalar.
func DecodePayload(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return out, nil
}

// AsPayload returns v as a Payload when it is a JSON object.
func AsPayload(v any) (Payload, bool) {
	switch m := v.(type) {
	case Payload:
		return m, m != nil
	case map[string]any:
		return Payload(m), m != nil
	}
	return nil, false
}

// Lookup follows a dotted path ("game.homeCompetitor.score") through nested
// objects. It reports false when any segment is missing or not an object.
func (p Payload) Lookup(path string) (any, bool) {
	var cur any = p
	for _, seg := range strings.Split(path, ".") {
		obj, ok := AsPayload(cur)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Object returns the nested object at path, if any.
func (p Payload) Object(path string) (Payload, bool) {
	v, ok := p.Lookup(path)
	if !ok {
		return nil, false
	}
	return AsPayload(v)
}

// List returns the nested array at path, if any.
func (p Payload) List(path string) ([]any, bool) {
	v, ok := p.Lookup(path)
	if !ok {
		return nil, false
	}
	list, ok := v.([]any)
	return list, ok
}
