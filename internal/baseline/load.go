package baseline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/albapepper/footiq/internal/metric"
)

// fileStats is one leaf of the nested baseline document:
// league -> season -> position -> metric -> {mean, std, n}.
type fileStats struct {
	Mean *float64 `json:"mean" yaml:"mean"`
	Std  *float64 `json:"std" yaml:"std"`
	N    int      `json:"n" yaml:"n"`
}

type document map[string]map[string]map[string]map[string]fileStats

func (d document) table() *Table {
	var entries []Entry
	for league, seasons := range d {
		for season, positions := range seasons {
			for position, metrics := range positions {
				pop := Population{League: league, Season: season, Position: position}
				for key, s := range metrics {
					entries = append(entries, Entry{
						Population: pop,
						Metric:     key,
						Stats:      Stats{Mean: optional(s.Mean), Std: optional(s.Std), N: s.N},
					})
				}
			}
		}
	}
	return NewTable(entries)
}

func optional(f *float64) metric.Value {
	if f == nil {
		return metric.Absent()
	}
	return metric.Of(*f)
}

// ParseJSON parses a nested baseline document.
func ParseJSON(data []byte) (*Table, error) {
	var doc document
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse baselines json: %w", err)
	}
	return doc.table(), nil
}

// ParseYAML parses a nested baseline document.
func ParseYAML(data []byte) (*Table, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse baselines yaml: %w", err)
	}
	return doc.table(), nil
}

// LoadFile reads a .json, .yaml or .yml baseline file.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read baselines: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".json":
		return ParseJSON(data)
	}
	return nil, fmt.Errorf("unsupported baselines file %q", path)
}
