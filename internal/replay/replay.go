// Package replay serves recorded upstream payloads from disk so the data
// layer can run without network access.
package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/albapepper/footiq/internal/provider"
)

// ErrFixtureNotFound is returned when no recording exists for a request.
var ErrFixtureNotFound = errors.New("replay fixture not found")

// Store reads fixtures from a directory.
type Store struct {
	dir string
}

// New returns a store rooted at dir.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the fixture directory.
func (s *Store) Dir() string { return s.dir }

// AthleteGamesFixture names the recording of an athlete's last n games.
func AthleteGamesFixture(athleteID int64, lastN int) string {
	return fmt.Sprintf("athletes_games__%d__last%d.json", athleteID, lastN)
}

// LineupFixture names the recording of one athlete's lineup for a game.
func LineupFixture(athleteID, gameID int64) string {
	return fmt.Sprintf("athlete_lineup__%d__%d.json", athleteID, gameID)
}

// AthleteGames loads the recorded game list. The fixture name is returned
// even on error so callers can report what was attempted.
func (s *Store) AthleteGames(athleteID int64, lastN int) (any, string, error) {
	name := AthleteGamesFixture(athleteID, lastN)
	raw, err := s.Load(name)
	return raw, name, err
}

// GameLineup loads the recorded lineup.
func (s *Store) GameLineup(athleteID, gameID int64) (any, string, error) {
	name := LineupFixture(athleteID, gameID)
	raw, err := s.Load(name)
	return raw, name, err
}

// Load decodes one fixture by file name.
func (s *Store) Load(name string) (any, error) {
	if filepath.Base(name) != name {
		return nil, fmt.Errorf("%w: invalid fixture name %q", ErrFixtureNotFound, name)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFixtureNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", name, err)
	}

	raw, err := provider.DecodePayload(data)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", name, err)
	}
	return raw, nil
}

// Save records raw as an indented JSON fixture, creating the directory if
// needed. Existing fixtures are overwritten.
func (s *Store) Save(name string, raw any) error {
	if filepath.Base(name) != name || !strings.HasSuffix(name, ".json") {
		return fmt.Errorf("invalid fixture name %q", name)
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("encode fixture %s: %w", name, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create fixture dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", name, err)
	}
	return nil
}

// List returns the fixture file names in the directory, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list fixtures: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
