// Package playerdata fetches and normalizes player game data from the
// upstream API, replay fixtures or the cache, and runs the analytics
// pipeline over it.
package playerdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/albapepper/footiq/internal/cache"
	"github.com/albapepper/footiq/internal/diag"
	"github.com/albapepper/footiq/internal/normalize"
	"github.com/albapepper/footiq/internal/provider"
	"github.com/albapepper/footiq/internal/replay"
	"github.com/albapepper/footiq/internal/telemetry"
)

// MinGames is the smallest window considered a reliable sample.
const MinGames = 3

// DefaultLastN is the default game window.
const DefaultLastN = 5

var (
	// ErrCacheOnly is returned when live fetching is disabled and the cache
	// has nothing for the request.
	ErrCacheOnly = errors.New("no cached data available and live fetch is disabled")
	// ErrNoUpstream is returned in live mode when no upstream client is configured.
	ErrNoUpstream = errors.New("live mode requires an upstream client")
	// ErrNoGames is returned by Analyze when the window is empty.
	ErrNoGames = errors.New("no games available")
)

// Mode selects where data comes from.
type Mode string

const (
	ModeLive   Mode = "live"
	ModeReplay Mode = "replay"
)

// ParseMode parses a data mode. The empty string means live.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeLive:
		return ModeLive, nil
	case ModeReplay:
		return ModeReplay, nil
	}
	return "", fmt.Errorf("unknown data mode %q (want live or replay)", s)
}

// Request carries the per-call data source settings.
type Request struct {
	Mode           Mode
	AllowLiveFetch bool
}

// Fetcher is the upstream API. *sportapi.Client implements it.
type Fetcher interface {
	AthleteGames(ctx context.Context, athleteID int64, lastN int) (any, error)
	GameLineup(ctx context.Context, athleteID, gameID int64) (any, error)
}

// Deps are the collaborators of a Service. Only Normalizer is required.
type Deps struct {
	Normalizer *normalize.Normalizer
	Cache      cache.Store
	CacheTTL   time.Duration
	Fetcher    Fetcher
	Fixtures   *replay.Store
	Metrics    *telemetry.Metrics
	Logger     *slog.Logger
}

// Service serves normalized player data.
type Service struct {
	norm     *normalize.Normalizer
	cache    cache.Store
	ttl      time.Duration
	fetcher  Fetcher
	fixtures *replay.Store
	metrics  *telemetry.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Service.
func New(d Deps) *Service {
	if d.Cache == nil {
		d.Cache = cache.NewMemory(false)
	}
	if d.CacheTTL <= 0 {
		d.CacheTTL = cache.DefaultTTL
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return &Service{
		norm:     d.Normalizer,
		cache:    d.Cache,
		ttl:      d.CacheTTL,
		fetcher:  d.Fetcher,
		fixtures: d.Fixtures,
		metrics:  d.Metrics,
		logger:   d.Logger,
		now:      time.Now,
	}
}

// GamesResult is a normalized game window.
type GamesResult struct {
	Games        []provider.GameRecord `json:"games"`
	Warnings     []diag.Warning        `json:"warnings"`
	CacheHit     bool                  `json:"cache_hit"`
	TTLRemaining int                   `json:"ttl_remaining_s,omitempty"`
}

// LineupResult is one normalized lineup.
type LineupResult struct {
	Record       provider.GameRecord `json:"record"`
	Warnings     []diag.Warning      `json:"warnings"`
	CacheHit     bool                `json:"cache_hit"`
	TTLRemaining int                 `json:"ttl_remaining_s,omitempty"`
}

// cached envelopes keep normalization warnings next to the records so a cache
// hit reports the same gaps as the original fetch.
type cachedGames struct {
	Games    []provider.GameRecord `json:"games"`
	Warnings []diag.Warning        `json:"normalization_warnings"`
}

type cachedLineup struct {
	Record   provider.GameRecord `json:"record"`
	Warnings []diag.Warning      `json:"normalization_warnings"`
}

func gamesKey(mode Mode, athleteID int64, lastN int) string {
	return string(mode) + ":athlete_games:" + strconv.FormatInt(athleteID, 10) + ":last" + strconv.Itoa(lastN)
}

func lineupKey(mode Mode, athleteID, gameID int64) string {
	return string(mode) + ":lineup:" + strconv.FormatInt(athleteID, 10) + ":" + strconv.FormatInt(gameID, 10)
}

// AthleteGames returns the last lastN normalized games for an athlete. The
// result carries warnings even when err is non-nil.
func (s *Service) AthleteGames(ctx context.Context, req Request, athleteID int64, lastN int) (GamesResult, error) {
	res, err := s.games(ctx, req, athleteID, lastN)
	s.metrics.Warnings(res.Warnings...)
	return res, err
}

// GameLineup returns one athlete's normalized lineup record for a game.
func (s *Service) GameLineup(ctx context.Context, req Request, athleteID, gameID int64) (LineupResult, error) {
	res, err := s.lineup(ctx, req, athleteID, gameID)
	s.metrics.Warnings(res.Warnings...)
	return res, err
}

func (s *Service) games(ctx context.Context, req Request, athleteID int64, lastN int) (GamesResult, error) {
	if lastN <= 0 {
		lastN = DefaultLastN
	}
	mode := s.mode(req)
	key := gamesKey(mode, athleteID, lastN)

	var res GamesResult
	var entry cachedGames
	if hit, ttl, warns := s.fromCache(ctx, mode, key, &entry); hit {
		res = GamesResult{Games: entry.Games, CacheHit: true, TTLRemaining: ttl}
		res.Warnings = append(warns, entry.Warnings...)
		return withGameCount(res), nil
	}

	var raw any
	switch mode {
	case ModeReplay:
		data, name, err := s.loadFixture(func(f *replay.Store) (any, string, error) {
			return f.AthleteGames(athleteID, lastN)
		})
		if err != nil {
			res.Warnings = append(res.Warnings, fixtureMissing(name))
			return res, err
		}
		raw = data
		res.Warnings = append(res.Warnings, replayWarning(name, "fixture"))
	default:
		if !req.AllowLiveFetch {
			res.Warnings = append(res.Warnings, cacheOnly("game data"))
			return res, ErrCacheOnly
		}
		if s.fetcher == nil {
			return res, ErrNoUpstream
		}
		data, err := s.fetcher.AthleteGames(ctx, athleteID, lastN)
		if err != nil {
			return res, fmt.Errorf("fetch games for athlete %d: %w", athleteID, err)
		}
		raw = data
	}

	games, warns := s.norm.Games(raw)
	s.countUnknown(warns)
	s.store(ctx, key, cachedGames{Games: games, Warnings: warns})

	res.Games = games
	res.Warnings = append(res.Warnings, warns...)
	return withGameCount(res), nil
}

func withGameCount(res GamesResult) GamesResult {
	if n := len(res.Games); n < MinGames {
		res.Warnings = append(res.Warnings, diag.New(diag.CodeInsufficientGames,
			map[string]any{"games_found": n, "threshold": MinGames},
			"Only %d games available in the requested window.", n))
	}
	return res
}

func (s *Service) lineup(ctx context.Context, req Request, athleteID, gameID int64) (LineupResult, error) {
	mode := s.mode(req)
	key := lineupKey(mode, athleteID, gameID)

	var res LineupResult
	var entry cachedLineup
	if hit, ttl, warns := s.fromCache(ctx, mode, key, &entry); hit {
		res = LineupResult{Record: entry.Record, CacheHit: true, TTLRemaining: ttl}
		res.Warnings = append(warns, entry.Warnings...)
		return res, nil
	}

	var raw any
	switch mode {
	case ModeReplay:
		data, name, err := s.loadFixture(func(f *replay.Store) (any, string, error) {
			return f.GameLineup(athleteID, gameID)
		})
		if err != nil {
			res.Warnings = append(res.Warnings, fixtureMissing(name))
			return res, err
		}
		raw = data
		res.Warnings = append(res.Warnings, replayWarning(name, "fixture"))
	default:
		if !req.AllowLiveFetch {
			res.Warnings = append(res.Warnings, cacheOnly("lineup data"))
			return res, ErrCacheOnly
		}
		if s.fetcher == nil {
			return res, ErrNoUpstream
		}
		data, err := s.fetcher.GameLineup(ctx, athleteID, gameID)
		if err != nil {
			return res, fmt.Errorf("fetch lineup for athlete %d game %d: %w", athleteID, gameID, err)
		}
		raw = data
	}

	record, warns := s.norm.Lineup(raw)
	s.countUnknown(warns)
	s.store(ctx, key, cachedLineup{Record: record, Warnings: warns})

	res.Record = record
	res.Warnings = append(res.Warnings, warns...)
	return res, nil
}

func (s *Service) mode(req Request) Mode {
	if req.Mode == "" {
		return ModeLive
	}
	return req.Mode
}

// fromCache decodes a cached entry into dst. Undecodable entries are misses.
func (s *Service) fromCache(ctx context.Context, mode Mode, key string, dst any) (bool, int, []diag.Warning) {
	entry, ok := s.cache.Get(ctx, key)
	if ok {
		if err := json.Unmarshal(entry.Data, dst); err != nil {
			s.logger.Warn("discarding undecodable cache entry", "key", key, "error", err)
			ok = false
		}
	}
	s.metrics.CacheLookup(string(mode), ok)
	if !ok {
		return false, 0, nil
	}

	ttl := entry.TTLRemaining(s.now())
	var warns []diag.Warning
	if mode == ModeReplay {
		warns = append(warns, replayWarning("", "cache"))
	}
	warns = append(warns, diag.New(diag.CodeUsedCachedData,
		map[string]any{"ttl_remaining_s": ttl},
		"Using cached data (%ds remaining).", ttl))
	return true, ttl, warns
}

func (s *Service) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode cache entry", "key", key, "error", err)
		return
	}
	s.cache.Set(ctx, key, data, s.ttl)
}

func (s *Service) loadFixture(load func(*replay.Store) (any, string, error)) (any, string, error) {
	if s.fixtures == nil {
		return nil, "", fmt.Errorf("%w: no fixture directory configured", replay.ErrFixtureNotFound)
	}
	raw, name, err := load(s.fixtures)
	if err != nil {
		s.logger.Warn("replay fixture unavailable", "fixture", name, "dir", s.fixtures.Dir(), "error", err)
	}
	return raw, name, err
}

func (s *Service) countUnknown(warns []diag.Warning) {
	n := 0
	for _, w := range warns {
		if w.Code != diag.CodeNormalizationGap {
			continue
		}
		switch ids := w.Details["unknown_type_ids"].(type) {
		case []int:
			n += len(ids)
		default:
			n++
		}
	}
	s.metrics.UnknownTypeIDs(n)
}

func replayWarning(fixture, source string) diag.Warning {
	details := map[string]any{"source": source}
	if fixture != "" {
		details["fixture"] = fixture
	}
	return diag.New(diag.CodeDataModeReplay, details, "DATA_MODE=replay active. Using static fixtures.")
}

func fixtureMissing(name string) diag.Warning {
	return diag.New(diag.CodeDataModeReplay,
		map[string]any{"fixture": name, "source": "fixture"},
		"Fixture missing: %s", name)
}

func cacheOnly(what string) diag.Warning {
	return diag.New(diag.CodeCacheOnlyMode, nil,
		"allow_live_fetch=false; no cached %s available.", what)
}
