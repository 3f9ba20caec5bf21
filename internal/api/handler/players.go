package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/footiq/internal/api/respond"
	"github.com/albapepper/footiq/internal/baseline"
	"github.com/albapepper/footiq/internal/cache"
	"github.com/albapepper/footiq/internal/diag"
	"github.com/albapepper/footiq/internal/playerdata"
	"github.com/albapepper/footiq/internal/provider/sportapi"
	"github.com/albapepper/footiq/internal/replay"
)

type definitionJSON struct {
	Key         string   `json:"key"`
	DisplayName string   `json:"display_name"`
	Unit        string   `json:"unit"`
	Kind        string   `json:"kind"`
	Tier        string   `json:"tier,omitempty"`
	TypeID      *int     `json:"type_id,omitempty"`
	Fallbacks   []int    `json:"fallback_type_ids,omitempty"`
	Missing     string   `json:"missing_policy"`
	Per90       string   `json:"per90"`
	Derived     bool     `json:"derived"`
	Inputs      []string `json:"inputs,omitempty"`
	Formula     string   `json:"formula,omitempty"`
}

// GetMetricDefinitions returns the metric registry.
// @Summary List metric definitions
// @Description Returns every metric the engine knows, raw and derived, in registry order.
// @Tags metrics
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /metrics/definitions [get]
func (h *Handler) GetMetricDefinitions(w http.ResponseWriter, r *http.Request) {
	defs := h.reg.All()
	out := make([]definitionJSON, len(defs))
	for i, d := range defs {
		out[i] = definitionJSON{
			Key: d.Key, DisplayName: d.DisplayName, Unit: d.Unit,
			Kind: d.Kind.String(), Tier: d.Tier.String(),
			TypeID: d.TypeID, Fallbacks: d.FallbackTypeIDs,
			Missing: d.Missing.String(), Per90: d.Per90.String(),
			Derived: d.Derived, Inputs: d.Inputs,
		}
		if d.Derived {
			out[i].Formula = d.Formula.String()
		}
	}
	h.writeCacheable(w, r, map[string]interface{}{"count": len(out), "metrics": out}, false)
}

// GetPlayerGames returns the normalized recent games for a player.
// @Summary Get recent games
// @Description Returns the last N games with Tier1 metrics, plus data-quality warnings.
// @Tags players
// @Produce json
// @Param athleteID path int true "Athlete ID"
// @Param last_n query int false "Game window (default 5)"
// @Param mode query string false "Data mode" Enums(live, replay)
// @Param allow_live_fetch query bool false "Allow upstream calls on cache miss"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /players/{athleteID}/games [get]
func (h *Handler) GetPlayerGames(w http.ResponseWriter, r *http.Request) {
	athleteID, ok := pathID(w, r, "athleteID")
	if !ok {
		return
	}
	req, ok := h.dataRequest(w, r)
	if !ok {
		return
	}
	lastN, ok := queryInt(w, r, "last_n", h.cfg.DefaultGameWindow)
	if !ok {
		return
	}

	res, err := h.players.AthleteGames(r.Context(), req, athleteID, lastN)
	if err != nil {
		h.writeDataError(w, err, res.Warnings)
		return
	}
	h.writeCacheable(w, r, res, res.CacheHit)
}

// GetPlayerLineup returns one detailed lineup record.
// @Summary Get game lineup
// @Description Returns Tier1 and Tier2 metrics for one athlete in one game.
// @Tags players
// @Produce json
// @Param athleteID path int true "Athlete ID"
// @Param gameID path int true "Game ID"
// @Param mode query string false "Data mode" Enums(live, replay)
// @Param allow_live_fetch query bool false "Allow upstream calls on cache miss"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /players/{athleteID}/games/{gameID}/lineup [get]
func (h *Handler) GetPlayerLineup(w http.ResponseWriter, r *http.Request) {
	athleteID, ok := pathID(w, r, "athleteID")
	if !ok {
		return
	}
	gameID, ok := pathID(w, r, "gameID")
	if !ok {
		return
	}
	req, ok := h.dataRequest(w, r)
	if !ok {
		return
	}

	res, err := h.players.GameLineup(r.Context(), req, athleteID, gameID)
	if err != nil {
		h.writeDataError(w, err, res.Warnings)
		return
	}
	h.writeCacheable(w, r, res, res.CacheHit)
}

// GetPlayerAnalysis runs the full analysis pipeline for one metric.
// @Summary Analyze a metric
// @Description Per-90 or derived value, z-score against the league baseline, interpretation and form series.
// @Tags players
// @Produce json
// @Param athleteID path int true "Athlete ID"
// @Param metric query string true "Metric key"
// @Param last_n query int false "Game window (default 5)"
// @Param window query int false "Form window (default 5)"
// @Param league query string false "Baseline league"
// @Param season query string false "Baseline season"
// @Param position query string false "Baseline position group"
// @Param mode query string false "Data mode" Enums(live, replay)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 422 {object} respond.ErrorResponse
// @Router /players/{athleteID}/analysis [get]
func (h *Handler) GetPlayerAnalysis(w http.ResponseWriter, r *http.Request) {
	athleteID, ok := pathID(w, r, "athleteID")
	if !ok {
		return
	}
	q := r.URL.Query()
	metricKey := q.Get("metric")
	if metricKey == "" {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_METRIC", "metric query parameter is required")
		return
	}
	req, ok := h.dataRequest(w, r)
	if !ok {
		return
	}
	lastN, ok := queryInt(w, r, "last_n", h.cfg.DefaultGameWindow)
	if !ok {
		return
	}
	window, ok := queryInt(w, r, "window", 0)
	if !ok {
		return
	}

	out, err := h.analyzer.Analyze(r.Context(), req, playerdata.AnalyzeParams{
		AthleteID:  athleteID,
		Metric:     metricKey,
		LastN:      lastN,
		FormWindow: window,
		Population: baseline.Population{
			League:   q.Get("league"),
			Season:   q.Get("season"),
			Position: q.Get("position"),
		},
	})
	if err != nil {
		h.writeDataError(w, err, out.Warnings)
		return
	}
	if out.Failure != nil {
		respond.WriteFailure(w, out.Failure, out.Warnings)
		return
	}
	h.writeCacheable(w, r, out, out.CacheHit)
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

func (h *Handler) dataRequest(w http.ResponseWriter, r *http.Request) (playerdata.Request, bool) {
	q := r.URL.Query()
	modeStr := q.Get("mode")
	if modeStr == "" {
		modeStr = h.cfg.DataMode
	}
	mode, err := playerdata.ParseMode(modeStr)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_MODE", err.Error())
		return playerdata.Request{}, false
	}

	allow := h.cfg.AllowLiveFetch
	if s := q.Get("allow_live_fetch"); s != "" {
		allow, err = strconv.ParseBool(s)
		if err != nil {
			respond.WriteError(w, http.StatusBadRequest, "INVALID_PARAM", "allow_live_fetch must be a boolean")
			return playerdata.Request{}, false
		}
	}
	return playerdata.Request{Mode: mode, AllowLiveFetch: allow}, true
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_ID", name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

func queryInt(w http.ResponseWriter, r *http.Request, name string, fallback int) (int, bool) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 50 {
		respond.WriteError(w, http.StatusBadRequest, "INVALID_PARAM", fmt.Sprintf("%s must be an integer between 1 and 50", name))
		return 0, false
	}
	return n, true
}

// writeCacheable marshals v, sets an ETag and honours If-None-Match.
func (h *Handler) writeCacheable(w http.ResponseWriter, r *http.Request, v any, cacheHit bool) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("encode response", "path", r.URL.Path, "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_FAILED", "Failed to encode response")
		return
	}
	etag := cache.ComputeETag(data)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, h.cfg.CacheTTL, cacheHit)
}

// writeDataError maps data source errors to HTTP statuses.
func (h *Handler) writeDataError(w http.ResponseWriter, err error, warnings []diag.Warning) {
	var failure *diag.Failure
	var status *sportapi.StatusError

	switch {
	case errors.As(err, &failure):
		respond.WriteFailure(w, failure, warnings)
	case errors.Is(err, playerdata.ErrCacheOnly):
		respond.WriteErrorWarnings(w, http.StatusServiceUnavailable, diag.CodeCacheOnlyMode, err.Error(), warnings)
	case errors.Is(err, replay.ErrFixtureNotFound):
		respond.WriteErrorWarnings(w, http.StatusNotFound, "FIXTURE_NOT_FOUND", err.Error(), warnings)
	case errors.Is(err, playerdata.ErrNoGames):
		respond.WriteErrorWarnings(w, http.StatusNotFound, "INSUFFICIENT_DATA", err.Error(), warnings)
	case errors.Is(err, sportapi.ErrUnavailable), errors.Is(err, playerdata.ErrNoUpstream):
		respond.WriteErrorWarnings(w, http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", err.Error(), warnings)
	case errors.As(err, &status) && status.Status == http.StatusNotFound:
		respond.WriteErrorWarnings(w, http.StatusNotFound, "NOT_FOUND", "Upstream has no data for this request", warnings)
	default:
		h.logger.Error("player data request failed", "error", err)
		respond.WriteErrorWarnings(w, http.StatusBadGateway, "UPSTREAM_DOWN", err.Error(), warnings)
	}
}
