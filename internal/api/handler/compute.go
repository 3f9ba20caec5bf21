package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/albapepper/footiq/internal/api/respond"
	"github.com/albapepper/footiq/internal/baseline"
	"github.com/albapepper/footiq/internal/diag"
	"github.com/albapepper/footiq/internal/metric"
	"github.com/albapepper/footiq/internal/provider"
)

const maxComputeBody = 1 << 20

// ComputeRequest is the body of POST /compute/{operation}. Games are
// canonical records as returned by the player endpoints. Per90 is only
// read by zscore.
type ComputeRequest struct {
	Metric   string                `json:"metric"`
	Games    []provider.GameRecord `json:"games"`
	Window   int                   `json:"window,omitempty"`
	Per90    metric.Value          `json:"per90"`
	League   string                `json:"league,omitempty"`
	Season   string                `json:"season,omitempty"`
	Position string                `json:"position,omitempty"`
}

// ComputeResponse wraps an analytics Result.
type ComputeResponse struct {
	Operation      string `json:"operation"`
	Metric         string `json:"metric"`
	Interpretation string `json:"interpretation,omitempty"`
	diag.Result
}

// Compute runs one analytics operation over caller-supplied records.
// @Summary Run an analytics operation
// @Description Runs per90, derived, form or zscore. Operations that cannot run return 422 with the failure reason as the error code; degraded results return 200 with warnings.
// @Tags compute
// @Accept json
// @Produce json
// @Param operation path string true "Operation" Enums(per90, derived, form, zscore)
// @Param body body ComputeRequest true "Records and parameters"
// @Success 200 {object} ComputeResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Failure 422 {object} respond.ErrorResponse
// @Router /compute/{operation} [post]
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	op := chi.URLParam(r, "operation")

	var body ComputeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxComputeBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be a JSON compute request", err.Error())
		return
	}
	if body.Metric == "" {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_METRIC", "metric is required")
		return
	}

	resp := ComputeResponse{Operation: op, Metric: body.Metric}
	switch op {
	case "per90":
		resp.Result = h.agg.Per90(body.Games, body.Metric)
	case "derived":
		resp.Result = h.agg.Derived(body.Games, body.Metric)
	case "form":
		resp.Result = h.agg.Form(body.Games, body.Metric, body.Window)
	case "zscore":
		pop := baseline.Population{League: body.League, Season: body.Season, Position: body.Position}
		resp.Result = h.cmp.ZScore(body.Per90, body.Metric, pop)
		if resp.OK() && !hasWarning(resp.Warnings, diag.CodeBaselineMissing) {
			resp.Interpretation = baseline.Interpret(resp.Value)
		}
	default:
		respond.WriteError(w, http.StatusNotFound, "UNKNOWN_OPERATION", "operation must be one of per90, derived, form, zscore")
		return
	}

	if resp.Warnings == nil {
		resp.Warnings = []diag.Warning{}
	}
	if resp.Failure != nil {
		respond.WriteFailure(w, resp.Failure, resp.Warnings)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, resp)
}

func hasWarning(ws []diag.Warning, code string) bool {
	for _, w := range ws {
		if w.Code == code {
			return true
		}
	}
	return false
}
