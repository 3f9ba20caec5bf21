// Package diag holds the diagnostic contract shared by every stage of a
// request: structured warnings, the two-tier operation result, and an
// accumulator that carries warnings across steps.
package diag

import "fmt"

// Warning codes emitted by the normalization and analytics core.
const (
	CodeMetricUnavailable   = "METRIC_UNAVAILABLE"
	CodeInsufficientMinutes = "INSUFFICIENT_MINUTES"
	CodeNormalizationGap    = "NORMALIZATION_GAP"
	CodeBaselineMissing     = "BASELINE_MISSING"
)

// Warning codes emitted by the data layer.
const (
	CodeUsedCachedData    = "USED_CACHED_DATA"
	CodeDataModeReplay    = "DATA_MODE_REPLAY"
	CodeCacheOnlyMode     = "CACHE_ONLY_MODE"
	CodeInsufficientGames = "INSUFFICIENT_GAMES"
)

// Warning is a non-fatal diagnostic. Code is machine readable; consumers
// must forward codes they do not recognize unchanged.
type Warning struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// New builds a warning with a formatted message.
func New(code string, details map[string]any, format string, args ...any) Warning {
	if details == nil {
		details = map[string]any{}
	}
	return Warning{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: details,
	}
}

func (w Warning) String() string {
	return w.Code + ": " + w.Message
}
