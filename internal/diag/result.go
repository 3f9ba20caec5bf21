package diag

import (
	"fmt"

	"github.com/albapepper/footiq/internal/metric"
)

// Failure reasons. A failure means the operation could not run at all,
// which is different from running and producing an absent value.
const (
	ReasonUnknownMetric      = "unknown_metric"
	ReasonNotDerived         = "not_derived"
	ReasonPer90NotApplicable = "per90_not_applicable"
	ReasonNoFormula          = "no_formula"
	ReasonMissingInput       = "missing_input"
)

// Failure is a terminal error for one analytics operation.
type Failure struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

func (f *Failure) Error() string {
	return f.Reason + ": " + f.Message
}

// Fail builds a failed Result.
func Fail(reason, format string, args ...any) Result {
	return Result{Failure: &Failure{Reason: reason, Message: fmt.Sprintf(format, args...)}}
}

// Result is the output of one aggregation or comparison.
//
// Series and Labels are only populated by trend operations and always have
// equal length. Warnings never contain nil entries.
type Result struct {
	Value    metric.Value   `json:"value"`
	Series   []metric.Value `json:"series,omitempty"`
	Labels   []string       `json:"labels,omitempty"`
	Warnings []Warning      `json:"warnings"`
	Failure  *Failure       `json:"failure,omitempty"`
}

// OK reports whether the operation ran; the value may still be absent.
func (r Result) OK() bool { return r.Failure == nil }

// Err returns the failure as an error, or nil.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}

// Warn appends a warning.
func (r *Result) Warn(w Warning) {
	r.Warnings = append(r.Warnings, w)
}
