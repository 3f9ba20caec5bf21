package diag_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/footiq/internal/diag"
	"github.com/albapepper/footiq/internal/metric"
)

func TestFail_IsDistinctFromAbsent(t *testing.T) {
	failed := diag.Fail(diag.ReasonUnknownMetric, "Unknown metric: %s", "nope")
	absent := diag.Result{Value: metric.Absent()}

	assert.False(t, failed.OK())
	assert.True(t, absent.OK())
	assert.False(t, failed.Value.IsPresent())

	var f *diag.Failure
	require.True(t, errors.As(failed.Err(), &f))
	assert.Equal(t, diag.ReasonUnknownMetric, f.Reason)
	assert.Equal(t, "unknown_metric: Unknown metric: nope", f.Error())
	assert.NoError(t, absent.Err())
}

func TestWarning_JSONShape(t *testing.T) {
	w := diag.New(diag.CodeInsufficientMinutes, map[string]any{"total_minutes": 45, "threshold": 90},
		"Total minutes (%d) below threshold (%d).", 45, 90)

	data, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"code": "INSUFFICIENT_MINUTES",
		"message": "Total minutes (45) below threshold (90).",
		"details": {"total_minutes": 45, "threshold": 90}
	}`, string(data))

	empty := diag.New("SOMETHING_NEW", nil, "x")
	assert.NotNil(t, empty.Details)
}

func TestLog_AccumulatesInOrder(t *testing.T) {
	var log diag.Log
	assert.Equal(t, "warnings=0", log.Summary())
	assert.NotNil(t, log.Warnings())

	log.Add(diag.New(diag.CodeNormalizationGap, nil, "a"))
	r := log.AddResult(diag.Result{Warnings: []diag.Warning{
		diag.New(diag.CodeMetricUnavailable, nil, "b"),
		diag.New(diag.CodeMetricUnavailable, nil, "c"),
	}})
	log.Add()

	assert.Len(t, r.Warnings, 2)
	require.Equal(t, 3, log.Len())
	got := log.Warnings()
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].Message, got[1].Message, got[2].Message})
	assert.True(t, log.Has(diag.CodeMetricUnavailable))
	assert.False(t, log.Has(diag.CodeBaselineMissing))
	assert.Equal(t, "METRIC_UNAVAILABLE=2 NORMALIZATION_GAP=1", log.Summary())
}

func TestLog_ConcurrentAdd(t *testing.T) {
	var log diag.Log
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Add(diag.New(diag.CodeUsedCachedData, nil, "hit"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, log.Len())
}
