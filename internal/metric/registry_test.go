package metric_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/footiq/internal/metric"
)

func ptr(i int) *int { return &i }

func TestDefault_Invariants(t *testing.T) {
	reg := metric.Default()

	seen := map[int]string{}
	for _, d := range reg.Raw() {
		require.NotNil(t, d.TypeID, d.Key)
		assert.NotEqual(t, metric.TierNone, d.Tier, d.Key)
		for _, id := range d.LookupIDs() {
			owner, dup := seen[id]
			assert.False(t, dup, "type id %d shared by %s and %s", id, owner, d.Key)
			seen[id] = d.Key
			assert.True(t, reg.IsKnownTypeID(id))
		}
	}

	for _, d := range reg.Derived() {
		assert.Nil(t, d.TypeID, d.Key)
		assert.NotEmpty(t, d.Inputs, d.Key)
		assert.NotEqual(t, metric.FormulaNone, d.Formula, d.Key)
	}

	assert.Len(t, reg.All(), 16)
	assert.False(t, reg.IsKnownTypeID(999))
}

func TestRegistry_Tiers(t *testing.T) {
	reg := metric.Default()

	keys := func(defs []metric.Definition) []string {
		out := make([]string, len(defs))
		for i, d := range defs {
			out[i] = d.Key
		}
		return out
	}

	assert.Equal(t, []string{"rating", "goals", "assists", "minutes_played", "yellow_cards", "red_cards"},
		keys(reg.ByTier(metric.Tier1)))
	assert.Equal(t, []string{"expected_goals", "shots_total", "shots_on_target", "touches_in_box", "key_passes", "tackles_won"},
		keys(reg.ByTier(metric.Tier2)))
	assert.Len(t, reg.ByTier(metric.Tier1, metric.Tier2), 12)
}

func TestRegistry_ReturnsCopies(t *testing.T) {
	reg := metric.Default()

	d, ok := reg.Lookup(metric.KeyShotAccuracy)
	require.True(t, ok)
	d.Inputs[0] = "tampered"

	again, _ := reg.Lookup(metric.KeyShotAccuracy)
	assert.Equal(t, metric.KeyShotsOnTarget, again.Inputs[0])

	g, _ := reg.Lookup(metric.KeyGoals)
	*g.TypeID = 1
	g2, _ := reg.Lookup(metric.KeyGoals)
	assert.Equal(t, 21, *g2.TypeID)
}

func TestNewRegistry_RejectsInvalidTables(t *testing.T) {
	raw := func(key string, id int) metric.Definition {
		return metric.Definition{Key: key, TypeID: ptr(id), Tier: metric.Tier1}
	}

	tests := []struct {
		name string
		defs []metric.Definition
	}{
		{"empty key", []metric.Definition{raw("", 1)}},
		{"duplicate key", []metric.Definition{raw("a", 1), raw("a", 2)}},
		{"raw without type id", []metric.Definition{{Key: "a", Tier: metric.Tier1}}},
		{"raw without tier", []metric.Definition{{Key: "a", TypeID: ptr(1)}}},
		{"duplicate type id", []metric.Definition{raw("a", 1), raw("b", 1)}},
		{"fallback collides", []metric.Definition{
			raw("a", 1),
			{Key: "b", TypeID: ptr(2), FallbackTypeIDs: []int{1}, Tier: metric.Tier1},
		}},
		{"derived with type id", []metric.Definition{
			raw("a", 1),
			{Key: "d", TypeID: ptr(3), Derived: true, Inputs: []string{"a"}, Formula: metric.FormulaAdditive},
		}},
		{"derived without inputs", []metric.Definition{
			{Key: "d", Derived: true, Formula: metric.FormulaAdditive},
		}},
		{"derived without formula", []metric.Definition{
			raw("a", 1),
			{Key: "d", Derived: true, Inputs: []string{"a"}},
		}},
		{"ratio with one input", []metric.Definition{
			raw("a", 1),
			{Key: "d", Derived: true, Inputs: []string{"a"}, Formula: metric.FormulaRatioOfSums},
		}},
		{"unknown input", []metric.Definition{
			{Key: "d", Derived: true, Inputs: []string{"ghost"}, Formula: metric.FormulaAdditive},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := metric.NewRegistry(tt.defs...)
			assert.Error(t, err)
		})
	}
}

func TestValue_JSON(t *testing.T) {
	data, err := json.Marshal(map[string]metric.Value{"a": metric.Of(1.5), "b": metric.Absent()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1.5,"b":null}`, string(data))

	var back map[string]metric.Value
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, metric.Of(1.5), back["a"])
	assert.False(t, back["b"].IsPresent())
}

func TestValue_ZeroIsNotAbsent(t *testing.T) {
	var zero metric.Value
	assert.False(t, zero.IsPresent())
	assert.True(t, metric.Of(0).IsPresent())
	assert.NotEqual(t, metric.Absent(), metric.Of(0))
	assert.Equal(t, 0.0, metric.Absent().OrZero())
}
