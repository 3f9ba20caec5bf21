package metric

// Canonical keys referenced by the aggregation formulas.
const (
	KeyRating            = "rating"
	KeyGoals             = "goals"
	KeyAssists           = "assists"
	KeyMinutesPlayed     = "minutes_played"
	KeyYellowCards       = "yellow_cards"
	KeyRedCards          = "red_cards"
	KeyExpectedGoals     = "expected_goals"
	KeyShotsTotal        = "shots_total"
	KeyShotsOnTarget     = "shots_on_target"
	KeyTouchesInBox      = "touches_in_box"
	KeyKeyPasses         = "key_passes"
	KeyTacklesWon        = "tackles_won"
	KeyShotAccuracy      = "shot_accuracy"
	KeyGoalInvolvement   = "goal_involvement"
	KeyXGOverperformance = "xg_overperformance"
	KeyMinutesPerGoal    = "minutes_per_goal"
)

// Per90MinMinutes is the minimum accumulated minutes for a per-90 rate.
const Per90MinMinutes = 90

func typeID(id int) *int { return &id }

// DefaultDefinitions returns the production metric table.
//
// Fallback ids cover the newer athleteStats payloads, which report
// minutes/goals/assists/rating under different type ids.
func DefaultDefinitions() []Definition {
	return []Definition{
		// L1: always available in game summaries.
		{
			Key: KeyRating, DisplayName: "Match Rating", Unit: "0-10 scale",
			TypeID: typeID(10), FallbackTypeIDs: []int{0},
			Kind: KindReal, Tier: Tier1, Missing: Missing, Per90: Per90NotApplicable,
		},
		{
			Key: KeyGoals, DisplayName: "Goals", Unit: "count",
			TypeID: typeID(21), FallbackTypeIDs: []int{225},
			Kind: KindInteger, Tier: Tier1, Missing: TrueZero, Per90: Per90ByMinutes,
		},
		{
			Key: KeyAssists, DisplayName: "Assists", Unit: "count",
			TypeID: typeID(22), FallbackTypeIDs: []int{226},
			Kind: KindInteger, Tier: Tier1, Missing: TrueZero, Per90: Per90ByMinutes,
		},
		{
			Key: KeyMinutesPlayed, DisplayName: "Minutes Played", Unit: "minutes",
			TypeID: typeID(11), FallbackTypeIDs: []int{229},
			Kind: KindInteger, Tier: Tier1, Missing: TrueZero, Per90: Per90NotApplicable,
		},
		{
			Key: KeyYellowCards, DisplayName: "Yellow Cards", Unit: "count",
			TypeID: typeID(14),
			Kind:   KindInteger, Tier: Tier1, Missing: TrueZero, Per90: Per90ByMinutes,
		},
		{
			Key: KeyRedCards, DisplayName: "Red Cards", Unit: "count",
			TypeID: typeID(15),
			Kind:   KindInteger, Tier: Tier1, Missing: TrueZero, Per90: Per90ByMinutes,
		},

		// L2: detailed lineups only.
		{
			Key: KeyExpectedGoals, DisplayName: "Expected Goals (xG)", Unit: "xG",
			TypeID: typeID(42),
			Kind:   KindReal, Tier: Tier2, Missing: Missing, Per90: Per90ByMinutes,
		},
		{
			Key: KeyShotsTotal, DisplayName: "Total Shots", Unit: "count",
			TypeID: typeID(56),
			Kind:   KindInteger, Tier: Tier2, Missing: Missing, Per90: Per90ByMinutes,
		},
		{
			Key: KeyShotsOnTarget, DisplayName: "Shots on Target", Unit: "count",
			TypeID: typeID(57),
			Kind:   KindInteger, Tier: Tier2, Missing: Missing, Per90: Per90ByMinutes,
		},
		{
			Key: KeyTouchesInBox, DisplayName: "Touches in Penalty Box", Unit: "count",
			TypeID: typeID(55),
			Kind:   KindInteger, Tier: Tier2, Missing: Missing, Per90: Per90ByMinutes,
		},
		{
			Key: KeyKeyPasses, DisplayName: "Key Passes", Unit: "count",
			TypeID: typeID(45),
			Kind:   KindInteger, Tier: Tier2, Missing: Missing, Per90: Per90ByMinutes,
		},
		{
			Key: KeyTacklesWon, DisplayName: "Tackles Won", Unit: "count",
			TypeID: typeID(78),
			Kind:   KindInteger, Tier: Tier2, Missing: Missing, Per90: Per90ByMinutes,
		},

		// Derived.
		{
			Key: KeyShotAccuracy, DisplayName: "Shot Accuracy", Unit: "%",
			Kind: KindPercentage, Missing: Missing, Per90: Per90WeightedRatio,
			Derived: true, Inputs: []string{KeyShotsOnTarget, KeyShotsTotal},
			Formula: FormulaWeightedRatio,
		},
		{
			Key: KeyGoalInvolvement, DisplayName: "Goal Involvement", Unit: "count",
			Kind: KindInteger, Missing: TrueZero, Per90: Per90ByMinutes,
			Derived: true, Inputs: []string{KeyGoals, KeyAssists},
			Formula: FormulaAdditive,
		},
		{
			Key: KeyXGOverperformance, DisplayName: "xG Overperformance", Unit: "goals - xG",
			Kind: KindReal, Missing: Missing, Per90: Per90NotApplicable,
			Derived: true, Inputs: []string{KeyGoals, KeyExpectedGoals},
			Formula: FormulaDifference,
		},
		{
			Key: KeyMinutesPerGoal, DisplayName: "Minutes per Goal", Unit: "minutes",
			Kind: KindReal, Missing: Missing, Per90: Per90NotApplicable,
			Derived: true, Inputs: []string{KeyMinutesPlayed, KeyGoals},
			Formula: FormulaRatioOfSums,
		},
	}
}

// Default builds the production registry.
func Default() *Registry {
	r, err := NewRegistry(DefaultDefinitions()...)
	if err != nil {
		// The built-in table is covered by tests; failing here is a programming error.
		panic("metric: invalid default registry: " + err.Error())
	}
	return r
}
