package meals

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsMealType(t *testing.T) {
	assert.Equal(t, Breakfast, AsMealType("breakfast"))
	assert.Equal(t, Lunch, AsMealType(" LUNCH "))
	assert.Equal(t, Dinner, AsMealType("dinner"))
	assert.Equal(t, Snack, AsMealType("snack"))
	assert.Equal(t, Snack, AsMealType(""))
	assert.Equal(t, Snack, AsMealType("brunch"))
}

func TestTotalsNutrientsDefaultsMicrosToZero(t *testing.T) {
	fiber := 4.5
	totals := MealTotals{Calories: 320, ProteinG: 18, CarbsG: 30, FatG: 12, FiberG: &fiber}

	n := totals.Nutrients()
	assert.Equal(t, 320.0, n.Calories)
	assert.Equal(t, 18.0, n.ProteinG)
	assert.Equal(t, 30.0, n.CarbsG)
	assert.Equal(t, 12.0, n.FatG)
	assert.Equal(t, 4.5, n.FiberG)
	assert.Zero(t, n.SaturatedFatG)
	assert.Zero(t, n.SolubleFiberG)
	assert.Zero(t, n.SugarG)
	assert.Zero(t, n.SodiumMg)
}

func TestTotalsSummary(t *testing.T) {
	totals := MealTotals{Calories: 319.6, ProteinG: 18.04, CarbsG: 30.25, FatG: 12}
	assert.Equal(t, "Calories 320 • P 18g • C 30.3g • F 12g", totals.Summary())
	assert.Equal(t, "320 calories", totals.Label())
}

func TestTotalsOmitAbsentMicrosInJSON(t *testing.T) {
	data, err := json.Marshal(MealTotals{Calories: 100})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sodium_mg")
	assert.Contains(t, string(data), `"calories":100`)
}

func TestSanitize(t *testing.T) {
	sugar := -2.0
	p := MealProposal{
		Description: "  ",
		Items:       []MealItem{{Name: " taco ", Calories: -5, Confidence: 1.7}},
		Totals:      MealTotals{Calories: math.NaN(), ProteinG: 3, SugarG: &sugar},
		Confidence:  -0.2,
	}
	p.Sanitize()

	assert.Equal(t, "Meal", p.Description)
	assert.Equal(t, "taco", p.Items[0].Name)
	assert.Zero(t, p.Items[0].Calories)
	assert.Equal(t, 1.0, p.Items[0].Confidence)
	assert.Zero(t, p.Totals.Calories)
	require.NotNil(t, p.Totals.SugarG)
	assert.Zero(t, *p.Totals.SugarG)
	assert.Zero(t, p.Confidence)
	assert.NotNil(t, p.Assumptions)
}

func TestConfidencePercent(t *testing.T) {
	assert.Equal(t, "85%", ConfidencePercent(0.849))
	assert.Equal(t, "100%", ConfidencePercent(3))
	assert.Equal(t, "0%", ConfidencePercent(-1))
}
