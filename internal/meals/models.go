package meals

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
	Snack     MealType = "snack"
)

var mealTypes = []MealType{Breakfast, Lunch, Dinner, Snack}

// AsMealType never rejects: anything unknown is a snack.
func AsMealType(raw string) MealType {
	v := MealType(strings.ToLower(strings.TrimSpace(raw)))
	for _, t := range mealTypes {
		if v == t {
			return t
		}
	}
	return Snack
}

func (t MealType) String() string {
	return string(t)
}

// MealItem is one identified food in a proposal. Informational only.
type MealItem struct {
	Name         string  `json:"name"`
	QuantityText string  `json:"quantity_text"`
	Calories     float64 `json:"calories"`
	ProteinG     float64 `json:"protein_g"`
	CarbsG       float64 `json:"carbs_g"`
	FatG         float64 `json:"fat_g"`
	Confidence   float64 `json:"confidence"`
}

// MealTotals is the only part of a proposal that gets persisted.
type MealTotals struct {
	Calories      float64  `json:"calories"`
	ProteinG      float64  `json:"protein_g"`
	CarbsG        float64  `json:"carbs_g"`
	FatG          float64  `json:"fat_g"`
	SaturatedFatG *float64 `json:"saturated_fat_g,omitempty"`
	FiberG        *float64 `json:"fiber_g,omitempty"`
	SolubleFiberG *float64 `json:"soluble_fiber_g,omitempty"`
	SugarG        *float64 `json:"sugar_g,omitempty"`
	SodiumMg      *float64 `json:"sodium_mg,omitempty"`
}

type MealProposal struct {
	Description        string     `json:"description"`
	Items              []MealItem `json:"items"`
	Totals             MealTotals `json:"totals"`
	Assumptions        []string   `json:"assumptions"`
	Confidence         float64    `json:"confidence"`
	NeedsClarification bool       `json:"needs_clarification"`
}

// Nutrients is the full macro/micro set with absent values defaulted to 0.
type Nutrients struct {
	Calories      float64
	ProteinG      float64
	CarbsG        float64
	FatG          float64
	SaturatedFatG float64
	FiberG        float64
	SolubleFiberG float64
	SugarG        float64
	SodiumMg      float64
}

func (t MealTotals) Nutrients() Nutrients {
	return Nutrients{
		Calories:      t.Calories,
		ProteinG:      t.ProteinG,
		CarbsG:        t.CarbsG,
		FatG:          t.FatG,
		SaturatedFatG: valueOrZero(t.SaturatedFatG),
		FiberG:        valueOrZero(t.FiberG),
		SolubleFiberG: valueOrZero(t.SolubleFiberG),
		SugarG:        valueOrZero(t.SugarG),
		SodiumMg:      valueOrZero(t.SodiumMg),
	}
}

// Summary renders "Calories 320 • P 18g • C 30g • F 12g".
func (t MealTotals) Summary() string {
	return strings.Join([]string{
		fmt.Sprintf("Calories %d", int64(math.Round(t.Calories))),
		"P " + formatGrams(t.ProteinG),
		"C " + formatGrams(t.CarbsG),
		"F " + formatGrams(t.FatG),
	}, " • ")
}

// Label renders "320 calories".
func (t MealTotals) Label() string {
	return fmt.Sprintf("%d calories", int64(math.Round(t.Calories)))
}

// Sanitize clamps provider output into the shape the rest of the app assumes.
func (p *MealProposal) Sanitize() {
	p.Description = strings.TrimSpace(p.Description)
	if p.Description == "" {
		p.Description = "Meal"
	}
	p.Confidence = ClampUnit(p.Confidence)
	for i := range p.Items {
		item := &p.Items[i]
		item.Name = strings.TrimSpace(item.Name)
		item.Calories = nonNegative(item.Calories)
		item.ProteinG = nonNegative(item.ProteinG)
		item.CarbsG = nonNegative(item.CarbsG)
		item.FatG = nonNegative(item.FatG)
		item.Confidence = ClampUnit(item.Confidence)
	}
	if p.Items == nil {
		p.Items = []MealItem{}
	}
	if p.Assumptions == nil {
		p.Assumptions = []string{}
	}

	t := &p.Totals
	t.Calories = nonNegative(t.Calories)
	t.ProteinG = nonNegative(t.ProteinG)
	t.CarbsG = nonNegative(t.CarbsG)
	t.FatG = nonNegative(t.FatG)
	for _, f := range []**float64{&t.SaturatedFatG, &t.FiberG, &t.SolubleFiberG, &t.SugarG, &t.SodiumMg} {
		if *f != nil {
			v := nonNegative(**f)
			*f = &v
		}
	}
}

func ClampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ConfidencePercent renders a confidence as "85%".
func ConfidencePercent(v float64) string {
	return fmt.Sprintf("%d%%", int64(math.Round(ClampUnit(v)*100)))
}

func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func formatGrams(v float64) string {
	return strconv.FormatFloat(Round1(v), 'f', -1, 64) + "g"
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}
