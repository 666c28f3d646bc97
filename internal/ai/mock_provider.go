package ai

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fdg312/lifeos/internal/meals"
)

// MockProposer: детерминированная оценка по словарю продуктов, без сети
type MockProposer struct{}

func NewMockProposer() *MockProposer {
	return &MockProposer{}
}

type foodEntry struct {
	name     string
	keywords []string
	calories float64
	protein  float64
	carbs    float64
	fat      float64
}

// значения на одну порцию; многословные ключи раньше однословных
var foodTable = []foodEntry{
	{"chicken breast", []string{"chicken breast"}, 165, 31, 0, 3.6},
	{"protein shake", []string{"protein shake", "shake"}, 160, 30, 5, 2},
	{"pizza slice", []string{"pizza"}, 285, 12, 36, 10},
	{"taco", []string{"taco"}, 160, 9, 15, 6},
	{"burrito", []string{"burrito"}, 600, 25, 70, 22},
	{"burger", []string{"burger", "cheeseburger"}, 550, 30, 40, 30},
	{"sandwich", []string{"sandwich"}, 400, 20, 40, 15},
	{"egg", []string{"egg"}, 72, 6.3, 0.4, 4.8},
	{"banana", []string{"banana"}, 105, 1.3, 27, 0.4},
	{"apple", []string{"apple"}, 95, 0.5, 25, 0.3},
	{"avocado", []string{"avocado"}, 240, 3, 13, 22},
	{"toast", []string{"toast", "bread"}, 80, 3, 14, 1},
	{"oatmeal", []string{"oatmeal", "oats"}, 150, 5, 27, 3},
	{"rice", []string{"rice"}, 205, 4.3, 45, 0.4},
	{"greek yogurt", []string{"yogurt", "yoghurt"}, 150, 15, 10, 5},
	{"salad", []string{"salad"}, 150, 3, 10, 10},
	{"latte", []string{"latte", "cappuccino"}, 190, 10, 18, 7},
	{"coffee", []string{"coffee", "espresso"}, 5, 0.3, 0, 0},
}

var (
	chunkSplitter = regexp.MustCompile(`(?i)\s*(?:,|\+|\n|;|\band\b|\bwith\b)\s*`)
	leadingNumber = regexp.MustCompile(`^(\d+(?:\.\d+)?)(?:/(\d+))?`)
)

var wordQuantities = map[string]float64{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "half": 0.5, "couple": 2,
}

func (p *MockProposer) ProposeMeal(ctx context.Context, req ProposeRequest) (*meals.MealProposal, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return &meals.MealProposal{
			Description: "Meal photo",
			Items: []meals.MealItem{{
				Name:         "Plated meal",
				QuantityText: "1 plate",
				Calories:     500,
				ProteinG:     25,
				CarbsG:       50,
				FatG:         20,
				Confidence:   0.4,
			}},
			Totals:             meals.MealTotals{Calories: 500, ProteinG: 25, CarbsG: 50, FatG: 20},
			Assumptions:        []string{"Estimated from the photo only; one standard plate."},
			Confidence:         0.4,
			NeedsClarification: true,
		}, nil
	}

	proposal := &meals.MealProposal{
		Description: capitalize(text),
		Assumptions: []string{},
		Confidence:  1,
	}

	for _, chunk := range chunkSplitter.Split(text, -1) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		item, known := estimateChunk(chunk)
		if !known {
			proposal.NeedsClarification = true
			proposal.Assumptions = append(proposal.Assumptions, "Unrecognized item \""+chunk+"\" estimated as a generic portion.")
		}
		proposal.Items = append(proposal.Items, item)
		proposal.Totals.Calories += item.Calories
		proposal.Totals.ProteinG += item.ProteinG
		proposal.Totals.CarbsG += item.CarbsG
		proposal.Totals.FatG += item.FatG
		proposal.Confidence = math.Min(proposal.Confidence, item.Confidence)
	}

	proposal.Totals.Calories = round2(proposal.Totals.Calories)
	proposal.Totals.ProteinG = round2(proposal.Totals.ProteinG)
	proposal.Totals.CarbsG = round2(proposal.Totals.CarbsG)
	proposal.Totals.FatG = round2(proposal.Totals.FatG)

	if req.ImageDataURL != "" {
		proposal.Assumptions = append(proposal.Assumptions, "Photo attached; estimate is based on the text.")
	}

	return proposal, nil
}

func estimateChunk(chunk string) (meals.MealItem, bool) {
	lower := strings.ToLower(chunk)
	qty, qtyText := parseQuantity(lower)

	for _, food := range foodTable {
		for _, kw := range food.keywords {
			if !strings.Contains(lower, kw) {
				continue
			}
			return meals.MealItem{
				Name:         food.name,
				QuantityText: qtyText,
				Calories:     round2(food.calories * qty),
				ProteinG:     round2(food.protein * qty),
				CarbsG:       round2(food.carbs * qty),
				FatG:         round2(food.fat * qty),
				Confidence:   0.8,
			}, true
		}
	}

	return meals.MealItem{
		Name:         chunk,
		QuantityText: qtyText,
		Calories:     round2(250 * qty),
		ProteinG:     round2(10 * qty),
		CarbsG:       round2(30 * qty),
		FatG:         round2(10 * qty),
		Confidence:   0.3,
	}, false
}

// parseQuantity: "2", "1.5", "1/2", "two", "a"; по умолчанию 1
func parseQuantity(lower string) (float64, string) {
	if m := leadingNumber.FindStringSubmatch(lower); m != nil {
		n, err := strconv.ParseFloat(m[1], 64)
		if err == nil && n > 0 {
			if m[2] != "" {
				d, err := strconv.ParseFloat(m[2], 64)
				if err == nil && d > 0 {
					n /= d
				}
			}
			return n, m[0]
		}
	}

	first, _, _ := strings.Cut(lower, " ")
	if q, ok := wordQuantities[first]; ok {
		return q, first
	}
	return 1, "1"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
