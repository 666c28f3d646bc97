package memory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fdg312/lifeos/internal/storage"
)

// SeedDemo заполняет хранилище демо-данными, чтобы API было видно без Postgres
func (m *MemoryStorage) SeedDemo(userID string) {
	ctx := context.Background()
	now, _ := m.clock()

	m.baseline.SetNutritionGoal(userID, NutritionGoal{
		CalorieGoal:  ptr(2200),
		ProteinGoalG: ptr(150),
	})
	m.baseline.SetCashflow(userID, storage.CashflowProjectionRow{
		CurrentBalance:     ptr(4250.00),
		ProjectedBalance7d: ptr(3610.50),
	})

	detected := now.Add(-6 * time.Hour)
	older := now.Add(-30 * time.Hour)
	facts := "Protein under 100 g on 4 of the last 7 days"
	rec := "Add a protein-forward breakfast"
	m.baseline.AddSignal(userID, storage.LifeSignal{
		SignalKey:      "nutrition.protein_low",
		Domain:         "nutrition",
		Severity:       2,
		Score:          0.82,
		Title:          "Protein is trending low",
		Message:        "You are averaging well below your protein goal this week.",
		Facts:          &facts,
		Recommendation: &rec,
		Evidence:       json.RawMessage(`{"days_below":4,"window_days":7}`),
		DetectedAt:     &detected,
		IsActive:       true,
	})
	m.baseline.AddSignal(userID, storage.LifeSignal{
		SignalKey:  "cashflow.dip",
		Domain:     "finance",
		Severity:   1,
		Score:      0.55,
		Title:      "Balance dips next week",
		Message:    "Projected balance drops by about 640 over the next 7 days.",
		Evidence:   json.RawMessage(`{}`),
		DetectedAt: &older,
		IsActive:   true,
	})
	m.baseline.AddSignal(userID, storage.LifeSignal{
		SignalKey: "sleep.short",
		Domain:    "sleep",
		Severity:  1,
		Score:     0.30,
		Title:     "Short sleep streak ended",
		Message:   "Three nights in a row above 7 hours.",
		Evidence:  json.RawMessage(`{}`),
		IsActive:  false,
	})

	oats := "Rolled oats, whey, blueberries"
	_ = m.meals.CreateSavedMeal(ctx, userID, storage.SavedMealInput{
		Name:        "Protein oats",
		Description: &oats,
		Calories:    480,
		ProteinG:    38,
		CarbsG:      58,
		FatG:        10,
		FiberG:      8,
		SugarG:      14,
		SodiumMg:    180,
	})
	_ = m.meals.CreateSavedMeal(ctx, userID, storage.SavedMealInput{
		Name:     "Chicken rice bowl",
		Calories: 650,
		ProteinG: 45,
		CarbsG:   70,
		FatG:     18,
		SodiumMg: 820,
	})

	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	m.meals.LogMealOn(userID, yesterday, storage.ManualMealInput{
		Description: "Greek yogurt",
		MealType:    "breakfast",
		Calories:    220,
		ProteinG:    20,
		CarbsG:      18,
		FatG:        6,
	})

	family := "family"
	m.relationships.AddCommitment(userID, Commitment{
		Name:        "Call Mom",
		Category:    &family,
		Frequency:   "weekly",
		TargetCount: 1,
	})
	friends := "friends"
	m.relationships.AddCommitment(userID, Commitment{
		Name:        "Dinner with friends",
		Category:    &friends,
		Frequency:   "monthly",
		TargetCount: 1,
	})
}
