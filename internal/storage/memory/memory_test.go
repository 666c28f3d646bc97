package memory

import (
	"context"
	"testing"
	"time"

	"github.com/fdg312/lifeos/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// среда, 2026-10-14 10:00 UTC
var fixedNow = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

func newTestStorage() *MemoryStorage {
	m := New()
	m.SetClock(func() time.Time { return fixedNow }, time.UTC)
	return m
}

func TestLogSavedMealScalesByMultiplier(t *testing.T) {
	ctx := context.Background()
	m := newTestStorage()

	require.NoError(t, m.CreateSavedMeal(ctx, "u1", storage.SavedMealInput{
		Name: "Bowl", Calories: 600, ProteinG: 40, CarbsG: 60, FatG: 20,
	}))
	saved, err := m.ListSavedMeals(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, saved, 1)

	id, err := m.LogSavedMeal(ctx, "u1", saved[0].ID, "lunch", 1.5)
	require.NoError(t, err)
	assert.Positive(t, id)

	logs := m.GetMealsStorage().ListMealLogs("u1")
	require.Len(t, logs, 1)
	assert.Equal(t, "Bowl", logs[0].Description)
	assert.Equal(t, "lunch", logs[0].MealType)
	assert.InDelta(t, 900, logs[0].Calories, 1e-9)
	assert.InDelta(t, 60, logs[0].ProteinG, 1e-9)
	assert.Equal(t, "2026-10-14", logs[0].MealDate)
}

func TestLogSavedMealErrors(t *testing.T) {
	ctx := context.Background()
	m := newTestStorage()

	_, err := m.LogSavedMeal(ctx, "u1", "missing", "lunch", 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.LogSavedMeal(ctx, "u1", "x", "lunch", 0)
	assert.ErrorIs(t, err, ErrInvalidMultiplier)

	_, err = m.LogSavedMeal(ctx, "u1", " ", "lunch", 1)
	assert.Error(t, err)
}

func TestSavedMealsAreScopedAndSortedByName(t *testing.T) {
	ctx := context.Background()
	m := newTestStorage()

	for _, name := range []string{"Zucchini", "Apple", ""} {
		require.NoError(t, m.CreateSavedMeal(ctx, "u1", storage.SavedMealInput{Name: name}))
	}
	require.NoError(t, m.CreateSavedMeal(ctx, "u2", storage.SavedMealInput{Name: "Other"}))

	saved, err := m.ListSavedMeals(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, saved, 3)
	assert.Equal(t, "Apple", saved[0].Name)
	assert.Equal(t, "Saved meal", saved[1].Name)
	assert.Equal(t, "Zucchini", saved[2].Name)
	require.NotNil(t, saved[0].SodiumMg)
	assert.Zero(t, *saved[0].SodiumMg)
}

func TestTodayNutrition(t *testing.T) {
	ctx := context.Background()
	m := newTestStorage()

	row, err := m.GetTodayNutrition(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, row)

	goal := 2000.0
	m.GetBaselineStorage().SetNutritionGoal("u1", NutritionGoal{CalorieGoal: &goal})
	_, err = m.LogManualMeal(ctx, "u1", storage.ManualMealInput{Description: "A", Calories: 500, ProteinG: 30})
	require.NoError(t, err)
	m.GetMealsStorage().LogMealOn("u1", "2026-10-13", storage.ManualMealInput{Calories: 900})

	row, err = m.GetTodayNutrition(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.InDelta(t, 500, *row.Calories, 1e-9)
	assert.InDelta(t, 1500, *row.CaloriesRemaining, 1e-9)
	assert.Nil(t, row.ProteinRemaining)
}

func TestSignalsOrdering(t *testing.T) {
	ctx := context.Background()
	m := newTestStorage()
	b := m.GetBaselineStorage()

	early := fixedNow.Add(-2 * time.Hour)
	late := fixedNow.Add(-1 * time.Hour)
	b.AddSignal("u1", storage.LifeSignal{ID: "a", Score: 0.5, Severity: 1, DetectedAt: &early, IsActive: true})
	b.AddSignal("u1", storage.LifeSignal{ID: "b", Score: 0.5, Severity: 1, DetectedAt: &late, IsActive: true})
	b.AddSignal("u1", storage.LifeSignal{ID: "c", Score: 0.9, Severity: 0, IsActive: true})
	b.AddSignal("u1", storage.LifeSignal{ID: "d", Score: 0.5, Severity: 3, IsActive: false})
	b.AddSignal("u1", storage.LifeSignal{ID: "e", Score: 0.1, Severity: 0, IsActive: true})
	b.AddSignal("u1", storage.LifeSignal{ID: "f", Score: 0.5, Severity: 2, IsActive: true})

	top, err := m.ListTopActiveSignals(ctx, "u1", 4)
	require.NoError(t, err)
	ids := make([]string, 0, len(top))
	for _, s := range top {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"c", "f", "b", "a"}, ids)

	all, err := m.ListSignals(ctx, "u1", false)
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, "d", all[0].ID)

	active, err := m.ListSignals(ctx, "u1", true)
	require.NoError(t, err)
	assert.Len(t, active, 5)
}

func TestMicroTrends(t *testing.T) {
	ctx := context.Background()
	m := newTestStorage()

	row, err := m.GetMicroTrends(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, row)

	meals := m.GetMealsStorage()
	meals.LogMealOn("u1", "2026-10-14", storage.ManualMealInput{Calories: 2000, ProteinG: 100})
	meals.LogMealOn("u1", "2026-10-12", storage.ManualMealInput{Calories: 1000, ProteinG: 50})
	meals.LogMealOn("u1", "2026-10-05", storage.ManualMealInput{Calories: 1200, ProteinG: 60})

	row, err = m.GetMicroTrends(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.InDelta(t, 1500, *row.CaloriesAvg7d, 1e-9)
	assert.InDelta(t, 300, *row.CaloriesDeltaVsPrev7d, 1e-9)
	assert.InDelta(t, 15, *row.ProteinDeltaVsPrev7d, 1e-9)
	assert.Equal(t, 2, *row.NutritionDaysLogged7d)
	assert.Nil(t, row.SleepScoreAvg7d)
}

func TestRelationshipStatus(t *testing.T) {
	ctx := context.Background()
	m := newTestStorage()
	rel := m.GetRelationshipsStorage()

	weekly := rel.AddCommitment("u1", Commitment{Name: "Call Mom", Frequency: "weekly"})
	daily := rel.AddCommitment("u1", Commitment{Name: "Text sibling", Frequency: "daily"})
	monthly := rel.AddCommitment("u1", Commitment{Name: "Dinner", Frequency: "monthly"})

	rows, err := m.ListRelationshipStatus(ctx, "u1")
	require.NoError(t, err)
	byID := map[string]storage.RelationshipStatusRow{}
	for _, r := range rows {
		byID[r.CommitmentID] = r
	}
	assert.Equal(t, "2026-10-12", byID[weekly].PeriodStart)
	assert.Equal(t, "2026-10-18", byID[weekly].PeriodEnd)
	assert.Equal(t, 4, byID[weekly].DaysRemaining)
	assert.Equal(t, "unplanned", byID[weekly].Status)
	assert.Equal(t, "overdue", byID[daily].Status)
	assert.Equal(t, "2026-10-31", byID[monthly].PeriodEnd)

	require.NoError(t, m.InsertPlan(ctx, "u1", weekly, fixedNow.Add(48*time.Hour), nil))
	require.NoError(t, m.InsertEvent(ctx, "u1", monthly, fixedNow.Add(-time.Hour), nil))

	rows, err = m.ListRelationshipStatus(ctx, "u1")
	require.NoError(t, err)
	for _, r := range rows {
		byID[r.CommitmentID] = r
	}
	assert.Equal(t, "planned", byID[weekly].Status)
	require.NotNil(t, byID[weekly].PlannedFor)
	assert.Equal(t, "completed", byID[monthly].Status)
	assert.Equal(t, 1, byID[monthly].CompletedCount)

	n, err := m.DeactivateActivePlans(ctx, "u1", weekly)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, rel.ActivePlanCount("u1", weekly))
}

func TestReportsScopedByOwner(t *testing.T) {
	ctx := context.Background()
	m := newTestStorage()
	reports := m.GetReportsStorage()

	require.NoError(t, reports.CreateReport(ctx, &storage.ReportMeta{OwnerUserID: "u1", Format: "csv"}))
	require.NoError(t, reports.CreateReport(ctx, &storage.ReportMeta{OwnerUserID: "u2", Format: "pdf"}))

	list, err := reports.ListReports(ctx, "u1", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "csv", list[0].Format)

	got, err := reports.GetReport(ctx, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", got.OwnerUserID)

	require.NoError(t, reports.DeleteReport(ctx, got.ID))
	_, err = reports.GetReport(ctx, got.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeedDemo(t *testing.T) {
	ctx := context.Background()
	m := NewSeeded("owner")

	saved, err := m.ListSavedMeals(ctx, "owner")
	require.NoError(t, err)
	assert.Len(t, saved, 2)

	rows, err := m.ListRelationshipStatus(ctx, "owner")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	top, err := m.ListTopActiveSignals(ctx, "owner", 4)
	require.NoError(t, err)
	assert.Len(t, top, 2)
}
