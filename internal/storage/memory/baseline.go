package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/fdg312/lifeos/internal/storage"
	"github.com/google/uuid"
)

// NutritionGoal: строка nutrition_goals
type NutritionGoal struct {
	CalorieGoal  *float64
	ProteinGoalG *float64
}

// BaselineMemoryStorage: nutrition_goals, cashflow_accounts, life_signals
// и вычисление v_today_nutrition_home / v_micro_trends_home поверх meal_logs.
type BaselineMemoryStorage struct {
	parent *MemoryStorage

	mu       sync.RWMutex
	goals    map[string]NutritionGoal
	cashflow map[string]storage.CashflowProjectionRow
	signals  map[string][]storage.LifeSignal
}

func newBaselineMemoryStorage(parent *MemoryStorage) *BaselineMemoryStorage {
	return &BaselineMemoryStorage{
		parent:   parent,
		goals:    make(map[string]NutritionGoal),
		cashflow: make(map[string]storage.CashflowProjectionRow),
		signals:  make(map[string][]storage.LifeSignal),
	}
}

func (s *BaselineMemoryStorage) SetNutritionGoal(userID string, goal NutritionGoal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[userID] = goal
}

func (s *BaselineMemoryStorage) SetCashflow(userID string, row storage.CashflowProjectionRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cashflow[userID] = row
}

// AddSignal добавляет life_signal; пустой ID генерируется
func (s *BaselineMemoryStorage) AddSignal(userID string, sig storage.LifeSignal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sig.ID == "" {
		sig.ID = uuid.NewString()
	}
	s.signals[userID] = append(s.signals[userID], sig)
}

func (s *BaselineMemoryStorage) GetTodayNutrition(ctx context.Context, userID string) (*storage.TodayNutritionRow, error) {
	today := s.parent.today()

	var calories, protein float64
	logged := false
	for _, row := range s.parent.meals.ListMealLogs(userID) {
		if row.MealDate != today {
			continue
		}
		logged = true
		calories += row.Calories
		protein += row.ProteinG
	}

	s.mu.RLock()
	goal, hasGoal := s.goals[userID]
	s.mu.RUnlock()

	if !logged && !hasGoal {
		return nil, nil
	}

	row := &storage.TodayNutritionRow{
		UserID:       userID,
		MealDate:     &today,
		Calories:     ptr(calories),
		ProteinG:     ptr(protein),
		CalorieGoal:  goal.CalorieGoal,
		ProteinGoalG: goal.ProteinGoalG,
	}
	if goal.CalorieGoal != nil {
		row.CaloriesRemaining = ptr(*goal.CalorieGoal - calories)
	}
	if goal.ProteinGoalG != nil {
		row.ProteinRemaining = ptr(*goal.ProteinGoalG - protein)
	}
	return row, nil
}

func (s *BaselineMemoryStorage) GetCashflowProjection7d(ctx context.Context, userID string) (*storage.CashflowProjectionRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.cashflow[userID]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (s *BaselineMemoryStorage) ListTopActiveSignals(ctx context.Context, userID string, limit int) ([]storage.LifeSignal, error) {
	out := s.copySignals(userID, true)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Severity != out[j].Severity {
			return out[i].Severity > out[j].Severity
		}
		return detectedAfter(out[i].DetectedAt, out[j].DetectedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *BaselineMemoryStorage) ListSignals(ctx context.Context, userID string, activeOnly bool) ([]storage.LifeSignal, error) {
	out := s.copySignals(userID, activeOnly)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return out[i].Severity > out[j].Severity
		}
		return detectedAfter(out[i].DetectedAt, out[j].DetectedAt)
	})
	return out, nil
}

func (s *BaselineMemoryStorage) copySignals(userID string, activeOnly bool) []storage.LifeSignal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]storage.LifeSignal, 0, len(s.signals[userID]))
	for _, sig := range s.signals[userID] {
		if activeOnly && !sig.IsActive {
			continue
		}
		out = append(out, sig)
	}
	return out
}

// detectedAfter: NULL detected_at сортируется последним
func detectedAfter(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.After(*b)
}

// GetMicroTrends считает только питание; тренировки, сон и финансы
// живут в других доменах и здесь остаются NULL.
func (s *BaselineMemoryStorage) GetMicroTrends(ctx context.Context, userID string) (*storage.MicroTrendsRow, error) {
	logs := s.parent.meals.ListMealLogs(userID)
	if len(logs) == 0 {
		return nil, nil
	}

	now, loc := s.parent.clock()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	type dayTotals struct{ calories, protein float64 }
	cur := map[string]*dayTotals{}
	prev := map[string]*dayTotals{}

	for _, row := range logs {
		day, err := time.ParseInLocation("2006-01-02", row.MealDate, loc)
		if err != nil {
			continue
		}
		age := int(math.Round(today.Sub(day).Hours() / 24))
		var bucket map[string]*dayTotals
		switch {
		case age >= 0 && age < 7:
			bucket = cur
		case age >= 7 && age < 14:
			bucket = prev
		default:
			continue
		}
		t, ok := bucket[row.MealDate]
		if !ok {
			t = &dayTotals{}
			bucket[row.MealDate] = t
		}
		t.calories += row.Calories
		t.protein += row.ProteinG
	}

	avg := func(bucket map[string]*dayTotals, pick func(*dayTotals) float64) *float64 {
		if len(bucket) == 0 {
			return nil
		}
		var sum float64
		for _, t := range bucket {
			sum += pick(t)
		}
		return ptr(sum / float64(len(bucket)))
	}
	delta := func(a, b *float64) *float64 {
		if a == nil || b == nil {
			return nil
		}
		return ptr(*a - *b)
	}

	cals := func(t *dayTotals) float64 { return t.calories }
	prot := func(t *dayTotals) float64 { return t.protein }

	days := len(cur)
	row := &storage.MicroTrendsRow{
		UserID:                userID,
		CaloriesAvg7d:         avg(cur, cals),
		ProteinAvg7d:          avg(cur, prot),
		NutritionDaysLogged7d: &days,
	}
	row.CaloriesDeltaVsPrev7d = delta(row.CaloriesAvg7d, avg(prev, cals))
	row.ProteinDeltaVsPrev7d = delta(row.ProteinAvg7d, avg(prev, prot))
	return row, nil
}
