package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/fdg312/lifeos/internal/storage"
	"github.com/google/uuid"
)

// MealLog: строка meal_logs
type MealLog struct {
	ID          int64
	UserID      string
	MealDate    string
	MealType    string
	Description string
	Calories    float64
	ProteinG    float64
	CarbsG      float64
	FatG        float64
	SavedMealID *string
}

// MealsMemoryStorage: meal_logs и saved_meals
type MealsMemoryStorage struct {
	parent *MemoryStorage

	mu     sync.RWMutex
	nextID int64
	logs   []MealLog
	saved  map[string]map[string]storage.SavedMeal // user -> id -> meal
}

func newMealsMemoryStorage(parent *MemoryStorage) *MealsMemoryStorage {
	return &MealsMemoryStorage{
		parent: parent,
		nextID: 1000,
		saved:  make(map[string]map[string]storage.SavedMeal),
	}
}

func (s *MealsMemoryStorage) LogManualMeal(ctx context.Context, userID string, in storage.ManualMealInput) (int64, error) {
	return s.LogMealOn(userID, s.parent.today(), in), nil
}

// LogMealOn добавляет запись в meal_logs на конкретный день
func (s *MealsMemoryStorage) LogMealOn(userID, day string, in storage.ManualMealInput) int64 {
	return s.insert(MealLog{
		UserID:      userID,
		MealDate:    day,
		MealType:    in.MealType,
		Description: in.Description,
		Calories:    in.Calories,
		ProteinG:    in.ProteinG,
		CarbsG:      in.CarbsG,
		FatG:        in.FatG,
	})
}

func (s *MealsMemoryStorage) insert(row MealLog) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	row.ID = s.nextID
	s.logs = append(s.logs, row)
	return row.ID
}

func (s *MealsMemoryStorage) LogSavedMeal(ctx context.Context, userID string, savedMealID string, mealType string, multiplier float64) (int64, error) {
	if strings.TrimSpace(savedMealID) == "" {
		return 0, errors.New("Missing saved_meal_id")
	}
	if multiplier <= 0 {
		return 0, ErrInvalidMultiplier
	}

	s.mu.RLock()
	meal, ok := s.saved[userID][savedMealID]
	s.mu.RUnlock()
	if !ok {
		return 0, ErrNotFound
	}

	id := savedMealID
	return s.insert(MealLog{
		UserID:      userID,
		MealDate:    s.parent.today(),
		MealType:    mealType,
		Description: meal.Name,
		Calories:    deref(meal.Calories) * multiplier,
		ProteinG:    deref(meal.ProteinG) * multiplier,
		CarbsG:      deref(meal.CarbsG) * multiplier,
		FatG:        deref(meal.FatG) * multiplier,
		SavedMealID: &id,
	}), nil
}

func (s *MealsMemoryStorage) CreateSavedMeal(ctx context.Context, userID string, in storage.SavedMealInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Saved meal"
	}

	now, _ := s.parent.clock()
	meal := storage.SavedMeal{
		ID:            uuid.NewString(),
		Name:          name,
		Description:   in.Description,
		Calories:      ptr(in.Calories),
		ProteinG:      ptr(in.ProteinG),
		CarbsG:        ptr(in.CarbsG),
		FatG:          ptr(in.FatG),
		SaturatedFatG: ptr(in.SaturatedFatG),
		FiberG:        ptr(in.FiberG),
		SolubleFiberG: ptr(in.SolubleFiberG),
		SugarG:        ptr(in.SugarG),
		SodiumMg:      ptr(in.SodiumMg),
		CreatedAt:     &now,
		UpdatedAt:     &now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saved[userID] == nil {
		s.saved[userID] = make(map[string]storage.SavedMeal)
	}
	s.saved[userID][meal.ID] = meal
	return nil
}

func (s *MealsMemoryStorage) ListSavedMeals(ctx context.Context, userID string) ([]storage.SavedMeal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]storage.SavedMeal, 0, len(s.saved[userID]))
	for _, meal := range s.saved[userID] {
		out = append(out, meal)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// ListMealLogs возвращает записи пользователя в порядке вставки
func (s *MealsMemoryStorage) ListMealLogs(userID string) []MealLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []MealLog
	for _, row := range s.logs {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out
}

func ptr(v float64) *float64 {
	return &v
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
