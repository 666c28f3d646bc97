package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fdg312/lifeos/internal/storage"
)

var (
	ErrNotFound = storage.ErrNotFound
)

// ErrInvalidMultiplier: log_saved_meal с multiplier <= 0
var ErrInvalidMultiplier = errors.New("Invalid multiplier")

// MemoryStorage: in-memory реализация storage.Storage.
// Вычисляемые представления (v_*) считаются на лету из сырых таблиц.
type MemoryStorage struct {
	mu  sync.RWMutex
	now func() time.Time
	loc *time.Location

	meals         *MealsMemoryStorage
	baseline      *BaselineMemoryStorage
	relationships *RelationshipsMemoryStorage
	reports       *ReportsMemoryStorage
}

// New создаёт пустой MemoryStorage
func New() *MemoryStorage {
	m := &MemoryStorage{
		now: time.Now,
		loc: time.UTC,
	}
	m.meals = newMealsMemoryStorage(m)
	m.baseline = newBaselineMemoryStorage(m)
	m.relationships = newRelationshipsMemoryStorage(m)
	m.reports = NewReportsMemoryStorage()
	return m
}

// NewSeeded создаёт MemoryStorage с демо-данными для userID
func NewSeeded(userID string) *MemoryStorage {
	m := New()
	m.SeedDemo(userID)
	return m
}

// SetClock подменяет часы и часовой пояс "сегодня" (для тестов и APP_TIME_ZONE)
func (m *MemoryStorage) SetClock(now func() time.Time, loc *time.Location) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if now != nil {
		m.now = now
	}
	if loc != nil {
		m.loc = loc
	}
}

func (m *MemoryStorage) clock() (time.Time, *time.Location) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.now().In(m.loc), m.loc
}

func (m *MemoryStorage) today() string {
	now, _ := m.clock()
	return now.Format("2006-01-02")
}

func (m *MemoryStorage) Close() error {
	// no-op для memory
	return nil
}

// MealsStorage methods - делегируем к встроенному meals storage

func (m *MemoryStorage) LogManualMeal(ctx context.Context, userID string, in storage.ManualMealInput) (int64, error) {
	return m.meals.LogManualMeal(ctx, userID, in)
}

func (m *MemoryStorage) LogSavedMeal(ctx context.Context, userID string, savedMealID string, mealType string, multiplier float64) (int64, error) {
	return m.meals.LogSavedMeal(ctx, userID, savedMealID, mealType, multiplier)
}

func (m *MemoryStorage) CreateSavedMeal(ctx context.Context, userID string, in storage.SavedMealInput) error {
	return m.meals.CreateSavedMeal(ctx, userID, in)
}

func (m *MemoryStorage) ListSavedMeals(ctx context.Context, userID string) ([]storage.SavedMeal, error) {
	return m.meals.ListSavedMeals(ctx, userID)
}

// BaselineStorage methods

func (m *MemoryStorage) GetTodayNutrition(ctx context.Context, userID string) (*storage.TodayNutritionRow, error) {
	return m.baseline.GetTodayNutrition(ctx, userID)
}

func (m *MemoryStorage) GetCashflowProjection7d(ctx context.Context, userID string) (*storage.CashflowProjectionRow, error) {
	return m.baseline.GetCashflowProjection7d(ctx, userID)
}

func (m *MemoryStorage) ListTopActiveSignals(ctx context.Context, userID string, limit int) ([]storage.LifeSignal, error) {
	return m.baseline.ListTopActiveSignals(ctx, userID, limit)
}

func (m *MemoryStorage) ListSignals(ctx context.Context, userID string, activeOnly bool) ([]storage.LifeSignal, error) {
	return m.baseline.ListSignals(ctx, userID, activeOnly)
}

func (m *MemoryStorage) GetMicroTrends(ctx context.Context, userID string) (*storage.MicroTrendsRow, error) {
	return m.baseline.GetMicroTrends(ctx, userID)
}

// RelationshipsStorage methods

func (m *MemoryStorage) ListRelationshipStatus(ctx context.Context, userID string) ([]storage.RelationshipStatusRow, error) {
	return m.relationships.ListRelationshipStatus(ctx, userID)
}

func (m *MemoryStorage) CommitmentExists(ctx context.Context, userID, commitmentID string) (bool, error) {
	return m.relationships.CommitmentExists(ctx, userID, commitmentID)
}

func (m *MemoryStorage) DeactivateActivePlans(ctx context.Context, userID, commitmentID string) (int, error) {
	return m.relationships.DeactivateActivePlans(ctx, userID, commitmentID)
}

func (m *MemoryStorage) InsertPlan(ctx context.Context, userID, commitmentID string, plannedFor time.Time, notes *string) error {
	return m.relationships.InsertPlan(ctx, userID, commitmentID, plannedFor, notes)
}

func (m *MemoryStorage) InsertEvent(ctx context.Context, userID, commitmentID string, occurredAt time.Time, notes *string) error {
	return m.relationships.InsertEvent(ctx, userID, commitmentID, occurredAt, notes)
}

// Sub-storages

func (m *MemoryStorage) GetMealsStorage() *MealsMemoryStorage {
	return m.meals
}

func (m *MemoryStorage) GetBaselineStorage() *BaselineMemoryStorage {
	return m.baseline
}

func (m *MemoryStorage) GetRelationshipsStorage() *RelationshipsMemoryStorage {
	return m.relationships
}

func (m *MemoryStorage) GetReportsStorage() storage.ReportsStorage {
	return m.reports
}
