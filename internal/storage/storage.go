package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("not found")
)

// ManualMealInput: аргументы log_manual_meal
type ManualMealInput struct {
	Description string
	MealType    string
	Calories    float64
	ProteinG    float64
	CarbsG      float64
	FatG        float64
}

// SavedMealInput: аргументы create_saved_meal, все микро уже со значением по умолчанию 0
type SavedMealInput struct {
	Name          string
	Description   *string
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

// SavedMeal: строка v_saved_meals_home
type SavedMeal struct {
	ID            string
	Name          string
	Description   *string
	Calories      *float64
	ProteinG      *float64
	CarbsG        *float64
	FatG          *float64
	SaturatedFatG *float64
	FiberG        *float64
	SolubleFiberG *float64
	SugarG        *float64
	SodiumMg      *float64
	CreatedAt     *time.Time
	UpdatedAt     *time.Time
}

// MealsStorage: процедуры журнала питания и шаблоны блюд
type MealsStorage interface {
	// LogManualMeal вызывает log_manual_meal и возвращает id записи
	LogManualMeal(ctx context.Context, userID string, in ManualMealInput) (int64, error)

	// LogSavedMeal вызывает log_saved_meal (multiplier > 0) и возвращает id записи
	LogSavedMeal(ctx context.Context, userID string, savedMealID string, mealType string, multiplier float64) (int64, error)

	// CreateSavedMeal вызывает create_saved_meal
	CreateSavedMeal(ctx context.Context, userID string, in SavedMealInput) error

	// ListSavedMeals читает v_saved_meals_home, сортировка по name
	ListSavedMeals(ctx context.Context, userID string) ([]SavedMeal, error)
}

// TodayNutritionRow: строка v_today_nutrition_home
type TodayNutritionRow struct {
	UserID            string
	MealDate          *string
	Calories          *float64
	ProteinG          *float64
	CalorieGoal       *float64
	ProteinGoalG      *float64
	CaloriesRemaining *float64
	ProteinRemaining  *float64
}

// CashflowProjectionRow: строка v_cashflow_projection_7d
type CashflowProjectionRow struct {
	CurrentBalance     *float64
	ProjectedBalance7d *float64
}

// LifeSignal: строка life_signals / v_life_signals_*
type LifeSignal struct {
	ID             string
	SignalKey      string
	Domain         string
	Severity       int
	Score          float64
	Title          string
	Message        string
	Facts          *string
	Recommendation *string
	Evidence       json.RawMessage
	DetectedAt     *time.Time
	IsActive       bool
}

// MicroTrendsRow: строка v_micro_trends_home
type MicroTrendsRow struct {
	UserID                         string
	CaloriesAvg7d                  *float64
	CaloriesDeltaVsPrev7d          *float64
	ProteinAvg7d                   *float64
	ProteinDeltaVsPrev7d           *float64
	NutritionDaysLogged7d          *int
	TrainingMinutesThisWeek        *float64
	TrainingMinutesDeltaVsLastWeek *float64
	TrainingDaysThisWeek           *int
	SleepScoreAvg7d                *float64
	SleepScoreDeltaVsPrev7d        *float64
	MinProjectedBalance30d         *float64
	MinProjectedBalanceDay30d      *string
	NetWorthDelta30d               *float64
	NetWorthLastSnapshotDay        *string
}

// BaselineStorage: вычисляемые представления главной страницы.
// Отсутствие строки: (nil, nil).
type BaselineStorage interface {
	GetTodayNutrition(ctx context.Context, userID string) (*TodayNutritionRow, error)
	GetCashflowProjection7d(ctx context.Context, userID string) (*CashflowProjectionRow, error)

	// ListTopActiveSignals: is_active, score desc, severity desc, detected_at desc
	ListTopActiveSignals(ctx context.Context, userID string, limit int) ([]LifeSignal, error)

	// ListSignals: v_life_signals_active или v_life_signals_all, severity desc
	ListSignals(ctx context.Context, userID string, activeOnly bool) ([]LifeSignal, error)

	GetMicroTrends(ctx context.Context, userID string) (*MicroTrendsRow, error)
}

// RelationshipStatusRow: строка v_relationship_status
type RelationshipStatusRow struct {
	UserID         string
	CommitmentID   string
	Name           string
	Category       *string
	Frequency      string
	TargetCount    int
	Notes          *string
	PeriodStart    string
	PeriodEnd      string
	DaysRemaining  int
	CompletedCount int
	PlannedFor     *time.Time
	Status         string
}

type RelationshipsStorage interface {
	ListRelationshipStatus(ctx context.Context, userID string) ([]RelationshipStatusRow, error)
	CommitmentExists(ctx context.Context, userID, commitmentID string) (bool, error)

	// DeactivateActivePlans закрывает активные планы; возвращает количество закрытых
	DeactivateActivePlans(ctx context.Context, userID, commitmentID string) (int, error)
	InsertPlan(ctx context.Context, userID, commitmentID string, plannedFor time.Time, notes *string) error
	InsertEvent(ctx context.Context, userID, commitmentID string, occurredAt time.Time, notes *string) error
}

// ReportsStorage: интерфейс для работы с отчётами
type ReportsStorage interface {
	// CreateReport создаёт новый отчёт (metadata + optional data for local mode)
	CreateReport(ctx context.Context, report *ReportMeta) error

	// GetReport возвращает отчёт по ID
	GetReport(ctx context.Context, id uuid.UUID) (*ReportMeta, error)

	// ListReports возвращает отчёты пользователя, новые первыми
	ListReports(ctx context.Context, ownerUserID string, limit, offset int) ([]ReportMeta, error)

	// DeleteReport удаляет отчёт (metadata и данные)
	DeleteReport(ctx context.Context, id uuid.UUID) error
}

// ReportMeta: метаданные отчёта
type ReportMeta struct {
	ID          uuid.UUID
	OwnerUserID string
	Format      string  // "pdf" or "csv"
	SnapshotDay string  // YYYY-MM-DD
	ObjectKey   *string // S3 object key (NULL for local mode)
	SizeBytes   int64
	Status      string // "ready" or "failed"
	Error       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Data        []byte // local mode only
}

// Storage: всё, что нужно серверу
type Storage interface {
	MealsStorage
	BaselineStorage
	RelationshipsStorage

	// Close закрывает соединение (для Postgres)
	Close() error
}
