package baseline

import (
	"context"
	"errors"
	"fmt"

	"github.com/fdg312/lifeos/internal/logger"
	"github.com/fdg312/lifeos/internal/storage"
)

const homeSignalsLimit = 4

const (
	ScopeActive = "active"
	ScopeAll    = "all"
)

var ErrInvalidScope = errors.New("invalid scope")

type Service struct {
	storage storage.BaselineStorage
	log     logger.Logger
}

func NewService(baselineStorage storage.BaselineStorage, log logger.Logger) *Service {
	return &Service{storage: baselineStorage, log: log}
}

// Home собирает главную. Сбой сигналов не роняет страницу: пустой список и запись в лог.
func (s *Service) Home(ctx context.Context, userID string) (*HomeResponse, error) {
	nutrition, err := s.storage.GetTodayNutrition(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("v_today_nutrition_home: %w", err)
	}
	cashflow, err := s.storage.GetCashflowProjection7d(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("v_cashflow_projection_7d: %w", err)
	}
	trends, err := s.storage.GetMicroTrends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("v_micro_trends_home: %w", err)
	}

	signals, err := s.storage.ListTopActiveSignals(ctx, userID, homeSignalsLimit)
	if err != nil {
		s.log.Error("baseline", "active life signals read failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		signals = nil
	}

	return &HomeResponse{
		Nutrition:   toNutritionDTO(nutrition),
		Cashflow:    toCashflowDTO(cashflow),
		Signals:     toSignalDTOs(signals),
		MicroTrends: toMicroTrendsDTO(trends),
	}, nil
}

func (s *Service) Signals(ctx context.Context, userID, scope string) (*SignalsResponse, error) {
	if scope == "" {
		scope = ScopeActive
	}
	if scope != ScopeActive && scope != ScopeAll {
		return nil, ErrInvalidScope
	}

	rows, err := s.storage.ListSignals(ctx, userID, scope == ScopeActive)
	if err != nil {
		return nil, err
	}
	return &SignalsResponse{Scope: scope, Signals: toSignalDTOs(rows)}, nil
}

func toNutritionDTO(row *storage.TodayNutritionRow) *NutritionDTO {
	if row == nil {
		return nil
	}
	dto := &NutritionDTO{
		MealDate:          row.MealDate,
		Calories:          row.Calories,
		ProteinG:          row.ProteinG,
		CalorieGoal:       row.CalorieGoal,
		ProteinGoalG:      row.ProteinGoalG,
		CaloriesRemaining: row.CaloriesRemaining,
		ProteinRemaining:  row.ProteinRemaining,
	}
	if dto.CaloriesRemaining == nil {
		dto.CaloriesRemaining = remaining(row.CalorieGoal, row.Calories)
	}
	if dto.ProteinRemaining == nil {
		dto.ProteinRemaining = remaining(row.ProteinGoalG, row.ProteinG)
	}
	return dto
}

// remaining = goal - consumed; без цели: nil
func remaining(goal, consumed *float64) *float64 {
	if goal == nil {
		return nil
	}
	v := *goal
	if consumed != nil {
		v -= *consumed
	}
	return &v
}

func toCashflowDTO(row *storage.CashflowProjectionRow) *CashflowDTO {
	if row == nil {
		return nil
	}
	dto := &CashflowDTO{
		CurrentBalance:     row.CurrentBalance,
		ProjectedBalance7d: row.ProjectedBalance7d,
	}
	if row.CurrentBalance != nil && row.ProjectedBalance7d != nil {
		d := *row.ProjectedBalance7d - *row.CurrentBalance
		dto.Delta7d = &d
	}
	return dto
}

func toSignalDTOs(rows []storage.LifeSignal) []SignalDTO {
	out := make([]SignalDTO, 0, len(rows))
	for _, r := range rows {
		evidence := r.Evidence
		if len(evidence) == 0 {
			evidence = []byte("null")
		}
		out = append(out, SignalDTO{
			ID:             r.ID,
			SignalKey:      r.SignalKey,
			Domain:         r.Domain,
			Severity:       r.Severity,
			Score:          r.Score,
			Title:          r.Title,
			Message:        r.Message,
			Facts:          r.Facts,
			Recommendation: r.Recommendation,
			Evidence:       evidence,
			DetectedAt:     r.DetectedAt,
			IsActive:       r.IsActive,
		})
	}
	return out
}

func toMicroTrendsDTO(row *storage.MicroTrendsRow) *MicroTrendsDTO {
	if row == nil {
		return nil
	}
	return &MicroTrendsDTO{
		CaloriesAvg7d:                  row.CaloriesAvg7d,
		CaloriesDeltaVsPrev7d:          row.CaloriesDeltaVsPrev7d,
		ProteinAvg7d:                   row.ProteinAvg7d,
		ProteinDeltaVsPrev7d:           row.ProteinDeltaVsPrev7d,
		NutritionDaysLogged7d:          row.NutritionDaysLogged7d,
		TrainingMinutesThisWeek:        row.TrainingMinutesThisWeek,
		TrainingMinutesDeltaVsLastWeek: row.TrainingMinutesDeltaVsLastWeek,
		TrainingDaysThisWeek:           row.TrainingDaysThisWeek,
		SleepScoreAvg7d:                row.SleepScoreAvg7d,
		SleepScoreDeltaVsPrev7d:        row.SleepScoreDeltaVsPrev7d,
		MinProjectedBalance30d:         row.MinProjectedBalance30d,
		MinProjectedBalanceDay30d:      row.MinProjectedBalanceDay30d,
		NetWorthDelta30d:               row.NetWorthDelta30d,
		NetWorthLastSnapshotDay:        row.NetWorthLastSnapshotDay,
	}
}
