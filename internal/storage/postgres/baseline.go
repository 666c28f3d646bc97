package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/fdg312/lifeos/internal/storage"
	"github.com/jackc/pgx/v5"
)

const (
	sqlTodayNutrition = `
		SELECT user_id, meal_date::text, calories, protein_g, calorie_goal, protein_goal_g,
		       calories_remaining, protein_remaining
		FROM v_today_nutrition_home
		WHERE user_id = $1
		LIMIT 1`

	sqlCashflowProjection = `
		SELECT current_balance, projected_balance_7d
		FROM v_cashflow_projection_7d
		WHERE user_id = $1
		LIMIT 1`

	signalColumns = `id::text, signal_key, domain, severity, score, title, message,
		       facts, recommendation, evidence, detected_at, is_active`

	sqlTopActiveSignals = `
		SELECT ` + signalColumns + `
		FROM v_life_signals_active
		WHERE user_id = $1
		ORDER BY score DESC, severity DESC, detected_at DESC NULLS LAST
		LIMIT $2`

	sqlSignalsActive = `
		SELECT ` + signalColumns + `
		FROM v_life_signals_active
		WHERE user_id = $1
		ORDER BY severity DESC, detected_at DESC NULLS LAST`

	sqlSignalsAll = `
		SELECT ` + signalColumns + `
		FROM v_life_signals_all
		WHERE user_id = $1
		ORDER BY severity DESC, detected_at DESC NULLS LAST`

	sqlMicroTrends = `
		SELECT user_id, calories_avg_7d, calories_delta_vs_prev_7d, protein_avg_7d,
		       protein_delta_vs_prev_7d, nutrition_days_logged_7d,
		       training_minutes_this_week, training_minutes_delta_vs_last_week, training_days_this_week,
		       sleep_score_avg_7d, sleep_score_delta_vs_prev_7d,
		       min_projected_balance_30d, min_projected_balance_day_30d::text,
		       net_worth_delta_30d, net_worth_last_snapshot_day::text
		FROM v_micro_trends_home
		WHERE user_id = $1
		LIMIT 1`
)

func (p *PostgresStorage) GetTodayNutrition(ctx context.Context, userID string) (*storage.TodayNutritionRow, error) {
	var r storage.TodayNutritionRow
	err := p.pool.QueryRow(ctx, sqlTodayNutrition, userID).Scan(
		&r.UserID,
		&r.MealDate,
		&r.Calories,
		&r.ProteinG,
		&r.CalorieGoal,
		&r.ProteinGoalG,
		&r.CaloriesRemaining,
		&r.ProteinRemaining,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("v_today_nutrition_home: %w", err)
	}
	return &r, nil
}

func (p *PostgresStorage) GetCashflowProjection7d(ctx context.Context, userID string) (*storage.CashflowProjectionRow, error) {
	var r storage.CashflowProjectionRow
	err := p.pool.QueryRow(ctx, sqlCashflowProjection, userID).Scan(&r.CurrentBalance, &r.ProjectedBalance7d)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("v_cashflow_projection_7d: %w", err)
	}
	return &r, nil
}

func (p *PostgresStorage) ListTopActiveSignals(ctx context.Context, userID string, limit int) ([]storage.LifeSignal, error) {
	return p.querySignals(ctx, sqlTopActiveSignals, userID, limit)
}

func (p *PostgresStorage) ListSignals(ctx context.Context, userID string, activeOnly bool) ([]storage.LifeSignal, error) {
	if activeOnly {
		return p.querySignals(ctx, sqlSignalsActive, userID)
	}
	return p.querySignals(ctx, sqlSignalsAll, userID)
}

func (p *PostgresStorage) querySignals(ctx context.Context, query string, args ...any) ([]storage.LifeSignal, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("life_signals: %w", err)
	}
	defer rows.Close()

	signals := []storage.LifeSignal{}
	for rows.Next() {
		var s storage.LifeSignal
		var evidence []byte
		if err := rows.Scan(
			&s.ID,
			&s.SignalKey,
			&s.Domain,
			&s.Severity,
			&s.Score,
			&s.Title,
			&s.Message,
			&s.Facts,
			&s.Recommendation,
			&evidence,
			&s.DetectedAt,
			&s.IsActive,
		); err != nil {
			return nil, fmt.Errorf("failed to scan life signal: %w", err)
		}
		s.Evidence = evidence
		signals = append(signals, s)
	}

	return signals, rows.Err()
}

func (p *PostgresStorage) GetMicroTrends(ctx context.Context, userID string) (*storage.MicroTrendsRow, error) {
	var r storage.MicroTrendsRow
	err := p.pool.QueryRow(ctx, sqlMicroTrends, userID).Scan(
		&r.UserID,
		&r.CaloriesAvg7d,
		&r.CaloriesDeltaVsPrev7d,
		&r.ProteinAvg7d,
		&r.ProteinDeltaVsPrev7d,
		&r.NutritionDaysLogged7d,
		&r.TrainingMinutesThisWeek,
		&r.TrainingMinutesDeltaVsLastWeek,
		&r.TrainingDaysThisWeek,
		&r.SleepScoreAvg7d,
		&r.SleepScoreDeltaVsPrev7d,
		&r.MinProjectedBalance30d,
		&r.MinProjectedBalanceDay30d,
		&r.NetWorthDelta30d,
		&r.NetWorthLastSnapshotDay,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("v_micro_trends_home: %w", err)
	}
	return &r, nil
}
