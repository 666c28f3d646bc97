package postgres

import (
	"context"
	"fmt"

	"github.com/fdg312/lifeos/internal/storage"
	"github.com/google/uuid"
)

const (
	sqlLogManualMeal = `SELECT log_manual_meal($1, $2, $3, $4, $5, $6, $7)`

	sqlLogSavedMeal = `SELECT log_saved_meal($1, $2, $3, $4)`

	sqlCreateSavedMeal = `
		SELECT create_saved_meal(
			p_user_id         => $1,
			p_name            => $2,
			p_calories        => $3,
			p_description     => $4,
			p_protein_g       => $5,
			p_carbs_g         => $6,
			p_fat_g           => $7,
			p_saturated_fat_g => $8,
			p_fiber_g         => $9,
			p_soluble_fiber_g => $10,
			p_sugar_g         => $11,
			p_sodium_mg       => $12
		)`

	sqlListSavedMeals = `
		SELECT id::text, name, description, calories, protein_g, carbs_g, fat_g,
		       saturated_fat_g, fiber_g, soluble_fiber_g, sugar_g, sodium_mg,
		       created_at, updated_at
		FROM v_saved_meals_home
		WHERE user_id = $1
		ORDER BY name ASC`
)

func (p *PostgresStorage) LogManualMeal(ctx context.Context, userID string, in storage.ManualMealInput) (int64, error) {
	var id int64
	err := p.pool.QueryRow(ctx, sqlLogManualMeal,
		userID,
		in.Description,
		in.MealType,
		in.Calories,
		in.ProteinG,
		in.CarbsG,
		in.FatG,
	).Scan(&id)
	if err != nil {
		return 0, rpcError("log_manual_meal", err)
	}
	return id, nil
}

func (p *PostgresStorage) LogSavedMeal(ctx context.Context, userID string, savedMealID string, mealType string, multiplier float64) (int64, error) {
	mealID, err := uuid.Parse(savedMealID)
	if err != nil {
		// чужой формат id: такого шаблона точно нет
		return 0, ErrNotFound
	}

	var id int64
	err = p.pool.QueryRow(ctx, sqlLogSavedMeal, userID, mealID, mealType, multiplier).Scan(&id)
	if err != nil {
		if noDataFound(err) {
			return 0, ErrNotFound
		}
		return 0, rpcError("log_saved_meal", err)
	}
	return id, nil
}

func (p *PostgresStorage) CreateSavedMeal(ctx context.Context, userID string, in storage.SavedMealInput) error {
	_, err := p.pool.Exec(ctx, sqlCreateSavedMeal,
		userID,
		in.Name,
		in.Calories,
		in.Description,
		in.ProteinG,
		in.CarbsG,
		in.FatG,
		in.SaturatedFatG,
		in.FiberG,
		in.SolubleFiberG,
		in.SugarG,
		in.SodiumMg,
	)
	if err != nil {
		return rpcError("create_saved_meal", err)
	}
	return nil
}

func (p *PostgresStorage) ListSavedMeals(ctx context.Context, userID string) ([]storage.SavedMeal, error) {
	rows, err := p.pool.Query(ctx, sqlListSavedMeals, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved meals: %w", err)
	}
	defer rows.Close()

	meals := []storage.SavedMeal{}
	for rows.Next() {
		var m storage.SavedMeal
		if err := rows.Scan(
			&m.ID,
			&m.Name,
			&m.Description,
			&m.Calories,
			&m.ProteinG,
			&m.CarbsG,
			&m.FatG,
			&m.SaturatedFatG,
			&m.FiberG,
			&m.SolubleFiberG,
			&m.SugarG,
			&m.SodiumMg,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan saved meal: %w", err)
		}
		meals = append(meals, m)
	}

	return meals, rows.Err()
}
