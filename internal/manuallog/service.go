package manuallog

import (
	"context"
	"fmt"
	"strings"

	"github.com/fdg312/lifeos/internal/logger"
	"github.com/fdg312/lifeos/internal/meals"
	"github.com/fdg312/lifeos/internal/servings"
	"github.com/fdg312/lifeos/internal/storage"
)

// FieldError: ошибка разбора конкретного числового поля
type FieldError struct {
	Field string
	Err   *servings.ValidationError
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Message
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

type mealsWriter interface {
	LogManualMeal(ctx context.Context, userID string, in storage.ManualMealInput) (int64, error)
	CreateSavedMeal(ctx context.Context, userID string, in storage.SavedMealInput) error
}

type Service struct {
	storage mealsWriter
	log     logger.Logger
}

func NewService(mealsStorage mealsWriter, log logger.Logger) *Service {
	return &Service{storage: mealsStorage, log: log}
}

func (s *Service) Log(ctx context.Context, userID string, req ManualLogRequest) (*ManualLogResponse, error) {
	calories, err := servings.RequiredAmount(string(req.Calories), "Calories")
	if err != nil {
		return nil, fieldError("calories", err)
	}
	protein, err := servings.Amount(string(req.ProteinG), 0)
	if err != nil {
		return nil, fieldError("protein_g", err)
	}
	carbs, err := servings.Amount(string(req.CarbsG), 0)
	if err != nil {
		return nil, fieldError("carbs_g", err)
	}
	fat, err := servings.Amount(string(req.FatG), 0)
	if err != nil {
		return nil, fieldError("fat_g", err)
	}

	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "Meal"
	}
	mealType := meals.AsMealType(req.MealType)

	id, err := s.storage.LogManualMeal(ctx, userID, storage.ManualMealInput{
		Description: description,
		MealType:    mealType.String(),
		Calories:    calories,
		ProteinG:    protein,
		CarbsG:      carbs,
		FatG:        fat,
	})
	if err != nil {
		return nil, prefixed("log_manual_meal", err)
	}

	resp := &ManualLogResponse{
		MealLogID: id,
		MealType:  mealType.String(),
		Calories:  calories,
		ProteinG:  protein,
		CarbsG:    carbs,
		FatG:      fat,
	}

	if req.SaveAsMeal {
		name := strings.TrimSpace(req.TemplateName)
		if name == "" {
			name = description
		}
		desc := description
		err := s.storage.CreateSavedMeal(ctx, userID, storage.SavedMealInput{
			Name:        name,
			Description: &desc,
			Calories:    calories,
			ProteinG:    protein,
			CarbsG:      carbs,
			FatG:        fat,
		})
		if err != nil {
			// запись в журнал уже есть, шаблон не критичен
			s.log.Error("manuallog", "create saved meal failed", map[string]any{
				"user_id": userID,
				"error":   prefixed("create_saved_meal", err).Error(),
			})
			return resp, prefixed("create_saved_meal", err)
		}
		resp.SavedTemplate = &name
	}

	s.log.Info("manuallog", "manual meal logged", map[string]any{
		"user_id":     userID,
		"meal_log_id": id,
		"calories":    calories,
		"template":    req.SaveAsMeal,
	})
	return resp, nil
}

func fieldError(field string, err error) error {
	if verr, ok := err.(*servings.ValidationError); ok {
		return &FieldError{Field: field, Err: verr}
	}
	return err
}

func prefixed(op string, err error) error {
	if strings.HasPrefix(err.Error(), op+": ") {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
