package savedmeals

import (
	"context"
	"errors"
	"strings"

	"github.com/fdg312/lifeos/internal/logger"
	"github.com/fdg312/lifeos/internal/meals"
	"github.com/fdg312/lifeos/internal/servings"
	"github.com/fdg312/lifeos/internal/storage"
)

var (
	ErrNotFound      = errors.New("saved meal not found")
	ErrMissingMealID  = errors.New("missing saved_meal_id")
)

type Service struct {
	storage storage.MealsStorage
	log     logger.Logger
}

func NewService(mealsStorage storage.MealsStorage, log logger.Logger) *Service {
	return &Service{storage: mealsStorage, log: log}
}

func (s *Service) List(ctx context.Context, userID string) ([]SavedMealDTO, error) {
	rows, err := s.storage.ListSavedMeals(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]SavedMealDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, SavedMealDTO{
			ID:            r.ID,
			Name:          r.Name,
			Description:   r.Description,
			Calories:      r.Calories,
			ProteinG:      r.ProteinG,
			CarbsG:        r.CarbsG,
			FatG:          r.FatG,
			SaturatedFatG: r.SaturatedFatG,
			FiberG:        r.FiberG,
			SolubleFiberG: r.SolubleFiberG,
			SugarG:        r.SugarG,
			SodiumMg:      r.SodiumMg,
			CreatedAt:     r.CreatedAt,
			UpdatedAt:     r.UpdatedAt,
		})
	}
	return out, nil
}

// Log пишет шаблон в журнал с множителем порций. Невалидные порции до хранилища не доходят.
func (s *Service) Log(ctx context.Context, userID, savedMealID string, req LogRequest) (*LogResponse, error) {
	savedMealID = strings.TrimSpace(savedMealID)
	if savedMealID == "" {
		return nil, ErrMissingMealID
	}

	multiplier, err := servings.Normalize(req.Servings)
	if err != nil {
		return nil, err
	}

	mealType := meals.AsMealType(req.MealType)
	id, err := s.storage.LogSavedMeal(ctx, userID, savedMealID, mealType.String(), multiplier)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.log.Info("savedmeals", "saved meal logged", map[string]any{
		"user_id":       userID,
		"saved_meal_id": savedMealID,
		"multiplier":    multiplier,
		"meal_log_id":   id,
	})

	return &LogResponse{MealLogID: id, MealType: mealType.String(), Multiplier: multiplier}, nil
}
