package savedmeals

import "time"

type SavedMealDTO struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   *string    `json:"description"`
	Calories      *float64   `json:"calories"`
	ProteinG      *float64   `json:"protein_g"`
	CarbsG        *float64   `json:"carbs_g"`
	FatG          *float64   `json:"fat_g"`
	SaturatedFatG *float64   `json:"saturated_fat_g"`
	FiberG        *float64   `json:"fiber_g"`
	SolubleFiberG *float64   `json:"soluble_fiber_g"`
	SugarG        *float64   `json:"sugar_g"`
	SodiumMg      *float64   `json:"sodium_mg"`
	CreatedAt     *time.Time `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at"`
}

type ListResponse struct {
	SavedMeals []SavedMealDTO `json:"saved_meals"`
}

type LogRequest struct {
	MealType string `json:"meal_type" validate:"max=32"`
	// строка как её ввёл пользователь: "1", "1.5", ".25"
	Servings string `json:"servings"`
}

type LogResponse struct {
	MealLogID  int64   `json:"meal_log_id"`
	MealType   string  `json:"meal_type"`
	Multiplier float64 `json:"multiplier"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}
