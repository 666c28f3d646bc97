package baseline

import (
	"encoding/json"
	"time"
)

type NutritionDTO struct {
	MealDate          *string  `json:"meal_date"`
	Calories          *float64 `json:"calories"`
	ProteinG          *float64 `json:"protein_g"`
	CalorieGoal       *float64 `json:"calorie_goal"`
	ProteinGoalG      *float64 `json:"protein_goal_g"`
	CaloriesRemaining *float64 `json:"calories_remaining"`
	ProteinRemaining  *float64 `json:"protein_remaining"`
}

type CashflowDTO struct {
	CurrentBalance     *float64 `json:"current_balance"`
	ProjectedBalance7d *float64 `json:"projected_balance_7d"`
	Delta7d            *float64 `json:"delta_7d"`
}

type SignalDTO struct {
	ID             string          `json:"id"`
	SignalKey      string          `json:"signal_key"`
	Domain         string          `json:"domain"`
	Severity       int             `json:"severity"`
	Score          float64         `json:"score"`
	Title          string          `json:"title"`
	Message        string          `json:"message"`
	Facts          *string         `json:"facts"`
	Recommendation *string         `json:"recommendation"`
	Evidence       json.RawMessage `json:"evidence"`
	DetectedAt     *time.Time      `json:"detected_at"`
	IsActive       bool            `json:"is_active"`
}

type MicroTrendsDTO struct {
	CaloriesAvg7d                  *float64 `json:"calories_avg_7d"`
	CaloriesDeltaVsPrev7d          *float64 `json:"calories_delta_vs_prev_7d"`
	ProteinAvg7d                   *float64 `json:"protein_avg_7d"`
	ProteinDeltaVsPrev7d           *float64 `json:"protein_delta_vs_prev_7d"`
	NutritionDaysLogged7d          *int     `json:"nutrition_days_logged_7d"`
	TrainingMinutesThisWeek        *float64 `json:"training_minutes_this_week"`
	TrainingMinutesDeltaVsLastWeek *float64 `json:"training_minutes_delta_vs_last_week"`
	TrainingDaysThisWeek           *int     `json:"training_days_this_week"`
	SleepScoreAvg7d                *float64 `json:"sleep_score_avg_7d"`
	SleepScoreDeltaVsPrev7d        *float64 `json:"sleep_score_delta_vs_prev_7d"`
	MinProjectedBalance30d         *float64 `json:"min_projected_balance_30d"`
	MinProjectedBalanceDay30d      *string  `json:"min_projected_balance_day_30d"`
	NetWorthDelta30d               *float64 `json:"net_worth_delta_30d"`
	NetWorthLastSnapshotDay        *string  `json:"net_worth_last_snapshot_day"`
}

type HomeResponse struct {
	Nutrition   *NutritionDTO   `json:"nutrition"`
	Cashflow    *CashflowDTO    `json:"cashflow"`
	Signals     []SignalDTO     `json:"signals"`
	MicroTrends *MicroTrendsDTO `json:"micro_trends"`
}

type SignalsResponse struct {
	Scope   string      `json:"scope"`
	Signals []SignalDTO `json:"signals"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
