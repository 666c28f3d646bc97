package manuallog

import (
	"bytes"
	"encoding/json"
)

// Amount принимает и "12.5", и 12.5; дальше всё равно разбирается как строка
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = Amount(n.String())
	return nil
}

type ManualLogRequest struct {
	Description  string `json:"description" validate:"max=200"`
	MealType     string `json:"meal_type" validate:"max=32"`
	Calories     Amount `json:"calories"`
	ProteinG     Amount `json:"protein_g"`
	CarbsG       Amount `json:"carbs_g"`
	FatG         Amount `json:"fat_g"`
	SaveAsMeal   bool   `json:"save_as_meal"`
	TemplateName string `json:"template_name" validate:"max=120"`
}

type ManualLogResponse struct {
	MealLogID     int64   `json:"meal_log_id"`
	MealType      string  `json:"meal_type"`
	Calories      float64 `json:"calories"`
	ProteinG      float64 `json:"protein_g"`
	CarbsG        float64 `json:"carbs_g"`
	FatG          float64 `json:"fat_g"`
	SavedTemplate *string `json:"saved_template"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Reason  string `json:"reason,omitempty"`
}
