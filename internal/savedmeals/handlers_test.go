package savedmeals

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fdg312/lifeos/internal/logger"
	"github.com/fdg312/lifeos/internal/storage"
	"github.com/fdg312/lifeos/internal/storage/memory"
	"github.com/fdg312/lifeos/internal/userctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSavedMeals(t *testing.T) (*Handler, *memory.MemoryStorage, string) {
	t.Helper()
	mem := memory.New()
	ctx := context.Background()

	require.NoError(t, mem.CreateSavedMeal(ctx, "owner", storage.SavedMealInput{
		Name: "Protein oats", Calories: 420, ProteinG: 32, CarbsG: 55, FatG: 9,
	}))
	require.NoError(t, mem.CreateSavedMeal(ctx, "owner", storage.SavedMealInput{
		Name: "Chicken rice bowl", Calories: 610, ProteinG: 45, CarbsG: 70, FatG: 14,
	}))
	require.NoError(t, mem.CreateSavedMeal(ctx, "someone-else", storage.SavedMealInput{Name: "Hidden"}))

	rows, err := mem.ListSavedMeals(ctx, "owner")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	svc := NewService(mem, logger.NewNop())
	return NewHandler(svc), mem, rows[1].ID
}

func logRequest(id string, body any) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/v1/saved-meals/"+id+"/log", bytes.NewReader(data))
	req.SetPathValue("id", id)
	return req.WithContext(userctx.WithUserID(context.Background(), "owner"))
}

func TestHandleListSortedByName(t *testing.T) {
	h, _, _ := setupSavedMeals(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/saved-meals", nil)
	req = req.WithContext(userctx.WithUserID(context.Background(), "owner"))
	w := httptest.NewRecorder()
	h.HandleList(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp ListResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.SavedMeals, 2)
	assert.Equal(t, "Chicken rice bowl", resp.SavedMeals[0].Name)
	assert.Equal(t, "Protein oats", resp.SavedMeals[1].Name)
	require.NotNil(t, resp.SavedMeals[1].Calories)
	assert.Equal(t, 420.0, *resp.SavedMeals[1].Calories)
}

func TestHandleLogScalesByServings(t *testing.T) {
	h, mem, oatsID := setupSavedMeals(t)

	w := httptest.NewRecorder()
	h.HandleLog(w, logRequest(oatsID, map[string]string{"meal_type": "Breakfast", "servings": "1.5"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp LogResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Positive(t, resp.MealLogID)
	assert.Equal(t, "breakfast", resp.MealType)
	assert.Equal(t, 1.5, resp.Multiplier)

	logs := mem.GetMealsStorage().ListMealLogs("owner")
	require.Len(t, logs, 1)
	assert.Equal(t, 630.0, logs[0].Calories)
	assert.Equal(t, 48.0, logs[0].ProteinG)
	assert.Equal(t, "Protein oats", logs[0].Description)
}

func TestHandleLogInvalidServings(t *testing.T) {
	tests := []struct {
		servings string
		reason   string
	}{
		{"", "empty_input"},
		{"   ", "empty_input"},
		{"abc", "format_error"},
		{"1.005", "format_error"},
		{"-1", "range_error"},
		{"0", "range_error"},
		{"0.00", "range_error"},
	}

	for _, tt := range tests {
		t.Run(tt.servings, func(t *testing.T) {
			h, mem, oatsID := setupSavedMeals(t)

			w := httptest.NewRecorder()
			h.HandleLog(w, logRequest(oatsID, map[string]string{"meal_type": "lunch", "servings": tt.servings}))
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, "invalid_servings", resp.Error.Code)
			assert.Equal(t, tt.reason, resp.Error.Reason)
			assert.NotEmpty(t, resp.Error.Message)

			assert.Empty(t, mem.GetMealsStorage().ListMealLogs("owner"))
		})
	}
}

func TestHandleLogUnknownMeal(t *testing.T) {
	h, _, _ := setupSavedMeals(t)

	w := httptest.NewRecorder()
	h.HandleLog(w, logRequest("does-not-exist", map[string]string{"servings": "1"}))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleLogLeadingDotServings(t *testing.T) {
	h, mem, oatsID := setupSavedMeals(t)

	w := httptest.NewRecorder()
	h.HandleLog(w, logRequest(oatsID, map[string]string{"servings": ".5"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	logs := mem.GetMealsStorage().ListMealLogs("owner")
	require.Len(t, logs, 1)
	assert.Equal(t, 210.0, logs[0].Calories)
	assert.Equal(t, "snack", logs[0].MealType)
}
