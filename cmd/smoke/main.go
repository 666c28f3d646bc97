package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	defaultAPIBase = "http://localhost:8080"
)

var (
	apiBase    string
	token      string
	client     = &http.Client{Timeout: 60 * time.Second}
	createdIDs = make(map[string]string)
)

func main() {
	fmt.Println("=== LifeOS E2E Smoke Test ===")
	fmt.Println()

	apiBase = getEnv("API_BASE_URL", defaultAPIBase)
	token = getEnv("SMOKE_TOKEN", "")

	fmt.Printf("API Base: %s\n", apiBase)
	fmt.Printf("Token: %s\n", maskString(token))
	fmt.Println()

	steps := []struct {
		name string
		fn   func() error
	}{
		{"Healthz", testHealthz},
		{"Dev Auth", testDevAuth},
		{"Who Am I", testMe},
		{"Reset AI Log Session", testResetSession},
		{"AI Log Send", testAILogSend},
		{"AI Log Confirm", testAILogConfirm},
		{"List Saved Meals", testListSavedMeals},
		{"Log Saved Meal", testLogSavedMeal},
		{"Manual Log", testManualLog},
		{"Baseline Home", testBaselineHome},
		{"Baseline Signals", testBaselineSignals},
		{"Relationships", testRelationships},
		{"Create Report (CSV)", testCreateReport},
		{"List Reports", testListReports},
		{"Download Report", testDownloadReport},
		{"Delete Report", testDeleteReport},
	}

	failed := false
	for i, step := range steps {
		fmt.Printf("[%d/%d] %s... ", i+1, len(steps), step.name)
		if err := step.fn(); err != nil {
			fmt.Printf("❌ FAILED\n")
			fmt.Printf("  Error: %v\n\n", err)
			failed = true
			break
		}
		fmt.Printf("✅ OK\n")
	}

	fmt.Println()
	if failed {
		fmt.Println("❌ SMOKE TEST FAILED")
		os.Exit(1)
	}

	fmt.Println("✅ ALL SMOKE TESTS PASSED")
}

// call отправляет JSON (или ничего) и декодирует ответ в out, если out != nil
func call(method, path string, payload any, wantStatus int, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, apiBase+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	addAuth(req)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: status=%d body=%s", method, path, resp.StatusCode, string(b))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode failed: %w", err)
	}
	return nil
}

func testHealthz() error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := call(http.MethodGet, "/healthz", nil, http.StatusOK, &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("unexpected status %q", resp.Status)
	}
	return nil
}

// testDevAuth берёт dev-токен; при AUTH_MODE=none эндпоинт отдаёт 404 и шаг пропускается
func testDevAuth() error {
	if token != "" {
		return nil
	}

	req, err := http.NewRequest(http.MethodPost, apiBase+"/v1/auth/dev", nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil
	case http.StatusOK:
		var out struct {
			AccessToken string `json:"access_token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("decode failed: %w", err)
		}
		token = out.AccessToken
		return nil
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b))
	}
}

func testMe() error {
	var resp struct {
		UserID string `json:"user_id"`
	}
	if err := call(http.MethodGet, "/v1/auth/me", nil, http.StatusOK, &resp); err != nil {
		return err
	}
	if resp.UserID == "" {
		return fmt.Errorf("empty user_id")
	}
	return nil
}

func testResetSession() error {
	return call(http.MethodDelete, "/v1/ailog/session", nil, http.StatusOK, nil)
}

func testAILogSend() error {
	var resp struct {
		Accepted bool `json:"accepted"`
		Session  struct {
			State    string `json:"state"`
			Proposal *struct {
				Description string `json:"description"`
			} `json:"proposal"`
		} `json:"session"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	payload := map[string]string{"text": "2 tacos", "meal_type": "lunch"}
	if err := call(http.MethodPost, "/v1/ailog/send", payload, http.StatusOK, &resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return fmt.Errorf("transport error: %s", resp.Error.Message)
	}
	if !resp.Accepted || resp.Session.Proposal == nil {
		return fmt.Errorf("no proposal held (state=%s)", resp.Session.State)
	}
	return nil
}

func testAILogConfirm() error {
	var resp struct {
		MealLogID int64 `json:"meal_log_id"`
	}
	if err := call(http.MethodPost, "/v1/ailog/confirm", nil, http.StatusOK, &resp); err != nil {
		return err
	}
	if resp.MealLogID == 0 {
		return fmt.Errorf("meal_log_id is zero")
	}
	return nil
}

func testListSavedMeals() error {
	var resp struct {
		SavedMeals []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"saved_meals"`
	}
	if err := call(http.MethodGet, "/v1/saved-meals", nil, http.StatusOK, &resp); err != nil {
		return err
	}
	if len(resp.SavedMeals) > 0 {
		createdIDs["saved_meal"] = resp.SavedMeals[0].ID
	}
	return nil
}

func testLogSavedMeal() error {
	id := createdIDs["saved_meal"]
	if id == "" {
		fmt.Print("(no saved meals, skipped) ")
		return nil
	}
	payload := map[string]string{"meal_type": "dinner", "servings": "1.5"}
	return call(http.MethodPost, "/v1/saved-meals/"+id+"/log", payload, http.StatusOK, nil)
}

func testManualLog() error {
	payload := map[string]any{
		"description": "Smoke test apple",
		"meal_type":   "snack",
		"calories":    "95",
		"protein_g":   "0.5",
		"carbs_g":     "25",
		"fat_g":       "0.3",
	}
	return call(http.MethodPost, "/v1/meals/manual", payload, http.StatusCreated, nil)
}

func testBaselineHome() error {
	var resp struct {
		Signals []json.RawMessage `json:"signals"`
	}
	if err := call(http.MethodGet, "/v1/baseline/home", nil, http.StatusOK, &resp); err != nil {
		return err
	}
	if resp.Signals == nil {
		return fmt.Errorf("signals must be an array")
	}
	return nil
}

func testBaselineSignals() error {
	return call(http.MethodGet, "/v1/baseline/signals?scope=all", nil, http.StatusOK, nil)
}

func testRelationships() error {
	return call(http.MethodGet, "/v1/relationships", nil, http.StatusOK, nil)
}

func testCreateReport() error {
	var result struct {
		ID        string `json:"id"`
		SizeBytes int64  `json:"size_bytes"`
	}
	if err := call(http.MethodPost, "/v1/reports", map[string]string{"format": "csv"}, http.StatusCreated, &result); err != nil {
		return err
	}
	if result.SizeBytes < 10 {
		return fmt.Errorf("report size is %d bytes (too small)", result.SizeBytes)
	}

	createdIDs["report"] = result.ID
	return nil
}

func testListReports() error {
	var resp struct {
		Reports []struct {
			ID string `json:"id"`
		} `json:"reports"`
	}
	if err := call(http.MethodGet, "/v1/reports", nil, http.StatusOK, &resp); err != nil {
		return err
	}
	for _, r := range resp.Reports {
		if r.ID == createdIDs["report"] {
			return nil
		}
	}
	return fmt.Errorf("created report %s not found in list", createdIDs["report"])
}

// testDownloadReport: в S3 режиме клиент сам пройдёт по редиректу
func testDownloadReport() error {
	req, err := http.NewRequest(http.MethodGet, apiBase+"/v1/reports/"+createdIDs["report"]+"/download", nil)
	if err != nil {
		return err
	}
	addAuth(req)

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if !bytes.HasPrefix(data, []byte("section,item,metric,value")) {
		return fmt.Errorf("unexpected CSV header: %q", string(data[:min(len(data), 40)]))
	}
	return nil
}

func testDeleteReport() error {
	return call(http.MethodDelete, "/v1/reports/"+createdIDs["report"], nil, http.StatusNoContent, nil)
}

func addAuth(req *http.Request) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func maskString(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
