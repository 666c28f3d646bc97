package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fdg312/lifeos/internal/config"
	"github.com/fdg312/lifeos/internal/meals"
)

// FunctionProposer вызывает внешнюю функцию ai_meal_propose по HTTP
type FunctionProposer struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewFunctionProposer(cfg *config.Config) *FunctionProposer {
	timeoutSeconds := cfg.AITimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}

	return &FunctionProposer{
		endpoint: strings.TrimRight(cfg.FunctionsBaseURL, "/") + "/ai_meal_propose",
		apiKey:   cfg.FunctionsAPIKey,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
	}
}

type functionRequest struct {
	UserID       string  `json:"user_id"`
	MealType     string  `json:"meal_type"`
	MealDate     *string `json:"meal_date"`
	Text         string  `json:"text"`
	ImageDataURL string  `json:"image_data_url"`
}

type functionResponse struct {
	Proposal *meals.MealProposal `json:"proposal"`
	Error    json.RawMessage     `json:"error,omitempty"`
	Message  string              `json:"message,omitempty"`
}

func (p *FunctionProposer) ProposeMeal(ctx context.Context, req ProposeRequest) (*meals.MealProposal, error) {
	payload := functionRequest{
		UserID:       req.UserID,
		MealType:     req.MealType,
		Text:         req.Text,
		ImageDataURL: req.ImageDataURL,
	}
	if req.MealDate != "" {
		d := req.MealDate
		payload.MealDate = &d
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	var parsed functionResponse
	decodeErr := json.Unmarshal(responseBody, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if msg := functionErrorMessage(parsed); decodeErr == nil && msg != "" {
			return nil, errors.New(msg)
		}
		return nil, fmt.Errorf("function returned status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode function response: %w", decodeErr)
	}

	return parsed.Proposal, nil
}

// functionErrorMessage: {"error":"..."}, {"error":{"message":"..."}} или {"message":"..."}
func functionErrorMessage(r functionResponse) string {
	if len(r.Error) > 0 {
		var s string
		if err := json.Unmarshal(r.Error, &s); err == nil && s != "" {
			return s
		}
		var obj struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(r.Error, &obj); err == nil && obj.Message != "" {
			return obj.Message
		}
	}
	return r.Message
}
