package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/fdg312/lifeos/internal/meals"
)

// MealProposer превращает описание еды (текст и/или фото) в черновик приёма пищи.
// nil без ошибки означает, что модель ответила без proposal.
type MealProposer interface {
	ProposeMeal(ctx context.Context, req ProposeRequest) (*meals.MealProposal, error)
}

type ProposeRequest struct {
	UserID       string
	MealType     string
	MealDate     string // YYYY-MM-DD, пусто если не задано
	Text         string
	ImageDataURL string // data:<mime>;base64,..., пусто если фото нет
}

var (
	ErrNoJSON       = errors.New("model response does not contain a JSON object")
	ErrBadDataURL   = errors.New("invalid image data URL")
	ErrEmptyRequest = errors.New("text or image is required")
)

const systemPrompt = `You are a nutrition estimator for a personal food log.
The user describes what they ate in free text (label numbers, fractions, portions) and/or a photo.
Estimate the meal and respond with ONLY a JSON object of this exact shape:
{"proposal":{"description":"short meal name","items":[{"name":"...","quantity_text":"...","calories":0,"protein_g":0,"carbs_g":0,"fat_g":0,"confidence":0.0}],"totals":{"calories":0,"protein_g":0,"carbs_g":0,"fat_g":0,"saturated_fat_g":0,"fiber_g":0,"soluble_fiber_g":0,"sugar_g":0,"sodium_mg":0},"assumptions":["..."],"confidence":0.0,"needs_clarification":false}}
Rules: numbers are non-negative; confidence is between 0 and 1; totals are the sum of items;
omit micronutrients you cannot estimate; set needs_clarification when the portion is ambiguous.`

func userPrompt(req ProposeRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Meal type: %s\n", req.MealType)
	if req.MealDate != "" {
		fmt.Fprintf(&b, "Meal date: %s\n", req.MealDate)
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		text = "(no text, estimate from the photo)"
	}
	fmt.Fprintf(&b, "What I ate: %s", text)
	return b.String()
}

// extractJSON вырезает объект от первой "{" до последней "}"
func extractJSON(content string) (string, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end <= start {
		return "", ErrNoJSON
	}
	return content[start : end+1], nil
}

// parseProposal принимает {"proposal": {...}} или сам proposal
func parseProposal(content string) (*meals.MealProposal, error) {
	raw, err := extractJSON(content)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Proposal *meals.MealProposal `json:"proposal"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, fmt.Errorf("decode proposal: %w", err)
	}
	if envelope.Proposal != nil {
		return envelope.Proposal, nil
	}

	var bare struct {
		meals.MealProposal
		Totals *meals.MealTotals `json:"totals"`
	}
	if err := json.Unmarshal([]byte(raw), &bare); err != nil {
		return nil, fmt.Errorf("decode proposal: %w", err)
	}
	if bare.Totals == nil {
		return nil, nil
	}
	p := bare.MealProposal
	p.Totals = *bare.Totals
	return &p, nil
}

// splitDataURL разбирает data:<mime>;base64,<payload>
func splitDataURL(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, ErrBadDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrBadDataURL
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 || mime == "" {
		return "", nil, ErrBadDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrBadDataURL, err)
	}
	return mime, data, nil
}

func validateRequest(req ProposeRequest) error {
	if strings.TrimSpace(req.Text) == "" && req.ImageDataURL == "" {
		return ErrEmptyRequest
	}
	return nil
}
