package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/fdg312/lifeos/internal/config"
	"github.com/fdg312/lifeos/internal/meals"
	"google.golang.org/genai"
)

// GeminiProposer: Models.GenerateContent с текстом и inline-картинкой
type GeminiProposer struct {
	client      *genai.Client
	model       string
	maxTokens   int
	temperature float64
}

func NewGeminiProposer(ctx context.Context, cfg *config.Config) (*GeminiProposer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiProposer{
		client:      client,
		model:       cfg.GeminiModel,
		maxTokens:   cfg.AIMaxOutputTokens,
		temperature: cfg.AITemperature,
	}, nil
}

func (p *GeminiProposer) ProposeMeal(ctx context.Context, req ProposeRequest) (*meals.MealProposal, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	parts := []*genai.Part{genai.NewPartFromText(userPrompt(req))}
	if req.ImageDataURL != "" {
		mime, data, err := splitDataURL(req.ImageDataURL)
		if err != nil {
			return nil, err
		}
		parts = append(parts, genai.NewPartFromBytes(data, mime))
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr(float32(p.temperature)),
		MaxOutputTokens:   int32(p.maxTokens),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("gemini response is empty")
	}

	return parseProposal(text)
}
