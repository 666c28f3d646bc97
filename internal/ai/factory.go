package ai

import (
	"context"
	"strings"

	"github.com/fdg312/lifeos/internal/config"
)

const (
	ModeMock     = "mock"
	ModeOpenAI   = "openai"
	ModeGemini   = "gemini"
	ModeFunction = "function"
)

func NewMealProposer(ctx context.Context, cfg *config.Config) (MealProposer, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.AIMode))
	if mode == "" {
		mode = ModeMock
	}

	switch mode {
	case ModeOpenAI:
		return NewOpenAIProposer(cfg), nil
	case ModeGemini:
		p, err := NewGeminiProposer(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ModeFunction:
		return NewFunctionProposer(cfg), nil
	default:
		return NewMockProposer(), nil
	}
}
