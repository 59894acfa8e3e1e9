package ai

import (
	"context"
)

// GenerationParameters describes one text generation invocation. Values are
// fixed per evaluation variant.
type GenerationParameters struct {
	// Model overrides the provider default model when set.
	Model           string
	Temperature     float32
	MaxOutputTokens int32
}

// Generator performs exactly one text generation call and returns the raw text.
type Generator interface {
	Generate(ctx context.Context, prompt string, params GenerationParameters) (string, error)
	// Provider returns a short provider name used in logs and metrics.
	Provider() string
}

// ParameterOverride is a configured change to a variant's parameters. A nil
// Temperature keeps the default; zero is a valid temperature.
type ParameterOverride struct {
	Model           string
	Temperature     *float32
	MaxOutputTokens int32
}

// Merge returns p with every field set in override applied.
func (p GenerationParameters) Merge(override ParameterOverride) GenerationParameters {
	if override.Model != "" {
		p.Model = override.Model
	}
	if override.Temperature != nil {
		p.Temperature = *override.Temperature
	}
	if override.MaxOutputTokens > 0 {
		p.MaxOutputTokens = override.MaxOutputTokens
	}
	return p
}
