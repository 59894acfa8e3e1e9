// Package claude implements the text generation client over the Anthropic Messages API.
package claude

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/spigell/eb1-screener/internal/ai"
)

const (
	defaultModel     = "claude-sonnet-4-5"
	defaultMaxTokens = 2048
	providerName     = "anthropic"
)

type messageCreator interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Generator sends single-turn prompts to Claude.
type Generator struct {
	messages messageCreator
	model    string
	logger   *zap.Logger
}

// NewGenerator creates a Generator authenticated with apiKey.
func NewGenerator(apiKey, model string, logger *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("anthropic api key is required")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)

	return newGenerator(&client.Messages, model, logger), nil
}

func newGenerator(messages messageCreator, model string, logger *zap.Logger) *Generator {
	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{messages: messages, model: model, logger: logger}
}

func (g *Generator) Provider() string { return providerName }

func (g *Generator) Model() string { return g.model }

// Generate sends the prompt as a single user message and joins the text blocks of the reply.
func (g *Generator) Generate(ctx context.Context, prompt string, params ai.GenerationParameters) (string, error) {
	model := strings.TrimSpace(params.Model)
	if model == "" {
		model = g.model
	}

	maxTokens := int64(params.MaxOutputTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	response, err := g.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(float64(params.Temperature)),
		Messages: []anthropic.MessageParam{{
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: prompt},
			}},
			Role: anthropic.MessageParamRoleUser,
		}},
	})
	if err != nil {
		return "", ai.WrapError(providerName, classify(err), fmt.Errorf("create message: %w", err))
	}

	var parts []string
	for _, block := range response.Content {
		if block.Type != "text" {
			continue
		}
		if text := strings.TrimSpace(block.Text); text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		g.logger.Debug("claude returned no text blocks",
			zap.String("model", model),
			zap.String("stop_reason", string(response.StopReason)),
		)
		return "", ai.WrapError(providerName, nil, ai.ErrEmptyResponse)
	}

	return strings.Join(parts, "\n"), nil
}

func classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return ai.KindForStatus(apiErr.StatusCode)
	}
	return nil
}
