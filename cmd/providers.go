package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/eb1-screener/internal/ai"
	"github.com/spigell/eb1-screener/internal/ai/claude"
	"github.com/spigell/eb1-screener/internal/ai/gemini"
	"github.com/spigell/eb1-screener/internal/evaluation"
	"github.com/spigell/eb1-screener/internal/logger"
	"github.com/spigell/eb1-screener/internal/secrets"
)

// newGenerator builds the configured provider client, wrapped in the retry
// policy when retries are enabled.
func newGenerator(ctx context.Context, cfg *Config, log *zap.Logger) (ai.Generator, error) {
	var (
		generator ai.Generator
		model     string
	)

	switch provider := strings.ToLower(strings.TrimSpace(cfg.Provider)); provider {
	case "", "gemini":
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.Gemini.APIKey,
			Env:   "GEMINI_API_KEY",
			File:  cfg.Gemini.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set gemini.api-key-file or GEMINI_API_KEY)", err)
		}
		model = cfg.Gemini.Model
		g, err := gemini.NewGenerator(ctx, apiKey, model, logger.WithCommonFields(log, "gemini", model))
		if err != nil {
			return nil, err
		}
		generator = g
	case "anthropic", "claude":
		apiKey, err := secrets.Load(secrets.Source{
			Name:  "anthropic api key",
			Value: cfg.Anthropic.APIKey,
			Env:   "ANTHROPIC_API_KEY",
			File:  cfg.Anthropic.APIKeyFile,
		})
		if err != nil {
			return nil, fmt.Errorf("%w (set anthropic.api-key-file or ANTHROPIC_API_KEY)", err)
		}
		model = cfg.Anthropic.Model
		g, err := claude.NewGenerator(apiKey, model, logger.WithCommonFields(log, "anthropic", model))
		if err != nil {
			return nil, err
		}
		generator = g
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	return ai.WithRetry(generator, ai.RetryPolicy{
		MaxRetries:      cfg.Retry.MaxRetries,
		InitialInterval: cfg.Retry.InitialInterval,
	}, logger.WithCommonFields(log, generator.Provider(), model)), nil
}

// newRegistry wires every evaluation variant to the configured provider.
func newRegistry(ctx context.Context, cfg *Config, log *zap.Logger, recorder evaluation.Recorder) (*evaluation.Registry, error) {
	generator, err := newGenerator(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	return evaluation.NewDefaultRegistry(evaluation.Deps{
		Generator:    generator,
		Logger:       log,
		Recorder:     recorder,
		MaxLogLength: cfg.Log.MaxLength,
	}, cfg.overrides())
}

// setup builds the logger and decodes the config shared by every command.
func setup() (*zap.Logger, *Config, error) {
	log, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		return nil, nil, fmt.Errorf("creating a logger: %w", err)
	}

	cfg, err := getConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("getting a config: %w", err)
	}
	if cfg == nil {
		return nil, nil, errors.New("config is required")
	}

	return log, cfg, nil
}
