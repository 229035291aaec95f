package scene

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sashabaranov/go-openai"

	"chronicle/internal/config"
)

const (
	modelGPTImage = "gpt-image-1"
	modelDallE3   = "dall-e-3"
)

// Generator is the image-generation gateway: one primary model attempt, one
// fallback-model retry, then failure. No retries beyond the single swap.
type Generator struct {
	upstream *openai.Client
	primary  string
	fallback string
	logger   *slog.Logger
}

// NewGenerator builds the gateway. An empty API key is not an error; it
// produces an unconfigured gateway that short-circuits to placeholders.
func NewGenerator(cfg *config.Config, logger *slog.Logger) *Generator {
	primary := cfg.ImageModel
	if primary == "" {
		primary = modelGPTImage
	}
	// The fallback must differ from whatever the primary resolved to.
	fallback := modelDallE3
	if primary == modelDallE3 {
		fallback = modelGPTImage
	}

	g := &Generator{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}

	if cfg.OpenAIAPIKey != "" {
		apiCfg := openai.DefaultConfig(cfg.OpenAIAPIKey)
		if cfg.OpenAIBaseURL != "" {
			apiCfg.BaseURL = cfg.OpenAIBaseURL
		}
		apiCfg.OrgID = cfg.OpenAIOrg
		g.upstream = openai.NewClientWithConfig(apiCfg)
	}

	return g
}

// Configured reports whether an upstream credential is present.
func (g *Generator) Configured() bool {
	return g.upstream != nil
}

// Generate produces one 1024x1024 image for the prompt and returns its URL.
// It fails only after both configured models have failed, with an error
// carrying both failure reasons.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.upstream == nil {
		return "", fmt.Errorf("no image provider credential configured")
	}

	url, primaryErr := g.tryModel(ctx, g.primary, prompt)
	if primaryErr == nil {
		return url, nil
	}
	g.logger.Warn("primary image model failed, retrying with fallback",
		"model", g.primary,
		"error", primaryErr,
	)

	url, fallbackErr := g.tryModel(ctx, g.fallback, prompt)
	if fallbackErr == nil {
		return url, nil
	}

	return "", fmt.Errorf("%v | %v", primaryErr, fallbackErr)
}

func (g *Generator) tryModel(ctx context.Context, model, prompt string) (string, error) {
	resp, err := g.upstream.CreateImage(ctx, openai.ImageRequest{
		Model:          model,
		Prompt:         prompt,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", fmt.Errorf("image generation (%s): %w", model, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", fmt.Errorf("no image URL returned (%s)", model)
	}
	return resp.Data[0].URL, nil
}
