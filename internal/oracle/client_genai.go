package oracle

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GenAIClient is the SDK-backed transport. It asks for a JSON response
// MIME type up front, which the SDK surface supports; the normalize
// package still treats the result as untrusted.
type GenAIClient struct {
	cfg    Config
	client *genai.Client
}

// NewGenAIClient builds a client on the official SDK.
func NewGenAIClient(ctx context.Context, cfg Config) (*GenAIClient, error) {
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GenAIClient{cfg: cfg, client: client}, nil
}

// Consult runs the candidate fallback over this client's model list.
func (c *GenAIClient) Consult(ctx context.Context, prompt string) (string, error) {
	return Consult(ctx, c, c.cfg.Models, prompt)
}

// Attempt sends one generation request to one candidate model.
func (c *GenAIClient) Attempt(ctx context.Context, model, prompt string) (string, error) {
	result, err := c.client.Models.GenerateContent(ctx, model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr(float32(c.cfg.Temperature)),
			MaxOutputTokens:  int32(c.cfg.MaxOutputTokens),
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return "", fmt.Errorf("generate content failed: %w", err)
	}

	text := result.Text()
	if text == "" {
		return "", fmt.Errorf("no completion returned")
	}
	return text, nil
}
