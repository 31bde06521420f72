// Package oracle is the boundary to the external generative-model
// service. It owns the candidate-model fallback policy, the transport
// clients and the Analyzer facade that turns a synthesized series into
// a guaranteed-valid Reading.
package oracle

import (
	"context"
	"errors"
	"time"
)

// Attempter is the transport capability: one request against one
// candidate model. The fallback policy is written against this
// interface so it can be exercised without a live network.
type Attempter interface {
	Attempt(ctx context.Context, model, prompt string) (string, error)
}

// ErrAllCandidatesFailed is returned when every candidate model in the
// priority list rejected the request. This is the one hard failure the
// narrative path surfaces; a received body is always normalized instead.
var ErrAllCandidatesFailed = errors.New("all candidate models failed")

// DefaultModels is the candidate priority order, tried sequentially
// until one returns a success status.
func DefaultModels() []string {
	return []string{
		"gemini-2.0-flash-exp",
		"gemini-2.0-flash",
		"gemini-2.5-flash",
		"gemini-1.5-flash",
	}
}

// Config holds transport settings shared by both client implementations.
type Config struct {
	APIKey          string
	BaseURL         string
	Models          []string
	Temperature     float64
	MaxOutputTokens int
	Timeout         time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:          apiKey,
		BaseURL:         "https://generativelanguage.googleapis.com/v1beta",
		Models:          DefaultModels(),
		Temperature:     0.7,
		MaxOutputTokens: 1024,
		Timeout:         60 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig(c.APIKey)
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if len(c.Models) == 0 {
		c.Models = def.Models
	}
	if c.Temperature == 0 {
		c.Temperature = def.Temperature
	}
	if c.MaxOutputTokens == 0 {
		c.MaxOutputTokens = def.MaxOutputTokens
	}
	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}
	return c
}
