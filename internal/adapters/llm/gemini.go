// Package llm adapts the Gemini API to the score service's Generator.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/pscore/internal/domain/scoring"
	"github.com/okian/pscore/pkg/logger"
	"google.golang.org/genai"
)

// GeminiGenerator implements scoring.Generator on google.golang.org/genai.
type GeminiGenerator struct {
	client  *genai.Client
	apiKey  string
	baseURL string
	backend genai.Backend
	schema  *genai.Schema
	logger  logger.Logger
}

var _ scoring.Generator = (*GeminiGenerator)(nil)

// NewGeminiGenerator builds the client. A missing API key is not a
// construction error: it is logged once and every call then fails with
// ErrMissingAPIKey.
func NewGeminiGenerator(ctx context.Context, opts ...Option) (*GeminiGenerator, error) {
	g := &GeminiGenerator{
		backend: genai.BackendGeminiAPI,
		schema:  ProductivityScoreSchema(),
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.apiKey == "" {
		g.logger.Error(ctx, "API key not set; score generation will fail")
		return g, nil
	}

	cfg := &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: g.backend,
	}
	if g.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: g.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	g.client = client
	return g, nil
}

// Generate sends one generateContent call and returns the concatenated text
// of the first candidate.
func (g *GeminiGenerator) Generate(ctx context.Context, req scoring.Request) (string, error) {
	if g.client == nil {
		return "", ErrMissingAPIKey
	}

	temperature := req.Temperature
	resp, err := g.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: req.ResponseMIMEType,
		ResponseSchema:   g.schema,
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return responseText(resp)
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return "", ErrEmptyResponse
	}
	var b strings.Builder
	for _, p := range c.Content.Parts {
		if p == nil || p.Thought {
			continue
		}
		b.WriteString(p.Text)
	}
	return b.String(), nil
}
