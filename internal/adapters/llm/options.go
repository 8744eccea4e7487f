package llm

import (
	"github.com/okian/pscore/pkg/logger"
	"google.golang.org/genai"
)

// Option applies a configuration option to the GeminiGenerator.
type Option func(*GeminiGenerator)

// WithAPIKey sets the API key. An empty key leaves the generator unusable.
func WithAPIKey(key string) Option {
	return func(g *GeminiGenerator) {
		g.apiKey = key
	}
}

// WithBaseURL points the client at a different endpoint.
func WithBaseURL(url string) Option {
	return func(g *GeminiGenerator) {
		g.baseURL = url
	}
}

// WithBackend selects the API backend. Defaults to the Gemini API.
func WithBackend(b genai.Backend) Option {
	return func(g *GeminiGenerator) {
		g.backend = b
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(g *GeminiGenerator) {
		if l != nil {
			g.logger = l
		}
	}
}
