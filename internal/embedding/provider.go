// Package embedding provides embedding providers for the doc index.
//
// Supported providers:
//   - ollama (default): local embeddings via Ollama. No API keys.
//   - openai: OpenAI text-embedding-3-small/large. Requires an API key.
//   - openai-compatible: any server exposing OpenAI-style /v1/embeddings
//     (llama.cpp, vLLM, LM Studio). API key optional.
package embedding

import (
	"fmt"
	"math"
)

// Provider generates embedding vectors from text. Vectors are unit-length,
// so cosine similarity is meaningful on the raw dot product. A provider is
// deterministic for identical input; switching providers or models requires
// rebuilding the index.
type Provider interface {
	// EmbedDocument returns an embedding optimized for document storage.
	EmbedDocument(text string) ([]float32, error)

	// EmbedQuery returns an embedding optimized for search queries.
	EmbedQuery(text string) ([]float32, error)

	// Name returns the provider identifier (e.g., "ollama", "openai").
	Name() string

	// Model returns the embedding model name.
	Model() string

	// Dimensions returns the embedding vector dimensionality.
	Dimensions() int
}

// ProviderConfig holds embedding provider settings.
type ProviderConfig struct {
	Provider   string // "ollama" (default), "openai", "openai-compatible"
	Model      string // model name (provider-specific default if empty)
	APIKey     string // API key (required for openai)
	BaseURL    string // base URL (provider-specific default if empty)
	Dimensions int    // vector dimensions (0 = provider default)
}

// NewProvider creates an embedding provider from the given config.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "ollama":
		return newOllamaProvider(cfg)
	case "openai", "openai-compatible":
		return newOpenAIProvider(cfg)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q (supported: ollama, openai, openai-compatible)", cfg.Provider)
	}
}

// validateEmbedding checks that a returned vector has the expected number of
// dimensions and is not all zeros (which indicates a provider error).
func validateEmbedding(vec []float32, expectedDims int) error {
	if expectedDims > 0 && len(vec) != expectedDims {
		return fmt.Errorf("embedding dimension mismatch: expected %d, got %d", expectedDims, len(vec))
	}
	allZero := true
	for _, v := range vec {
		if math.Float32bits(v) != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return fmt.Errorf("embedding is all zeros (provider returned invalid vector)")
	}
	return nil
}
