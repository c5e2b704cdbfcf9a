package embedding

import (
	"context"
	"fmt"
	"math"
)

// Task types understood by providers that distinguish queries from documents.
const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// Dimensions is the vector width stored in conversation_embeddings.
const Dimensions = 768

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error)
}

// NewProvider builds the provider named by providerType ("ollama", "gemini" or "jina").
func NewProvider(providerType, baseURL, model, apiKey string) (EmbeddingProvider, error) {
	switch providerType {
	case "ollama", "":
		return NewOllamaProvider(baseURL, model), nil
	case "gemini":
		if apiKey == "" {
			return nil, fmt.Errorf("gemini embedding provider requires an API key")
		}
		return NewGeminiProvider(apiKey), nil
	case "jina":
		if apiKey == "" {
			return nil, fmt.Errorf("jina embedding provider requires an API key")
		}
		return NewJinaProvider(apiKey), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", providerType)
	}
}

// normalizeVector scales vec to unit length so pgvector cosine distance is meaningful.
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
