package embedding

import (
	"context"

	"glowgirl-be/pkg/embedding/jina"
)

// jinaAdapter exposes the jina client through EmbeddingProvider.
type jinaAdapter struct {
	client *jina.JinaProvider
}

func NewJinaProvider(apiKey string) EmbeddingProvider {
	return &jinaAdapter{client: jina.NewJinaProvider(apiKey)}
}

func (a *jinaAdapter) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	values, err := a.client.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	return &EmbeddingResponse{
		Embedding: EmbeddingResponseEmbedding{Values: normalizeVector(values)},
	}, nil
}
