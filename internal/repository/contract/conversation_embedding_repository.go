package contract

import (
	"context"

	"glowgirl-be/internal/entity"
	"glowgirl-be/internal/repository/specification"
)

type ConversationEmbeddingRepository interface {
	Create(ctx context.Context, embedding *entity.ConversationEmbedding) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ConversationEmbedding, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
