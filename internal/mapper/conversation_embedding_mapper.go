package mapper

import (
	"glowgirl-be/internal/entity"
	"glowgirl-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type ConversationEmbeddingMapper struct{}

func NewConversationEmbeddingMapper() *ConversationEmbeddingMapper {
	return &ConversationEmbeddingMapper{}
}

func (m *ConversationEmbeddingMapper) ToEntity(e *model.ConversationEmbedding) *entity.ConversationEmbedding {
	if e == nil {
		return nil
	}
	return &entity.ConversationEmbedding{
		Id:             e.Id,
		SessionId:      e.SessionId,
		UserId:         e.UserId,
		Document:       e.Document,
		EmbeddingValue: e.EmbeddingValue.Slice(),
		TurnCount:      e.TurnCount,
		CreatedAt:      e.CreatedAt,
	}
}

func (m *ConversationEmbeddingMapper) ToModel(e *entity.ConversationEmbedding) *model.ConversationEmbedding {
	if e == nil {
		return nil
	}
	return &model.ConversationEmbedding{
		Id:             e.Id,
		SessionId:      e.SessionId,
		UserId:         e.UserId,
		Document:       e.Document,
		EmbeddingValue: pgvector.NewVector(e.EmbeddingValue),
		TurnCount:      e.TurnCount,
		CreatedAt:      e.CreatedAt,
	}
}
