package service

import (
	"context"
	"fmt"
	"time"

	"glowgirl-be/internal/entity"
	"glowgirl-be/internal/repository/unitofwork"
	"glowgirl-be/pkg/ai/pipeline"
	"glowgirl-be/pkg/chatbot"
	"glowgirl-be/pkg/embedding"

	"github.com/google/uuid"
)

// conversationArchive stores one user's finished transcripts as document embeddings.
type conversationArchive struct {
	userID     uuid.UUID
	uowFactory unitofwork.RepositoryFactory
	embedder   embedding.EmbeddingProvider
}

var _ pipeline.EmbeddingStore = (*conversationArchive)(nil)

func newConversationArchive(userID uuid.UUID, uowFactory unitofwork.RepositoryFactory, embedder embedding.EmbeddingProvider) *conversationArchive {
	return &conversationArchive{userID: userID, uowFactory: uowFactory, embedder: embedder}
}

func (a *conversationArchive) Persist(ctx context.Context, sessionID uuid.UUID, transcript []entity.Turn) error {
	document := chatbot.FormatTranscript(transcript)

	res, err := a.embedder.Generate(ctx, document, embedding.TaskRetrievalDocument)
	if err != nil {
		return fmt.Errorf("generate embedding: %w", err)
	}
	if len(res.Embedding.Values) != embedding.Dimensions {
		return fmt.Errorf("%w: got %d, want %d", ErrEmbeddingDimension, len(res.Embedding.Values), embedding.Dimensions)
	}

	uow := a.uowFactory.NewUnitOfWork(ctx)
	err = uow.ConversationEmbeddingRepository().Create(ctx, &entity.ConversationEmbedding{
		Id:             uuid.New(),
		SessionId:      sessionID,
		UserId:         a.userID,
		Document:       document,
		EmbeddingValue: res.Embedding.Values,
		TurnCount:      len(transcript),
		CreatedAt:      time.Now(),
	})
	if err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}
	return nil
}
