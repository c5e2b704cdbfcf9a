package unitofwork

import (
	"context"

	"glowgirl-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	GlowSessionRepository() contract.GlowSessionRepository
	ConversationEmbeddingRepository() contract.ConversationEmbeddingRepository
}
