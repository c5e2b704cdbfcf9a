package contract

import (
	"context"

	"glowgirl-be/internal/entity"
	"glowgirl-be/internal/repository/specification"
)

type GlowSessionRepository interface {
	Create(ctx context.Context, session *entity.GlowSession) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.GlowSession, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.GlowSession, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
