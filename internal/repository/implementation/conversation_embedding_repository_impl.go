package implementation

import (
	"context"
	"errors"

	"glowgirl-be/internal/entity"
	"glowgirl-be/internal/mapper"
	"glowgirl-be/internal/model"
	"glowgirl-be/internal/repository/contract"
	"glowgirl-be/internal/repository/specification"

	"gorm.io/gorm"
)

type ConversationEmbeddingRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ConversationEmbeddingMapper
}

func NewConversationEmbeddingRepository(db *gorm.DB) contract.ConversationEmbeddingRepository {
	return &ConversationEmbeddingRepositoryImpl{
		db:     db,
		mapper: mapper.NewConversationEmbeddingMapper(),
	}
}

func (r *ConversationEmbeddingRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ConversationEmbeddingRepositoryImpl) Create(ctx context.Context, embedding *entity.ConversationEmbedding) error {
	m := r.mapper.ToModel(embedding)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*embedding = *r.mapper.ToEntity(m)
	return nil
}

func (r *ConversationEmbeddingRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ConversationEmbedding, error) {
	var m model.ConversationEmbedding
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ConversationEmbeddingRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.ConversationEmbedding{}), specs...)
	err := query.Count(&count).Error
	return count, err
}
