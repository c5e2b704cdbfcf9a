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

type GlowSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.GlowSessionMapper
}

func NewGlowSessionRepository(db *gorm.DB) contract.GlowSessionRepository {
	return &GlowSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewGlowSessionMapper(),
	}
}

func (r *GlowSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *GlowSessionRepositoryImpl) Create(ctx context.Context, session *entity.GlowSession) error {
	m := r.mapper.ToModel(session)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}

func (r *GlowSessionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.GlowSession, error) {
	var m model.GlowSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *GlowSessionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.GlowSession, error) {
	var models []*model.GlowSession
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *GlowSessionRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.GlowSession{}), specs...)
	err := query.Count(&count).Error
	return count, err
}
