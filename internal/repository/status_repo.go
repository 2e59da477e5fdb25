package repository

import (
	"context"

	"nimbus-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StatusRepository interface {
	Create(ctx context.Context, status *model.DocumentStatus) error
	Update(ctx context.Context, status *model.DocumentStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.DocumentStatus, error)
	FindByName(ctx context.Context, documentType string, name model.StatusName) (*model.DocumentStatus, error)
	ListByDocumentType(ctx context.Context, documentType string) ([]model.DocumentStatus, error)
}

type statusRepository struct {
	db *gorm.DB
}

func NewStatusRepository(db *gorm.DB) StatusRepository {
	return &statusRepository{db: db}
}

func (r *statusRepository) Create(ctx context.Context, status *model.DocumentStatus) error {
	return GetDB(ctx, r.db).Create(status).Error
}

func (r *statusRepository) Update(ctx context.Context, status *model.DocumentStatus) error {
	return GetDB(ctx, r.db).Save(status).Error
}

func (r *statusRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.DocumentStatus{}).Error
}

func (r *statusRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.DocumentStatus, error) {
	var status model.DocumentStatus
	if err := GetDB(ctx, r.db).First(&status, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &status, nil
}

// FindByName matches the folded (lowercased, trimmed) form of the name.
func (r *statusRepository) FindByName(ctx context.Context, documentType string, name model.StatusName) (*model.DocumentStatus, error) {
	var status model.DocumentStatus
	err := GetDB(ctx, r.db).
		Where("document_type = ? AND LOWER(TRIM(status_name)) = ?", documentType, name.Fold()).
		First(&status).Error
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *statusRepository) ListByDocumentType(ctx context.Context, documentType string) ([]model.DocumentStatus, error) {
	var statuses []model.DocumentStatus
	err := GetDB(ctx, r.db).
		Where("document_type = ?", documentType).
		Order("created_at asc").
		Find(&statuses).Error
	if err != nil {
		return nil, err
	}
	return statuses, nil
}
