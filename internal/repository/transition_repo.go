package repository

import (
	"context"

	"nimbus-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransitionRepository interface {
	Create(ctx context.Context, transition *model.WorkflowTransition) error
	Update(ctx context.Context, transition *model.WorkflowTransition) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.WorkflowTransition, error)
	ListByDocumentType(ctx context.Context, documentType string) ([]model.WorkflowTransition, error)
	ReplaceRoles(ctx context.Context, transitionID uuid.UUID, roleIDs []uuid.UUID) error
}

type transitionRepository struct {
	db *gorm.DB
}

func NewTransitionRepository(db *gorm.DB) TransitionRepository {
	return &transitionRepository{db: db}
}

func (r *transitionRepository) Create(ctx context.Context, transition *model.WorkflowTransition) error {
	return GetDB(ctx, r.db).Create(transition).Error
}

func (r *transitionRepository) Update(ctx context.Context, transition *model.WorkflowTransition) error {
	db := GetDB(ctx, r.db)
	if err := db.Save(transition).Error; err != nil {
		return err
	}
	return db.Model(transition).Association("AllowedRoles").Replace(transition.AllowedRoles)
}

func (r *transitionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Exec("DELETE FROM transition_roles WHERE workflow_transition_id = ?", id).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.WorkflowTransition{}).Error
}

func (r *transitionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.WorkflowTransition, error) {
	var transition model.WorkflowTransition
	if err := GetDB(ctx, r.db).Preload("AllowedRoles").First(&transition, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &transition, nil
}

func (r *transitionRepository) ListByDocumentType(ctx context.Context, documentType string) ([]model.WorkflowTransition, error) {
	var transitions []model.WorkflowTransition
	err := GetDB(ctx, r.db).
		Preload("AllowedRoles").
		Where("document_type = ?", documentType).
		Order("created_at asc").
		Find(&transitions).Error
	if err != nil {
		return nil, err
	}
	return transitions, nil
}

func (r *transitionRepository) ReplaceRoles(ctx context.Context, transitionID uuid.UUID, roleIDs []uuid.UUID) error {
	db := GetDB(ctx, r.db)
	var transition model.WorkflowTransition
	if err := db.First(&transition, "id = ?", transitionID).Error; err != nil {
		return err
	}

	var roles []model.FunctionalRole
	if err := db.Where("id IN ?", roleIDs).Find(&roles).Error; err != nil {
		return err
	}

	return db.Model(&transition).Association("AllowedRoles").Replace(roles)
}
