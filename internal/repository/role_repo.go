package repository

import (
	"context"

	"nimbus-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoleRepository interface {
	Create(ctx context.Context, role *model.FunctionalRole) error
	Update(ctx context.Context, role *model.FunctionalRole) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.FunctionalRole, error)
	FindByName(ctx context.Context, name string) (*model.FunctionalRole, error)
	ListAll(ctx context.Context) ([]model.FunctionalRole, error)
	ListRules(ctx context.Context, roleID uuid.UUID) ([]model.PermissionRule, error)
	ListRulesForRoles(ctx context.Context, roleIDs []uuid.UUID) ([]model.PermissionRule, error)
	ReplaceRules(ctx context.Context, roleID uuid.UUID, rules []model.PermissionRule) error
	RoleIDsGranting(ctx context.Context, entity model.EntityKind, capability model.Capability) ([]uuid.UUID, error)
	CountUserAssignments(ctx context.Context, roleID uuid.UUID) (int64, error)
	CountTransitionGrants(ctx context.Context, roleID uuid.UUID) (int64, error)
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *model.FunctionalRole) error {
	return GetDB(ctx, r.db).Create(role).Error
}

func (r *roleRepository) Update(ctx context.Context, role *model.FunctionalRole) error {
	return GetDB(ctx, r.db).Save(role).Error
}

func (r *roleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("role_id = ?", id).Delete(&model.PermissionRule{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.FunctionalRole{}).Error
}

func (r *roleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.FunctionalRole, error) {
	var role model.FunctionalRole
	if err := GetDB(ctx, r.db).First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*model.FunctionalRole, error) {
	var role model.FunctionalRole
	if err := GetDB(ctx, r.db).Where("LOWER(name) = LOWER(?)", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) ListAll(ctx context.Context) ([]model.FunctionalRole, error) {
	var roles []model.FunctionalRole
	if err := GetDB(ctx, r.db).Order("created_at asc").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepository) ListRules(ctx context.Context, roleID uuid.UUID) ([]model.PermissionRule, error) {
	var rules []model.PermissionRule
	if err := GetDB(ctx, r.db).Where("role_id = ?", roleID).Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *roleRepository) ListRulesForRoles(ctx context.Context, roleIDs []uuid.UUID) ([]model.PermissionRule, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}
	var rules []model.PermissionRule
	if err := GetDB(ctx, r.db).Where("role_id IN ?", roleIDs).Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// ReplaceRules swaps the full permission matrix of a role. Rows with no
// flag set are not persisted.
func (r *roleRepository) ReplaceRules(ctx context.Context, roleID uuid.UUID, rules []model.PermissionRule) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("role_id = ?", roleID).Delete(&model.PermissionRule{}).Error; err != nil {
		return err
	}
	kept := make([]model.PermissionRule, 0, len(rules))
	for _, rule := range rules {
		if !rule.HasAny() {
			continue
		}
		rule.RoleID = roleID
		kept = append(kept, rule)
	}
	if len(kept) == 0 {
		return nil
	}
	return db.Create(&kept).Error
}

func (r *roleRepository) RoleIDsGranting(ctx context.Context, entity model.EntityKind, capability model.Capability) ([]uuid.UUID, error) {
	column, ok := map[model.Capability]string{
		model.CapCreate: "perm_create",
		model.CapRead:   "perm_read",
		model.CapUpdate: "perm_update",
		model.CapDelete: "perm_delete",
		model.CapCancel: "perm_cancel",
	}[capability]
	if !ok {
		return nil, nil
	}

	var ids []uuid.UUID
	err := GetDB(ctx, r.db).
		Model(&model.PermissionRule{}).
		Where("entity_name = ? AND "+column+" = true", entity).
		Pluck("role_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *roleRepository) CountUserAssignments(ctx context.Context, roleID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).
		Model(&model.UserRole{}).
		Where("role_id = ?", roleID).
		Count(&count).Error
	return count, err
}

func (r *roleRepository) CountTransitionGrants(ctx context.Context, roleID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).
		Table("transition_roles").
		Where("functional_role_id = ?", roleID).
		Count(&count).Error
	return count, err
}
