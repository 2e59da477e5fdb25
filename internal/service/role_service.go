package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nimbus-backend/internal/apperr"
	"nimbus-backend/internal/model"
	"nimbus-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateRoleRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type PermissionRuleInput struct {
	Entity    string `json:"entity" binding:"required"`
	CanCreate bool   `json:"create"`
	CanRead   bool   `json:"read"`
	CanUpdate bool   `json:"update"`
	CanDelete bool   `json:"delete"`
	CanCancel bool   `json:"cancel"`
}

type RoleDetailResponse struct {
	Role  model.FunctionalRole   `json:"role"`
	Rules []model.PermissionRule `json:"rules"`
}

// --- Interface ---

// RoleService manages functional roles and their permission matrix, and
// answers capability questions for a user's role set.
type RoleService interface {
	CreateRole(ctx context.Context, req CreateRoleRequest) (*model.FunctionalRole, error)
	UpdateRole(ctx context.Context, id uuid.UUID, req UpdateRoleRequest) (*model.FunctionalRole, error)
	DeleteRole(ctx context.Context, id uuid.UUID) error
	GetRole(ctx context.Context, id uuid.UUID) (*RoleDetailResponse, error)
	ListRoles(ctx context.Context) ([]model.FunctionalRole, error)

	SetPermissions(ctx context.Context, roleID uuid.UUID, rules []PermissionRuleInput) (*RoleDetailResponse, error)
	EffectiveCapabilities(ctx context.Context, roleIDs []uuid.UUID) (map[model.EntityKind]model.CapabilitySet, error)
	Allowed(ctx context.Context, roleIDs []uuid.UUID, entity model.EntityKind, capability model.Capability) (bool, error)
	RolesGranting(ctx context.Context, entity model.EntityKind, capability model.Capability) ([]uuid.UUID, error)
}

type roleService struct {
	roles repository.RoleRepository
}

func NewRoleService(roles repository.RoleRepository) RoleService {
	return &roleService{roles: roles}
}

// --- Implementation ---

func (s *roleService) CreateRole(ctx context.Context, req CreateRoleRequest) (*model.FunctionalRole, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.NewValidation("role name cannot be empty")
	}

	if existing, err := s.roles.FindByName(ctx, name); err == nil && existing != nil {
		return nil, apperr.NewValidation(fmt.Sprintf("role %q already exists", name))
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check role name: %w", err)
	}

	role := model.FunctionalRole{
		Name:        name,
		Description: req.Description,
	}
	if err := s.roles.Create(ctx, &role); err != nil {
		return nil, fmt.Errorf("failed to create role: %w", err)
	}
	return &role, nil
}

func (s *roleService) UpdateRole(ctx context.Context, id uuid.UUID, req UpdateRoleRequest) (*model.FunctionalRole, error) {
	role, err := s.findRole(ctx, id)
	if err != nil {
		return nil, err
	}
	if role.IsSystem {
		return nil, apperr.NewState(fmt.Sprintf("system role %q cannot be modified", role.Name))
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperr.NewValidation("role name cannot be empty")
	}
	if name != role.Name {
		if existing, err := s.roles.FindByName(ctx, name); err == nil && existing != nil && existing.ID != role.ID {
			return nil, apperr.NewValidation(fmt.Sprintf("role %q already exists", name))
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check role name: %w", err)
		}
	}

	role.Name = name
	role.Description = req.Description
	if err := s.roles.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	return role, nil
}

func (s *roleService) DeleteRole(ctx context.Context, id uuid.UUID) error {
	role, err := s.findRole(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return apperr.NewState(fmt.Sprintf("system role %q cannot be deleted", role.Name))
	}

	assignments, err := s.roles.CountUserAssignments(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count role assignments: %w", err)
	}
	if assignments > 0 {
		return apperr.NewReferential(fmt.Sprintf("role %q is assigned to %d user(s) and cannot be deleted", role.Name, assignments))
	}

	grants, err := s.roles.CountTransitionGrants(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count transition grants: %w", err)
	}
	if grants > 0 {
		return apperr.NewReferential(fmt.Sprintf("role %q gates %d workflow transition(s) and cannot be deleted", role.Name, grants))
	}

	if err := s.roles.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	return nil
}

func (s *roleService) GetRole(ctx context.Context, id uuid.UUID) (*RoleDetailResponse, error) {
	role, err := s.findRole(ctx, id)
	if err != nil {
		return nil, err
	}
	rules, err := s.roles.ListRules(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list permission rules: %w", err)
	}
	return &RoleDetailResponse{Role: *role, Rules: rules}, nil
}

func (s *roleService) ListRoles(ctx context.Context) ([]model.FunctionalRole, error) {
	roles, err := s.roles.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

func (s *roleService) SetPermissions(ctx context.Context, roleID uuid.UUID, inputs []PermissionRuleInput) (*RoleDetailResponse, error) {
	role, err := s.findRole(ctx, roleID)
	if err != nil {
		return nil, err
	}

	var violations []string
	seen := make(map[model.EntityKind]bool)
	rules := make([]model.PermissionRule, 0, len(inputs))
	for _, input := range inputs {
		entity := model.EntityKind(input.Entity)
		if !model.ValidEntityKind(input.Entity) {
			violations = append(violations, fmt.Sprintf("unknown entity %q", input.Entity))
			continue
		}
		if seen[entity] {
			violations = append(violations, fmt.Sprintf("duplicate entry for entity %q", input.Entity))
			continue
		}
		seen[entity] = true
		rules = append(rules, model.PermissionRule{
			RoleID:    roleID,
			Entity:    entity,
			CanCreate: input.CanCreate,
			CanRead:   input.CanRead,
			CanUpdate: input.CanUpdate,
			CanDelete: input.CanDelete,
			CanCancel: input.CanCancel,
		})
	}
	if len(violations) > 0 {
		return nil, apperr.NewValidation(violations...)
	}

	if err := s.roles.ReplaceRules(ctx, roleID, rules); err != nil {
		return nil, fmt.Errorf("failed to replace permission rules: %w", err)
	}

	saved, err := s.roles.ListRules(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list permission rules: %w", err)
	}
	return &RoleDetailResponse{Role: *role, Rules: saved}, nil
}

// EffectiveCapabilities unions the rules of every given role into one
// capability set per entity. Entities with no grant are present with an
// all-false set.
func (s *roleService) EffectiveCapabilities(ctx context.Context, roleIDs []uuid.UUID) (map[model.EntityKind]model.CapabilitySet, error) {
	rules, err := s.roles.ListRulesForRoles(ctx, roleIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list permission rules: %w", err)
	}

	capabilities := make(map[model.EntityKind]model.CapabilitySet, len(model.AllEntityKinds()))
	for _, entity := range model.AllEntityKinds() {
		capabilities[entity] = model.CapabilitySet{}
	}
	for _, rule := range rules {
		set := capabilities[rule.Entity]
		set.Merge(rule)
		capabilities[rule.Entity] = set
	}
	return capabilities, nil
}

func (s *roleService) Allowed(ctx context.Context, roleIDs []uuid.UUID, entity model.EntityKind, capability model.Capability) (bool, error) {
	rules, err := s.roles.ListRulesForRoles(ctx, roleIDs)
	if err != nil {
		return false, fmt.Errorf("failed to list permission rules: %w", err)
	}
	for _, rule := range rules {
		if rule.Entity == entity && rule.Grants(capability) {
			return true, nil
		}
	}
	return false, nil
}

func (s *roleService) RolesGranting(ctx context.Context, entity model.EntityKind, capability model.Capability) ([]uuid.UUID, error) {
	ids, err := s.roles.RoleIDsGranting(ctx, entity, capability)
	if err != nil {
		return nil, fmt.Errorf("failed to query granting roles: %w", err)
	}
	return ids, nil
}

func (s *roleService) findRole(ctx context.Context, id uuid.UUID) (*model.FunctionalRole, error) {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("role not found")
		}
		return nil, fmt.Errorf("failed to fetch role: %w", err)
	}
	return role, nil
}
