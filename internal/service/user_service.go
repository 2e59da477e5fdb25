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

type CreateUserRequest struct {
	Username string   `json:"username" binding:"required"`
	Name     string   `json:"name" binding:"required"`
	Email    string   `json:"email" binding:"required,email"`
	RoleIDs  []string `json:"role_ids"`
}

type UpdateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	IsActive *bool  `json:"is_active"`
}

type UserDetailResponse struct {
	User  model.User             `json:"user"`
	Roles []model.FunctionalRole `json:"roles"`
}

// --- Interface ---

type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest, actor Actor) (*UserDetailResponse, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest, actor Actor) (*model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	GetUser(ctx context.Context, id uuid.UUID) (*UserDetailResponse, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	AssignRoles(ctx context.Context, userID uuid.UUID, roleIDs []string, actor Actor) (*UserDetailResponse, error)
}

type userService struct {
	users repository.UserRepository
	roles repository.RoleRepository
	txMgr repository.TransactionManager
}

func NewUserService(users repository.UserRepository, roles repository.RoleRepository, txMgr repository.TransactionManager) UserService {
	return &userService{users: users, roles: roles, txMgr: txMgr}
}

// --- Implementation ---

func (s *userService) CreateUser(ctx context.Context, req CreateUserRequest, actor Actor) (*UserDetailResponse, error) {
	var violations []string
	username := strings.TrimSpace(req.Username)
	if username == "" {
		violations = append(violations, "username cannot be empty")
	}
	if strings.TrimSpace(req.Name) == "" {
		violations = append(violations, "name cannot be empty")
	}
	if strings.TrimSpace(req.Email) == "" {
		violations = append(violations, "email cannot be empty")
	}

	roleIDs, roleViolations, err := s.resolveRoleIDs(ctx, req.RoleIDs)
	if err != nil {
		return nil, err
	}
	violations = append(violations, roleViolations...)

	if username != "" {
		if existing, err := s.users.FindByUsername(ctx, username); err == nil && existing != nil {
			violations = append(violations, fmt.Sprintf("username %q is already taken", username))
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
	}

	email := strings.TrimSpace(req.Email)
	if email != "" {
		if existing, err := s.users.FindByEmail(ctx, email); err == nil && existing != nil {
			violations = append(violations, fmt.Sprintf("email %q is already taken", email))
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
	}

	if len(violations) > 0 {
		return nil, apperr.NewValidation(violations...)
	}

	user := model.User{
		Username:  username,
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		IsActive:  true,
		CreatedBy: actor.UserIDPtr(),
	}

	err = s.txMgr.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.users.Create(txCtx, &user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if len(roleIDs) > 0 {
			if err := s.users.ReplaceRoles(txCtx, user.ID, roleIDs, actor.UserIDPtr()); err != nil {
				return fmt.Errorf("failed to assign roles: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetUser(ctx, user.ID)
}

func (s *userService) UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest, actor Actor) (*model.User, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	var violations []string
	if strings.TrimSpace(req.Name) == "" {
		violations = append(violations, "name cannot be empty")
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		violations = append(violations, "email cannot be empty")
	} else if !strings.EqualFold(email, user.Email) {
		if existing, err := s.users.FindByEmail(ctx, email); err == nil && existing != nil && existing.ID != user.ID {
			violations = append(violations, fmt.Sprintf("email %q is already taken", email))
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
	}
	if len(violations) > 0 {
		return nil, apperr.NewValidation(violations...)
	}

	user.Name = strings.TrimSpace(req.Name)
	user.Email = email
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedBy = actor.UserIDPtr()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *userService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, err := s.findUser(ctx, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*UserDetailResponse, error) {
	user, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}

	roleIDs, err := s.users.ListRoleIDs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list user roles: %w", err)
	}
	roles := make([]model.FunctionalRole, 0, len(roleIDs))
	for _, roleID := range roleIDs {
		role, err := s.roles.FindByID(ctx, roleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to fetch role: %w", err)
		}
		roles = append(roles, *role)
	}

	return &UserDetailResponse{User: *user, Roles: roles}, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]model.User, error) {
	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *userService) AssignRoles(ctx context.Context, userID uuid.UUID, rawRoleIDs []string, actor Actor) (*UserDetailResponse, error) {
	if _, err := s.findUser(ctx, userID); err != nil {
		return nil, err
	}

	roleIDs, violations, err := s.resolveRoleIDs(ctx, rawRoleIDs)
	if err != nil {
		return nil, err
	}
	if len(violations) > 0 {
		return nil, apperr.NewValidation(violations...)
	}

	if err := s.users.ReplaceRoles(ctx, userID, roleIDs, actor.UserIDPtr()); err != nil {
		return nil, fmt.Errorf("failed to assign roles: %w", err)
	}
	return s.GetUser(ctx, userID)
}

func (s *userService) resolveRoleIDs(ctx context.Context, raw []string) ([]uuid.UUID, []string, error) {
	var violations []string
	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		roleID, err := uuid.Parse(value)
		if err != nil {
			violations = append(violations, fmt.Sprintf("invalid role id %q", value))
			continue
		}
		if _, err := s.roles.FindByID(ctx, roleID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				violations = append(violations, fmt.Sprintf("role %s does not exist", roleID))
				continue
			}
			return nil, nil, fmt.Errorf("failed to fetch role: %w", err)
		}
		ids = append(ids, roleID)
	}
	return ids, violations, nil
}

func (s *userService) findUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("user not found")
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user, nil
}
