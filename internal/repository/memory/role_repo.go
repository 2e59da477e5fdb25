package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"nimbus-backend/internal/model"
	"nimbus-backend/internal/repository"

	"github.com/google/uuid"
)

type roleRepo struct{ store *Store }

func NewRoleRepository(store *Store) repository.RoleRepository {
	return &roleRepo{store: store}
}

func (r *roleRepo) Create(_ context.Context, role *model.FunctionalRole) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ensureID(&role.ID)
	r.store.roles[role.ID] = *role
	r.store.track(role.ID)
	return nil
}

func (r *roleRepo) Update(_ context.Context, role *model.FunctionalRole) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.roles[role.ID]; !ok {
		return errNotFound
	}
	r.store.roles[role.ID] = *role
	return nil
}

func (r *roleRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.roles, id)
	kept := r.store.rules[:0]
	for _, rule := range r.store.rules {
		if rule.RoleID != id {
			kept = append(kept, rule)
		}
	}
	r.store.rules = kept
	return nil
}

func (r *roleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.FunctionalRole, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	role, ok := r.store.roles[id]
	if !ok {
		return nil, errNotFound
	}
	return &role, nil
}

func (r *roleRepo) FindByName(_ context.Context, name string) (*model.FunctionalRole, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, role := range r.store.roles {
		if strings.EqualFold(role.Name, name) {
			found := role
			return &found, nil
		}
	}
	return nil, errNotFound
}

func (r *roleRepo) ListAll(_ context.Context) ([]model.FunctionalRole, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	roles := make([]model.FunctionalRole, 0, len(r.store.roles))
	for _, role := range r.store.roles {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool {
		return r.store.position(roles[i].ID) < r.store.position(roles[j].ID)
	})
	return roles, nil
}

func (r *roleRepo) ListRules(_ context.Context, roleID uuid.UUID) ([]model.PermissionRule, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var rules []model.PermissionRule
	for _, rule := range r.store.rules {
		if rule.RoleID == roleID {
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

func (r *roleRepo) ListRulesForRoles(_ context.Context, roleIDs []uuid.UUID) ([]model.PermissionRule, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	wanted := make(map[uuid.UUID]bool, len(roleIDs))
	for _, id := range roleIDs {
		wanted[id] = true
	}
	var rules []model.PermissionRule
	for _, rule := range r.store.rules {
		if wanted[rule.RoleID] {
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

func (r *roleRepo) ReplaceRules(_ context.Context, roleID uuid.UUID, rules []model.PermissionRule) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	kept := r.store.rules[:0]
	for _, rule := range r.store.rules {
		if rule.RoleID != roleID {
			kept = append(kept, rule)
		}
	}
	r.store.rules = kept
	for _, rule := range rules {
		if !rule.HasAny() {
			continue
		}
		ensureID(&rule.ID)
		rule.RoleID = roleID
		r.store.rules = append(r.store.rules, rule)
	}
	return nil
}

func (r *roleRepo) RoleIDsGranting(_ context.Context, entity model.EntityKind, capability model.Capability) ([]uuid.UUID, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var ids []uuid.UUID
	for _, rule := range r.store.rules {
		if rule.Entity == entity && rule.Grants(capability) {
			ids = append(ids, rule.RoleID)
		}
	}
	return ids, nil
}

func (r *roleRepo) CountUserAssignments(_ context.Context, roleID uuid.UUID) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var count int64
	for _, assignment := range r.store.userRoles {
		if assignment.RoleID == roleID {
			count++
		}
	}
	return count, nil
}

func (r *roleRepo) CountTransitionGrants(_ context.Context, roleID uuid.UUID) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var count int64
	for _, transition := range r.store.transitions {
		for _, role := range transition.AllowedRoles {
			if role.ID == roleID {
				count++
			}
		}
	}
	return count, nil
}

type userRepo struct{ store *Store }

func NewUserRepository(store *Store) repository.UserRepository {
	return &userRepo{store: store}
}

func (r *userRepo) Create(_ context.Context, user *model.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ensureID(&user.ID)
	r.store.users[user.ID] = *user
	r.store.track(user.ID)
	return nil
}

func (r *userRepo) Update(_ context.Context, user *model.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.users[user.ID]; !ok {
		return errNotFound
	}
	r.store.users[user.ID] = *user
	return nil
}

func (r *userRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.users, id)
	kept := r.store.userRoles[:0]
	for _, assignment := range r.store.userRoles {
		if assignment.UserID != id {
			kept = append(kept, assignment)
		}
	}
	r.store.userRoles = kept
	return nil
}

func (r *userRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	user, ok := r.store.users[id]
	if !ok {
		return nil, errNotFound
	}
	return &user, nil
}

func (r *userRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, user := range r.store.users {
		if user.Username == username {
			found := user
			return &found, nil
		}
	}
	return nil, errNotFound
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, user := range r.store.users {
		if strings.EqualFold(user.Email, email) {
			found := user
			return &found, nil
		}
	}
	return nil, errNotFound
}

func (r *userRepo) ListAll(_ context.Context) ([]model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	users := make([]model.User, 0, len(r.store.users))
	for _, user := range r.store.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		return r.store.position(users[i].ID) < r.store.position(users[j].ID)
	})
	return users, nil
}

func (r *userRepo) ListRoleIDs(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var ids []uuid.UUID
	for _, assignment := range r.store.userRoles {
		if assignment.UserID == userID {
			ids = append(ids, assignment.RoleID)
		}
	}
	return ids, nil
}

func (r *userRepo) ReplaceRoles(_ context.Context, userID uuid.UUID, roleIDs []uuid.UUID, assignedBy *uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	kept := r.store.userRoles[:0]
	for _, assignment := range r.store.userRoles {
		if assignment.UserID != userID {
			kept = append(kept, assignment)
		}
	}
	r.store.userRoles = kept
	now := time.Now()
	for _, roleID := range roleIDs {
		r.store.userRoles = append(r.store.userRoles, model.UserRole{
			UserID:     userID,
			RoleID:     roleID,
			AssignedAt: now,
			AssignedBy: assignedBy,
		})
	}
	return nil
}
