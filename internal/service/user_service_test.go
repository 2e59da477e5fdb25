package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nimbus-backend/internal/apperr"
	"nimbus-backend/internal/model"
	"nimbus-backend/internal/repository/memory"
)

func newUserFixture(t *testing.T) (UserService, *memory.Store, context.Context) {
	t.Helper()
	store := memory.NewStore()
	svc := NewUserService(
		memory.NewUserRepository(store),
		memory.NewRoleRepository(store),
		memory.NewTxManager(),
	)
	return svc, store, context.Background()
}

func TestCreateUser(t *testing.T) {
	svc, store, ctx := newUserFixture(t)

	role := &model.FunctionalRole{Name: "Purchasing"}
	require.NoError(t, memory.NewRoleRepository(store).Create(ctx, role))

	actor := Actor{UserID: uuid.New()}
	detail, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "jdoe",
		Name:     "J. Doe",
		Email:    "jdoe@example.com",
		RoleIDs:  []string{role.ID.String()},
	}, actor)
	require.NoError(t, err)
	assert.True(t, detail.User.IsActive)
	require.NotNil(t, detail.User.CreatedBy)
	assert.Equal(t, actor.UserID, *detail.User.CreatedBy)
	require.Len(t, detail.Roles, 1)
	assert.Equal(t, "Purchasing", detail.Roles[0].Name)
}

func TestCreateUserCollectsViolations(t *testing.T) {
	svc, _, ctx := newUserFixture(t)

	_, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "  ",
		Name:     "",
		Email:    "",
		RoleIDs:  []string{"nope", uuid.NewString()},
	}, Actor{})
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Len(t, v.Violations, 5)
}

func TestCreateUserRejectsDuplicateUsername(t *testing.T) {
	svc, _, ctx := newUserFixture(t)

	_, err := svc.CreateUser(ctx, CreateUserRequest{Username: "jdoe", Name: "J. Doe", Email: "jdoe@example.com"}, Actor{})
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, CreateUserRequest{Username: "jdoe", Name: "Other", Email: "other@example.com"}, Actor{})
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Violations, `username "jdoe" is already taken`)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	svc, _, ctx := newUserFixture(t)

	_, err := svc.CreateUser(ctx, CreateUserRequest{Username: "jdoe", Name: "J. Doe", Email: "jdoe@example.com"}, Actor{})
	require.NoError(t, err)

	// Folded comparison: the mailbox is the same address.
	_, err = svc.CreateUser(ctx, CreateUserRequest{Username: "other", Name: "Other", Email: "JDoe@Example.com"}, Actor{})
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Violations, `email "JDoe@Example.com" is already taken`)
}

func TestUpdateUserRejectsDuplicateEmail(t *testing.T) {
	svc, _, ctx := newUserFixture(t)

	_, err := svc.CreateUser(ctx, CreateUserRequest{Username: "jdoe", Name: "J. Doe", Email: "jdoe@example.com"}, Actor{})
	require.NoError(t, err)
	second, err := svc.CreateUser(ctx, CreateUserRequest{Username: "asmith", Name: "A. Smith", Email: "asmith@example.com"}, Actor{})
	require.NoError(t, err)

	_, err = svc.UpdateUser(ctx, second.User.ID, UpdateUserRequest{Name: "A. Smith", Email: "jdoe@example.com"}, Actor{})
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Violations, `email "jdoe@example.com" is already taken`)

	// Keeping your own address is not a collision.
	user, err := svc.UpdateUser(ctx, second.User.ID, UpdateUserRequest{Name: "A. Smith", Email: "ASmith@example.com"}, Actor{})
	require.NoError(t, err)
	assert.Equal(t, "ASmith@example.com", user.Email)
}

func TestUpdateUser(t *testing.T) {
	svc, _, ctx := newUserFixture(t)

	detail, err := svc.CreateUser(ctx, CreateUserRequest{Username: "jdoe", Name: "J. Doe", Email: "jdoe@example.com"}, Actor{})
	require.NoError(t, err)

	inactive := false
	user, err := svc.UpdateUser(ctx, detail.User.ID, UpdateUserRequest{
		Name:     "Jay Doe",
		Email:    "jay@example.com",
		IsActive: &inactive,
	}, Actor{UserID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, "Jay Doe", user.Name)
	assert.False(t, user.IsActive)
	assert.NotNil(t, user.UpdatedBy)

	// Omitting is_active leaves the flag alone.
	user, err = svc.UpdateUser(ctx, detail.User.ID, UpdateUserRequest{Name: "Jay Doe", Email: "jay@example.com"}, Actor{})
	require.NoError(t, err)
	assert.False(t, user.IsActive)
}

func TestAssignRolesReplacesSet(t *testing.T) {
	svc, store, ctx := newUserFixture(t)
	roles := memory.NewRoleRepository(store)

	first := &model.FunctionalRole{Name: "First"}
	second := &model.FunctionalRole{Name: "Second"}
	require.NoError(t, roles.Create(ctx, first))
	require.NoError(t, roles.Create(ctx, second))

	detail, err := svc.CreateUser(ctx, CreateUserRequest{
		Username: "jdoe", Name: "J. Doe", Email: "jdoe@example.com",
		RoleIDs: []string{first.ID.String()},
	}, Actor{})
	require.NoError(t, err)

	detail, err = svc.AssignRoles(ctx, detail.User.ID, []string{second.ID.String()}, Actor{})
	require.NoError(t, err)
	require.Len(t, detail.Roles, 1)
	assert.Equal(t, "Second", detail.Roles[0].Name)

	// Clearing all roles is legal.
	detail, err = svc.AssignRoles(ctx, detail.User.ID, nil, Actor{})
	require.NoError(t, err)
	assert.Empty(t, detail.Roles)

	_, err = svc.AssignRoles(ctx, detail.User.ID, []string{uuid.NewString()}, Actor{})
	_, ok := apperr.AsValidation(err)
	assert.True(t, ok)
}

func TestDeleteUser(t *testing.T) {
	svc, _, ctx := newUserFixture(t)

	detail, err := svc.CreateUser(ctx, CreateUserRequest{Username: "jdoe", Name: "J. Doe", Email: "jdoe@example.com"}, Actor{})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteUser(ctx, detail.User.ID))
	assert.True(t, apperr.IsNotFound(svc.DeleteUser(ctx, detail.User.ID)))
	_, err = svc.GetUser(ctx, detail.User.ID)
	assert.True(t, apperr.IsNotFound(err))
}
