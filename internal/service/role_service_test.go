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

func newRoleFixture(t *testing.T) (RoleService, *memory.Store, context.Context) {
	t.Helper()
	store := memory.NewStore()
	return NewRoleService(memory.NewRoleRepository(store)), store, context.Background()
}

func TestCreateRole(t *testing.T) {
	svc, _, ctx := newRoleFixture(t)

	role, err := svc.CreateRole(ctx, CreateRoleRequest{Name: "Purchasing", Description: "Creates orders"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, role.ID)
	assert.False(t, role.IsSystem)

	_, err = svc.CreateRole(ctx, CreateRoleRequest{Name: "Purchasing"})
	_, ok := apperr.AsValidation(err)
	assert.True(t, ok)

	// Uniqueness is case-insensitive.
	_, err = svc.CreateRole(ctx, CreateRoleRequest{Name: "PURCHASING"})
	_, ok = apperr.AsValidation(err)
	assert.True(t, ok)

	_, err = svc.CreateRole(ctx, CreateRoleRequest{Name: "   "})
	_, ok = apperr.AsValidation(err)
	assert.True(t, ok)
}

func TestSystemRoleIsProtected(t *testing.T) {
	svc, store, ctx := newRoleFixture(t)

	admin := &model.FunctionalRole{Name: "Admin", IsSystem: true}
	require.NoError(t, memory.NewRoleRepository(store).Create(ctx, admin))

	_, err := svc.UpdateRole(ctx, admin.ID, UpdateRoleRequest{Name: "Root"})
	assert.True(t, apperr.IsState(err))
	assert.True(t, apperr.IsState(svc.DeleteRole(ctx, admin.ID)))
}

func TestDeleteRoleBlockedByReferences(t *testing.T) {
	svc, store, ctx := newRoleFixture(t)

	assigned, err := svc.CreateRole(ctx, CreateRoleRequest{Name: "Assigned"})
	require.NoError(t, err)
	gating, err := svc.CreateRole(ctx, CreateRoleRequest{Name: "Gating"})
	require.NoError(t, err)
	free, err := svc.CreateRole(ctx, CreateRoleRequest{Name: "Free"})
	require.NoError(t, err)

	users := memory.NewUserRepository(store)
	user := &model.User{Username: "jdoe", Name: "J. Doe", Email: "jdoe@example.com", IsActive: true}
	require.NoError(t, users.Create(ctx, user))
	require.NoError(t, users.ReplaceRoles(ctx, user.ID, []uuid.UUID{assigned.ID}, nil))

	transitions := memory.NewTransitionRepository(store)
	require.NoError(t, transitions.Create(ctx, &model.WorkflowTransition{
		DocumentType: model.DocTypePurchaseOrder,
		FromStatus:   "Draft",
		ToStatus:     "Submitted",
		AllowedRoles: []model.FunctionalRole{*gating},
	}))

	assert.True(t, apperr.IsReferential(svc.DeleteRole(ctx, assigned.ID)))
	assert.True(t, apperr.IsReferential(svc.DeleteRole(ctx, gating.ID)))
	assert.NoError(t, svc.DeleteRole(ctx, free.ID))
	assert.True(t, apperr.IsNotFound(svc.DeleteRole(ctx, free.ID)))
}

func TestSetPermissions(t *testing.T) {
	svc, _, ctx := newRoleFixture(t)

	role, err := svc.CreateRole(ctx, CreateRoleRequest{Name: "Clerk"})
	require.NoError(t, err)

	detail, err := svc.SetPermissions(ctx, role.ID, []PermissionRuleInput{
		{Entity: string(model.EntityPurchaseOrder), CanCreate: true, CanRead: true},
		{Entity: string(model.EntityItem), CanRead: true},
		{Entity: string(model.EntitySupplier)}, // all false, dropped
	})
	require.NoError(t, err)
	assert.Len(t, detail.Rules, 2)

	// Replacement is wholesale, not additive.
	detail, err = svc.SetPermissions(ctx, role.ID, []PermissionRuleInput{
		{Entity: string(model.EntityItem), CanRead: true, CanUpdate: true},
	})
	require.NoError(t, err)
	require.Len(t, detail.Rules, 1)
	assert.Equal(t, model.EntityItem, detail.Rules[0].Entity)
}

func TestSetPermissionsValidatesEntities(t *testing.T) {
	svc, _, ctx := newRoleFixture(t)

	role, err := svc.CreateRole(ctx, CreateRoleRequest{Name: "Clerk"})
	require.NoError(t, err)

	_, err = svc.SetPermissions(ctx, role.ID, []PermissionRuleInput{
		{Entity: "Gadget", CanRead: true},
		{Entity: string(model.EntityItem), CanRead: true},
		{Entity: string(model.EntityItem), CanUpdate: true},
	})
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Violations, `unknown entity "Gadget"`)
	assert.Contains(t, v.Violations, `duplicate entry for entity "Item"`)
}

func TestEffectiveCapabilitiesUnionsRoles(t *testing.T) {
	svc, _, ctx := newRoleFixture(t)

	clerk, err := svc.CreateRole(ctx, CreateRoleRequest{Name: "Clerk"})
	require.NoError(t, err)
	approver, err := svc.CreateRole(ctx, CreateRoleRequest{Name: "Approver"})
	require.NoError(t, err)

	_, err = svc.SetPermissions(ctx, clerk.ID, []PermissionRuleInput{
		{Entity: string(model.EntityPurchaseOrder), CanCreate: true, CanRead: true},
	})
	require.NoError(t, err)
	_, err = svc.SetPermissions(ctx, approver.ID, []PermissionRuleInput{
		{Entity: string(model.EntityPurchaseOrder), CanRead: true, CanUpdate: true, CanCancel: true},
	})
	require.NoError(t, err)

	capabilities, err := svc.EffectiveCapabilities(ctx, []uuid.UUID{clerk.ID, approver.ID})
	require.NoError(t, err)

	po := capabilities[model.EntityPurchaseOrder]
	assert.True(t, po.Has(model.CapCreate))
	assert.True(t, po.Has(model.CapRead))
	assert.True(t, po.Has(model.CapUpdate))
	assert.True(t, po.Has(model.CapCancel))
	assert.False(t, po.Has(model.CapDelete))

	// Every entity appears, even without a grant.
	require.Len(t, capabilities, len(model.AllEntityKinds()))
	assert.False(t, capabilities[model.EntityUser].Has(model.CapRead))
}

func TestAllowedAndRolesGranting(t *testing.T) {
	svc, _, ctx := newRoleFixture(t)

	clerk, err := svc.CreateRole(ctx, CreateRoleRequest{Name: "Clerk"})
	require.NoError(t, err)
	_, err = svc.SetPermissions(ctx, clerk.ID, []PermissionRuleInput{
		{Entity: string(model.EntityPurchaseOrder), CanCreate: true},
	})
	require.NoError(t, err)

	allowed, err := svc.Allowed(ctx, []uuid.UUID{clerk.ID}, model.EntityPurchaseOrder, model.CapCreate)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = svc.Allowed(ctx, []uuid.UUID{clerk.ID}, model.EntityPurchaseOrder, model.CapDelete)
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = svc.Allowed(ctx, nil, model.EntityPurchaseOrder, model.CapCreate)
	require.NoError(t, err)
	assert.False(t, allowed)

	ids, err := svc.RolesGranting(ctx, model.EntityPurchaseOrder, model.CapCreate)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{clerk.ID}, ids)
}
