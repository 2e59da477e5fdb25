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

type workflowFixture struct {
	store    *memory.Store
	workflow WorkflowService
}

func newWorkflowFixture(t *testing.T) (*workflowFixture, context.Context) {
	t.Helper()
	store := memory.NewStore()
	workflow := NewWorkflowService(
		memory.NewStatusRepository(store),
		memory.NewTransitionRepository(store),
		memory.NewRoleRepository(store),
		memory.NewPurchaseOrderRepository(store),
	)
	return &workflowFixture{store: store, workflow: workflow}, context.Background()
}

func (f *workflowFixture) mustStatus(t *testing.T, ctx context.Context, name string, initial, final bool) *model.DocumentStatus {
	t.Helper()
	status, err := f.workflow.CreateStatus(ctx, CreateStatusRequest{
		DocumentType: model.DocTypePurchaseOrder,
		Name:         name,
		IsInitial:    initial,
		IsFinal:      final,
	})
	require.NoError(t, err)
	return status
}

func (f *workflowFixture) mustRole(t *testing.T, ctx context.Context, name string) *model.FunctionalRole {
	t.Helper()
	role := &model.FunctionalRole{Name: name}
	require.NoError(t, memory.NewRoleRepository(f.store).Create(ctx, role))
	return role
}

func TestCreateStatus(t *testing.T) {
	f, ctx := newWorkflowFixture(t)

	status := f.mustStatus(t, ctx, "Draft", true, false)
	assert.NotEqual(t, uuid.Nil, status.ID)
	assert.True(t, status.IsInitial)
	assert.False(t, status.IsFinal)
}

func TestCreateStatusRejectsDuplicateFoldedName(t *testing.T) {
	f, ctx := newWorkflowFixture(t)
	f.mustStatus(t, ctx, "Draft", true, false)

	_, err := f.workflow.CreateStatus(ctx, CreateStatusRequest{
		DocumentType: model.DocTypePurchaseOrder,
		Name:         "  draft ",
	})
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Violations[0], "already exists")
}

func TestCreateStatusRejectsInitialAndFinal(t *testing.T) {
	f, ctx := newWorkflowFixture(t)

	_, err := f.workflow.CreateStatus(ctx, CreateStatusRequest{
		DocumentType: model.DocTypePurchaseOrder,
		Name:         "Limbo",
		IsInitial:    true,
		IsFinal:      true,
	})
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Violations, "a status cannot be both initial and final")
}

func TestCreateStatusRejectsUnknownDocumentType(t *testing.T) {
	f, ctx := newWorkflowFixture(t)

	_, err := f.workflow.CreateStatus(ctx, CreateStatusRequest{
		DocumentType: "Invoice",
		Name:         "Draft",
	})
	_, ok := apperr.AsValidation(err)
	assert.True(t, ok)
}

func TestUpdateStatusRenameBlockedWhenReferenced(t *testing.T) {
	f, ctx := newWorkflowFixture(t)
	draft := f.mustStatus(t, ctx, "Draft", true, false)
	f.mustStatus(t, ctx, "Submitted", false, false)
	role := f.mustRole(t, ctx, "Purchasing")

	_, err := f.workflow.CreateTransition(ctx, CreateTransitionRequest{
		DocumentType: model.DocTypePurchaseOrder,
		FromStatus:   "Draft",
		ToStatus:     "Submitted",
		RoleIDs:      []string{role.ID.String()},
	})
	require.NoError(t, err)

	_, err = f.workflow.UpdateStatus(ctx, draft.ID, UpdateStatusRequest{Name: "Sketch", IsInitial: true})
	assert.True(t, apperr.IsReferential(err))

	// Flag changes that keep the name are still allowed.
	updated, err := f.workflow.UpdateStatus(ctx, draft.ID, UpdateStatusRequest{Name: "draft", IsInitial: false})
	require.NoError(t, err)
	assert.False(t, updated.IsInitial)
}

func TestUpdateStatusFinalFlagBlockedWithOutgoingTransitions(t *testing.T) {
	f, ctx := newWorkflowFixture(t)
	draft := f.mustStatus(t, ctx, "Draft", true, false)
	submitted := f.mustStatus(t, ctx, "Submitted", false, false)
	role := f.mustRole(t, ctx, "Purchasing")

	_, err := f.workflow.CreateTransition(ctx, CreateTransitionRequest{
		DocumentType: model.DocTypePurchaseOrder,
		FromStatus:   "Draft",
		ToStatus:     "Submitted",
		RoleIDs:      []string{role.ID.String()},
	})
	require.NoError(t, err)

	// A final status has no outgoing transitions, so the flag cannot be
	// set while the Draft -> Submitted edge exists.
	_, err = f.workflow.UpdateStatus(ctx, draft.ID, UpdateStatusRequest{Name: "Draft", IsFinal: true})
	assert.True(t, apperr.IsReferential(err))

	// Incoming edges do not block it.
	updated, err := f.workflow.UpdateStatus(ctx, submitted.ID, UpdateStatusRequest{Name: "Submitted", IsFinal: true})
	require.NoError(t, err)
	assert.True(t, updated.IsFinal)
}

func TestAllInitialStatusesAndIsFinal(t *testing.T) {
	f, ctx := newWorkflowFixture(t)
	f.mustStatus(t, ctx, "Draft", true, false)
	f.mustStatus(t, ctx, "Imported", true, false)
	f.mustStatus(t, ctx, "Cancelled", false, true)

	initial, err := f.workflow.AllInitialStatuses(ctx, model.DocTypePurchaseOrder)
	require.NoError(t, err)
	require.Len(t, initial, 2)
	assert.True(t, initial[0].Name.Equal("Draft"))
	assert.True(t, initial[1].Name.Equal("Imported"))

	final, err := f.workflow.IsFinal(ctx, model.DocTypePurchaseOrder, "cancelled")
	require.NoError(t, err)
	assert.True(t, final)

	final, err = f.workflow.IsFinal(ctx, model.DocTypePurchaseOrder, "Draft")
	require.NoError(t, err)
	assert.False(t, final)

	// An unconfigured name is simply not final.
	final, err = f.workflow.IsFinal(ctx, model.DocTypePurchaseOrder, "Ghost")
	require.NoError(t, err)
	assert.False(t, final)
}

func TestDeleteStatusBlockedWhenReferenced(t *testing.T) {
	f, ctx := newWorkflowFixture(t)
	draft := f.mustStatus(t, ctx, "Draft", true, false)
	orphan := f.mustStatus(t, ctx, "Orphan", false, false)
	f.mustStatus(t, ctx, "Submitted", false, false)
	role := f.mustRole(t, ctx, "Purchasing")

	_, err := f.workflow.CreateTransition(ctx, CreateTransitionRequest{
		DocumentType: model.DocTypePurchaseOrder,
		FromStatus:   "Draft",
		ToStatus:     "Submitted",
		RoleIDs:      []string{role.ID.String()},
	})
	require.NoError(t, err)

	assert.True(t, apperr.IsReferential(f.workflow.DeleteStatus(ctx, draft.ID)))
	assert.NoError(t, f.workflow.DeleteStatus(ctx, orphan.ID))
}

func TestCreateTransitionCollectsViolations(t *testing.T) {
	f, ctx := newWorkflowFixture(t)
	f.mustStatus(t, ctx, "Completed", false, true)

	_, err := f.workflow.CreateTransition(ctx, CreateTransitionRequest{
		DocumentType: model.DocTypePurchaseOrder,
		FromStatus:   "Completed",
		ToStatus:     "Nowhere",
		RoleIDs:      nil,
	})
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Violations, `status "Completed" is final and cannot have outgoing transitions`)
	assert.Contains(t, v.Violations, `to status "Nowhere" is not configured`)
	assert.Contains(t, v.Violations, "at least one role must be allowed to execute the transition")
}

func TestCreateTransitionRejectsSelfLoop(t *testing.T) {
	f, ctx := newWorkflowFixture(t)
	f.mustStatus(t, ctx, "Draft", true, false)
	role := f.mustRole(t, ctx, "Purchasing")

	_, err := f.workflow.CreateTransition(ctx, CreateTransitionRequest{
		DocumentType: model.DocTypePurchaseOrder,
		FromStatus:   "Draft",
		ToStatus:     " DRAFT ",
		RoleIDs:      []string{role.ID.String()},
	})
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Violations, "a transition cannot loop back to its own status")
}

func TestCreateTransitionRejectsDuplicateEdge(t *testing.T) {
	f, ctx := newWorkflowFixture(t)
	f.mustStatus(t, ctx, "Draft", true, false)
	f.mustStatus(t, ctx, "Submitted", false, false)
	role := f.mustRole(t, ctx, "Purchasing")

	req := CreateTransitionRequest{
		DocumentType: model.DocTypePurchaseOrder,
		FromStatus:   "Draft",
		ToStatus:     "Submitted",
		RoleIDs:      []string{role.ID.String()},
	}
	_, err := f.workflow.CreateTransition(ctx, req)
	require.NoError(t, err)

	req.FromStatus = "draft"
	req.ToStatus = "SUBMITTED"
	_, err = f.workflow.CreateTransition(ctx, req)
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Violations[0], "already exists")
}

func TestCreateTransitionRejectsUnknownRole(t *testing.T) {
	f, ctx := newWorkflowFixture(t)
	f.mustStatus(t, ctx, "Draft", true, false)
	f.mustStatus(t, ctx, "Submitted", false, false)

	_, err := f.workflow.CreateTransition(ctx, CreateTransitionRequest{
		DocumentType: model.DocTypePurchaseOrder,
		FromStatus:   "Draft",
		ToStatus:     "Submitted",
		RoleIDs:      []string{uuid.NewString(), "not-a-uuid"},
	})
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Len(t, v.Violations, 2)
}

func TestAvailableTransitionsFiltersByRole(t *testing.T) {
	f, ctx := newWorkflowFixture(t)
	f.mustStatus(t, ctx, "Draft", true, false)
	f.mustStatus(t, ctx, "Submitted", false, false)
	f.mustStatus(t, ctx, "Cancelled", false, true)
	purchasing := f.mustRole(t, ctx, "Purchasing")
	manager := f.mustRole(t, ctx, "Manager")

	_, err := f.workflow.CreateTransition(ctx, CreateTransitionRequest{
		DocumentType: model.DocTypePurchaseOrder,
		FromStatus:   "Draft",
		ToStatus:     "Submitted",
		RoleIDs:      []string{purchasing.ID.String()},
	})
	require.NoError(t, err)
	_, err = f.workflow.CreateTransition(ctx, CreateTransitionRequest{
		DocumentType: model.DocTypePurchaseOrder,
		FromStatus:   "Draft",
		ToStatus:     "Cancelled",
		RoleIDs:      []string{manager.ID.String()},
	})
	require.NoError(t, err)

	available, err := f.workflow.AvailableTransitions(ctx, model.DocTypePurchaseOrder, "draft", []uuid.UUID{purchasing.ID})
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.True(t, available[0].ToStatus.Equal("Submitted"))

	available, err = f.workflow.AvailableTransitions(ctx, model.DocTypePurchaseOrder, "Draft", []uuid.UUID{purchasing.ID, manager.ID})
	require.NoError(t, err)
	assert.Len(t, available, 2)

	available, err = f.workflow.AvailableTransitions(ctx, model.DocTypePurchaseOrder, "Draft", nil)
	require.NoError(t, err)
	assert.Empty(t, available)
}

func TestFindEdge(t *testing.T) {
	f, ctx := newWorkflowFixture(t)
	f.mustStatus(t, ctx, "Draft", true, false)
	f.mustStatus(t, ctx, "Submitted", false, false)
	role := f.mustRole(t, ctx, "Purchasing")

	_, err := f.workflow.CreateTransition(ctx, CreateTransitionRequest{
		DocumentType: model.DocTypePurchaseOrder,
		FromStatus:   "Draft",
		ToStatus:     "Submitted",
		RoleIDs:      []string{role.ID.String()},
	})
	require.NoError(t, err)

	edge, err := f.workflow.FindEdge(ctx, model.DocTypePurchaseOrder, "DRAFT", "submitted")
	require.NoError(t, err)
	require.NotNil(t, edge)

	edge, err = f.workflow.FindEdge(ctx, model.DocTypePurchaseOrder, "Submitted", "Draft")
	require.NoError(t, err)
	assert.Nil(t, edge)
}

func TestFindStatusNotFound(t *testing.T) {
	f, ctx := newWorkflowFixture(t)

	_, err := f.workflow.FindStatus(ctx, model.DocTypePurchaseOrder, "Ghost")
	assert.True(t, apperr.IsNotFound(err))
}
