package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nimbus-backend/internal/apperr"
	"nimbus-backend/internal/model"
	"nimbus-backend/internal/repository/memory"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type poFixture struct {
	store      *memory.Store
	workflow   WorkflowService
	po         PurchaseOrderService
	supplier   *model.Supplier
	inactive   *model.Supplier
	warehouse  *model.Warehouse
	aisle      *model.Warehouse
	item       *model.Item
	purchasing *model.FunctionalRole
	manager    *model.FunctionalRole
}

// purchaser returns an actor holding the Purchasing role.
func (f *poFixture) purchaser() Actor {
	return Actor{UserID: uuid.New(), RoleIDs: []uuid.UUID{f.purchasing.ID}}
}

func (f *poFixture) approver() Actor {
	return Actor{UserID: uuid.New(), RoleIDs: []uuid.UUID{f.manager.ID}}
}

func newPOFixture(t *testing.T) (*poFixture, context.Context) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	workflow := NewWorkflowService(
		memory.NewStatusRepository(store),
		memory.NewTransitionRepository(store),
		memory.NewRoleRepository(store),
		memory.NewPurchaseOrderRepository(store),
	)
	po := NewPurchaseOrderService(
		memory.NewPurchaseOrderRepository(store),
		memory.NewSupplierRepository(store),
		memory.NewWarehouseRepository(store),
		memory.NewItemRepository(store),
		workflow,
		memory.NewTxManager(),
		NopPublisher{},
	)
	po.(*purchaseOrderService).nowFn = func() time.Time { return fixedNow }

	f := &poFixture{store: store, workflow: workflow, po: po}

	roles := memory.NewRoleRepository(store)
	f.purchasing = &model.FunctionalRole{Name: "Purchasing"}
	f.manager = &model.FunctionalRole{Name: "Manager"}
	require.NoError(t, roles.Create(ctx, f.purchasing))
	require.NoError(t, roles.Create(ctx, f.manager))

	statuses := []CreateStatusRequest{
		{DocumentType: model.DocTypePurchaseOrder, Name: "Draft", IsInitial: true},
		{DocumentType: model.DocTypePurchaseOrder, Name: "Submitted"},
		{DocumentType: model.DocTypePurchaseOrder, Name: "Approved"},
		{DocumentType: model.DocTypePurchaseOrder, Name: "Rejected", IsFinal: true},
		{DocumentType: model.DocTypePurchaseOrder, Name: "Cancelled", IsFinal: true},
	}
	for _, req := range statuses {
		_, err := workflow.CreateStatus(ctx, req)
		require.NoError(t, err)
	}

	edges := []CreateTransitionRequest{
		{FromStatus: "Draft", ToStatus: "Submitted", RoleIDs: []string{f.purchasing.ID.String()}},
		{FromStatus: "Draft", ToStatus: "Cancelled", RoleIDs: []string{f.purchasing.ID.String()}},
		{FromStatus: "Submitted", ToStatus: "Approved", RoleIDs: []string{f.manager.ID.String()}},
		{FromStatus: "Submitted", ToStatus: "Rejected", RoleIDs: []string{f.manager.ID.String()}},
	}
	for _, req := range edges {
		req.DocumentType = model.DocTypePurchaseOrder
		_, err := workflow.CreateTransition(ctx, req)
		require.NoError(t, err)
	}

	suppliers := memory.NewSupplierRepository(store)
	f.supplier = &model.Supplier{Code: "SUP0001", Name: "Acme Trading", IsActive: true}
	f.inactive = &model.Supplier{Code: "SUP0002", Name: "Closed Down Co", IsActive: false}
	require.NoError(t, suppliers.Create(ctx, f.supplier))
	require.NoError(t, suppliers.Create(ctx, f.inactive))

	warehouses := memory.NewWarehouseRepository(store)
	f.warehouse = &model.Warehouse{NodeID: "WH001", NodeType: model.NodeTypeWarehouse, Name: "Main", IsActive: true}
	require.NoError(t, warehouses.Create(ctx, f.warehouse))
	f.aisle = &model.Warehouse{NodeID: "AI001", NodeType: model.NodeTypeAisle, ParentID: &f.warehouse.ID, Name: "Aisle 1", IsActive: true}
	require.NoError(t, warehouses.Create(ctx, f.aisle))

	items := memory.NewItemRepository(store)
	f.item = &model.Item{SKU: "SGR0001", Name: "Sugar", UOMID: uuid.New(), IsActive: true}
	require.NoError(t, items.Create(ctx, f.item))

	return f, ctx
}

// baseRequest is a minimal valid order: one line of 2 x 100, no tax, no
// discount, paid after delivery.
func (f *poFixture) baseRequest() CreatePORequest {
	return CreatePORequest{
		PODate:             "2026-03-01",
		RequiredDate:       "2026-03-20",
		SupplierID:         f.supplier.ID.String(),
		WarehouseID:        f.warehouse.ID.String(),
		DistributionMethod: model.DistributionPickup,
		Lines: []POLineInput{
			{ItemID: f.item.ID.String(), Quantity: "2", UnitPrice: "100"},
		},
		TaxOption:     model.TaxOptionNone,
		PaymentMethod: model.PaymentAfterDelivery,
	}
}

func (f *poFixture) mustCreate(t *testing.T, ctx context.Context, req CreatePORequest) *PODetailResponse {
	t.Helper()
	detail, err := f.po.Create(ctx, req, f.purchaser())
	require.NoError(t, err)
	return detail
}

func TestCreatePurchaseOrder(t *testing.T) {
	f, ctx := newPOFixture(t)
	actor := f.purchaser()

	detail, err := f.po.Create(ctx, f.baseRequest(), actor)
	require.NoError(t, err)

	order := detail.Order
	assert.Equal(t, "PO-010326-001", order.PONumber)
	assert.True(t, order.Status.Equal("Draft"))
	assert.True(t, order.Subtotal.Equal(decimal.NewFromInt(200)))
	assert.True(t, order.GrandTotal.Equal(decimal.NewFromInt(200)))
	assert.True(t, order.PaidAmount.IsZero())
	assert.True(t, order.Outstanding.Equal(decimal.NewFromInt(200)))
	assert.True(t, order.TransferAmount.IsZero())
	require.Len(t, detail.Lines, 1)
	assert.True(t, detail.Lines[0].TotalAmount.Equal(decimal.NewFromInt(200)))
	require.NotNil(t, order.CreatedBy)
	assert.Equal(t, actor.UserID, *order.CreatedBy)

	history, err := f.po.History(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].FromStatus)
	assert.True(t, history[0].ToStatus.Equal("Draft"))
	assert.Equal(t, "Initial creation", history[0].Comment)

	payments, err := f.po.Payments(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, payments)

	// Same-day orders keep counting up.
	second := f.mustCreate(t, ctx, f.baseRequest())
	assert.Equal(t, "PO-010326-002", second.Order.PONumber)
}

func TestCreatePurchaseOrderCollectsAllViolations(t *testing.T) {
	f, ctx := newPOFixture(t)

	req := f.baseRequest()
	req.PODate = "01/03/2026"
	req.RequiredDate = "bogus"
	req.SupplierID = f.inactive.ID.String()
	req.WarehouseID = f.aisle.ID.String()
	req.DistributionMethod = "teleport"
	req.Lines = []POLineInput{
		{ItemID: uuid.NewString(), Quantity: "2", UnitPrice: "100"},
		{ItemID: f.item.ID.String(), Quantity: "-1", UnitPrice: "abc"},
	}
	req.TaxOption = "maybe"

	_, err := f.po.Create(ctx, req, f.purchaser())
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)

	assert.Contains(t, v.Violations, "po_date must be a valid YYYY-MM-DD date")
	assert.Contains(t, v.Violations, "required_date must be a valid YYYY-MM-DD date")
	assert.Contains(t, v.Violations, `unknown distribution method "teleport"`)
	assert.Contains(t, v.Violations, "supplier SUP0002 is inactive")
	assert.Contains(t, v.Violations, "node AI001 is not a top-level warehouse")
	assert.Contains(t, v.Violations, `unknown tax option "maybe"`)
	assert.Contains(t, v.Violations, `line 2: invalid unit price "abc"`)
	// Nothing was written.
	list, err := f.po.List(ctx, ListPORequest{})
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func TestCreatePurchaseOrderDeliveryNeedsAddress(t *testing.T) {
	f, ctx := newPOFixture(t)

	req := f.baseRequest()
	req.DistributionMethod = model.DistributionDelivery
	_, err := f.po.Create(ctx, req, f.purchaser())
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Violations, "address is required for delivery orders")

	req.Address = "1 Harbour Road"
	_, err = f.po.Create(ctx, req, f.purchaser())
	assert.NoError(t, err)
}

func TestCreatePurchaseOrderAdvancePayment(t *testing.T) {
	f, ctx := newPOFixture(t)

	req := f.baseRequest()
	req.TaxOption = model.TaxOptionApply
	req.TaxPercentage = "10"
	req.PaymentMethod = model.PaymentAdvance
	req.PaidAmount = "220"

	detail := f.mustCreate(t, ctx, req)
	order := detail.Order
	assert.True(t, order.GrandTotal.Equal(decimal.NewFromInt(220)))
	assert.True(t, order.PaidAmount.Equal(decimal.NewFromInt(220)))
	assert.True(t, order.Outstanding.IsZero())
	assert.True(t, order.TransferAmount.Equal(decimal.NewFromInt(220)))

	payments, err := f.po.Payments(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.True(t, payments[0].Amount.Equal(decimal.NewFromInt(220)))
	assert.Equal(t, "initial settlement", payments[0].Note)
}

func TestCreatePurchaseOrderAdvancePaymentMustMatchGrandTotal(t *testing.T) {
	f, ctx := newPOFixture(t)

	req := f.baseRequest()
	req.PaymentMethod = model.PaymentAdvance
	req.PaidAmount = "195"

	_, err := f.po.Create(ctx, req, f.purchaser())
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Violations, "advance payment must equal the grand total")

	// Omitting paid_amount is not the same as paying in full.
	req.PaidAmount = ""
	_, err = f.po.Create(ctx, req, f.purchaser())
	_, ok = apperr.AsValidation(err)
	assert.True(t, ok)

	// Within tolerance passes.
	req.PaidAmount = "200.005"
	_, err = f.po.Create(ctx, req, f.purchaser())
	assert.NoError(t, err)
}

func TestCreatePurchaseOrderDownPayment(t *testing.T) {
	f, ctx := newPOFixture(t)

	req := f.baseRequest()
	req.PaymentMethod = model.PaymentDownPayment
	req.DPPercentage = "30"

	detail := f.mustCreate(t, ctx, req)
	order := detail.Order
	require.NotNil(t, order.DPAmount)
	assert.True(t, order.DPAmount.Equal(decimal.NewFromInt(60)))
	assert.True(t, order.PaidAmount.Equal(decimal.NewFromInt(60)))
	assert.True(t, order.Outstanding.Equal(decimal.NewFromInt(140)))
}

func TestRecalculatePreview(t *testing.T) {
	f, ctx := newPOFixture(t)

	resp, err := f.po.Recalculate(ctx, RecalculateRequest{
		Lines: []RecalculateLineInput{
			{Quantity: "2", UnitPrice: "100"},
			{Quantity: "1", UnitPrice: "800"},
		},
		TaxOption:          model.TaxOptionApply,
		TaxPercentage:      "10",
		DiscountType:       model.DiscountPercentage,
		DiscountPercentage: "10",
		PaymentMethod:      model.PaymentDownPayment,
		DPPercentage:       "30",
	})
	require.NoError(t, err)

	// 1000 + 10% tax = 1100, minus 10% of the post-tax amount = 990.
	assert.Equal(t, "1000", resp.Subtotal)
	assert.Equal(t, "100", resp.TaxAmount)
	assert.Equal(t, "110", resp.DiscountAmount)
	assert.Equal(t, "990", resp.GrandTotal)
	assert.Equal(t, "297", resp.PaidAmount)
	assert.Equal(t, "693", resp.Outstanding)
	require.NotNil(t, resp.DPAmount)
	assert.Equal(t, "297", *resp.DPAmount)
}

func TestRecalculateValidates(t *testing.T) {
	f, ctx := newPOFixture(t)

	_, err := f.po.Recalculate(ctx, RecalculateRequest{
		Lines:         []RecalculateLineInput{{Quantity: "1", UnitPrice: "oops"}},
		TaxOption:     model.TaxOptionNone,
		PaymentMethod: model.PaymentAfterDelivery,
	})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Violations, `line 1: invalid unit price "oops"`)
	assert.Contains(t, verr.Violations, "at least one line item is required")
}

func TestCreatePurchaseOrderInitialStatus(t *testing.T) {
	f, ctx := newPOFixture(t)

	req := f.baseRequest()
	req.InitialStatus = "submitted"
	_, err := f.po.Create(ctx, req, f.purchaser())
	assert.True(t, apperr.IsState(err), "non-initial status must be rejected")

	req.InitialStatus = "Ghost"
	_, err = f.po.Create(ctx, req, f.purchaser())
	assert.True(t, apperr.IsNotFound(err))

	req.InitialStatus = " DRAFT "
	detail, err := f.po.Create(ctx, req, f.purchaser())
	require.NoError(t, err)
	assert.True(t, detail.Order.Status.Equal("Draft"))
}

func TestCreatePurchaseOrderNoInitialStatusConfigured(t *testing.T) {
	f, ctx := newPOFixture(t)
	store := memory.NewStore()
	workflow := NewWorkflowService(
		memory.NewStatusRepository(store),
		memory.NewTransitionRepository(store),
		memory.NewRoleRepository(store),
		memory.NewPurchaseOrderRepository(store),
	)
	po := NewPurchaseOrderService(
		memory.NewPurchaseOrderRepository(f.store),
		memory.NewSupplierRepository(f.store),
		memory.NewWarehouseRepository(f.store),
		memory.NewItemRepository(f.store),
		workflow,
		memory.NewTxManager(),
		NopPublisher{},
	)

	_, err := po.Create(ctx, f.baseRequest(), f.purchaser())
	assert.True(t, apperr.IsState(err))
}

func TestExecuteTransition(t *testing.T) {
	f, ctx := newPOFixture(t)
	detail := f.mustCreate(t, ctx, f.baseRequest())
	actor := f.purchaser()

	order, err := f.po.ExecuteTransition(ctx, detail.Order.ID, TransitionPORequest{ToStatus: "Submitted", Comment: "ready for review"}, actor)
	require.NoError(t, err)
	assert.True(t, order.Status.Equal("Submitted"))
	require.NotNil(t, order.SubmittedAt)
	assert.True(t, order.SubmittedAt.Equal(fixedNow))
	require.NotNil(t, order.SubmittedBy)
	assert.Equal(t, actor.UserID, *order.SubmittedBy)

	approver := f.approver()
	order, err = f.po.ExecuteTransition(ctx, order.ID, TransitionPORequest{ToStatus: "approved", Comment: "budget cleared"}, approver)
	require.NoError(t, err)
	assert.True(t, order.Status.Equal("Approved"))
	require.NotNil(t, order.ApprovedAt)
	require.NotNil(t, order.ApprovedBy)
	assert.Equal(t, approver.UserID, *order.ApprovedBy)

	history, err := f.po.History(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.NotNil(t, history[1].FromStatus)
	assert.True(t, history[1].FromStatus.Equal("Draft"))
	assert.True(t, history[2].ToStatus.Equal("Approved"))
}

func TestExecuteTransitionRoleGating(t *testing.T) {
	f, ctx := newPOFixture(t)
	detail := f.mustCreate(t, ctx, f.baseRequest())

	// The Manager role does not unlock Draft -> Submitted.
	_, err := f.po.ExecuteTransition(ctx, detail.Order.ID, TransitionPORequest{ToStatus: "Submitted"}, f.approver())
	assert.True(t, apperr.IsState(err))

	// No roles at all.
	_, err = f.po.ExecuteTransition(ctx, detail.Order.ID, TransitionPORequest{ToStatus: "Submitted"}, Actor{UserID: uuid.New()})
	assert.True(t, apperr.IsState(err))
}

func TestExecuteTransitionRequiresConfiguredEdge(t *testing.T) {
	f, ctx := newPOFixture(t)
	detail := f.mustCreate(t, ctx, f.baseRequest())

	_, err := f.po.ExecuteTransition(ctx, detail.Order.ID, TransitionPORequest{ToStatus: "Approved"}, f.approver())
	assert.True(t, apperr.IsState(err), "Draft -> Approved is not configured")

	_, err = f.po.ExecuteTransition(ctx, detail.Order.ID, TransitionPORequest{ToStatus: "Ghost"}, f.purchaser())
	assert.True(t, apperr.IsNotFound(err))
}

func TestExecuteTransitionCommentRequired(t *testing.T) {
	f, ctx := newPOFixture(t)
	detail := f.mustCreate(t, ctx, f.baseRequest())

	// Every transition needs a reason, not just the terminal ones.
	_, err := f.po.ExecuteTransition(ctx, detail.Order.ID, TransitionPORequest{ToStatus: "Submitted"}, f.purchaser())
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Violations[0], "comment is required")

	_, err = f.po.ExecuteTransition(ctx, detail.Order.ID, TransitionPORequest{ToStatus: "Cancelled", Comment: "   "}, f.purchaser())
	v, ok = apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Violations[0], "comment is required")

	order, err := f.po.ExecuteTransition(ctx, detail.Order.ID, TransitionPORequest{ToStatus: "Cancelled", Comment: "duplicate order"}, f.purchaser())
	require.NoError(t, err)
	assert.True(t, order.Status.Equal("Cancelled"))

	history, err := f.po.History(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "duplicate order", history[len(history)-1].Comment)
}

func TestExecuteTransitionFromFinalStatusBlocked(t *testing.T) {
	f, ctx := newPOFixture(t)
	detail := f.mustCreate(t, ctx, f.baseRequest())

	_, err := f.po.ExecuteTransition(ctx, detail.Order.ID, TransitionPORequest{ToStatus: "Cancelled", Comment: "mistake"}, f.purchaser())
	require.NoError(t, err)

	_, err = f.po.ExecuteTransition(ctx, detail.Order.ID, TransitionPORequest{ToStatus: "Submitted"}, f.purchaser())
	assert.True(t, apperr.IsState(err))
}

func TestAvailableTransitionsForOrder(t *testing.T) {
	f, ctx := newPOFixture(t)
	detail := f.mustCreate(t, ctx, f.baseRequest())

	available, err := f.po.AvailableTransitions(ctx, detail.Order.ID, f.purchaser())
	require.NoError(t, err)
	assert.Len(t, available, 2)

	available, err = f.po.AvailableTransitions(ctx, detail.Order.ID, f.approver())
	require.NoError(t, err)
	assert.Empty(t, available)
}

func TestRecordPayment(t *testing.T) {
	f, ctx := newPOFixture(t)
	detail := f.mustCreate(t, ctx, f.baseRequest())
	actor := f.purchaser()

	order, err := f.po.RecordPayment(ctx, detail.Order.ID, RecordPaymentRequest{Amount: "80", Note: "first instalment"}, actor)
	require.NoError(t, err)
	assert.True(t, order.TransferAmount.Equal(decimal.NewFromInt(80)))
	assert.True(t, order.PaidAmount.Equal(decimal.NewFromInt(80)))
	assert.True(t, order.Outstanding.Equal(decimal.NewFromInt(120)))

	order, err = f.po.RecordPayment(ctx, order.ID, RecordPaymentRequest{Amount: "120"}, actor)
	require.NoError(t, err)
	assert.True(t, order.Outstanding.IsZero())
	assert.True(t, order.Remaining().IsZero())

	payments, err := f.po.Payments(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, "first instalment", payments[0].Note)

	_, err = f.po.RecordPayment(ctx, order.ID, RecordPaymentRequest{Amount: "1"}, actor)
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Violations[0], "already fully paid")
}

func TestRecordPaymentBounds(t *testing.T) {
	f, ctx := newPOFixture(t)
	detail := f.mustCreate(t, ctx, f.baseRequest())
	actor := f.purchaser()

	_, err := f.po.RecordPayment(ctx, detail.Order.ID, RecordPaymentRequest{Amount: "nope"}, actor)
	_, ok := apperr.AsValidation(err)
	assert.True(t, ok)

	_, err = f.po.RecordPayment(ctx, detail.Order.ID, RecordPaymentRequest{Amount: "0"}, actor)
	v, ok := apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Violations, "amount must be greater than zero")

	_, err = f.po.RecordPayment(ctx, detail.Order.ID, RecordPaymentRequest{Amount: "200.02"}, actor)
	v, ok = apperr.AsValidation(err)
	require.True(t, ok)
	assert.Contains(t, v.Violations[0], "exceeds the remaining balance")

	// Within tolerance of the remaining balance is accepted.
	order, err := f.po.RecordPayment(ctx, detail.Order.ID, RecordPaymentRequest{Amount: "200.01"}, actor)
	require.NoError(t, err)
	assert.False(t, order.Remaining().IsPositive())
}

func TestFlagDelivered(t *testing.T) {
	f, ctx := newPOFixture(t)
	detail := f.mustCreate(t, ctx, f.baseRequest())
	actor := f.purchaser()

	_, err := f.po.FlagDelivered(ctx, detail.Order.ID, FlagDeliveredRequest{DeliveryDate: "2026-02-28"}, actor)
	_, ok := apperr.AsValidation(err)
	assert.True(t, ok, "delivery before po_date must be rejected")

	order, err := f.po.FlagDelivered(ctx, detail.Order.ID, FlagDeliveredRequest{}, actor)
	require.NoError(t, err)
	require.NotNil(t, order.DeliveryDate)
	assert.True(t, order.DeliveryDate.Equal(fixedNow))

	_, err = f.po.FlagDelivered(ctx, order.ID, FlagDeliveredRequest{DeliveryDate: "2026-03-11"}, actor)
	assert.True(t, apperr.IsState(err))
}

func TestOverdueDetection(t *testing.T) {
	f, ctx := newPOFixture(t)

	req := f.baseRequest()
	req.RequiredDate = "2026-03-05" // before the fixed clock's 2026-03-10
	detail := f.mustCreate(t, ctx, req)
	assert.True(t, detail.IsOverdue)

	// Delivery clears the flag.
	_, err := f.po.FlagDelivered(ctx, detail.Order.ID, FlagDeliveredRequest{DeliveryDate: "2026-03-08"}, f.purchaser())
	require.NoError(t, err)
	detail, err = f.po.Get(ctx, detail.Order.ID)
	require.NoError(t, err)
	assert.False(t, detail.IsOverdue)

	// A final status clears it too.
	late := f.mustCreate(t, ctx, req)
	_, err = f.po.ExecuteTransition(ctx, late.Order.ID, TransitionPORequest{ToStatus: "Cancelled", Comment: "stale"}, f.purchaser())
	require.NoError(t, err)
	detail, err = f.po.Get(ctx, late.Order.ID)
	require.NoError(t, err)
	assert.False(t, detail.IsOverdue)

	// Due today is not overdue; the comparison is strict.
	req.RequiredDate = "2026-03-10"
	onTime := f.mustCreate(t, ctx, req)
	assert.False(t, onTime.IsOverdue)
}

func TestListPurchaseOrders(t *testing.T) {
	f, ctx := newPOFixture(t)

	first := f.mustCreate(t, ctx, f.baseRequest())

	req := f.baseRequest()
	req.PODate = "2026-03-02"
	req.RequiredDate = "2026-03-05"
	second := f.mustCreate(t, ctx, req)

	// Transitioning bumps the order to the top: newest updated first.
	_, err := f.po.ExecuteTransition(ctx, first.Order.ID, TransitionPORequest{ToStatus: "Submitted", Comment: "ready for review"}, f.purchaser())
	require.NoError(t, err)

	list, err := f.po.List(ctx, ListPORequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)
	require.Len(t, list.Orders, 2)
	assert.Equal(t, first.Order.PONumber, list.Orders[0].PONumber)
	assert.False(t, list.Orders[0].IsOverdue)
	assert.True(t, list.Orders[1].IsOverdue)

	list, err = f.po.List(ctx, ListPORequest{Status: "submitted"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)

	list, err = f.po.List(ctx, ListPORequest{Search: second.Order.PONumber})
	require.NoError(t, err)
	require.Equal(t, int64(1), list.Total)
	assert.Equal(t, second.Order.PONumber, list.Orders[0].PONumber)

	// Search also matches the supplier name.
	list, err = f.po.List(ctx, ListPORequest{Search: "acme trad"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)

	list, err = f.po.List(ctx, ListPORequest{DateFrom: "2026-03-02"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)

	_, err = f.po.List(ctx, ListPORequest{DateFrom: "yesterday"})
	_, ok := apperr.AsValidation(err)
	assert.True(t, ok)
}

func TestGetPurchaseOrderNotFound(t *testing.T) {
	f, ctx := newPOFixture(t)

	_, err := f.po.Get(ctx, uuid.New())
	assert.True(t, apperr.IsNotFound(err))
	_, err = f.po.History(ctx, uuid.New())
	assert.True(t, apperr.IsNotFound(err))
}
