package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nimbus-backend/internal/apperr"
	"nimbus-backend/internal/model"
	"nimbus-backend/internal/repository"
	"nimbus-backend/internal/sequence"
	"nimbus-backend/internal/service/pricing"
	"nimbus-backend/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type POLineInput struct {
	ItemID    string `json:"item_id" binding:"required"`
	Quantity  string `json:"quantity" binding:"required"`   // decimal string
	UnitPrice string `json:"unit_price" binding:"required"` // decimal string
}

type CreatePORequest struct {
	PODate             string        `json:"po_date" binding:"required"`       // YYYY-MM-DD
	RequiredDate       string        `json:"required_date" binding:"required"` // YYYY-MM-DD
	SupplierID         string        `json:"supplier_id" binding:"required"`
	WarehouseID        string        `json:"warehouse_id" binding:"required"`
	DistributionMethod string        `json:"distribution_method" binding:"required"`
	Address            string        `json:"address"`
	Lines              []POLineInput `json:"lines" binding:"required"`
	TaxOption          string        `json:"tax_option" binding:"required"`
	TaxPercentage      string        `json:"tax_percentage"`
	DiscountType       string        `json:"discount_type"`
	DiscountPercentage string        `json:"discount_percentage"`
	DiscountAmount     string        `json:"discount_amount"`
	PaymentMethod      string        `json:"payment_method" binding:"required"`
	PaidAmount         string        `json:"paid_amount"`
	DPPercentage       string        `json:"dp_percentage"`
	DPAmount           string        `json:"dp_amount"`
	Notes              string        `json:"notes"`
	InitialStatus      string        `json:"initial_status"`
}

type TransitionPORequest struct {
	ToStatus string `json:"to_status" binding:"required"`
	Comment  string `json:"comment"`
}

type RecordPaymentRequest struct {
	Amount string `json:"amount" binding:"required"` // decimal string
	Note   string `json:"note"`
}

type FlagDeliveredRequest struct {
	DeliveryDate string `json:"delivery_date"` // YYYY-MM-DD, defaults to today
}

type RecalculateLineInput struct {
	Quantity  string `json:"quantity" binding:"required"`
	UnitPrice string `json:"unit_price" binding:"required"`
}

type RecalculateRequest struct {
	Lines              []RecalculateLineInput `json:"lines" binding:"required"`
	TaxOption          string                 `json:"tax_option" binding:"required"`
	TaxPercentage      string                 `json:"tax_percentage"`
	DiscountType       string                 `json:"discount_type"`
	DiscountPercentage string                 `json:"discount_percentage"`
	DiscountAmount     string                 `json:"discount_amount"`
	PaymentMethod      string                 `json:"payment_method" binding:"required"`
	PaidAmount         string                 `json:"paid_amount"`
	DPPercentage       string                 `json:"dp_percentage"`
	DPAmount           string                 `json:"dp_amount"`
}

type RecalculateResponse struct {
	Subtotal       string  `json:"subtotal"`
	TaxAmount      string  `json:"tax_amount"`
	DiscountAmount string  `json:"discount_amount"`
	GrandTotal     string  `json:"grand_total"`
	PaidAmount     string  `json:"paid_amount"`
	Outstanding    string  `json:"outstanding"`
	DPPercentage   *string `json:"dp_percentage,omitempty"`
	DPAmount       *string `json:"dp_amount,omitempty"`
}

type ListPORequest struct {
	Status     string
	SupplierID string
	DateFrom   string
	DateTo     string
	Search     string
	Page       int
	Limit      int
}

type POSummary struct {
	model.PurchaseOrder
	IsOverdue bool `json:"is_overdue"`
}

type PODetailResponse struct {
	Order     model.PurchaseOrder           `json:"order"`
	Lines     []model.PurchaseOrderLineItem `json:"lines"`
	IsOverdue bool                          `json:"is_overdue"`
}

type POListResponse struct {
	Orders []POSummary `json:"orders"`
	Total  int64       `json:"total"`
	Page   int         `json:"page"`
	Limit  int         `json:"limit"`
}

// --- Interface ---

// PurchaseOrderService owns the PO lifecycle: creation with the frozen
// financial pipeline, workflow transitions with history, the payment
// ledger, delivery flagging and overdue detection.
type PurchaseOrderService interface {
	Create(ctx context.Context, req CreatePORequest, actor Actor) (*PODetailResponse, error)
	Recalculate(ctx context.Context, req RecalculateRequest) (*RecalculateResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*PODetailResponse, error)
	List(ctx context.Context, req ListPORequest) (*POListResponse, error)
	ExecuteTransition(ctx context.Context, id uuid.UUID, req TransitionPORequest, actor Actor) (*model.PurchaseOrder, error)
	AvailableTransitions(ctx context.Context, id uuid.UUID, actor Actor) ([]model.WorkflowTransition, error)
	RecordPayment(ctx context.Context, id uuid.UUID, req RecordPaymentRequest, actor Actor) (*model.PurchaseOrder, error)
	FlagDelivered(ctx context.Context, id uuid.UUID, req FlagDeliveredRequest, actor Actor) (*model.PurchaseOrder, error)
	History(ctx context.Context, id uuid.UUID) ([]model.StatusChangeLog, error)
	Payments(ctx context.Context, id uuid.UUID) ([]model.PaymentLog, error)
}

// MilestoneHook stamps a document when it enters a milestone status.
type MilestoneHook func(po *model.PurchaseOrder, actor Actor, at time.Time)

// defaultMilestoneHooks maps folded status names to their stamping hook.
func defaultMilestoneHooks() map[string]MilestoneHook {
	return map[string]MilestoneHook{
		"submitted": func(po *model.PurchaseOrder, actor Actor, at time.Time) {
			po.SubmittedAt = &at
			po.SubmittedBy = actor.UserIDPtr()
		},
		"approved": func(po *model.PurchaseOrder, actor Actor, at time.Time) {
			po.ApprovedAt = &at
			po.ApprovedBy = actor.UserIDPtr()
		},
	}
}

type purchaseOrderService struct {
	orders     repository.PurchaseOrderRepository
	suppliers  repository.SupplierRepository
	warehouses repository.WarehouseRepository
	items      repository.ItemRepository
	workflow   WorkflowService
	txMgr      repository.TransactionManager
	publisher  EventPublisher
	hooks      map[string]MilestoneHook
	nowFn      func() time.Time
}

func NewPurchaseOrderService(
	orders repository.PurchaseOrderRepository,
	suppliers repository.SupplierRepository,
	warehouses repository.WarehouseRepository,
	items repository.ItemRepository,
	workflow WorkflowService,
	txMgr repository.TransactionManager,
	publisher EventPublisher,
) PurchaseOrderService {
	return &purchaseOrderService{
		orders:     orders,
		suppliers:  suppliers,
		warehouses: warehouses,
		items:      items,
		workflow:   workflow,
		txMgr:      txMgr,
		publisher:  publisher,
		hooks:      defaultMilestoneHooks(),
		nowFn:      time.Now,
	}
}

// --- Creation ---

func (s *purchaseOrderService) Create(ctx context.Context, req CreatePORequest, actor Actor) (*PODetailResponse, error) {
	var violations []string

	poDate, err := parseDate(req.PODate)
	if err != nil {
		violations = append(violations, "po_date must be a valid YYYY-MM-DD date")
	}
	requiredDate, err := parseDate(req.RequiredDate)
	if err != nil {
		violations = append(violations, "required_date must be a valid YYYY-MM-DD date")
	} else if !poDate.IsZero() && requiredDate.Before(poDate) {
		violations = append(violations, "required_date cannot be before po_date")
	}

	switch req.DistributionMethod {
	case model.DistributionPickup:
	case model.DistributionDelivery:
		if strings.TrimSpace(req.Address) == "" {
			violations = append(violations, "address is required for delivery orders")
		}
	default:
		violations = append(violations, fmt.Sprintf("unknown distribution method %q", req.DistributionMethod))
	}

	supplier, supplierViolations, err := s.resolveSupplier(ctx, req.SupplierID)
	if err != nil {
		return nil, err
	}
	violations = append(violations, supplierViolations...)

	warehouse, warehouseViolations, err := s.resolveWarehouse(ctx, req.WarehouseID)
	if err != nil {
		return nil, err
	}
	violations = append(violations, warehouseViolations...)

	lines, pricingLines, lineViolations, err := s.resolveLines(ctx, req.Lines)
	if err != nil {
		return nil, err
	}
	violations = append(violations, lineViolations...)

	inputs := pricing.Inputs{
		Lines:         pricingLines,
		TaxOption:     req.TaxOption,
		DiscountType:  req.DiscountType,
		PaymentMethod: req.PaymentMethod,
	}
	violations = append(violations, parseOptionalDecimal(req.TaxPercentage, "tax_percentage", &inputs.TaxPercentage)...)
	violations = append(violations, parseOptionalDecimal(req.DiscountPercentage, "discount_percentage", &inputs.DiscountPercentage)...)
	violations = append(violations, parseOptionalDecimal(req.DiscountAmount, "discount_amount", &inputs.DiscountNominal)...)
	violations = append(violations, parseOptionalDecimal(req.DPPercentage, "dp_percentage", &inputs.DPPercentage)...)
	violations = append(violations, parseOptionalDecimal(req.DPAmount, "dp_amount", &inputs.DPAmount)...)
	violations = append(violations, parsePaidAmount(req.PaidAmount, &inputs.PaidAmount)...)

	violations = append(violations, pricing.Validate(inputs)...)
	if len(violations) > 0 {
		return nil, apperr.NewValidation(violations...)
	}

	totals := pricing.Calculate(inputs)
	if settlement := pricing.CheckSettlement(req.PaymentMethod, totals); len(settlement) > 0 {
		return nil, apperr.NewValidation(settlement...)
	}

	initial, err := s.resolveInitialStatus(ctx, req.InitialStatus)
	if err != nil {
		return nil, err
	}

	now := s.nowFn()
	po := model.PurchaseOrder{
		PODate:             poDate,
		SupplierID:         supplier.ID,
		WarehouseID:        warehouse.ID,
		DistributionMethod: req.DistributionMethod,
		Address:            strings.TrimSpace(req.Address),
		RequiredDate:       requiredDate,
		TaxOption:          req.TaxOption,
		TaxPercentage:      inputs.TaxPercentage,
		DiscountType:       req.DiscountType,
		DiscountPercentage: inputs.DiscountPercentage,
		Subtotal:           totals.Subtotal,
		TaxAmount:          totals.TaxAmount,
		DiscountAmount:     totals.DiscountAmount,
		GrandTotal:         totals.GrandTotal,
		PaymentMethod:      req.PaymentMethod,
		PaidAmount:         totals.PaidAmount,
		Outstanding:        totals.Outstanding,
		DPPercentage:       totals.DPPercentage,
		DPAmount:           totals.DPAmount,
		TransferAmount:     totals.PaidAmount,
		Status:             initial.Name,
		Notes:              req.Notes,
		CreatedBy:          actor.UserIDPtr(),
	}

	err = s.txMgr.RunInTx(ctx, func(txCtx context.Context) error {
		seq, err := s.orders.NextDailySequence(txCtx, sequence.PONumberPrefix(poDate))
		if err != nil {
			return fmt.Errorf("failed to reserve PO number: %w", err)
		}
		po.PONumber = sequence.PONumber(poDate, seq)

		if err := s.orders.Create(txCtx, &po, lines); err != nil {
			return fmt.Errorf("failed to create purchase order: %w", err)
		}

		entry := model.StatusChangeLog{
			POID:       po.ID,
			FromStatus: nil,
			ToStatus:   po.Status,
			ChangedBy:  actor.UserID,
			ChangedAt:  now,
			Comment:    "Initial creation",
		}
		if err := s.orders.AppendStatusLog(txCtx, &entry); err != nil {
			return fmt.Errorf("failed to write status log: %w", err)
		}

		if po.PaidAmount.IsPositive() {
			payment := model.PaymentLog{
				POID:   po.ID,
				Amount: po.PaidAmount,
				PaidBy: actor.UserID,
				PaidAt: now,
				Note:   "initial settlement",
			}
			if err := s.orders.AppendPaymentLog(txCtx, &payment); err != nil {
				return fmt.Errorf("failed to write payment log: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(EventPOCreated, po)
	return s.Get(ctx, po.ID)
}

func (s *purchaseOrderService) resolveSupplier(ctx context.Context, raw string) (*model.Supplier, []string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return &model.Supplier{}, []string{fmt.Sprintf("invalid supplier id %q", raw)}, nil
	}
	supplier, err := s.suppliers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.Supplier{}, []string{fmt.Sprintf("supplier %s does not exist", id)}, nil
		}
		return nil, nil, fmt.Errorf("failed to fetch supplier: %w", err)
	}
	if !supplier.IsActive {
		return supplier, []string{fmt.Sprintf("supplier %s is inactive", supplier.Code)}, nil
	}
	return supplier, nil, nil
}

func (s *purchaseOrderService) resolveWarehouse(ctx context.Context, raw string) (*model.Warehouse, []string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return &model.Warehouse{}, []string{fmt.Sprintf("invalid warehouse id %q", raw)}, nil
	}
	warehouse, err := s.warehouses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.Warehouse{}, []string{fmt.Sprintf("warehouse %s does not exist", id)}, nil
		}
		return nil, nil, fmt.Errorf("failed to fetch warehouse: %w", err)
	}
	var violations []string
	if warehouse.NodeType != model.NodeTypeWarehouse || warehouse.ParentID != nil {
		violations = append(violations, fmt.Sprintf("node %s is not a top-level warehouse", warehouse.NodeID))
	}
	if !warehouse.IsActive {
		violations = append(violations, fmt.Sprintf("warehouse %s is inactive", warehouse.NodeID))
	}
	return warehouse, violations, nil
}

func (s *purchaseOrderService) resolveLines(ctx context.Context, inputs []POLineInput) ([]model.PurchaseOrderLineItem, []pricing.Line, []string, error) {
	var violations []string
	lines := make([]model.PurchaseOrderLineItem, 0, len(inputs))
	pricingLines := make([]pricing.Line, 0, len(inputs))

	for i, input := range inputs {
		lineNo := i + 1

		itemID, err := uuid.Parse(input.ItemID)
		if err != nil {
			violations = append(violations, fmt.Sprintf("line %d: invalid item id %q", lineNo, input.ItemID))
			continue
		}
		item, err := s.items.FindByID(ctx, itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				violations = append(violations, fmt.Sprintf("line %d: item %s does not exist", lineNo, itemID))
				continue
			}
			return nil, nil, nil, fmt.Errorf("failed to fetch item: %w", err)
		}
		if !item.IsActive {
			violations = append(violations, fmt.Sprintf("line %d: item %s is inactive", lineNo, item.SKU))
		}

		quantity, err := decimal.NewFromString(input.Quantity)
		if err != nil {
			violations = append(violations, fmt.Sprintf("line %d: invalid quantity %q", lineNo, input.Quantity))
			continue
		}
		unitPrice, err := decimal.NewFromString(input.UnitPrice)
		if err != nil {
			violations = append(violations, fmt.Sprintf("line %d: invalid unit price %q", lineNo, input.UnitPrice))
			continue
		}

		line := pricing.Line{Quantity: quantity, UnitPrice: unitPrice}
		pricingLines = append(pricingLines, line)
		lines = append(lines, model.PurchaseOrderLineItem{
			ItemID:      itemID,
			Quantity:    quantity,
			UnitPrice:   unitPrice,
			TotalAmount: line.Total(),
			LineNumber:  lineNo,
		})
	}

	return lines, pricingLines, violations, nil
}

// resolveInitialStatus returns the configured status a new document starts
// in: the requested name when given, otherwise the registry's initial
// status for the document type.
func (s *purchaseOrderService) resolveInitialStatus(ctx context.Context, requested string) (*model.DocumentStatus, error) {
	name := model.StatusName(requested)
	if !name.IsEmpty() {
		status, err := s.workflow.FindStatus(ctx, model.DocTypePurchaseOrder, name)
		if err != nil {
			return nil, err
		}
		if !status.IsInitial {
			return nil, apperr.NewState(fmt.Sprintf("status %q is not an initial status", status.Name))
		}
		return status, nil
	}

	initial, err := s.workflow.AllInitialStatuses(ctx, model.DocTypePurchaseOrder)
	if err != nil {
		return nil, err
	}
	if len(initial) == 0 {
		return nil, apperr.NewState("no initial status is configured for Purchase Order")
	}
	return &initial[0], nil
}

// --- Workflow ---

func (s *purchaseOrderService) ExecuteTransition(ctx context.Context, id uuid.UUID, req TransitionPORequest, actor Actor) (*model.PurchaseOrder, error) {
	po, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	current, err := s.workflow.FindStatus(ctx, model.DocTypePurchaseOrder, po.Status)
	if err != nil {
		return nil, err
	}
	if current.IsFinal {
		return nil, apperr.NewState(fmt.Sprintf("purchase order %s is in final status %q", po.PONumber, po.Status))
	}

	target := model.StatusName(req.ToStatus)
	targetStatus, err := s.workflow.FindStatus(ctx, model.DocTypePurchaseOrder, target)
	if err != nil {
		return nil, err
	}

	edge, err := s.workflow.FindEdge(ctx, model.DocTypePurchaseOrder, po.Status, targetStatus.Name)
	if err != nil {
		return nil, err
	}
	if edge == nil {
		return nil, apperr.NewState(fmt.Sprintf("no transition from %q to %q is configured", po.Status, targetStatus.Name))
	}
	if !edge.AllowsAny(actor.RoleIDs) {
		return nil, apperr.NewState(fmt.Sprintf("none of your roles may execute the transition %q -> %q", po.Status, targetStatus.Name))
	}

	// Every explicit transition carries a reason; only the implicit
	// creation entry goes without one.
	if strings.TrimSpace(req.Comment) == "" {
		return nil, apperr.NewValidation(fmt.Sprintf("a comment is required when moving to %q", targetStatus.Name))
	}

	now := s.nowFn()
	fromStatus := po.Status
	po.Status = targetStatus.Name
	po.UpdatedBy = actor.UserIDPtr()
	if hook, ok := s.hooks[targetStatus.Name.Fold()]; ok {
		hook(po, actor, now)
	}

	err = s.txMgr.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Update(txCtx, po); err != nil {
			return fmt.Errorf("failed to update purchase order: %w", err)
		}
		entry := model.StatusChangeLog{
			POID:       po.ID,
			FromStatus: &fromStatus,
			ToStatus:   targetStatus.Name,
			ChangedBy:  actor.UserID,
			ChangedAt:  now,
			Comment:    strings.TrimSpace(req.Comment),
		}
		if err := s.orders.AppendStatusLog(txCtx, &entry); err != nil {
			return fmt.Errorf("failed to write status log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(EventPOStatusChanged, po)
	return po, nil
}

func (s *purchaseOrderService) AvailableTransitions(ctx context.Context, id uuid.UUID, actor Actor) ([]model.WorkflowTransition, error) {
	po, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.workflow.AvailableTransitions(ctx, model.DocTypePurchaseOrder, po.Status, actor.RoleIDs)
}

// --- Payments and delivery ---

func (s *purchaseOrderService) RecordPayment(ctx context.Context, id uuid.UUID, req RecordPaymentRequest, actor Actor) (*model.PurchaseOrder, error) {
	po, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, apperr.NewValidation(fmt.Sprintf("invalid amount %q", req.Amount))
	}

	var violations []string
	if !amount.IsPositive() {
		violations = append(violations, "amount must be greater than zero")
	}
	remaining := po.Remaining()
	if !remaining.IsPositive() {
		violations = append(violations, fmt.Sprintf("purchase order %s is already fully paid", po.PONumber))
	} else if amount.GreaterThan(remaining.Add(pricing.Tolerance)) {
		violations = append(violations, fmt.Sprintf("amount exceeds the remaining balance of %s", remaining.StringFixed(2)))
	}
	if len(violations) > 0 {
		return nil, apperr.NewValidation(violations...)
	}

	now := s.nowFn()
	po.TransferAmount = po.TransferAmount.Add(amount)
	po.PaidAmount = po.TransferAmount
	po.Outstanding = po.GrandTotal.Sub(po.TransferAmount)
	po.UpdatedBy = actor.UserIDPtr()

	err = s.txMgr.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.orders.Update(txCtx, po); err != nil {
			return fmt.Errorf("failed to update purchase order: %w", err)
		}
		entry := model.PaymentLog{
			POID:   po.ID,
			Amount: amount,
			PaidBy: actor.UserID,
			PaidAt: now,
			Note:   strings.TrimSpace(req.Note),
		}
		if err := s.orders.AppendPaymentLog(txCtx, &entry); err != nil {
			return fmt.Errorf("failed to write payment log: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(EventPOPaymentRecorded, po)
	return po, nil
}

func (s *purchaseOrderService) FlagDelivered(ctx context.Context, id uuid.UUID, req FlagDeliveredRequest, actor Actor) (*model.PurchaseOrder, error) {
	po, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.DeliveryDate != nil {
		return nil, apperr.NewState(fmt.Sprintf("purchase order %s is already flagged delivered", po.PONumber))
	}

	deliveredAt := s.nowFn()
	if req.DeliveryDate != "" {
		parsed, err := parseDate(req.DeliveryDate)
		if err != nil {
			return nil, apperr.NewValidation("delivery_date must be a valid YYYY-MM-DD date")
		}
		deliveredAt = parsed
	}
	if dateOnly(deliveredAt).Before(dateOnly(po.PODate)) {
		return nil, apperr.NewValidation("delivery_date cannot be before po_date")
	}

	po.DeliveryDate = &deliveredAt
	po.UpdatedBy = actor.UserIDPtr()
	if err := s.orders.Update(ctx, po); err != nil {
		return nil, fmt.Errorf("failed to update purchase order: %w", err)
	}

	s.publisher.Publish(EventPODelivered, po)
	return po, nil
}

// --- Queries ---

func (s *purchaseOrderService) Get(ctx context.Context, id uuid.UUID) (*PODetailResponse, error) {
	po, err := s.findOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	lines, err := s.orders.ListLines(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list line items: %w", err)
	}
	overdue, err := s.isOverdue(ctx, po)
	if err != nil {
		return nil, err
	}
	return &PODetailResponse{Order: *po, Lines: lines, IsOverdue: overdue}, nil
}

func (s *purchaseOrderService) List(ctx context.Context, req ListPORequest) (*POListResponse, error) {
	filter := repository.POFilter{
		Status: model.StatusName(req.Status),
		Search: strings.TrimSpace(req.Search),
	}
	if req.SupplierID != "" {
		id, err := uuid.Parse(req.SupplierID)
		if err != nil {
			return nil, apperr.NewValidation(fmt.Sprintf("invalid supplier id %q", req.SupplierID))
		}
		filter.SupplierID = id
	}
	if req.DateFrom != "" {
		from, err := parseDate(req.DateFrom)
		if err != nil {
			return nil, apperr.NewValidation("date_from must be a valid YYYY-MM-DD date")
		}
		filter.DateFrom = &from
	}
	if req.DateTo != "" {
		to, err := parseDate(req.DateTo)
		if err != nil {
			return nil, apperr.NewValidation("date_to must be a valid YYYY-MM-DD date")
		}
		filter.DateTo = &to
	}

	params := pagination.New(req.Page, req.Limit)
	orders, total, err := s.orders.List(ctx, filter, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchase orders: %w", err)
	}

	finals, err := s.finalStatuses(ctx)
	if err != nil {
		return nil, err
	}

	today := s.nowFn()
	summaries := make([]POSummary, 0, len(orders))
	for _, po := range orders {
		summaries = append(summaries, POSummary{
			PurchaseOrder: po,
			IsOverdue:     po.IsOverdue(finals[po.Status.Fold()], today),
		})
	}

	return &POListResponse{
		Orders: summaries,
		Total:  total,
		Page:   params.Page,
		Limit:  params.Limit,
	}, nil
}

func (s *purchaseOrderService) History(ctx context.Context, id uuid.UUID) ([]model.StatusChangeLog, error) {
	if _, err := s.findOrder(ctx, id); err != nil {
		return nil, err
	}
	logs, err := s.orders.ListStatusLogs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list status logs: %w", err)
	}
	return logs, nil
}

func (s *purchaseOrderService) Payments(ctx context.Context, id uuid.UUID) ([]model.PaymentLog, error) {
	if _, err := s.findOrder(ctx, id); err != nil {
		return nil, err
	}
	logs, err := s.orders.ListPaymentLogs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment logs: %w", err)
	}
	return logs, nil
}

// Recalculate runs the financial pipeline over raw inputs without touching
// any order. Draft editors call it to preview totals before submitting.
func (s *purchaseOrderService) Recalculate(ctx context.Context, req RecalculateRequest) (*RecalculateResponse, error) {
	var violations []string

	inputs := pricing.Inputs{
		TaxOption:     req.TaxOption,
		DiscountType:  req.DiscountType,
		PaymentMethod: req.PaymentMethod,
	}
	for i, line := range req.Lines {
		quantity, err := decimal.NewFromString(line.Quantity)
		if err != nil {
			violations = append(violations, fmt.Sprintf("line %d: invalid quantity %q", i+1, line.Quantity))
			continue
		}
		unitPrice, err := decimal.NewFromString(line.UnitPrice)
		if err != nil {
			violations = append(violations, fmt.Sprintf("line %d: invalid unit price %q", i+1, line.UnitPrice))
			continue
		}
		inputs.Lines = append(inputs.Lines, pricing.Line{Quantity: quantity, UnitPrice: unitPrice})
	}
	violations = append(violations, parseOptionalDecimal(req.TaxPercentage, "tax_percentage", &inputs.TaxPercentage)...)
	violations = append(violations, parseOptionalDecimal(req.DiscountPercentage, "discount_percentage", &inputs.DiscountPercentage)...)
	violations = append(violations, parseOptionalDecimal(req.DiscountAmount, "discount_amount", &inputs.DiscountNominal)...)
	violations = append(violations, parseOptionalDecimal(req.DPPercentage, "dp_percentage", &inputs.DPPercentage)...)
	violations = append(violations, parseOptionalDecimal(req.DPAmount, "dp_amount", &inputs.DPAmount)...)
	violations = append(violations, parsePaidAmount(req.PaidAmount, &inputs.PaidAmount)...)

	violations = append(violations, pricing.Validate(inputs)...)
	if len(violations) > 0 {
		return nil, apperr.NewValidation(violations...)
	}

	totals := pricing.Calculate(inputs)
	if settlement := pricing.CheckSettlement(req.PaymentMethod, totals); len(settlement) > 0 {
		return nil, apperr.NewValidation(settlement...)
	}
	resp := &RecalculateResponse{
		Subtotal:       totals.Subtotal.String(),
		TaxAmount:      totals.TaxAmount.String(),
		DiscountAmount: totals.DiscountAmount.String(),
		GrandTotal:     totals.GrandTotal.String(),
		PaidAmount:     totals.PaidAmount.String(),
		Outstanding:    totals.Outstanding.String(),
	}
	if totals.DPPercentage != nil {
		pct := totals.DPPercentage.String()
		resp.DPPercentage = &pct
	}
	if totals.DPAmount != nil {
		amount := totals.DPAmount.String()
		resp.DPAmount = &amount
	}
	return resp, nil
}

// --- Helpers ---

func (s *purchaseOrderService) findOrder(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	po, err := s.orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("purchase order not found")
		}
		return nil, fmt.Errorf("failed to fetch purchase order: %w", err)
	}
	return po, nil
}

func (s *purchaseOrderService) isOverdue(ctx context.Context, po *model.PurchaseOrder) (bool, error) {
	status, err := s.workflow.FindStatus(ctx, model.DocTypePurchaseOrder, po.Status)
	if err != nil {
		var nf *apperr.NotFoundError
		if errors.As(err, &nf) {
			// Status removed from the registry after the fact; treat as
			// non-final so the document stays visible as overdue.
			return po.IsOverdue(false, s.nowFn()), nil
		}
		return false, err
	}
	return po.IsOverdue(status.IsFinal, s.nowFn()), nil
}

// finalStatuses returns the folded names of every final status.
func (s *purchaseOrderService) finalStatuses(ctx context.Context) (map[string]bool, error) {
	statuses, err := s.workflow.ListStatuses(ctx, model.DocTypePurchaseOrder)
	if err != nil {
		return nil, err
	}
	finals := make(map[string]bool)
	for _, status := range statuses {
		if status.IsFinal {
			finals[status.Name.Fold()] = true
		}
	}
	return finals, nil
}

func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func parsePaidAmount(raw string, dst *decimal.Decimal) []string {
	if raw == "" {
		return nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return []string{fmt.Sprintf("invalid paid_amount %q", raw)}
	}
	if value.IsNegative() {
		return []string{"paid_amount cannot be negative"}
	}
	*dst = value
	return nil
}

func parseOptionalDecimal(raw, field string, dst **decimal.Decimal) []string {
	if raw == "" {
		return nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return []string{fmt.Sprintf("invalid %s %q", field, raw)}
	}
	*dst = &value
	return nil
}
