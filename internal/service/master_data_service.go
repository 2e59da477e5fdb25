package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nimbus-backend/internal/apperr"
	"nimbus-backend/internal/model"
	"nimbus-backend/internal/repository"
	"nimbus-backend/internal/sequence"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type SupplierRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
}

type UOMRequest struct {
	ShortCode   string `json:"code" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type ItemRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	UOMID       string `json:"uom_id" binding:"required"`
}

type WarehouseRequest struct {
	Name     string `json:"name" binding:"required"`
	NodeType string `json:"node_type" binding:"required"`
	ParentID string `json:"parent_id"`
	Address  string `json:"address"`
}

// --- Interface ---

// MasterDataService manages the supplier, unit, item and warehouse
// registries referenced by purchase orders. Creation assigns the
// human-readable codes; deletion is blocked while references exist.
type MasterDataService interface {
	CreateSupplier(ctx context.Context, req SupplierRequest) (*model.Supplier, error)
	UpdateSupplier(ctx context.Context, id uuid.UUID, req SupplierRequest) (*model.Supplier, error)
	DeleteSupplier(ctx context.Context, id uuid.UUID) error
	ListSuppliers(ctx context.Context) ([]model.Supplier, error)

	CreateUOM(ctx context.Context, req UOMRequest) (*model.UOM, error)
	UpdateUOM(ctx context.Context, id uuid.UUID, req UOMRequest) (*model.UOM, error)
	DeleteUOM(ctx context.Context, id uuid.UUID) error
	ListUOMs(ctx context.Context) ([]model.UOM, error)

	CreateItem(ctx context.Context, req ItemRequest) (*model.Item, error)
	UpdateItem(ctx context.Context, id uuid.UUID, req ItemRequest) (*model.Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	ListItems(ctx context.Context) ([]model.Item, error)

	CreateWarehouse(ctx context.Context, req WarehouseRequest) (*model.Warehouse, error)
	UpdateWarehouse(ctx context.Context, id uuid.UUID, req WarehouseRequest) (*model.Warehouse, error)
	DeleteWarehouse(ctx context.Context, id uuid.UUID) error
	ListWarehouses(ctx context.Context) ([]model.Warehouse, error)
	ListRootWarehouses(ctx context.Context) ([]model.Warehouse, error)
}

type masterDataService struct {
	suppliers  repository.SupplierRepository
	uoms       repository.UOMRepository
	items      repository.ItemRepository
	warehouses repository.WarehouseRepository
	orders     repository.PurchaseOrderRepository
	txMgr      repository.TransactionManager
}

func NewMasterDataService(
	suppliers repository.SupplierRepository,
	uoms repository.UOMRepository,
	items repository.ItemRepository,
	warehouses repository.WarehouseRepository,
	orders repository.PurchaseOrderRepository,
	txMgr repository.TransactionManager,
) MasterDataService {
	return &masterDataService{
		suppliers:  suppliers,
		uoms:       uoms,
		items:      items,
		warehouses: warehouses,
		orders:     orders,
		txMgr:      txMgr,
	}
}

// --- Suppliers ---

func (s *masterDataService) CreateSupplier(ctx context.Context, req SupplierRequest) (*model.Supplier, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.NewValidation("supplier name cannot be empty")
	}

	supplier := model.Supplier{
		Name:     strings.TrimSpace(req.Name),
		Address:  req.Address,
		Phone:    req.Phone,
		Email:    req.Email,
		IsActive: true,
	}

	err := s.txMgr.RunInTx(ctx, func(txCtx context.Context) error {
		seq, err := s.suppliers.NextSequence(txCtx)
		if err != nil {
			return fmt.Errorf("failed to reserve supplier code: %w", err)
		}
		supplier.Code = sequence.SupplierCode(seq)
		if err := s.suppliers.Create(txCtx, &supplier); err != nil {
			return fmt.Errorf("failed to create supplier: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (s *masterDataService) UpdateSupplier(ctx context.Context, id uuid.UUID, req SupplierRequest) (*model.Supplier, error) {
	supplier, err := s.suppliers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("supplier not found")
		}
		return nil, fmt.Errorf("failed to fetch supplier: %w", err)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.NewValidation("supplier name cannot be empty")
	}

	supplier.Name = strings.TrimSpace(req.Name)
	supplier.Address = req.Address
	supplier.Phone = req.Phone
	supplier.Email = req.Email
	if err := s.suppliers.Update(ctx, supplier); err != nil {
		return nil, fmt.Errorf("failed to update supplier: %w", err)
	}
	return supplier, nil
}

func (s *masterDataService) DeleteSupplier(ctx context.Context, id uuid.UUID) error {
	supplier, err := s.suppliers.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NewNotFound("supplier not found")
		}
		return fmt.Errorf("failed to fetch supplier: %w", err)
	}

	count, err := s.orders.CountBySupplier(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count supplier references: %w", err)
	}
	if count > 0 {
		return apperr.NewReferential(fmt.Sprintf("supplier %s is referenced by %d purchase order(s) and cannot be deleted", supplier.Code, count))
	}

	if err := s.suppliers.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete supplier: %w", err)
	}
	return nil
}

func (s *masterDataService) ListSuppliers(ctx context.Context) ([]model.Supplier, error) {
	suppliers, err := s.suppliers.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list suppliers: %w", err)
	}
	return suppliers, nil
}

// --- Units of measure ---

func (s *masterDataService) CreateUOM(ctx context.Context, req UOMRequest) (*model.UOM, error) {
	var violations []string
	shortCode := strings.TrimSpace(req.ShortCode)
	if shortCode == "" {
		violations = append(violations, "unit code cannot be empty")
	}
	if strings.TrimSpace(req.Name) == "" {
		violations = append(violations, "unit name cannot be empty")
	}
	if shortCode != "" {
		if existing, err := s.uoms.FindByShortCode(ctx, shortCode); err == nil && existing != nil {
			violations = append(violations, fmt.Sprintf("unit code %q already exists", shortCode))
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check unit code: %w", err)
		}
	}
	if len(violations) > 0 {
		return nil, apperr.NewValidation(violations...)
	}

	uom := model.UOM{
		ShortCode:   shortCode,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		IsActive:    true,
	}

	err := s.txMgr.RunInTx(ctx, func(txCtx context.Context) error {
		seq, err := s.uoms.NextSequence(txCtx)
		if err != nil {
			return fmt.Errorf("failed to reserve unit code: %w", err)
		}
		uom.Code = sequence.UOMCode(seq)
		if err := s.uoms.Create(txCtx, &uom); err != nil {
			return fmt.Errorf("failed to create unit: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &uom, nil
}

func (s *masterDataService) UpdateUOM(ctx context.Context, id uuid.UUID, req UOMRequest) (*model.UOM, error) {
	uom, err := s.uoms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("unit not found")
		}
		return nil, fmt.Errorf("failed to fetch unit: %w", err)
	}

	shortCode := strings.TrimSpace(req.ShortCode)
	if shortCode == "" || strings.TrimSpace(req.Name) == "" {
		return nil, apperr.NewValidation("unit code and name cannot be empty")
	}
	if shortCode != uom.ShortCode {
		if existing, err := s.uoms.FindByShortCode(ctx, shortCode); err == nil && existing != nil && existing.ID != uom.ID {
			return nil, apperr.NewValidation(fmt.Sprintf("unit code %q already exists", shortCode))
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check unit code: %w", err)
		}
	}

	uom.ShortCode = shortCode
	uom.Name = strings.TrimSpace(req.Name)
	uom.Description = req.Description
	if err := s.uoms.Update(ctx, uom); err != nil {
		return nil, fmt.Errorf("failed to update unit: %w", err)
	}
	return uom, nil
}

func (s *masterDataService) DeleteUOM(ctx context.Context, id uuid.UUID) error {
	uom, err := s.uoms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NewNotFound("unit not found")
		}
		return fmt.Errorf("failed to fetch unit: %w", err)
	}

	count, err := s.uoms.CountItems(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count unit references: %w", err)
	}
	if count > 0 {
		return apperr.NewReferential(fmt.Sprintf("unit %s is referenced by %d item(s) and cannot be deleted", uom.Code, count))
	}

	if err := s.uoms.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete unit: %w", err)
	}
	return nil
}

func (s *masterDataService) ListUOMs(ctx context.Context) ([]model.UOM, error) {
	uoms, err := s.uoms.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	return uoms, nil
}

// --- Items ---

func (s *masterDataService) CreateItem(ctx context.Context, req ItemRequest) (*model.Item, error) {
	var violations []string
	name := strings.TrimSpace(req.Name)
	if name == "" {
		violations = append(violations, "item name cannot be empty")
	}

	uomID, err := uuid.Parse(req.UOMID)
	if err != nil {
		violations = append(violations, fmt.Sprintf("invalid unit id %q", req.UOMID))
	} else if _, err := s.uoms.FindByID(ctx, uomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			violations = append(violations, fmt.Sprintf("unit %s does not exist", uomID))
		} else {
			return nil, fmt.Errorf("failed to fetch unit: %w", err)
		}
	}
	if len(violations) > 0 {
		return nil, apperr.NewValidation(violations...)
	}

	item := model.Item{
		Name:        name,
		Description: req.Description,
		UOMID:       uomID,
		IsActive:    true,
	}

	err = s.txMgr.RunInTx(ctx, func(txCtx context.Context) error {
		prefix := sequence.SKUPrefix(name)
		seq, err := s.items.NextSKUSequence(txCtx, prefix)
		if err != nil {
			return fmt.Errorf("failed to reserve SKU: %w", err)
		}
		item.SKU = sequence.SKU(prefix, seq)
		if err := s.items.Create(txCtx, &item); err != nil {
			return fmt.Errorf("failed to create item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *masterDataService) UpdateItem(ctx context.Context, id uuid.UUID, req ItemRequest) (*model.Item, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("item not found")
		}
		return nil, fmt.Errorf("failed to fetch item: %w", err)
	}

	var violations []string
	name := strings.TrimSpace(req.Name)
	if name == "" {
		violations = append(violations, "item name cannot be empty")
	}
	uomID, err := uuid.Parse(req.UOMID)
	if err != nil {
		violations = append(violations, fmt.Sprintf("invalid unit id %q", req.UOMID))
	} else if _, err := s.uoms.FindByID(ctx, uomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			violations = append(violations, fmt.Sprintf("unit %s does not exist", uomID))
		} else {
			return nil, fmt.Errorf("failed to fetch unit: %w", err)
		}
	}
	if len(violations) > 0 {
		return nil, apperr.NewValidation(violations...)
	}

	// The SKU stays as assigned at creation even if the name changes.
	item.Name = name
	item.Description = req.Description
	item.UOMID = uomID
	if err := s.items.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	return item, nil
}

func (s *masterDataService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NewNotFound("item not found")
		}
		return fmt.Errorf("failed to fetch item: %w", err)
	}

	count, err := s.orders.CountByItem(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count item references: %w", err)
	}
	if count > 0 {
		return apperr.NewReferential(fmt.Sprintf("item %s is referenced by %d purchase order line(s) and cannot be deleted", item.SKU, count))
	}

	if err := s.items.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return nil
}

func (s *masterDataService) ListItems(ctx context.Context) ([]model.Item, error) {
	items, err := s.items.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// --- Warehouses ---

var validNodeTypes = map[string]bool{
	model.NodeTypeWarehouse: true,
	model.NodeTypeAisle:     true,
	model.NodeTypeRack:      true,
	model.NodeTypeBin:       true,
}

func (s *masterDataService) CreateWarehouse(ctx context.Context, req WarehouseRequest) (*model.Warehouse, error) {
	var violations []string
	name := strings.TrimSpace(req.Name)
	if name == "" {
		violations = append(violations, "warehouse name cannot be empty")
	}
	if !validNodeTypes[req.NodeType] {
		violations = append(violations, fmt.Sprintf("unknown node type %q", req.NodeType))
	}

	var parentID *uuid.UUID
	if req.NodeType == model.NodeTypeWarehouse {
		if req.ParentID != "" {
			violations = append(violations, "a top-level warehouse cannot have a parent")
		}
	} else if validNodeTypes[req.NodeType] {
		if req.ParentID == "" {
			violations = append(violations, fmt.Sprintf("a %s node requires a parent", req.NodeType))
		} else {
			id, err := uuid.Parse(req.ParentID)
			if err != nil {
				violations = append(violations, fmt.Sprintf("invalid parent id %q", req.ParentID))
			} else if _, err := s.warehouses.FindByID(ctx, id); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					violations = append(violations, fmt.Sprintf("parent node %s does not exist", id))
				} else {
					return nil, fmt.Errorf("failed to fetch parent node: %w", err)
				}
			} else {
				parentID = &id
			}
		}
	}
	if len(violations) > 0 {
		return nil, apperr.NewValidation(violations...)
	}

	warehouse := model.Warehouse{
		NodeType: req.NodeType,
		ParentID: parentID,
		Name:     name,
		Address:  req.Address,
		IsActive: true,
	}

	err := s.txMgr.RunInTx(ctx, func(txCtx context.Context) error {
		seq, err := s.warehouses.NextSequence(txCtx, req.NodeType)
		if err != nil {
			return fmt.Errorf("failed to reserve node id: %w", err)
		}
		warehouse.NodeID = sequence.NodeID(req.NodeType, seq)
		if err := s.warehouses.Create(txCtx, &warehouse); err != nil {
			return fmt.Errorf("failed to create warehouse node: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &warehouse, nil
}

func (s *masterDataService) UpdateWarehouse(ctx context.Context, id uuid.UUID, req WarehouseRequest) (*model.Warehouse, error) {
	warehouse, err := s.warehouses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFound("warehouse node not found")
		}
		return nil, fmt.Errorf("failed to fetch warehouse node: %w", err)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, apperr.NewValidation("warehouse name cannot be empty")
	}

	// Node type and parent are fixed after creation; only descriptive
	// fields change.
	warehouse.Name = strings.TrimSpace(req.Name)
	warehouse.Address = req.Address
	if err := s.warehouses.Update(ctx, warehouse); err != nil {
		return nil, fmt.Errorf("failed to update warehouse node: %w", err)
	}
	return warehouse, nil
}

func (s *masterDataService) DeleteWarehouse(ctx context.Context, id uuid.UUID) error {
	warehouse, err := s.warehouses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NewNotFound("warehouse node not found")
		}
		return fmt.Errorf("failed to fetch warehouse node: %w", err)
	}

	children, err := s.warehouses.CountChildren(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count child nodes: %w", err)
	}
	if children > 0 {
		return apperr.NewReferential(fmt.Sprintf("node %s has %d child node(s) and cannot be deleted", warehouse.NodeID, children))
	}

	count, err := s.orders.CountByWarehouse(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count warehouse references: %w", err)
	}
	if count > 0 {
		return apperr.NewReferential(fmt.Sprintf("warehouse %s is referenced by %d purchase order(s) and cannot be deleted", warehouse.NodeID, count))
	}

	if err := s.warehouses.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete warehouse node: %w", err)
	}
	return nil
}

func (s *masterDataService) ListWarehouses(ctx context.Context) ([]model.Warehouse, error) {
	warehouses, err := s.warehouses.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list warehouse nodes: %w", err)
	}
	return warehouses, nil
}

func (s *masterDataService) ListRootWarehouses(ctx context.Context) ([]model.Warehouse, error) {
	warehouses, err := s.warehouses.ListRoots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list warehouses: %w", err)
	}
	return warehouses, nil
}
