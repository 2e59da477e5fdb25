package memory

import (
	"context"
	"sort"
	"strings"

	"nimbus-backend/internal/model"
	"nimbus-backend/internal/repository"

	"github.com/google/uuid"
)

type supplierRepo struct{ store *Store }

func NewSupplierRepository(store *Store) repository.SupplierRepository {
	return &supplierRepo{store: store}
}

func (r *supplierRepo) Create(_ context.Context, supplier *model.Supplier) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ensureID(&supplier.ID)
	r.store.suppliers[supplier.ID] = *supplier
	r.store.track(supplier.ID)
	return nil
}

func (r *supplierRepo) Update(_ context.Context, supplier *model.Supplier) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.suppliers[supplier.ID]; !ok {
		return errNotFound
	}
	r.store.suppliers[supplier.ID] = *supplier
	return nil
}

func (r *supplierRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.suppliers, id)
	return nil
}

func (r *supplierRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Supplier, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	supplier, ok := r.store.suppliers[id]
	if !ok {
		return nil, errNotFound
	}
	return &supplier, nil
}

func (r *supplierRepo) FindByCode(_ context.Context, code string) (*model.Supplier, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, supplier := range r.store.suppliers {
		if supplier.Code == code {
			found := supplier
			return &found, nil
		}
	}
	return nil, errNotFound
}

func (r *supplierRepo) ListAll(_ context.Context) ([]model.Supplier, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	suppliers := make([]model.Supplier, 0, len(r.store.suppliers))
	for _, supplier := range r.store.suppliers {
		suppliers = append(suppliers, supplier)
	}
	sort.Slice(suppliers, func(i, j int) bool { return suppliers[i].Code < suppliers[j].Code })
	return suppliers, nil
}

func (r *supplierRepo) NextSequence(_ context.Context) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.store.suppliers)) + 1, nil
}

type itemRepo struct{ store *Store }

func NewItemRepository(store *Store) repository.ItemRepository {
	return &itemRepo{store: store}
}

func (r *itemRepo) Create(_ context.Context, item *model.Item) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ensureID(&item.ID)
	r.store.items[item.ID] = *item
	r.store.track(item.ID)
	return nil
}

func (r *itemRepo) Update(_ context.Context, item *model.Item) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.items[item.ID]; !ok {
		return errNotFound
	}
	r.store.items[item.ID] = *item
	return nil
}

func (r *itemRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.items, id)
	return nil
}

func (r *itemRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Item, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	item, ok := r.store.items[id]
	if !ok {
		return nil, errNotFound
	}
	return &item, nil
}

func (r *itemRepo) FindBySKU(_ context.Context, sku string) (*model.Item, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, item := range r.store.items {
		if item.SKU == sku {
			found := item
			return &found, nil
		}
	}
	return nil, errNotFound
}

func (r *itemRepo) ListAll(_ context.Context) ([]model.Item, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	items := make([]model.Item, 0, len(r.store.items))
	for _, item := range r.store.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].SKU < items[j].SKU })
	return items, nil
}

func (r *itemRepo) NextSKUSequence(_ context.Context, prefix string) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var count int64
	for _, item := range r.store.items {
		if strings.HasPrefix(item.SKU, prefix) {
			count++
		}
	}
	return count + 1, nil
}

type uomRepo struct{ store *Store }

func NewUOMRepository(store *Store) repository.UOMRepository {
	return &uomRepo{store: store}
}

func (r *uomRepo) Create(_ context.Context, uom *model.UOM) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ensureID(&uom.ID)
	r.store.uoms[uom.ID] = *uom
	r.store.track(uom.ID)
	return nil
}

func (r *uomRepo) Update(_ context.Context, uom *model.UOM) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.uoms[uom.ID]; !ok {
		return errNotFound
	}
	r.store.uoms[uom.ID] = *uom
	return nil
}

func (r *uomRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.uoms, id)
	return nil
}

func (r *uomRepo) FindByID(_ context.Context, id uuid.UUID) (*model.UOM, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	uom, ok := r.store.uoms[id]
	if !ok {
		return nil, errNotFound
	}
	return &uom, nil
}

func (r *uomRepo) FindByShortCode(_ context.Context, shortCode string) (*model.UOM, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, uom := range r.store.uoms {
		if uom.ShortCode == shortCode {
			found := uom
			return &found, nil
		}
	}
	return nil, errNotFound
}

func (r *uomRepo) ListAll(_ context.Context) ([]model.UOM, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	uoms := make([]model.UOM, 0, len(r.store.uoms))
	for _, uom := range r.store.uoms {
		uoms = append(uoms, uom)
	}
	sort.Slice(uoms, func(i, j int) bool { return uoms[i].Code < uoms[j].Code })
	return uoms, nil
}

func (r *uomRepo) NextSequence(_ context.Context) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return int64(len(r.store.uoms)) + 1, nil
}

func (r *uomRepo) CountItems(_ context.Context, uomID uuid.UUID) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var count int64
	for _, item := range r.store.items {
		if item.UOMID == uomID {
			count++
		}
	}
	return count, nil
}

type warehouseRepo struct{ store *Store }

func NewWarehouseRepository(store *Store) repository.WarehouseRepository {
	return &warehouseRepo{store: store}
}

func (r *warehouseRepo) Create(_ context.Context, warehouse *model.Warehouse) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ensureID(&warehouse.ID)
	r.store.warehouses[warehouse.ID] = *warehouse
	r.store.track(warehouse.ID)
	return nil
}

func (r *warehouseRepo) Update(_ context.Context, warehouse *model.Warehouse) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.warehouses[warehouse.ID]; !ok {
		return errNotFound
	}
	r.store.warehouses[warehouse.ID] = *warehouse
	return nil
}

func (r *warehouseRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.warehouses, id)
	return nil
}

func (r *warehouseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Warehouse, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	warehouse, ok := r.store.warehouses[id]
	if !ok {
		return nil, errNotFound
	}
	return &warehouse, nil
}

func (r *warehouseRepo) ListAll(_ context.Context) ([]model.Warehouse, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	warehouses := make([]model.Warehouse, 0, len(r.store.warehouses))
	for _, warehouse := range r.store.warehouses {
		warehouses = append(warehouses, warehouse)
	}
	sort.Slice(warehouses, func(i, j int) bool { return warehouses[i].NodeID < warehouses[j].NodeID })
	return warehouses, nil
}

func (r *warehouseRepo) ListRoots(_ context.Context) ([]model.Warehouse, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var warehouses []model.Warehouse
	for _, warehouse := range r.store.warehouses {
		if warehouse.ParentID == nil && warehouse.NodeType == model.NodeTypeWarehouse {
			warehouses = append(warehouses, warehouse)
		}
	}
	sort.Slice(warehouses, func(i, j int) bool { return warehouses[i].NodeID < warehouses[j].NodeID })
	return warehouses, nil
}

func (r *warehouseRepo) CountChildren(_ context.Context, parentID uuid.UUID) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var count int64
	for _, warehouse := range r.store.warehouses {
		if warehouse.ParentID != nil && *warehouse.ParentID == parentID {
			count++
		}
	}
	return count, nil
}

func (r *warehouseRepo) NextSequence(_ context.Context, nodeType string) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var count int64
	for _, warehouse := range r.store.warehouses {
		if warehouse.NodeType == nodeType {
			count++
		}
	}
	return count + 1, nil
}
