package repository

import (
	"context"

	"nimbus-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WarehouseRepository interface {
	Create(ctx context.Context, warehouse *model.Warehouse) error
	Update(ctx context.Context, warehouse *model.Warehouse) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Warehouse, error)
	ListAll(ctx context.Context) ([]model.Warehouse, error)
	ListRoots(ctx context.Context) ([]model.Warehouse, error)
	CountChildren(ctx context.Context, parentID uuid.UUID) (int64, error)
	NextSequence(ctx context.Context, nodeType string) (int64, error)
}

type warehouseRepository struct {
	db *gorm.DB
}

func NewWarehouseRepository(db *gorm.DB) WarehouseRepository {
	return &warehouseRepository{db: db}
}

func (r *warehouseRepository) Create(ctx context.Context, warehouse *model.Warehouse) error {
	return GetDB(ctx, r.db).Create(warehouse).Error
}

func (r *warehouseRepository) Update(ctx context.Context, warehouse *model.Warehouse) error {
	return GetDB(ctx, r.db).Save(warehouse).Error
}

func (r *warehouseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Warehouse{}).Error
}

func (r *warehouseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Warehouse, error) {
	var warehouse model.Warehouse
	if err := GetDB(ctx, r.db).First(&warehouse, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &warehouse, nil
}

func (r *warehouseRepository) ListAll(ctx context.Context) ([]model.Warehouse, error) {
	var warehouses []model.Warehouse
	if err := GetDB(ctx, r.db).Order("node_id asc").Find(&warehouses).Error; err != nil {
		return nil, err
	}
	return warehouses, nil
}

// ListRoots returns only top-level Warehouse nodes, the valid PO targets.
func (r *warehouseRepository) ListRoots(ctx context.Context) ([]model.Warehouse, error) {
	var warehouses []model.Warehouse
	err := GetDB(ctx, r.db).
		Where("parent_id IS NULL AND node_type = ?", model.NodeTypeWarehouse).
		Order("node_id asc").
		Find(&warehouses).Error
	if err != nil {
		return nil, err
	}
	return warehouses, nil
}

func (r *warehouseRepository) CountChildren(ctx context.Context, parentID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).
		Model(&model.Warehouse{}).
		Where("parent_id = ?", parentID).
		Count(&count).Error
	return count, err
}

func (r *warehouseRepository) NextSequence(ctx context.Context, nodeType string) (int64, error) {
	db := GetDB(ctx, r.db)
	if err := db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "node_"+nodeType).Error; err != nil {
		return 0, err
	}
	var count int64
	err := db.Model(&model.Warehouse{}).
		Where("node_type = ?", nodeType).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count + 1, nil
}
