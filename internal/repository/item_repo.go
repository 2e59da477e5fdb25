package repository

import (
	"context"

	"nimbus-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	Update(ctx context.Context, item *model.Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error)
	FindBySKU(ctx context.Context, sku string) (*model.Item, error)
	ListAll(ctx context.Context) ([]model.Item, error)
	NextSKUSequence(ctx context.Context, prefix string) (int64, error)
}

type itemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Create(ctx context.Context, item *model.Item) error {
	return GetDB(ctx, r.db).Create(item).Error
}

func (r *itemRepository) Update(ctx context.Context, item *model.Item) error {
	return GetDB(ctx, r.db).Save(item).Error
}

func (r *itemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Item{}).Error
}

func (r *itemRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	if err := GetDB(ctx, r.db).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) FindBySKU(ctx context.Context, sku string) (*model.Item, error) {
	var item model.Item
	if err := GetDB(ctx, r.db).Where("sku = ?", sku).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepository) ListAll(ctx context.Context) ([]model.Item, error) {
	var items []model.Item
	if err := GetDB(ctx, r.db).Order("sku asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// NextSKUSequence counts existing SKUs sharing the consonant prefix.
func (r *itemRepository) NextSKUSequence(ctx context.Context, prefix string) (int64, error) {
	db := GetDB(ctx, r.db)
	if err := db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "sku_"+prefix).Error; err != nil {
		return 0, err
	}
	var count int64
	err := db.Model(&model.Item{}).
		Where("sku LIKE ?", prefix+"%").
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count + 1, nil
}

type UOMRepository interface {
	Create(ctx context.Context, uom *model.UOM) error
	Update(ctx context.Context, uom *model.UOM) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.UOM, error)
	FindByShortCode(ctx context.Context, shortCode string) (*model.UOM, error)
	ListAll(ctx context.Context) ([]model.UOM, error)
	NextSequence(ctx context.Context) (int64, error)
	CountItems(ctx context.Context, uomID uuid.UUID) (int64, error)
}

type uomRepository struct {
	db *gorm.DB
}

func NewUOMRepository(db *gorm.DB) UOMRepository {
	return &uomRepository{db: db}
}

func (r *uomRepository) Create(ctx context.Context, uom *model.UOM) error {
	return GetDB(ctx, r.db).Create(uom).Error
}

func (r *uomRepository) Update(ctx context.Context, uom *model.UOM) error {
	return GetDB(ctx, r.db).Save(uom).Error
}

func (r *uomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.UOM{}).Error
}

func (r *uomRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.UOM, error) {
	var uom model.UOM
	if err := GetDB(ctx, r.db).First(&uom, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &uom, nil
}

func (r *uomRepository) FindByShortCode(ctx context.Context, shortCode string) (*model.UOM, error) {
	var uom model.UOM
	if err := GetDB(ctx, r.db).Where("code = ?", shortCode).First(&uom).Error; err != nil {
		return nil, err
	}
	return &uom, nil
}

func (r *uomRepository) ListAll(ctx context.Context) ([]model.UOM, error) {
	var uoms []model.UOM
	if err := GetDB(ctx, r.db).Order("uom_id asc").Find(&uoms).Error; err != nil {
		return nil, err
	}
	return uoms, nil
}

func (r *uomRepository) NextSequence(ctx context.Context) (int64, error) {
	db := GetDB(ctx, r.db)
	if err := db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "uom_code").Error; err != nil {
		return 0, err
	}
	var count int64
	if err := db.Model(&model.UOM{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count + 1, nil
}

func (r *uomRepository) CountItems(ctx context.Context, uomID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).
		Model(&model.Item{}).
		Where("uom_id = ?", uomID).
		Count(&count).Error
	return count, err
}
