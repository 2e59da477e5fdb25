package repository

import (
	"context"
	"time"

	"nimbus-backend/internal/model"
	"nimbus-backend/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// POFilter narrows List results. Zero values mean "no filter".
type POFilter struct {
	Status     model.StatusName
	SupplierID uuid.UUID
	DateFrom   *time.Time
	DateTo     *time.Time
	Search     string
}

type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *model.PurchaseOrder, lines []model.PurchaseOrderLineItem) error
	Update(ctx context.Context, po *model.PurchaseOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	FindByNumber(ctx context.Context, poNumber string) (*model.PurchaseOrder, error)
	ListLines(ctx context.Context, poID uuid.UUID) ([]model.PurchaseOrderLineItem, error)
	List(ctx context.Context, filter POFilter, params pagination.Params) ([]model.PurchaseOrder, int64, error)
	NextDailySequence(ctx context.Context, prefix string) (int64, error)
	AppendStatusLog(ctx context.Context, entry *model.StatusChangeLog) error
	ListStatusLogs(ctx context.Context, poID uuid.UUID) ([]model.StatusChangeLog, error)
	AppendPaymentLog(ctx context.Context, entry *model.PaymentLog) error
	ListPaymentLogs(ctx context.Context, poID uuid.UUID) ([]model.PaymentLog, error)
	CountByStatus(ctx context.Context, status model.StatusName) (int64, error)
	CountBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error)
	CountByWarehouse(ctx context.Context, warehouseID uuid.UUID) (int64, error)
	CountByItem(ctx context.Context, itemID uuid.UUID) (int64, error)
}

type purchaseOrderRepository struct {
	db *gorm.DB
}

func NewPurchaseOrderRepository(db *gorm.DB) PurchaseOrderRepository {
	return &purchaseOrderRepository{db: db}
}

func (r *purchaseOrderRepository) Create(ctx context.Context, po *model.PurchaseOrder, lines []model.PurchaseOrderLineItem) error {
	db := GetDB(ctx, r.db)
	if err := db.Create(po).Error; err != nil {
		return err
	}
	for i := range lines {
		lines[i].POID = po.ID
	}
	if len(lines) == 0 {
		return nil
	}
	return db.Create(&lines).Error
}

func (r *purchaseOrderRepository) Update(ctx context.Context, po *model.PurchaseOrder) error {
	return GetDB(ctx, r.db).Save(po).Error
}

func (r *purchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	if err := GetDB(ctx, r.db).First(&po, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *purchaseOrderRepository) FindByNumber(ctx context.Context, poNumber string) (*model.PurchaseOrder, error) {
	var po model.PurchaseOrder
	if err := GetDB(ctx, r.db).Where("po_number = ?", poNumber).First(&po).Error; err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *purchaseOrderRepository) ListLines(ctx context.Context, poID uuid.UUID) ([]model.PurchaseOrderLineItem, error) {
	var lines []model.PurchaseOrderLineItem
	err := GetDB(ctx, r.db).
		Where("po_id = ?", poID).
		Order("line_number asc").
		Find(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *purchaseOrderRepository) List(ctx context.Context, filter POFilter, params pagination.Params) ([]model.PurchaseOrder, int64, error) {
	query := GetDB(ctx, r.db).Model(&model.PurchaseOrder{})

	if !filter.Status.IsEmpty() {
		query = query.Where("LOWER(TRIM(status)) = ?", filter.Status.Fold())
	}
	if filter.SupplierID != uuid.Nil {
		query = query.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.DateFrom != nil {
		query = query.Where("po_date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("po_date <= ?", *filter.DateTo)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.
			Joins("LEFT JOIN suppliers ON suppliers.id = purchase_orders.supplier_id").
			Where("purchase_orders.po_number ILIKE ? OR suppliers.name ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []model.PurchaseOrder
	err := query.
		Order("purchase_orders.updated_at desc").
		Offset(params.Offset).
		Limit(params.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// NextDailySequence returns the next 1-based sequence for the given number
// prefix. The advisory lock serializes concurrent creators of the same
// prefix until the surrounding transaction commits.
func (r *purchaseOrderRepository) NextDailySequence(ctx context.Context, prefix string) (int64, error) {
	db := GetDB(ctx, r.db)
	if err := db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix).Error; err != nil {
		return 0, err
	}

	var count int64
	err := db.Model(&model.PurchaseOrder{}).
		Where("po_number LIKE ?", prefix+"%").
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count + 1, nil
}

func (r *purchaseOrderRepository) AppendStatusLog(ctx context.Context, entry *model.StatusChangeLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *purchaseOrderRepository) ListStatusLogs(ctx context.Context, poID uuid.UUID) ([]model.StatusChangeLog, error) {
	var logs []model.StatusChangeLog
	err := GetDB(ctx, r.db).
		Where("po_id = ?", poID).
		Order("changed_at asc").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *purchaseOrderRepository) AppendPaymentLog(ctx context.Context, entry *model.PaymentLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *purchaseOrderRepository) ListPaymentLogs(ctx context.Context, poID uuid.UUID) ([]model.PaymentLog, error) {
	var logs []model.PaymentLog
	err := GetDB(ctx, r.db).
		Where("po_id = ?", poID).
		Order("paid_at asc").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *purchaseOrderRepository) CountByStatus(ctx context.Context, status model.StatusName) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).
		Model(&model.PurchaseOrder{}).
		Where("LOWER(TRIM(status)) = ?", status.Fold()).
		Count(&count).Error
	return count, err
}

func (r *purchaseOrderRepository) CountBySupplier(ctx context.Context, supplierID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).
		Model(&model.PurchaseOrder{}).
		Where("supplier_id = ?", supplierID).
		Count(&count).Error
	return count, err
}

func (r *purchaseOrderRepository) CountByWarehouse(ctx context.Context, warehouseID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).
		Model(&model.PurchaseOrder{}).
		Where("warehouse_id = ?", warehouseID).
		Count(&count).Error
	return count, err
}

func (r *purchaseOrderRepository) CountByItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).
		Model(&model.PurchaseOrderLineItem{}).
		Where("item_id = ?", itemID).
		Count(&count).Error
	return count, err
}
