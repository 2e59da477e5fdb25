package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"nimbus-backend/internal/model"
	"nimbus-backend/internal/repository"
	"nimbus-backend/pkg/pagination"

	"github.com/google/uuid"
)

type poRepo struct{ store *Store }

func NewPurchaseOrderRepository(store *Store) repository.PurchaseOrderRepository {
	return &poRepo{store: store}
}

func (r *poRepo) Create(_ context.Context, po *model.PurchaseOrder, lines []model.PurchaseOrderLineItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ensureID(&po.ID)
	po.UpdatedAt = time.Now()
	r.store.orders[po.ID] = *po
	r.store.track(po.ID)
	for _, line := range lines {
		ensureID(&line.ID)
		line.POID = po.ID
		r.store.lines = append(r.store.lines, line)
	}
	return nil
}

func (r *poRepo) Update(_ context.Context, po *model.PurchaseOrder) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.orders[po.ID]; !ok {
		return errNotFound
	}
	po.UpdatedAt = time.Now()
	r.store.orders[po.ID] = *po
	return nil
}

func (r *poRepo) FindByID(_ context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	po, ok := r.store.orders[id]
	if !ok {
		return nil, errNotFound
	}
	return &po, nil
}

func (r *poRepo) FindByNumber(_ context.Context, poNumber string) (*model.PurchaseOrder, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, po := range r.store.orders {
		if po.PONumber == poNumber {
			found := po
			return &found, nil
		}
	}
	return nil, errNotFound
}

func (r *poRepo) ListLines(_ context.Context, poID uuid.UUID) ([]model.PurchaseOrderLineItem, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var lines []model.PurchaseOrderLineItem
	for _, line := range r.store.lines {
		if line.POID == poID {
			lines = append(lines, line)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].LineNumber < lines[j].LineNumber })
	return lines, nil
}

func (r *poRepo) List(_ context.Context, filter repository.POFilter, params pagination.Params) ([]model.PurchaseOrder, int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var matched []model.PurchaseOrder
	for _, po := range r.store.orders {
		if !filter.Status.IsEmpty() && !po.Status.Equal(filter.Status) {
			continue
		}
		if filter.SupplierID != uuid.Nil && po.SupplierID != filter.SupplierID {
			continue
		}
		if filter.DateFrom != nil && po.PODate.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && po.PODate.After(*filter.DateTo) {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			supplierName := ""
			if supplier, ok := r.store.suppliers[po.SupplierID]; ok {
				supplierName = strings.ToLower(supplier.Name)
			}
			if !strings.Contains(strings.ToLower(po.PONumber), needle) &&
				!strings.Contains(supplierName, needle) {
				continue
			}
		}
		matched = append(matched, po)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
		}
		return r.store.position(matched[i].ID) > r.store.position(matched[j].ID)
	})

	total := int64(len(matched))
	start := params.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := start + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *poRepo) NextDailySequence(_ context.Context, prefix string) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var count int64
	for _, po := range r.store.orders {
		if strings.HasPrefix(po.PONumber, prefix) {
			count++
		}
	}
	return count + 1, nil
}

func (r *poRepo) AppendStatusLog(_ context.Context, entry *model.StatusChangeLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ensureID(&entry.ID)
	r.store.statusLogs = append(r.store.statusLogs, *entry)
	return nil
}

func (r *poRepo) ListStatusLogs(_ context.Context, poID uuid.UUID) ([]model.StatusChangeLog, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var logs []model.StatusChangeLog
	for _, entry := range r.store.statusLogs {
		if entry.POID == poID {
			logs = append(logs, entry)
		}
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].ChangedAt.Before(logs[j].ChangedAt) })
	return logs, nil
}

func (r *poRepo) AppendPaymentLog(_ context.Context, entry *model.PaymentLog) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	ensureID(&entry.ID)
	r.store.paymentLogs = append(r.store.paymentLogs, *entry)
	return nil
}

func (r *poRepo) ListPaymentLogs(_ context.Context, poID uuid.UUID) ([]model.PaymentLog, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var logs []model.PaymentLog
	for _, entry := range r.store.paymentLogs {
		if entry.POID == poID {
			logs = append(logs, entry)
		}
	}
	sort.SliceStable(logs, func(i, j int) bool { return logs[i].PaidAt.Before(logs[j].PaidAt) })
	return logs, nil
}

func (r *poRepo) CountByStatus(_ context.Context, status model.StatusName) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var count int64
	for _, po := range r.store.orders {
		if po.Status.Equal(status) {
			count++
		}
	}
	return count, nil
}

func (r *poRepo) CountBySupplier(_ context.Context, supplierID uuid.UUID) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var count int64
	for _, po := range r.store.orders {
		if po.SupplierID == supplierID {
			count++
		}
	}
	return count, nil
}

func (r *poRepo) CountByWarehouse(_ context.Context, warehouseID uuid.UUID) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var count int64
	for _, po := range r.store.orders {
		if po.WarehouseID == warehouseID {
			count++
		}
	}
	return count, nil
}

func (r *poRepo) CountByItem(_ context.Context, itemID uuid.UUID) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var count int64
	for _, line := range r.store.lines {
		if line.ItemID == itemID {
			count++
		}
	}
	return count, nil
}
