// Package memory provides in-memory repository implementations backed by a
// single mutex-guarded store. They satisfy the same interfaces as the
// database-backed repositories and report missing rows with
// gorm.ErrRecordNotFound, so services behave identically over either.
package memory

import (
	"context"
	"sync"

	"nimbus-backend/internal/model"
	"nimbus-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store holds every table of the in-memory database.
type Store struct {
	mu sync.RWMutex

	statuses    map[uuid.UUID]model.DocumentStatus
	transitions map[uuid.UUID]model.WorkflowTransition
	roles       map[uuid.UUID]model.FunctionalRole
	rules       []model.PermissionRule
	users       map[uuid.UUID]model.User
	userRoles   []model.UserRole
	orders      map[uuid.UUID]model.PurchaseOrder
	lines       []model.PurchaseOrderLineItem
	statusLogs  []model.StatusChangeLog
	paymentLogs []model.PaymentLog
	suppliers   map[uuid.UUID]model.Supplier
	items       map[uuid.UUID]model.Item
	uoms        map[uuid.UUID]model.UOM
	warehouses  map[uuid.UUID]model.Warehouse

	order []uuid.UUID // insertion order across all tables
}

func NewStore() *Store {
	return &Store{
		statuses:    make(map[uuid.UUID]model.DocumentStatus),
		transitions: make(map[uuid.UUID]model.WorkflowTransition),
		roles:       make(map[uuid.UUID]model.FunctionalRole),
		users:       make(map[uuid.UUID]model.User),
		orders:      make(map[uuid.UUID]model.PurchaseOrder),
		suppliers:   make(map[uuid.UUID]model.Supplier),
		items:       make(map[uuid.UUID]model.Item),
		uoms:        make(map[uuid.UUID]model.UOM),
		warehouses:  make(map[uuid.UUID]model.Warehouse),
	}
}

func (s *Store) track(id uuid.UUID) {
	s.order = append(s.order, id)
}

func (s *Store) position(id uuid.UUID) int {
	for i, v := range s.order {
		if v == id {
			return i
		}
	}
	return len(s.order)
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

// TxManager is a pass-through: the store has no transactions, every call
// already sees committed state.
type TxManager struct{}

func NewTxManager() repository.TransactionManager { return TxManager{} }

func (TxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

var errNotFound = gorm.ErrRecordNotFound
