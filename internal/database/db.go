package database

import (
	"log"

	"nimbus-backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.FunctionalRole{},
		&model.PermissionRule{},
		&model.UserRole{},
		&model.DocumentStatus{},
		&model.WorkflowTransition{},
		&model.Supplier{},
		&model.UOM{},
		&model.Item{},
		&model.Warehouse{},
		&model.PurchaseOrder{},
		&model.PurchaseOrderLineItem{},
		&model.StatusChangeLog{},
		&model.PaymentLog{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}
