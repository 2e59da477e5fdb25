package database

import (
	"fmt"
	"log"

	"nimbus-backend/internal/model"

	"gorm.io/gorm"
)

// Seed inserts the baseline records the application assumes: the Admin
// system role with the full permission matrix, the default Purchase Order
// workflow and the standard units of measure. Seeding is idempotent.
func Seed(db *gorm.DB) error {
	admin, err := seedAdminRole(db)
	if err != nil {
		return fmt.Errorf("failed to seed admin role: %w", err)
	}
	if err := seedPurchaseOrderWorkflow(db, admin); err != nil {
		return fmt.Errorf("failed to seed workflow: %w", err)
	}
	if err := seedUOMs(db); err != nil {
		return fmt.Errorf("failed to seed units: %w", err)
	}
	return nil
}

func seedAdminRole(db *gorm.DB) (*model.FunctionalRole, error) {
	admin := model.FunctionalRole{
		Name:        "Admin",
		Description: "Full access to every entity",
		IsSystem:    true,
	}
	if err := db.Where("name = ?", admin.Name).FirstOrCreate(&admin).Error; err != nil {
		return nil, err
	}

	for _, entity := range model.AllEntityKinds() {
		rule := model.PermissionRule{
			RoleID:    admin.ID,
			Entity:    entity,
			CanCreate: true,
			CanRead:   true,
			CanUpdate: true,
			CanDelete: true,
			CanCancel: true,
		}
		err := db.Where("role_id = ? AND entity_name = ?", admin.ID, entity).
			FirstOrCreate(&rule).Error
		if err != nil {
			return nil, err
		}
	}
	return &admin, nil
}

// seedPurchaseOrderWorkflow configures the default lifecycle:
// Draft -> Submitted -> Approved -> Completed, with Rejected reachable from
// Submitted and Cancelled reachable from Draft/Submitted/Approved.
func seedPurchaseOrderWorkflow(db *gorm.DB, admin *model.FunctionalRole) error {
	statuses := []model.DocumentStatus{
		{DocumentType: model.DocTypePurchaseOrder, Name: "Draft", IsInitial: true},
		{DocumentType: model.DocTypePurchaseOrder, Name: "Submitted"},
		{DocumentType: model.DocTypePurchaseOrder, Name: "Approved"},
		{DocumentType: model.DocTypePurchaseOrder, Name: "Rejected", IsFinal: true},
		{DocumentType: model.DocTypePurchaseOrder, Name: "Cancelled", IsFinal: true},
		{DocumentType: model.DocTypePurchaseOrder, Name: "Completed", IsFinal: true},
	}
	for i := range statuses {
		err := db.Where("document_type = ? AND status_name = ?", statuses[i].DocumentType, statuses[i].Name).
			FirstOrCreate(&statuses[i]).Error
		if err != nil {
			return err
		}
	}

	edges := []struct {
		from, to model.StatusName
	}{
		{"Draft", "Submitted"},
		{"Draft", "Cancelled"},
		{"Submitted", "Approved"},
		{"Submitted", "Rejected"},
		{"Submitted", "Cancelled"},
		{"Approved", "Completed"},
		{"Approved", "Cancelled"},
	}
	for _, edge := range edges {
		transition := model.WorkflowTransition{
			DocumentType: model.DocTypePurchaseOrder,
			FromStatus:   edge.from,
			ToStatus:     edge.to,
		}
		var count int64
		err := db.Model(&model.WorkflowTransition{}).
			Where("document_type = ? AND from_status = ? AND to_status = ?",
				transition.DocumentType, transition.FromStatus, transition.ToStatus).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		transition.AllowedRoles = []model.FunctionalRole{*admin}
		if err := db.Create(&transition).Error; err != nil {
			return err
		}
		log.Printf("seeded transition %s -> %s", edge.from, edge.to)
	}
	return nil
}

func seedUOMs(db *gorm.DB) error {
	units := []model.UOM{
		{Code: "UOM001", ShortCode: "Pcs", Name: "Pieces"},
		{Code: "UOM002", ShortCode: "Kg", Name: "Kilogram"},
		{Code: "UOM003", ShortCode: "g", Name: "Gram"},
		{Code: "UOM004", ShortCode: "L", Name: "Liter"},
		{Code: "UOM005", ShortCode: "mL", Name: "Milliliter"},
		{Code: "UOM006", ShortCode: "Box", Name: "Box"},
		{Code: "UOM007", ShortCode: "Pack", Name: "Pack"},
		{Code: "UOM008", ShortCode: "Roll", Name: "Roll"},
	}
	for i := range units {
		units[i].IsActive = true
		err := db.Where("uom_id = ?", units[i].Code).FirstOrCreate(&units[i]).Error
		if err != nil {
			return err
		}
	}
	return nil
}
