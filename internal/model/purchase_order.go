package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxOption enum constants
const (
	TaxOptionNone  = "no_tax"
	TaxOptionApply = "apply_tax"
)

// DiscountType enum constants (empty = no discount)
const (
	DiscountNone       = ""
	DiscountPercentage = "percentage"
	DiscountNominal    = "nominal"
)

// PaymentMethod enum constants
const (
	PaymentAdvance       = "advance_payment"
	PaymentAfterDelivery = "payment_after_delivery"
	PaymentDownPayment   = "down_payment"
)

// DistributionMethod enum constants
const (
	DistributionPickup   = "pickup"
	DistributionDelivery = "delivery"
)

// PurchaseOrder is the workflow-governed procurement document. Status is a
// reference into the configured DocumentStatus set for "Purchase Order";
// it only changes through transition execution. Financial columns are the
// frozen output of the calculation pipeline at submission time, while
// transfer_amount is a running payment ledger maintained afterwards.
type PurchaseOrder struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PONumber           string     `gorm:"column:po_number;type:varchar(20);uniqueIndex;not null" json:"po_number"`
	PODate             time.Time  `gorm:"column:po_date;not null" json:"po_date"`
	SupplierID         uuid.UUID  `gorm:"type:uuid;not null;index" json:"supplier_id"`
	WarehouseID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"warehouse_id"`
	DistributionMethod string     `gorm:"type:varchar(20);not null" json:"distribution_method"`
	Address            string     `gorm:"type:varchar(500);not null" json:"address"`
	RequiredDate       time.Time  `gorm:"not null" json:"required_date"`
	DeliveryDate       *time.Time `json:"delivery_date"`

	TaxOption          string           `gorm:"type:varchar(20);not null;default:'no_tax'" json:"tax_option"`
	TaxPercentage      *decimal.Decimal `gorm:"type:decimal(10,4)" json:"tax_percentage"`
	DiscountType       string           `gorm:"type:varchar(20)" json:"discount_type"`
	DiscountPercentage *decimal.Decimal `gorm:"type:decimal(10,4)" json:"discount_percentage"`

	Subtotal       decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"tax_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"discount_amount"`
	GrandTotal     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"grand_total"`

	PaymentMethod  string           `gorm:"type:varchar(30);not null" json:"payment_method"`
	PaidAmount     decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0" json:"paid_amount"`
	Outstanding    decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0" json:"outstanding"`
	DPPercentage   *decimal.Decimal `gorm:"column:dp_percentage;type:decimal(10,4)" json:"dp_percentage"`
	DPAmount       *decimal.Decimal `gorm:"column:dp_amount;type:decimal(18,4)" json:"dp_amount"`
	TransferAmount decimal.Decimal  `gorm:"type:decimal(18,4);not null;default:0" json:"transfer_amount"`

	Status StatusName `gorm:"type:varchar(50);not null;index" json:"status"`
	Notes  string     `gorm:"type:varchar(2000)" json:"notes"`

	// Milestone stamps, filled by the configured transition hooks.
	SubmittedAt *time.Time `json:"submitted_at"`
	SubmittedBy *uuid.UUID `gorm:"type:uuid" json:"submitted_by"`
	ApprovedAt  *time.Time `json:"approved_at"`
	ApprovedBy  *uuid.UUID `gorm:"type:uuid" json:"approved_by"`

	CreatedAt time.Time  `json:"created_at"`
	CreatedBy *uuid.UUID `gorm:"type:uuid" json:"created_by"`
	UpdatedAt time.Time  `gorm:"index" json:"updated_at"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid" json:"updated_by"`
}

func (PurchaseOrder) TableName() string { return "purchase_orders" }

// Remaining is grand_total minus the payment ledger total.
func (po PurchaseOrder) Remaining() decimal.Decimal {
	return po.GrandTotal.Sub(po.TransferAmount)
}

// IsOverdue reports whether the order missed its required date: not in a
// final status, never delivered, and required_date strictly before today.
// Comparison is date-only; time of day is ignored.
func (po PurchaseOrder) IsOverdue(statusIsFinal bool, today time.Time) bool {
	if statusIsFinal || po.DeliveryDate != nil {
		return false
	}
	y, m, d := today.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, today.Location())
	ry, rm, rd := po.RequiredDate.Date()
	req := time.Date(ry, rm, rd, 0, 0, 0, 0, today.Location())
	return req.Before(day)
}

// PurchaseOrderLineItem is one priced line of a purchase order.
type PurchaseOrderLineItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	POID        uuid.UUID       `gorm:"column:po_id;type:uuid;not null;index" json:"po_id"`
	ItemID      uuid.UUID       `gorm:"type:uuid;not null" json:"item_id"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_amount"`
	LineNumber  int             `gorm:"not null" json:"line_number"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (PurchaseOrderLineItem) TableName() string { return "purchase_order_line_items" }

// StatusChangeLog is the append-only audit trail of workflow transitions.
// from_status is nil for the implicit creation entry.
type StatusChangeLog struct {
	ID         uuid.UUID   `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	POID       uuid.UUID   `gorm:"column:po_id;type:uuid;not null;index" json:"po_id"`
	FromStatus *StatusName `gorm:"type:varchar(50)" json:"from_status"`
	ToStatus   StatusName  `gorm:"type:varchar(50);not null" json:"to_status"`
	ChangedBy  uuid.UUID   `gorm:"type:uuid;not null" json:"changed_by"`
	ChangedAt  time.Time   `gorm:"not null;index" json:"changed_at"`
	Comment    string      `gorm:"type:varchar(500)" json:"comment"`
}

func (StatusChangeLog) TableName() string { return "po_status_logs" }

// PaymentLog is the append-only ledger of payments recorded against a PO.
type PaymentLog struct {
	ID     uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	POID   uuid.UUID       `gorm:"column:po_id;type:uuid;not null;index" json:"po_id"`
	Amount decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	PaidBy uuid.UUID       `gorm:"type:uuid;not null" json:"paid_by"`
	PaidAt time.Time       `gorm:"not null;index" json:"paid_at"`
	Note   string          `gorm:"type:varchar(255)" json:"note"`
}

func (PaymentLog) TableName() string { return "po_payment_logs" }
