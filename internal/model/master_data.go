package model

import (
	"time"

	"github.com/google/uuid"
)

// Warehouse node types
const (
	NodeTypeWarehouse = "Warehouse"
	NodeTypeAisle     = "Aisle"
	NodeTypeRack      = "Rack"
	NodeTypeBin       = "Bin"
)

// Supplier master record. Code follows the SUP#### sequence.
type Supplier struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code      string    `gorm:"column:supp_id;type:varchar(10);uniqueIndex;not null" json:"supp_id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Address   string    `gorm:"type:varchar(500)" json:"address"`
	Phone     string    `gorm:"type:varchar(20)" json:"phone"`
	Email     string    `gorm:"type:varchar(255)" json:"email"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Supplier) TableName() string { return "suppliers" }

// UOM is a unit of measure. Code follows the UOM### sequence; ShortCode is
// the display unit (Kg, Pcs, ...).
type UOM struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code        string    `gorm:"column:uom_id;type:varchar(10);uniqueIndex;not null" json:"uom_id"`
	ShortCode   string    `gorm:"column:code;type:varchar(10);not null" json:"code"`
	Name        string    `gorm:"type:varchar(50);not null" json:"name"`
	Description string    `gorm:"type:varchar(200)" json:"description"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (UOM) TableName() string { return "uoms" }

// Item master record. SKU = first three consonants of the name (padded with
// X) plus a 4-digit sequence.
type Item struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU         string    `gorm:"column:sku;type:varchar(10);uniqueIndex;not null" json:"sku"`
	Name        string    `gorm:"type:varchar(100);not null" json:"name"`
	Description string    `gorm:"type:varchar(500)" json:"description"`
	UOMID       uuid.UUID `gorm:"column:uom_id;type:uuid;not null" json:"uom_id"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Item) TableName() string { return "items" }

// Warehouse is a storage node. Only parent Warehouse nodes (no ParentID) are
// eligible targets for purchase orders; aisles/racks/bins hang beneath them.
type Warehouse struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	NodeID    string     `gorm:"column:node_id;type:varchar(10);uniqueIndex;not null" json:"node_id"`
	NodeType  string     `gorm:"type:varchar(20);not null;default:'Warehouse'" json:"node_type"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index" json:"parent_id"`
	Name      string     `gorm:"type:varchar(100);not null" json:"name"`
	Address   string     `gorm:"type:varchar(500)" json:"address"`
	IsActive  bool       `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (Warehouse) TableName() string { return "warehouses" }
