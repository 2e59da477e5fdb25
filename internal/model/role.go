package model

import (
	"time"

	"github.com/google/uuid"
)

// EntityKind is the closed set of entities the permission matrix covers.
type EntityKind string

const (
	EntityPurchaseOrder EntityKind = "Purchase Order"
	EntityItem          EntityKind = "Item"
	EntitySupplier      EntityKind = "Supplier"
	EntityWarehouse     EntityKind = "Warehouse"
	EntityWorkflow      EntityKind = "Workflow"
	EntityUser          EntityKind = "User"
)

// AllEntityKinds lists every entity the matrix is defined over, in display order.
func AllEntityKinds() []EntityKind {
	return []EntityKind{
		EntityPurchaseOrder,
		EntityItem,
		EntitySupplier,
		EntityWarehouse,
		EntityWorkflow,
		EntityUser,
	}
}

// ValidEntityKind reports whether the given name is a known entity kind.
func ValidEntityKind(name string) bool {
	for _, k := range AllEntityKinds() {
		if string(k) == name {
			return true
		}
	}
	return false
}

// Capability is a single CRUD+Cancel action in the permission matrix.
type Capability string

const (
	CapCreate Capability = "create"
	CapRead   Capability = "read"
	CapUpdate Capability = "update"
	CapDelete Capability = "delete"
	CapCancel Capability = "cancel"
)

// FunctionalRole is a named bundle of permissions assignable to users.
// System roles are seeded and cannot be deleted.
type FunctionalRole struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:varchar(200)" json:"description"`
	IsSystem    bool      `gorm:"default:false" json:"is_system"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (FunctionalRole) TableName() string { return "functional_roles" }

// PermissionRule is one row of the role x entity capability matrix.
// Rows are only persisted when at least one flag is set.
type PermissionRule struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RoleID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"role_id"`
	Entity    EntityKind `gorm:"column:entity_name;type:varchar(50);not null" json:"entity_name"`
	CanCreate bool       `gorm:"column:perm_create;default:false" json:"perm_create"`
	CanRead   bool       `gorm:"column:perm_read;default:false" json:"perm_read"`
	CanUpdate bool       `gorm:"column:perm_update;default:false" json:"perm_update"`
	CanDelete bool       `gorm:"column:perm_delete;default:false" json:"perm_delete"`
	CanCancel bool       `gorm:"column:perm_cancel;default:false" json:"perm_cancel"`
}

func (PermissionRule) TableName() string { return "permission_rules" }

// HasAny reports whether the rule grants anything at all.
func (p PermissionRule) HasAny() bool {
	return p.CanCreate || p.CanRead || p.CanUpdate || p.CanDelete || p.CanCancel
}

// Grants reports whether the rule grants the given capability.
func (p PermissionRule) Grants(c Capability) bool {
	switch c {
	case CapCreate:
		return p.CanCreate
	case CapRead:
		return p.CanRead
	case CapUpdate:
		return p.CanUpdate
	case CapDelete:
		return p.CanDelete
	case CapCancel:
		return p.CanCancel
	}
	return false
}

// CapabilitySet is the effective capability of a user on one entity,
// the union over all assigned roles.
type CapabilitySet struct {
	Create bool `json:"create"`
	Read   bool `json:"read"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
	Cancel bool `json:"cancel"`
}

// Merge folds a rule into the set.
func (c *CapabilitySet) Merge(rule PermissionRule) {
	c.Create = c.Create || rule.CanCreate
	c.Read = c.Read || rule.CanRead
	c.Update = c.Update || rule.CanUpdate
	c.Delete = c.Delete || rule.CanDelete
	c.Cancel = c.Cancel || rule.CanCancel
}

// Has reports whether the set includes the given capability.
func (c CapabilitySet) Has(cap Capability) bool {
	switch cap {
	case CapCreate:
		return c.Create
	case CapRead:
		return c.Read
	case CapUpdate:
		return c.Update
	case CapDelete:
		return c.Delete
	case CapCancel:
		return c.Cancel
	}
	return false
}

// UserRole assigns a functional role to a user.
type UserRole struct {
	UserID     uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	RoleID     uuid.UUID  `gorm:"type:uuid;primaryKey" json:"role_id"`
	AssignedAt time.Time  `json:"assigned_at"`
	AssignedBy *uuid.UUID `gorm:"type:uuid" json:"assigned_by"`
}

func (UserRole) TableName() string { return "user_roles" }
