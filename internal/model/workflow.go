package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Document types governed by the workflow engine. Fixed set, not master data.
const (
	DocTypePurchaseOrder = "Purchase Order"
)

// StatusName is a case-preserving status identifier. Statuses are stored as
// entered but always compared case-insensitively, so "Draft" and "draft"
// refer to the same configured status.
type StatusName string

// Fold returns the normalized form used for comparisons and map keys.
func (s StatusName) Fold() string {
	return strings.ToLower(strings.TrimSpace(string(s)))
}

// Equal reports whether two status names refer to the same status.
func (s StatusName) Equal(other StatusName) bool {
	return s.Fold() == other.Fold()
}

func (s StatusName) IsEmpty() bool {
	return strings.TrimSpace(string(s)) == ""
}

func (s StatusName) String() string {
	return string(s)
}

// DocumentStatus is one named status configured for a document type.
// A status may be flagged initial (documents can be created in it) or final
// (no outgoing transitions), but never both.
type DocumentStatus struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DocumentType string     `gorm:"type:varchar(50);not null;index" json:"document_type"`
	Name         StatusName `gorm:"column:status_name;type:varchar(50);not null" json:"status_name"`
	IsInitial    bool       `gorm:"default:false" json:"is_initial"`
	IsFinal      bool       `gorm:"default:false" json:"is_final"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (DocumentStatus) TableName() string { return "document_statuses" }

// WorkflowTransition is a directed, role-gated edge between two statuses of
// a document type. Gating is per edge: different roles can unlock different
// outgoing edges from the same status.
type WorkflowTransition struct {
	ID           uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	DocumentType string           `gorm:"type:varchar(50);not null;index" json:"document_type"`
	FromStatus   StatusName       `gorm:"type:varchar(50);not null" json:"from_status"`
	ToStatus     StatusName       `gorm:"type:varchar(50);not null" json:"to_status"`
	AllowedRoles []FunctionalRole `gorm:"many2many:transition_roles;" json:"allowed_roles"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func (WorkflowTransition) TableName() string { return "workflow_transitions" }

// AllowedRoleIDs returns the ids of the roles permitted to execute this edge.
func (t WorkflowTransition) AllowedRoleIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(t.AllowedRoles))
	for _, r := range t.AllowedRoles {
		ids = append(ids, r.ID)
	}
	return ids
}

// AllowsAny reports whether the edge is unlocked by at least one of the
// given role ids.
func (t WorkflowTransition) AllowsAny(roleIDs []uuid.UUID) bool {
	for _, allowed := range t.AllowedRoles {
		for _, rid := range roleIDs {
			if allowed.ID == rid {
				return true
			}
		}
	}
	return false
}

// References reports whether the edge touches the given status name on
// either end (folded compare).
func (t WorkflowTransition) References(name StatusName) bool {
	return t.FromStatus.Equal(name) || t.ToStatus.Equal(name)
}
