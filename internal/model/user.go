package model

import (
	"time"

	"github.com/google/uuid"
)

// User is an operator of the system. Users carry no credentials here —
// identity arrives from the outside via the actor context; this record only
// anchors role assignments and audit references.
type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username  string     `gorm:"type:varchar(30);uniqueIndex;not null" json:"username"`
	Name      string     `gorm:"type:varchar(100);not null" json:"name"`
	Email     string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	IsActive  bool       `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time  `json:"created_at"`
	CreatedBy *uuid.UUID `gorm:"type:uuid" json:"created_by"`
	UpdatedAt time.Time  `json:"updated_at"`
	UpdatedBy *uuid.UUID `gorm:"type:uuid" json:"updated_by"`
}

func (User) TableName() string { return "users" }
