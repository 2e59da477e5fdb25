package service

import "github.com/google/uuid"

// Actor identifies who is performing an operation: the user plus the
// functional roles resolved for them. Role checks (permission matrix,
// transition gating) run against RoleIDs.
type Actor struct {
	UserID  uuid.UUID
	RoleIDs []uuid.UUID
}

// UserIDPtr returns the user id for audit columns, nil for an anonymous actor.
func (a Actor) UserIDPtr() *uuid.UUID {
	if a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}
