package types

import (
	"github.com/google/uuid"

	"github.com/rentease/rentease-backend/pkg/enums"
)

// Actor is the authenticated caller as seen by services.
type Actor struct {
	UserID uuid.UUID
	Role   enums.Role
}

// CanManage reports whether the actor may manage a resource owned by vendorID.
// Admins manage everything; vendors manage their own rows.
func (a Actor) CanManage(vendorID uuid.UUID) bool {
	if a.Role.IsAdmin() {
		return true
	}
	return a.Role.IsVendorOrAdmin() && a.UserID == vendorID
}

// VendorScope returns the vendor filter for listings: nil for admins, the caller otherwise.
func (a Actor) VendorScope() *uuid.UUID {
	if a.Role.IsAdmin() {
		return nil
	}
	id := a.UserID
	return &id
}
