// Package catalog decides which products and invoices a viewer may see.
package catalog

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/storepos-backend/pkg/enums"
)

// AllStores is the store selector value meaning "no store restriction".
const AllStores = "all"

// Viewer is the authenticated session a query runs for.
type Viewer struct {
	UserID    uuid.UUID  `json:"id"`
	Username  string     `json:"username"`
	Role      enums.Role `json:"role"`
	StoreID   *uuid.UUID `json:"store_id,omitempty"`
	StoreName string     `json:"store_name,omitempty"`
}

func (v Viewer) IsAdmin() bool {
	return v.Role == enums.RoleAdmin
}

// CanSeeStore applies the role gate: admins see every store, everyone else
// only the store they are bound to.
func (v Viewer) CanSeeStore(storeID *uuid.UUID) bool {
	if v.IsAdmin() {
		return true
	}
	return v.StoreID != nil && storeID != nil && *v.StoreID == *storeID
}

// ScopeStoreID returns the store a non-admin is restricted to; nil for admins.
func (v Viewer) ScopeStoreID() *uuid.UUID {
	if v.IsAdmin() {
		return nil
	}
	if v.StoreID == nil {
		// store user without a store sees nothing
		nilStore := uuid.Nil
		return &nilStore
	}
	id := *v.StoreID
	return &id
}
