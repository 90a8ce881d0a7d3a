package stores

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storepos-backend/pkg/db/models"
	"github.com/angelmondragon/storepos-backend/pkg/enums"
)

// StoreDTO is the admin view of a store.
type StoreDTO struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	Address   string             `json:"address"`
	Manager   string             `json:"manager"`
	Status    enums.RecordStatus `json:"status"`
	Users     int64              `json:"users"`
	CreatedAt time.Time          `json:"created_at"`
}

func FromModel(m models.Store, users int64) StoreDTO {
	return StoreDTO{
		ID:        m.ID,
		Name:      m.Name,
		Address:   m.Address,
		Manager:   m.Manager,
		Status:    m.Status,
		Users:     users,
		CreatedAt: m.CreatedAt,
	}
}

// CreateStoreInput holds a validated payload for a new store.
type CreateStoreInput struct {
	Name    string
	Address string
	Manager string
	Status  enums.RecordStatus
}

// UpdateStoreInput carries optional changes; nil fields are left as is.
type UpdateStoreInput struct {
	Name    *string
	Address *string
	Manager *string
	Status  *enums.RecordStatus
}
