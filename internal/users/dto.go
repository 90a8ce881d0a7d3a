package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storepos-backend/pkg/db/models"
	"github.com/angelmondragon/storepos-backend/pkg/enums"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID          uuid.UUID          `json:"id"`
	Username    string             `json:"username"`
	Email       string             `json:"email"`
	Title       string             `json:"title"`
	Role        enums.Role         `json:"role"`
	StoreID     *uuid.UUID         `json:"store_id,omitempty"`
	StoreName   string             `json:"store_name,omitempty"`
	Status      enums.RecordStatus `json:"status"`
	LastLoginAt *time.Time         `json:"last_login_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// FromModel maps a user (with its Store preloaded, if any) to a DTO.
func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	dto := &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Title:       u.Title,
		Role:        u.Role,
		StoreID:     u.StoreID,
		Status:      u.Status,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
	if u.Store != nil {
		dto.StoreName = u.Store.Name
	}
	return dto
}

type CreateUserInput struct {
	Username string
	Email    string
	Title    string
	Password string
	Role     enums.Role
	StoreID  *uuid.UUID
	Status   enums.RecordStatus
}

// UpdateUserInput leaves nil fields untouched. An empty Password keeps the
// current one. ClearStore drops the store binding (used when promoting to admin).
type UpdateUserInput struct {
	Email      *string
	Title      *string
	Password   *string
	Role       *enums.Role
	StoreID    *uuid.UUID
	ClearStore bool
	Status     *enums.RecordStatus
}
