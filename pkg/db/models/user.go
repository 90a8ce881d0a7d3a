package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storepos-backend/pkg/enums"
)

// User is an operator account. Store users are bound to exactly one store.
type User struct {
	ID           uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Username     string             `gorm:"column:username;not null;uniqueIndex"`
	Email        string             `gorm:"column:email;not null"`
	Title        string             `gorm:"column:title;not null;default:''"`
	PasswordHash string             `gorm:"column:password_hash;not null"`
	Role         enums.Role         `gorm:"column:role;not null"`
	StoreID      *uuid.UUID         `gorm:"column:store_id;type:uuid"`
	Store        *Store             `gorm:"foreignKey:StoreID"`
	Status       enums.RecordStatus `gorm:"column:status;not null;default:'active'"`
	LastLoginAt  *time.Time         `gorm:"column:last_login_at"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u User) IsActive() bool {
	return u.Status == enums.StatusActive
}
