package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/storepos-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID    uuid.UUID
	Username  string
	Role      enums.Role
	StoreID   *uuid.UUID
	StoreName string
	// JTI binds the token to a refresh session; generated when empty.
	JTI string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID    uuid.UUID  `json:"user_id"`
	Username  string     `json:"username"`
	Role      enums.Role `json:"role"`
	StoreID   *uuid.UUID `json:"store_id,omitempty"`
	StoreName string     `json:"store_name,omitempty"`
	jwt.RegisteredClaims
}
