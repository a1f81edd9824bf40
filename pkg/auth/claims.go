package auth

import (
	"github.com/bazaarhq/bazaar-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uuid.UUID
	VendorID *uuid.UUID
	Role     enums.UserRole
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients. VendorID is
// present for vendor and cashier tokens only.
type AccessTokenClaims struct {
	UserID   uuid.UUID      `json:"user_id"`
	VendorID *uuid.UUID     `json:"vendor_id,omitempty"`
	Role     enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
