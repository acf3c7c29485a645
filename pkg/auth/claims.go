package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SellerClaims is the access token presented by seller tooling. The seller id
// scopes every draft and bundle operation.
type SellerClaims struct {
	SellerID uuid.UUID `json:"seller_id"`
	jwt.RegisteredClaims
}
