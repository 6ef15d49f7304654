package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenClaims is the typed JWT attached to every API request. Tokens
// are minted by the identity service; this backend only verifies them.
type AccessTokenClaims struct {
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}
