package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are carried by API tokens. Subject names the operator or
// integration the token was issued to.
type TokenClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// IssuedToken is a signed token and its expiry.
type IssuedToken struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expires_at"`
}
