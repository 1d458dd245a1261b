package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ipu-result-api/internal/models"
	appErrors "github.com/noah-isme/ipu-result-api/pkg/errors"
	"github.com/noah-isme/ipu-result-api/pkg/response"
)

// ContextClaimsKey is the gin context key storing token claims.
const ContextClaimsKey = "tokenClaims"

// TokenValidator checks bearer tokens.
type TokenValidator interface {
	Validate(token string) (*models.TokenClaims, error)
}

// JWT protects routes by requiring a valid bearer token.
func JWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := validator.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextClaimsKey, claims)
		c.Next()
	}
}

// Claims returns the claims set by JWT, if any.
func Claims(c *gin.Context) *models.TokenClaims {
	v, ok := c.Get(ContextClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*models.TokenClaims)
	return claims
}
