package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/finreach/trial-balance-api/internal/models"
	"github.com/finreach/trial-balance-api/internal/token"
	appErrors "github.com/finreach/trial-balance-api/pkg/errors"
	"github.com/finreach/trial-balance-api/pkg/response"
)

// RequireRoles enforces role-based access control for routes. Must run after
// the JWT middleware.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		value, exists := c.Get(ContextIdentityKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		identity := value.(*token.Identity)

		if _, ok := allowed[identity.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
