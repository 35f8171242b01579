package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/finreach/trial-balance-api/internal/service"
	"github.com/finreach/trial-balance-api/internal/token"
	appErrors "github.com/finreach/trial-balance-api/pkg/errors"
	"github.com/finreach/trial-balance-api/pkg/response"
)

// ContextIdentityKey is the gin context key storing the admitted identity.
const ContextIdentityKey = "currentIdentity"

// JWT protects routes by requiring an admitted access token.
func JWT(authService *service.AuthService, metrics *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c)
		if !ok {
			metrics.RecordAuthRejection(c.FullPath())
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		identity, err := authService.Verify(c.Request.Context(), raw, token.TypeAccess)
		if err != nil {
			metrics.RecordAuthRejection(c.FullPath())
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextIdentityKey, identity)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}
