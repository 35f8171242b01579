package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/finreach/trial-balance-api/internal/middleware"
	"github.com/finreach/trial-balance-api/internal/token"
)

func identityFromContext(c *gin.Context) *token.Identity {
	value, exists := c.Get(middleware.ContextIdentityKey)
	if !exists {
		return nil
	}
	identity, ok := value.(*token.Identity)
	if !ok {
		return nil
	}
	return identity
}
