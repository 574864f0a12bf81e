package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yigit/campusmesh/internal/app/models/dto"
	"github.com/yigit/campusmesh/internal/pkg/apperrors"
)

// HookSecretHeader authenticates account lifecycle events from the identity provider
const HookSecretHeader = "X-Hook-Secret"

// HookSecret admits only requests carrying the shared hook secret. An empty
// secret disables the hook endpoints entirely.
func HookSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(HookSecretHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Invalid hook secret").
				WithKind(string(apperrors.KindUnauthenticated))
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}
		c.Next()
	}
}
