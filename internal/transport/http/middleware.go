package httptransport

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"calotrack-server-go/internal/domain/auth"
)

// AuthMiddleware verifies a bearer token on every request and stores the
// client id in the gin context under "client_id".
func AuthMiddleware(token *auth.AuthToken) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			RespondError(c, http.StatusUnauthorized, "missing bearer token", nil)
			c.Abort()
			return
		}

		valid, clientID, err := token.VerifyToken(strings.TrimSpace(raw))
		if err != nil || !valid {
			RespondError(c, http.StatusUnauthorized, "invalid token", nil)
			c.Abort()
			return
		}

		c.Set("client_id", clientID)
		c.Next()
	}
}
