package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

// actingUserKey is the key used to store the acting user's identifier in the
// request context.
const actingUserKey = contextKey("actingUser")

// actingUserHeader names the header carrying the opaque acting-user
// identifier. The ledger performs no authentication; the identifier is used
// purely for audit stamping.
const actingUserHeader = "X-Acting-User"

// IdentityMiddleware copies the acting-user header into the request context.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user := strings.TrimSpace(c.GetHeader(actingUserHeader)); user != "" {
			ctx := context.WithValue(c.Request.Context(), actingUserKey, user)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// GetActingUserFromCtx retrieves the acting user ID from the context.
// It returns the user ID and a boolean indicating if it was found.
func GetActingUserFromCtx(ctx context.Context) (string, bool) {
	user, ok := ctx.Value(actingUserKey).(string)
	if !ok || user == "" {
		return "", false
	}
	return user, true
}
