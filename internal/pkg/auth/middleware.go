package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const userIDKey = "auth.user_id"

// Middleware rejects requests without a valid bearer credential and stores
// the verified user id on the gin context.
func Middleware(v Verifier, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		userID, err := v.Verify(ctx, CredentialFromRequest(c.Request))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": Reason(err)})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the user id set by Middleware, or "" outside it.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// Reason maps a verification error to a client-facing message.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrMissingCredential):
		return "missing credential"
	case errors.Is(err, ErrExpiredToken):
		return "token has expired"
	case errors.Is(err, context.DeadlineExceeded):
		return "identity verification timed out"
	default:
		return "invalid token"
	}
}
