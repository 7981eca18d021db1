// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication. It parses the
// Authorization header, verifies the token through a caller-supplied
// verifier, and stashes the resulting user id in the Gin context under
// "userID" for downstream handlers.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextUserID is the Gin context key under which RequireAuth stores the
// authenticated user's id.
const ContextUserID = "userID"

// TokenVerifier validates a bearer token and returns the user id it was
// issued for. Any error means the request is unauthenticated.
type TokenVerifier func(token string) (userID string, err error)

// RequireAuth rejects requests that do not carry a valid
// "Authorization: Bearer <token>" header with a 401 error envelope.
// On success it stores the user id via ContextUserID and continues.
func RequireAuth(verify TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			unauthorized(c, "missing bearer token")
			return
		}
		uid, err := verify(token)
		if err != nil || uid == "" {
			unauthorized(c, "invalid or expired token")
			return
		}
		c.Set(ContextUserID, uid)
		c.Next()
	}
}

// IdentifyUser resolves the user id from a bearer token without enforcing
// authentication. When the header carries a token the verifier accepts, the
// user id is stored via ContextUserID; otherwise the request continues
// anonymous. This lets middleware that keys on the user (rate limiting,
// idempotency) see the caller's identity before the protected group's
// RequireAuth runs.
func IdentifyUser(verify TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			if uid, err := verify(token); err == nil && uid != "" {
				c.Set(ContextUserID, uid)
			}
		}
		c.Next()
	}
}

// bearerToken extracts the credential from an Authorization header value.
// The "Bearer" scheme keyword is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "unauthorized",
		"message":    msg,
	})
}
