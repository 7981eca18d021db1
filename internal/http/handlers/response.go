// Package handlers provides HTTP handler implementations for the public API.
//
// This file holds the response helpers every endpoint goes through, so both
// chat turns and auth failures come back in the same machine-readable shape.
// Error bodies always carry a stable `code` plus a message safe to show in
// the chat client; the correlation id is echoed so a user report can be
// matched to server logs.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "141add05-4415-4938-b5a1-17e0d3171aff",
//	  "code": "not_found",
//	  "message": "history entry not found"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zenbotlabs/zenbot-backend/internal/http/middleware"
)

// ErrorResponse is the error envelope returned by every endpoint. Code is a
// stable machine-readable string (see errors.go), Message is display-safe,
// and RequestID ties the response to the server-side log line.
type ErrorResponse struct {
	RequestID string `json:"request_id,omitempty" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	Code      string `json:"code" example:"not_found"`
	Message   string `json:"message" example:"history entry not found"`
}

// fail aborts the request with the standard envelope. Messages passed here
// must already be sanitized; 5xx responses additionally log through the
// request-scoped logger so the envelope and the log line share an id.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail exposes fail to the router for NoRoute/NoMethod fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success body as JSON with the given status.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
