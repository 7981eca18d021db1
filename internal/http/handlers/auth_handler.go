// Auth HTTP handlers.
//
// This file exposes REST endpoints for account management:
//   - POST /auth/register  (create account, returns bearer token)
//   - POST /auth/login     (verify credentials, returns bearer token)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zenbotlabs/zenbot-backend/internal/http/middleware"
	"github.com/zenbotlabs/zenbot-backend/internal/services"
)

// AuthService defines account operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AuthService interface {
	// Register creates an account and returns a ready-to-use session.
	Register(ctx context.Context, name, email, password string) (*services.Session, error)
	// Login verifies credentials and returns a fresh session.
	Login(ctx context.Context, email, password string) (*services.Session, error)
}

//
// DTOs
//

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required" example:"Ada Lovelace"`
	Email    string `json:"email" binding:"required,email" example:"ada@example.com"`
	Password string `json:"password" binding:"required,min=6" example:"s3cret-pw"`
}

// LoginRequest is the JSON payload for logging in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"ada@example.com"`
	Password string `json:"password" binding:"required" example:"s3cret-pw"`
}

// UserInfo is the public view of an account, safe to return to clients.
type UserInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SessionResponse is returned by both register and login: a bearer token the
// client sends as "Authorization: Bearer <token>" plus the account details.
type SessionResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

func sessionResponse(sess *services.Session) SessionResponse {
	return SessionResponse{
		Token: sess.Token,
		User: UserInfo{
			ID:    sess.User.ID,
			Name:  sess.User.Name,
			Email: sess.User.Email,
		},
	}
}

//
// Handlers
//

// Register godoc
// @ID          register
// @Summary     Create an account
// @Description Registers a new user and returns a session token.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterRequest  true  "Registration payload"
//
// @Success     201  {object}  handlers.SessionResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or email already registered"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name, email and password are required")
		return
	}

	sess, err := h.authSvc.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmailTaken):
			fail(c, http.StatusBadRequest, ErrCodeEmailTaken, "email already registered")
		case errors.Is(err, services.ErrMissingFields):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name, email and password are required")
		default:
			middleware.LoggerFrom(c).Error().Err(err).Msg("register failed")
			fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, "could not create account")
		}
		return
	}
	ok(c, http.StatusCreated, sessionResponse(sess))
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies email and password and returns a session token.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Login payload"
//
// @Success     200  {object}  handlers.SessionResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request or invalid credentials"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password are required")
		return
	}

	sess, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrMissingFields):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid email or password")
		default:
			middleware.LoggerFrom(c).Error().Err(err).Msg("login failed")
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not log in")
		}
		return
	}
	ok(c, http.StatusOK, sessionResponse(sess))
}
