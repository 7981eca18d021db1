// Chat HTTP handlers.
//
// This file exposes REST endpoints for the chat itself:
//   - POST /chat         (send a message, get the bot reply)
//   - GET  /chat/topics  (list the topics the bot has canned answers for)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including idempotent replays).
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/zenbotlabs/zenbot-backend/internal/domain"
	"github.com/zenbotlabs/zenbot-backend/internal/http/middleware"
	"github.com/zenbotlabs/zenbot-backend/internal/inference"
	"github.com/zenbotlabs/zenbot-backend/internal/repo"
	"github.com/zenbotlabs/zenbot-backend/internal/services"
)

//
// Service contracts (context-aware)
//

// ChatService defines reply generation as consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ChatService interface {
	// Respond produces the bot reply for message on behalf of userID.
	// conv is nil when the turn was not persisted.
	Respond(ctx context.Context, userID, message string) (reply string, conv *domain.Conversation, err error)
}

// HistoryService defines conversation log access consumed by HTTP handlers.
type HistoryService interface {
	// ListPage returns a page of the user's history, newest first.
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Conversation, int64, error)
	// Delete removes one history entry owned by userID.
	Delete(ctx context.Context, userID, entryID string) error
}

// TopicSource enumerates the canned topic keys in authoring order.
type TopicSource interface {
	TopicKeys() []string
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for auth, chat, and history.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	authSvc AuthService
	chatSvc ChatService
	histSvc HistoryService
	topics  TopicSource

	// IdempotencyTTL bounds how long a stored Idempotency-Key replay is valid.
	IdempotencyTTL time.Duration
}

// New constructs and returns a Handlers instance bound to the given services.
func New(authSvc AuthService, chatSvc ChatService, histSvc HistoryService, topics TopicSource) *Handlers {
	return &Handlers{
		authSvc:        authSvc,
		chatSvc:        chatSvc,
		histSvc:        histSvc,
		topics:         topics,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

// db exposes the GORM handle behind the chat service when available, for
// idempotency records and history stats. Nil with fake services in tests.
func (h *Handlers) db() *gorm.DB {
	if svc, ok := h.chatSvc.(*services.ChatService); ok {
		return svc.DB
	}
	if svc, ok := h.histSvc.(*services.HistoryService); ok {
		return svc.DB
	}
	return nil
}

//
// DTOs
//

// ChatRequest is the JSON payload for sending a message to the bot.
type ChatRequest struct {
	Message string `json:"message" binding:"required" example:"diet plan for adults"`
}

// ChatResponse carries the bot's reply to a single message.
type ChatResponse struct {
	Reply string `json:"reply" example:"Aim for a colourful plate: half vegetables, a quarter protein, a quarter whole grains."`
}

// TopicInfo is one canned topic the bot can answer without inference.
type TopicInfo struct {
	Key   string `json:"key" example:"mental health"`
	Label string `json:"label" example:"Mental Health"`
}

// TopicsResponse lists all canned topics in authoring order.
type TopicsResponse struct {
	Topics []TopicInfo `json:"topics"`
}

//
// Handlers
//

// Chat godoc
// @ID          chat
// @Summary     Send a message
// @Description Returns the bot's reply: a canned answer when the message matches a known topic or casual phrase, otherwise a generated one. Supports Idempotency-Key replays.
// @Tags        Chat
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key  header  string  false "Client-chosen key for safe retries"
// @Param       body             body    handlers.ChatRequest  true  "Chat payload"
//
// @Success     200  {object}  handlers.ChatResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or invalid token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Failure     503  {object}  handlers.ErrorResponse  "Inference backend unavailable"
// @Router      /chat [post]
func (h *Handlers) Chat(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message is required")
		return
	}

	// Serve a stored replay when the same key was completed before.
	key, hasKey := middleware.GetIdempotencyKey(c)
	db := h.db()
	if hasKey && db != nil {
		if rec, err := repo.GetIdempotency(ctx, db, uid, key, time.Now().UTC()); err == nil {
			if conv, err := repo.GetConversation(ctx, db, rec.ConversationID, uid); err == nil {
				ok(c, http.StatusOK, ChatResponse{Reply: conv.BotReply})
				return
			}
		}
	}

	reply, conv, err := h.chatSvc.Respond(ctx, uid, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message is empty")
		case errors.Is(err, services.ErrTooLong):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "message too long")
		case errors.Is(err, inference.ErrMissingToken):
			fail(c, http.StatusInternalServerError, ErrCodeReplyFailed, "inference api token not configured")
		case errors.Is(err, inference.ErrUnavailable):
			fail(c, http.StatusServiceUnavailable, ErrCodeUpstreamDown, "inference backend unavailable, try again later")
		default:
			middleware.LoggerFrom(c).Error().Err(err).Msg("chat reply failed")
			fail(c, http.StatusInternalServerError, ErrCodeReplyFailed, "could not generate a reply")
		}
		return
	}

	// Record the finished turn for future replays (best effort).
	if hasKey && db != nil && conv != nil {
		_, _ = repo.CreateIdempotency(ctx, db, uid, key, conv.ID, http.StatusOK, h.IdempotencyTTL)
	}

	ok(c, http.StatusOK, ChatResponse{Reply: reply})
}

// Topics godoc
// @ID          listTopics
// @Summary     List canned topics
// @Description Returns the topics the bot answers from its reply table, with display labels.
// @Tags        Chat
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object}  handlers.TopicsResponse
// @Router      /chat/topics [get]
func (h *Handlers) Topics(c *gin.Context) {
	titler := cases.Title(language.English)
	keys := h.topics.TopicKeys()
	out := make([]TopicInfo, 0, len(keys))
	for _, k := range keys {
		out = append(out, TopicInfo{Key: k, Label: titler.String(k)})
	}
	ok(c, http.StatusOK, TopicsResponse{Topics: out})
}
