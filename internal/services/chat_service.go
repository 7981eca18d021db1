// Package services – ChatService
//
// This file implements the ChatService, which produces the bot's reply for a
// user message. It validates and normalizes the message, consults the canned
// reply table first, falls back to the inference backend when nothing
// matches, and records the finished turn in the conversation log.
//
// Service-level errors (e.g., ErrEmptyMessage) are returned for predictable
// cases so handlers can map them to HTTP results consistently. Inference
// failures pass through unwrapped so handlers can distinguish a missing
// upstream token from an unreachable backend.
package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/zenbotlabs/zenbot-backend/internal/domain"
)

// ConversationRepo defines the repository contract required by ChatService
// and HistoryService.
type ConversationRepo interface {
	// CreateConversation inserts one finished chat turn for the user.
	CreateConversation(ctx context.Context, db *gorm.DB, userID, userMessage, botReply string) (*domain.Conversation, error)

	// CountConversations returns the total number of entries for pagination.
	CountConversations(ctx context.Context, db *gorm.DB, userID string) (int64, error)

	// ListConversationsPage returns a page of entries, newest first.
	ListConversationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Conversation, error)

	// DeleteConversation removes an entry iff it belongs to the user.
	DeleteConversation(ctx context.Context, db *gorm.DB, id, userID string) error
}

// Resolver answers from the canned reply table. ok is false when no topic or
// casual phrase matched.
type Resolver interface {
	Resolve(message string) (reply string, ok bool)
}

// Generator produces a reply from the inference backend.
type Generator interface {
	Generate(ctx context.Context, message string) (string, error)
}

// ChatService turns user messages into replies and logs the exchange.
type ChatService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the conversation repository used by this service.
	Repo ConversationRepo
	// Resolver is consulted before the inference backend.
	Resolver Resolver
	// Generator is the inference fallback for unmatched messages.
	Generator Generator

	// MaxMessageLen caps incoming messages by rune length.
	MaxMessageLen int
	// PersistCanned controls whether canned turns are written to the log.
	// Inference turns are always persisted on success.
	PersistCanned bool
}

// NewChatService constructs a ChatService with sane defaults.
func NewChatService(db *gorm.DB, r ConversationRepo, resolver Resolver, gen Generator) *ChatService {
	return &ChatService{
		DB:            db,
		Repo:          r,
		Resolver:      resolver,
		Generator:     gen,
		MaxMessageLen: 2000,
		PersistCanned: true,
	}
}

// Respond produces the bot reply for message on behalf of userID.
//
// The message is trimmed before validation; the trimmed form is what gets
// matched, sent to inference, and stored. On a canned match the turn is
// persisted only when PersistCanned is set. When inference fails nothing is
// written and the error is returned as-is, so a retry can succeed cleanly.
//
// conv is nil whenever the turn was not persisted.
func (s *ChatService) Respond(ctx context.Context, userID, message string) (reply string, conv *domain.Conversation, err error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", nil, ErrEmptyMessage
	}
	if s.MaxMessageLen > 0 && utf8.RuneCountInString(message) > s.MaxMessageLen {
		return "", nil, ErrTooLong
	}

	if canned, ok := s.Resolver.Resolve(message); ok {
		if !s.PersistCanned {
			return canned, nil, nil
		}
		conv, err = s.Repo.CreateConversation(ctx, s.DB, userID, message, canned)
		if err != nil {
			// Reply still goes out; the turn is just absent from history.
			log.Warn().Err(err).Str("user_id", userID).Msg("persist canned turn failed")
			return canned, nil, nil
		}
		return canned, conv, nil
	}

	reply, err = s.Generator.Generate(ctx, message)
	if err != nil {
		return "", nil, err
	}

	conv, err = s.Repo.CreateConversation(ctx, s.DB, userID, message, reply)
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("persist inference turn failed")
		return reply, nil, nil
	}
	return reply, conv, nil
}
