// Package services – HistoryService
//
// This file implements the HistoryService, which exposes a user's
// conversation log: paginated newest-first listing and owner-scoped
// deletion. Ownership rules live in the repository queries; this layer
// applies pagination defaults and maps missing rows to ErrEntryNotFound.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/zenbotlabs/zenbot-backend/internal/domain"
	"github.com/zenbotlabs/zenbot-backend/internal/repo"
)

// HistoryService provides read and delete access to the conversation log.
type HistoryService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the conversation repository used by this service.
	Repo ConversationRepo
}

// NewHistoryService constructs a HistoryService over the given handle.
func NewHistoryService(db *gorm.DB, r ConversationRepo) *HistoryService {
	return &HistoryService{DB: db, Repo: r}
}

// ListPage returns a page of the user's history, newest entry first.
// It applies defaults for invalid page/pageSize and returns total count.
func (s *HistoryService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Conversation, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountConversations(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Conversation{}, 0, nil
	}

	items, err := s.Repo.ListConversationsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Delete removes one history entry owned by userID. Entries that do not
// exist, or belong to another user, yield ErrEntryNotFound.
func (s *HistoryService) Delete(ctx context.Context, userID, entryID string) error {
	err := s.Repo.DeleteConversation(ctx, s.DB, entryID, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrEntryNotFound
	}
	return err
}
