// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Conversation model (the per-user chat history).
//
// Ownership is enforced at the query level: every read and delete is scoped
// by user id, so a caller can never observe or remove another user's rows.
// A delete for an entry that exists but belongs to someone else is
// indistinguishable from a delete for a missing entry — both are ErrNotFound.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zenbotlabs/zenbot-backend/internal/domain"
)

// CreateConversation inserts one chat turn for userID with a server-side
// UTC timestamp.
func CreateConversation(ctx context.Context, db *gorm.DB, userID, userMessage, botReply string) (*domain.Conversation, error) {
	c := &domain.Conversation{
		ID:          uuid.NewString(),
		UserID:      userID,
		UserMessage: userMessage,
		BotReply:    botReply,
		CreatedAt:   time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ListConversations returns all entries for userID ordered newest first
// (CreatedAt DESC, ID DESC for a deterministic tie-break).
func ListConversations(ctx context.Context, db *gorm.DB, userID string) ([]domain.Conversation, error) {
	var out []domain.Conversation
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// CountConversations returns the total number of entries owned by userID.
func CountConversations(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Conversation{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListConversationsPage returns a paginated slice of entries for userID,
// newest first. The caller computes offset and limit.
func ListConversationsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Conversation, error) {
	var out []domain.Conversation
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetConversation fetches a single entry by id scoped to its owner, or
// ErrNotFound.
func GetConversation(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Conversation, error) {
	var c domain.Conversation
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteConversation removes the entry identified by id iff it is owned by
// userID. Zero affected rows (missing, or owned by someone else) surface as
// ErrNotFound.
func DeleteConversation(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Conversation{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
