// Package domain defines the persistence models for users and conversation
// entries. These types are mapped with GORM and form the core data layer
// of the chatbot application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered account. The email is unique across the
// table and the password is stored only as a bcrypt hash, which is never
// serialized to JSON.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name: display name shown in the client.
//   - Email: login identifier; unique, matched exactly (case-sensitive).
//   - PasswordHash: bcrypt digest of the password; excluded from JSON.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit).
type User struct {
	ID           string         `json:"id"         gorm:"type:char(36);primaryKey"`
	Name         string         `json:"name"       gorm:"type:varchar(120);not null"`
	Email        string         `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_users_email"`
	PasswordHash string         `json:"-"          gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Conversation represents one persisted chat turn: the user's message and
// the reply the bot produced for it. Entries are immutable once created and
// are only ever removed by an owner-scoped delete.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - UserID: identifier of the owning user; indexed for history retrieval.
//   - UserMessage: the raw message text the user sent.
//   - BotReply: the reply returned for that message (canned or generated).
//   - CreatedAt: server-side creation timestamp; history sorts on it.
//   - DeletedAt: soft deletion marker.
//   - User: FK association, ensures cascade delete with the owning account.
type Conversation struct {
	ID          string         `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID      string         `json:"user_id"      gorm:"type:char(36);not null;index:idx_user_conversations,priority:1"`
	UserMessage string         `json:"userMessage"  gorm:"type:text;not null"`
	BotReply    string         `json:"botReply"     gorm:"type:text;not null"`
	CreatedAt   time.Time      `json:"timestamp"    gorm:"index:idx_user_conversations,priority:2"`
	DeletedAt   gorm.DeletedAt `json:"-"            gorm:"index"`

	// User is the owning account. Entries are cascade-deleted if the
	// account is removed.
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Conversation.
func (Conversation) TableName() string { return "conversations" }
