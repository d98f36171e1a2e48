package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the credential store.
type Repository interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id snowflake.ID) (*User, error)
}

// SessionRepository stores refresh-token tags.
type SessionRepository interface {
	WithTx(tx *gorm.DB) SessionRepository
	CreateSession(ctx context.Context, session *Session) error
	FindSessionByUserID(ctx context.Context, userID snowflake.ID) (*Session, error)
	DeleteSessionsByUserID(ctx context.Context, userID snowflake.ID) error
	// DeleteSession removes the row for userID only while it still carries tokenHash.
	DeleteSession(ctx context.Context, userID snowflake.ID, tokenHash string) (int64, error)
	DeleteSessionByTokenHash(ctx context.Context, tokenHash string) (int64, error)
}
