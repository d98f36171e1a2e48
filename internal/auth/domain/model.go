// Package domain contains core types for the auth service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User represents a registered account. Email is unique as stored.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	Email        string       `gorm:"type:text;not null;uniqueIndex:ux_users_email"`
	Name         string       `gorm:"type:text;not null"`
	LastName     string       `gorm:"column:last_name;type:text;not null"`
	PasswordHash string       `gorm:"column:password_hash;type:text;not null"`
	CreatedAt    time.Time    `gorm:"not null"`
	UpdatedAt    time.Time    `gorm:"not null"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Session is the stored tag of a user's live refresh token. Login replaces
// any existing row, so a user holds at most one.
type Session struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	UserID    snowflake.ID `gorm:"column:user_id;not null;index"`
	TokenHash string       `gorm:"column:token_hash;type:text;not null;index"`
	ExpiresAt time.Time    `gorm:"column:expires_at;not null"`
	CreatedAt time.Time    `gorm:"column:created_at;not null"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "refresh_tokens" }

// AccessPayload is the identity carried inside access and refresh tokens.
type AccessPayload struct {
	UserID snowflake.ID
	Email  string
}

// UserView is the public projection of a User.
type UserView struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	Email    string `json:"email"`
}

func (u User) View() UserView {
	return UserView{
		ID:       u.ID.String(),
		Name:     u.Name,
		LastName: u.LastName,
		Email:    u.Email,
	}
}
