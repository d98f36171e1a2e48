package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, invitation *Invitation) error
	// FindActiveByEmail returns the pending, unexpired invitation for
	// (orgID, email).
	FindActiveByEmail(ctx context.Context, orgID snowflake.ID, email string, now time.Time) (*Invitation, error)
	// FindActiveByOrg returns the oldest pending, unexpired invitation of orgID.
	FindActiveByOrg(ctx context.Context, orgID snowflake.ID, now time.Time) (*Invitation, error)
	// ExpireStale flips pending invitations of orgID past their expiry to expired.
	ExpireStale(ctx context.Context, orgID snowflake.ID, now time.Time) (int64, error)
	// MarkAccepted moves a pending invitation to accepted and reports rows changed.
	MarkAccepted(ctx context.Context, id snowflake.ID, now time.Time) (int64, error)
}
