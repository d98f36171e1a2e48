package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taskflow/internal/invitation/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, invitation *domain.Invitation) error {
	return r.db.WithContext(ctx).Create(invitation).Error
}

func (r *repository) FindActiveByEmail(ctx context.Context, orgID snowflake.ID, email string, now time.Time) (*domain.Invitation, error) {
	return r.first(r.db.WithContext(ctx).
		Where("org_id = ? AND email = ? AND status = ? AND expires_at > ?", orgID, email, domain.StatusPending, now))
}

func (r *repository) FindActiveByOrg(ctx context.Context, orgID snowflake.ID, now time.Time) (*domain.Invitation, error) {
	return r.first(r.db.WithContext(ctx).
		Where("org_id = ? AND status = ? AND expires_at > ?", orgID, domain.StatusPending, now))
}

func (r *repository) first(query *gorm.DB) (*domain.Invitation, error) {
	var invitation domain.Invitation
	err := query.Order("created_at ASC, id ASC").First(&invitation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvitationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invitation, nil
}

func (r *repository) ExpireStale(ctx context.Context, orgID snowflake.ID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE invitations SET status = ?, updated_at = ?
		 WHERE org_id = ? AND status = ? AND expires_at <= ?`,
		domain.StatusExpired,
		now,
		orgID,
		domain.StatusPending,
		now,
	)
	return result.RowsAffected, result.Error
}

func (r *repository) MarkAccepted(ctx context.Context, id snowflake.ID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Exec(
		`UPDATE invitations SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusAccepted,
		now,
		id,
		domain.StatusPending,
	)
	return result.RowsAffected, result.Error
}
