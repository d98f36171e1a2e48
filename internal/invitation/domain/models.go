// Package domain contains the invitation aggregate and its contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type InvitationStatus string

const (
	StatusPending  InvitationStatus = "pending"
	StatusAccepted InvitationStatus = "accepted"
	StatusExpired  InvitationStatus = "expired"
)

// Invitation grants membership to Email once its secret is presented.
// Only the integrity tag of the secret is stored.
type Invitation struct {
	ID        snowflake.ID     `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID     `gorm:"column:org_id;not null;index:ix_invitations_org_status,priority:1" json:"org_id"`
	Email     string           `gorm:"type:text;not null;index" json:"email"`
	TokenHash string           `gorm:"column:token_hash;type:text;not null" json:"-"`
	Status    InvitationStatus `gorm:"type:text;not null;index:ix_invitations_org_status,priority:2" json:"status"`
	Role      string           `gorm:"column:invited_role;type:text;not null" json:"role"`
	InvitedBy snowflake.ID     `gorm:"column:invited_by;not null;index" json:"invited_by"`
	ExpiresAt time.Time        `gorm:"column:expires_at;not null" json:"expires_at"`
	CreatedAt time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time        `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Invitation) TableName() string { return "invitations" }

// InvitationView is the public projection of an Invitation.
type InvitationView struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organizationId"`
	Email          string    `json:"email"`
	Role           string    `json:"role"`
	Status         string    `json:"status"`
	InvitedBy      string    `json:"invitedBy"`
	ExpiresAt      time.Time `json:"expiresAt"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (i Invitation) View() InvitationView {
	return InvitationView{
		ID:             i.ID.String(),
		OrganizationID: i.OrgID.String(),
		Email:          i.Email,
		Role:           i.Role,
		Status:         string(i.Status),
		InvitedBy:      i.InvitedBy.String(),
		ExpiresAt:      i.ExpiresAt,
		CreatedAt:      i.CreatedAt,
	}
}
