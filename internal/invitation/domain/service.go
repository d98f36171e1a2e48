package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// TokenBytes is the size of the random invitation secret before hex encoding.
const TokenBytes = 64

type Service interface {
	InviteUser(ctx context.Context, req InviteRequest) (*InviteResult, error)
	AcceptInvitation(ctx context.Context, req AcceptRequest) error
}

type InviteRequest struct {
	OrgID     snowflake.ID
	InviterID snowflake.ID
	Email     string
	Role      string
}

// InviteResult carries the raw secret. It exists only in this value and in
// the invitation email.
type InviteResult struct {
	Invitation Invitation
	Token      string
}

type AcceptRequest struct {
	OrgID         snowflake.ID
	UserID        snowflake.ID
	Token         string
	RequestedRole string
}

// TagService turns secrets into storable tags.
type TagService interface {
	Tag(secret string) string
	Verify(secret, tag string) bool
}

// Mailer delivers the raw invitation secret to the invitee.
type Mailer interface {
	SendInvitation(ctx context.Context, msg InvitationEmail) error
}

type InvitationEmail struct {
	To               string
	OrganizationID   string
	OrganizationName string
	Role             string
	Token            string
	ExpiresAt        string
}

var (
	ErrInvalidRole             = errors.New("invalid_role")
	ErrInvalidEmail            = errors.New("invalid_email")
	ErrNotMember               = errors.New("not_member")
	ErrInsufficientRole        = errors.New("insufficient_role")
	ErrAlreadyMember           = errors.New("already_member")
	ErrInvitationExists        = errors.New("invitation_exists")
	ErrInvitationNotFound      = errors.New("invitation_not_found")
	ErrInvalidInvitationToken  = errors.New("invalid_invitation_token")
	ErrInvitationEmailMismatch = errors.New("invitation_email_mismatch")
)
