package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type OrganizationListItem struct {
	ID        snowflake.ID
	Name      string
	Slug      string
	Role      string
	CreatedAt time.Time
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrganization(ctx context.Context, org Organization) error
	GetOrganization(ctx context.Context, orgID snowflake.ID) (*Organization, error)
	UpdateOrganization(ctx context.Context, org Organization) error
	// DeleteOrganization removes the organization with its memberships and
	// invitations. Callers wrap it in a transaction.
	DeleteOrganization(ctx context.Context, orgID snowflake.ID) error
	AddMember(ctx context.Context, member OrganizationMember) error
	GetMember(ctx context.Context, orgID snowflake.ID, userID snowflake.ID) (*OrganizationMember, error)
	IsMember(ctx context.Context, orgID snowflake.ID, userID snowflake.ID) (bool, error)
	ListOrganizationsByUser(ctx context.Context, userID snowflake.ID) ([]OrganizationListItem, error)
}
