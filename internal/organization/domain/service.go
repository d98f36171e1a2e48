package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleOwner  = "OWNER"
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

// NormalizeRole upper-cases role and reports whether it is a known role.
func NormalizeRole(role string) (string, bool) {
	role = strings.ToUpper(strings.TrimSpace(role))
	switch role {
	case RoleOwner, RoleAdmin, RoleMember:
		return role, true
	default:
		return role, false
	}
}

type Service interface {
	Create(ctx context.Context, userID snowflake.ID, req CreateOrganizationRequest) (*OrganizationResponse, error)
	ListOrganizationsByUser(ctx context.Context, userID snowflake.ID) ([]OrganizationListResponseItem, error)
	Get(ctx context.Context, orgID snowflake.ID, userID snowflake.ID) (*OrganizationResponse, error)
	Update(ctx context.Context, orgID snowflake.ID, userID snowflake.ID, req UpdateOrganizationRequest) error
	Delete(ctx context.Context, orgID snowflake.ID, userID snowflake.ID) error
}

type CreateOrganizationRequest struct {
	Name string
}

type UpdateOrganizationRequest struct {
	Name string
}

type OrganizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type OrganizationListResponseItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (o Organization) Response() *OrganizationResponse {
	return &OrganizationResponse{
		ID:        o.ID.String(),
		Name:      o.Name,
		Slug:      o.Slug,
		OwnerID:   o.OwnerID.String(),
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

var (
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrNotFound            = errors.New("organization_not_found")
	ErrMemberNotFound      = errors.New("member_not_found")
	ErrForbidden           = errors.New("forbidden")
	ErrUpdateForbidden     = errors.New("update_forbidden")
	ErrDeleteForbidden     = errors.New("delete_forbidden")
)
