package authorization

import (
	"context"
	"errors"
)

const (
	ObjectOrganization = "organization"
	ObjectInvitation   = "invitation"
)

const (
	ActionOrganizationView   = "organization.view"
	ActionOrganizationUpdate = "organization.update"
	ActionOrganizationDelete = "organization.delete"

	ActionInvitationCreate = "invitation.create"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidRole   = errors.New("invalid_role")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)

// Service decides whether a membership role may perform action on object.
type Service interface {
	Authorize(ctx context.Context, role string, object string, action string) error
}
