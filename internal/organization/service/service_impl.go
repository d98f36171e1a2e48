package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/taskflow/internal/authorization"
	"github.com/smallbiznis/taskflow/internal/clock"
	"github.com/smallbiznis/taskflow/internal/organization/domain"
	"github.com/smallbiznis/taskflow/internal/organization/event"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Authz     authorization.Service
	Publisher event.EventPublisher
}

type service struct {
	db        *gorm.DB
	log       *zap.Logger
	repo      domain.Repository
	authz     authorization.Service
	genID     *snowflake.Node
	clock     clock.Clock
	publisher event.EventPublisher
}

func NewService(p Params) domain.Service {
	return &service{
		db:        p.DB,
		log:       p.Log.Named("organization.service"),
		repo:      p.Repo,
		authz:     p.Authz,
		genID:     p.GenID,
		clock:     p.Clock,
		publisher: p.Publisher,
	}
}

func (s *service) Create(ctx context.Context, userID snowflake.ID, req domain.CreateOrganizationRequest) (*domain.OrganizationResponse, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	now := s.clock.Now()
	org := domain.Organization{
		ID:        s.genID.Generate(),
		Name:      name,
		Slug:      slug.Make(name),
		OwnerID:   userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrganization(ctx, org); err != nil {
			return err
		}

		member := domain.OrganizationMember{
			ID:        s.genID.Generate(),
			OrgID:     org.ID,
			UserID:    userID,
			Role:      domain.RoleOwner,
			CreatedAt: now,
		}
		if err := repo.AddMember(ctx, member); err != nil {
			return err
		}

		return s.publisher.WithTx(tx).Publish(ctx, org.ID, event.OrganizationCreatedTopic, map[string]string{
			"organization_id": org.ID.String(),
			"owner_user_id":   userID.String(),
			"name":            org.Name,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}

	s.log.Info("organization created",
		zap.String("org_id", org.ID.String()),
		zap.String("owner_user_id", userID.String()),
	)
	return org.Response(), nil
}

func (s *service) ListOrganizationsByUser(ctx context.Context, userID snowflake.ID) ([]domain.OrganizationListResponseItem, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	items, err := s.repo.ListOrganizationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.OrganizationListResponseItem, 0, len(items))
	for _, item := range items {
		resp = append(resp, domain.OrganizationListResponseItem{
			ID:        item.ID.String(),
			Name:      item.Name,
			Slug:      item.Slug,
			Role:      item.Role,
			CreatedAt: item.CreatedAt,
		})
	}

	return resp, nil
}

func (s *service) Get(ctx context.Context, orgID snowflake.ID, userID snowflake.ID) (*domain.OrganizationResponse, error) {
	if err := s.authorize(ctx, orgID, userID, authorization.ActionOrganizationView, domain.ErrForbidden); err != nil {
		return nil, err
	}
	org, err := s.repo.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return org.Response(), nil
}

func (s *service) Update(ctx context.Context, orgID snowflake.ID, userID snowflake.ID, req domain.UpdateOrganizationRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.ErrInvalidName
	}

	if err := s.authorize(ctx, orgID, userID, authorization.ActionOrganizationUpdate, domain.ErrUpdateForbidden); err != nil {
		return err
	}
	org, err := s.repo.GetOrganization(ctx, orgID)
	if err != nil {
		return err
	}

	org.Name = name
	org.Slug = slug.Make(name)
	org.UpdatedAt = s.clock.Now()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpdateOrganization(ctx, *org); err != nil {
			return err
		}
		return s.publisher.WithTx(tx).Publish(ctx, org.ID, event.OrganizationUpdatedTopic, map[string]string{
			"organization_id": org.ID.String(),
			"name":            org.Name,
			"updated_by":      userID.String(),
		})
	})
}

func (s *service) Delete(ctx context.Context, orgID snowflake.ID, userID snowflake.ID) error {
	if err := s.authorize(ctx, orgID, userID, authorization.ActionOrganizationDelete, domain.ErrDeleteForbidden); err != nil {
		return err
	}
	if _, err := s.repo.GetOrganization(ctx, orgID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).DeleteOrganization(ctx, orgID); err != nil {
			return err
		}
		return s.publisher.WithTx(tx).Publish(ctx, orgID, event.OrganizationDeletedTopic, map[string]string{
			"organization_id": orgID.String(),
			"deleted_by":      userID.String(),
		})
	})
	if err != nil {
		return err
	}

	s.log.Info("organization deleted", zap.String("org_id", orgID.String()))
	return nil
}

// authorize loads the caller's membership and checks action against its
// role. Non-members get ErrForbidden whether or not the organization exists;
// denied members get denied.
func (s *service) authorize(ctx context.Context, orgID, userID snowflake.ID, action string, denied error) error {
	member, err := s.repo.GetMember(ctx, orgID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return domain.ErrForbidden
		}
		return err
	}

	if err := s.authz.Authorize(ctx, member.Role, authorization.ObjectOrganization, action); err != nil {
		if errors.Is(err, authorization.ErrForbidden) {
			return denied
		}
		return err
	}
	return nil
}
