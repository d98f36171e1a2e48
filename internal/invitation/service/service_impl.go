package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/taskflow/internal/auth/domain"
	"github.com/smallbiznis/taskflow/internal/authorization"
	"github.com/smallbiznis/taskflow/internal/clock"
	"github.com/smallbiznis/taskflow/internal/config"
	"github.com/smallbiznis/taskflow/internal/invitation/domain"
	"github.com/smallbiznis/taskflow/internal/observability/metrics"
	orgdomain "github.com/smallbiznis/taskflow/internal/organization/domain"
	"github.com/smallbiznis/taskflow/internal/organization/event"
	"github.com/smallbiznis/taskflow/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Cfg       config.Config
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Users     authdomain.Repository
	Orgs      orgdomain.Repository
	Authz     authorization.Service
	Tags      domain.TagService
	Publisher event.EventPublisher
	Mailer    domain.Mailer    `optional:"true"`
	Metrics   *metrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	users     authdomain.Repository
	orgs      orgdomain.Repository
	authz     authorization.Service
	tags      domain.TagService
	publisher event.EventPublisher
	mailer    domain.Mailer
	metrics   *metrics.Metrics

	validity time.Duration
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("invitation.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		users:     p.Users,
		orgs:      p.Orgs,
		authz:     p.Authz,
		tags:      p.Tags,
		publisher: p.Publisher,
		mailer:    p.Mailer,
		metrics:   p.Metrics,
		validity:  time.Duration(p.Cfg.Auth.InvitationTokenDaysValid) * 24 * time.Hour,
	}
}

func (s *Service) InviteUser(ctx context.Context, req domain.InviteRequest) (*domain.InviteResult, error) {
	role, err := invitableRole(req.Role)
	if err != nil {
		return nil, err
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, domain.ErrInvalidEmail
	}

	inviter, err := s.orgs.GetMember(ctx, req.OrgID, req.InviterID)
	if err != nil {
		if errors.Is(err, orgdomain.ErrMemberNotFound) {
			s.metrics.RecordInvitationEvent(ctx, "invite", metrics.OutcomeFailure)
			return nil, domain.ErrNotMember
		}
		return nil, fmt.Errorf("load inviter membership: %w", err)
	}
	if err := s.authz.Authorize(ctx, inviter.Role, authorization.ObjectInvitation, authorization.ActionInvitationCreate); err != nil {
		if errors.Is(err, authorization.ErrForbidden) {
			s.metrics.RecordInvitationEvent(ctx, "invite", metrics.OutcomeFailure)
			return nil, domain.ErrInsufficientRole
		}
		return nil, err
	}

	invitee, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		member, err := s.orgs.IsMember(ctx, req.OrgID, invitee.ID)
		if err != nil {
			return nil, fmt.Errorf("check membership: %w", err)
		}
		if member {
			return nil, domain.ErrAlreadyMember
		}
	case !errors.Is(err, authdomain.ErrUserNotFound):
		return nil, fmt.Errorf("find invitee: %w", err)
	}

	now := s.clock.Now()
	if _, err := s.repo.FindActiveByEmail(ctx, req.OrgID, email, now); err == nil {
		return nil, domain.ErrInvitationExists
	} else if !errors.Is(err, domain.ErrInvitationNotFound) {
		return nil, fmt.Errorf("find active invitation: %w", err)
	}

	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("generate invitation token: %w", err)
	}

	invitation := domain.Invitation{
		ID:        s.genID.Generate(),
		OrgID:     req.OrgID,
		Email:     email,
		TokenHash: s.tags.Tag(token),
		Status:    domain.StatusPending,
		Role:      role,
		InvitedBy: req.InviterID,
		ExpiresAt: now.Add(s.validity),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, &invitation); err != nil {
			return err
		}
		return s.publisher.WithTx(tx).Publish(ctx, req.OrgID, event.InvitationCreatedTopic, map[string]string{
			"organization_id": req.OrgID.String(),
			"invitation_id":   invitation.ID.String(),
			"invited_by":      req.InviterID.String(),
			"role":            role,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("create invitation: %w", err)
	}

	s.sendInvitation(ctx, invitation, token)
	s.metrics.RecordInvitationEvent(ctx, "invite", metrics.OutcomeSuccess)
	s.log.Info("invitation created",
		zap.String("org_id", req.OrgID.String()),
		zap.String("invitation_id", invitation.ID.String()),
	)

	return &domain.InviteResult{Invitation: invitation, Token: token}, nil
}

func (s *Service) AcceptInvitation(ctx context.Context, req domain.AcceptRequest) error {
	now := s.clock.Now()

	expired, err := s.repo.ExpireStale(ctx, req.OrgID, now)
	if err != nil {
		return fmt.Errorf("expire invitations: %w", err)
	}
	if expired > 0 {
		s.log.Info("invitations expired",
			zap.String("org_id", req.OrgID.String()),
			zap.Int64("count", expired),
		)
	}

	invitation, err := s.repo.FindActiveByOrg(ctx, req.OrgID, now)
	if err != nil {
		if errors.Is(err, domain.ErrInvitationNotFound) {
			s.metrics.RecordInvitationEvent(ctx, "accept", metrics.OutcomeFailure)
		}
		return err
	}

	if !s.tags.Verify(strings.TrimSpace(req.Token), invitation.TokenHash) {
		s.metrics.RecordInvitationEvent(ctx, "accept", metrics.OutcomeFailure)
		return domain.ErrInvalidInvitationToken
	}

	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		return err
	}
	if user.Email != invitation.Email {
		s.metrics.RecordInvitationEvent(ctx, "accept", metrics.OutcomeFailure)
		return domain.ErrInvitationEmailMismatch
	}

	member, err := s.orgs.IsMember(ctx, req.OrgID, user.ID)
	if err != nil {
		return fmt.Errorf("check membership: %w", err)
	}
	if member {
		return domain.ErrAlreadyMember
	}

	// The requested role is honoured over the invited one.
	role := invitation.Role
	if strings.TrimSpace(req.RequestedRole) != "" {
		if role, err = invitableRole(req.RequestedRole); err != nil {
			return err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orgs.WithTx(tx).AddMember(ctx, orgdomain.OrganizationMember{
			ID:        s.genID.Generate(),
			OrgID:     req.OrgID,
			UserID:    user.ID,
			Role:      role,
			CreatedAt: now,
		}); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrAlreadyMember
			}
			return err
		}

		accepted, err := s.repo.WithTx(tx).MarkAccepted(ctx, invitation.ID, now)
		if err != nil {
			return err
		}
		if accepted == 0 {
			return domain.ErrInvitationNotFound
		}

		return s.publisher.WithTx(tx).Publish(ctx, req.OrgID, event.MemberJoinedTopic, map[string]string{
			"organization_id": req.OrgID.String(),
			"user_id":         user.ID.String(),
			"invitation_id":   invitation.ID.String(),
			"role":            role,
		})
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyMember) || errors.Is(err, domain.ErrInvitationNotFound) {
			s.metrics.RecordInvitationEvent(ctx, "accept", metrics.OutcomeFailure)
			return err
		}
		return fmt.Errorf("accept invitation: %w", err)
	}

	s.metrics.RecordInvitationEvent(ctx, "accept", metrics.OutcomeSuccess)
	s.log.Info("invitation accepted",
		zap.String("org_id", req.OrgID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("role", role),
	)
	return nil
}

func (s *Service) sendInvitation(ctx context.Context, invitation domain.Invitation, token string) {
	if s.mailer == nil {
		return
	}

	orgName := ""
	if org, err := s.orgs.GetOrganization(ctx, invitation.OrgID); err == nil {
		orgName = org.Name
	}

	err := s.mailer.SendInvitation(ctx, domain.InvitationEmail{
		To:               invitation.Email,
		OrganizationID:   invitation.OrgID.String(),
		OrganizationName: orgName,
		Role:             invitation.Role,
		Token:            token,
		ExpiresAt:        invitation.ExpiresAt.Format(time.RFC3339),
	})
	if err != nil {
		s.log.Warn("failed to send invitation email",
			zap.String("invitation_id", invitation.ID.String()),
			zap.Error(err),
		)
	}
}

// invitableRole accepts MEMBER and ADMIN in any case.
func invitableRole(raw string) (string, error) {
	role, ok := orgdomain.NormalizeRole(raw)
	if !ok || role == orgdomain.RoleOwner {
		return "", domain.ErrInvalidRole
	}
	return role, nil
}

func newToken() (string, error) {
	buf := make([]byte, domain.TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
