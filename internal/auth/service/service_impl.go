package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/taskflow/internal/auth/domain"
	"github.com/smallbiznis/taskflow/internal/clock"
	"github.com/smallbiznis/taskflow/internal/config"
	"github.com/smallbiznis/taskflow/internal/observability/metrics"
	"github.com/smallbiznis/taskflow/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const bearerPrefix = "Bearer "

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Cfg         config.Config
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	SessionRepo domain.SessionRepository
	Issuer      domain.TokenIssuer
	Hasher      domain.PasswordHasher
	Tags        domain.TagService
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	sessionRepo domain.SessionRepository
	issuer      domain.TokenIssuer
	hasher      domain.PasswordHasher
	tags        domain.TagService
	metrics     *metrics.Metrics

	refreshValidity time.Duration
}

func New(p Params) domain.Service {
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("auth.service"),
		genID:           p.GenID,
		clock:           p.Clock,
		repo:            p.Repo,
		sessionRepo:     p.SessionRepo,
		issuer:          p.Issuer,
		hasher:          p.Hasher,
		tags:            p.Tags,
		metrics:         p.Metrics,
		refreshValidity: time.Duration(p.Cfg.Auth.RefreshTokenDaysValid) * 24 * time.Hour,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.Now()
	user := &domain.User{
		ID:           s.genID.Generate(),
		Email:        strings.TrimSpace(req.Email),
		Name:         strings.TrimSpace(req.Name),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: hashed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		s.metrics.RecordAuthEvent(ctx, "register", metrics.OutcomeFailure)
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.metrics.RecordAuthEvent(ctx, "register", metrics.OutcomeSuccess)
	s.log.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, nil
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.TokenPair, error) {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("find user: %w", err)
		}
		s.hasher.Verify(req.Password, s.hasher.DummyHash())
		s.metrics.RecordAuthEvent(ctx, "login", metrics.OutcomeFailure)
		return nil, domain.ErrInvalidCredentials
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		s.metrics.RecordAuthEvent(ctx, "login", metrics.OutcomeFailure)
		return nil, domain.ErrInvalidCredentials
	}

	pair, session, err := s.issuePair(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sessions := s.sessionRepo.WithTx(tx)
		if err := sessions.DeleteSessionsByUserID(ctx, user.ID); err != nil {
			return err
		}
		return sessions.CreateSession(ctx, session)
	})
	if err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}

	s.metrics.RecordAuthEvent(ctx, "login", metrics.OutcomeSuccess)
	return pair, nil
}

func (s *Service) Refresh(ctx context.Context, rawRefreshToken string) (*domain.TokenPair, error) {
	raw := strings.TrimSpace(rawRefreshToken)
	if raw == "" {
		return nil, domain.ErrRefreshTokenMissing
	}

	payload, err := s.issuer.VerifyRefresh(raw)
	if err != nil {
		s.metrics.RecordAuthEvent(ctx, "refresh", metrics.OutcomeFailure)
		return nil, domain.ErrInvalidRefreshToken
	}

	stored, err := s.sessionRepo.FindSessionByUserID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			s.metrics.RecordAuthEvent(ctx, "refresh", metrics.OutcomeFailure)
			return nil, domain.ErrRefreshTokenNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	if !s.clock.Now().Before(stored.ExpiresAt) {
		s.metrics.RecordAuthEvent(ctx, "refresh", metrics.OutcomeFailure)
		return nil, domain.ErrInvalidRefreshToken
	}
	if !s.tags.Verify(raw, stored.TokenHash) {
		s.metrics.RecordAuthEvent(ctx, "refresh", metrics.OutcomeFailure)
		s.log.Warn("refresh token mismatch", zap.String("user_id", payload.UserID.String()))
		return nil, domain.ErrRefreshTokenMismatch
	}

	pair, session, err := s.issuePair(payload.UserID, payload.Email)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sessions := s.sessionRepo.WithTx(tx)
		removed, err := sessions.DeleteSession(ctx, payload.UserID, stored.TokenHash)
		if err != nil {
			return err
		}
		// Another request rotated this token first.
		if removed == 0 {
			return domain.ErrRefreshTokenMismatch
		}
		return sessions.CreateSession(ctx, session)
	})
	if err != nil {
		if errors.Is(err, domain.ErrRefreshTokenMismatch) {
			s.metrics.RecordAuthEvent(ctx, "refresh", metrics.OutcomeFailure)
			return nil, err
		}
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	s.metrics.RecordAuthEvent(ctx, "refresh", metrics.OutcomeSuccess)
	return pair, nil
}

func (s *Service) Logout(ctx context.Context, rawRefreshToken string) error {
	raw := strings.TrimSpace(rawRefreshToken)
	if raw == "" {
		s.log.Warn("logout without refresh token")
		return nil
	}

	removed, err := s.sessionRepo.DeleteSessionByTokenHash(ctx, s.tags.Tag(raw))
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if removed == 0 {
		s.log.Debug("logout for unknown session")
	}

	s.metrics.RecordAuthEvent(ctx, "logout", metrics.OutcomeSuccess)
	return nil
}

func (s *Service) Authenticate(ctx context.Context, authorizationHeader string) (*domain.AccessPayload, error) {
	raw, ok := strings.CutPrefix(strings.TrimSpace(authorizationHeader), bearerPrefix)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return nil, domain.ErrAccessTokenMissing
	}

	payload, err := s.issuer.VerifyAccess(raw)
	if err != nil {
		return nil, domain.ErrInvalidAccessToken
	}
	return payload, nil
}

// issuePair signs a fresh access/refresh pair and builds the session row
// holding the refresh token's tag.
func (s *Service) issuePair(userID snowflake.ID, email string) (*domain.TokenPair, *domain.Session, error) {
	payload := domain.AccessPayload{UserID: userID, Email: email}

	access, err := s.issuer.IssueAccess(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.issuer.IssueRefresh(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("issue refresh token: %w", err)
	}

	now := s.clock.Now()
	session := &domain.Session{
		ID:        s.genID.Generate(),
		UserID:    userID,
		TokenHash: s.tags.Tag(refresh),
		ExpiresAt: now.Add(s.refreshValidity),
		CreatedAt: now,
	}

	return &domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		RefreshExpiresAt: session.ExpiresAt,
	}, session, nil
}
