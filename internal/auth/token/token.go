// Package token signs and verifies the HS256 access and refresh JWTs.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/smallbiznis/taskflow/internal/auth/domain"
	"github.com/smallbiznis/taskflow/internal/clock"
	"github.com/smallbiznis/taskflow/internal/config"
)

const issuer = "taskflow"

var ErrInvalidToken = errors.New("invalid token")

// Manager issues access and refresh tokens with distinct secrets so neither
// kind verifies as the other.
type Manager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	clock         clock.Clock
}

type claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

func NewFromConfig(cfg config.Config, clk clock.Clock) *Manager {
	return New(cfg.Auth.AccessTokenSecret, cfg.Auth.RefreshTokenSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL, clk)
}

func New(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration, clk clock.Clock) *Manager {
	if clk == nil {
		clk = clock.New()
	}
	return &Manager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		clock:         clk,
	}
}

func (m *Manager) IssueAccess(payload domain.AccessPayload) (string, error) {
	return m.sign(payload, m.accessSecret, m.accessTTL)
}

func (m *Manager) IssueRefresh(payload domain.AccessPayload) (string, error) {
	return m.sign(payload, m.refreshSecret, m.refreshTTL)
}

func (m *Manager) VerifyAccess(raw string) (*domain.AccessPayload, error) {
	return m.parse(raw, m.accessSecret)
}

func (m *Manager) VerifyRefresh(raw string) (*domain.AccessPayload, error) {
	return m.parse(raw, m.refreshSecret)
}

func (m *Manager) sign(payload domain.AccessPayload, secret []byte, ttl time.Duration) (string, error) {
	now := m.clock.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   payload.UserID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: payload.UserID.String(),
		Email:  payload.Email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(secret)
}

func (m *Manager) parse(raw string, secret []byte) (*domain.AccessPayload, error) {
	parsed, err := jwt.ParseWithClaims(raw, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	userID, err := snowflake.ParseString(c.UserID)
	if err != nil || c.Email == "" {
		return nil, ErrInvalidToken
	}

	return &domain.AccessPayload{UserID: userID, Email: c.Email}, nil
}
