package domain

import (
	"context"
	"time"
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*TokenPair, error)
	Refresh(ctx context.Context, rawRefreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, rawRefreshToken string) error
	Authenticate(ctx context.Context, authorizationHeader string) (*AccessPayload, error)
}

// TokenIssuer signs and verifies access and refresh tokens.
type TokenIssuer interface {
	IssueAccess(payload AccessPayload) (string, error)
	IssueRefresh(payload AccessPayload) (string, error)
	VerifyAccess(token string) (*AccessPayload, error)
	VerifyRefresh(token string) (*AccessPayload, error)
}

// PasswordHasher produces and checks slow salted hashes. DummyHash is
// verified against when no user matches so both paths cost the same.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) bool
	DummyHash() string
}

// TagService turns secrets into storable tags.
type TagService interface {
	Tag(secret string) string
	Verify(secret, tag string) bool
}

type RegisterRequest struct {
	Name     string
	LastName string
	Email    string
	Password string
}

type LoginRequest struct {
	Email    string
	Password string
}

// TokenPair is the result of login and refresh. RefreshToken is only ever
// delivered through the cookie.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}
