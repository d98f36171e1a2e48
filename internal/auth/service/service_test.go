package service

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/taskflow/internal/auth/domain"
	"github.com/smallbiznis/taskflow/internal/auth/password"
	"github.com/smallbiznis/taskflow/internal/auth/repository"
	"github.com/smallbiznis/taskflow/internal/auth/token"
	"github.com/smallbiznis/taskflow/internal/clock"
	"github.com/smallbiznis/taskflow/internal/config"
	"github.com/smallbiznis/taskflow/internal/integrity"
	"github.com/smallbiznis/taskflow/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	svc   authdomain.Service
	db    *gorm.DB
	clock *clock.FakeClock
	tags  *integrity.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&authdomain.User{}, &authdomain.Session{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	repo, sessionRepo := repository.New(dbConn)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	clk := clock.NewFakeClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	hasher, err := password.New(password.AlgorithmBcrypt, bcrypt.MinCost, "")
	require.NoError(t, err)
	tags, err := integrity.New(base64.StdEncoding.EncodeToString([]byte("test-integrity-key")))
	require.NoError(t, err)

	cfg := config.Config{Auth: config.AuthConfig{RefreshTokenDaysValid: 7}}
	svc := New(Params{
		DB:          dbConn,
		Log:         zap.NewNop(),
		Cfg:         cfg,
		GenID:       node,
		Clock:       clk,
		Repo:        repo,
		SessionRepo: sessionRepo,
		Issuer:      token.New("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour, clk),
		Hasher:      hasher,
		Tags:        tags,
	})

	return &testEnv{svc: svc, db: dbConn, clock: clk, tags: tags}
}

func (e *testEnv) register(t *testing.T, email string) *authdomain.User {
	t.Helper()
	user, err := e.svc.Register(context.Background(), authdomain.RegisterRequest{
		Name:     "Alice",
		LastName: "Doe",
		Email:    email,
		Password: "Aa1!aaaa",
	})
	if err != nil {
		t.Fatalf("failed to register: %v", err)
	}
	return user
}

func (e *testEnv) sessionCount(t *testing.T, userID snowflake.ID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&authdomain.Session{}).Where("user_id = ?", userID).Count(&count).Error)
	return count
}

func TestRegisterStoresHashNotPassword(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "a@x.com")

	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "Aa1!aaaa", user.PasswordHash)
	assert.Equal(t, "a@x.com", user.View().Email)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "a@x.com")

	_, err := env.svc.Register(context.Background(), authdomain.RegisterRequest{
		Name: "Other", LastName: "User", Email: "a@x.com", Password: "Bb2@bbbb",
	})
	if !errors.Is(err, authdomain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestRegisterConcurrentSameEmail(t *testing.T) {
	env := newTestEnv(t)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.Register(context.Background(), authdomain.RegisterRequest{
				Name: "Racer", LastName: "X", Email: "race@x.com", Password: "Aa1!aaaa",
			})
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, authdomain.ErrUserExists):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, len(errs)-1, conflicts)
}

func TestLoginThenAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "a@x.com")

	pair, err := env.svc.Login(context.Background(), authdomain.LoginRequest{Email: "a@x.com", Password: "Aa1!aaaa"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, env.clock.Now().Add(7*24*time.Hour), pair.RefreshExpiresAt)

	payload, err := env.svc.Authenticate(context.Background(), "Bearer "+pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, payload.UserID)
	assert.Equal(t, "a@x.com", payload.Email)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "a@x.com")

	_, unknown := env.svc.Login(context.Background(), authdomain.LoginRequest{Email: "nobody@x.com", Password: "Aa1!aaaa"})
	_, wrong := env.svc.Login(context.Background(), authdomain.LoginRequest{Email: "a@x.com", Password: "Wrong1!x"})

	if !errors.Is(unknown, authdomain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", unknown)
	}
	if !errors.Is(wrong, authdomain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", wrong)
	}
	assert.Equal(t, unknown.Error(), wrong.Error())
}

func TestLoginReplacesExistingSession(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "a@x.com")

	first, err := env.svc.Login(context.Background(), authdomain.LoginRequest{Email: "a@x.com", Password: "Aa1!aaaa"})
	require.NoError(t, err)
	_, err = env.svc.Login(context.Background(), authdomain.LoginRequest{Email: "a@x.com", Password: "Aa1!aaaa"})
	require.NoError(t, err)

	assert.EqualValues(t, 1, env.sessionCount(t, user.ID))

	_, err = env.svc.Refresh(context.Background(), first.RefreshToken)
	assert.ErrorIs(t, err, authdomain.ErrRefreshTokenMismatch)
}

func TestRefreshRotatesStrictly(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "a@x.com")

	original, err := env.svc.Login(context.Background(), authdomain.LoginRequest{Email: "a@x.com", Password: "Aa1!aaaa"})
	require.NoError(t, err)

	env.clock.Advance(time.Second)
	rotated, err := env.svc.Refresh(context.Background(), original.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, original.AccessToken, rotated.AccessToken)
	assert.NotEqual(t, original.RefreshToken, rotated.RefreshToken)

	_, err = env.svc.Refresh(context.Background(), original.RefreshToken)
	assert.ErrorIs(t, err, authdomain.ErrRefreshTokenMismatch)

	again, err := env.svc.Refresh(context.Background(), rotated.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, again.AccessToken)
}

func TestRefreshErrors(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "a@x.com")

	_, err := env.svc.Refresh(context.Background(), "  ")
	assert.ErrorIs(t, err, authdomain.ErrRefreshTokenMissing)

	_, err = env.svc.Refresh(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, authdomain.ErrInvalidRefreshToken)

	pair, err := env.svc.Login(context.Background(), authdomain.LoginRequest{Email: "a@x.com", Password: "Aa1!aaaa"})
	require.NoError(t, err)

	_, err = env.svc.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, authdomain.ErrInvalidRefreshToken, "access tokens are not refresh tokens")

	require.NoError(t, env.db.Where("user_id = ?", user.ID).Delete(&authdomain.Session{}).Error)
	_, err = env.svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, authdomain.ErrRefreshTokenNotFound)
}

func TestRefreshAfterExpiry(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "a@x.com")

	pair, err := env.svc.Login(context.Background(), authdomain.LoginRequest{Email: "a@x.com", Password: "Aa1!aaaa"})
	require.NoError(t, err)

	env.clock.Advance(8 * 24 * time.Hour)
	_, err = env.svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, authdomain.ErrInvalidRefreshToken)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "a@x.com")

	pair, err := env.svc.Login(context.Background(), authdomain.LoginRequest{Email: "a@x.com", Password: "Aa1!aaaa"})
	require.NoError(t, err)

	require.NoError(t, env.svc.Logout(context.Background(), pair.RefreshToken))
	assert.EqualValues(t, 0, env.sessionCount(t, user.ID))

	_, err = env.svc.Refresh(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, authdomain.ErrRefreshTokenNotFound)

	// Idempotent, and a missing cookie is not an error.
	require.NoError(t, env.svc.Logout(context.Background(), pair.RefreshToken))
	require.NoError(t, env.svc.Logout(context.Background(), ""))
}

func TestAuthenticateRejectsBadHeaders(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "a@x.com")
	pair, err := env.svc.Login(context.Background(), authdomain.LoginRequest{Email: "a@x.com", Password: "Aa1!aaaa"})
	require.NoError(t, err)

	for _, header := range []string{"", "Bearer", "Bearer   ", "Basic abc", pair.AccessToken} {
		_, err := env.svc.Authenticate(context.Background(), header)
		assert.ErrorIs(t, err, authdomain.ErrAccessTokenMissing, header)
	}

	_, err = env.svc.Authenticate(context.Background(), "Bearer "+pair.RefreshToken)
	assert.ErrorIs(t, err, authdomain.ErrInvalidAccessToken)

	env.clock.Advance(16 * time.Minute)
	_, err = env.svc.Authenticate(context.Background(), "Bearer "+pair.AccessToken)
	assert.ErrorIs(t, err, authdomain.ErrInvalidAccessToken)
}

func TestSessionStoresTagOnly(t *testing.T) {
	env := newTestEnv(t)
	user := env.register(t, "a@x.com")
	pair, err := env.svc.Login(context.Background(), authdomain.LoginRequest{Email: "a@x.com", Password: "Aa1!aaaa"})
	require.NoError(t, err)

	var session authdomain.Session
	require.NoError(t, env.db.Where("user_id = ?", user.ID).First(&session).Error)
	assert.NotEqual(t, pair.RefreshToken, session.TokenHash)
	assert.True(t, env.tags.Verify(pair.RefreshToken, session.TokenHash))
}
