package domain

import "errors"

var (
	ErrUserExists           = errors.New("user_exists")
	ErrUserNotFound         = errors.New("user_not_found")
	ErrInvalidCredentials   = errors.New("invalid_credentials")
	ErrSessionNotFound      = errors.New("session_not_found")
	ErrRefreshTokenMissing  = errors.New("refresh_token_missing")
	ErrInvalidRefreshToken  = errors.New("invalid_refresh_token")
	ErrRefreshTokenNotFound = errors.New("refresh_token_not_found")
	ErrRefreshTokenMismatch = errors.New("refresh_token_mismatch")
	ErrAccessTokenMissing   = errors.New("access_token_missing")
	ErrInvalidAccessToken   = errors.New("invalid_access_token")
)
