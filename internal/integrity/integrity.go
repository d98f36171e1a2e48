// Package integrity turns opaque secrets (refresh tokens, invitation tokens)
// into keyed tags that are safe to store and compare.
package integrity

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/smallbiznis/taskflow/internal/config"
	"go.uber.org/fx"
)

var ErrInvalidKey = errors.New("integrity key must be non-empty base64")

// Service computes and checks HMAC-SHA256 tags.
type Service struct {
	key []byte
}

var Module = fx.Module("integrity",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config) (*Service, error) {
	return New(cfg.Auth.HMACSecretKey)
}

// New decodes a base64 key. Standard and URL alphabets are accepted.
func New(encodedKey string) (*Service, error) {
	encodedKey = strings.TrimSpace(encodedKey)
	if encodedKey == "" {
		return nil, ErrInvalidKey
	}
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		key, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(encodedKey, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
	}
	if len(key) == 0 {
		return nil, ErrInvalidKey
	}
	return &Service{key: key}, nil
}

// Tag returns hex(HMAC-SHA256(key, secret)).
func (s *Service) Tag(secret string) string {
	return hex.EncodeToString(s.mac(secret))
}

// Verify recomputes the tag for secret and compares it in constant time.
// A tag that is not valid hex never matches.
func (s *Service) Verify(secret, tag string) bool {
	stored, err := hex.DecodeString(tag)
	if err != nil {
		return false
	}
	return hmac.Equal(s.mac(secret), stored)
}

func (s *Service) mac(secret string) []byte {
	h := hmac.New(sha256.New, s.key)
	h.Write([]byte(secret))
	return h.Sum(nil)
}
