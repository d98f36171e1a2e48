package integrity

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := New(base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef")))
	require.NoError(t, err)
	return svc
}

func TestTagIsDeterministicHex(t *testing.T) {
	svc := newTestService(t)

	tag := svc.Tag("secret")
	assert.Len(t, tag, 64)
	assert.Equal(t, tag, svc.Tag("secret"))
	assert.Equal(t, strings.ToLower(tag), tag)
	assert.NotEqual(t, tag, svc.Tag("secret2"))
}

func TestVerify(t *testing.T) {
	svc := newTestService(t)
	tag := svc.Tag("refresh-token")

	assert.True(t, svc.Verify("refresh-token", tag))
	assert.False(t, svc.Verify("refresh-token!", tag))
	assert.False(t, svc.Verify("refresh-token", "not-hex"))
	assert.False(t, svc.Verify("refresh-token", tag[:10]))
	assert.False(t, svc.Verify("refresh-token", ""))
}

func TestDifferentKeysProduceDifferentTags(t *testing.T) {
	a := newTestService(t)
	b, err := New(base64.StdEncoding.EncodeToString([]byte("another-key")))
	require.NoError(t, err)

	assert.NotEqual(t, a.Tag("x"), b.Tag("x"))
	assert.False(t, b.Verify("x", a.Tag("x")))
}

func TestNewRejectsBadKeys(t *testing.T) {
	for _, key := range []string{"", "   ", "%%%not-base64%%%"} {
		_, err := New(key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}
