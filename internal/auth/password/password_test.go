package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestArgon2idRoundTrip(t *testing.T) {
	h, err := New(AlgorithmArgon2id, 0, "")
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}

	encoded, err := h.Hash("Passw0rd!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$") {
		t.Fatalf("unexpected encoding %q", encoded)
	}
	if !h.Verify("Passw0rd!", encoded) {
		t.Fatal("expected password to verify")
	}
	if h.Verify("passw0rd!", encoded) {
		t.Fatal("expected wrong password to fail")
	}

	again, err := h.Hash("Passw0rd!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if again == encoded {
		t.Fatal("expected distinct salts")
	}
}

func TestBcryptHonoursCost(t *testing.T) {
	h, err := New(AlgorithmBcrypt, bcrypt.MinCost, "")
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}

	encoded, err := h.Hash("Passw0rd!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(encoded))
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	if cost != bcrypt.MinCost {
		t.Fatalf("expected cost %d, got %d", bcrypt.MinCost, cost)
	}
	if !h.Verify("Passw0rd!", encoded) {
		t.Fatal("expected password to verify")
	}
}

func TestVerifyAcceptsEitherAlgorithm(t *testing.T) {
	argon, err := New(AlgorithmArgon2id, 0, "")
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	bc, err := New(AlgorithmBcrypt, bcrypt.MinCost, "")
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}

	encoded, err := bc.Hash("Secret1@")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !argon.Verify("Secret1@", encoded) {
		t.Fatal("argon hasher should verify bcrypt hashes")
	}
}

func TestVerifyRejectsMalformedHashes(t *testing.T) {
	h, err := New(AlgorithmArgon2id, 0, "")
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	for _, encoded := range []string{
		"",
		"plain",
		"$argon2id$v=19$m=0,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$!!$aGFzaA",
	} {
		if h.Verify("anything", encoded) {
			t.Fatalf("expected %q to be rejected", encoded)
		}
	}
}

func TestDummyHash(t *testing.T) {
	h, err := New(AlgorithmArgon2id, 0, "")
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	if !strings.HasPrefix(h.DummyHash(), "$argon2id$") {
		t.Fatalf("expected generated argon2id dummy hash, got %q", h.DummyHash())
	}
	if h.Verify("", h.DummyHash()) {
		t.Fatal("dummy hash must not verify an empty password")
	}

	reused, err := New(AlgorithmArgon2id, 0, h.DummyHash())
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	if reused.DummyHash() != h.DummyHash() {
		t.Fatal("expected configured dummy hash to be kept")
	}
}

func TestNewRejectsMismatchedDummyHash(t *testing.T) {
	argonCost2, err := New(AlgorithmArgon2id, 2, "")
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	bcryptMin, err := New(AlgorithmBcrypt, bcrypt.MinCost, "")
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}

	cases := []struct {
		name      string
		algorithm string
		cost      int
		dummy     string
	}{
		{"bcrypt dummy under argon2id", AlgorithmArgon2id, 0, bcryptMin.DummyHash()},
		{"truncated bcrypt", AlgorithmArgon2id, 0, "$2a$04$abc"},
		{"argon2id with other time cost", AlgorithmArgon2id, 0, argonCost2.DummyHash()},
		{"argon2id with low memory", AlgorithmArgon2id, 0, "$argon2id$v=19$m=8,t=1,p=4$c2FsdHNhbHRzYWx0c2FsdA$aGFzaGhhc2hoYXNoaGFzaGhhc2hoYXNoaGFzaGhhc2g"},
		{"malformed argon2id", AlgorithmArgon2id, 0, "$argon2id$v=19$m=65536,t=1,p=4$!!$aGFzaA"},
		{"plain text", AlgorithmArgon2id, 0, "not-a-hash"},
		{"argon2id dummy under bcrypt", AlgorithmBcrypt, bcrypt.MinCost, argonCost2.DummyHash()},
		{"bcrypt with other cost", AlgorithmBcrypt, bcrypt.MinCost + 1, bcryptMin.DummyHash()},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.algorithm, tc.cost, tc.dummy)
			require.ErrorIs(t, err, ErrDummyHashMismatch)
		})
	}
}

func TestNewKeepsMatchingBcryptDummyHash(t *testing.T) {
	source, err := New(AlgorithmBcrypt, bcrypt.MinCost, "")
	require.NoError(t, err)

	h, err := New(AlgorithmBcrypt, bcrypt.MinCost, source.DummyHash())
	require.NoError(t, err)
	require.Equal(t, source.DummyHash(), h.DummyHash())
}

func TestNewRejectsUnknownAlgorithm(t *testing.T) {
	if _, err := New("md5", 0, ""); err == nil {
		t.Fatal("expected error")
	}
	if _, err := New(AlgorithmBcrypt, 99, ""); err == nil {
		t.Fatal("expected cost range error")
	}
}
