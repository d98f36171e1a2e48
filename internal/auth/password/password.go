package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/smallbiznis/taskflow/internal/config"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

const (
	argonTime    uint32 = 1
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 4
	argonKeyLen  uint32 = 32
	argonSaltLen        = 16
)

var (
	ErrUnsupportedAlgorithm = errors.New("unsupported password hash algorithm")
	ErrDummyHashMismatch    = errors.New("dummy password hash does not match the configured algorithm and cost")
)

// Hasher hashes new passwords with the configured algorithm and cost and
// verifies hashes of either supported algorithm.
type Hasher struct {
	algorithm string
	cost      int
	dummy     string
}

func NewFromConfig(cfg config.Config) (*Hasher, error) {
	return New(cfg.Auth.PasswordHashAlgorithm, cfg.Auth.PasswordHashCost, cfg.Auth.DummyPasswordHash)
}

// New builds a Hasher. cost is the argon2id time parameter or the bcrypt
// cost; zero selects the default. When dummyHash is empty one is generated
// from a random password, otherwise it must be a well-formed hash produced
// with the same algorithm and cost so verifying it costs as much as a real
// verification.
func New(algorithm string, cost int, dummyHash string) (*Hasher, error) {
	h := &Hasher{algorithm: strings.ToLower(strings.TrimSpace(algorithm)), cost: cost}
	if h.algorithm == "" {
		h.algorithm = AlgorithmArgon2id
	}

	switch h.algorithm {
	case AlgorithmArgon2id:
		if h.cost <= 0 {
			h.cost = int(argonTime)
		}
	case AlgorithmBcrypt:
		if h.cost <= 0 {
			h.cost = bcrypt.DefaultCost
		}
		if h.cost < bcrypt.MinCost || h.cost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost %d out of range", h.cost)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, algorithm)
	}

	dummyHash = strings.TrimSpace(dummyHash)
	if dummyHash == "" {
		seed := make([]byte, 16)
		if _, err := rand.Read(seed); err != nil {
			return nil, err
		}
		generated, err := h.Hash(hex.EncodeToString(seed))
		if err != nil {
			return nil, err
		}
		dummyHash = generated
	} else if !h.matchesParams(dummyHash) {
		return nil, ErrDummyHashMismatch
	}
	h.dummy = dummyHash

	return h, nil
}

func (h *Hasher) DummyHash() string {
	return h.dummy
}

// Hash returns a self-describing hash: PHC format for argon2id, modular
// crypt format for bcrypt.
func (h *Hasher) Hash(password string) (string, error) {
	switch h.algorithm {
	case AlgorithmBcrypt:
		out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
		if err != nil {
			return "", err
		}
		return string(out), nil
	default:
		return hashArgon2id(password, uint32(h.cost))
	}
}

// Verify checks password against encoded, picking the algorithm from the
// hash prefix.
func (h *Hasher) Verify(password, encoded string) bool {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return verifyArgon2id(password, encoded)
	case isBcrypt(encoded):
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)) == nil
	default:
		return false
	}
}

func (h *Hasher) matchesParams(encoded string) bool {
	switch h.algorithm {
	case AlgorithmBcrypt:
		if !isBcrypt(encoded) {
			return false
		}
		cost, err := bcrypt.Cost([]byte(encoded))
		if err != nil || cost != h.cost {
			return false
		}
		err = bcrypt.CompareHashAndPassword([]byte(encoded), []byte(""))
		return errors.Is(err, bcrypt.ErrMismatchedHashAndPassword)
	default:
		params, _, hash, ok := decodeArgon2id(encoded)
		return ok &&
			params.time == uint32(h.cost) &&
			params.memory == argonMemory &&
			params.threads == argonThreads &&
			len(hash) == int(argonKeyLen)
	}
}

func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") || strings.HasPrefix(encoded, "$2b$") || strings.HasPrefix(encoded, "$2y$")
}

func hashArgon2id(password string, timeCost uint32) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, timeCost, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemory,
		timeCost,
		argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
}

func verifyArgon2id(password, encoded string) bool {
	params, salt, hash, ok := decodeArgon2id(encoded)
	if !ok {
		return false
	}

	check := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(hash)))
	return subtle.ConstantTimeCompare(hash, check) == 1
}

func decodeArgon2id(encoded string) (argonParams, []byte, []byte, bool) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" || parts[2] != "v=19" {
		return argonParams{}, nil, nil, false
	}

	params, ok := parseArgonParams(parts[3])
	if !ok {
		return argonParams{}, nil, nil, false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return argonParams{}, nil, nil, false
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return argonParams{}, nil, nil, false
	}
	return params, salt, hash, true
}

func parseArgonParams(raw string) (argonParams, bool) {
	fields := strings.Split(raw, ",")
	if len(fields) != 3 {
		return argonParams{}, false
	}

	values := make([]uint64, 3)
	for i, prefix := range []string{"m=", "t=", "p="} {
		v, ok := strings.CutPrefix(fields[i], prefix)
		if !ok {
			return argonParams{}, false
		}
		bits := 32
		if prefix == "p=" {
			bits = 8
		}
		n, err := strconv.ParseUint(v, 10, bits)
		if err != nil || n == 0 {
			return argonParams{}, false
		}
		values[i] = n
	}

	return argonParams{
		memory:  uint32(values[0]),
		time:    uint32(values[1]),
		threads: uint8(values[2]),
	}, true
}
