// Package passwords implements one-way salted password hashing. Hashes are
// self-describing strings: the algorithm, its parameters and the salt are
// embedded, so Verify never needs outside configuration and records hashed
// under older settings keep verifying after a parameter change.
package passwords

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Algorithm selects the hash produced by Hash. Verify accepts all of them.
type Algorithm string

const (
	Argon2ID Algorithm = "argon2id"
	Bcrypt   Algorithm = "bcrypt"
)

// ParseAlgorithm validates a configured algorithm name.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case Argon2ID, Bcrypt:
		return Algorithm(s), nil
	default:
		return "", fmt.Errorf("unknown password algorithm %q", s)
	}
}

// Argon2Params are the argon2id cost settings.
type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
	SaltLen uint32
}

// DefaultArgon2Params: 64 MiB, one pass, four lanes.
var DefaultArgon2Params = Argon2Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	KeyLen:  32,
	SaltLen: 16,
}

var errMalformedHash = errors.New("malformed password hash")

// Hasher hashes and verifies passwords. It is safe for concurrent use.
type Hasher struct {
	algorithm  Algorithm
	argon      Argon2Params
	bcryptCost int

	decoyOnce sync.Once
	decoy     string
}

// Option configures a Hasher.
type Option func(*Hasher)

func WithAlgorithm(a Algorithm) Option {
	return func(h *Hasher) { h.algorithm = a }
}

func WithArgon2Params(p Argon2Params) Option {
	return func(h *Hasher) { h.argon = p }
}

func WithBcryptCost(cost int) Option {
	return func(h *Hasher) { h.bcryptCost = cost }
}

// NewHasher returns an argon2id Hasher unless overridden by opts.
func NewHasher(opts ...Option) *Hasher {
	h := &Hasher{
		algorithm:  Argon2ID,
		argon:      DefaultArgon2Params,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Hash returns an encoded hash of password using a fresh random salt.
func (h *Hasher) Hash(password string) (string, error) {
	switch h.algorithm {
	case Argon2ID:
		return h.hashArgon2(password), nil
	case Bcrypt:
		b, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
		if err != nil {
			return "", fmt.Errorf("bcrypt: %w", err)
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("unknown password algorithm %q", h.algorithm)
	}
}

// Verify reports whether password matches encoded. Unknown or malformed
// encodings never match.
func (h *Hasher) Verify(password, encoded string) bool {
	switch {
	case strings.HasPrefix(encoded, "$argon2id$"):
		return verifyArgon2(password, encoded)
	case strings.HasPrefix(encoded, "$2a$"), strings.HasPrefix(encoded, "$2b$"), strings.HasPrefix(encoded, "$2y$"):
		return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)) == nil
	default:
		return false
	}
}

// Decoy returns a valid hash of an unguessable secret. Verifying against it
// costs the same as a real check and always fails; callers use it when the
// account does not exist.
func (h *Hasher) Decoy() string {
	h.decoyOnce.Do(func() {
		secret, err := common.MakeRandHexString(16)
		if err != nil {
			secret = "decoy"
		}
		decoy, err := h.Hash(secret)
		if err != nil {
			decoy = h.hashArgon2(secret)
		}
		h.decoy = decoy
	})
	return h.decoy
}

func (h *Hasher) hashArgon2(password string) string {
	p := h.argon
	salt := common.GenerateRandByteArray(int(p.SaltLen))
	key := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLen)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Time, p.Threads, b64.EncodeToString(salt), b64.EncodeToString(key))
}

func verifyArgon2(password, encoded string) bool {
	p, salt, key, err := decodeArgon2(encoded)
	if err != nil {
		return false
	}
	candidate := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, candidate) == 1
}

// decodeArgon2 parses $argon2id$v=19$m=65536,t=1,p=4$<salt>$<key>.
func decodeArgon2(encoded string) (Argon2Params, []byte, []byte, error) {
	var p Argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, errMalformedHash
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return p, nil, nil, errMalformedHash
	}
	if p.Memory == 0 || p.Time == 0 || p.Threads == 0 {
		return p, nil, nil, errMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, errMalformedHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return p, nil, nil, errMalformedHash
	}
	p.SaltLen = uint32(len(salt))
	p.KeyLen = uint32(len(key))

	return p, salt, key, nil
}
