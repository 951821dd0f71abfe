// Package security hashes and verifies account passwords with Argon2id.
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/argon2"

	"github.com/rentease/rentease-backend/pkg/config"
)

const MinPasswordLength = 8

// ErrInvalidHash signals a malformed Argon2id hash string.
var ErrInvalidHash = errors.New("invalid argon2id hash")

var b64 = base64.RawStdEncoding

// ArgonParams are the cost settings stored alongside every hash.
type ArgonParams struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// weakerThan reports whether p costs less than want on any axis that matters for rehashing.
func (p ArgonParams) weakerThan(want ArgonParams) bool {
	return p.Memory < want.Memory || p.Time < want.Time || p.KeyLen < want.KeyLen
}

type argonHash struct {
	params ArgonParams
	salt   []byte
	key    []byte
}

// String renders the PHC form: $argon2id$v=19$m=..,t=..,p=..$salt$key.
func (h argonHash) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Time, h.params.Parallelism,
		b64.EncodeToString(h.salt), b64.EncodeToString(h.key))
}

func derive(password string, salt []byte, p ArgonParams) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
}

// HashPassword returns a formatted Argon2id hash for the provided password.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	params := paramsFromConfig(cfg)
	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("read salt: %w", err)
	}
	return argonHash{params: params, salt: salt, key: derive(password, salt, params)}.String(), nil
}

// VerifyPassword compares password against an encoded hash in constant time.
func VerifyPassword(password, encoded string) (bool, error) {
	h, err := parseHash(encoded)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(h.key, derive(password, h.salt, h.params)) == 1, nil
}

// NeedsRehash reports whether the stored hash was produced with weaker parameters than configured.
func NeedsRehash(encoded string, cfg config.PasswordConfig) bool {
	h, err := parseHash(encoded)
	if err != nil {
		return true
	}
	return h.params.weakerThan(paramsFromConfig(cfg))
}

// CheckStrength rejects passwords that are too short or entirely numeric.
func CheckStrength(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		return errors.New("password cannot be entirely numeric")
	}
	return nil
}

func parseHash(encoded string) (argonHash, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return argonHash{}, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return argonHash{}, ErrInvalidHash
	}
	var h argonHash
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &h.params.Memory, &h.params.Time, &h.params.Parallelism); err != nil {
		return argonHash{}, ErrInvalidHash
	}

	var err error
	if h.salt, err = b64.DecodeString(fields[4]); err != nil {
		return argonHash{}, ErrInvalidHash
	}
	if h.key, err = b64.DecodeString(fields[5]); err != nil || len(h.key) == 0 {
		return argonHash{}, ErrInvalidHash
	}
	h.params.SaltLen = uint32(len(h.salt))
	h.params.KeyLen = uint32(len(h.key))
	return h, nil
}

func paramsFromConfig(cfg config.PasswordConfig) ArgonParams {
	return ArgonParams{
		Memory:      uint32(clamp(cfg.ArgonMemoryKB, 8, 512*1024)),
		Time:        uint32(clamp(cfg.ArgonTime, 1, 10)),
		Parallelism: uint8(clamp(cfg.ArgonParallelism, 1, 255)),
		SaltLen:     uint32(clamp(cfg.ArgonSaltLen, 8, 64)),
		KeyLen:      uint32(clamp(cfg.ArgonKeyLen, 16, 64)),
	}
}

func clamp(value, lo, hi int) int {
	return min(max(value, lo), hi)
}
