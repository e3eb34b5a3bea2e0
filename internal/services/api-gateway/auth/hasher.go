package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// SecretHasher covers the two secret families the gateway compares: login
// passwords (bcrypt) and refresh-token proofs (argon2id). The families are
// not interchangeable: the encodings differ, so verifying a secret against
// a hash from the other family always comes back false.
type SecretHasher struct {
	bcryptCost int
	argon      argonParams
}

type argonParams struct {
	memory      uint32
	timeCost    uint32
	parallelism uint8
	saltLen     uint32
	keyLen      uint32
}

func NewSecretHasher() *SecretHasher {
	return &SecretHasher{
		bcryptCost: bcrypt.DefaultCost,
		argon: argonParams{
			memory:      64 * 1024,
			timeCost:    1,
			parallelism: 4,
			saltLen:     16,
			keyLen:      32,
		},
	}
}

func (h *SecretHasher) HashPassword(raw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(raw), h.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// VerifyPassword reports whether raw matches the stored bcrypt hash.
// Malformed hashes verify as false; this never errors outward.
func (h *SecretHasher) VerifyPassword(raw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}

// HashRefreshSecret hashes a refresh-token proof with argon2id and returns it
// PHC-encoded, parameters and salt included.
func (h *SecretHasher) HashRefreshSecret(raw string) (string, error) {
	salt := make([]byte, h.argon.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("refresh salt: %w", err)
	}

	key := argon2.IDKey([]byte(raw), salt, h.argon.timeCost, h.argon.memory, h.argon.parallelism, h.argon.keyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.argon.memory, h.argon.timeCost, h.argon.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyRefreshSecret recomputes argon2id under the encoded parameters and
// compares in constant time. Malformed or foreign-family hashes are false.
func (h *SecretHasher) VerifyRefreshSecret(hash, raw string) bool {
	p, salt, want, ok := parseArgon2Hash(hash)
	if !ok {
		return false
	}
	got := argon2.IDKey([]byte(raw), salt, p.timeCost, p.memory, p.parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

func parseArgon2Hash(encoded string) (p argonParams, salt, key []byte, ok bool) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return argonParams{}, nil, nil, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return argonParams{}, nil, nil, false
	}

	var par uint
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.timeCost, &par); err != nil {
		return argonParams{}, nil, nil, false
	}
	if par == 0 || par > 255 {
		return argonParams{}, nil, nil, false
	}
	p.parallelism = uint8(par)

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return argonParams{}, nil, nil, false
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return argonParams{}, nil, nil, false
	}
	return p, salt, key, true
}
