package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2idParams defines the tuning parameters for Argon2id hashing.
type Argon2idParams struct {
	Time       uint32
	Memory     uint32
	Threads    uint8
	KeyLength  uint32
	SaltLength uint32
}

// DefaultParams are the interactive-login settings recommended by RFC 9106.
var DefaultParams = Argon2idParams{
	Time:       1,
	Memory:     64 * 1024,
	Threads:    4,
	KeyLength:  32,
	SaltLength: 16,
}

// Hasher implements storefront.PasswordHasher with Argon2id.
type Hasher struct {
	params Argon2idParams
}

func NewHasher(params Argon2idParams) *Hasher {
	if params.Time == 0 {
		params.Time = DefaultParams.Time
	}
	if params.Memory == 0 {
		params.Memory = DefaultParams.Memory
	}
	if params.Threads == 0 {
		params.Threads = DefaultParams.Threads
	}
	if params.KeyLength == 0 {
		params.KeyLength = DefaultParams.KeyLength
	}
	if params.SaltLength == 0 {
		params.SaltLength = DefaultParams.SaltLength
	}
	return &Hasher{params: params}
}

func (h *Hasher) Hash(password string) (string, error) {
	p := h.params
	salt := make([]byte, int(p.SaltLength))
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Threads, p.KeyLength)
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	return fmt.Sprintf("argon2id$%d$%d$%d$%s$%s", p.Time, p.Memory, p.Threads, b64Salt, b64Hash), nil
}

// Verify compares password against an encoded hash in constant time. The
// parameters stored in the hash are used, not the Hasher's.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	decoded, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}
	computed := argon2.IDKey([]byte(password), decoded.salt, decoded.params.Time, decoded.params.Memory, decoded.params.Threads, uint32(len(decoded.hash)))
	return subtle.ConstantTimeCompare(computed, decoded.hash) == 1, nil
}

type decodedHash struct {
	params Argon2idParams
	salt   []byte
	hash   []byte
}

func decodeHash(encoded string) (decodedHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return decodedHash{}, errors.New("invalid hash format")
	}
	if parts[0] != "argon2id" {
		return decodedHash{}, fmt.Errorf("unsupported hash algorithm: %s", parts[0])
	}

	var nums [3]uint32
	for i, name := range []string{"time", "memory", "threads"} {
		v, err := strconv.ParseUint(parts[i+1], 10, 32)
		if err != nil {
			return decodedHash{}, fmt.Errorf("invalid %s parameter: %w", name, err)
		}
		nums[i] = uint32(v)
	}
	if nums[2] == 0 || nums[2] > 255 {
		return decodedHash{}, errors.New("invalid thread count: must be between 1 and 255")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return decodedHash{}, fmt.Errorf("decode salt: %w", err)
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return decodedHash{}, fmt.Errorf("decode hash: %w", err)
	}

	return decodedHash{
		params: Argon2idParams{Time: nums[0], Memory: nums[1], Threads: uint8(nums[2])},
		salt:   salt,
		hash:   hash,
	}, nil
}
