package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrInvalidKeyHash is returned when a stored admin key hash cannot be
	// parsed.
	ErrInvalidKeyHash = errors.New("invalid admin key hash format")
	// ErrIncompatibleKeyVersion is returned when a stored hash was created
	// by an incompatible argon2 version.
	ErrIncompatibleKeyVersion = errors.New("incompatible admin key hash version")
)

// Argon2idParams tunes the admin key hashing cost.
type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2idParams are the hashing parameters applied to organizer admin
// keys at meeting creation.
var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// GenerateAdminKey produces a fresh organizer admin key. The plaintext is
// returned to the creator exactly once; only its hash is persisted.
func GenerateAdminKey() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(fmt.Sprintf("application: read random: %v", err))
	}
	return hex.EncodeToString(buf)
}

// HashAdminKey derives the storable argon2id hash of an admin key.
func HashAdminKey(key string, params Argon2idParams) (string, error) {
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(key), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	// Format is $argon2id$v=19$m=...,t=...,p=...$salt$hash
	format := "$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s"
	return fmt.Sprintf(format, argon2.Version, params.Memory, params.Iterations, params.Parallelism, b64Salt, b64Hash), nil
}

// VerifyAdminKey checks a presented admin key against the stored hash,
// returning ErrUnauthorized on mismatch.
func VerifyAdminKey(hashedKey, key string) error {
	parts := strings.Split(hashedKey, "$")
	if len(parts) != 6 {
		return ErrInvalidKeyHash
	}

	if parts[1] != "argon2id" {
		return ErrInvalidKeyHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return err
	}
	if version != argon2.Version {
		return ErrIncompatibleKeyVersion
	}

	var params Argon2idParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return err
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return err
	}
	params.SaltLength = uint32(len(salt))

	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return err
	}
	params.KeyLength = uint32(len(decodedHash))

	comparisonHash := argon2.IDKey([]byte(key), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	if subtle.ConstantTimeCompare(decodedHash, comparisonHash) == 1 {
		return nil
	}

	return ErrUnauthorized
}
