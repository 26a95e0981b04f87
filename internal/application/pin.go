package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidPinHash         = errors.New("invalid PIN hash format")
	ErrIncompatiblePinVersion = errors.New("incompatible PIN hash version")
)

var pinPattern = regexp.MustCompile(`^[0-9]{4}$`)

// ValidPin reports whether pin is exactly four ASCII digits.
func ValidPin(pin string) bool {
	return pinPattern.MatchString(pin)
}

type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2idParams follows the OWASP minimum for argon2id. A four digit
// PIN has little entropy, so the per-member salt and the memory cost carry
// the protection.
var DefaultArgon2idParams = Argon2idParams{
	Memory:      19 * 1024,
	Iterations:  2,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// PinHasher hashes and verifies member PINs.
type PinHasher struct {
	params Argon2idParams
}

// NewPinHasher constructs a hasher. Zero fields fall back to DefaultArgon2idParams.
func NewPinHasher(params Argon2idParams) PinHasher {
	if params.Memory == 0 {
		params.Memory = DefaultArgon2idParams.Memory
	}
	if params.Iterations == 0 {
		params.Iterations = DefaultArgon2idParams.Iterations
	}
	if params.Parallelism == 0 {
		params.Parallelism = DefaultArgon2idParams.Parallelism
	}
	if params.SaltLength == 0 {
		params.SaltLength = DefaultArgon2idParams.SaltLength
	}
	if params.KeyLength == 0 {
		params.KeyLength = DefaultArgon2idParams.KeyLength
	}
	return PinHasher{params: params}
}

// Hash returns a fresh base64 salt and the encoded hash of pin under that salt.
// The hash string carries its own parameters: $argon2id$v=19$m=...,t=...,p=...$hash
func (h PinHasher) Hash(pin string) (salt, hash string, err error) {
	raw := make([]byte, h.params.SaltLength)
	if _, err = rand.Read(raw); err != nil {
		return "", "", err
	}

	key := argon2.IDKey([]byte(pin), raw, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	salt = base64.RawStdEncoding.EncodeToString(raw)
	format := "$argon2id$v=%d$m=%d,t=%d,p=%d$%s"
	hash = fmt.Sprintf(format, argon2.Version, h.params.Memory, h.params.Iterations, h.params.Parallelism, base64.RawStdEncoding.EncodeToString(key))
	return salt, hash, nil
}

// Verify checks pin against a stored salt and hash. A mismatch returns ErrWrongPin.
func (h PinHasher) Verify(pin, salt, hash string) error {
	parts := strings.Split(hash, "$")
	if len(parts) != 5 {
		return ErrInvalidPinHash
	}

	if parts[1] != "argon2id" {
		return ErrInvalidPinHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return ErrInvalidPinHash
	}
	if version != argon2.Version {
		return ErrIncompatiblePinVersion
	}

	var params Argon2idParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.Memory, &params.Iterations, &params.Parallelism); err != nil {
		return ErrInvalidPinHash
	}

	rawSalt, err := base64.RawStdEncoding.DecodeString(salt)
	if err != nil {
		return ErrInvalidPinHash
	}

	decodedHash, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return ErrInvalidPinHash
	}
	params.KeyLength = uint32(len(decodedHash))

	comparisonHash := argon2.IDKey([]byte(pin), rawSalt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	if subtle.ConstantTimeCompare(decodedHash, comparisonHash) == 1 {
		return nil
	}

	return ErrWrongPin
}
