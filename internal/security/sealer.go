package security

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrEmptySecret        = errors.New("security: secret must not be empty")
	ErrInvalidSealedValue = errors.New("security: sealed value is malformed or was sealed with another secret")
)

// sealVersion prefixes every sealed value so the layout can change later.
const sealVersion byte = 1

// Argon2idParams controls key derivation from the configured secret.
type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
}

var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
}

// Sealer encrypts small values with XChaCha20-Poly1305 under a key derived
// from a secret with argon2id. Every Seal uses a fresh salt and nonce.
//
// Layout: version(1) | salt | nonce | ciphertext+tag
type Sealer struct {
	secret []byte
	params Argon2idParams
	random io.Reader
}

// NewSealer returns a Sealer using DefaultArgon2idParams.
func NewSealer(secret string) (*Sealer, error) {
	return NewSealerWithParams(secret, DefaultArgon2idParams)
}

// NewSealerWithParams returns a Sealer with explicit key derivation parameters.
func NewSealerWithParams(secret string, params Argon2idParams) (*Sealer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	if params.SaltLength == 0 {
		params.SaltLength = DefaultArgon2idParams.SaltLength
	}
	return &Sealer{secret: []byte(secret), params: params, random: rand.Reader}, nil
}

func (s *Sealer) deriveKey(salt []byte) []byte {
	return argon2.IDKey(s.secret, salt, s.params.Iterations, s.params.Memory, s.params.Parallelism, chacha20poly1305.KeySize)
}

// Seal encrypts plaintext.
func (s *Sealer) Seal(plaintext []byte) ([]byte, error) {
	salt := make([]byte, s.params.SaltLength)
	if _, err := io.ReadFull(s.random, salt); err != nil {
		return nil, fmt.Errorf("security: read salt: %w", err)
	}
	aead, err := chacha20poly1305.NewX(s.deriveKey(salt))
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(s.random, nonce); err != nil {
		return nil, fmt.Errorf("security: read nonce: %w", err)
	}

	out := make([]byte, 0, 1+len(salt)+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, sealVersion)
	out = append(out, salt...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, []byte{sealVersion}), nil
}

// Open decrypts a value produced by Seal with the same secret.
func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	saltLen := int(s.params.SaltLength)
	header := 1 + saltLen + chacha20poly1305.NonceSizeX
	if len(sealed) < header+chacha20poly1305.Overhead || sealed[0] != sealVersion {
		return nil, ErrInvalidSealedValue
	}
	salt := sealed[1 : 1+saltLen]
	nonce := sealed[1+saltLen : header]

	aead, err := chacha20poly1305.NewX(s.deriveKey(salt))
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, sealed[header:], []byte{sealVersion})
	if err != nil {
		return nil, ErrInvalidSealedValue
	}
	return plaintext, nil
}
