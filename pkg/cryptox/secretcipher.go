package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	secretKeySize   = 32 // AES-256
	secretNonceSize = 12
	secretTagSize   = 16
)

var (
	// ErrInvalidKey reports key material that does not resolve to the expected size.
	ErrInvalidKey = errors.New("cryptox: invalid key")
	// ErrInvalidToken reports a sealed token that is not in nonce.tag.ciphertext form.
	ErrInvalidToken = errors.New("cryptox: invalid token")
	// ErrDecrypt reports an authentication failure while opening a sealed token.
	ErrDecrypt = errors.New("cryptox: decryption failed")
)

// ConfigError is returned when a configured secret cannot be used. It is
// always fatal: callers must not fall back to a default key.
type ConfigError struct {
	Setting string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %v", e.Setting, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// SecretCipher seals provider tokens at rest with AES-256-GCM.
type SecretCipher struct {
	aead cipher.AEAD
}

// NewSecretCipher builds a cipher from a configured secret. The secret is
// either 64 hex characters or base64 (standard or URL alphabet) that decodes
// to exactly 32 bytes.
func NewSecretCipher(secret string) (*SecretCipher, error) {
	key, err := ResolveKey(secret, secretKeySize)
	if err != nil {
		return nil, &ConfigError{Setting: "ENCRYPTION_KEY", Err: err}
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &SecretCipher{aead: gcm}, nil
}

// Encrypt seals plaintext under a fresh random nonce. The output format is
// base64url(nonce) "." base64url(tag) "." base64url(ciphertext).
func (c *SecretCipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, secretNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// gcm.Seal returns ciphertext with the tag appended
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	ciphertext, tag := sealed[:len(sealed)-secretTagSize], sealed[len(sealed)-secretTagSize:]

	enc := base64.RawURLEncoding
	return enc.EncodeToString(nonce) + "." + enc.EncodeToString(tag) + "." + enc.EncodeToString(ciphertext), nil
}

// Decrypt opens a token produced by Encrypt. A token with the wrong number of
// fields or malformed encoding yields ErrInvalidToken; an authentication
// failure yields ErrDecrypt.
func (c *SecretCipher) Decrypt(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", ErrInvalidToken
	}

	enc := base64.RawURLEncoding
	nonce, err := enc.DecodeString(parts[0])
	if err != nil || len(nonce) != secretNonceSize {
		return "", ErrInvalidToken
	}
	tag, err := enc.DecodeString(parts[1])
	if err != nil || len(tag) != secretTagSize {
		return "", ErrInvalidToken
	}
	ciphertext, err := enc.DecodeString(parts[2])
	if err != nil {
		return "", ErrInvalidToken
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	return string(plaintext), nil
}

// ResolveKey decodes key material of the given size from hex or base64.
// Hex is tried first when the length matches exactly.
func ResolveKey(secret string, size int) ([]byte, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidKey)
	}

	if len(secret) == size*2 {
		if key, err := hex.DecodeString(secret); err == nil {
			return key, nil
		}
	}

	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		key, err := enc.DecodeString(secret)
		if err == nil && len(key) == size {
			return key, nil
		}
	}

	return nil, fmt.Errorf("%w: want %d bytes as hex or base64", ErrInvalidKey, size)
}
