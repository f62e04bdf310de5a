package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"unicode/utf8"
)

// Layout of a Fernet token after base64url decoding:
//
//	version (1) | timestamp (8) | iv (16) | ciphertext (n*16) | hmac-sha256 (32)
const (
	fernetVersion    = 0x80
	fernetHeaderSize = 1 + 8 + 16
	fernetTagSize    = sha256.Size
	fernetMinSize    = fernetHeaderSize + fernetTagSize // 57
	fernetKeySize    = 32
)

// FernetDecoder verifies and decrypts tokens written by the provisioner's
// Fernet implementation. It never encrypts.
type FernetDecoder struct {
	signingKey    []byte
	encryptionKey []byte
}

// NewFernetDecoder splits a 32-byte combined key (base64 or hex encoded) into
// its signing and encryption halves.
func NewFernetDecoder(secret string) (*FernetDecoder, error) {
	key, err := ResolveKey(secret, fernetKeySize)
	if err != nil {
		return nil, &ConfigError{Setting: "BOT_SECRET_KEY", Err: err}
	}
	return &FernetDecoder{
		signingKey:    key[:16],
		encryptionKey: key[16:],
	}, nil
}

// Decode returns the plaintext and true when token is a well formed Fernet
// token signed with this key. Every structural or cryptographic failure
// reports false.
func (d *FernetDecoder) Decode(token string) (string, bool) {
	raw, ok := decodeFernetBase64(token)
	if !ok || len(raw) < fernetMinSize {
		return "", false
	}

	signed, tag := raw[:len(raw)-fernetTagSize], raw[len(raw)-fernetTagSize:]

	mac := hmac.New(sha256.New, d.signingKey)
	mac.Write(signed)
	if !hmac.Equal(mac.Sum(nil), tag) {
		return "", false
	}

	if signed[0] != fernetVersion {
		return "", false
	}

	iv := signed[9:fernetHeaderSize]
	ciphertext := signed[fernetHeaderSize:]
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", false
	}

	block, err := aes.NewCipher(d.encryptionKey)
	if err != nil {
		return "", false
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	plaintext, ok = pkcs7Unpad(plaintext)
	if !ok || !utf8.Valid(plaintext) {
		return "", false
	}

	return string(plaintext), true
}

// DecodeOrPlain returns the decoded value for a valid token and the input
// unchanged otherwise, so values stored before encryption was introduced keep
// working.
func (d *FernetDecoder) DecodeOrPlain(value string) string {
	if plaintext, ok := d.Decode(value); ok {
		return plaintext
	}
	return value
}

func decodeFernetBase64(token string) ([]byte, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, false
	}
	if raw, err := base64.URLEncoding.DecodeString(token); err == nil {
		return raw, true
	}
	if raw, err := base64.RawURLEncoding.DecodeString(token); err == nil {
		return raw, true
	}
	return nil, false
}

func pkcs7Unpad(b []byte) ([]byte, bool) {
	if len(b) == 0 {
		return nil, false
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return nil, false
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, false
		}
	}
	return b[:len(b)-n], true
}
