package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrDecryptionFailed marks ciphertext that is malformed, truncated, or was
// produced under a different key. It is fatal for the single record being
// read, never for the process.
var ErrDecryptionFailed = errors.New("decryption failed")

// Codec protects sensitive values with reversible encryption plus a
// deterministic salted search hash. Encryption uses a random nonce per call,
// so ciphertexts differ between calls while decryption always recovers the
// original plaintext; the search hash is a pure function of plaintext + salt
// and is stable across process restarts.
type Codec struct {
	key  []byte
	salt []byte
}

// NewCodec builds a codec from a provisioned base64 key and hash salt.
// Keys are provisioned once (cmd/keygen) and supplied via configuration;
// the codec never generates key material at runtime.
func NewCodec(encodedKey string, salt string) (*Codec, error) {
	if encodedKey == "" {
		return nil, errors.New("encryption key is required")
	}
	if salt == "" {
		return nil, errors.New("hash salt is required")
	}
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &Codec{key: key, salt: []byte(salt)}, nil
}

// Encrypt seals plaintext as base64(nonce || ciphertext).
func (c *Codec) Encrypt(plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("build aead: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Any tampering, truncation, or key mismatch
// surfaces as ErrDecryptionFailed.
func (c *Codec) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", fmt.Errorf("build aead: %w", err)
	}
	if len(raw) < aead.NonceSize() {
		return "", ErrDecryptionFailed
	}
	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// HashForSearch derives the deterministic lookup hash for a secret value.
// Equality search works without ever comparing or storing plaintext.
func (c *Codec) HashForSearch(plaintext string) string {
	sum := sha256.Sum256(append([]byte(plaintext), c.salt...))
	return hex.EncodeToString(sum[:])
}

// EncryptAndHash produces both stored representations of a secret value.
func (c *Codec) EncryptAndHash(plaintext string) (string, string, error) {
	ciphertext, err := c.Encrypt(plaintext)
	if err != nil {
		return "", "", err
	}
	return ciphertext, c.HashForSearch(plaintext), nil
}

// GenerateKey returns a fresh base64 key for initial provisioning only.
func GenerateKey() (string, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
