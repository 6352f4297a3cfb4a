package keyring

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// sealedPrefix marks a stored value as AES-GCM ciphertext.
const sealedPrefix = "sealed:v1:"

var (
	ErrUnsealFailed = errors.New("failed to unseal value")
	ErrSealedFormat = errors.New("malformed sealed value")
)

// sealer encrypts secrets with a key bound to the current user and host, so a
// copied settings database is useless elsewhere.
type sealer struct {
	aead cipher.AEAD
}

func newSealer(key []byte) (*sealer, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &sealer{aead: aead}, nil
}

func (s *sealer) seal(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(out), nil
}

// unseal reverses seal. Values without the prefix were stored in clear and
// are returned unchanged.
func (s *sealer) unseal(stored string) (string, error) {
	if !isSealed(stored) {
		return stored, nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSealedFormat, err)
	}
	n := s.aead.NonceSize()
	if len(raw) < n {
		return "", ErrSealedFormat
	}
	plain, err := s.aead.Open(nil, raw[:n], raw[n:], nil)
	if err != nil {
		return "", ErrUnsealFailed
	}
	return string(plain), nil
}

func isSealed(v string) bool {
	return strings.HasPrefix(v, sealedPrefix)
}

func machineKey() []byte {
	var b strings.Builder
	host, _ := os.Hostname()
	home, _ := os.UserHomeDir()
	b.WriteString(host)
	b.WriteString(home)
	b.WriteString(runtime.GOOS + "/" + runtime.GOARCH)
	fmt.Fprintf(&b, "uid:%d", os.Getuid())
	b.WriteString(os.Getenv("USER"))
	b.WriteString("sunolab-keyring-v1")
	sum := sha256.Sum256([]byte(b.String()))
	return sum[:]
}

// Mask hides all but the edges of a secret for display.
func Mask(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
