package encryption

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"

	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/errs"
)

// scrypt parameters for the local key-encryption key. The salt is fixed because the
// derived key must be reproducible from the configured secret alone; per-record
// uniqueness comes from the random GCM nonce.
const (
	scryptN      = 1 << 15
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	nonceLen     = 12
	tagLen       = 16
)

var localSalt = []byte("crypto-vault/local-backend/v1")

// Local encrypts with AES-256-GCM under a key derived from a configured secret.
type Local struct {
	aead cipher.AEAD
}

// NewLocal derives the key-encryption key once. An empty secret leaves the local backend
// unavailable rather than silently using a default.
func NewLocal(secret []byte) (*Local, error) {
	if len(secret) == 0 {
		return nil, errs.New(errs.KindBackendUnavailable, "local encryption secret is not configured")
	}

	key, err := scrypt.Key(secret, localSalt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive key")
	}
	defer clear(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GCM")
	}

	return &Local{aead: aead}, nil
}

// Kind implements Backend.
func (l *Local) Kind() Kind {
	return KindLocal
}

// Encrypt seals plaintext with a fresh random nonce.
func (l *Local) Encrypt(_ context.Context, plaintext []byte) (*Sealed, error) {
	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, errs.Wrap(errs.KindBackendUnavailable, err, "failed to generate nonce")
	}

	out := l.aead.Seal(nil, nonce, plaintext, nil)
	split := len(out) - tagLen

	return &Sealed{
		Kind:       KindLocal,
		Ciphertext: out[:split:split],
		Nonce:      nonce,
		Tag:        out[split:],
	}, nil
}

// Decrypt opens sealed, returning a DecryptionError on any mismatch.
func (l *Local) Decrypt(_ context.Context, sealed *Sealed) ([]byte, error) {
	if sealed == nil || sealed.Kind != KindLocal {
		return nil, errs.New(errs.KindDecryption, "record was not sealed by the local backend")
	}
	if len(sealed.Nonce) != nonceLen || len(sealed.Tag) != tagLen {
		return nil, errs.New(errs.KindDecryption, "malformed nonce or tag")
	}

	buf := make([]byte, 0, len(sealed.Ciphertext)+tagLen)
	buf = append(buf, sealed.Ciphertext...)
	buf = append(buf, sealed.Tag...)

	plaintext, err := l.aead.Open(nil, sealed.Nonce, buf, nil)
	if err != nil {
		// the GCM error carries no detail worth surfacing
		return nil, errs.New(errs.KindDecryption, "authentication failed")
	}

	return plaintext, nil
}
