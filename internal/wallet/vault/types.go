// Package vault stores private keys encrypted at rest and serves decrypted copies
// through a short-lived cache.
package vault

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/encryption"
)

// ErrDuplicate is returned by RecordStore.Put for an existing path.
var ErrDuplicate = errors.New("key record already exists")

// KeyRecord is the persisted form of one key. Records are never updated in place.
type KeyRecord struct {
	Path       string
	OwnerID    string
	Backend    encryption.Kind
	Ciphertext []byte
	Nonce      []byte
	Tag        []byte
	CreatedAt  time.Time
}

// Sealed returns the envelope for the record's backend.
func (r *KeyRecord) Sealed() *encryption.Sealed {
	return &encryption.Sealed{
		Kind:       r.Backend,
		Ciphertext: r.Ciphertext,
		Nonce:      r.Nonce,
		Tag:        r.Tag,
	}
}

// RecordStore persists key records.
type RecordStore interface {
	// Put inserts rec and fails with ErrDuplicate if the path exists.
	Put(ctx context.Context, rec *KeyRecord) error
	// Get returns an errs.ErrNotFound error for unknown paths.
	Get(ctx context.Context, path string) (*KeyRecord, error)
	// Delete returns an errs.ErrNotFound error for unknown paths.
	Delete(ctx context.Context, path string) error
}

// Service is the key vault.
type Service interface {
	// Store encrypts plaintext for ownerID and returns the new key path.
	Store(ctx context.Context, ownerID string, plaintext []byte) (string, error)
	// Retrieve returns a private copy of the plaintext at path. Callers zero it after use.
	Retrieve(ctx context.Context, path string) ([]byte, error)
	// Rotate re-encrypts the key at path under a new path and deletes the old record.
	Rotate(ctx context.Context, path string) (string, error)
	// Forget drops the cached plaintext for path, if any.
	Forget(path string) bool
}
