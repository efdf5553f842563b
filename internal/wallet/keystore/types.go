// Package keystore converts vault keys to and from Ethereum keystore v3 JSON, the
// portable format wallets use for backup and import.
package keystore

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/keystore"
)

// Service encrypts and decrypts keystore documents.
type Service interface {
	// Export wraps the raw private key in a passphrase protected keystore document.
	Export(ctx context.Context, privateKey []byte, passphrase string) ([]byte, error)
	// Import returns the raw private key held by keyJSON. Callers zero it after use.
	Import(ctx context.Context, keyJSON []byte, passphrase string) ([]byte, error)
}

// ScryptParams defines scrypt KDF cost parameters.
type ScryptParams struct {
	N int // CPU/memory cost parameter
	P int // Parallelization parameter
}

// DefaultScryptParams returns the standard keystore v3 cost (2^18, 1).
func DefaultScryptParams() ScryptParams {
	return ScryptParams{N: keystore.StandardScryptN, P: keystore.StandardScryptP}
}

// LightScryptParams returns the reduced cost used for tests and constrained hosts.
func LightScryptParams() ScryptParams {
	return ScryptParams{N: keystore.LightScryptN, P: keystore.LightScryptP}
}
