package encryption

import "context"

// Kind is the discriminator persisted with every sealed record. Decryption dispatches on
// it, never on the backend currently configured.
type Kind string

const (
	// KindRemote marks ciphertext produced by the remote envelope-encryption service.
	KindRemote Kind = "kms"
	// KindLocal marks ciphertext produced by the local AEAD cipher.
	KindLocal Kind = "local"
)

// Sealed is the output of a backend. Nonce and Tag are empty for remote ciphertext,
// which carries its own envelope.
type Sealed struct {
	Kind       Kind
	Ciphertext []byte
	Nonce      []byte
	Tag        []byte
}

// Backend performs authenticated encryption of opaque byte strings.
type Backend interface {
	// Kind identifies the backend in persisted records.
	Kind() Kind

	// Encrypt seals plaintext. The caller keeps ownership of plaintext.
	Encrypt(ctx context.Context, plaintext []byte) (*Sealed, error)

	// Decrypt opens sealed data and fails closed: on any integrity mismatch it returns an
	// error and no output.
	Decrypt(ctx context.Context, sealed *Sealed) ([]byte, error)
}
