package test

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/pkg/errors"
)

// FakeKMS is an in-process stand-in for the envelope-encryption service. Ciphertext
// blobs are nonce||AES-GCM(plaintext) under a random per-instance master key.
type FakeKMS struct {
	mu sync.Mutex

	aead cipher.AEAD

	// EncryptErr / DecryptErr, when set, are returned by every call.
	EncryptErr error
	DecryptErr error
	// EmptyResponse makes Encrypt succeed with no ciphertext.
	EmptyResponse bool

	EncryptCalls int
	DecryptCalls int
}

// NewFakeKMS returns a working fake service.
func NewFakeKMS() *FakeKMS {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		panic(err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		panic(err)
	}

	return &FakeKMS{aead: aead}
}

// Encrypt implements encryption.KMSAPI.
func (f *FakeKMS) Encrypt(_ context.Context, in *kms.EncryptInput, _ ...func(*kms.Options)) (*kms.EncryptOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.EncryptCalls++
	if f.EncryptErr != nil {
		return nil, f.EncryptErr
	}
	if f.EmptyResponse {
		return &kms.EncryptOutput{}, nil
	}

	nonce := make([]byte, f.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, errors.Wrap(err, "nonce")
	}
	blob := f.aead.Seal(nonce, nonce, in.Plaintext, nil)

	return &kms.EncryptOutput{CiphertextBlob: blob, KeyId: in.KeyId}, nil
}

// Decrypt implements encryption.KMSAPI.
func (f *FakeKMS) Decrypt(_ context.Context, in *kms.DecryptInput, _ ...func(*kms.Options)) (*kms.DecryptOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.DecryptCalls++
	if f.DecryptErr != nil {
		return nil, f.DecryptErr
	}

	n := f.aead.NonceSize()
	if len(in.CiphertextBlob) < n {
		return nil, &kmstypes.InvalidCiphertextException{Message: aws.String("ciphertext too short")}
	}
	plaintext, err := f.aead.Open(nil, in.CiphertextBlob[:n], in.CiphertextBlob[n:], nil)
	if err != nil {
		return nil, &kmstypes.InvalidCiphertextException{Message: aws.String("invalid ciphertext")}
	}

	return &kms.DecryptOutput{Plaintext: plaintext, KeyId: in.KeyId}, nil
}

// Calls returns the encrypt and decrypt call counts.
func (f *FakeKMS) Calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.EncryptCalls, f.DecryptCalls
}
