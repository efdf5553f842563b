package test

import (
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/stretchr/testify/require"

	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/encryption"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/vault"
)

// LocalSecret is the local backend secret used by test vaults.
const LocalSecret = "test-local-secret"

// VaultFixture is a vault wired to a fake KMS, an in-memory record store and a mock clock.
type VaultFixture struct {
	Vault   vault.Service
	KMS     *FakeKMS
	Records *vault.MemoryStore
	Clock   *time2.MockClock
	Local   *encryption.Local
	Remote  *encryption.Remote
}

// WithTestVault runs closure with a fresh VaultFixture.
func WithTestVault(t *testing.T, closure func(f *VaultFixture)) {
	t.Helper()

	closure(NewTestVault(t))
}

// NewTestVault builds a VaultFixture with the default cache TTL.
func NewTestVault(t *testing.T) *VaultFixture {
	t.Helper()

	local, err := encryption.NewLocal([]byte(LocalSecret))
	require.NoError(t, err)

	kms := NewFakeKMS()
	remote, err := encryption.NewRemote(kms, "alias/test")
	require.NoError(t, err)

	f := &VaultFixture{
		KMS:     kms,
		Records: vault.NewMemoryStore(),
		Clock:   time2.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		Local:   local,
		Remote:  remote,
	}

	f.Vault, err = vault.NewService(vault.Config{
		Remote:  remote,
		Local:   local,
		Records: f.Records,
		Clock:   f.Clock,
	})
	require.NoError(t, err)

	return f
}
