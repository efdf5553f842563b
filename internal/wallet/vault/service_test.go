package vault_test

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shahnawazkhan83/crypto-vault/internal/test"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/encryption"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/errs"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/vault"
)

var secretKey = bytes.Repeat([]byte{0x5a}, 32)

func TestStoreAndRetrieveViaRemote(t *testing.T) {
	test.WithTestVault(t, func(f *test.VaultFixture) {
		ctx := context.Background()

		path, err := f.Vault.Store(ctx, "user-1", secretKey)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(path, "wallet/user-1/"))

		rec, err := f.Records.Get(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, encryption.KindRemote, rec.Backend)
		assert.Equal(t, "user-1", rec.OwnerID)
		assert.NotContains(t, string(rec.Ciphertext), string(secretKey))

		got, err := f.Vault.Retrieve(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, secretKey, got)
	})
}

func TestStoreFallsBackToLocal(t *testing.T) {
	test.WithTestVault(t, func(f *test.VaultFixture) {
		ctx := context.Background()
		f.KMS.EncryptErr = errors.New("AccessDeniedException")
		f.KMS.DecryptErr = errors.New("AccessDeniedException")

		path, err := f.Vault.Store(ctx, "user-1", secretKey)
		require.NoError(t, err)

		rec, err := f.Records.Get(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, encryption.KindLocal, rec.Backend)
		assert.Len(t, rec.Nonce, 12)
		assert.Len(t, rec.Tag, 16)

		f.Vault.Forget(path)
		got, err := f.Vault.Retrieve(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, secretKey, got)

		_, decrypts := f.KMS.Calls()
		assert.Equal(t, 0, decrypts)
	})
}

func TestStoreFailsWithoutAnyBackend(t *testing.T) {
	kms := test.NewFakeKMS()
	kms.EncryptErr = errors.New("unreachable")
	remote, err := encryption.NewRemote(kms, "alias/test")
	require.NoError(t, err)

	v, err := vault.NewService(vault.Config{Remote: remote, Records: vault.NewMemoryStore()})
	require.NoError(t, err)

	_, err = v.Store(context.Background(), "user-1", secretKey)
	assert.True(t, errors.Is(err, errs.ErrBackendUnavailable))
}

func TestStoreValidatesInput(t *testing.T) {
	test.WithTestVault(t, func(f *test.VaultFixture) {
		ctx := context.Background()

		for _, owner := range []string{"", "a/b"} {
			_, err := f.Vault.Store(ctx, owner, secretKey)
			assert.True(t, errors.Is(err, errs.ErrInvalidRequest), owner)
		}

		_, err := f.Vault.Store(ctx, "user-1", nil)
		assert.True(t, errors.Is(err, errs.ErrInvalidRequest))
	})
}

func TestRetrieveWithinTTLDecryptsOnce(t *testing.T) {
	test.WithTestVault(t, func(f *test.VaultFixture) {
		ctx := context.Background()
		path, err := f.Vault.Store(ctx, "user-1", secretKey)
		require.NoError(t, err)

		for range 2 {
			got, err := f.Vault.Retrieve(ctx, path)
			require.NoError(t, err)
			assert.Equal(t, secretKey, got)
		}
		_, decrypts := f.KMS.Calls()
		assert.Equal(t, 1, decrypts)

		f.Clock.Advance(vault.DefaultCacheTTL + time.Second)
		_, err = f.Vault.Retrieve(ctx, path)
		require.NoError(t, err)
		_, decrypts = f.KMS.Calls()
		assert.Equal(t, 2, decrypts)
	})
}

func TestRetrieveReturnsPrivateCopies(t *testing.T) {
	test.WithTestVault(t, func(f *test.VaultFixture) {
		ctx := context.Background()
		path, err := f.Vault.Store(ctx, "user-1", secretKey)
		require.NoError(t, err)

		first, err := f.Vault.Retrieve(ctx, path)
		require.NoError(t, err)
		clear(first)

		second, err := f.Vault.Retrieve(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, secretKey, second)
	})
}

func TestConcurrentRetrieveCollapsesDecrypts(t *testing.T) {
	test.WithTestVault(t, func(f *test.VaultFixture) {
		ctx := context.Background()
		path, err := f.Vault.Store(ctx, "user-1", secretKey)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := f.Vault.Retrieve(ctx, path)
				assert.NoError(t, err)
				assert.Equal(t, secretKey, got)
			}()
		}
		wg.Wait()

		_, decrypts := f.KMS.Calls()
		assert.Equal(t, 1, decrypts)
	})
}

func TestRetrieveUnknownPath(t *testing.T) {
	test.WithTestVault(t, func(f *test.VaultFixture) {
		_, err := f.Vault.Retrieve(context.Background(), "wallet/nobody/none")
		assert.True(t, errors.Is(err, errs.ErrNotFound))
	})
}

func TestRetrieveRequiresRecordedBackend(t *testing.T) {
	test.WithTestVault(t, func(f *test.VaultFixture) {
		ctx := context.Background()
		path, err := f.Vault.Store(ctx, "user-1", secretKey)
		require.NoError(t, err)

		localOnly, err := vault.NewService(vault.Config{Local: f.Local, Records: f.Records})
		require.NoError(t, err)

		_, err = localOnly.Retrieve(ctx, path)
		assert.True(t, errors.Is(err, errs.ErrBackendUnavailable))
	})
}

func TestRetrieveTamperedRecord(t *testing.T) {
	ctx := context.Background()
	records := vault.NewMemoryStore()
	f := test.NewTestVault(t)

	v, err := vault.NewService(vault.Config{Local: f.Local, Records: records})
	require.NoError(t, err)

	path, err := v.Store(ctx, "user-1", secretKey)
	require.NoError(t, err)

	rec, err := records.Get(ctx, path)
	require.NoError(t, err)
	rec.Tag[0] ^= 0x01
	rec.Path = path + "-tampered"
	require.NoError(t, records.Put(ctx, rec))

	got, err := v.Retrieve(ctx, rec.Path)
	assert.True(t, errors.Is(err, errs.ErrDecryption))
	assert.Nil(t, got)
}

func TestRotate(t *testing.T) {
	test.WithTestVault(t, func(f *test.VaultFixture) {
		ctx := context.Background()
		path, err := f.Vault.Store(ctx, "user-1", secretKey)
		require.NoError(t, err)
		_, err = f.Vault.Retrieve(ctx, path)
		require.NoError(t, err)

		newPath, err := f.Vault.Rotate(ctx, path)
		require.NoError(t, err)
		assert.NotEqual(t, path, newPath)
		assert.True(t, strings.HasPrefix(newPath, "wallet/user-1/"))

		_, err = f.Vault.Retrieve(ctx, path)
		assert.True(t, errors.Is(err, errs.ErrNotFound))

		got, err := f.Vault.Retrieve(ctx, newPath)
		require.NoError(t, err)
		assert.Equal(t, secretKey, got)
	})
}

func TestRotateUnknownPath(t *testing.T) {
	test.WithTestVault(t, func(f *test.VaultFixture) {
		_, err := f.Vault.Rotate(context.Background(), "wallet/u/missing")
		assert.True(t, errors.Is(err, errs.ErrNotFound))
	})
}

func TestForget(t *testing.T) {
	test.WithTestVault(t, func(f *test.VaultFixture) {
		ctx := context.Background()
		path, err := f.Vault.Store(ctx, "user-1", secretKey)
		require.NoError(t, err)

		assert.False(t, f.Vault.Forget(path))
		_, err = f.Vault.Retrieve(ctx, path)
		require.NoError(t, err)
		assert.True(t, f.Vault.Forget(path))

		_, err = f.Vault.Retrieve(ctx, path)
		require.NoError(t, err)
		_, decrypts := f.KMS.Calls()
		assert.Equal(t, 2, decrypts)
	})
}

// gatedBackend wraps a backend and holds every Decrypt until release is closed. Decrypt
// honours ctx like a network backend would.
type gatedBackend struct {
	encryption.Backend

	started chan struct{}
	release chan struct{}

	mu       sync.Mutex
	decrypts int
	returned [][]byte
}

func newGatedBackend(inner encryption.Backend) *gatedBackend {
	return &gatedBackend{
		Backend: inner,
		started: make(chan struct{}, 16),
		release: make(chan struct{}),
	}
}

func (g *gatedBackend) Decrypt(ctx context.Context, sealed *encryption.Sealed) ([]byte, error) {
	g.started <- struct{}{}
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	out, err := g.Backend.Decrypt(ctx, sealed)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.decrypts++
	g.returned = append(g.returned, out)

	return out, err
}

func newGatedVault(t *testing.T, f *test.VaultFixture) (vault.Service, *gatedBackend) {
	t.Helper()

	gated := newGatedBackend(f.Local)
	v, err := vault.NewService(vault.Config{
		Local:   gated,
		Records: f.Records,
		Clock:   f.Clock,
	})
	require.NoError(t, err)

	return v, gated
}

func TestRetrieveCallerCancelDoesNotFailOthers(t *testing.T) {
	test.WithTestVault(t, func(f *test.VaultFixture) {
		v, gated := newGatedVault(t, f)
		path, err := v.Store(context.Background(), "user-1", secretKey)
		require.NoError(t, err)

		ctxA, cancelA := context.WithCancel(context.Background())
		errA := make(chan error, 1)
		go func() {
			_, err := v.Retrieve(ctxA, path)
			errA <- err
		}()
		<-gated.started

		type result struct {
			plaintext []byte
			err       error
		}
		resB := make(chan result, 1)
		go func() {
			p, err := v.Retrieve(context.Background(), path)
			resB <- result{p, err}
		}()
		time.Sleep(20 * time.Millisecond)

		cancelA()
		err = <-errA
		assert.True(t, errors.Is(err, context.Canceled))
		assert.True(t, errors.Is(err, errs.ErrBackendUnavailable))

		close(gated.release)
		b := <-resB
		require.NoError(t, b.err)
		assert.Equal(t, secretKey, b.plaintext)

		gated.mu.Lock()
		defer gated.mu.Unlock()
		assert.Equal(t, 1, gated.decrypts)
	})
}

func TestRetrieveZeroesBackendPlaintext(t *testing.T) {
	test.WithTestVault(t, func(f *test.VaultFixture) {
		v, gated := newGatedVault(t, f)
		close(gated.release)
		ctx := context.Background()

		path, err := v.Store(ctx, "user-1", secretKey)
		require.NoError(t, err)

		var wg sync.WaitGroup
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := v.Retrieve(ctx, path)
				assert.NoError(t, err)
				assert.Equal(t, secretKey, got)
			}()
		}
		wg.Wait()

		gated.mu.Lock()
		defer gated.mu.Unlock()
		require.NotEmpty(t, gated.returned)
		for _, out := range gated.returned {
			assert.Equal(t, make([]byte, len(secretKey)), out)
		}
	})
}
