package test

import (
	"context"
	"testing"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Shahnawazkhan83/crypto-vault/internal/api"
	"github.com/Shahnawazkhan83/crypto-vault/internal/config"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/keystore"
)

// ServerConfig is a config with an in-memory store, the local backend only and no RPC endpoint.
func ServerConfig() config.Server {
	return config.Server{
		Vault: config.VaultServer{
			EncryptionSecret: LocalSecret,
			CacheTTL:         time.Minute,
		},
		Store: config.StoreServer{
			Driver: config.StoreDriverMemory,
		},
		Chain: config.ChainServer{
			Network:             "mainnet",
			ReceiptPollInterval: time.Millisecond,
		},
		Logger: config.LoggerServer{
			Level: zerolog.DebugLevel,
		},
	}
}

// WithTestServer runs closure with a fully initialized server backed by a FakeNode.
func WithTestServer(t *testing.T, closure func(s *api.Server)) {
	t.Helper()

	s := api.NewServer(ServerConfig())
	s.Clock = time2.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	s.Node = NewFakeNode()
	s.Keystore = keystore.NewService(keystore.LightScryptParams())

	require.NoError(t, s.InitAll(context.Background()))
	t.Cleanup(func() {
		require.Empty(t, s.Shutdown(context.Background()))
	})

	closure(s)
}
