package api

import (
	"context"
	"strings"

	"github.com/dropbox/godropbox/time2"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/Shahnawazkhan83/crypto-vault/internal/config"
	"github.com/Shahnawazkhan83/crypto-vault/internal/metrics"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/chain"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/encryption"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/gas"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/keystore"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/swap"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/txbuilder"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/vault"
)

// InitAll runs every provider in dependency order.
func (s *Server) InitAll(ctx context.Context) error {
	for _, provide := range []func(context.Context) error{
		s.InitMetrics,
		s.InitStore,
		s.InitVault,
		s.InitChain,
		s.InitWallet,
	} {
		if err := provide(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (s *Server) InitMetrics(context.Context) error {
	if s.Clock == nil {
		s.Clock = time2.DefaultClock
	}
	if s.Metrics != nil {
		return nil
	}

	s.Registry = prometheus.NewRegistry()
	m, err := metrics.New(s.Registry)
	if err != nil {
		return err
	}
	s.Metrics = m

	return nil
}

func (s *Server) InitStore(ctx context.Context) error {
	if s.Records != nil {
		return nil
	}

	switch driver := s.Config.Store.Driver; driver {
	case config.StoreDriverMemory:
		log.Warn().Msg("Key records are kept in memory and will be lost on exit")
		s.Records = vault.NewMemoryStore()
	case vault.DriverSQLite, vault.DriverPostgres:
		store, err := vault.OpenSQLStore(ctx, driver, s.Config.Store.DSN)
		if err != nil {
			return err
		}
		s.Records = store
		s.closers = append(s.closers, store.Close)
	default:
		return errors.Errorf("unknown store driver %q", driver)
	}

	return nil
}

func (s *Server) InitVault(ctx context.Context) error {
	if s.Vault != nil {
		return nil
	}

	cfg := vault.Config{
		Records:  s.Records,
		CacheTTL: s.Config.Vault.CacheTTL,
		Clock:    s.Clock,
		Metrics:  s.Metrics,
	}

	if s.Config.Vault.EncryptionSecret != "" {
		local, err := encryption.NewLocal([]byte(s.Config.Vault.EncryptionSecret))
		if err != nil {
			return err
		}
		cfg.Local = local
	}

	if s.Config.Vault.KMSKeyID != "" {
		client, err := encryption.LoadKMSClient(ctx, s.Config.Vault.AWSRegion)
		if err != nil {
			return err
		}
		remote, err := encryption.NewRemote(client, s.Config.Vault.KMSKeyID)
		if err != nil {
			return err
		}
		cfg.Remote = remote
	}

	v, err := vault.NewService(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to create key vault")
	}
	s.Vault = v

	return nil
}

// InitChain connects to the configured RPC endpoints. Without any the server runs in key
// management mode and chain operations report BackendUnavailable.
func (s *Server) InitChain(context.Context) error {
	if s.Node == nil {
		urls := chain.ResolveRPCURLs(s.Config.Chain.RPCURLs, s.Config.Chain.Network, s.Config.Chain.InfuraAPIKey)
		if len(urls) == 0 {
			log.Warn().Msg("No RPC endpoint configured, chain operations are disabled")
			return nil
		}

		client, err := chain.NewRPCClient(urls)
		if err != nil {
			return err
		}
		s.Node = client
		s.closers = append(s.closers, func() error {
			client.Close()
			return nil
		})
	}

	if s.Gas == nil {
		s.Gas = gas.NewService(s.Node, s.Metrics)
	}

	if s.Builder == nil {
		builder, err := txbuilder.NewService(txbuilder.Config{
			Vault:        s.Vault,
			Node:         s.Node,
			Gas:          s.Gas,
			Metrics:      s.Metrics,
			Clock:        s.Clock,
			PollInterval: s.Config.Chain.ReceiptPollInterval,
		})
		if err != nil {
			return err
		}
		s.Builder = builder
	}

	if s.Quoter == nil && strings.TrimSpace(s.Config.Swap.APIKey) != "" {
		s.Quoter = swap.NewClient(swap.ClientConfig{
			BaseURL:     s.Config.Swap.BaseURL,
			APIKey:      s.Config.Swap.APIKey,
			Validity:    s.Config.Swap.QuoteValidity,
			SlippageBps: s.Config.Swap.SlippageBps,
			Clock:       s.Clock,
		})
	}

	return nil
}

func (s *Server) InitWallet(context.Context) error {
	if s.Keystore == nil {
		s.Keystore = keystore.NewService(keystore.DefaultScryptParams())
	}
	if s.Wallet != nil {
		return nil
	}

	deps := wallet.Deps{
		Vault:      s.Vault,
		Keystore:   s.Keystore,
		Node:       s.Node,
		Builder:    s.Builder,
		Gas:        s.Gas,
		Quoter:     s.Quoter,
		Clock:      s.Clock,
		BalanceTTL: s.Config.Chain.BalanceCacheTTL,
	}

	w, err := wallet.NewService(deps)
	if err != nil {
		return err
	}
	s.Wallet = w

	return nil
}
