package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/Shahnawazkhan83/crypto-vault/internal/config"
	"github.com/Shahnawazkhan83/crypto-vault/internal/metrics"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/chain"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/gas"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/keystore"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/swap"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/txbuilder"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/vault"
)

// Server is a central struct keeping all the dependencies.
// Components are created by the Init* providers in providers.go, in the order InitAll runs
// them. A component that is already set when its provider runs is kept, which lets tests
// inject fakes (e.g. a FakeNode) before calling InitAll.
type Server struct {
	Config   config.Server
	Clock    time2.Clock
	Registry *prometheus.Registry
	Metrics  *metrics.Service
	Records  vault.RecordStore
	Vault    vault.Service
	Keystore keystore.Service
	Node     chain.Node // nil when no RPC endpoint is configured
	Gas      gas.Service
	Builder  txbuilder.Service
	Quoter   swap.Quoter
	Wallet   wallet.Service

	metricsServer *http.Server
	closers       []func() error
}

func NewServer(cfg config.Server) *Server {
	return &Server{
		Config: cfg,
	}
}

// Ready reports whether the key vault is usable and, when a node is configured, reachable.
func (s *Server) Ready(ctx context.Context) error {
	if s.Vault == nil || s.Wallet == nil {
		return errors.New("server is not fully initialized")
	}

	if p, ok := s.Records.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(ctx); err != nil {
			return err
		}
	}

	if s.Node != nil {
		if _, err := s.Node.ChainID(ctx); err != nil {
			return err
		}
	}

	return nil
}

// StartMetrics serves /metrics on Config.Metrics.ListenAddress in the background.
func (s *Server) StartMetrics() {
	if s.Config.Metrics.ListenAddress == "" || s.Registry == nil {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{}))
	s.metricsServer = &http.Server{
		Addr:              s.Config.Metrics.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("address", s.Config.Metrics.ListenAddress).Msg("Serving metrics")
		if err := s.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics listener failed")
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) []error {
	log.Debug().Msg("Shutting down server")

	var errs []error

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Failed to shutdown metrics listener")
			errs = append(errs, err)
		}
	}

	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Error().Err(err).Msg("Failed to close component")
			errs = append(errs, err)
		}
	}
	s.closers = nil

	return errs
}
