package vault

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/Shahnawazkhan83/crypto-vault/internal/metrics"
	"github.com/Shahnawazkhan83/crypto-vault/internal/util"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/cache"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/encryption"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/errs"
)

// DefaultCacheTTL bounds how long a decrypted key stays in memory after use.
const DefaultCacheTTL = 60 * time.Second

// decryptTimeout bounds a shared decrypt that no caller waits for any more.
const decryptTimeout = 30 * time.Second

const pathPrefix = "wallet/"

// Config wires a vault. Remote is optional; Local is required for the fallback path.
type Config struct {
	Remote   encryption.Backend
	Local    encryption.Backend
	Records  RecordStore
	CacheTTL time.Duration
	Clock    time2.Clock
	Metrics  *metrics.Service
}

type service struct {
	remote   encryption.Backend
	local    encryption.Backend
	backends map[encryption.Kind]encryption.Backend
	records  RecordStore
	ttl      time.Duration
	clock    time2.Clock
	cache    *cache.Cache[[]byte]
	group    singleflight.Group
	metrics  *metrics.Service
}

// NewService creates a key vault.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(cfg Config) (Service, error) {
	if cfg.Records == nil {
		return nil, errors.New("record store is required")
	}
	if cfg.Remote == nil && cfg.Local == nil {
		return nil, errs.New(errs.KindBackendUnavailable, "no encryption backend configured")
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time2.DefaultClock
	}

	backends := make(map[encryption.Kind]encryption.Backend, 2)
	for _, b := range []encryption.Backend{cfg.Remote, cfg.Local} {
		if b != nil {
			backends[b.Kind()] = b
		}
	}

	return &service{
		remote:   cfg.Remote,
		local:    cfg.Local,
		backends: backends,
		records:  cfg.Records,
		ttl:      ttl,
		clock:    clock,
		cache: cache.New(clock,
			cache.WithClone(bytes.Clone),
			cache.WithEvict(func(_ string, v []byte) { clear(v) }),
		),
		metrics: cfg.Metrics,
	}, nil
}

func (s *service) Store(ctx context.Context, ownerID string, plaintext []byte) (string, error) {
	if ownerID == "" || strings.Contains(ownerID, "/") {
		return "", errs.New(errs.KindInvalidRequest, "invalid owner id %q", ownerID)
	}
	if len(plaintext) == 0 {
		return "", errs.New(errs.KindInvalidRequest, "empty key material")
	}

	sealed, err := s.seal(ctx, plaintext)
	if err != nil {
		return "", err
	}

	rec := &KeyRecord{
		Path:       fmt.Sprintf("%s%s/%s", pathPrefix, ownerID, uuid.NewString()),
		OwnerID:    ownerID,
		Backend:    sealed.Kind,
		Ciphertext: sealed.Ciphertext,
		Nonce:      sealed.Nonce,
		Tag:        sealed.Tag,
		CreatedAt:  s.clock.Now().UTC(),
	}
	if err := s.records.Put(ctx, rec); err != nil {
		return "", errors.Wrap(err, "failed to persist key record")
	}

	s.metrics.KeyStored(string(rec.Backend))
	util.LogFromContext(ctx).Info().
		Str("key_path", rec.Path).
		Str("backend", string(rec.Backend)).
		Msg("Stored key")

	return rec.Path, nil
}

// seal prefers the remote backend and falls back to the local one on any remote failure.
func (s *service) seal(ctx context.Context, plaintext []byte) (*encryption.Sealed, error) {
	var remoteErr error
	if s.remote != nil {
		sealed, err := s.remote.Encrypt(ctx, plaintext)
		if err == nil {
			return sealed, nil
		}
		remoteErr = err
		s.metrics.Fallback()
		util.LogFromContext(ctx).Warn().Err(err).Msg("Remote encryption failed, falling back to local backend")
	}

	if s.local == nil {
		if remoteErr != nil {
			return nil, errs.Wrap(errs.KindBackendUnavailable, remoteErr, "remote failed and no local backend is configured")
		}
		return nil, errs.New(errs.KindBackendUnavailable, "no local backend is configured")
	}

	sealed, err := s.local.Encrypt(ctx, plaintext)
	if err != nil {
		return nil, errs.Wrap(errs.KindBackendUnavailable, err, "local encryption failed")
	}

	return sealed, nil
}

func (s *service) Retrieve(ctx context.Context, path string) ([]byte, error) {
	if v, ok := s.cache.Get(path); ok {
		s.metrics.CacheHit()
		return v, nil
	}
	s.metrics.CacheMiss()

	// The shared decrypt is detached from the caller that started it, so one caller giving
	// up does not fail the others waiting on the same path.
	flight := s.group.DoChan(path, func() (any, error) {
		if v, ok := s.cache.Get(path); ok {
			clear(v)
			return nil, nil
		}

		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), decryptTimeout)
		defer cancel()

		plaintext, err := s.decrypt(flightCtx, path)
		if err != nil {
			return nil, err
		}
		s.cache.Set(path, plaintext, s.ttl)
		clear(plaintext)

		return nil, nil
	})

	select {
	case <-ctx.Done():
		return nil, errs.Wrap(errs.KindBackendUnavailable, ctx.Err(), "retrieve of %s abandoned", path)
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
	}

	if v, ok := s.cache.Get(path); ok {
		return v, nil
	}

	// Evicted between the flight and this read, e.g. by Forget.
	return s.decrypt(ctx, path)
}

// decrypt loads the record at path and opens it with its recorded backend. The caller owns
// the returned slice.
func (s *service) decrypt(ctx context.Context, path string) ([]byte, error) {
	rec, err := s.records.Get(ctx, path)
	if err != nil {
		if errs.KindOf(err) == "" {
			err = errs.Wrap(errs.KindBackendUnavailable, err, "load record %s", path)
		}
		return nil, err
	}

	backend, ok := s.backends[rec.Backend]
	if !ok {
		return nil, errs.New(errs.KindBackendUnavailable, "key %s was sealed by backend %q which is not configured", path, rec.Backend)
	}

	plaintext, err := backend.Decrypt(ctx, rec.Sealed())
	if err != nil {
		util.LogFromContext(ctx).Warn().
			Str("key_path", path).
			Str("backend", string(rec.Backend)).
			Str("kind", string(errs.KindOf(err))).
			Msg("Failed to decrypt key")
		if errs.KindOf(err) == "" {
			err = errs.Wrap(errs.KindBackendUnavailable, err, "decrypt %s", path)
		}
		return nil, err
	}
	s.metrics.Decrypted(string(rec.Backend))

	return plaintext, nil
}

func (s *service) Rotate(ctx context.Context, path string) (string, error) {
	rec, err := s.records.Get(ctx, path)
	if err != nil {
		return "", err
	}

	plaintext, err := s.Retrieve(ctx, path)
	if err != nil {
		return "", err
	}
	defer clear(plaintext)

	newPath, err := s.Store(ctx, rec.OwnerID, plaintext)
	if err != nil {
		return "", err
	}

	s.cache.Delete(path)
	if err := s.records.Delete(ctx, path); err != nil {
		util.LogFromContext(ctx).Error().Err(err).
			Str("key_path", path).
			Str("new_key_path", newPath).
			Msg("Rotated key but failed to delete old record")
		return newPath, errors.Wrap(err, "failed to delete rotated key record")
	}

	util.LogFromContext(ctx).Info().
		Str("key_path", path).
		Str("new_key_path", newPath).
		Msg("Rotated key")

	return newPath, nil
}

func (s *service) Forget(path string) bool {
	return s.cache.Delete(path)
}
