package keystore

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Shahnawazkhan83/crypto-vault/internal/util"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/errs"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/signer"
)

const minPassphraseLength = 8

type service struct {
	params ScryptParams
}

// NewService creates a keystore service with the given scrypt cost.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(params ScryptParams) Service {
	return &service{params: params}
}

func (s *service) Export(ctx context.Context, privateKey []byte, passphrase string) ([]byte, error) {
	if len(passphrase) < minPassphraseLength {
		return nil, errs.New(errs.KindInvalidRequest, "passphrase must be at least %d characters", minPassphraseLength)
	}

	key, err := signer.ParsePrivateKey(privateKey)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidRequest, err, "invalid private key")
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate keystore id")
	}

	keyJSON, err := keystore.EncryptKey(&keystore.Key{
		Id:         id,
		Address:    signer.Address(key),
		PrivateKey: key,
	}, passphrase, s.params.N, s.params.P)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encrypt keystore")
	}

	util.LogFromContext(ctx).Info().
		Str("address", signer.Address(key).Hex()).
		Str("keystore_id", id.String()).
		Msg("Exported keystore")

	return keyJSON, nil
}

func (s *service) Import(ctx context.Context, keyJSON []byte, passphrase string) ([]byte, error) {
	key, err := keystore.DecryptKey(keyJSON, passphrase)
	if err != nil {
		if errors.Is(err, keystore.ErrDecrypt) {
			return nil, errs.Wrap(errs.KindDecryption, err, "wrong passphrase or corrupted keystore")
		}
		return nil, errs.Wrap(errs.KindInvalidRequest, err, "invalid keystore document")
	}

	util.LogFromContext(ctx).Info().
		Str("address", key.Address.Hex()).
		Msg("Imported keystore")

	return crypto.FromECDSA(key.PrivateKey), nil
}
