// Package wallet is the custody and signing facade: it ties the vault, the transaction
// builder, gas estimation and swap quotes together behind one interface.
package wallet

import (
	"context"
	"strings"
	"time"

	"github.com/dropbox/godropbox/time2"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/Shahnawazkhan83/crypto-vault/internal/util"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/cache"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/chain"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/errs"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/gas"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/keystore"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/signer"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/swap"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/token"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/txbuilder"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/vault"
)

// Deps are the collaborators of the facade. Node, Builder, Gas and Quoter may be nil
// for key management only use.
type Deps struct {
	Vault    vault.Service
	Keystore keystore.Service
	Node     chain.Node
	Builder  txbuilder.Service
	Gas      gas.Service
	Quoter   swap.Quoter

	// Clock drives balance cache expiry. Defaults to time2.DefaultClock.
	Clock time2.Clock
	// BalanceTTL defaults to DefaultBalanceTTL.
	BalanceTTL time.Duration
}

type service struct {
	vault    vault.Service
	keystore keystore.Service
	node     chain.Node
	builder  txbuilder.Service
	gas      gas.Service
	quoter   swap.Quoter

	balances   *cache.Cache[cachedBalance]
	balanceTTL time.Duration
}

// NewService creates the facade.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(deps Deps) (Service, error) {
	if deps.Vault == nil {
		return nil, errors.New("vault is required")
	}
	if deps.Keystore == nil {
		deps.Keystore = keystore.NewService(keystore.DefaultScryptParams())
	}
	if deps.Clock == nil {
		deps.Clock = time2.DefaultClock
	}
	if deps.BalanceTTL <= 0 {
		deps.BalanceTTL = DefaultBalanceTTL
	}

	return &service{
		vault:      deps.Vault,
		keystore:   deps.Keystore,
		node:       deps.Node,
		builder:    deps.Builder,
		gas:        deps.Gas,
		quoter:     deps.Quoter,
		balances:   cache.New[cachedBalance](deps.Clock),
		balanceTTL: deps.BalanceTTL,
	}, nil
}

func (s *service) GenerateAndStoreKey(ctx context.Context, ownerID string) (*Wallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate key")
	}

	raw := crypto.FromECDSA(key)
	defer clear(raw)

	path, err := s.vault.Store(ctx, ownerID, raw)
	if err != nil {
		return nil, err
	}

	w := &Wallet{OwnerID: ownerID, KeyPath: path, Address: signer.Address(key)}
	util.LogFromContext(ctx).Info().
		Str("key_path", path).
		Str("address", w.Address.Hex()).
		Msg("Generated wallet")

	return w, nil
}

func (s *service) ImportKeystore(ctx context.Context, ownerID string, keyJSON []byte, passphrase string) (*Wallet, error) {
	raw, err := s.keystore.Import(ctx, keyJSON, passphrase)
	if err != nil {
		return nil, err
	}
	defer clear(raw)

	key, err := signer.ParsePrivateKey(raw)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidRequest, err, "keystore holds an invalid key")
	}

	path, err := s.vault.Store(ctx, ownerID, raw)
	if err != nil {
		return nil, err
	}

	return &Wallet{OwnerID: ownerID, KeyPath: path, Address: signer.Address(key)}, nil
}

func (s *service) ExportKeystore(ctx context.Context, path string, passphrase string) ([]byte, error) {
	raw, err := s.vault.Retrieve(ctx, path)
	if err != nil {
		return nil, err
	}
	defer clear(raw)

	return s.keystore.Export(ctx, raw, passphrase)
}

func (s *service) Address(ctx context.Context, path string) (common.Address, error) {
	raw, err := s.vault.Retrieve(ctx, path)
	if err != nil {
		return common.Address{}, err
	}
	defer clear(raw)

	key, err := signer.ParsePrivateKey(raw)
	if err != nil {
		return common.Address{}, errs.Wrap(errs.KindDecryption, err, "key at %s is not a valid private key", path)
	}

	return signer.Address(key), nil
}

func (s *service) RotateKey(ctx context.Context, path string) (*Wallet, error) {
	newPath, err := s.vault.Rotate(ctx, path)
	if err != nil {
		if newPath == "" {
			return nil, err
		}
		// The key is readable under newPath even though the old record survived.
		return &Wallet{KeyPath: newPath}, err
	}

	addr, err := s.Address(ctx, newPath)
	if err != nil {
		return nil, err
	}

	return &Wallet{OwnerID: ownerOf(newPath), KeyPath: newPath, Address: addr}, nil
}

func (s *service) Forget(path string) bool {
	return s.vault.Forget(path)
}

func (s *service) EstimateTransferGas(ctx context.Context, req *EstimateRequest) (*gas.Estimation, error) {
	if err := s.requireChain(); err != nil {
		return nil, err
	}
	if req == nil || req.To == (common.Address{}) {
		return nil, errs.New(errs.KindInvalidRequest, "recipient is required")
	}

	from, err := s.Address(ctx, req.KeyPath)
	if err != nil {
		return nil, err
	}

	call, err := s.builder.PrepareTransfer(ctx, from, req.To, req.Amount, req.Token)
	if err != nil {
		return nil, err
	}

	speed := req.Speed
	if speed == "" {
		speed = gas.SpeedStandard
	}

	return s.gas.Estimate(ctx, call, speed)
}

func (s *service) Transfer(ctx context.Context, req *txbuilder.TransferRequest) (*txbuilder.Result, error) {
	if err := s.requireChain(); err != nil {
		return nil, err
	}

	return s.builder.Transfer(ctx, req)
}

func (s *service) ApproveSpender(ctx context.Context, req *txbuilder.ApproveRequest) (*txbuilder.Result, error) {
	if err := s.requireChain(); err != nil {
		return nil, err
	}

	return s.builder.ApproveSpender(ctx, req)
}

func (s *service) QuoteSwap(ctx context.Context, req *QuoteRequest) (*swap.Quote, error) {
	if err := s.requireChain(); err != nil {
		return nil, err
	}
	if s.quoter == nil {
		return nil, errs.New(errs.KindBackendUnavailable, "swap quotes are not configured")
	}
	if req == nil {
		return nil, errs.New(errs.KindInvalidRequest, "quote request is required")
	}

	taker, err := s.Address(ctx, req.KeyPath)
	if err != nil {
		return nil, err
	}

	native := req.SellToken == swap.NativeToken
	decimals := uint8(token.NativeDecimals)
	if !native {
		if decimals, err = s.builder.TokenDecimals(ctx, req.SellToken); err != nil {
			return nil, err
		}
	}

	amount, err := token.ParseUnits(req.SellAmount, decimals)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidRequest, err, "invalid sell amount")
	}

	chainID, err := s.node.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read chain id")
	}

	quote, err := s.quoter.GetQuote(ctx, &swap.QuoteRequest{
		SellToken:   req.SellToken,
		BuyToken:    req.BuyToken,
		SellAmount:  amount,
		Taker:       taker,
		ChainID:     chainID.Int64(),
		SlippageBps: req.SlippageBps,
	})
	if err != nil {
		return nil, err
	}

	if !native {
		allowance, err := s.builder.Allowance(ctx, req.SellToken, taker, quote.AllowanceTarget)
		if err != nil {
			return nil, err
		}
		quote.NeedsAllowance = allowance.Cmp(quote.SellAmount) < 0
	}

	return quote, nil
}

func (s *service) ExecuteSwap(ctx context.Context, req *txbuilder.SwapRequest) (*txbuilder.SwapResult, error) {
	if err := s.requireChain(); err != nil {
		return nil, err
	}

	return s.builder.ExecuteSwap(ctx, req)
}

func (s *service) requireChain() error {
	if s.node == nil || s.builder == nil || s.gas == nil {
		return errs.New(errs.KindBackendUnavailable, "no chain node is configured")
	}

	return nil
}

// ownerOf extracts the owner segment of a wallet/<owner>/<id> path.
func ownerOf(path string) string {
	parts := strings.SplitN(path, "/", 3)
	if len(parts) != 3 {
		return ""
	}

	return parts[1]
}
