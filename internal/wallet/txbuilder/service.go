package txbuilder

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"github.com/Shahnawazkhan83/crypto-vault/internal/metrics"
	"github.com/Shahnawazkhan83/crypto-vault/internal/util"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/cache"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/chain"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/errs"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/gas"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/signer"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/swap"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/token"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/vault"
)

const (
	opTransfer = "transfer"
	opApprove  = "approve"
	opSwap     = "swap"
)

// Config wires a transaction builder.
type Config struct {
	Vault        vault.Service
	Node         chain.Node
	Gas          gas.Service // defaults to an estimator on Node
	Metrics      *metrics.Service
	Clock        time2.Clock
	PollInterval time.Duration
}

type service struct {
	vault        vault.Service
	node         chain.Node
	gas          gas.Service
	metrics      *metrics.Service
	clock        time2.Clock
	pollInterval time.Duration
	decimals     *cache.Cache[uint8]
}

// NewService creates a transaction builder.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(cfg Config) (Service, error) {
	if cfg.Vault == nil || cfg.Node == nil {
		return nil, errors.New("vault and node are required")
	}

	s := &service{
		vault:        cfg.Vault,
		node:         cfg.Node,
		gas:          cfg.Gas,
		metrics:      cfg.Metrics,
		clock:        cfg.Clock,
		pollInterval: cfg.PollInterval,
	}
	if s.gas == nil {
		s.gas = gas.NewService(cfg.Node, cfg.Metrics)
	}
	if s.clock == nil {
		s.clock = time2.DefaultClock
	}
	if s.pollInterval <= 0 {
		s.pollInterval = chain.DefaultPollInterval
	}
	s.decimals = cache.New[uint8](s.clock)

	return s, nil
}

func (s *service) Transfer(ctx context.Context, req *TransferRequest) (*Result, error) {
	res, err := s.transfer(ctx, req)
	s.observe(opTransfer, err)

	return res, err
}

func (s *service) transfer(ctx context.Context, req *TransferRequest) (*Result, error) {
	if req == nil || req.KeyPath == "" {
		return nil, errs.New(errs.KindInvalidRequest, "key path is required")
	}
	if req.To == (common.Address{}) {
		return nil, errs.New(errs.KindInvalidRequest, "recipient is required")
	}

	key, err := s.loadKey(ctx, req.KeyPath)
	if err != nil {
		return nil, err
	}
	from := signer.Address(key)

	call, err := s.PrepareTransfer(ctx, from, req.To, req.Amount, req.Token)
	if err != nil {
		return nil, err
	}

	f, err := s.resolveGas(ctx, call, req.Gas)
	if err != nil {
		return nil, err
	}

	res, err := s.signAndSend(ctx, key, call, f)
	if err != nil {
		return nil, err
	}
	res.To = req.To
	res.Amount = req.Amount
	res.Token = req.Token

	return res, nil
}

func (s *service) PrepareTransfer(ctx context.Context, from common.Address, to common.Address, amount string, tokenAddr *common.Address) (*gas.Call, error) {
	if tokenAddr == nil {
		value, err := token.ParseUnits(amount, token.NativeDecimals)
		if err != nil {
			return nil, errs.Wrap(errs.KindInvalidRequest, err, "invalid amount")
		}
		return &gas.Call{From: from, To: to, Value: value}, nil
	}

	decimals, err := s.TokenDecimals(ctx, *tokenAddr)
	if err != nil {
		return nil, err
	}

	value, err := token.ParseUnits(amount, decimals)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidRequest, err, "invalid amount")
	}

	data, err := token.PackTransfer(to, value)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidRequest, err, "failed to encode transfer")
	}

	return &gas.Call{From: from, To: *tokenAddr, Value: new(big.Int), Data: data}, nil
}

// TokenDecimals reads decimals() once per token; the value never changes.
func (s *service) TokenDecimals(ctx context.Context, tokenAddr common.Address) (uint8, error) {
	if d, ok := s.decimals.Get(tokenAddr.Hex()); ok {
		return d, nil
	}

	out, err := s.node.CallContract(ctx, ethereum.CallMsg{To: &tokenAddr, Data: token.PackDecimals()})
	if err != nil {
		return 0, errs.Wrap(errs.KindEstimation, err, "failed to read token decimals")
	}

	d, err := token.UnpackDecimals(out)
	if err != nil {
		return 0, errs.Wrap(errs.KindInvalidRequest, err, "token %s does not report decimals", tokenAddr.Hex())
	}
	s.decimals.Set(tokenAddr.Hex(), d, 0)

	return d, nil
}

func (s *service) Allowance(ctx context.Context, tokenAddr common.Address, owner common.Address, spender common.Address) (*big.Int, error) {
	data, err := token.PackAllowance(owner, spender)
	if err != nil {
		return nil, err
	}

	out, err := s.node.CallContract(ctx, ethereum.CallMsg{To: &tokenAddr, Data: data})
	if err != nil {
		return nil, errors.Wrap(err, "failed to read allowance")
	}

	return token.UnpackAllowance(out)
}

func (s *service) ApproveSpender(ctx context.Context, req *ApproveRequest) (*Result, error) {
	res, err := s.approve(ctx, req)
	s.observe(opApprove, err)

	return res, err
}

func (s *service) approve(ctx context.Context, req *ApproveRequest) (*Result, error) {
	if req == nil || req.KeyPath == "" {
		return nil, errs.New(errs.KindInvalidRequest, "key path is required")
	}
	if req.Token == (common.Address{}) {
		return nil, errs.New(errs.KindInvalidRequest, "token is required")
	}
	spender := swap.Permit2Address
	if req.Spender != nil {
		spender = *req.Spender
	}

	key, err := s.loadKey(ctx, req.KeyPath)
	if err != nil {
		return nil, err
	}

	data, err := token.PackApprove(spender, token.MaxUint256)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidRequest, err, "failed to encode approve")
	}
	call := &gas.Call{From: signer.Address(key), To: req.Token, Value: new(big.Int), Data: data}

	f, err := s.resolveGas(ctx, call, req.Gas)
	if err != nil {
		return nil, err
	}

	res, err := s.signAndSend(ctx, key, call, f)
	if err != nil {
		return nil, err
	}
	tokenAddr := req.Token
	res.Token = &tokenAddr
	res.Spender = &spender

	started := s.clock.Now()
	receipt, err := chain.WaitMined(ctx, s.node, res.Hash, s.pollInterval)
	s.metrics.ReceiptWait(s.clock.Now().Sub(started).Seconds())
	if err != nil {
		// Submitted but unconfirmed: the result still carries the hash.
		return res, errors.Wrapf(err, "approval %s submitted but not confirmed", res.Hash.Hex())
	}

	res.Status = StatusFailed
	if receipt.Status == types.ReceiptStatusSuccessful {
		res.Status = StatusSuccess
	}
	util.LogFromContext(ctx).Info().
		Str("tx_hash", res.Hash.Hex()).
		Str("status", string(res.Status)).
		Msg("Approval mined")

	return res, nil
}

// loadKey fetches and parses the key at path. The decrypted bytes are zeroed before return.
func (s *service) loadKey(ctx context.Context, path string) (*ecdsa.PrivateKey, error) {
	material, err := s.vault.Retrieve(ctx, path)
	if err != nil {
		return nil, err
	}
	defer clear(material)

	key, err := signer.ParsePrivateKey(material)
	if err != nil {
		return nil, errs.Wrap(errs.KindDecryption, err, "key at %s is not a valid private key", path)
	}

	return key, nil
}

// signAndSend fills nonce and chain id, signs and submits exactly once.
func (s *service) signAndSend(ctx context.Context, key *ecdsa.PrivateKey, call *gas.Call, f *fees) (*Result, error) {
	chainID, err := s.node.ChainID(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.KindSubmission, err, "failed to read chain id")
	}

	nonce, err := s.node.PendingNonceAt(ctx, call.From)
	if err != nil {
		return nil, errs.Wrap(errs.KindSubmission, err, "failed to read nonce")
	}

	signed, err := signer.SignTransaction(&signer.TxRequest{
		ChainID:              chainID,
		Nonce:                nonce,
		From:                 call.From,
		To:                   call.To,
		Value:                call.Value,
		Data:                 call.Data,
		GasLimit:             f.gasLimit,
		GasPrice:             legacyPrice(f),
		MaxFeePerGas:         f.maxFeePerGas,
		MaxPriorityFeePerGas: f.maxPriorityFeePerGas,
	}, key)
	if err != nil {
		return nil, errs.Wrap(errs.KindSubmission, err, "failed to sign transaction")
	}

	if err := s.node.SendTransaction(ctx, signed.Tx); err != nil {
		return nil, errs.Wrap(errs.KindSubmission, err, "node rejected transaction")
	}

	util.LogFromContext(ctx).Info().
		Str("tx_hash", signed.Hash.Hex()).
		Str("from", call.From.Hex()).
		Str("to", call.To.Hex()).
		Str("chain_id", chainID.String()).
		Uint64("nonce", nonce).
		Bool("eip1559", f.eip1559()).
		Msg("Submitted transaction")

	return &Result{
		Hash:                 signed.Hash,
		From:                 call.From,
		To:                   call.To,
		Status:               StatusPending,
		Nonce:                nonce,
		GasLimit:             f.gasLimit,
		GasPrice:             f.gasPrice,
		MaxFeePerGas:         f.maxFeePerGas,
		MaxPriorityFeePerGas: f.maxPriorityFeePerGas,
	}, nil
}

// legacyPrice returns the gas price only when no dynamic fees are set, so the signer picks
// exactly one fee model.
func legacyPrice(f *fees) *big.Int {
	if f.eip1559() {
		return nil
	}

	return f.gasPrice
}

func (s *service) observe(op string, err error) {
	if err == nil {
		s.metrics.Submitted(op)
		return
	}
	s.metrics.Failed(op, string(errs.KindOf(err)))
}
