package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/gas"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/swap"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/txbuilder"
)

// Wallet identifies a custodied key. The key material itself never leaves the service.
type Wallet struct {
	OwnerID string         `json:"ownerId"`
	KeyPath string         `json:"keyPath"`
	Address common.Address `json:"address"`
}

// EstimateRequest describes a transfer to estimate.
type EstimateRequest struct {
	KeyPath string
	To      common.Address
	Amount  string
	Token   *common.Address
	Speed   gas.Speed
}

// QuoteRequest describes a swap to quote. SellAmount is a decimal amount of SellToken.
type QuoteRequest struct {
	KeyPath     string
	SellToken   common.Address
	BuyToken    common.Address
	SellAmount  string
	SlippageBps int
}

// Service is the boundary consumed by API handlers and the CLI.
type Service interface {
	// GenerateAndStoreKey creates a random key for ownerID and stores it encrypted.
	GenerateAndStoreKey(ctx context.Context, ownerID string) (*Wallet, error)
	// ImportKeystore stores the key held by a keystore v3 document.
	ImportKeystore(ctx context.Context, ownerID string, keyJSON []byte, passphrase string) (*Wallet, error)
	// ExportKeystore returns the key at path as a passphrase protected keystore v3 document.
	ExportKeystore(ctx context.Context, path string, passphrase string) ([]byte, error)
	Address(ctx context.Context, path string) (common.Address, error)
	RotateKey(ctx context.Context, path string) (*Wallet, error)
	// Forget evicts the decrypted key for path from memory, e.g. on logout.
	Forget(path string) bool

	// Balances returns the native balance of the wallet at path followed by its balance of
	// each token. Results are served from memory for the configured TTL.
	Balances(ctx context.Context, path string, tokens []common.Address) ([]Balance, error)
	EstimateTransferGas(ctx context.Context, req *EstimateRequest) (*gas.Estimation, error)
	Transfer(ctx context.Context, req *txbuilder.TransferRequest) (*txbuilder.Result, error)
	ApproveSpender(ctx context.Context, req *txbuilder.ApproveRequest) (*txbuilder.Result, error)
	QuoteSwap(ctx context.Context, req *QuoteRequest) (*swap.Quote, error)
	ExecuteSwap(ctx context.Context, req *txbuilder.SwapRequest) (*txbuilder.SwapResult, error)
}
