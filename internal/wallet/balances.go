package wallet

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Shahnawazkhan83/crypto-vault/internal/util"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/swap"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/token"
)

// DefaultBalanceTTL is how long a looked up balance is served from memory.
const DefaultBalanceTTL = 2 * time.Minute

// balanceLookups caps the node calls one Balances request has in flight.
const balanceLookups = 4

// Balance is one holding of a wallet. Token is nil for the native currency. A lookup
// that failed reports Amount "0" and a non-empty Error; it is not cached.
type Balance struct {
	Token    *common.Address `json:"token,omitempty"`
	Decimals uint8           `json:"decimals"`
	Amount   string          `json:"amount"`
	Error    string          `json:"error,omitempty"`
}

type cachedBalance struct {
	decimals uint8
	amount   string
}

func (s *service) Balances(ctx context.Context, path string, tokens []common.Address) ([]Balance, error) {
	if err := s.requireChain(); err != nil {
		return nil, err
	}

	owner, err := s.Address(ctx, path)
	if err != nil {
		return nil, err
	}

	balances := make([]Balance, 0, len(tokens)+1)
	balances = append(balances, Balance{Decimals: token.NativeDecimals})
	for _, t := range tokens {
		if t == swap.NativeToken || t == (common.Address{}) {
			continue
		}
		balances = append(balances, Balance{Token: &t})
	}

	var g errgroup.Group
	g.SetLimit(balanceLookups)
	for i := range balances {
		g.Go(func() error {
			s.lookupBalance(ctx, owner, &balances[i])
			return nil
		})
	}
	_ = g.Wait()

	return balances, nil
}

func (s *service) lookupBalance(ctx context.Context, owner common.Address, b *Balance) {
	key := balanceKey(owner, b.Token)
	if cached, ok := s.balances.Get(key); ok {
		b.Decimals, b.Amount = cached.decimals, cached.amount
		return
	}

	decimals, raw, err := s.fetchBalance(ctx, owner, b.Token)
	if err != nil {
		util.LogFromContext(ctx).Warn().Err(err).Str("balance", key).Msg("Failed to fetch balance")
		b.Amount = "0"
		b.Error = "failed to fetch balance"
		return
	}

	b.Decimals = decimals
	b.Amount = token.FormatUnits(raw, decimals)
	s.balances.Set(key, cachedBalance{decimals: decimals, amount: b.Amount}, s.balanceTTL)
}

func (s *service) fetchBalance(ctx context.Context, owner common.Address, tokenAddr *common.Address) (uint8, *big.Int, error) {
	if tokenAddr == nil {
		wei, err := s.node.BalanceAt(ctx, owner)
		if err != nil {
			return 0, nil, err
		}
		if wei == nil {
			return 0, nil, errors.New("node returned no balance")
		}

		return token.NativeDecimals, wei, nil
	}

	decimals, err := s.builder.TokenDecimals(ctx, *tokenAddr)
	if err != nil {
		return 0, nil, err
	}

	data, err := token.PackBalanceOf(owner)
	if err != nil {
		return 0, nil, err
	}

	out, err := s.node.CallContract(ctx, ethereum.CallMsg{To: tokenAddr, Data: data})
	if err != nil {
		return 0, nil, errors.Wrap(err, "failed to call balanceOf")
	}

	amount, err := token.UnpackBalance(out)
	if err != nil {
		return 0, nil, err
	}

	return decimals, amount, nil
}

func balanceKey(owner common.Address, tokenAddr *common.Address) string {
	if tokenAddr == nil {
		return owner.Hex() + ":native"
	}

	return owner.Hex() + ":" + tokenAddr.Hex()
}
