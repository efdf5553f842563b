package chain

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

// DefaultPollInterval is the receipt polling interval used when none is configured.
const DefaultPollInterval = 2 * time.Second

// WaitMined polls node until the receipt for hash is available or ctx is done.
func WaitMined(ctx context.Context, node Node, hash common.Hash, interval time.Duration) (*types.Receipt, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := node.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, errors.Wrap(err, "failed to get transaction receipt")
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "stopped waiting for receipt")
		case <-ticker.C:
		}
	}
}
