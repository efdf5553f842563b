package chain

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// RPCClient implements Node on top of one or more JSON-RPC endpoints. Calls go to the
// current endpoint. When it does not answer at all, read calls move on to the next one;
// an error reply from a node is returned as is. The lock only guards endpoint selection,
// never a network call.
type RPCClient struct {
	urls []string

	mu      sync.Mutex
	clients []*ethclient.Client
	current int
}

var _ Node = (*RPCClient)(nil)

// NewRPCClient dials every URL. Endpoints that fail to dial are retried on use; it is an
// error only when none can be dialled.
func NewRPCClient(urls []string) (*RPCClient, error) {
	if len(urls) == 0 {
		return nil, errors.New("at least one RPC URL is required")
	}

	clients := make([]*ethclient.Client, len(urls))
	connected := 0
	for i, url := range urls {
		client, err := ethclient.Dial(url)
		if err != nil {
			log.Warn().Str("url", redactURL(url)).Err(err).Msg("Failed to connect to RPC node, will retry on use")
			continue
		}
		clients[i] = client
		connected++
	}

	if connected == 0 {
		return nil, errors.New("failed to connect to any RPC node")
	}

	return &RPCClient{urls: urls, clients: clients}, nil
}

// Close closes all connections.
func (c *RPCClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, client := range c.clients {
		if client != nil {
			client.Close()
			c.clients[i] = nil
		}
	}
}

func (c *RPCClient) ChainID(ctx context.Context) (*big.Int, error) {
	var chainID *big.Int
	err := c.read(ctx, "failed to get chain ID", func(client *ethclient.Client) (err error) {
		chainID, err = client.ChainID(ctx)
		return err
	})

	return chainID, err
}

func (c *RPCClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	var gas uint64
	err := c.read(ctx, "failed to estimate gas", func(client *ethclient.Client) (err error) {
		gas, err = client.EstimateGas(ctx, msg)
		return err
	})

	return gas, err
}

// FeeData reads the legacy gas price and, when the latest header carries a base fee,
// derives dynamic fees as maxFee = 2*baseFee + tip.
func (c *RPCClient) FeeData(ctx context.Context) (*FeeData, error) {
	var fees *FeeData
	err := c.read(ctx, "failed to read fee data", func(client *ethclient.Client) error {
		gasPrice, err := client.SuggestGasPrice(ctx)
		if err != nil {
			return err
		}

		header, err := client.HeaderByNumber(ctx, nil)
		if err != nil {
			return err
		}

		fees = &FeeData{GasPrice: gasPrice}
		if header.BaseFee == nil {
			return nil
		}

		tip, err := client.SuggestGasTipCap(ctx)
		if err != nil {
			return err
		}

		fees.MaxPriorityFeePerGas = tip
		fees.MaxFeePerGas = new(big.Int).Add(new(big.Int).Mul(header.BaseFee, big.NewInt(2)), tip)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return fees, nil
}

func (c *RPCClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	var nonce uint64
	err := c.read(ctx, "failed to get pending nonce", func(client *ethclient.Client) (err error) {
		nonce, err = client.PendingNonceAt(ctx, account)
		return err
	})

	return nonce, err
}

func (c *RPCClient) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	var balance *big.Int
	err := c.read(ctx, "failed to get balance", func(client *ethclient.Client) (err error) {
		balance, err = client.BalanceAt(ctx, account, nil)
		return err
	})

	return balance, err
}

func (c *RPCClient) CallContract(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	var out []byte
	err := c.read(ctx, "failed to call contract", func(client *ethclient.Client) (err error) {
		out, err = client.CallContract(ctx, msg, nil)
		return err
	})

	return out, err
}

// SendTransaction submits to the current endpoint only. A transport failure moves the
// next call to another endpoint but the transaction is not resent.
func (c *RPCClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	idx := c.currentIndex()

	client, err := c.clientAt(ctx, idx)
	if err == nil {
		err = client.SendTransaction(ctx, tx)
	}
	if err != nil {
		if isTransportError(ctx, err) {
			c.markFailed(idx, err)
		}
		return errors.Wrap(err, "failed to send transaction")
	}

	return nil
}

func (c *RPCClient) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	var receipt *types.Receipt
	err := c.read(ctx, "failed to get transaction receipt", func(client *ethclient.Client) (err error) {
		receipt, err = client.TransactionReceipt(ctx, hash)
		return err
	})

	return receipt, err
}

// read runs fn against the current endpoint and, while endpoints fail to answer, against
// the following ones.
func (c *RPCClient) read(ctx context.Context, msg string, fn func(*ethclient.Client) error) error {
	start := c.currentIndex()

	var lastErr error
	for i := range c.urls {
		idx := (start + i) % len(c.urls)

		client, err := c.clientAt(ctx, idx)
		if err == nil {
			err = fn(client)
		}
		if err == nil {
			c.setCurrent(idx)
			return nil
		}
		if !isTransportError(ctx, err) {
			// ethereum.NotFound is part of the Node contract and stays unwrapped.
			if errors.Is(err, ethereum.NotFound) {
				return err
			}
			return errors.Wrap(err, msg)
		}

		c.markFailed(idx, err)
		lastErr = err
	}

	return errors.Wrap(lastErr, "all RPC endpoints are unavailable")
}

func (c *RPCClient) currentIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current
}

func (c *RPCClient) setCurrent(idx int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = idx
}

// markFailed moves the current endpoint past idx unless another call already did.
func (c *RPCClient) markFailed(idx int, err error) {
	log.Warn().Str("url", redactURL(c.urls[idx])).Err(err).Msg("RPC endpoint failed, trying next")

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == idx {
		c.current = (idx + 1) % len(c.urls)
	}
}

// clientAt returns the connection for endpoint idx, dialling it outside the lock when it
// is missing.
func (c *RPCClient) clientAt(ctx context.Context, idx int) (*ethclient.Client, error) {
	c.mu.Lock()
	client := c.clients[idx]
	c.mu.Unlock()
	if client != nil {
		return client, nil
	}

	dialled, err := ethclient.DialContext(ctx, c.urls[idx])
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.clients[idx] != nil {
		dialled.Close()
		return c.clients[idx], nil
	}
	c.clients[idx] = dialled

	return dialled, nil
}

// isTransportError reports whether err means the endpoint did not answer, as opposed to
// a node reply such as a revert or a missing receipt.
func isTransportError(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, ethereum.NotFound) {
		return false
	}

	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return false
	}

	return true
}
