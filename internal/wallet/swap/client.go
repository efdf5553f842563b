package swap

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dropbox/godropbox/time2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"

	"github.com/Shahnawazkhan83/crypto-vault/internal/util"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/errs"
)

const (
	DefaultBaseURL       = "https://api.0x.org"
	DefaultQuoteValidity = 5 * time.Minute
	DefaultSlippageBps   = 100

	quotePath  = "/swap/permit2/quote"
	apiVersion = "v2"
	// maxErrorBody caps how much of a failed response is read for its reason.
	maxErrorBody = 64 << 10
)

// QuoteRequest selects the swap to quote.
type QuoteRequest struct {
	SellToken   common.Address
	BuyToken    common.Address
	SellAmount  *big.Int
	Taker       common.Address
	ChainID     int64
	SlippageBps int // zero uses the client default
}

// Quoter fetches executable quotes.
type Quoter interface {
	GetQuote(ctx context.Context, req *QuoteRequest) (*Quote, error)
}

// ClientConfig configures a Client. Zero values use the package defaults.
type ClientConfig struct {
	BaseURL     string
	APIKey      string
	Validity    time.Duration
	SlippageBps int
	HTTPClient  *http.Client
	Clock       time2.Clock
}

// Client talks to the 0x swap API, version 2, permit2 flavour.
type Client struct {
	baseURL     string
	apiKey      string
	validity    time.Duration
	slippageBps int
	http        *http.Client
	clock       time2.Clock
}

var _ Quoter = (*Client)(nil)

func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		validity:    cfg.Validity,
		slippageBps: cfg.SlippageBps,
		http:        cfg.HTTPClient,
		clock:       cfg.Clock,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.validity <= 0 {
		c.validity = DefaultQuoteValidity
	}
	if c.slippageBps <= 0 {
		c.slippageBps = DefaultSlippageBps
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 15 * time.Second}
	}
	if c.clock == nil {
		c.clock = time2.DefaultClock
	}

	return c
}

type quoteResponse struct {
	LiquidityAvailable *bool  `json:"liquidityAvailable"`
	SellToken          string `json:"sellToken"`
	BuyToken           string `json:"buyToken"`
	SellAmount         string `json:"sellAmount"`
	BuyAmount          string `json:"buyAmount"`
	Issues             struct {
		Allowance *struct {
			Spender string `json:"spender"`
		} `json:"allowance"`
	} `json:"issues"`
	Permit2 *struct {
		EIP712 *apitypes.TypedData `json:"eip712"`
	} `json:"permit2"`
	Transaction struct {
		To    string `json:"to"`
		Data  string `json:"data"`
		Value string `json:"value"`
	} `json:"transaction"`
}

type errorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

// GetQuote requests a firm quote. The returned quote is valid for the configured
// validity window from now.
func (c *Client) GetQuote(ctx context.Context, req *QuoteRequest) (*Quote, error) {
	if req == nil || req.SellAmount == nil || req.SellAmount.Sign() <= 0 {
		return nil, errs.New(errs.KindInvalidRequest, "sell amount must be positive")
	}
	if req.Taker == (common.Address{}) {
		return nil, errs.New(errs.KindInvalidRequest, "taker is required")
	}

	slippage := req.SlippageBps
	if slippage <= 0 {
		slippage = c.slippageBps
	}

	params := url.Values{}
	params.Set("chainId", strconv.FormatInt(req.ChainID, 10))
	params.Set("sellToken", req.SellToken.Hex())
	params.Set("buyToken", req.BuyToken.Hex())
	params.Set("sellAmount", req.SellAmount.String())
	params.Set("taker", req.Taker.Hex())
	params.Set("slippageBps", strconv.Itoa(slippage))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+quotePath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build quote request")
	}
	httpReq.Header.Set("0x-api-key", c.apiKey)
	httpReq.Header.Set("0x-version", apiVersion)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to request swap quote")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Errorf("failed to get swap quote: %s", readReason(resp))
	}

	var body quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.Wrap(err, "failed to decode swap quote")
	}

	quote, err := c.toQuote(&body, req)
	if err != nil {
		return nil, err
	}

	util.LogFromContext(ctx).Debug().
		Str("sell_token", quote.SellToken.Hex()).
		Str("buy_token", quote.BuyToken.Hex()).
		Str("sell_amount", quote.SellAmount.String()).
		Str("buy_amount", quote.BuyAmount.String()).
		Bool("permit", quote.Permit != nil).
		Msg("Received swap quote")

	return quote, nil
}

func (c *Client) toQuote(body *quoteResponse, req *QuoteRequest) (*Quote, error) {
	if body.LiquidityAvailable != nil && !*body.LiquidityAvailable {
		return nil, errs.New(errs.KindInvalidRequest, "no liquidity available for this pair")
	}
	if !common.IsHexAddress(body.Transaction.To) {
		return nil, errs.New(errs.KindInvalidRequest, "quote has no valid target contract")
	}

	data, err := hexutil.Decode(body.Transaction.Data)
	if err != nil {
		return nil, errs.Wrap(errs.KindInvalidRequest, err, "quote calldata is not hex")
	}

	value, err := parseAmount(body.Transaction.Value, true)
	if err != nil {
		return nil, err
	}
	sellAmount, err := parseAmount(body.SellAmount, false)
	if err != nil {
		return nil, err
	}
	buyAmount, err := parseAmount(body.BuyAmount, false)
	if err != nil {
		return nil, err
	}

	quote := &Quote{
		To:              common.HexToAddress(body.Transaction.To),
		Data:            data,
		Value:           value,
		ValidTo:         c.clock.Now().Add(c.validity),
		SellToken:       req.SellToken,
		BuyToken:        req.BuyToken,
		SellAmount:      sellAmount,
		BuyAmount:       buyAmount,
		Taker:           req.Taker,
		AllowanceTarget: Permit2Address,
		ChainID:         req.ChainID,
	}
	if common.IsHexAddress(body.SellToken) {
		quote.SellToken = common.HexToAddress(body.SellToken)
	}
	if common.IsHexAddress(body.BuyToken) {
		quote.BuyToken = common.HexToAddress(body.BuyToken)
	}
	if body.Issues.Allowance != nil && common.IsHexAddress(body.Issues.Allowance.Spender) {
		quote.AllowanceTarget = common.HexToAddress(body.Issues.Allowance.Spender)
	}
	if body.Permit2 != nil && body.Permit2.EIP712 != nil {
		quote.Permit = body.Permit2.EIP712
	}

	return quote, nil
}

func parseAmount(s string, optional bool) (*big.Int, error) {
	if s == "" && optional {
		return new(big.Int), nil
	}

	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, errs.New(errs.KindInvalidRequest, "invalid amount %q in quote", s)
	}

	return v, nil
}

func readReason(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body errorResponse
	if err := json.Unmarshal(raw, &body); err == nil {
		for _, s := range []string{body.Reason, body.Message, body.Name} {
			if s != "" {
				return s
			}
		}
	}

	return resp.Status
}
