package test

import (
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/require"
)

// PermitJSON is a Permit2 PermitTransferFrom payload as returned by the quote API.
const PermitJSON = `{
  "types": {
    "EIP712Domain": [
      {"name": "name", "type": "string"},
      {"name": "chainId", "type": "uint256"},
      {"name": "verifyingContract", "type": "address"}
    ],
    "PermitTransferFrom": [
      {"name": "permitted", "type": "TokenPermissions"},
      {"name": "spender", "type": "address"},
      {"name": "nonce", "type": "uint256"},
      {"name": "deadline", "type": "uint256"}
    ],
    "TokenPermissions": [
      {"name": "token", "type": "address"},
      {"name": "amount", "type": "uint256"}
    ]
  },
  "primaryType": "PermitTransferFrom",
  "domain": {
    "name": "Permit2",
    "chainId": "1",
    "verifyingContract": "0x000000000022D473030F116dDEE9F6B43aC78BA3"
  },
  "message": {
    "permitted": {
      "token": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
      "amount": "1000000"
    },
    "spender": "0x0000000000001fF3684f28c67538d4D072C22734",
    "nonce": "42",
    "deadline": "1893456000"
  }
}`

// NewPermit decodes PermitJSON.
func NewPermit(t *testing.T) *apitypes.TypedData {
	t.Helper()

	var typed apitypes.TypedData
	require.NoError(t, json.Unmarshal([]byte(PermitJSON), &typed))

	return &typed
}
