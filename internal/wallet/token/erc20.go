// Package token encodes ERC-20 calls and converts between decimal and base units.
package token

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

const erc20ABI = `[
  {"type":"function","name":"transfer","stateMutability":"nonpayable",
   "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"approve","stateMutability":"nonpayable",
   "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"allowance","stateMutability":"view",
   "inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view",
   "inputs":[{"name":"account","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"decimals","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"uint8"}]}
]`

// ERC20 is the parsed token ABI.
var ERC20 = mustParse(erc20ABI)

// MaxUint256 is the unlimited allowance amount.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// Selectors of the encoded methods.
var (
	TransferSelector  = ERC20.Methods["transfer"].ID
	ApproveSelector   = ERC20.Methods["approve"].ID
	AllowanceSelector = ERC20.Methods["allowance"].ID
	DecimalsSelector  = ERC20.Methods["decimals"].ID
	BalanceOfSelector = ERC20.Methods["balanceOf"].ID
)

func mustParse(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}

	return parsed
}

// PackTransfer encodes transfer(to, amount).
func PackTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	data, err := ERC20.Pack("transfer", to, amount)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack transfer")
	}

	return data, nil
}

// PackApprove encodes approve(spender, amount).
func PackApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	data, err := ERC20.Pack("approve", spender, amount)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack approve")
	}

	return data, nil
}

// PackAllowance encodes allowance(owner, spender).
func PackAllowance(owner common.Address, spender common.Address) ([]byte, error) {
	data, err := ERC20.Pack("allowance", owner, spender)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack allowance")
	}

	return data, nil
}

// PackBalanceOf encodes balanceOf(account).
func PackBalanceOf(account common.Address) ([]byte, error) {
	data, err := ERC20.Pack("balanceOf", account)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack balanceOf")
	}

	return data, nil
}

// PackDecimals encodes decimals().
func PackDecimals() []byte {
	data, err := ERC20.Pack("decimals")
	if err != nil {
		panic(err)
	}

	return data
}

// UnpackAllowance decodes the allowance return value.
func UnpackAllowance(out []byte) (*big.Int, error) {
	values, err := ERC20.Unpack("allowance", out)
	if err != nil {
		return nil, errors.Wrap(err, "failed to unpack allowance")
	}

	amount, ok := values[0].(*big.Int)
	if !ok {
		return nil, errors.New("unexpected allowance type")
	}

	return amount, nil
}

// UnpackBalance decodes the balanceOf return value.
func UnpackBalance(out []byte) (*big.Int, error) {
	values, err := ERC20.Unpack("balanceOf", out)
	if err != nil {
		return nil, errors.Wrap(err, "failed to unpack balance")
	}

	amount, ok := values[0].(*big.Int)
	if !ok {
		return nil, errors.New("unexpected balance type")
	}

	return amount, nil
}

// UnpackDecimals decodes the decimals return value.
func UnpackDecimals(out []byte) (uint8, error) {
	values, err := ERC20.Unpack("decimals", out)
	if err != nil {
		return 0, errors.Wrap(err, "failed to unpack decimals")
	}

	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, errors.New("unexpected decimals type")
	}

	return decimals, nil
}
