package signer

import (
	"crypto/ecdsa"
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/pkg/errors"
)

const (
	signatureLength = 65
	// lengthPrefixSize is the width of the big-endian length word written before an
	// appended signature.
	lengthPrefixSize = 32
)

// ParsePrivateKey accepts a raw 32-byte key or its hex text, with or without 0x.
func ParsePrivateKey(material []byte) (*ecdsa.PrivateKey, error) {
	if len(material) == 32 {
		key, err := crypto.ToECDSA(material)
		if err != nil {
			return nil, errors.Wrap(err, "failed to convert private key to ECDSA")
		}
		return key, nil
	}

	text := strings.TrimPrefix(strings.TrimSpace(string(material)), "0x")
	raw, err := hex.DecodeString(text)
	if err != nil {
		return nil, errors.New("private key is neither raw bytes nor hex")
	}
	defer clear(raw)

	key, err := crypto.ToECDSA(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert private key to ECDSA")
	}

	return key, nil
}

// Address returns the account address of key.
func Address(key *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(key.PublicKey)
}

// SignTransaction builds and signs req with key.
func SignTransaction(req *TxRequest, key *ecdsa.PrivateKey) (*Signed, error) {
	if req.ChainID == nil {
		return nil, errors.New("chain id is required")
	}
	if req.From != (common.Address{}) && req.From != Address(key) {
		return nil, errors.New("from address does not match private key")
	}

	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	to := req.To

	var data types.TxData
	switch {
	case req.EIP1559():
		data = &types.DynamicFeeTx{
			ChainID:   req.ChainID,
			Nonce:     req.Nonce,
			GasTipCap: req.MaxPriorityFeePerGas,
			GasFeeCap: req.MaxFeePerGas,
			Gas:       req.GasLimit,
			To:        &to,
			Value:     value,
			Data:      req.Data,
		}
	case req.GasPrice != nil:
		data = &types.LegacyTx{
			Nonce:    req.Nonce,
			GasPrice: req.GasPrice,
			Gas:      req.GasLimit,
			To:       &to,
			Value:    value,
			Data:     req.Data,
		}
	default:
		return nil, errors.New("either gas price or dynamic fees are required")
	}

	//nolint:varnamelen // tx is a common abbreviation for transaction
	tx, err := types.SignNewTx(key, types.LatestSignerForChainID(req.ChainID), data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal transaction")
	}

	return &Signed{Tx: tx, Raw: raw, Hash: tx.Hash()}, nil
}

// SignTypedData signs the EIP-712 digest of typed. The recovery id is returned in the
// 27/28 form expected by on-chain verifiers.
func SignTypedData(typed *apitypes.TypedData, key *ecdsa.PrivateKey) ([]byte, error) {
	if typed == nil {
		return nil, errors.New("typed data is required")
	}

	digest, _, err := apitypes.TypedDataAndHash(*typed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash typed data")
	}

	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign typed data")
	}
	sig[crypto.RecoveryIDOffset] += 27

	return sig, nil
}

// RecoverTypedDataSigner returns the address that produced sig over typed.
func RecoverTypedDataSigner(typed *apitypes.TypedData, sig []byte) (common.Address, error) {
	if len(sig) != signatureLength {
		return common.Address{}, errors.New("invalid signature length")
	}

	digest, _, err := apitypes.TypedDataAndHash(*typed)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to hash typed data")
	}

	normalized := common.CopyBytes(sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(digest, normalized)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "failed to recover signer")
	}

	return crypto.PubkeyToAddress(*pub), nil
}

// AppendSignature returns data followed by the signature length as a 32-byte big-endian
// word and the signature itself.
func AppendSignature(data []byte, sig []byte) []byte {
	out := make([]byte, 0, len(data)+lengthPrefixSize+len(sig))
	out = append(out, data...)
	out = append(out, common.LeftPadBytes(big.NewInt(int64(len(sig))).Bytes(), lengthPrefixSize)...)
	out = append(out, sig...)

	return out
}
