package signer_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shahnawazkhan83/crypto-vault/internal/test"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/signer"
)

func TestParsePrivateKey(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	raw := crypto.FromECDSA(key)

	fromRaw, err := signer.ParsePrivateKey(raw)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(key), signer.Address(fromRaw))

	fromHex, err := signer.ParsePrivateKey([]byte("0x" + common.Bytes2Hex(raw)))
	require.NoError(t, err)
	assert.Equal(t, signer.Address(key), signer.Address(fromHex))

	_, err = signer.ParsePrivateKey([]byte("not a key"))
	assert.Error(t, err)
}

func TestSignTransaction(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	chainID := big.NewInt(11155111)

	tests := []struct {
		name   string
		req    signer.TxRequest
		txType uint8
	}{
		{
			name: "dynamic fee",
			req: signer.TxRequest{
				MaxFeePerGas:         big.NewInt(50),
				MaxPriorityFeePerGas: big.NewInt(2),
			},
			txType: types.DynamicFeeTxType,
		},
		{
			name:   "legacy",
			req:    signer.TxRequest{GasPrice: big.NewInt(30)},
			txType: types.LegacyTxType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			req.ChainID = chainID
			req.Nonce = 7
			req.From = signer.Address(key)
			req.To = common.HexToAddress("0x00000000000000000000000000000000000000aa")
			req.Value = big.NewInt(1)
			req.GasLimit = 21000

			signed, err := signer.SignTransaction(&req, key)
			require.NoError(t, err)
			assert.Equal(t, tt.txType, signed.Tx.Type())
			assert.Equal(t, signed.Tx.Hash(), signed.Hash)

			sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed.Tx)
			require.NoError(t, err)
			assert.Equal(t, signer.Address(key), sender)

			var decoded types.Transaction
			require.NoError(t, decoded.UnmarshalBinary(signed.Raw))
			assert.Equal(t, signed.Hash, decoded.Hash())
		})
	}
}

func TestSignTransactionRejectsMismatchedFrom(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	_, err = signer.SignTransaction(&signer.TxRequest{
		ChainID:  big.NewInt(1),
		From:     common.HexToAddress("0x01"),
		GasPrice: big.NewInt(1),
	}, key)
	assert.Error(t, err)
}

func TestSignTransactionRequiresFees(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	_, err = signer.SignTransaction(&signer.TxRequest{ChainID: big.NewInt(1)}, key)
	assert.Error(t, err)
}

func TestSignTypedData(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	permit := test.NewPermit(t)

	sig, err := signer.SignTypedData(permit, key)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])

	recovered, err := signer.RecoverTypedDataSigner(permit, sig)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(key), recovered)
}

func TestAppendSignature(t *testing.T) {
	data := []byte{0xde, 0xad, 0xbe, 0xef}
	sig := make([]byte, 65)
	sig[0] = 0x11

	out := signer.AppendSignature(data, sig)

	require.Len(t, out, 4+32+65)
	assert.Equal(t, data, out[:4])
	assert.Equal(t, common.LeftPadBytes([]byte{65}, 32), out[4:36])
	assert.Equal(t, sig, out[36:])
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, data)
}
