package keystore_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/errs"
	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/keystore"
)

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := keystore.NewService(keystore.LightScryptParams())

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	raw := crypto.FromECDSA(key)

	doc, err := svc.Export(ctx, raw, "correct horse")
	require.NoError(t, err)

	var parsed struct {
		Version int    `json:"version"`
		Address string `json:"address"`
	}
	require.NoError(t, json.Unmarshal(doc, &parsed))
	assert.Equal(t, 3, parsed.Version)
	assert.NotContains(t, string(doc), common.Bytes2Hex(raw))

	out, err := svc.Import(ctx, doc, "correct horse")
	require.NoError(t, err)
	assert.Equal(t, raw, out)
}

func TestImportWrongPassphrase(t *testing.T) {
	ctx := context.Background()
	svc := keystore.NewService(keystore.LightScryptParams())

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	doc, err := svc.Export(ctx, crypto.FromECDSA(key), "correct horse")
	require.NoError(t, err)

	_, err = svc.Import(ctx, doc, "wrong horse")
	assert.True(t, errors.Is(err, errs.ErrDecryption))

	_, err = svc.Import(ctx, []byte("{}"), "whatever1")
	assert.Error(t, err)
}

func TestExportRequiresPassphrase(t *testing.T) {
	svc := keystore.NewService(keystore.LightScryptParams())

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	_, err = svc.Export(context.Background(), crypto.FromECDSA(key), "short")
	assert.True(t, errors.Is(err, errs.ErrInvalidRequest))
}
