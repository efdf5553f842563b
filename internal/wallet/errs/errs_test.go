package errs_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/errs"
)

func TestErrorMatchesSentinelByKind(t *testing.T) {
	err := errs.New(errs.KindNotFound, "key path %s", "wallet/u1/abc")

	assert.True(t, errors.Is(err, errs.ErrNotFound))
	assert.False(t, errors.Is(err, errs.ErrDecryption))
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
	assert.Equal(t, "not_found: key path wallet/u1/abc", err.Error())
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := errs.Wrap(errs.KindBackendUnavailable, cause, "kms encrypt")

	assert.True(t, errors.Is(err, errs.ErrBackendUnavailable))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection refused")

	wrapped := errors.Wrap(err, "failed to store key")
	assert.Equal(t, errs.KindBackendUnavailable, errs.KindOf(wrapped))
}

func TestKindOfUnclassified(t *testing.T) {
	assert.Equal(t, errs.Kind(""), errs.KindOf(errors.New("plain")))
	assert.Equal(t, errs.Kind(""), errs.KindOf(nil))
}
