package encryption

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	kmstypes "github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/pkg/errors"

	"github.com/Shahnawazkhan83/crypto-vault/internal/wallet/errs"
)

// KMSAPI is the subset of the AWS KMS client used by Remote.
type KMSAPI interface {
	Encrypt(ctx context.Context, params *kms.EncryptInput, optFns ...func(*kms.Options)) (*kms.EncryptOutput, error)
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// Remote delegates to an envelope-encryption service holding the master key.
type Remote struct {
	api   KMSAPI
	keyID string
}

// NewRemote returns a Remote backend bound to the master key keyID.
func NewRemote(api KMSAPI, keyID string) (*Remote, error) {
	if api == nil || keyID == "" {
		return nil, errs.New(errs.KindBackendUnavailable, "kms client or key id is not configured")
	}

	return &Remote{api: api, keyID: keyID}, nil
}

// LoadKMSClient builds an AWS KMS client from the default credential chain.
func LoadKMSClient(ctx context.Context, region string) (*kms.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load aws config")
	}

	return kms.NewFromConfig(cfg), nil
}

// Kind implements Backend.
func (r *Remote) Kind() Kind {
	return KindRemote
}

// Encrypt sends plaintext to the service. Any failure, including an empty response, is a
// BackendUnavailable error so that callers may fall back to another backend.
func (r *Remote) Encrypt(ctx context.Context, plaintext []byte) (*Sealed, error) {
	out, err := r.api.Encrypt(ctx, &kms.EncryptInput{
		KeyId:     aws.String(r.keyID),
		Plaintext: plaintext,
	})
	if err != nil {
		return nil, errs.Wrap(errs.KindBackendUnavailable, err, "kms encrypt")
	}
	if out == nil || len(out.CiphertextBlob) == 0 {
		return nil, errs.New(errs.KindBackendUnavailable, "kms encrypt returned no ciphertext")
	}

	return &Sealed{
		Kind:       KindRemote,
		Ciphertext: out.CiphertextBlob,
	}, nil
}

// Decrypt asks the service to open the envelope. Rejected ciphertext is a DecryptionError,
// every other failure a BackendUnavailable error.
func (r *Remote) Decrypt(ctx context.Context, sealed *Sealed) ([]byte, error) {
	if sealed == nil || sealed.Kind != KindRemote {
		return nil, errs.New(errs.KindDecryption, "record was not sealed by the remote backend")
	}
	if len(sealed.Nonce) != 0 || len(sealed.Tag) != 0 || len(sealed.Ciphertext) == 0 {
		return nil, errs.New(errs.KindDecryption, "malformed remote envelope")
	}

	out, err := r.api.Decrypt(ctx, &kms.DecryptInput{
		KeyId:          aws.String(r.keyID),
		CiphertextBlob: sealed.Ciphertext,
	})
	if err != nil {
		var invalid *kmstypes.InvalidCiphertextException
		var incorrect *kmstypes.IncorrectKeyException
		if errors.As(err, &invalid) || errors.As(err, &incorrect) {
			return nil, errs.Wrap(errs.KindDecryption, err, "kms rejected ciphertext")
		}
		return nil, errs.Wrap(errs.KindBackendUnavailable, err, "kms decrypt")
	}
	if out == nil || len(out.Plaintext) == 0 {
		return nil, errs.New(errs.KindBackendUnavailable, "kms decrypt returned no plaintext")
	}

	return out.Plaintext, nil
}
