package pkcs8

import (
	"errors"
	"fmt"

	"github.com/rbaliyan/pkcs8/internal/secmem"
	"github.com/rbaliyan/pkcs8/pbe"
)

// Encrypt encodes the container and wraps the encoding with
// password-based encryption, returning a DER EncryptedPrivateKeyInfo.
// The passphrase is treated as text; legacy schemes whose key
// derivation is defined over text passwords accept this form.
func (k *KeyInfo) Encrypt(passphrase string, params *pbe.Params) ([]byte, error) {
	return k.encrypt([]byte(passphrase), pbe.TextPassword, params)
}

// EncryptBytes is Encrypt for raw byte passwords. Schemes that are
// defined only over text passwords reject this form with
// ErrUnsupportedParameters.
func (k *KeyInfo) EncryptBytes(password []byte, params *pbe.Params) ([]byte, error) {
	return k.encrypt(password, pbe.RawPassword, params)
}

// TryEncrypt is Encrypt writing into dst. It returns false, with a nil
// error and nothing written, when dst is too small; any other failure
// is reported through the error.
func (k *KeyInfo) TryEncrypt(passphrase string, params *pbe.Params, dst []byte) (int, bool, error) {
	return k.tryEncrypt([]byte(passphrase), pbe.TextPassword, params, dst)
}

// TryEncryptBytes is TryEncrypt for raw byte passwords.
func (k *KeyInfo) TryEncryptBytes(password []byte, params *pbe.Params, dst []byte) (int, bool, error) {
	return k.tryEncrypt(password, pbe.RawPassword, params, dst)
}

func (k *KeyInfo) tryEncrypt(password []byte, form pbe.PasswordForm, params *pbe.Params, dst []byte) (int, bool, error) {
	out, err := k.encrypt(password, form, params)
	if err != nil {
		return 0, false, err
	}
	if len(out) > len(dst) {
		return 0, false, nil
	}
	return copy(dst, out), true, nil
}

func (k *KeyInfo) encrypt(password []byte, form pbe.PasswordForm, params *pbe.Params) (_ []byte, retErr error) {
	span := startSpan("pkcs8.Encrypt")
	defer func() {
		recordOp("encrypt", retErr)
		endSpan(span, retErr)
	}()

	if params == nil {
		return nil, fmt.Errorf("%w: encryption parameters are required", ErrInvalidArgument)
	}
	if err := params.Validate(form); err != nil {
		return nil, mapPBEError(err)
	}

	plaintext, err := k.Encode()
	if err != nil {
		return nil, err
	}
	defer secmem.Wipe(plaintext)

	out, err := pbe.Wrap(plaintext, password, form, params)
	if err != nil {
		return nil, mapPBEError(err)
	}
	return out, nil
}

// mapPBEError translates the PBE engine's sentinels into this
// package's taxonomy, preserving the chain for errors.Is.
func mapPBEError(err error) error {
	switch {
	case errors.Is(err, pbe.ErrUnsupported):
		return fmt.Errorf("%w: %v", ErrUnsupportedParameters, err)
	case errors.Is(err, pbe.ErrMalformed):
		return fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	case errors.Is(err, pbe.ErrDecryptionFailed):
		return fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	default:
		return err
	}
}
