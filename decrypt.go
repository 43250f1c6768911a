package pkcs8

import (
	"fmt"

	"github.com/rbaliyan/pkcs8/pbe"
)

// DecryptAndDecode reads one EncryptedPrivateKeyInfo from the front of
// src, decrypts it with the passphrase, and decodes the plaintext as a
// KeyInfo. It returns the container and the number of bytes consumed
// from src.
//
// Bytes trailing the outer encrypted value are tolerated, so the
// wrapper can sit inside a larger container format. The decrypted
// plaintext itself must decode to its full length; trailing bytes
// there are rejected with ErrMalformedEncoding. The intermediate
// plaintext buffer is wiped and returned to its pool on every exit
// path, and the resulting KeyInfo never aliases it.
func DecryptAndDecode(passphrase string, src []byte) (*KeyInfo, int, error) {
	return decryptAndDecode([]byte(passphrase), pbe.TextPassword, src)
}

// DecryptAndDecodeBytes is DecryptAndDecode for raw byte passwords.
// Legacy schemes that are defined only over text passwords reject this
// form with ErrUnsupportedParameters.
func DecryptAndDecodeBytes(password, src []byte) (*KeyInfo, int, error) {
	return decryptAndDecode(password, pbe.RawPassword, src)
}

func decryptAndDecode(password []byte, form pbe.PasswordForm, src []byte) (_ *KeyInfo, _ int, retErr error) {
	span := startSpan("pkcs8.DecryptAndDecode")
	defer func() {
		recordOp("decrypt", retErr)
		endSpan(span, retErr)
	}()

	scratch, n, err := pbe.Unwrap(src, password, form)
	if err != nil {
		return nil, 0, mapPBEError(err)
	}
	defer scratch.Release()

	k, used, err := decode(scratch.Bytes(), options{})
	if err != nil {
		return nil, 0, err
	}
	if used != scratch.Len() {
		return nil, 0, fmt.Errorf("%w: %d trailing bytes after decrypted key",
			ErrMalformedEncoding, scratch.Len()-used)
	}
	return k, n, nil
}
