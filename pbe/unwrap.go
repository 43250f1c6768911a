package pbe

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"encoding/asn1"
	"fmt"

	"github.com/rbaliyan/pkcs8/internal/der"
	"github.com/rbaliyan/pkcs8/internal/secmem"
)

// Unwrap reads one EncryptedPrivateKeyInfo from the front of src,
// decrypts it with password, and returns the plaintext in a pooled
// scratch buffer together with the number of source bytes consumed.
// Bytes trailing the encrypted value are tolerated and left
// unconsumed.
//
// The caller owns the returned buffer and must call Release when done
// with it; Release wipes the plaintext before the buffer is reused.
func Unwrap(src, password []byte, form PasswordForm) (*secmem.Buffer, int, error) {
	n, err := der.PeekLength(src)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var info encryptedPrivateKeyInfo
	if err := unmarshalExact(src[:n], &info); err != nil {
		return nil, 0, err
	}

	var buf *secmem.Buffer
	switch {
	case info.Algo.Algorithm.Equal(oidPBES2):
		buf, err = unwrapPBES2(info, password)
	case info.Algo.Algorithm.Equal(oidPBEWithSHAAnd3KeyTripleDESCBC):
		if form != TextPassword {
			return nil, 0, fmt.Errorf("%w: pbeWithSHAAnd3-KeyTripleDES-CBC is defined only for text passwords", ErrUnsupported)
		}
		buf, err = unwrap3DES(info, password)
	default:
		return nil, 0, fmt.Errorf("%w: encryption algorithm %v", ErrUnsupported, info.Algo.Algorithm)
	}
	if err != nil {
		return nil, 0, err
	}
	return buf, n, nil
}

func unwrapPBES2(info encryptedPrivateKeyInfo, password []byte) (*secmem.Buffer, error) {
	var params pbes2Params
	if err := unmarshalExact(info.Algo.Parameters.FullBytes, &params); err != nil {
		return nil, err
	}

	scheme := params.EncryptionScheme
	switch {
	case scheme.Algorithm.Equal(oidAES128CBC), scheme.Algorithm.Equal(oidAES192CBC), scheme.Algorithm.Equal(oidAES256CBC):
		var iv []byte
		if err := unmarshalExact(scheme.Parameters.FullBytes, &iv); err != nil {
			return nil, err
		}
		if len(iv) != aes.BlockSize {
			return nil, fmt.Errorf("%w: bad IV length %d", ErrMalformed, len(iv))
		}
		key, err := deriveFromKDFAlg(password, params.KeyDerivationFunc, cbcKeySize(scheme.Algorithm))
		if err != nil {
			return nil, err
		}
		defer secmem.Wipe(key)
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
		}
		return decryptCBC(block, iv, info.EncryptedData)

	case scheme.Algorithm.Equal(oidAES128GCM), scheme.Algorithm.Equal(oidAES256GCM):
		var gp gcmParams
		if err := unmarshalExact(scheme.Parameters.FullBytes, &gp); err != nil {
			return nil, err
		}
		keyLen := 32
		if scheme.Algorithm.Equal(oidAES128GCM) {
			keyLen = 16
		}
		key, err := deriveFromKDFAlg(password, params.KeyDerivationFunc, keyLen)
		if err != nil {
			return nil, err
		}
		defer secmem.Wipe(key)
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
		}
		return decryptGCM(block, gp, info.EncryptedData)

	default:
		return nil, fmt.Errorf("%w: encryption scheme %v", ErrUnsupported, scheme.Algorithm)
	}
}

func unwrap3DES(info encryptedPrivateKeyInfo, password []byte) (*secmem.Buffer, error) {
	var params pkcs12PBEParams
	if err := unmarshalExact(info.Algo.Parameters.FullBytes, &params); err != nil {
		return nil, err
	}
	if params.Iterations <= 0 {
		return nil, fmt.Errorf("%w: non-positive iteration count", ErrMalformed)
	}

	bmp := bmpString(password)
	defer secmem.Wipe(bmp)
	key := pkcs12Derive(1, bmp, params.Salt, params.Iterations, 24)
	defer secmem.Wipe(key)
	iv := pkcs12Derive(2, bmp, params.Salt, params.Iterations, des.BlockSize)

	block, err := des.NewTripleDESCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return decryptCBC(block, iv, info.EncryptedData)
}

// decryptCBC decrypts ciphertext into a pooled buffer and strips the
// PKCS#7 padding. Bad padding means a wrong password or tampered
// data; the buffer is wiped and re-pooled before the error returns.
func decryptCBC(block cipher.Block, iv, ciphertext []byte) (*secmem.Buffer, error) {
	bs := block.BlockSize()
	if len(ciphertext) == 0 || len(ciphertext)%bs != 0 {
		return nil, fmt.Errorf("%w: ciphertext is not a whole number of blocks", ErrMalformed)
	}

	buf := secmem.Get(len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(buf.Bytes(), ciphertext)

	plain := buf.Bytes()
	pad := int(plain[len(plain)-1])
	if pad == 0 || pad > bs {
		buf.Release()
		return nil, fmt.Errorf("%w: invalid padding", ErrDecryptionFailed)
	}
	for _, b := range plain[len(plain)-pad:] {
		if int(b) != pad {
			buf.Release()
			return nil, fmt.Errorf("%w: invalid padding", ErrDecryptionFailed)
		}
	}
	buf.Truncate(len(plain) - pad)
	return buf, nil
}

func decryptGCM(block cipher.Block, gp gcmParams, ciphertext []byte) (*secmem.Buffer, error) {
	// Non-standard nonce sizes force the default 16-byte tag; the
	// standard 12-byte nonce supports the full RFC 5084 tag range.
	var aead cipher.AEAD
	var err error
	if len(gp.Nonce) == 12 {
		aead, err = cipher.NewGCMWithTagSize(block, gp.ICVLen)
	} else if gp.ICVLen == 16 {
		aead, err = cipher.NewGCMWithNonceSize(block, len(gp.Nonce))
	} else {
		return nil, fmt.Errorf("%w: tag length %d with %d-byte nonce", ErrUnsupported, gp.ICVLen, len(gp.Nonce))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if len(ciphertext) < aead.Overhead() {
		return nil, fmt.Errorf("%w: ciphertext shorter than the authentication tag", ErrMalformed)
	}

	buf := secmem.Get(len(ciphertext) - aead.Overhead())
	plain, err := aead.Open(buf.Bytes()[:0], gp.Nonce, ciphertext, nil)
	if err != nil {
		buf.Release()
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	buf.Truncate(len(plain))
	return buf, nil
}

func cbcKeySize(oid asn1.ObjectIdentifier) int {
	switch {
	case oid.Equal(oidAES128CBC):
		return 16
	case oid.Equal(oidAES192CBC):
		return 24
	default:
		return 32
	}
}

// unmarshalExact decodes exactly one value from raw, rejecting
// trailing bytes.
func unmarshalExact(raw []byte, out any) error {
	rest, err := asn1.Unmarshal(raw, out)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(rest) != 0 {
		return fmt.Errorf("%w: trailing bytes", ErrMalformed)
	}
	return nil
}
