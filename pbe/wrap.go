package pbe

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/des"
	"crypto/rand"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"io"

	"github.com/rbaliyan/pkcs8/internal/secmem"
)

// Wrap encrypts plaintext under password and returns a DER-encoded
// EncryptedPrivateKeyInfo. form must describe how the password was
// obtained; some schemes are defined only for text passwords.
func Wrap(plaintext, password []byte, form PasswordForm, params *Params) ([]byte, error) {
	if err := params.Validate(form); err != nil {
		return nil, err
	}
	p := params.withDefaults()

	salt := make([]byte, p.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("pbe: failed to generate salt: %w", err)
	}

	var alg pkix.AlgorithmIdentifier
	var encrypted []byte
	var err error
	switch p.Scheme {
	case PBE3DES:
		alg, encrypted, err = wrap3DES(plaintext, password, salt, p)
	default:
		alg, encrypted, err = wrapPBES2(plaintext, password, salt, p)
	}
	if err != nil {
		return nil, err
	}

	out, err := asn1.Marshal(encryptedPrivateKeyInfo{
		Algo:          alg,
		EncryptedData: encrypted,
	})
	if err != nil {
		return nil, fmt.Errorf("pbe: failed to encode wrapper: %w", err)
	}
	return out, nil
}

func wrapPBES2(plaintext, password, salt []byte, p Params) (pkix.AlgorithmIdentifier, []byte, error) {
	key, kdfAlg, err := deriveKey(password, salt, p, p.Cipher.keySize())
	if err != nil {
		return pkix.AlgorithmIdentifier{}, nil, err
	}
	defer secmem.Wipe(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return pkix.AlgorithmIdentifier{}, nil, fmt.Errorf("pbe: failed to create cipher: %w", err)
	}

	var encAlg pkix.AlgorithmIdentifier
	var encrypted []byte
	switch p.Cipher {
	case AES128GCM, AES256GCM:
		aead, err := cipher.NewGCM(block)
		if err != nil {
			return pkix.AlgorithmIdentifier{}, nil, fmt.Errorf("pbe: failed to create GCM: %w", err)
		}
		nonce := make([]byte, aead.NonceSize())
		if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
			return pkix.AlgorithmIdentifier{}, nil, fmt.Errorf("pbe: failed to generate nonce: %w", err)
		}
		encrypted = aead.Seal(nil, nonce, plaintext, nil)

		raw, err := asn1.Marshal(gcmParams{Nonce: nonce, ICVLen: aead.Overhead()})
		if err != nil {
			return pkix.AlgorithmIdentifier{}, nil, err
		}
		encAlg = pkix.AlgorithmIdentifier{
			Algorithm:  p.Cipher.oid(),
			Parameters: asn1.RawValue{FullBytes: raw},
		}

	default:
		iv := make([]byte, aes.BlockSize)
		if _, err := io.ReadFull(rand.Reader, iv); err != nil {
			return pkix.AlgorithmIdentifier{}, nil, fmt.Errorf("pbe: failed to generate IV: %w", err)
		}
		padded := padPKCS7(plaintext, aes.BlockSize)
		defer secmem.Wipe(padded)
		encrypted = make([]byte, len(padded))
		cipher.NewCBCEncrypter(block, iv).CryptBlocks(encrypted, padded)

		raw, err := asn1.Marshal(iv)
		if err != nil {
			return pkix.AlgorithmIdentifier{}, nil, err
		}
		encAlg = pkix.AlgorithmIdentifier{
			Algorithm:  p.Cipher.oid(),
			Parameters: asn1.RawValue{FullBytes: raw},
		}
	}

	raw, err := asn1.Marshal(pbes2Params{
		KeyDerivationFunc: kdfAlg,
		EncryptionScheme:  encAlg,
	})
	if err != nil {
		return pkix.AlgorithmIdentifier{}, nil, err
	}
	return pkix.AlgorithmIdentifier{
		Algorithm:  oidPBES2,
		Parameters: asn1.RawValue{FullBytes: raw},
	}, encrypted, nil
}

func wrap3DES(plaintext, password, salt []byte, p Params) (pkix.AlgorithmIdentifier, []byte, error) {
	bmp := bmpString(password)
	defer secmem.Wipe(bmp)

	key := pkcs12Derive(1, bmp, salt, p.Iterations, 24)
	defer secmem.Wipe(key)
	iv := pkcs12Derive(2, bmp, salt, p.Iterations, des.BlockSize)

	block, err := des.NewTripleDESCipher(key)
	if err != nil {
		return pkix.AlgorithmIdentifier{}, nil, fmt.Errorf("pbe: failed to create 3DES cipher: %w", err)
	}

	padded := padPKCS7(plaintext, des.BlockSize)
	defer secmem.Wipe(padded)
	encrypted := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(encrypted, padded)

	raw, err := asn1.Marshal(pkcs12PBEParams{Salt: salt, Iterations: p.Iterations})
	if err != nil {
		return pkix.AlgorithmIdentifier{}, nil, err
	}
	return pkix.AlgorithmIdentifier{
		Algorithm:  oidPBEWithSHAAnd3KeyTripleDESCBC,
		Parameters: asn1.RawValue{FullBytes: raw},
	}, encrypted, nil
}

func (c Cipher) oid() asn1.ObjectIdentifier {
	switch c {
	case AES128CBC:
		return oidAES128CBC
	case AES192CBC:
		return oidAES192CBC
	case AES128GCM:
		return oidAES128GCM
	case AES256GCM:
		return oidAES256GCM
	default:
		return oidAES256CBC
	}
}

// padPKCS7 returns a new buffer holding src with PKCS#7 padding
// appended to a multiple of blockSize.
func padPKCS7(src []byte, blockSize int) []byte {
	pad := blockSize - len(src)%blockSize
	out := make([]byte, len(src)+pad)
	copy(out, src)
	for i := len(src); i < len(out); i++ {
		out[i] = byte(pad)
	}
	return out
}
