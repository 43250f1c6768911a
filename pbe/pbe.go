// Package pbe implements password-based encryption of opaque byte
// blobs per PKCS#5 (RFC 8018), producing and consuming DER
// EncryptedPrivateKeyInfo wrappers.
//
// The primary scheme is PBES2 with a choice of key derivation function
// (PBKDF2 with HMAC-SHA1/SHA256/SHA512, or scrypt) and cipher (AES in
// CBC or GCM mode). The legacy PKCS#12 pbeWithSHAAnd3-KeyTripleDES-CBC
// scheme is supported for interoperability; its key derivation is
// defined over the UTF-16 form of a text password, so it rejects raw
// byte passwords.
package pbe

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported is returned when encryption parameters are
	// unknown, incoherent, or incompatible with the password form.
	ErrUnsupported = errors.New("pbe: unsupported parameters")

	// ErrMalformed is returned when bytes do not parse as an
	// EncryptedPrivateKeyInfo or its nested parameter structures.
	ErrMalformed = errors.New("pbe: malformed encrypted key encoding")

	// ErrDecryptionFailed is returned when decryption fails, typically
	// because of a wrong password or tampered ciphertext.
	ErrDecryptionFailed = errors.New("pbe: decryption failed")
)

// IsUnsupported returns true if the error is or wraps ErrUnsupported.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}

// IsMalformed returns true if the error is or wraps ErrMalformed.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformed)
}

// IsDecryptionFailed returns true if the error is or wraps ErrDecryptionFailed.
func IsDecryptionFailed(err error) bool {
	return errors.Is(err, ErrDecryptionFailed)
}

// PasswordForm distinguishes text passphrases from raw byte passwords.
// PBES2 accepts both; the legacy PKCS#12 scheme accepts only text.
type PasswordForm int

const (
	// TextPassword marks a password that originated as text.
	TextPassword PasswordForm = iota

	// RawPassword marks an arbitrary byte-string password.
	RawPassword
)

// Scheme selects the encryption scheme family.
type Scheme int

const (
	// PBES2 is the PKCS#5 v2.1 scheme: a key derivation function and a
	// symmetric cipher, each carrying its own parameters.
	PBES2 Scheme = iota

	// PBE3DES is the legacy PKCS#12 pbeWithSHAAnd3-KeyTripleDES-CBC
	// scheme.
	PBE3DES
)

// KDF selects the key derivation function for PBES2.
type KDF int

const (
	// PBKDF2SHA256 is PBKDF2 with HMAC-SHA256.
	PBKDF2SHA256 KDF = iota

	// PBKDF2SHA1 is PBKDF2 with HMAC-SHA1, the RFC 8018 default PRF.
	PBKDF2SHA1

	// PBKDF2SHA512 is PBKDF2 with HMAC-SHA512.
	PBKDF2SHA512

	// Scrypt is the scrypt KDF per RFC 7914.
	Scrypt
)

// Cipher selects the symmetric cipher for PBES2.
type Cipher int

const (
	// AES256CBC is AES-256 in CBC mode with PKCS#7 padding.
	AES256CBC Cipher = iota

	// AES192CBC is AES-192 in CBC mode with PKCS#7 padding.
	AES192CBC

	// AES128CBC is AES-128 in CBC mode with PKCS#7 padding.
	AES128CBC

	// AES256GCM is AES-256 in GCM mode.
	AES256GCM

	// AES128GCM is AES-128 in GCM mode.
	AES128GCM
)

// Params configures password-based encryption. The zero value is not
// usable; start from one of the constructors and override fields as
// needed.
type Params struct {
	// Scheme selects PBES2 or the legacy PKCS#12 3DES scheme. KDF and
	// Cipher are ignored for the legacy scheme.
	Scheme Scheme

	// KDF selects the PBES2 key derivation function.
	KDF KDF

	// Cipher selects the PBES2 cipher.
	Cipher Cipher

	// Iterations is the PBKDF2 or PKCS#12 iteration count.
	Iterations int

	// SaltLength is the salt size in bytes.
	SaltLength int

	// N, R and P are the scrypt cost parameters. N must be a power of
	// two greater than one.
	N, R, P int
}

// DefaultParams returns PBES2 with PBKDF2-HMAC-SHA256 at 600000
// iterations and AES-256-CBC.
func DefaultParams() *Params {
	return &Params{
		Scheme:     PBES2,
		KDF:        PBKDF2SHA256,
		Cipher:     AES256CBC,
		Iterations: 600000,
		SaltLength: 16,
	}
}

// ScryptParams returns PBES2 with scrypt (N=32768, r=8, p=1) and
// AES-256-CBC.
func ScryptParams() *Params {
	return &Params{
		Scheme:     PBES2,
		KDF:        Scrypt,
		Cipher:     AES256CBC,
		SaltLength: 16,
		N:          32768,
		R:          8,
		P:          1,
	}
}

// GCMParams returns PBES2 with PBKDF2-HMAC-SHA256 at 600000 iterations
// and AES-256-GCM.
func GCMParams() *Params {
	p := DefaultParams()
	p.Cipher = AES256GCM
	return p
}

// LegacyDESParams returns the PKCS#12 pbeWithSHAAnd3-KeyTripleDES-CBC
// scheme at 2048 iterations. It requires a text password.
func LegacyDESParams() *Params {
	return &Params{
		Scheme:     PBE3DES,
		Iterations: 2048,
		SaltLength: 8,
	}
}

// Validate checks that the parameter set is coherent and compatible
// with the given password form.
func (p *Params) Validate(form PasswordForm) error {
	if p == nil {
		return fmt.Errorf("%w: nil parameters", ErrUnsupported)
	}
	switch p.Scheme {
	case PBES2:
		return p.validatePBES2()
	case PBE3DES:
		if form != TextPassword {
			return fmt.Errorf("%w: pbeWithSHAAnd3-KeyTripleDES-CBC is defined only for text passwords", ErrUnsupported)
		}
		if p.Iterations < 0 {
			return fmt.Errorf("%w: negative iteration count", ErrUnsupported)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown scheme %d", ErrUnsupported, p.Scheme)
	}
}

func (p *Params) validatePBES2() error {
	switch p.KDF {
	case PBKDF2SHA1, PBKDF2SHA256, PBKDF2SHA512:
		if p.Iterations < 0 {
			return fmt.Errorf("%w: negative iteration count", ErrUnsupported)
		}
	case Scrypt:
		if p.N != 0 && (p.N < 2 || p.N&(p.N-1) != 0) {
			return fmt.Errorf("%w: scrypt N must be a power of two greater than one", ErrUnsupported)
		}
		if p.R < 0 || p.P < 0 {
			return fmt.Errorf("%w: negative scrypt cost parameter", ErrUnsupported)
		}
	default:
		return fmt.Errorf("%w: unknown KDF %d", ErrUnsupported, p.KDF)
	}
	switch p.Cipher {
	case AES128CBC, AES192CBC, AES256CBC, AES128GCM, AES256GCM:
		return nil
	default:
		return fmt.Errorf("%w: unknown cipher %d", ErrUnsupported, p.Cipher)
	}
}

// withDefaults fills zero-valued knobs with the constructor defaults.
func (p *Params) withDefaults() Params {
	out := *p
	if out.SaltLength == 0 {
		if out.Scheme == PBE3DES {
			out.SaltLength = 8
		} else {
			out.SaltLength = 16
		}
	}
	if out.Scheme == PBES2 && out.KDF == Scrypt {
		if out.N == 0 {
			out.N = 32768
		}
		if out.R == 0 {
			out.R = 8
		}
		if out.P == 0 {
			out.P = 1
		}
	} else if out.Iterations == 0 {
		if out.Scheme == PBE3DES {
			out.Iterations = 2048
		} else {
			out.Iterations = 600000
		}
	}
	return out
}

// keySize returns the derived key size in bytes for the cipher.
func (c Cipher) keySize() int {
	switch c {
	case AES128CBC, AES128GCM:
		return 16
	case AES192CBC:
		return 24
	default:
		return 32
	}
}
