package pbe

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"hash"
	"unicode/utf16"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

func prfHash(oid asn1.ObjectIdentifier) (func() hash.Hash, error) {
	switch {
	case len(oid) == 0 || oid.Equal(oidHMACWithSHA1):
		return sha1.New, nil
	case oid.Equal(oidHMACWithSHA256):
		return sha256.New, nil
	case oid.Equal(oidHMACWithSHA512):
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("%w: PRF %v", ErrUnsupported, oid)
	}
}

func (k KDF) prfOID() asn1.ObjectIdentifier {
	switch k {
	case PBKDF2SHA1:
		return oidHMACWithSHA1
	case PBKDF2SHA512:
		return oidHMACWithSHA512
	default:
		return oidHMACWithSHA256
	}
}

// deriveKey derives keyLen bytes from password and salt and returns
// the derived key together with the AlgorithmIdentifier describing the
// derivation. The caller owns the key and must wipe it.
func deriveKey(password, salt []byte, p Params, keyLen int) ([]byte, pkix.AlgorithmIdentifier, error) {
	if p.KDF == Scrypt {
		key, err := scrypt.Key(password, salt, p.N, p.R, p.P, keyLen)
		if err != nil {
			return nil, pkix.AlgorithmIdentifier{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		raw, err := asn1.Marshal(scryptParams{
			Salt:      salt,
			CostN:     p.N,
			BlockR:    p.R,
			ParallelP: p.P,
			KeyLength: keyLen,
		})
		if err != nil {
			return nil, pkix.AlgorithmIdentifier{}, err
		}
		return key, pkix.AlgorithmIdentifier{
			Algorithm:  oidScrypt,
			Parameters: asn1.RawValue{FullBytes: raw},
		}, nil
	}

	h, err := prfHash(p.KDF.prfOID())
	if err != nil {
		return nil, pkix.AlgorithmIdentifier{}, err
	}
	key := pbkdf2.Key(password, salt, p.Iterations, keyLen, h)
	raw, err := asn1.Marshal(pbkdf2Params{
		Salt:       salt,
		Iterations: p.Iterations,
		KeyLength:  keyLen,
		PRF: pkix.AlgorithmIdentifier{
			Algorithm:  p.KDF.prfOID(),
			Parameters: asn1.NullRawValue,
		},
	})
	if err != nil {
		return nil, pkix.AlgorithmIdentifier{}, err
	}
	return key, pkix.AlgorithmIdentifier{
		Algorithm:  oidPBKDF2,
		Parameters: asn1.RawValue{FullBytes: raw},
	}, nil
}

// deriveFromKDFAlg re-derives keyLen bytes during decryption from the
// encoded key derivation AlgorithmIdentifier.
func deriveFromKDFAlg(password []byte, kdf pkix.AlgorithmIdentifier, keyLen int) ([]byte, error) {
	switch {
	case kdf.Algorithm.Equal(oidPBKDF2):
		var params pbkdf2Params
		if err := unmarshalExact(kdf.Parameters.FullBytes, &params); err != nil {
			return nil, err
		}
		if params.Iterations <= 0 {
			return nil, fmt.Errorf("%w: non-positive PBKDF2 iteration count", ErrMalformed)
		}
		if params.KeyLength != 0 && params.KeyLength != keyLen {
			return nil, fmt.Errorf("%w: PBKDF2 key length %d does not match cipher key size %d",
				ErrUnsupported, params.KeyLength, keyLen)
		}
		h, err := prfHash(params.PRF.Algorithm)
		if err != nil {
			return nil, err
		}
		return pbkdf2.Key(password, params.Salt, params.Iterations, keyLen, h), nil

	case kdf.Algorithm.Equal(oidScrypt):
		var params scryptParams
		if err := unmarshalExact(kdf.Parameters.FullBytes, &params); err != nil {
			return nil, err
		}
		if params.KeyLength != 0 && params.KeyLength != keyLen {
			return nil, fmt.Errorf("%w: scrypt key length %d does not match cipher key size %d",
				ErrUnsupported, params.KeyLength, keyLen)
		}
		key, err := scrypt.Key(password, params.Salt, params.CostN, params.BlockR, params.ParallelP, keyLen)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		return key, nil

	default:
		return nil, fmt.Errorf("%w: key derivation function %v", ErrUnsupported, kdf.Algorithm)
	}
}

// bmpString converts a text password to the big-endian UTF-16
// representation with a trailing zero code point required by the
// PKCS#12 key derivation.
func bmpString(password []byte) []byte {
	runes := []rune(string(password))
	units := utf16.Encode(runes)
	out := make([]byte, 0, 2*len(units)+2)
	for _, u := range units {
		out = append(out, byte(u>>8), byte(u))
	}
	return append(out, 0, 0)
}

// pkcs12Derive implements the PKCS#12 key derivation (RFC 7292
// appendix B.2) with SHA-1. id is 1 for key material and 2 for IVs.
func pkcs12Derive(id byte, bmpPassword, salt []byte, iterations, size int) []byte {
	const u = sha1.Size
	const v = 64

	d := make([]byte, v)
	for i := range d {
		d[i] = id
	}

	expand := func(in []byte) []byte {
		if len(in) == 0 {
			return nil
		}
		n := v * ((len(in) + v - 1) / v)
		out := make([]byte, n)
		for i := range out {
			out[i] = in[i%len(in)]
		}
		return out
	}

	combined := append(expand(salt), expand(bmpPassword)...)

	out := make([]byte, 0, size)
	for len(out) < size {
		digest := sha1.Sum(append(d, combined...))
		a := digest[:]
		for i := 1; i < iterations; i++ {
			next := sha1.Sum(a)
			a = next[:]
		}
		out = append(out, a...)

		if len(out) >= size {
			break
		}

		// B = A repeated to v bytes; add B+1 to each v-byte block of
		// the combined string, modulo 2^(v*8).
		b := make([]byte, v)
		for i := range b {
			b[i] = a[i%u]
		}
		for block := 0; block < len(combined)/v; block++ {
			carry := 1
			for i := v - 1; i >= 0; i-- {
				sum := int(combined[block*v+i]) + int(b[i]) + carry
				combined[block*v+i] = byte(sum)
				carry = sum >> 8
			}
		}
	}
	return out[:size]
}
