package pkcs8

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
)

// Encode serializes the container as a DER PrivateKeyInfo.
//
// The algorithm parameters and private key bytes are written verbatim,
// so values originally read under relaxed encoding rules round-trip
// without re-canonicalization. Attributes are included only when the
// set is non-empty, with value sets in canonical SET OF order.
// Repeated calls on an unmodified container produce byte-identical
// output.
func (k *KeyInfo) Encode() (_ []byte, retErr error) {
	defer func() { recordOp("encode", retErr) }()

	info := privateKeyInfo{
		Version: 0,
		Algorithm: pkix.AlgorithmIdentifier{
			Algorithm: k.algorithm,
		},
		PrivateKey: k.privateKey,
	}
	if k.hasParams && len(k.params) > 0 {
		info.Algorithm.Parameters = asn1.RawValue{FullBytes: k.params}
	}
	if k.attrs.Len() > 0 {
		info.Attributes = k.attrs.canonical()
	}

	out, err := asn1.Marshal(info)
	if err != nil {
		return nil, fmt.Errorf("pkcs8: encode: %w", err)
	}
	return out, nil
}

// TryEncode encodes the container into dst, returning the number of
// bytes written. It returns false, without writing anything, when dst
// is too small for the encoding.
func (k *KeyInfo) TryEncode(dst []byte) (int, bool) {
	out, err := k.Encode()
	if err != nil || len(out) > len(dst) {
		return 0, false
	}
	return copy(dst, out), true
}
