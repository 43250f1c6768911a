package pkcs8

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"

	"github.com/rbaliyan/pkcs8/internal/der"
)

// privateKeyInfo is the PrivateKeyInfo structure from RFC 5208:
//
//	SEQUENCE {
//	    version                   INTEGER,
//	    privateKeyAlgorithm       AlgorithmIdentifier,
//	    privateKey                OCTET STRING,
//	    attributes            [0] IMPLICIT SET OF Attribute OPTIONAL }
type privateKeyInfo struct {
	Version    int
	Algorithm  pkix.AlgorithmIdentifier
	PrivateKey []byte
	Attributes []attribute `asn1:"optional,tag:0,set,omitempty"`
}

// Decode reads exactly one PrivateKeyInfo value from the front of src
// and returns the container plus the number of bytes consumed. Bytes
// trailing the value are tolerated and left unconsumed, so the
// structure can be embedded in larger container formats.
//
// By default all decoded byte fields are copied, leaving the KeyInfo
// independent of src. With WithNoCopy the fields alias src, which the
// caller must keep alive and unmodified for the KeyInfo's lifetime.
func Decode(src []byte, opts ...Option) (_ *KeyInfo, _ int, retErr error) {
	defer func() { recordOp("decode", retErr) }()

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return decode(src, o)
}

// decode is Decode without the operation metric, for callers that are
// themselves a recorded operation.
func decode(src []byte, o options) (*KeyInfo, int, error) {
	n, err := der.PeekLength(src)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}

	var info privateKeyInfo
	rest, err := asn1.Unmarshal(src[:n], &info)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	if len(rest) != 0 {
		return nil, 0, fmt.Errorf("%w: value shorter than its declared length", ErrMalformedEncoding)
	}

	k := &KeyInfo{attrs: rehydrate(info.Attributes, o.noCopy)}

	params := info.Algorithm.Parameters.FullBytes
	k.hasParams = len(params) > 0

	if o.noCopy {
		k.algorithm = info.Algorithm.Algorithm
		k.params = params
		k.privateKey = info.PrivateKey
	} else {
		k.algorithm = append(asn1.ObjectIdentifier(nil), info.Algorithm.Algorithm...)
		if k.hasParams {
			k.params = append([]byte(nil), params...)
		}
		k.privateKey = append([]byte(nil), info.PrivateKey...)
	}
	return k, n, nil
}
