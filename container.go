// Package pkcs8 implements a container for PKCS#8 PrivateKeyInfo
// structures (RFC 5208): decoding them from DER, re-encoding them, and
// wrapping or unwrapping them with password-based encryption for
// at-rest storage.
//
// The container is algorithm-agnostic. It carries the key algorithm
// identifier, its optional parameters, the opaque private key bytes,
// and an optional set of unauthenticated attributes; it performs no
// key math and no semantic validation of the key material.
//
// A KeyInfo's key-material fields are immutable after construction;
// only the attribute set may be modified. Independent containers may
// be used concurrently, but a single container's attribute set must
// not be mutated concurrently with any use of that container.
package pkcs8

import (
	"bytes"
	"encoding/asn1"
	"fmt"

	"github.com/rbaliyan/pkcs8/internal/der"
)

// Well-known key algorithm identifiers.
var (
	// OIDRSA identifies rsaEncryption keys.
	OIDRSA = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}

	// OIDECDSA identifies id-ecPublicKey keys.
	OIDECDSA = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}

	// OIDEd25519 identifies Ed25519 keys.
	OIDEd25519 = asn1.ObjectIdentifier{1, 3, 101, 112}

	// OIDX25519 identifies X25519 keys.
	OIDX25519 = asn1.ObjectIdentifier{1, 3, 101, 110}
)

// KeyInfo holds a decoded PKCS#8 PrivateKeyInfo. The zero value is not
// a valid container; construct one with New or Decode.
type KeyInfo struct {
	algorithm  asn1.ObjectIdentifier
	params     []byte
	hasParams  bool
	privateKey []byte
	attrs      *Attributes
}

// Option configures construction and decoding of a KeyInfo.
type Option func(*options)

type options struct {
	noCopy bool
}

// WithNoCopy disables the defensive copy of byte inputs.
//
// For New, the KeyInfo takes ownership of the caller's buffers; the
// caller must not retain or mutate them afterwards. For Decode, the
// decoded byte fields alias the source buffer, which the caller must
// keep alive and unmodified for the KeyInfo's lifetime. Violating
// either obligation leaves the container in an undefined state.
func WithNoCopy() Option {
	return func(o *options) { o.noCopy = true }
}

// New creates a KeyInfo from its parts. algorithm is required.
// parameters may be nil, meaning the AlgorithmIdentifier carries no
// parameters; when non-empty it must be exactly one well-formed
// encoded value with no trailing bytes. privateKey is the opaque
// algorithm-specific key encoding.
//
// By default the byte inputs are copied into container-owned storage,
// so the caller may reuse or zero its buffers. WithNoCopy transfers
// ownership instead. The attribute set starts empty.
func New(algorithm asn1.ObjectIdentifier, parameters, privateKey []byte, opts ...Option) (*KeyInfo, error) {
	if len(algorithm) == 0 {
		return nil, fmt.Errorf("%w: algorithm identifier is required", ErrInvalidArgument)
	}
	if _, err := asn1.Marshal(algorithm); err != nil {
		return nil, fmt.Errorf("%w: algorithm identifier: %v", ErrInvalidArgument, err)
	}
	if len(parameters) > 0 {
		if err := der.CheckSingle(parameters); err != nil {
			return nil, fmt.Errorf("%w: algorithm parameters: %v", ErrMalformedEncoding, err)
		}
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	k := &KeyInfo{
		hasParams: parameters != nil,
		attrs:     NewAttributes(),
	}
	if o.noCopy {
		k.algorithm = algorithm
		k.params = parameters
		k.privateKey = privateKey
	} else {
		k.algorithm = append(asn1.ObjectIdentifier(nil), algorithm...)
		if parameters != nil {
			k.params = append([]byte(nil), parameters...)
		}
		k.privateKey = append([]byte(nil), privateKey...)
	}
	return k, nil
}

// Algorithm returns the object identifier of the key algorithm.
func (k *KeyInfo) Algorithm() asn1.ObjectIdentifier {
	return k.algorithm
}

// AlgorithmParameters returns the raw encoded algorithm parameters and
// whether they are present. Absent and zero-length parameters are
// distinct states; zero-length parameters are treated as absent when
// re-encoding, since the encoding has no representation for them.
// The returned slice is the container's own storage and must not be
// modified.
func (k *KeyInfo) AlgorithmParameters() ([]byte, bool) {
	return k.params, k.hasParams
}

// PrivateKey returns the algorithm-specific private key bytes. The
// slice is the container's own storage and must not be modified.
func (k *KeyInfo) PrivateKey() []byte {
	return k.privateKey
}

// Attributes returns the mutable attribute set attached to the key,
// allocating it if the container does not have one yet.
func (k *KeyInfo) Attributes() *Attributes {
	if k.attrs == nil {
		k.attrs = NewAttributes()
	}
	return k.attrs
}

// Equal reports whether two containers hold the same algorithm,
// parameters, private key bytes and attributes.
func (k *KeyInfo) Equal(other *KeyInfo) bool {
	if k == nil || other == nil {
		return k == other
	}
	return k.algorithm.Equal(other.algorithm) &&
		k.hasParams == other.hasParams &&
		bytes.Equal(k.params, other.params) &&
		bytes.Equal(k.privateKey, other.privateKey) &&
		k.attrs.equal(other.attrs)
}
