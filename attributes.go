package pkcs8

import (
	"bytes"
	"encoding/asn1"
	"fmt"
	"sort"

	"github.com/rbaliyan/pkcs8/internal/der"
)

// attribute mirrors the Attribute structure from RFC 5208: a type
// identifier and a set of raw encoded values.
type attribute struct {
	Type   asn1.ObjectIdentifier
	Values []asn1.RawValue `asn1:"set"`
}

// Attributes is a mutable set of unauthenticated attributes attached
// to a key, keyed by attribute type. Values are opaque raw encodings;
// the container does not interpret them.
//
// The zero value is an empty set ready for use. A nil *Attributes
// behaves as an empty set for read operations; Add requires a non-nil
// receiver.
//
// Attributes is not safe for concurrent mutation.
type Attributes struct {
	order  []string
	byType map[string]*attribute
}

// NewAttributes returns an empty attribute set.
func NewAttributes() *Attributes {
	return &Attributes{byType: make(map[string]*attribute)}
}

// Add appends values to the attribute with the given type, creating it
// if needed. Each value must be exactly one well-formed encoded value;
// malformed values are rejected with ErrMalformedEncoding so that a
// later encode of the container cannot fail.
func (a *Attributes) Add(typ asn1.ObjectIdentifier, values ...asn1.RawValue) error {
	if len(typ) == 0 {
		return fmt.Errorf("%w: attribute type is required", ErrInvalidArgument)
	}
	for _, v := range values {
		if err := der.CheckSingle(v.FullBytes); err != nil {
			return fmt.Errorf("%w: attribute value: %v", ErrMalformedEncoding, err)
		}
	}

	if a.byType == nil {
		a.byType = make(map[string]*attribute)
	}
	key := typ.String()
	attr, ok := a.byType[key]
	if !ok {
		attr = &attribute{Type: append(asn1.ObjectIdentifier(nil), typ...)}
		a.byType[key] = attr
		a.order = append(a.order, key)
	}
	for _, v := range values {
		attr.Values = append(attr.Values, asn1.RawValue{
			FullBytes: append([]byte(nil), v.FullBytes...),
		})
	}
	return nil
}

// Get returns the values of the attribute with the given type.
func (a *Attributes) Get(typ asn1.ObjectIdentifier) ([]asn1.RawValue, bool) {
	if a == nil {
		return nil, false
	}
	attr, ok := a.byType[typ.String()]
	if !ok {
		return nil, false
	}
	return attr.Values, true
}

// Delete removes the attribute with the given type.
func (a *Attributes) Delete(typ asn1.ObjectIdentifier) {
	if a == nil {
		return
	}
	key := typ.String()
	if _, ok := a.byType[key]; !ok {
		return
	}
	delete(a.byType, key)
	for i, k := range a.order {
		if k == key {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

// Types returns the attribute types in insertion order.
func (a *Attributes) Types() []asn1.ObjectIdentifier {
	if a == nil {
		return nil
	}
	out := make([]asn1.ObjectIdentifier, 0, len(a.order))
	for _, key := range a.order {
		out = append(out, a.byType[key].Type)
	}
	return out
}

// Len returns the number of attributes in the set.
func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}
	return len(a.byType)
}

// canonical returns the attributes ready for encoding: value sets
// sorted by their encoded bytes and attributes sorted by their full
// encoding, per the DER ordering rule for SET OF.
func (a *Attributes) canonical() []attribute {
	if a == nil {
		return nil
	}
	out := make([]attribute, 0, len(a.order))
	for _, key := range a.order {
		src := a.byType[key]
		attr := attribute{
			Type:   src.Type,
			Values: append([]asn1.RawValue(nil), src.Values...),
		}
		sort.Slice(attr.Values, func(i, j int) bool {
			return bytes.Compare(attr.Values[i].FullBytes, attr.Values[j].FullBytes) < 0
		})
		out = append(out, attr)
	}
	sort.Slice(out, func(i, j int) bool {
		left, _ := asn1.Marshal(out[i])
		right, _ := asn1.Marshal(out[j])
		return bytes.Compare(left, right) < 0
	})
	return out
}

// equal reports whether two attribute sets hold the same attributes,
// ignoring insertion order.
func (a *Attributes) equal(other *Attributes) bool {
	if a.Len() != other.Len() {
		return false
	}
	if a == nil {
		return true
	}
	for key, attr := range a.byType {
		oattr, ok := other.byType[key]
		if !ok || len(attr.Values) != len(oattr.Values) {
			return false
		}
		left := sortedValueBytes(attr.Values)
		right := sortedValueBytes(oattr.Values)
		for i := range left {
			if !bytes.Equal(left[i], right[i]) {
				return false
			}
		}
	}
	return true
}

func sortedValueBytes(values []asn1.RawValue) [][]byte {
	out := make([][]byte, len(values))
	for i, v := range values {
		out[i] = v.FullBytes
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i], out[j]) < 0 })
	return out
}

// rehydrate rebuilds an attribute set from decoded raw attributes,
// copying the byte fields unless aliasing was requested.
func rehydrate(raw []attribute, noCopy bool) *Attributes {
	attrs := NewAttributes()
	for _, r := range raw {
		key := r.Type.String()
		attr, ok := attrs.byType[key]
		if !ok {
			typ := r.Type
			if !noCopy {
				typ = append(asn1.ObjectIdentifier(nil), r.Type...)
			}
			attr = &attribute{Type: typ}
			attrs.byType[key] = attr
			attrs.order = append(attrs.order, key)
		}
		for _, v := range r.Values {
			full := v.FullBytes
			if !noCopy {
				full = append([]byte(nil), full...)
			}
			attr.Values = append(attr.Values, asn1.RawValue{FullBytes: full})
		}
	}
	return attrs
}
