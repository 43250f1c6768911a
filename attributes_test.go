package pkcs8

import (
	"bytes"
	"encoding/asn1"
	"testing"
)

var testAttrType = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 20}

func TestAttributesAddGet(t *testing.T) {
	attrs := NewAttributes()

	value := asn1.RawValue{FullBytes: []byte{0x02, 0x01, 0x2A}}
	if err := attrs.Add(testAttrType, value); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, ok := attrs.Get(testAttrType)
	if !ok {
		t.Fatal("Get: attribute not found")
	}
	if len(got) != 1 || !bytes.Equal(got[0].FullBytes, value.FullBytes) {
		t.Errorf("Get: got %v, want one value %x", got, value.FullBytes)
	}
	if attrs.Len() != 1 {
		t.Errorf("Len: got %d, want 1", attrs.Len())
	}
}

func TestAttributesAddAppendsValues(t *testing.T) {
	attrs := NewAttributes()

	if err := attrs.Add(testAttrType, asn1.RawValue{FullBytes: []byte{0x02, 0x01, 0x01}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := attrs.Add(testAttrType, asn1.RawValue{FullBytes: []byte{0x02, 0x01, 0x02}}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, _ := attrs.Get(testAttrType)
	if len(got) != 2 {
		t.Errorf("got %d values, want 2", len(got))
	}
	if attrs.Len() != 1 {
		t.Errorf("Len: got %d, want 1", attrs.Len())
	}
}

func TestAttributesRejectsMalformedValue(t *testing.T) {
	attrs := NewAttributes()

	err := attrs.Add(testAttrType, asn1.RawValue{FullBytes: []byte{0x02, 0x05, 0x01}})
	if !IsMalformedEncoding(err) {
		t.Errorf("Add truncated value: got %v, want ErrMalformedEncoding", err)
	}

	err = attrs.Add(testAttrType, asn1.RawValue{FullBytes: []byte{0x02, 0x01, 0x01, 0x05, 0x00}})
	if !IsMalformedEncoding(err) {
		t.Errorf("Add concatenated values: got %v, want ErrMalformedEncoding", err)
	}

	err = attrs.Add(nil, asn1.RawValue{FullBytes: []byte{0x05, 0x00}})
	if !IsInvalidArgument(err) {
		t.Errorf("Add with nil type: got %v, want ErrInvalidArgument", err)
	}
}

func TestAttributesDelete(t *testing.T) {
	attrs := NewAttributes()
	other := asn1.ObjectIdentifier{1, 2, 3}

	if err := attrs.Add(testAttrType, asn1.RawValue{FullBytes: []byte{0x05, 0x00}}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := attrs.Add(other, asn1.RawValue{FullBytes: []byte{0x05, 0x00}}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	attrs.Delete(testAttrType)
	if _, ok := attrs.Get(testAttrType); ok {
		t.Error("deleted attribute still present")
	}
	if attrs.Len() != 1 {
		t.Errorf("Len after delete: got %d, want 1", attrs.Len())
	}
	types := attrs.Types()
	if len(types) != 1 || !types[0].Equal(other) {
		t.Errorf("Types after delete: got %v, want [%v]", types, other)
	}

	// Deleting a missing attribute is a no-op.
	attrs.Delete(testAttrType)
	if attrs.Len() != 1 {
		t.Errorf("Len after second delete: got %d, want 1", attrs.Len())
	}
}

func TestAttributesCopiedOnAdd(t *testing.T) {
	attrs := NewAttributes()

	raw := []byte{0x02, 0x01, 0x2A}
	if err := attrs.Add(testAttrType, asn1.RawValue{FullBytes: raw}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	raw[2] = 0x00

	got, _ := attrs.Get(testAttrType)
	if !bytes.Equal(got[0].FullBytes, []byte{0x02, 0x01, 0x2A}) {
		t.Error("attribute value was affected by caller mutation")
	}
}

func TestAttributesMutableAfterDecode(t *testing.T) {
	k := testKey(t)
	enc, err := k.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, _, err := Decode(enc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	// The attribute set is the one mutable part of a decoded container.
	if err := decoded.Attributes().Add(testAttrType, asn1.RawValue{FullBytes: []byte{0x05, 0x00}}); err != nil {
		t.Fatalf("Add after decode: %v", err)
	}
	if decoded.Attributes().Len() != 1 {
		t.Error("attribute not added after decode")
	}

	reenc, err := decoded.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	round, _, err := Decode(reenc)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, ok := round.Attributes().Get(testAttrType); !ok {
		t.Error("added attribute lost in round trip")
	}
}

func TestAttributesZeroValue(t *testing.T) {
	var attrs Attributes
	if attrs.Len() != 0 {
		t.Errorf("Len: got %d, want 0", attrs.Len())
	}

	value := asn1.RawValue{FullBytes: []byte{0x02, 0x01, 0x07}}
	if err := attrs.Add(testAttrType, value); err != nil {
		t.Fatalf("Add on zero value: %v", err)
	}
	if got, ok := attrs.Get(testAttrType); !ok || len(got) != 1 {
		t.Errorf("Get after Add: got %v, %v", got, ok)
	}
}

func TestAttributesNilReceiverReads(t *testing.T) {
	var attrs *Attributes

	if attrs.Len() != 0 {
		t.Errorf("Len: got %d, want 0", attrs.Len())
	}
	if _, ok := attrs.Get(testAttrType); ok {
		t.Error("Get: found attribute in nil set")
	}
	if types := attrs.Types(); len(types) != 0 {
		t.Errorf("Types: got %v, want empty", types)
	}
	attrs.Delete(testAttrType)

	if !attrs.equal(NewAttributes()) {
		t.Error("equal: nil set should equal empty set")
	}
}
