// Package der provides helpers for working with ASN.1 tag-length-value
// encodings without interpreting their contents: measuring the extent
// of the first encoded value in a buffer and checking that a buffer
// holds exactly one value.
package der

import (
	"errors"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

var (
	// ErrTruncated is returned when a buffer ends before the first
	// encoded value does.
	ErrTruncated = errors.New("der: truncated value")

	// ErrInvalid is returned for headers that cannot be parsed,
	// including indefinite-length values.
	ErrInvalid = errors.New("der: invalid value header")

	// ErrTrailing is returned by CheckSingle when bytes follow the
	// first encoded value.
	ErrTrailing = errors.New("der: trailing bytes after value")
)

// PeekLength reports the total encoded length, header included, of the
// first value in src. It accepts any definite-length BER header,
// including long-form lengths and multi-byte tags, and does not look
// at the content octets. Indefinite-length values are rejected.
func PeekLength(src []byte) (int, error) {
	if len(src) == 0 {
		return 0, ErrTruncated
	}

	// Identifier octets: one byte, plus continuation bytes for
	// high-tag-number form.
	offset := 1
	if src[0]&0x1f == 0x1f {
		for {
			if offset >= len(src) {
				return 0, ErrTruncated
			}
			offset++
			if src[offset-1]&0x80 == 0 {
				break
			}
		}
	}

	if offset >= len(src) {
		return 0, ErrTruncated
	}

	// Length octets.
	first := src[offset]
	offset++
	if first < 0x80 {
		// Short form.
		return checkedTotal(offset, int(first), len(src))
	}
	numBytes := int(first & 0x7f)
	if numBytes == 0 {
		// Indefinite length; only terminated by end-of-contents and
		// never produced for the structures handled here.
		return 0, ErrInvalid
	}
	if numBytes > 4 {
		return 0, ErrInvalid
	}
	if offset+numBytes > len(src) {
		return 0, ErrTruncated
	}
	length := 0
	for _, b := range src[offset : offset+numBytes] {
		if length > 0x7fffff {
			return 0, ErrInvalid
		}
		length = length<<8 | int(b)
	}
	return checkedTotal(offset+numBytes, length, len(src))
}

func checkedTotal(header, content, available int) (int, error) {
	total := header + content
	if total < header {
		return 0, ErrInvalid
	}
	if total > available {
		return 0, ErrTruncated
	}
	return total, nil
}

// CheckSingle verifies that src holds exactly one well-formed encoded
// value with no trailing bytes.
func CheckSingle(src []byte) error {
	s := cryptobyte.String(src)
	var value cryptobyte.String
	var tag cbasn1.Tag
	if !s.ReadAnyASN1Element(&value, &tag) {
		return ErrInvalid
	}
	if !s.Empty() {
		return ErrTrailing
	}
	return nil
}
