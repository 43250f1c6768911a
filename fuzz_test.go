package pkcs8

import (
	"testing"
)

func FuzzDecode(f *testing.F) {
	seed, err := New(OIDRSA, []byte{0x05, 0x00}, []byte{0x01, 0x02, 0x03})
	if err != nil {
		f.Fatal(err)
	}
	enc, err := seed.Encode()
	if err != nil {
		f.Fatal(err)
	}
	f.Add(enc)
	f.Add([]byte{0x30, 0x00})
	f.Add([]byte{0x30, 0x80, 0x00, 0x00})

	f.Fuzz(func(t *testing.T, data []byte) {
		k, n, err := Decode(data)
		if err != nil {
			if k != nil || n != 0 {
				t.Fatalf("failed Decode returned (%v, %d)", k, n)
			}
			return
		}
		if n > len(data) {
			t.Fatalf("consumed %d of %d bytes", n, len(data))
		}

		// Whatever decodes must re-encode, and the re-encoding must
		// decode back to the same container.
		out, err := k.Encode()
		if err != nil {
			t.Fatalf("re-encode failed: %v", err)
		}
		k2, n2, err := Decode(out)
		if err != nil {
			t.Fatalf("decode of re-encoding failed: %v", err)
		}
		if n2 != len(out) {
			t.Fatalf("re-encoding decoded %d of %d bytes", n2, len(out))
		}
		if !k2.Equal(k) {
			t.Fatal("round trip through re-encoding changed the container")
		}
	})
}
