//go:build gofuzz

// Package fuzzing holds harnesses consumed by the OSS-Fuzz build,
// which drives native fuzz targets through go-118-fuzz-build.
package fuzzing

import (
	fuzz "github.com/AdamKorcz/go-118-fuzz-build/testing"

	"github.com/rbaliyan/pkcs8"
	"github.com/rbaliyan/pkcs8/pbe"
)

// FuzzDecode exercises the structural parser. Successful decodes must
// consume no more than the input and must re-encode cleanly.
func FuzzDecode(f *fuzz.F) {
	f.Fuzz(func(t *fuzz.T, data []byte) {
		k, n, err := pkcs8.Decode(data)
		if err != nil {
			return
		}
		if n > len(data) {
			t.Fatalf("consumed %d of %d bytes", n, len(data))
		}
		if _, err := k.Encode(); err != nil {
			t.Fatalf("re-encode of decoded value failed: %v", err)
		}
	})
}

// FuzzUnwrap exercises the EncryptedPrivateKeyInfo parser and the
// decryption paths with a fixed password.
func FuzzUnwrap(f *fuzz.F) {
	f.Fuzz(func(t *fuzz.T, data []byte) {
		buf, n, err := pbe.Unwrap(data, []byte("fuzz"), pbe.TextPassword)
		if err != nil {
			return
		}
		defer buf.Release()
		if n > len(data) {
			t.Fatalf("consumed %d of %d bytes", n, len(data))
		}
	})
}
