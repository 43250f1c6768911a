package pkcs8

import (
	"testing"

	"github.com/rbaliyan/pkcs8/pbe"
)

func benchmarkKey(b *testing.B) *KeyInfo {
	b.Helper()
	keyBytes := make([]byte, 1190) // typical RSA-2048 PKCS#1 size
	for i := range keyBytes {
		keyBytes[i] = byte(i % 256)
	}
	k, err := New(OIDRSA, []byte{0x05, 0x00}, keyBytes)
	if err != nil {
		b.Fatal(err)
	}
	return k
}

func BenchmarkEncode(b *testing.B) {
	k := benchmarkKey(b)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := k.Encode(); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecode(b *testing.B) {
	k := benchmarkKey(b)
	enc, err := k.Encode()
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, _, err := Decode(enc); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncrypt(b *testing.B) {
	k := benchmarkKey(b)
	params := pbe.DefaultParams()
	params.Iterations = 2048

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := k.Encrypt("bench-password", params); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecryptAndDecode(b *testing.B) {
	k := benchmarkKey(b)
	params := pbe.DefaultParams()
	params.Iterations = 2048
	enc, err := k.Encrypt("bench-password", params)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, _, err := DecryptAndDecode("bench-password", enc); err != nil {
			b.Fatal(err)
		}
	}
}
