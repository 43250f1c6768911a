package pkcs8

import (
	"encoding/pem"
	"fmt"

	"github.com/rbaliyan/pkcs8/pbe"
)

// PEM block types for unencrypted and encrypted keys.
const (
	pemTypePrivateKey          = "PRIVATE KEY"
	pemTypeEncryptedPrivateKey = "ENCRYPTED PRIVATE KEY"
)

// EncodePEM returns the container as a "PRIVATE KEY" PEM block.
func (k *KeyInfo) EncodePEM() ([]byte, error) {
	der, err := k.Encode()
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePrivateKey, Bytes: der}), nil
}

// EncryptPEM encrypts the container and returns it as an
// "ENCRYPTED PRIVATE KEY" PEM block.
func (k *KeyInfo) EncryptPEM(passphrase string, params *pbe.Params) ([]byte, error) {
	der, err := k.Encrypt(passphrase, params)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypeEncryptedPrivateKey, Bytes: der}), nil
}

// DecodePEM decodes the first "PRIVATE KEY" PEM block in data. Unlike
// Decode, the block must contain exactly the key encoding; a PEM block
// with trailing bytes inside is malformed.
func DecodePEM(data []byte) (*KeyInfo, error) {
	block, err := firstBlock(data, pemTypePrivateKey)
	if err != nil {
		return nil, err
	}
	k, n, err := Decode(block.Bytes)
	if err != nil {
		return nil, err
	}
	if n != len(block.Bytes) {
		return nil, fmt.Errorf("%w: %d trailing bytes in PEM block", ErrMalformedEncoding, len(block.Bytes)-n)
	}
	return k, nil
}

// DecryptPEM decrypts the first "ENCRYPTED PRIVATE KEY" PEM block in
// data with the passphrase.
func DecryptPEM(passphrase string, data []byte) (*KeyInfo, error) {
	block, err := firstBlock(data, pemTypeEncryptedPrivateKey)
	if err != nil {
		return nil, err
	}
	k, n, err := DecryptAndDecode(passphrase, block.Bytes)
	if err != nil {
		return nil, err
	}
	if n != len(block.Bytes) {
		return nil, fmt.Errorf("%w: %d trailing bytes in PEM block", ErrMalformedEncoding, len(block.Bytes)-n)
	}
	return k, nil
}

func firstBlock(data []byte, blockType string) (*pem.Block, error) {
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			return nil, fmt.Errorf("%w: no %q PEM block found", ErrMalformedEncoding, blockType)
		}
		if block.Type == blockType {
			return block, nil
		}
	}
}
