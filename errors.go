package pkcs8

import "errors"

var (
	// ErrInvalidArgument is returned when a required argument is
	// missing or nil.
	ErrInvalidArgument = errors.New("pkcs8: invalid argument")

	// ErrMalformedEncoding is returned when bytes do not parse as the
	// expected ASN.1 structure, contain trailing data where none is
	// permitted, or hold more than one value where exactly one is
	// required.
	ErrMalformedEncoding = errors.New("pkcs8: malformed encoding")

	// ErrUnsupportedParameters is returned when encryption parameters
	// are unknown or incompatible with the password form.
	ErrUnsupportedParameters = errors.New("pkcs8: unsupported encryption parameters")

	// ErrDecryptionFailed is returned when decryption fails (wrong
	// password, tampered data).
	ErrDecryptionFailed = errors.New("pkcs8: decryption failed")
)

// IsInvalidArgument returns true if the error is or wraps ErrInvalidArgument.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsMalformedEncoding returns true if the error is or wraps ErrMalformedEncoding.
func IsMalformedEncoding(err error) bool {
	return errors.Is(err, ErrMalformedEncoding)
}

// IsUnsupportedParameters returns true if the error is or wraps ErrUnsupportedParameters.
func IsUnsupportedParameters(err error) bool {
	return errors.Is(err, ErrUnsupportedParameters)
}

// IsDecryptionFailed returns true if the error is or wraps ErrDecryptionFailed.
func IsDecryptionFailed(err error) bool {
	return errors.Is(err, ErrDecryptionFailed)
}
