package chunk

import "github.com/pkg/errors"

// Errors returned by this package. They are usually wrapped with context;
// test for them with errors.Is.
var (
	ErrInvalidChunkType = errors.New("invalid chunk type")
	ErrInvalidType      = errors.New("chunk type is not valid")
	ErrTooShort         = errors.New("chunk too short")
	ErrTruncatedData    = errors.New("chunk data truncated")
	ErrChecksumMismatch = errors.New("chunk checksum mismatch")
	ErrInvalidUtf8      = errors.New("invalid utf-8")
)
