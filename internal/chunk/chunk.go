package chunk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// Below is visually what a chunk in the PNG datastream looks like.
//
//	+------------+ +------------+ +------------+ +-------+
//	|   LENGTH   | | CHUNK TYPE | | CHUNK DATA | |  CRC  |
//	+------------+ +------------+ +------------+ +-------+
const (
	lengthSize = 4
	typeSize   = 4
	crcSize    = 4
	headerSize = lengthSize + typeSize

	// Overhead is the number of bytes a chunk occupies on the wire in
	// addition to its data.
	Overhead = headerSize + crcSize
)

// Chunk is a single chunk of a PNG datastream. It is an immutable value:
// the data is copied in and out and the CRC always matches the type and
// data.
type Chunk struct {
	typ  ChunkType
	data []byte
	crc  uint32
}

// New builds a chunk of type t carrying data.
func New(t ChunkType, data []byte) Chunk {
	data = bytes.Clone(data)
	return Chunk{
		typ:  t,
		data: data,
		crc:  checksum(t, data),
	}
}

// Parse decodes the chunk at the start of b. Bytes after the chunk are
// ignored, so callers walking a datastream advance by Size.
func Parse(b []byte) (Chunk, error) {
	if len(b) < headerSize {
		return Chunk{}, errors.Wrapf(ErrTooShort, "got %d bytes, need at least %d", len(b), headerSize)
	}

	length := binary.BigEndian.Uint32(b[0:lengthSize])

	var tb [4]byte
	copy(tb[:], b[lengthSize:headerSize])
	t := FromBytes(tb)
	if !t.IsValid() {
		return Chunk{}, errors.Wrapf(ErrInvalidType, "%s", t)
	}

	// Computed in uint64 so that a length near 2^32 cannot wrap.
	end := uint64(headerSize) + uint64(length)
	if end+crcSize > uint64(len(b)) {
		return Chunk{}, errors.Wrapf(ErrTruncatedData, "%s declares %d data bytes, only %d bytes available", t, length, len(b)-headerSize)
	}

	data := b[headerSize:end]
	stored := binary.BigEndian.Uint32(b[end : end+crcSize])

	c := New(t, data)
	if c.crc != stored {
		return Chunk{}, errors.Wrapf(ErrChecksumMismatch, "%s: stored %08x, calculated %08x", t, stored, c.crc)
	}
	return c, nil
}

// Length is the number of data bytes.
func (c Chunk) Length() uint32 {
	return uint32(len(c.data))
}

// Type returns the chunk type.
func (c Chunk) Type() ChunkType {
	return c.typ
}

// Data returns a copy of the chunk data.
func (c Chunk) Data() []byte {
	return bytes.Clone(c.data)
}

// CRC returns the CRC-32 of the chunk type and data.
func (c Chunk) CRC() uint32 {
	return c.crc
}

// Size is the number of bytes the chunk occupies on the wire.
func (c Chunk) Size() int {
	return Overhead + len(c.data)
}

// DataString returns the data as text. Binary payloads should be read with
// Data instead.
func (c Chunk) DataString() (string, error) {
	if !utf8.Valid(c.data) {
		return "", errors.Wrapf(ErrInvalidUtf8, "%s data", c.typ)
	}
	return string(c.data), nil
}

// Bytes serializes the chunk: length, type, data and CRC.
func (c Chunk) Bytes() []byte {
	b := make([]byte, 0, c.Size())
	b = binary.BigEndian.AppendUint32(b, c.Length())
	b = append(b, c.typ.b[:]...)
	b = append(b, c.data...)
	b = binary.BigEndian.AppendUint32(b, c.crc)
	return b
}

func (c Chunk) String() string {
	return fmt.Sprintf("%s length=%d crc=%08x", c.typ, c.Length(), c.crc)
}
