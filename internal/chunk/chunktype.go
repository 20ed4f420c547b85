package chunk

import (
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

// ChunkType is the four-byte tag that names a chunk. The case of each byte
// (bit 5) encodes a property of the chunk:
//
//	byte 0: ancillary bit    (uppercase = critical)
//	byte 1: private bit      (uppercase = public)
//	byte 2: reserved bit     (must be uppercase)
//	byte 3: safe-to-copy bit (lowercase = safe to copy)
//
// ChunkType is comparable; two types are equal when their bytes are.
type ChunkType struct {
	b [4]byte
}

// caseBit is bit 5 of a chunk type byte. It is clear for uppercase letters.
const caseBit = 0x20

// FromBytes returns the chunk type made of b. It never fails: types read
// from existing files must round-trip even when they are nonstandard. Use
// IsValid to check them.
func FromBytes(b [4]byte) ChunkType {
	return ChunkType{b: b}
}

// FromString returns the chunk type spelled by s. s must be exactly four
// bytes long and must not contain decimal digits.
func FromString(s string) (ChunkType, error) {
	if len(s) != 4 {
		return ChunkType{}, errors.Wrapf(ErrInvalidChunkType, "%q is %d bytes, want 4", s, len(s))
	}
	for _, r := range s {
		if unicode.IsDigit(r) {
			return ChunkType{}, errors.Wrapf(ErrInvalidChunkType, "%q contains digit %q", s, r)
		}
	}
	var t ChunkType
	copy(t.b[:], s)
	return t, nil
}

// Bytes returns the raw tag.
func (t ChunkType) Bytes() [4]byte {
	return t.b
}

// IsCritical reports whether the chunk is critical to displaying the image.
func (t ChunkType) IsCritical() bool {
	return t.b[0]&caseBit == 0
}

// IsPublic reports whether the type is part of the public PNG registry.
func (t ChunkType) IsPublic() bool {
	return t.b[1]&caseBit == 0
}

// IsReservedBitValid reports whether the reserved bit is clear, as the
// current PNG specification requires.
func (t ChunkType) IsReservedBitValid() bool {
	return t.b[2]&caseBit == 0
}

// IsSafeToCopy reports whether editors that do not recognise the chunk may
// copy it into a modified file.
func (t ChunkType) IsSafeToCopy() bool {
	return t.b[3]&caseBit != 0
}

// IsValid reports whether all four bytes are ASCII letters and the reserved
// bit is valid.
func (t ChunkType) IsValid() bool {
	if !t.IsReservedBitValid() {
		return false
	}
	for _, c := range t.b {
		if !isLetter(c) {
			return false
		}
	}
	return true
}

// IsStandard reports whether t is one of the chunk types registered by the
// PNG specification.
func (t ChunkType) IsStandard() bool {
	_, ok := standardTypes[t]
	return ok
}

// Text renders the tag as UTF-8 text.
func (t ChunkType) Text() (string, error) {
	if !utf8.Valid(t.b[:]) {
		return "", errors.Wrapf(ErrInvalidUtf8, "chunk type % x", t.b[:])
	}
	return string(t.b[:]), nil
}

// String implements fmt.Stringer. Tags that are not valid UTF-8 are quoted
// with escapes.
func (t ChunkType) String() string {
	s, err := t.Text()
	if err != nil {
		return strconv.Quote(string(t.b[:]))
	}
	return s
}

func isLetter(c byte) bool {
	return ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z')
}

func mustType(s string) ChunkType {
	t, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return t
}

var (
	// NOTE: Critical chunks
	ChunkIHDR = mustType("IHDR")
	ChunkPLTE = mustType("PLTE")
	ChunkIDAT = mustType("IDAT")
	ChunkIEND = mustType("IEND")

	// NOTE:  Ancillary chunks
	ChunkcHRM = mustType("cHRM")
	ChunkgAMA = mustType("gAMA")
	ChunkiCCP = mustType("iCCP")
	ChunksBIT = mustType("sBIT")
	ChunksRGB = mustType("sRGB")
	ChunkbKGD = mustType("bKGD")
	ChunkhIST = mustType("hIST")
	ChunktRNS = mustType("tRNS")
	ChunkpHYs = mustType("pHYs")
	ChunksPLT = mustType("sPLT")
	ChunktIME = mustType("tIME")
	ChunkiTXt = mustType("iTXt")
	ChunktEXt = mustType("tEXt")
	ChunkzTXt = mustType("zTXt")
)

var standardTypes = map[ChunkType]struct{}{
	ChunkIHDR: {}, ChunkPLTE: {}, ChunkIDAT: {}, ChunkIEND: {},
	ChunkcHRM: {}, ChunkgAMA: {}, ChunkiCCP: {}, ChunksBIT: {},
	ChunksRGB: {}, ChunkbKGD: {}, ChunkhIST: {}, ChunktRNS: {},
	ChunkpHYs: {}, ChunksPLT: {}, ChunktIME: {}, ChunkiTXt: {},
	ChunktEXt: {}, ChunkzTXt: {},
}
