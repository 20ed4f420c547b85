// Package png reads and writes the PNG chunk container. It treats every
// chunk, critical or not, as an opaque typed payload and never decodes
// image data.
package png

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"pngme.adpollak.net/internal/chunk"
)

// 137 80 78 71 13 10 26 10
var signature = [8]byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

var (
	ErrBadSignature = errors.New("png signature mismatch")
	ErrNotFound     = errors.New("chunk not found")
)

// Png is a PNG datastream: the signature followed by chunks in file order.
// A Png must not be modified concurrently.
type Png struct {
	chunks []chunk.Chunk
}

// New returns a Png holding chunks in the given order. With no chunks it
// is the smallest valid datastream, the bare signature.
func New(chunks ...chunk.Chunk) *Png {
	return &Png{chunks: append([]chunk.Chunk(nil), chunks...)}
}

// Parse decodes a complete datastream. The first bad chunk fails the
// whole parse; there is no partial result.
func Parse(b []byte) (*Png, error) {
	// First 8 bytes of the PNG datastream should be the same as the signature.
	if len(b) < len(signature) || !bytes.Equal(b[:len(signature)], signature[:]) {
		n := min(len(b), len(signature))
		return nil, errors.Wrapf(ErrBadSignature, "got % x, expected % x", b[:n], signature[:])
	}

	p := &Png{}
	for off := len(signature); off < len(b); {
		c, err := chunk.Parse(b[off:])
		if err != nil {
			return nil, errors.Wrapf(err, "chunk %d at offset %d", len(p.chunks), off)
		}
		p.chunks = append(p.chunks, c)
		off += c.Size()
	}
	return p, nil
}

// Read reads r to EOF and parses the result.
func Read(r io.Reader) (*Png, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read png")
	}
	return Parse(b)
}

// Signature returns the 8-byte file signature.
func (p *Png) Signature() [8]byte {
	return signature
}

// Chunks returns the chunks in file order. The slice is a copy.
func (p *Png) Chunks() []chunk.Chunk {
	return append([]chunk.Chunk(nil), p.chunks...)
}

// AppendChunk adds c after the last chunk. Duplicate types are allowed.
func (p *Png) AppendChunk(c chunk.Chunk) {
	p.chunks = append(p.chunks, c)
}

// ChunkByType returns the first chunk whose type renders as typ.
func (p *Png) ChunkByType(typ string) (chunk.Chunk, bool) {
	i := p.index(typ)
	if i < 0 {
		return chunk.Chunk{}, false
	}
	return p.chunks[i], true
}

// RemoveChunk removes and returns the first chunk whose type renders as
// typ. The remaining chunks keep their order.
func (p *Png) RemoveChunk(typ string) (chunk.Chunk, error) {
	i := p.index(typ)
	if i < 0 {
		return chunk.Chunk{}, errors.Wrapf(ErrNotFound, "type %q", typ)
	}
	c := p.chunks[i]
	p.chunks = append(p.chunks[:i], p.chunks[i+1:]...)
	return c, nil
}

func (p *Png) index(typ string) int {
	for i, c := range p.chunks {
		s, err := c.Type().Text()
		if err == nil && s == typ {
			return i
		}
	}
	return -1
}

// Size is the length of the serialized datastream.
func (p *Png) Size() int {
	n := len(signature)
	for _, c := range p.chunks {
		n += c.Size()
	}
	return n
}

// Bytes serializes the signature and every chunk in order.
func (p *Png) Bytes() []byte {
	b := make([]byte, 0, p.Size())
	b = append(b, signature[:]...)
	for _, c := range p.chunks {
		b = append(b, c.Bytes()...)
	}
	return b
}

// WriteTo implements io.WriterTo.
func (p *Png) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p.Bytes())
	return int64(n), err
}
