package chunk

import "github.com/snksoft/crc"

// crcTable holds the CRC-32 (ISO-HDLC) parameters used by PNG, the same
// checksum as zlib's crc32.
var crcTable = crc.NewTable(crc.CRC32)

// checksum computes the CRC over the chunk type followed by the data.
// The length field is not covered.
func checksum(t ChunkType, data []byte) uint32 {
	buf := make([]byte, 0, 4+len(data))
	buf = append(buf, t.b[:]...)
	buf = append(buf, data...)
	return uint32(crcTable.CalculateCRC(buf))
}
