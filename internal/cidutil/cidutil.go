// Package cidutil derives content identifiers for chunk payloads, so two
// files can be compared by what they carry without printing it.
package cidutil

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// CIDv1RawSHA256 returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// String is CIDv1RawSHA256 rendered in the default base32 form. It returns
// "" only if hashing fails, which sha2-256 with the default length does not.
func String(data []byte) string {
	c, err := CIDv1RawSHA256(data)
	if err != nil {
		return ""
	}
	return c.String()
}
