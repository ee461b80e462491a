package project

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/cespare/xxhash/v2"
)

// Digest is a fixed 64-bit content hash used for cache keys. The cache is
// invalidation machinery, not an integrity boundary, so a fast non-crypto
// hash is enough.
type Digest [8]byte

// HashBytes digests a byte slice.
func HashBytes(b []byte) Digest {
	var d Digest
	binary.BigEndian.PutUint64(d[:], xxhash.Sum64(b))
	return d
}

// Combine builds a compound digest: H(part1 || part2 || ...). Callers must
// keep the part order deterministic.
func Combine(parts ...Digest) Digest {
	h := xxhash.New()
	for _, p := range parts {
		_, _ = h.Write(p[:])
	}
	var d Digest
	binary.BigEndian.PutUint64(d[:], h.Sum64())
	return d
}

// IsZero reports whether the digest was never filled in.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}
