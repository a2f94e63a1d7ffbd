// Package xxh3sum wraps the XXH3 64-bit hash used for chunk body and signal
// integrity checks. XXH3 is distinct from XXH64 (a different algorithm
// under the same family name); zeebo/xxh3 implements the former.
package xxh3sum

import "github.com/zeebo/xxh3"

// Sum64 returns the XXH3 64-bit hash of data.
func Sum64(data []byte) uint64 {
	return xxh3.Hash(data)
}

// Sum64Concat returns the XXH3 64-bit hash of the concatenation of parts,
// without allocating an intermediate joined slice when avoidable.
func Sum64Concat(parts ...[]byte) uint64 {
	h := xxh3.New()
	for _, p := range parts {
		_, _ = h.Write(p)
	}
	return h.Sum64()
}
