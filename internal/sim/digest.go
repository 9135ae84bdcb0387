package sim

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
)

// Digest returns a stable SHA-256 of the state, used to compare runs and to
// verify recordings.
func Digest(s State) string {
	h := sha256.New()
	var tmp [8]byte

	writeU64(h, &tmp, uint64(int64(s.Index)))
	writeU64(h, &tmp, s.NextID)

	writeU64(h, &tmp, uint64(len(s.Snakes)))
	for _, sn := range s.Snakes {
		writeU64(h, &tmp, uint64(len(sn.ID)))
		h.Write([]byte(sn.ID))
		writeU64(h, &tmp, uint64(sn.MaxLength))
		writeU64(h, &tmp, math.Float64bits(sn.Color.R))
		writeU64(h, &tmp, math.Float64bits(sn.Color.G))
		writeU64(h, &tmp, math.Float64bits(sn.Color.B))
		writeU64(h, &tmp, uint64(len(sn.Body)))
		for _, f := range sn.Body {
			writeU64(h, &tmp, uint64(f))
		}
	}

	writeU64(h, &tmp, uint64(len(s.Food)))
	for _, f := range s.Food {
		writeU64(h, &tmp, uint64(f))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeU64(h hash.Hash, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}
