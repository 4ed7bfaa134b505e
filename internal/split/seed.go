package split

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"
)

// Derive deterministically mixes the root seed with a list of labels into
// a sub-seed. One root seed governs the whole run; every randomized
// operation (train/test split, each CV repeat) names itself through the
// labels, so its stream is independent of when or whether any other
// operation runs.
func Derive(root int64, labels ...string) int64 {
	h := fnv.New64a()

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(root))
	h.Write(buf[:])

	for _, label := range labels {
		h.Write([]byte(label))
		h.Write([]byte{0})
	}

	return int64(h.Sum64())
}

// rng returns a reproducible random source for a named operation
func rng(root int64, labels ...string) *rand.Rand {
	return rand.New(rand.NewSource(Derive(root, labels...)))
}
