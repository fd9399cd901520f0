package main

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"
)

func deterministicSeedValue(rootSeed int64, label string) int64 {
	var seedBytes [8]byte
	binary.LittleEndian.PutUint64(seedBytes[:], uint64(rootSeed))

	hasher := fnv.New64a()
	hasher.Write(seedBytes[:])
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// newDeterministicRNG derives a reproducible generator from a root seed and
// a subsystem label. The same seed always produces the same stream, which
// keeps replays bit-identical.
func newDeterministicRNG(rootSeed int64, label string) *rand.Rand {
	return rand.New(rand.NewSource(deterministicSeedValue(rootSeed, label)))
}
