package authentication

import (
	"hash/fnv"
	"math"
	"sync"
)

// BloomFilter answers "was this username ever registered?" without a query.
// Test returning false is definite; true has to be confirmed against the store.
type BloomFilter struct {
	mu        sync.RWMutex
	words     []uint64
	numBits   uint64
	numHashes uint64
}

func NewBloomFilter(expectedItems uint, falsePositiveRate float64) *BloomFilter {
	if expectedItems == 0 {
		expectedItems = 1
	}

	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 0.01
	}

	m := optimalBitCount(uint64(expectedItems), falsePositiveRate)
	k := optimalHashCount(m, uint64(expectedItems))

	return &BloomFilter{
		words:     make([]uint64, (m+63)/64),
		numBits:   m,
		numHashes: k,
	}
}

func optimalBitCount(n uint64, p float64) uint64 {
	m := -float64(n) * math.Log(p) / (math.Ln2 * math.Ln2)

	return uint64(math.Ceil(m))
}

func optimalHashCount(m, n uint64) uint64 {
	k := uint64(math.Round(float64(m) / float64(n) * math.Ln2))
	if k < 1 {
		return 1
	}

	return k
}

// positions uses double hashing over FNV-1a and FNV-1; the second hash is
// forced odd so the probe sequence covers the whole bit array.
func (bf *BloomFilter) positions(item string) []uint64 {
	h1 := fnv.New64a()
	_, _ = h1.Write([]byte(item))
	v1 := h1.Sum64()

	h2 := fnv.New64()
	_, _ = h2.Write([]byte(item))
	v2 := h2.Sum64() | 1

	positions := make([]uint64, bf.numHashes)
	for i := range bf.numHashes {
		positions[i] = (v1 + i*v2) % bf.numBits
	}

	return positions
}

func (bf *BloomFilter) Add(item string) {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	for _, pos := range bf.positions(item) {
		bf.words[pos/64] |= 1 << (pos % 64)
	}
}

func (bf *BloomFilter) Test(item string) bool {
	bf.mu.RLock()
	defer bf.mu.RUnlock()

	for _, pos := range bf.positions(item) {
		if bf.words[pos/64]&(1<<(pos%64)) == 0 {
			return false
		}
	}

	return true
}
