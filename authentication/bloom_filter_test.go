package authentication

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBloomFilter(t *testing.T) {
	t.Parallel()

	bf := NewBloomFilter(100, 0.01)

	for i := range 100 {
		bf.Add(fmt.Sprintf("user%d", i))
	}

	for i := range 100 {
		assert.True(t, bf.Test(fmt.Sprintf("user%d", i)))
	}

	falsePositives := 0

	for i := range 1000 {
		if bf.Test(fmt.Sprintf("other%d", i)) {
			falsePositives++
		}
	}

	assert.Less(t, falsePositives, 100)
}

func TestBloomFilter_ZeroCapacity(t *testing.T) {
	t.Parallel()

	bf := NewBloomFilter(0, 0)
	assert.False(t, bf.Test("alice"))

	bf.Add("alice")
	assert.True(t, bf.Test("alice"))
}
