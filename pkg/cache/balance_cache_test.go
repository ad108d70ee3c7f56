package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolKeyOrderIndependent(t *testing.T) {
	a := PoolKey([]string{"p1", "p2", "p3"})
	b := PoolKey([]string{"p3", "p1", "p2"})
	assert.Equal(t, a, b)
}

func TestPoolKeyDistinguishesPools(t *testing.T) {
	a := PoolKey([]string{"p1", "p2"})
	b := PoolKey([]string{"p1", "p3"})
	assert.NotEqual(t, a, b)
}

func TestPoolKeyDoesNotMutateInput(t *testing.T) {
	ids := []string{"z", "a", "m"}
	PoolKey(ids)
	assert.Equal(t, []string{"z", "a", "m"}, ids)
}
