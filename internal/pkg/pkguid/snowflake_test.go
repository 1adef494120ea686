package pkguid

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomNodeIDRange(t *testing.T) {
	for i := 0; i < 50; i++ {
		id, err := randomNodeID()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, id, int64(0))
		assert.LessOrEqual(t, id, int64(1023))
	}
}

func TestSnowflakeIncreasing(t *testing.T) {
	gen, err := NewSnowflake()
	require.NoError(t, err)

	prev := gen.Generate()
	for i := 0; i < 100; i++ {
		next := gen.Generate()
		require.Greater(t, next, prev)
		prev = next
	}
}

func TestSnowflakeNodeCarriesNodeID(t *testing.T) {
	gen, err := NewSnowflakeNode(7)
	require.NoError(t, err)

	assert.Equal(t, int64(7), snowflake.ParseInt64(gen.Generate()).Node())
	assert.Equal(t, jobEpoch, snowflake.Epoch)
}

func TestSnowflakeNodeOutOfRange(t *testing.T) {
	_, err := NewSnowflakeNode(1 << 12)
	assert.Error(t, err)
}
