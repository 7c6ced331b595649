package bufferbuilder_test

import (
	"testing"

	"github.com/logbuf/logbuf-go/core"
	"github.com/logbuf/logbuf-go/internal/bufferbuilder"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Append(t *testing.T) {
	var pool bufferbuilder.Pool
	b := bufferbuilder.New(&pool, 64, 1024)
	defer b.Release()

	assert.True(t, b.IsEmpty())
	assert.Equal(t, core.HeaderLength, b.Limit())
	assert.GreaterOrEqual(t, b.Capacity(), 64)

	src := []byte("xxfooxxbarxx")
	require.NoError(t, b.Append(src, 2, 3))
	require.NoError(t, b.Append(src, 7, 3))
	assert.False(t, b.IsEmpty())
	assert.Equal(t, core.HeaderLength+6, b.Limit())
	assert.Equal(t, []byte("foobar"), b.Buffer()[core.HeaderLength:b.Limit()])
}

func TestBuilder_Grow(t *testing.T) {
	var pool bufferbuilder.Pool
	b := bufferbuilder.New(&pool, 0, 1<<20)
	defer b.Release()

	chunk := make([]byte, 1000)
	for i := range chunk {
		chunk[i] = byte(i)
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, b.Append(chunk, 0, len(chunk)))
	}
	assert.Equal(t, core.HeaderLength+10000, b.Limit())
	assert.GreaterOrEqual(t, b.Capacity(), b.Limit())
	for i := 0; i < 10000; i++ {
		assert.Equal(t, byte(i%1000), b.Buffer()[core.HeaderLength+i])
	}
}

func TestBuilder_ResetKeepsStorage(t *testing.T) {
	var pool bufferbuilder.Pool
	b := bufferbuilder.New(&pool, 4096, 1<<20)
	defer b.Release()

	require.NoError(t, b.Append(make([]byte, 3000), 0, 3000))
	before := &b.Buffer()[0]
	capacity := b.Capacity()

	b.Reset()
	assert.True(t, b.IsEmpty())
	assert.Equal(t, capacity, b.Capacity())
	require.NoError(t, b.Append(make([]byte, 100), 0, 100))
	assert.Same(t, before, &b.Buffer()[0], "storage should be reused")
}

func TestBuilder_CapacityExceeded(t *testing.T) {
	var pool bufferbuilder.Pool
	b := bufferbuilder.New(&pool, 64, core.HeaderLength+10)
	defer b.Release()

	require.NoError(t, b.Append(make([]byte, 8), 0, 8))
	err := b.Append(make([]byte, 8), 0, 8)
	assert.Error(t, err)
	assert.Equal(t, core.ErrCapacityExceeded, errors.Cause(err))
	assert.Equal(t, core.HeaderLength+8, b.Limit(), "failed append should not change contents")
}

func TestPool_Borrowed(t *testing.T) {
	var pool bufferbuilder.Pool
	b1 := bufferbuilder.New(&pool, 64, 1024)
	b2 := bufferbuilder.New(&pool, 64, 1024)
	assert.Equal(t, int64(2), pool.Borrowed())
	b1.Release()
	b1.Release()
	assert.Equal(t, int64(1), pool.Borrowed())
	b2.Release()
	assert.Equal(t, int64(0), pool.Borrowed())
}

func BenchmarkBuilder_Append(b *testing.B) {
	var pool bufferbuilder.Pool
	bu := bufferbuilder.New(&pool, 4096, 1<<20)
	defer bu.Release()
	chunk := make([]byte, 96)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bu.Reset()
		for j := 0; j < 16; j++ {
			_ = bu.Append(chunk, 0, len(chunk))
		}
	}
}
