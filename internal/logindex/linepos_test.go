package logindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinePositionArray_AppendAndAt(t *testing.T) {
	var array LinePositionArray

	array.Append(2)
	array.Append(5)
	array.Append(9)

	assert.Equal(t, int64(3), array.Size())
	assert.Equal(t, int64(0), array.At(0))
	assert.Equal(t, int64(2), array.At(1))
	assert.Equal(t, int64(5), array.At(2))
	// Index Size() yields the end-of-file sentinel.
	assert.Equal(t, int64(9), array.At(3))
	assert.False(t, array.FakeFinalLF())
}

func TestLinePositionArray_AppendList(t *testing.T) {
	var array LinePositionArray
	array.Append(2)

	var fast FastLinePositionArray
	fast.Append(5)
	fast.Append(9)
	array.AppendList(&fast)

	assert.Equal(t, int64(3), array.Size())
	assert.Equal(t, int64(5), array.At(2))
	assert.Equal(t, int64(9), array.At(3))
}

func TestLinePositionArray_FakeFinalLFReplacedOnAppend(t *testing.T) {
	var array LinePositionArray
	array.Append(2)

	// The last line had no terminator: a synthetic one past EOF.
	var fake FastLinePositionArray
	fake.Append(5)
	fake.SetFakeFinalLF()
	array.AppendList(&fake)

	require.Equal(t, int64(2), array.Size())
	require.True(t, array.FakeFinalLF())

	// More data arrived and terminated the line for real.
	var more FastLinePositionArray
	more.Append(8)
	array.AppendList(&more)

	assert.Equal(t, int64(2), array.Size())
	assert.Equal(t, int64(8), array.At(2))
	assert.False(t, array.FakeFinalLF())
}

func TestLinePositionArray_MonotoneAcrossChunks(t *testing.T) {
	var array LinePositionArray

	const n = 3 * posChunkEntries
	pos := int64(0)
	for i := 0; i < n; i++ {
		pos += int64(1 + i%50)
		array.Append(pos)
	}

	require.Equal(t, int64(n), array.Size())
	for i := int64(0); i < array.Size(); i++ {
		assert.Less(t, array.At(i), array.At(i+1), "offsets must be strictly increasing at line %d", i)
	}
}

func TestLinePositionArray_LargeDeltaStartsNewChunk(t *testing.T) {
	var array LinePositionArray

	array.Append(10)
	// Beyond a 32-bit delta from the first chunk's base.
	far := int64(10) + int64(^uint32(0)) + 100
	array.Append(far)

	assert.Equal(t, int64(10), array.At(1))
	assert.Equal(t, far, array.At(2))
}

func TestLinePositionArray_AllocatedSize(t *testing.T) {
	var array LinePositionArray
	assert.Zero(t, array.AllocatedSize())

	array.Append(1)
	assert.Positive(t, array.AllocatedSize())
}
