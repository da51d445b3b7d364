package logindex

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileDigest_StableAcrossRuns(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")

	first := NewFileDigest()
	first.Write(data)

	second := NewFileDigest()
	second.Write(data)

	assert.Equal(t, first.Sum64(), second.Sum64())
	assert.Equal(t, DigestOf(data), first.Sum64())
}

func TestFileDigest_IndependentOfWritePartition(t *testing.T) {
	data := []byte("split me any way you like, the digest must not care")

	whole := NewFileDigest()
	whole.Write(data)

	split := NewFileDigest()
	split.Write(data[:7])
	split.Write(data[7:])

	assert.Equal(t, whole.Sum64(), split.Sum64())
}

func TestFileDigest_Reset(t *testing.T) {
	d := NewFileDigest()
	d.Write([]byte("something"))
	d.Reset()

	fresh := NewFileDigest()
	assert.Equal(t, fresh.Sum64(), d.Sum64())
}

func makeBlock(fill byte, size int) []byte {
	return bytes.Repeat([]byte{fill}, size)
}

func TestIndexedHash_HeaderWindowFillsOnce(t *testing.T) {
	var hash IndexedHash
	builder := NewFileDigest()

	hash.addBlock(makeBlock('a', IndexingBlockSize), builder)
	require.Equal(t, int64(IndexingBlockSize), hash.HeaderSize)
	headerDigest := hash.HeaderDigest

	// Further blocks leave the header window untouched.
	hash.addBlock(makeBlock('b', IndexingBlockSize), builder)
	assert.Equal(t, int64(IndexingBlockSize), hash.HeaderSize)
	assert.Equal(t, headerDigest, hash.HeaderDigest)
}

func TestIndexedHash_HeaderAccumulatesSmallBlocks(t *testing.T) {
	var hash IndexedHash
	builder := NewFileDigest()

	hash.addBlock(makeBlock('a', 100), builder)
	hash.addBlock(makeBlock('b', 200), builder)

	assert.Equal(t, int64(300), hash.HeaderSize)

	want := NewFileDigest()
	want.Write(makeBlock('a', 100))
	want.Write(makeBlock('b', 200))
	assert.Equal(t, want.Sum64(), hash.HeaderDigest)
}

func TestIndexedHash_TailWindowSlides(t *testing.T) {
	var hash IndexedHash
	builder := NewFileDigest()

	for i := 0; i < 4; i++ {
		hash.addBlock(makeBlock(byte('a'+i), IndexingBlockSize), builder)
	}

	// Four 1 MiB blocks indexed: the tail keeps the last two.
	assert.Equal(t, int64(2*IndexingBlockSize), hash.TailOffset)
	assert.Equal(t, int64(2*IndexingBlockSize), hash.TailSize)

	want := NewFileDigest()
	want.Write(makeBlock('c', IndexingBlockSize))
	want.Write(makeBlock('d', IndexingBlockSize))
	assert.Equal(t, want.Sum64(), hash.TailDigest)

	assert.Equal(t, int64(4*IndexingBlockSize), hash.Size)
}

func TestIndexedHash_FullDigestMatchesStream(t *testing.T) {
	var hash IndexedHash
	builder := NewFileDigest()

	hash.addBlock([]byte("hello "), builder)
	hash.addBlock([]byte("world"), builder)

	assert.Equal(t, DigestOf([]byte("hello world")), hash.FullDigest)
	assert.Equal(t, int64(11), hash.Size)
}
