package logindex

import (
	"github.com/cespare/xxhash/v2"
)

// FileDigest is an incremental, non-cryptographic 64-bit content
// fingerprint. The value is stable across runs: same bytes, same
// digest.
type FileDigest struct {
	h *xxhash.Digest
}

// NewFileDigest creates an empty digest.
func NewFileDigest() *FileDigest {
	return &FileDigest{h: xxhash.New()}
}

// Write adds bytes to the digest.
func (d *FileDigest) Write(p []byte) {
	_, _ = d.h.Write(p)
}

// Sum64 returns the digest of all bytes written so far.
func (d *FileDigest) Sum64() uint64 {
	return d.h.Sum64()
}

// Reset restores the digest to its empty state.
func (d *FileDigest) Reset() {
	d.h.Reset()
}

// DigestOf returns the digest of a single byte slice.
func DigestOf(p []byte) uint64 {
	return xxhash.Sum64(p)
}

type tailBlock struct {
	offset int64
	data   []byte
}

// IndexedHash fingerprints the indexed byte range. FullDigest covers
// every indexed byte; the header and tail windows cover the file's
// prologue and its most recently indexed suffix, so change detection on
// a huge file can avoid re-reading the whole range.
type IndexedHash struct {
	// Size is the total number of indexed bytes.
	Size int64

	// FullDigest is the digest of all indexed bytes.
	FullDigest uint64

	// HeaderDigest covers the first HeaderSize bytes of the file.
	// Blocks are added whole while HeaderSize is below one indexing
	// block, so the last block added can take it past that size.
	HeaderDigest uint64
	HeaderSize   int64

	// TailDigest covers TailSize bytes starting at TailOffset: the
	// most recent one to two indexing blocks.
	TailOffset int64
	TailSize   int64
	TailDigest uint64

	headerBlocks [][]byte
	tailBlocks   []tailBlock
}

// addBlock folds one indexed block into the fingerprints. builder is
// the session-long rolling digest of the whole indexed range; block
// ownership passes to the hash, so callers must not reuse the slice.
func (h *IndexedHash) addBlock(block []byte, builder *FileDigest) {
	builder.Write(block)
	h.FullDigest = builder.Sum64()

	// The header window fills once and is never trimmed.
	if h.HeaderSize < IndexingBlockSize {
		h.headerBlocks = append(h.headerBlocks, block)

		header := NewFileDigest()
		for _, b := range h.headerBlocks {
			header.Write(b)
		}
		h.HeaderDigest = header.Sum64()
		h.HeaderSize += int64(len(block))
	}

	// The tail window slides: keep between one and two indexing blocks
	// of the most recent data.
	h.tailBlocks = append(h.tailBlocks, tailBlock{offset: h.Size, data: block})
	for tailBytes(h.tailBlocks) > 2*IndexingBlockSize {
		h.tailBlocks = h.tailBlocks[1:]
	}

	tail := NewFileDigest()
	h.TailSize = 0
	for _, b := range h.tailBlocks {
		tail.Write(b.data)
		h.TailSize += int64(len(b.data))
	}
	h.TailOffset = h.tailBlocks[0].offset
	h.TailDigest = tail.Sum64()

	h.Size += int64(len(block))
}

func tailBytes(blocks []tailBlock) int64 {
	total := int64(0)
	for _, b := range blocks {
		total += int64(len(b.data))
	}
	return total
}
