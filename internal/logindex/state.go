package logindex

import (
	"sync"

	"github.com/standardbeagle/lli/internal/textcodec"
)

// IndexingData is the shared indexing state of one file: the line
// positions, the maximum display length, the content fingerprints and
// the encoding. It is written by the worker and read by the viewer, so
// all access goes through scoped accessors backed by a readers/writer
// lock. Readers never observe a partially applied update: extending the
// positions and the digests is one critical section.
type IndexingData struct {
	mu sync.RWMutex

	linePosition   LinePositionArray
	maxLength      LineLength
	hash           IndexedHash
	hashBuilder    *FileDigest
	encodingGuess  textcodec.Codec
	encodingForced textcodec.Codec
}

// NewIndexingData creates empty indexing state for a session.
func NewIndexingData() *IndexingData {
	return &IndexingData{hashBuilder: NewFileDigest()}
}

// Access acquires a shared lock and returns a read-only accessor.
// Accessors must be short-lived and released with Release.
func (d *IndexingData) Access() ConstAccessor {
	d.mu.RLock()
	return ConstAccessor{d: d}
}

// Mutate acquires the exclusive lock and returns a mutating accessor.
func (d *IndexingData) Mutate() MutateAccessor {
	d.mu.Lock()
	return MutateAccessor{d: d}
}

// ConstAccessor is a scoped read-only view of the indexing state.
type ConstAccessor struct {
	d *IndexingData
}

// Release drops the shared lock. The accessor must not be used after.
func (a ConstAccessor) Release() { a.d.mu.RUnlock() }

// IndexedSize returns the number of indexed bytes.
func (a ConstAccessor) IndexedSize() int64 { return a.d.hash.Size }

// Hash returns a snapshot of the content fingerprints.
func (a ConstAccessor) Hash() IndexedHash { return a.d.hash }

// MaxLength returns the longest indexed line in display columns.
func (a ConstAccessor) MaxLength() LineLength { return a.d.maxLength }

// NbLines returns the number of indexed lines.
func (a ConstAccessor) NbLines() LineNumber { return a.d.linePosition.Size() }

// OffsetOf returns the byte offset where the given line starts. Line
// NbLines() is valid and returns the end-of-file sentinel.
func (a ConstAccessor) OffsetOf(line LineNumber) LineOffset { return a.d.linePosition.At(line) }

// FakeFinalLF reports whether the last line's terminator is synthetic.
func (a ConstAccessor) FakeFinalLF() bool { return a.d.linePosition.FakeFinalLF() }

// EncodingGuess returns the codec detected from content.
func (a ConstAccessor) EncodingGuess() textcodec.Codec { return a.d.encodingGuess }

// ForcedEncoding returns the caller-supplied codec override, if any.
func (a ConstAccessor) ForcedEncoding() textcodec.Codec { return a.d.encodingForced }

// AllocatedSize returns the approximate memory held by the line index.
func (a ConstAccessor) AllocatedSize() int64 { return a.d.linePosition.AllocatedSize() }

// MutateAccessor is a scoped exclusive view of the indexing state.
type MutateAccessor struct {
	d *IndexingData
}

// Release drops the exclusive lock. The accessor must not be used after.
func (a MutateAccessor) Release() { a.d.mu.Unlock() }

// AddAll applies one parsed block: extends the line positions, folds
// the block into the fingerprints, merges the max length and refreshes
// the encoding guess. This is the single mutating entry point during
// indexing. The block's ownership passes to the index.
func (a MutateAccessor) AddAll(block []byte, length LineLength, positions *FastLinePositionArray, guess textcodec.Codec) {
	if length > a.d.maxLength {
		a.d.maxLength = length
	}
	a.d.linePosition.AppendList(positions)

	if len(block) > 0 {
		a.d.hash.addBlock(block, a.d.hashBuilder)
	}

	a.d.encodingGuess = guess
}

// Clear resets the state to empty, as on session start.
func (a MutateAccessor) Clear() {
	a.d.maxLength = 0
	a.d.hash = IndexedHash{}
	a.d.hashBuilder.Reset()
	a.d.linePosition = LinePositionArray{}
	a.d.encodingGuess = textcodec.Codec{}
	a.d.encodingForced = textcodec.Codec{}
}

// AllocatedSize returns the approximate memory held by the line index.
func (a MutateAccessor) AllocatedSize() int64 { return a.d.linePosition.AllocatedSize() }

// EncodingGuess returns the codec detected from content.
func (a MutateAccessor) EncodingGuess() textcodec.Codec { return a.d.encodingGuess }

// SetEncodingGuess records the codec detected from content.
func (a MutateAccessor) SetEncodingGuess(c textcodec.Codec) { a.d.encodingGuess = c }

// ForceEncoding records a caller-supplied codec that overrides the
// guess for the rest of the session.
func (a MutateAccessor) ForceEncoding(c textcodec.Codec) { a.d.encodingForced = c }
