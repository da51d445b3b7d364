package logindex

// posChunkEntries is the number of offsets stored per chunk.
const posChunkEntries = 4096

// posChunk stores a run of line positions as 32-bit deltas against the
// chunk base. A delta that does not fit starts a new chunk, so the
// representation handles arbitrarily large files.
type posChunk struct {
	base   int64
	deltas []uint32
}

// LinePositionArray is an append-only sequence of line positions, one
// entry per line. Each entry records the position just past the line's
// terminator, which is also the start of the following line; line i
// therefore starts at entry i-1, and line 0 starts at offset 0. The
// last entry is the sentinel just past end-of-file.
//
// Storage is delta-compressed per chunk. The compression is not
// externally observable: At, Append and AppendList behave exactly like
// a plain slice of offsets.
type LinePositionArray struct {
	chunks      []posChunk
	entries     int64
	fakeFinalLF bool
}

// Append adds one line position at the tail. A pending synthetic
// terminator is replaced: the bytes that completed the unterminated
// line have now been seen, so the real position supersedes the fake
// one.
func (a *LinePositionArray) Append(pos LineOffset) {
	if a.fakeFinalLF {
		a.popLast()
		a.fakeFinalLF = false
	}
	if n := len(a.chunks); n > 0 {
		chunk := &a.chunks[n-1]
		delta := pos - chunk.base
		if len(chunk.deltas) < posChunkEntries && delta >= 0 && delta <= int64(^uint32(0)) {
			chunk.deltas = append(chunk.deltas, uint32(delta))
			a.entries++
			return
		}
	}
	a.chunks = append(a.chunks, posChunk{base: pos, deltas: []uint32{0}})
	a.entries++
}

func (a *LinePositionArray) popLast() {
	n := len(a.chunks)
	if n == 0 {
		return
	}
	chunk := &a.chunks[n-1]
	chunk.deltas = chunk.deltas[:len(chunk.deltas)-1]
	if len(chunk.deltas) == 0 {
		a.chunks = a.chunks[:n-1]
	}
	a.entries--
}

// AppendList bulk-extends the array with the scratch output of one
// block parse.
func (a *LinePositionArray) AppendList(fast *FastLinePositionArray) {
	for _, pos := range fast.positions {
		a.Append(pos)
	}
	if fast.fakeFinalLF {
		a.fakeFinalLF = true
	}
}

// At returns the start offset of the given line. Index Size() is valid
// and returns the end-of-file sentinel.
func (a *LinePositionArray) At(line LineNumber) LineOffset {
	if line == 0 {
		return 0
	}
	return a.entryAt(line - 1)
}

func (a *LinePositionArray) entryAt(i int64) LineOffset {
	for c := range a.chunks {
		chunk := &a.chunks[c]
		if i < int64(len(chunk.deltas)) {
			return chunk.base + int64(chunk.deltas[i])
		}
		i -= int64(len(chunk.deltas))
	}
	panic("line position index out of range")
}

// Size returns the number of lines recorded.
func (a *LinePositionArray) Size() int64 { return a.entries }

// AllocatedSize returns the approximate memory held by the array, for
// post-index reporting.
func (a *LinePositionArray) AllocatedSize() int64 {
	size := int64(0)
	for c := range a.chunks {
		size += 16 + 4*int64(cap(a.chunks[c].deltas))
	}
	return size
}

// SetFakeFinalLF records that the last line had no terminator and a
// synthetic one was appended.
func (a *LinePositionArray) SetFakeFinalLF() { a.fakeFinalLF = true }

// FakeFinalLF reports whether the final line feed is synthetic.
func (a *LinePositionArray) FakeFinalLF() bool { return a.fakeFinalLF }

// FastLinePositionArray is the uncompressed scratch output of a single
// block parse. It is appended to the main array in one bulk operation.
type FastLinePositionArray struct {
	positions   []LineOffset
	fakeFinalLF bool
}

// Append adds one position.
func (f *FastLinePositionArray) Append(pos LineOffset) {
	f.positions = append(f.positions, pos)
}

// SetFakeFinalLF marks the last appended position as synthetic.
func (f *FastLinePositionArray) SetFakeFinalLF() { f.fakeFinalLF = true }

// Size returns the number of positions collected.
func (f *FastLinePositionArray) Size() int { return len(f.positions) }
