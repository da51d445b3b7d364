package logindex

import (
	"bytes"

	"github.com/standardbeagle/lli/internal/textcodec"
)

// parserState carries the sequential scan position across blocks of one
// indexing run. Blocks must be fed in file order.
type parserState struct {
	pos              int64 // next byte to scan (absolute)
	end              int64 // last terminator found (absolute)
	fileSize         int64
	maxLength        int64 // per-block maximum, merged into the index by AddAll
	additionalSpaces int64 // display columns added by tab expansion within the current line
	params           textcodec.Parameters
	encodingGuess    textcodec.Codec
	fileCodec        textcodec.Codec
}

// parseBlock scans one block for line terminators, expands tabs and
// records, for every completed line, the offset just past its
// terminator (the start of the following line). blockBeginning is the
// block's absolute position in the file.
//
// Line ends are reported at the first byte of the encoded terminator:
// a byte-wise scan for 0x0A lands on the last byte of a big-endian
// multi-byte line feed, and BeforeCrOffset steps back to its start.
func parseBlock(blockBeginning int64, block []byte, state *parserState) FastLinePositionArray {
	state.maxLength = 0
	var linePositions FastLinePositionArray

	adjustToCharWidth := func(pos int) int {
		return pos - state.params.BeforeCrOffset
	}

	expandTabs := func(start, size int) {
		searchStart := start
		remaining := size
		for remaining > 0 {
			i := bytes.IndexByte(block[searchStart:searchStart+remaining], '\t')
			if i < 0 {
				return
			}
			tabPos := adjustToCharWidth(searchStart + i)

			column := blockBeginning + int64(tabPos) - state.pos
			state.additionalSpaces += TabStop - (column+state.additionalSpaces)%TabStop - 1

			remaining -= i + 1
			searchStart += i + 1
		}
	}

	posWithinBlock := 0
	for posWithinBlock != -1 {
		posWithinBlock = int(max64(state.pos-blockBeginning, 0))

		// Looking for the next \n, expanding tabs in the process
		searchStart := posWithinBlock
		searchSize := len(block) - posWithinBlock

		if searchSize > 0 {
			i := bytes.IndexByte(block[searchStart:], '\n')
			if i >= 0 {
				expandTabs(searchStart, i)
				posWithinBlock = adjustToCharWidth(searchStart + i)
			} else {
				expandTabs(searchStart, searchSize)
				posWithinBlock = -1
			}
		} else {
			posWithinBlock = -1
		}

		if posWithinBlock != -1 {
			state.end = int64(posWithinBlock) + blockBeginning
			length := state.end - state.pos + state.additionalSpaces
			if length > state.maxLength {
				state.maxLength = length
			}

			state.pos = state.end + int64(state.params.LineFeedWidth)
			state.additionalSpaces = 0
			linePositions.Append(state.pos)
		}
	}

	return linePositions
}

// saturateLength clamps a line length to the reportable maximum.
func saturateLength(length int64) LineLength {
	if length < 0 {
		return 0
	}
	if length > int64(MaxLineLength) {
		return MaxLineLength
	}
	return LineLength(length)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
