package logindex

import (
	"io"
	"log"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/lli/internal/debug"
	lerrors "github.com/standardbeagle/lli/internal/errors"
	"github.com/standardbeagle/lli/internal/textcodec"
)

// blockData is one message from the reader to the parser: a block's
// absolute file position and its bytes. A negative position is the
// sentinel that terminates the stream.
type blockData struct {
	beginning int64
	bytes     []byte
}

// guessEncoding refreshes the encoding guess from a block and resolves
// the codec the parser scans with: forced encoding first, then the
// stored guess, then the guess made from this run's first block.
func (op *indexOperation) guessEncoding(block []byte, state *parserState) {
	if !state.encodingGuess.Valid() {
		state.encodingGuess = textcodec.Detect(block)
		debug.LogEncoding("encoding guess %s", state.encodingGuess.Name())
	}

	if !state.fileCodec.Valid() {
		acc := op.data.Access()
		state.fileCodec = acc.ForcedEncoding()
		if !state.fileCodec.Valid() {
			state.fileCodec = acc.EncodingGuess()
		}
		acc.Release()

		if !state.fileCodec.Valid() {
			state.fileCodec = state.encodingGuess
		}

		state.params = textcodec.ParametersFor(state.fileCodec)
		debug.LogEncoding("encoding %s, line feed width %d",
			state.fileCodec.Name(), state.params.LineFeedWidth)
	}
}

// doIndex streams the file from initialPosition through the block
// reader and the serial parser, extending the shared state block by
// block. Three stages: a dedicated reader goroutine, a bounded channel
// acting as the prefetch window, and the parser running on the
// operation's goroutine. Channel capacity is the backpressure credit:
// at most ReadBufferSizeMB blocks are in flight.
func (op *indexOperation) doIndex(initialPosition LineOffset) {
	file, err := os.Open(op.fileName)
	if err != nil {
		// An unopenable file is indexed as if it were empty.
		log.Printf("Warning: %v", lerrors.NewOpenError(op.fileName, err))

		acc := op.data.Mutate()
		acc.Clear()
		acc.SetEncodingGuess(textcodec.PlatformDefault())
		acc.Release()

		op.reportProgress(100)
		return
	}
	defer file.Close()

	state := parserState{
		pos:    initialPosition,
		params: textcodec.Parameters{LineFeedWidth: 1},
	}
	if info, statErr := file.Stat(); statErr == nil {
		state.fileSize = info.Size()
	} else {
		log.Printf("Warning: %v", lerrors.NewStatError(op.fileName, statErr))
	}

	{
		acc := op.data.Access()
		state.fileCodec = acc.ForcedEncoding()
		if !state.fileCodec.Valid() {
			state.fileCodec = acc.EncodingGuess()
		}
		state.encodingGuess = acc.EncodingGuess()
		acc.Release()
	}
	if state.fileCodec.Valid() {
		state.params = textcodec.ParametersFor(state.fileCodec)
	}

	prefetchBlocks := op.opts.ReadBufferSizeMB
	if prefetchBlocks < 1 {
		prefetchBlocks = 1
	}

	indexingStart := time.Now()

	blocks := make(chan blockData, prefetchBlocks)

	var g errgroup.Group
	g.Go(func() error {
		defer close(blocks)

		if _, seekErr := file.Seek(initialPosition, io.SeekStart); seekErr != nil {
			log.Printf("Warning: %v", lerrors.NewReadError(op.fileName, seekErr))
			blocks <- blockData{beginning: -1}
			return nil
		}

		pos := initialPosition
		for {
			if op.interrupt.Load() {
				break
			}

			buffer := make([]byte, IndexingBlockSize)
			n, readErr := io.ReadFull(file, buffer)
			if n > 0 {
				debug.LogIndexing("sending block %d size %d", pos, n)
				blocks <- blockData{beginning: pos, bytes: buffer[:n]}
				pos += int64(n)
			}
			if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
				break
			}
			if readErr != nil {
				// The index keeps whatever was read before the failure.
				log.Printf("Warning: %v", lerrors.NewReadError(op.fileName, readErr))
				break
			}
		}

		blocks <- blockData{beginning: -1}
		return nil
	})

	// Serial parser: block order is mandatory, the parser state and the
	// line-position array are both sequential.
	for block := range blocks {
		if block.beginning < 0 {
			break
		}

		op.guessEncoding(block.bytes, &state)

		acc := op.data.Mutate()
		if len(block.bytes) > 0 {
			linePositions := parseBlock(block.beginning, block.bytes, &state)
			acc.AddAll(block.bytes, saturateLength(state.maxLength), &linePositions, state.encodingGuess)
			acc.Release()

			if state.fileSize > 0 {
				op.reportProgress(calculateProgress(state.pos, state.fileSize))
			} else {
				op.reportProgress(100)
			}
		} else {
			acc.SetEncodingGuess(state.encodingGuess)
			acc.Release()
		}
	}
	_ = g.Wait()

	acc := op.data.Mutate()
	defer acc.Release()

	debug.LogIndexing("indexed up to %d", state.pos)

	// A file ending without a terminator still yields a final line: a
	// synthetic line feed is recorded just past end-of-file.
	if !op.interrupt.Load() && state.fileSize > state.pos {
		var linePosition FastLinePositionArray
		linePosition.Append(state.fileSize + 1)
		linePosition.SetFakeFinalLF()

		acc.AddAll(nil, 0, &linePosition, state.encodingGuess)
	}

	elapsed := time.Since(indexingStart)
	debug.LogIndexing("indexing done in %v, index size %d bytes", elapsed, acc.AllocatedSize())
	if ms := elapsed.Milliseconds(); ms > 0 {
		debug.LogIndexing("indexing perf %.1f MiB/s",
			float64(state.fileSize)/float64(ms)*1000/(1024*1024))
	}

	if op.interrupt.Load() {
		acc.Clear()
	}

	if !acc.EncodingGuess().Valid() {
		acc.SetEncodingGuess(textcodec.PlatformDefault())
	}
}

// calculateProgress converts a scan position into a 0-100 percentage.
func calculateProgress(pos, fileSize int64) int {
	if fileSize <= 0 {
		return 100
	}
	progress := int(pos * 100 / fileSize)
	if progress > 100 {
		progress = 100
	}
	if progress < 0 {
		progress = 0
	}
	return progress
}
