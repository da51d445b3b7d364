package logindex

import (
	"io"
	"log"
	"os"
	"sync/atomic"

	"github.com/standardbeagle/lli/internal/debug"
	lerrors "github.com/standardbeagle/lli/internal/errors"
	"github.com/standardbeagle/lli/internal/textcodec"
)

// Options are the configuration inputs of the indexing operations.
type Options struct {
	// ReadBufferSizeMB sets the pipeline's prefetch window in 1 MiB
	// blocks. Minimum 1.
	ReadBufferSizeMB int

	// FastModificationDetection enables the header/tail digest fast
	// path when checking a file for changes.
	FastModificationDetection bool
}

// DefaultOptions returns the options used when no configuration is
// supplied.
func DefaultOptions() Options {
	return Options{ReadBufferSizeMB: 16, FastModificationDetection: true}
}

// indexOperation carries what every operation needs: the target file,
// the shared state, the interrupt flag and the progress sink.
type indexOperation struct {
	fileName     string
	data         *IndexingData
	interrupt    *atomic.Bool
	opts         Options
	progressed   func(int)
	lastProgress int
}

// reportProgress forwards a percentage to the observer, deduplicating
// repeats so a block-per-percent file does not flood the viewer.
func (op *indexOperation) reportProgress(progress int) {
	if progress == op.lastProgress {
		return
	}
	op.lastProgress = progress
	if op.progressed != nil {
		op.progressed(progress)
	}
}

// fullIndexOperation rebuilds the index from scratch.
type fullIndexOperation struct {
	indexOperation
	forcedEncoding textcodec.Codec
}

func (op *fullIndexOperation) run() bool {
	debug.LogIndexing("full index of %s", op.fileName)

	op.reportProgress(0)

	acc := op.data.Mutate()
	acc.Clear()
	acc.ForceEncoding(op.forcedEncoding)
	acc.Release()

	op.doIndex(0)

	return !op.interrupt.Load()
}

// partialIndexOperation extends the index with bytes appended since the
// last run. The index is not cleared first; as with a full index, an
// interrupted run or a file that cannot be opened leaves it empty.
type partialIndexOperation struct {
	indexOperation
}

func (op *partialIndexOperation) run() bool {
	acc := op.data.Access()
	initialPosition := acc.IndexedSize()
	acc.Release()

	debug.LogIndexing("partial index of %s from %d", op.fileName, initialPosition)

	op.reportProgress(0)

	op.doIndex(initialPosition)

	return !op.interrupt.Load()
}

// checkFileChangesOperation compares the file on disk against the
// indexed fingerprints without touching the index.
type checkFileChangesOperation struct {
	indexOperation
}

func (op *checkFileChangesOperation) run() FileStatus {
	debug.LogIndexing("checking %s for changes", op.fileName)

	acc := op.data.Access()
	indexedHash := acc.Hash()
	acc.Release()

	info, err := os.Stat(op.fileName)
	if err != nil {
		log.Printf("Warning: %v", lerrors.NewStatError(op.fileName, err))
		return FileTruncated
	}

	realSize := info.Size()
	if realSize == 0 || realSize < indexedHash.Size {
		debug.LogIndexing("file truncated: size %d, indexed %d", realSize, indexedHash.Size)
		return FileTruncated
	}

	file, err := os.Open(op.fileName)
	if err != nil {
		log.Printf("Warning: %v", lerrors.NewOpenError(op.fileName, err))
		return FileTruncated
	}
	defer file.Close()

	buffer := make([]byte, IndexingBlockSize)
	getDigest := func(indexedSize int64) uint64 {
		digest := NewFileDigest()
		total := int64(0)
		for total < indexedSize {
			toRead := indexedSize - total
			if toRead > int64(len(buffer)) {
				toRead = int64(len(buffer))
			}
			n, readErr := file.Read(buffer[:toRead])
			if n > 0 {
				digest.Write(buffer[:n])
				total += int64(n)
			}
			if readErr != nil || n == 0 {
				break
			}
		}
		return digest.Sum64()
	}

	modified := false
	if op.opts.FastModificationDetection && indexedHash.Size > 2*IndexingBlockSize {
		headerDigest := getDigest(indexedHash.HeaderSize)
		debug.LogIndexing("header digest indexed %x, current %x", indexedHash.HeaderDigest, headerDigest)

		modified = headerDigest != indexedHash.HeaderDigest

		if !modified {
			if _, seekErr := file.Seek(indexedHash.TailOffset, io.SeekStart); seekErr != nil {
				log.Printf("Warning: %v", lerrors.NewReadError(op.fileName, seekErr))
				return FileTruncated
			}
			tailDigest := getDigest(indexedHash.TailSize)
			debug.LogIndexing("tail digest indexed %x, current %x", indexedHash.TailDigest, tailDigest)

			modified = tailDigest != indexedHash.TailDigest
		}
	} else {
		currentDigest := getDigest(indexedHash.Size)
		debug.LogIndexing("full digest indexed %x, current %x", indexedHash.FullDigest, currentDigest)

		modified = currentDigest != indexedHash.FullDigest
	}

	switch {
	case modified:
		// Content changed inside the indexed range: the index is as
		// unusable as after a truncation, so both report the same way.
		debug.LogIndexing("file changed in indexed range")
		return FileTruncated
	case realSize > indexedHash.Size:
		debug.LogIndexing("new data on disk")
		return FileDataAdded
	default:
		debug.LogIndexing("no change")
		return FileUnchanged
	}
}
