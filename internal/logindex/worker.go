package logindex

import (
	"sync"
	"sync/atomic"

	"github.com/standardbeagle/lli/internal/textcodec"
)

// Observer receives the one-way event stream of a worker: progress
// updates and terminal statuses. Callbacks run on the worker's
// operation goroutine and must not block.
type Observer interface {
	IndexingProgressed(percent int)
	IndexingFinished(status LoadingStatus)
	CheckFileChangesFinished(status FileStatus)
}

// Worker owns the indexing operations of one file. One operation runs
// at a time: submitting a new one waits for the previous operation to
// finish, clears the interrupt flag and launches on a background
// goroutine. Results reach the viewer only through the observer.
type Worker struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	fileName string

	data     *IndexingData
	observer Observer
	opts     Options

	interrupt atomic.Bool
}

// NewWorker creates a worker around the shared indexing state. The
// observer may be nil when no events are wanted.
func NewWorker(data *IndexingData, observer Observer, opts Options) *Worker {
	if opts.ReadBufferSizeMB < 1 {
		opts.ReadBufferSizeMB = 1
	}
	return &Worker{data: data, observer: observer, opts: opts}
}

// AttachFile sets the file operated on. Safe to call between
// operations; the path is captured when an operation starts.
func (w *Worker) AttachFile(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fileName = path
}

// IndexAll rebuilds the index from scratch. A zero Codec means "no
// forced encoding": the probe decides.
func (w *Worker) IndexAll(forcedEncoding textcodec.Codec) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.wg.Wait()
	w.interrupt.Store(false)

	op := &fullIndexOperation{
		indexOperation: w.newIndexOperation(),
		forcedEncoding: forcedEncoding,
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.notifyIndexingFinished(op.run())
	}()
}

// IndexAdditionalLines extends the index with data appended since the
// last indexing operation.
func (w *Worker) IndexAdditionalLines() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.wg.Wait()
	w.interrupt.Store(false)

	op := &partialIndexOperation{indexOperation: w.newIndexOperation()}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.notifyIndexingFinished(op.run())
	}()
}

// CheckFileChanges compares the file on disk against the indexed
// fingerprints and reports Unchanged, DataAdded or Truncated.
func (w *Worker) CheckFileChanges() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.wg.Wait()
	w.interrupt.Store(false)

	op := &checkFileChangesOperation{indexOperation: w.newIndexOperation()}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		status := op.run()
		if w.observer != nil {
			w.observer.CheckFileChangesFinished(status)
		}
	}()
}

// Interrupt asks the running operation to stop. The reader checks the
// flag before every block; an interrupted index operation clears the
// state and finishes as Interrupted.
func (w *Worker) Interrupt() {
	w.interrupt.Store(true)
}

// WaitForFinished blocks until the current operation, if any, has
// delivered its terminal status.
func (w *Worker) WaitForFinished() {
	w.wg.Wait()
}

// Close interrupts any running operation and waits for it to finish.
func (w *Worker) Close() {
	w.interrupt.Store(true)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.wg.Wait()
}

func (w *Worker) newIndexOperation() indexOperation {
	return indexOperation{
		fileName:     w.fileName,
		data:         w.data,
		interrupt:    &w.interrupt,
		opts:         w.opts,
		lastProgress: -1,
		progressed: func(percent int) {
			if w.observer != nil {
				w.observer.IndexingProgressed(percent)
			}
		},
	}
}

func (w *Worker) notifyIndexingFinished(success bool) {
	if w.observer == nil {
		return
	}
	if success {
		w.observer.IndexingFinished(LoadingSuccessful)
	} else {
		w.observer.IndexingFinished(LoadingInterrupted)
	}
}
