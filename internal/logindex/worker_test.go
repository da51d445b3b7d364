package logindex

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/lli/internal/textcodec"
)

func TestWorker_ProgressStartsAtZeroAndGrows(t *testing.T) {
	content := bytes.Repeat([]byte("0123456789abcde\n"), 300_000)
	path := writeTestFile(t, content)
	_, worker, observer := newTestWorker(t, path, Options{ReadBufferSizeMB: 2, FastModificationDetection: true})

	indexAll(t, worker, observer)

	progress := observer.progressValues()
	require.NotEmpty(t, progress)
	assert.Equal(t, 0, progress[0])
	for i := 1; i < len(progress); i++ {
		assert.Greater(t, progress[i], progress[i-1], "progress must not repeat or regress")
	}
	assert.LessOrEqual(t, progress[len(progress)-1], 100)
}

func TestWorker_SerializesOperations(t *testing.T) {
	path := writeTestFile(t, []byte("a\nbb\nccc\n"))
	_, worker, observer := newTestWorker(t, path, DefaultOptions())

	// Submissions queue behind each other; the check sees the state the
	// full index left behind.
	worker.IndexAll(textcodec.Codec{})
	worker.CheckFileChanges()

	require.Equal(t, LoadingSuccessful, waitIndexing(t, observer))
	assert.Equal(t, FileUnchanged, waitCheck(t, observer))
}

func TestWorker_InterruptLeavesNoPartialState(t *testing.T) {
	content := bytes.Repeat([]byte("interrupt target line\n"), 400_000)
	path := writeTestFile(t, content)
	data, worker, observer := newTestWorker(t, path, Options{ReadBufferSizeMB: 1, FastModificationDetection: true})

	worker.IndexAll(textcodec.Codec{})
	worker.Interrupt()
	status := waitIndexing(t, observer)

	// The race between the interrupt and a fast disk is inherent; the
	// invariant is that an interrupted run never leaves a partial index.
	acc := data.Access()
	defer acc.Release()
	if status == LoadingInterrupted {
		assert.Zero(t, acc.NbLines())
		assert.Zero(t, acc.IndexedSize())
	} else {
		assert.Equal(t, int64(len(content)), acc.IndexedSize())
	}
}

func TestWorker_CloseInterruptsAndWaits(t *testing.T) {
	content := bytes.Repeat([]byte("close target line\n"), 400_000)
	path := writeTestFile(t, content)
	_, worker, observer := newTestWorker(t, path, Options{ReadBufferSizeMB: 1, FastModificationDetection: true})

	worker.IndexAll(textcodec.Codec{})
	worker.Close()

	// The terminal signal was delivered before Close returned.
	select {
	case <-observer.finished:
	default:
		t.Fatal("no terminal status delivered by Close")
	}
}

func TestWorker_AttachFileSwitchesTarget(t *testing.T) {
	first := writeTestFile(t, []byte("one\n"))
	second := writeTestFile(t, []byte("one\ntwo\nthree\n"))
	data, worker, observer := newTestWorker(t, first, DefaultOptions())

	indexAll(t, worker, observer)
	assert.Equal(t, int64(1), snapshot(data).nbLines)

	worker.AttachFile(second)
	indexAll(t, worker, observer)
	assert.Equal(t, int64(3), snapshot(data).nbLines)
}

func TestWorker_NilObserver(t *testing.T) {
	path := writeTestFile(t, []byte("a\n"))
	data := NewIndexingData()
	worker := NewWorker(data, nil, DefaultOptions())
	worker.AttachFile(path)

	worker.IndexAll(textcodec.Codec{})
	worker.WaitForFinished()
	worker.Close()

	acc := data.Access()
	defer acc.Release()
	assert.Equal(t, int64(1), acc.NbLines())
}
