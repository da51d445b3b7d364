package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/standardbeagle/lli/internal/logindex"
	"github.com/standardbeagle/lli/internal/textcodec"
)

// readLines extracts and decodes a range of lines using the index: one
// seek per line, no scanning.
func readLines(data *logindex.IndexingData, path string, from, count int64) ([]string, error) {
	acc := data.Access()
	total := acc.NbLines()
	indexedSize := acc.IndexedSize()

	codec := acc.ForcedEncoding()
	if !codec.Valid() {
		codec = acc.EncodingGuess()
	}
	if !codec.Valid() {
		codec = textcodec.PlatformDefault()
	}
	params := textcodec.ParametersFor(codec)

	if from < 0 {
		from = 0
	}
	if from > total {
		from = total
	}
	if count > total-from {
		count = total - from
	}

	type span struct{ start, end int64 }
	spans := make([]span, 0, count)
	for i := from; i < from+count; i++ {
		start := acc.OffsetOf(i)
		end := acc.OffsetOf(i+1) - int64(params.LineFeedWidth)
		// The sentinel of a synthetic terminator sits past end-of-file.
		if end > indexedSize {
			end = indexedSize
		}
		if end < start {
			end = start
		}
		spans = append(spans, span{start, end})
	}
	acc.Release()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	lines := make([]string, 0, len(spans))
	for _, sp := range spans {
		raw := make([]byte, sp.end-sp.start)
		if _, err := file.ReadAt(raw, sp.start); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		decoded, err := codec.DecodeString(raw)
		if err != nil {
			return nil, err
		}
		lines = append(lines, strings.TrimSuffix(decoded, "\r"))
	}
	return lines, nil
}
