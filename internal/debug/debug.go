package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Build flag for debug mode - can be overridden at build time
// go build -ldflags "-X github.com/standardbeagle/lli/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// debugOutput is the writer for debug output (defaults to nil, meaning standard error)
var debugOutput io.Writer

// debugFile holds the open file handle if debug output goes to a file
var debugFile *os.File

// debugMutex protects access to debug output
var debugMutex sync.Mutex

// SetDebugOutput sets a custom writer for debug output.
// Pass nil to send debug output to standard error.
func SetDebugOutput(w io.Writer) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugOutput = w
}

// InitDebugLogFile initializes debug logging to a file.
// Returns the path to the log file, or an error if initialization fails.
// Call CloseDebugLog when done to ensure the file is properly closed.
func InitDebugLogFile() (string, error) {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	logDir := filepath.Join(os.TempDir(), "lli-debug-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create debug log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02T150405")
	logPath := filepath.Join(logDir, fmt.Sprintf("debug-%s.log", timestamp))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create debug log file: %w", err)
	}

	debugFile = file
	debugOutput = file
	return logPath, nil
}

// CloseDebugLog closes the debug log file if one is open.
func CloseDebugLog() error {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	if debugFile != nil {
		err := debugFile.Close()
		debugFile = nil
		debugOutput = nil
		return err
	}
	return nil
}

// IsDebugEnabled reports whether debug logging is active.
func IsDebugEnabled() bool {
	if EnableDebug == "true" {
		return true
	}
	return os.Getenv("LLI_DEBUG") == "1"
}

// logf writes a timestamped line to the debug sink.
func logf(subsystem, format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}

	debugMutex.Lock()
	out := debugOutput
	debugMutex.Unlock()

	if out == nil {
		out = os.Stderr
	}

	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(out, "%s [%s] %s\n", time.Now().Format("15:04:05.000"), subsystem, msg)
}

// LogIndexing logs indexing pipeline activity (block reads, parse timing).
func LogIndexing(format string, args ...interface{}) {
	logf("index", format, args...)
}

// LogWatch logs file monitor activity (events, debounce decisions).
func LogWatch(format string, args ...interface{}) {
	logf("watch", format, args...)
}

// LogEncoding logs encoding probe decisions.
func LogEncoding(format string, args ...interface{}) {
	logf("encoding", format, args...)
}
