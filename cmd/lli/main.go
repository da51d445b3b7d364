package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/lli/internal/config"
	"github.com/standardbeagle/lli/internal/debug"
	"github.com/standardbeagle/lli/internal/logindex"
	"github.com/standardbeagle/lli/internal/textcodec"
	"github.com/standardbeagle/lli/internal/watch"
)

var Version = "0.3.0"

func main() {
	app := &cli.App{
		Name:                   "lli",
		Usage:                  "Lightning fast line indexing for huge log files",
		Version:                Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "configuration file",
				Value:   ".lli.toml",
			},
			&cli.StringFlag{
				Name:    "encoding",
				Aliases: []string{"e"},
				Usage:   "force a character encoding instead of probing",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "write debug logs to a file under the temp directory",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("debug") {
				debug.EnableDebug = "true"
				logPath, err := debug.InitDebugLogFile()
				if err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "debug log: %s\n", logPath)
			}
			return nil
		},
		After: func(c *cli.Context) error {
			return debug.CloseDebugLog()
		},
		Commands: []*cli.Command{
			{
				Name:      "index",
				Usage:     "Index a log file and report its stats",
				ArgsUsage: "FILE",
				Action:    runIndex,
			},
			{
				Name:      "lines",
				Usage:     "Print a range of lines from an indexed file",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "from", Usage: "first line (zero-based)", Value: 0},
					&cli.Int64Flag{Name: "count", Aliases: []string{"n"}, Usage: "number of lines", Value: 10},
				},
				Action: runLines,
			},
			{
				Name:      "follow",
				Usage:     "Index a log file and keep the index current as it grows",
				ArgsUsage: "FILE",
				Action:    runFollow,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// session bundles the shared state, the worker and the observer
// channels the commands wait on.
type session struct {
	data     *logindex.IndexingData
	worker   *logindex.Worker
	finished chan logindex.LoadingStatus
	checked  chan logindex.FileStatus
	progress bool
}

func (s *session) IndexingProgressed(percent int) {
	if s.progress {
		fmt.Fprintf(os.Stderr, "\rindexing... %3d%%", percent)
		if percent == 100 {
			fmt.Fprintln(os.Stderr)
		}
	}
}

func (s *session) IndexingFinished(status logindex.LoadingStatus) {
	s.finished <- status
}

func (s *session) CheckFileChangesFinished(status logindex.FileStatus) {
	s.checked <- status
}

func newSession(c *cli.Context, path string) (*session, *config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}

	s := &session{
		data:     logindex.NewIndexingData(),
		finished: make(chan logindex.LoadingStatus, 1),
		checked:  make(chan logindex.FileStatus, 1),
		progress: true,
	}
	s.worker = logindex.NewWorker(s.data, s, logindex.Options{
		ReadBufferSizeMB:          cfg.Index.ReadBufferSizeMB,
		FastModificationDetection: cfg.Index.FastModificationDetection,
	})
	s.worker.AttachFile(path)

	return s, cfg, nil
}

func forcedEncoding(c *cli.Context) (textcodec.Codec, error) {
	name := c.String("encoding")
	if name == "" {
		return textcodec.Codec{}, nil
	}
	return textcodec.FromName(name)
}

func targetFile(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", fmt.Errorf("expected exactly one FILE argument")
	}
	return c.Args().First(), nil
}

func runIndex(c *cli.Context) error {
	path, err := targetFile(c)
	if err != nil {
		return err
	}
	forced, err := forcedEncoding(c)
	if err != nil {
		return err
	}

	s, _, err := newSession(c, path)
	if err != nil {
		return err
	}
	defer s.worker.Close()

	s.worker.IndexAll(forced)
	status := <-s.finished
	if status != logindex.LoadingSuccessful {
		return fmt.Errorf("indexing %s", status)
	}

	acc := s.data.Access()
	defer acc.Release()

	fmt.Printf("file:        %s\n", path)
	fmt.Printf("lines:       %d\n", acc.NbLines())
	fmt.Printf("bytes:       %d\n", acc.IndexedSize())
	fmt.Printf("max length:  %d columns\n", acc.MaxLength())
	fmt.Printf("encoding:    %s\n", encodingName(acc))
	fmt.Printf("digest:      %016x\n", acc.Hash().FullDigest)
	fmt.Printf("index size:  %d bytes\n", acc.AllocatedSize())
	if acc.FakeFinalLF() {
		fmt.Printf("note:        last line has no terminator\n")
	}
	return nil
}

func runLines(c *cli.Context) error {
	path, err := targetFile(c)
	if err != nil {
		return err
	}
	forced, err := forcedEncoding(c)
	if err != nil {
		return err
	}

	s, _, err := newSession(c, path)
	if err != nil {
		return err
	}
	defer s.worker.Close()
	s.progress = false

	s.worker.IndexAll(forced)
	if status := <-s.finished; status != logindex.LoadingSuccessful {
		return fmt.Errorf("indexing %s", status)
	}

	from := c.Int64("from")
	count := c.Int64("count")
	lines, err := readLines(s.data, path, from, count)
	if err != nil {
		return err
	}
	for i, line := range lines {
		fmt.Printf("%8d  %s\n", from+int64(i), line)
	}
	return nil
}

func runFollow(c *cli.Context) error {
	path, err := targetFile(c)
	if err != nil {
		return err
	}
	forced, err := forcedEncoding(c)
	if err != nil {
		return err
	}

	s, cfg, err := newSession(c, path)
	if err != nil {
		return err
	}
	defer s.worker.Close()
	s.progress = false

	s.worker.IndexAll(forced)
	if status := <-s.finished; status != logindex.LoadingSuccessful {
		return fmt.Errorf("indexing %s", status)
	}
	printed := nbLines(s.data)
	printed = printTail(s.data, path, printed)

	// Change notifications arrive on the monitor goroutine; the main
	// goroutine serializes the reaction so one worker operation runs at
	// a time.
	changes := make(chan struct{}, 1)
	monitor, err := watch.NewMonitor(path, cfg.Watch, func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	if err := monitor.Start(); err != nil {
		return err
	}
	defer monitor.Stop()

	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupted)

	for {
		select {
		case <-interrupted:
			fmt.Fprintln(os.Stderr, "\ninterrupted")
			s.worker.Interrupt()
			return nil

		case <-changes:
			s.worker.CheckFileChanges()
			switch <-s.checked {
			case logindex.FileUnchanged:

			case logindex.FileDataAdded:
				s.worker.IndexAdditionalLines()
				if status := <-s.finished; status != logindex.LoadingSuccessful {
					return nil
				}
				printed = printTail(s.data, path, printed)

			case logindex.FileTruncated:
				fmt.Fprintf(os.Stderr, "--- %s changed, reindexing ---\n", path)
				s.worker.IndexAll(forced)
				if status := <-s.finished; status != logindex.LoadingSuccessful {
					return nil
				}
				printed = printTail(s.data, path, 0)
			}
		}
	}
}

func nbLines(data *logindex.IndexingData) int64 {
	acc := data.Access()
	defer acc.Release()
	return acc.NbLines()
}

// printTail prints every line from the given line number on and returns
// the new line count.
func printTail(data *logindex.IndexingData, path string, from int64) int64 {
	total := nbLines(data)
	if from >= total {
		return total
	}
	lines, err := readLines(data, path, from, total-from)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return total
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return total
}

func encodingName(acc logindex.ConstAccessor) string {
	if forced := acc.ForcedEncoding(); forced.Valid() {
		return forced.Name() + " (forced)"
	}
	if guess := acc.EncodingGuess(); guess.Valid() {
		return guess.Name()
	}
	return textcodec.PlatformDefault().Name()
}
