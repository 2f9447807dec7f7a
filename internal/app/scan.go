package app

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"pm-go/internal/exifsource"
	"pm-go/internal/pm"
)

// ScanDatefile writes a datefile line for every media file under dir, with
// timestamp candidates read from EXIF and the file's mtime. Unreadable files
// are logged to the console and skipped. It returns the number of lines written.
func ScanDatefile(dir string, recursive bool, w io.Writer, opts RunOptions) (int, error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := newConsoleLogger(stderr, opts.Verbose)

	bw := bufio.NewWriter(w)
	n := 0
	var writeErr error

	err := exifsource.Scan(dir, recursive, func(path string, values []string) {
		if writeErr != nil {
			return
		}
		if _, err := fmt.Fprintln(bw, pm.FormatRecord(path, values)); err != nil {
			writeErr = err
			return
		}
		n++
	}, func(path string, err error) {
		logger.Warn("cannot read timestamps", "path", path, "error", err)
	})
	if err != nil {
		return n, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if writeErr != nil {
		return n, fmt.Errorf("writing datefile: %w", writeErr)
	}
	if err := bw.Flush(); err != nil {
		return n, fmt.Errorf("writing datefile: %w", err)
	}
	return n, nil
}
