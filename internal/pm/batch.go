package pm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"pm-go/internal/phototime"
)

// Record is one datefile line: a path and its positional timestamp candidates
// (mtime, create, orig, creation, gps). Missing trailing sources are empty.
type Record struct {
	Line  int
	Path  string
	Times []string
}

// ParseRecord parses "path,mtime,create,orig,creation,gps". The last five fields
// are always the timestamps, so the path itself may contain commas.
func ParseRecord(line string) (Record, error) {
	fields := strings.Split(line, ",")
	var rec Record
	if len(fields) > 1+int(phototime.NumSources) {
		split := len(fields) - int(phototime.NumSources)
		rec.Path = strings.Join(fields[:split], ",")
		rec.Times = fields[split:]
	} else {
		rec.Path = fields[0]
		rec.Times = fields[1:]
	}
	rec.Path = strings.TrimSpace(rec.Path)
	if rec.Path == "" {
		return Record{}, errors.New("record has no path")
	}
	for i, v := range rec.Times {
		rec.Times[i] = strings.TrimSpace(v)
	}
	return rec, nil
}

// FormatRecord renders a datefile line. Trailing empty values are dropped unless
// the path contains a comma, which needs all five fields to stay unambiguous.
func FormatRecord(path string, times []string) string {
	if strings.Contains(path, ",") {
		padded := make([]string, phototime.NumSources)
		copy(padded, times)
		return path + "," + strings.Join(padded, ",")
	}
	n := len(times)
	for n > 0 && times[n-1] == "" {
		n--
	}
	if n == 0 {
		return path
	}
	return path + "," + strings.Join(times[:n], ",")
}

// ReadRecords calls fn for every non-blank datefile line. Malformed lines are
// passed to onError and skipped.
func ReadRecords(r io.Reader, fn func(Record), onError func(line int, err error)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := ParseRecord(line)
		if err != nil {
			onError(n, err)
			continue
		}
		rec.Line = n
		fn(rec)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading datefile: %w", err)
	}
	return nil
}

// Import ingests every file listed in a datefile, resolving each file's capture
// time from its candidates. Per-file failures are counted, never fatal; the
// returned error reports only an unreadable datefile.
func (a *Archive) Import(r io.Reader, overwrite bool) (*Summary, error) {
	summary := NewSummary()
	err := ReadRecords(r, func(rec Record) {
		at, source, ok := a.resolve(rec)
		if !ok {
			summary.Add("err=time")
			a.record("add", rec.Path, Result{Status: StatusError, Op: "time"}, "")
			return
		}
		result := a.AddFile(rec.Path, at, overwrite)
		summary.Add(result.Label())
		a.record("add", rec.Path, result, source)
	}, func(line int, err error) {
		a.logger.Warn("skipping malformed datefile line", "line", line, "error", err)
		summary.Add("err=parse")
	})
	return summary, err
}

// Relocate moves archived files named in a datefile to the canonical location for
// their resolved capture time.
func (a *Archive) Relocate(r io.Reader) (*Summary, error) {
	summary := NewSummary()
	err := ReadRecords(r, func(rec Record) {
		at, source, ok := a.resolve(rec)
		if !ok {
			summary.Add("err=time")
			return
		}
		result := a.MoveFile(rec.Path, at)
		summary.Add(result.Label())
		if result.Status != StatusSame {
			from := rec.Path
			if rel, err := a.rel(from); err == nil {
				from = rel
			}
			a.record("move", from, result, source)
		}
	}, func(line int, err error) {
		a.logger.Warn("skipping malformed datefile line", "line", line, "error", err)
		summary.Add("err=parse")
	})
	return summary, err
}

// resolve picks the capture time for a record, logging every discarded candidate.
func (a *Archive) resolve(rec Record) (at time.Time, source string, ok bool) {
	res, err := phototime.Resolve(filepath.Ext(rec.Path), rec.Times, a.clock.Now(), a.opts.Location)
	if res != nil {
		for _, d := range res.Discarded {
			a.logger.Warn("discarding timestamp candidate",
				"path", rec.Path, "source", d.Source.String(), "value", d.Raw, "reason", d.Reason)
		}
	}
	if err != nil {
		a.logger.Warn("no usable timestamp", "path", rec.Path, "error", err)
		return time.Time{}, "", false
	}
	a.logger.Debug("resolved timestamp", "path", rec.Path, "source", res.Source.String(), "time", res.Time.Format(time.RFC3339))
	return res.Time, res.Source.String(), true
}
