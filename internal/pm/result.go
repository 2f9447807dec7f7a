package pm

import (
	"fmt"
	"sort"
	"strings"
)

// Status is the outcome class of a single archive operation.
type Status int

const (
	StatusOK        Status = iota
	StatusDupe             // content already archived, nothing copied
	StatusCollision        // no free sequence slot for the capture second
	StatusSame             // file already filed at its canonical location
	StatusError            // see Result.Op and Result.Err
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDupe:
		return "dupe"
	case StatusCollision:
		return "coll"
	case StatusSame:
		return "same"
	case StatusError:
		return "err"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result describes the outcome of AddFile or MoveFile.
type Result struct {
	Status Status
	Path   string // archive-relative destination, when one was chosen
	Hash   string
	Op     string // failing step for StatusError: "md5", "copy", "add", "move", "rename"
	Err    error
}

// Label is the summary key for the result, e.g. "ok" or "err=md5".
func (r Result) Label() string {
	if r.Status == StatusError && r.Op != "" {
		return "err=" + r.Op
	}
	return r.Status.String()
}

func failed(op string, err error) Result {
	return Result{Status: StatusError, Op: op, Err: err}
}

// Summary aggregates result labels across a batch.
type Summary struct {
	counts map[string]int
}

// NewSummary creates an empty Summary.
func NewSummary() *Summary {
	return &Summary{counts: make(map[string]int)}
}

// Add counts one occurrence of label.
func (s *Summary) Add(label string) {
	s.counts[label]++
}

// Count returns how many times label was added.
func (s *Summary) Count(label string) int {
	return s.counts[label]
}

// Total returns the number of labels added.
func (s *Summary) Total() int {
	n := 0
	for _, c := range s.counts {
		n += c
	}
	return n
}

// String renders the counts sorted by label: "dupe=1 ok=3".
func (s *Summary) String() string {
	labels := make([]string, 0, len(s.counts))
	for l := range s.counts {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = fmt.Sprintf("%s=%d", l, s.counts[l])
	}
	return strings.Join(parts, " ")
}
