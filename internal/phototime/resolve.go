package phototime

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// ErrNoCandidates is returned when every candidate was absent or discarded.
var ErrNoCandidates = errors.New("no usable timestamp candidates")

const (
	minYear    = 2000
	clusterGap = 24 * time.Hour
)

// videoExts are containers whose creation date is authoritative.
var videoExts = map[string]bool{
	".mov": true,
	".m4v": true,
	".mp4": true,
}

// Discard records a candidate that was rejected before resolution.
type Discard struct {
	Source Source
	Raw    string
	Reason string
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Time       time.Time
	Source     Source
	Candidates [NumSources]*Candidate
	Discarded  []Discard
}

// Resolve picks the capture time for a file with extension ext from raw, the
// positional values (mtime, create, orig, creation, gps). Empty values are absent.
// Values that fail to parse, predate 2000, or lie after now are discarded.
//
// Selection order:
//   - a video's creation date;
//   - the only surviving candidate;
//   - create when it equals orig;
//   - otherwise the candidates are sorted by instant and chained into groups
//     where each member is within a day of the previous one. The largest group
//     wins (earliest on ties) and its earliest member is picked, unless that is
//     the GPS time, which is then passed over for the next member.
//
// The returned Resolution is non-nil even on error so discards can be reported.
func Resolve(ext string, raw []string, now time.Time, loc *time.Location) (*Resolution, error) {
	res := &Resolution{}
	if len(raw) > int(NumSources) {
		return res, fmt.Errorf("got %d timestamp values, at most %d allowed", len(raw), NumSources)
	}

	for i, value := range raw {
		if strings.TrimSpace(value) == "" {
			continue
		}
		source := Source(i)
		c, err := Parse(source, value, loc)
		switch {
		case err != nil:
			res.discard(source, value, "unparseable")
		case c.Time.Year() < minYear:
			res.discard(source, value, fmt.Sprintf("before %d", minYear))
		case c.Time.After(now):
			res.discard(source, value, "in the future")
		default:
			res.Candidates[source] = &c
		}
	}

	picked := res.pick(strings.ToLower(ext))
	if picked == nil {
		return res, ErrNoCandidates
	}
	res.Time = picked.Time
	res.Source = picked.Source
	return res, nil
}

func (r *Resolution) discard(source Source, raw, reason string) {
	r.Discarded = append(r.Discarded, Discard{Source: source, Raw: raw, Reason: reason})
}

func (r *Resolution) pick(ext string) *Candidate {
	if creation := r.Candidates[SourceCreation]; creation != nil && videoExts[ext] {
		return creation
	}

	var survivors []*Candidate
	for _, c := range r.Candidates {
		if c != nil {
			survivors = append(survivors, c)
		}
	}
	switch len(survivors) {
	case 0:
		return nil
	case 1:
		return survivors[0]
	}

	create, orig := r.Candidates[SourceCreate], r.Candidates[SourceOrig]
	if create != nil && orig != nil && create.equal(orig) {
		return create
	}

	group := largestCluster(survivors)
	if len(group) > 1 && group[0].Source == SourceGPS {
		return group[1]
	}
	return group[0]
}

// largestCluster sorts candidates by instant (stable, so equal instants keep
// source order) and returns the largest run whose consecutive gaps are within
// clusterGap. The first run formed wins ties.
func largestCluster(candidates []*Candidate) []*Candidate {
	sorted := slices.Clone(candidates)
	slices.SortStableFunc(sorted, func(a, b *Candidate) int {
		return a.Time.Compare(b.Time)
	})

	var best, current []*Candidate
	for i, c := range sorted {
		if i > 0 && c.Time.Sub(sorted[i-1].Time) > clusterGap {
			if len(current) > len(best) {
				best = current
			}
			current = nil
		}
		current = append(current, c)
	}
	if len(current) > len(best) {
		best = current
	}
	return best
}
