// Package phototime picks a photo's capture time from the timestamps its
// metadata and filesystem report.
package phototime

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies where a candidate timestamp came from. The order matches the
// positional fields of a datefile record.
type Source int

const (
	SourceMTime    Source = iota // filesystem modification time, host zone
	SourceCreate                 // EXIF DateTimeDigitized, device wall clock
	SourceOrig                   // EXIF DateTimeOriginal, device wall clock
	SourceCreation               // container creation date, videos only, zoned
	SourceGPS                    // GPS date and time, always UTC
	NumSources
)

var sourceNames = [NumSources]string{"mtime", "create", "orig", "creation", "gps"}

func (s Source) String() string {
	if s < 0 || s >= NumSources {
		return fmt.Sprintf("source(%d)", int(s))
	}
	return sourceNames[s]
}

// Candidate is one parsed timestamp.
type Candidate struct {
	Source Source
	Time   time.Time
	Naive  bool // no zone in the raw value; Time is in the configured location
	Raw    string
}

const (
	exifLayout      = "2006:01:02 15:04:05"
	exifColonOffset = "2006:01:02 15:04:05-07:00"
	exifNumericZone = "2006:01:02 15:04:05-0700"
)

// Parse parses an EXIF-style "YYYY:MM:DD HH:MM:SS[.fff]" timestamp. GPS values are
// UTC with an optional trailing "Z". Other sources accept a trailing "Z", a
// ±HH:MM or ±HHMM offset, or no zone at all, in which case the value is read in loc.
func Parse(source Source, raw string, loc *time.Location) (Candidate, error) {
	if loc == nil {
		loc = time.Local
	}
	value := strings.TrimSpace(raw)
	c := Candidate{Source: source, Raw: raw}

	if source == SourceGPS || strings.HasSuffix(value, "Z") {
		t, err := time.ParseInLocation(exifLayout, strings.TrimSuffix(value, "Z"), time.UTC)
		if err != nil {
			return c, fmt.Errorf("parsing %s time %q: %w", source, raw, err)
		}
		c.Time = t
		return c, nil
	}

	for _, layout := range []string{exifColonOffset, exifNumericZone} {
		if t, err := time.Parse(layout, value); err == nil {
			c.Time = t
			return c, nil
		}
	}

	t, err := time.ParseInLocation(exifLayout, value, loc)
	if err != nil {
		return c, fmt.Errorf("parsing %s time %q: %w", source, raw, err)
	}
	c.Time = t
	c.Naive = true
	return c, nil
}

// equal reports whether two candidates name the same moment. A naive value never
// equals a zoned one.
func (c *Candidate) equal(o *Candidate) bool {
	return c.Naive == o.Naive && c.Time.Equal(o.Time)
}
