// Package exifsource extracts timestamp candidates from media files for datefiles.
package exifsource

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"pm-go/internal/phototime"
)

// mtimeLayout keeps the host offset so the value is zoned.
const mtimeLayout = "2006:01:02 15:04:05-07:00"

// mediaExts are the extensions Scan reports.
var mediaExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".heic": true,
	".dng":  true,
	".arw":  true,
	".cr2":  true,
	".nef":  true,
	".raf":  true,
	".mp4":  true,
	".mov":  true,
	".m4v":  true,
}

// IsMedia reports whether ext names a supported photo or video format.
func IsMedia(ext string) bool {
	return mediaExts[strings.ToLower(ext)]
}

// Candidates returns the positional timestamp values (mtime, create, orig,
// creation, gps) for the file at path. Files without readable EXIF data yield
// only mtime. Video creation dates are not extracted.
func Candidates(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	values := make([]string, phototime.NumSources)
	values[phototime.SourceMTime] = info.ModTime().Format(mtimeLayout)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return values, nil
	}

	values[phototime.SourceCreate] = stringTag(x, exif.DateTimeDigitized)
	values[phototime.SourceOrig] = stringTag(x, exif.DateTimeOriginal)
	values[phototime.SourceGPS] = gpsTime(x)
	return values, nil
}

// stringTag returns a tag's string value, or "" when absent or malformed.
func stringTag(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

// gpsTime combines GPSDateStamp and GPSTimeStamp into "YYYY:MM:DD HH:MM:SSZ".
func gpsTime(x *exif.Exif) string {
	date := stringTag(x, exif.GPSDateStamp)
	if date == "" {
		return ""
	}
	tag, err := x.Get(exif.GPSTimeStamp)
	if err != nil || tag.Count < 3 {
		return ""
	}
	var hms [3]float64
	for i := range hms {
		v, err := rational(tag, i)
		if err != nil {
			return ""
		}
		hms[i] = v
	}
	return formatGPS(date, hms[0], hms[1], hms[2])
}

func rational(tag *tiff.Tag, i int) (float64, error) {
	num, den, err := tag.Rat2(i)
	if err != nil {
		return 0, err
	}
	if den == 0 {
		return 0, errors.New("zero denominator")
	}
	return float64(num) / float64(den), nil
}

// formatGPS renders a GPS date stamp and time-of-day as a UTC timestamp.
func formatGPS(date string, hour, minute, second float64) string {
	d, err := time.Parse("2006:01:02", date)
	if err != nil {
		return ""
	}
	offset := time.Duration(hour*float64(time.Hour) + minute*float64(time.Minute) + second*float64(time.Second))
	return d.Add(offset).Truncate(time.Second).Format("2006:01:02 15:04:05") + "Z"
}

// Scan walks dir and calls fn with every media file and its candidates. Hidden
// files and directories are skipped; subdirectories only when recursive is set.
// Files whose candidates cannot be read are passed to onError.
func Scan(dir string, recursive bool, fn func(path string, values []string), onError func(path string, err error)) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == dir {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !IsMedia(filepath.Ext(p)) {
			return nil
		}
		values, err := Candidates(p)
		if err != nil {
			onError(p, err)
			return nil
		}
		fn(p, values)
		return nil
	})
}
