package pm

import (
	"fmt"
	"path"
	"strings"
	"time"
)

// DefaultMaxSeq is the number of sequence slots available per capture second.
const DefaultMaxSeq = 100

// extAliases folds equivalent extensions onto one canonical spelling.
var extAliases = map[string]string{
	".jpeg": ".jpg",
}

// NormalizeExt lower-cases an extension (including the dot) and applies aliases.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if alias, ok := extAliases[ext]; ok {
		return alias
	}
	return ext
}

// CanonicalDir returns the archive-relative directory "YYYY/MM/DD" for t's wall clock.
func CanonicalDir(t time.Time) string {
	return t.Format("2006/01/02")
}

// CanonicalName returns the file name "HHMMSS_<seq><ext>" for t's wall clock.
func CanonicalName(t time.Time, seq int, ext string) string {
	return fmt.Sprintf("%s_%02d%s", t.Format("150405"), seq, ext)
}

// canonicalStem strips the extension and the "_<seq>" suffix from a base name.
func canonicalStem(base string) string {
	name := strings.TrimSuffix(base, path.Ext(base))
	if i := strings.LastIndexByte(name, '_'); i >= 0 {
		return name[:i]
	}
	return name
}

// isFiledAt reports whether the archive-relative path rel already sits at the
// canonical location for t, ignoring its sequence number and extension.
func isFiledAt(rel string, t time.Time) bool {
	return path.Dir(rel) == CanonicalDir(t) && canonicalStem(path.Base(rel)) == t.Format("150405")
}
