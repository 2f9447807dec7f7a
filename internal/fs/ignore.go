package fs

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IgnoreFileName is the per-archive ignore file, read from the archive root.
const IgnoreFileName = ".pmignore"

// defaultIgnoreRules are always applied before configured rules and .pmignore.
var defaultIgnoreRules = []string{"Thumbs.db", "desktop.ini"}

// ignoreRule is one parsed line of an ignore list.
//
//	*.xmp       base name of any file or directory
//	inbox/*.tmp path relative to the archive root
//	/scratch    anchored: only at the archive root
//	raw/        directories only
//	!keep.xmp   re-include something an earlier rule ignored
type ignoreRule struct {
	glob    string
	negate  bool
	dirOnly bool
	onPath  bool // glob matches the whole relative path instead of the base name
}

func (r ignoreRule) matches(rel, base string, isDir bool) bool {
	if r.dirOnly && !isDir {
		return false
	}
	subject := base
	if r.onPath {
		subject = rel
	}
	ok, err := filepath.Match(r.glob, subject)
	// malformed glob never matches
	return err == nil && ok
}

// parseIgnoreRule returns false for blank lines, comments and rules that
// reduce to nothing.
func parseIgnoreRule(line string) (ignoreRule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return ignoreRule{}, false
	}

	var r ignoreRule
	if strings.HasPrefix(line, "!") {
		r.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		r.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		r.onPath = true
		line = strings.TrimLeft(line, "/")
	}
	if strings.Contains(line, "/") {
		r.onPath = true
	}
	if line == "" {
		return ignoreRule{}, false
	}
	r.glob = line
	return r, true
}

// IgnoreMatcher decides which archive entries sync leaves alone. Rules are
// evaluated in order and the last matching rule wins, so a later "!" rule
// re-includes what an earlier rule ignored.
type IgnoreMatcher struct {
	rules []ignoreRule
}

// NewIgnoreMatcher parses rule lines. Blank lines and lines starting with '#'
// are skipped.
func NewIgnoreMatcher(lines []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, line := range lines {
		if r, ok := parseIgnoreRule(line); ok {
			m.rules = append(m.rules, r)
		}
	}
	return m
}

// LoadIgnoreMatcher builds the matcher for an archive from the default rules,
// then the configured ones, then those in <root>/.pmignore.
func LoadIgnoreMatcher(root string, configured []string) (*IgnoreMatcher, error) {
	fromFile, err := ParseIgnoreFile(filepath.Join(root, IgnoreFileName))
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(defaultIgnoreRules)+len(configured)+len(fromFile))
	lines = append(lines, defaultIgnoreRules...)
	lines = append(lines, configured...)
	lines = append(lines, fromFile...)
	return NewIgnoreMatcher(lines), nil
}

// Len returns the number of effective rules.
func (m *IgnoreMatcher) Len() int {
	return len(m.rules)
}

// Match reports whether rel, relative to the archive root, is ignored.
// isDir selects whether directory-only rules apply.
func (m *IgnoreMatcher) Match(rel string, isDir bool) bool {
	if rel == "" || rel == "." {
		return false
	}
	rel = filepath.ToSlash(rel)
	base := rel[strings.LastIndex(rel, "/")+1:]

	ignored := false
	for _, r := range m.rules {
		if r.matches(rel, base, isDir) {
			ignored = !r.negate
		}
	}
	return ignored
}

// ParseIgnoreFile reads an ignore file and returns its raw lines.
// A missing file yields no lines and no error.
func ParseIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file %s: %w", path, err)
	}
	return lines, nil
}
