// Package ignore decides which source entries a build skips.
//
// The rule set is deliberately flat: an entry is either an exact absolute
// path or, when written with a leading "*", a bare name matched at any depth.
// There is no glob or regex support beyond that leading marker; "*.log"
// means the literal name ".log", not every file ending in .log.
package ignore

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitemirror/internal/config"
	"git.home.luguber.info/inful/sitemirror/internal/util/sets"
)

// WildcardMarker prefixes a pattern that matches a bare name anywhere in the tree.
const WildcardMarker = "*"

// Set holds the ignore rules of one build run. Build a new one per run; it is
// read-only after construction and safe for concurrent ShouldIgnore calls.
type Set struct {
	paths   sets.Set[string]
	starred sets.Set[string]
}

// New builds the rules for a project rooted at baseDir: the three implicit
// entries (config file, build dir, cache dir) plus the user patterns in order.
func New(baseDir string, patterns []string) *Set {
	s := &Set{
		paths: sets.New(
			resolve(baseDir, config.ConfigFileName),
			resolve(baseDir, config.BuildDirName),
			resolve(baseDir, config.CacheDirName),
		),
		starred: sets.New[string](),
	}
	for _, p := range patterns {
		s.Add(baseDir, p)
	}
	return s
}

// FromConfig builds the rules from a loaded project configuration.
func FromConfig(cfg *config.Config) *Set {
	return New(cfg.BaseDir, cfg.Ignore)
}

// Add registers one pattern. Patterns that never match anything are inert.
func (s *Set) Add(baseDir, pattern string) {
	if strings.HasPrefix(pattern, WildcardMarker) {
		s.starred.Add(cleanName(pattern))
		return
	}
	s.paths.Add(resolve(baseDir, pattern))
}

// ShouldIgnore reports whether the entry at absPath, whose base name is name,
// must be skipped. Dot-prefixed names are always skipped.
func (s *Set) ShouldIgnore(absPath, name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	if s.paths.Has(filepath.Clean(absPath)) {
		return true
	}
	return s.starred.Has(cleanName(name))
}

// Paths returns the exact-path entries, sorted.
func (s *Set) Paths() []string { return sets.Sorted(s.paths) }

// Names returns the starred name entries, sorted.
func (s *Set) Names() []string { return sets.Sorted(s.starred) }

// cleanName strips one leading wildcard marker and any leading or trailing
// path separators, so "*/node_modules/" registers "node_modules".
func cleanName(name string) string {
	name = strings.TrimPrefix(name, WildcardMarker)
	return strings.Trim(name, `/\`)
}

func resolve(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(baseDir, p)
}
