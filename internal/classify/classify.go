// Package classify infers build actions from a file's extension chain.
//
// The extension chain is the maximal trailing run of dot-separated, non-empty
// segments in a base name. Only the last two segments are ever interpreted:
//
//	page.html.md        transform "md", output page.html
//	partial.layout.html layout role, output partial.html
//	bundle.min.js       no transform ("min" is not an id), output bundle.min.js
//	archive.tar.gz      no transform, output archive.tar.gz
//	LICENSE             no chain, output LICENSE
package classify

import (
	"path/filepath"
	"strings"
)

// Role is the part a file plays in the site.
type Role int

const (
	RoleOrdinary Role = iota
	RoleLayout
	RolePartial
)

func (r Role) String() string {
	switch r {
	case RoleLayout:
		return "layout"
	case RolePartial:
		return "partial"
	default:
		return "ordinary"
	}
}

const (
	layoutSegment  = "layout"
	partialSegment = "partial"
)

// Lookup answers whether an identifier names a registered transform.
type Lookup interface {
	Has(id string) bool
}

// LookupFunc adapts a plain function to Lookup.
type LookupFunc func(id string) bool

// Has implements Lookup.
func (f LookupFunc) Has(id string) bool { return f(id) }

// Descriptor is the immutable classification of one source file.
type Descriptor struct {
	OriginalPath   string
	DestinationDir string

	// OutputPrefix is the output base name without OutputSuffix.
	OutputPrefix   string
	OutputSuffix   string
	OutputPath     string
	Role           Role
	NeedsTransform bool
	TransformID    string

	// SourceDir is the source directory mirrored by DestinationDir; relative
	// imports inside the file resolve against it.
	SourceDir string
}

// OutputName is the base name written into DestinationDir.
func (d Descriptor) OutputName() string {
	if d.OutputSuffix == "" {
		return d.OutputPrefix
	}
	return d.OutputPrefix + "." + d.OutputSuffix
}

// Classifier builds descriptors for files of one mirrored tree.
type Classifier struct {
	// SourceRoot and OutputRoot are the roots of the tree being mirrored. When
	// either is empty, SourceDir falls back to the file's own directory.
	SourceRoot string
	OutputRoot string
	Transforms Lookup
}

// New returns a Classifier for the tree sourceRoot mirrored into outputRoot.
func New(sourceRoot, outputRoot string, transforms Lookup) *Classifier {
	return &Classifier{SourceRoot: sourceRoot, OutputRoot: outputRoot, Transforms: transforms}
}

// Classify derives the descriptor of originalPath whose output goes into
// destinationDir.
func (c *Classifier) Classify(originalPath, destinationDir string) Descriptor {
	stem, chain := SplitChain(filepath.Base(originalPath))
	d := Descriptor{
		OriginalPath:   originalPath,
		DestinationDir: destinationDir,
		SourceDir:      c.sourceDir(originalPath, destinationDir),
	}

	if len(chain) < 2 {
		d.OutputPrefix = stem
		d.OutputSuffix = strings.Join(chain, ".")
		d.OutputPath = filepath.Join(destinationDir, d.OutputName())
		return d
	}

	n := len(chain)
	prefix := stem
	for _, seg := range chain[:n-2] {
		prefix += "." + seg
	}
	target, typ := chain[n-2], chain[n-1]

	switch {
	case target == layoutSegment:
		d.Role = RoleLayout
		d.OutputSuffix = typ
	case target == partialSegment:
		d.Role = RolePartial
		d.OutputSuffix = typ
	case c.Transforms != nil && c.Transforms.Has(typ):
		d.NeedsTransform = true
		d.TransformID = typ
		d.OutputSuffix = target
	default:
		prefix += "." + target
		d.OutputSuffix = typ
	}

	d.OutputPrefix = prefix
	d.OutputPath = filepath.Join(destinationDir, d.OutputName())
	return d
}

func (c *Classifier) sourceDir(originalPath, destinationDir string) string {
	if c.SourceRoot != "" && c.OutputRoot != "" {
		rel, err := filepath.Rel(c.OutputRoot, destinationDir)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return filepath.Join(c.SourceRoot, rel)
		}
	}
	return filepath.Dir(originalPath)
}

// SplitChain splits a base name into its stem and extension chain. A segment
// ends the chain when it is empty, so "a..b" has stem "a." and chain [b], and
// a name ending in a dot has no chain at all.
func SplitChain(name string) (string, []string) {
	var chain []string
	stem := name
	for {
		i := strings.LastIndexByte(stem, '.')
		if i < 0 || i == len(stem)-1 {
			break
		}
		chain = append(chain, stem[i+1:])
		stem = stem[:i]
	}
	for l, r := 0, len(chain)-1; l < r; l, r = l+1, r-1 {
		chain[l], chain[r] = chain[r], chain[l]
	}
	return stem, chain
}
