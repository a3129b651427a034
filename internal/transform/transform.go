package transform

import (
	"git.home.luguber.info/inful/sitemirror/internal/classify"
)

// Context is the input of one transform invocation.
type Context struct {
	// Body is the source text with any front matter removed.
	Body string
	// Matter holds the parsed front matter; empty, never nil.
	Matter     map[string]any
	Descriptor classify.Descriptor
}

// Result is the output of one transform invocation.
type Result struct {
	Output string
	// Dependencies lists absolute paths of other files the output was built
	// from (imported partials, bundled modules). A change to any of them
	// should rebuild the file.
	Dependencies []string
}

// Transform converts one kind of source text into another.
type Transform interface {
	Run(ctx *Context) (Result, error)
}

// TransformFunc adapts a plain text-to-text function to Transform.
type TransformFunc func(ctx *Context) (string, error)

// Run implements Transform.
func (f TransformFunc) Run(ctx *Context) (Result, error) {
	out, err := f(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{Output: out}, nil
}
