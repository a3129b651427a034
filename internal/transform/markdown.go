package transform

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// MarkdownOptions configures the markdown transform.
type MarkdownOptions struct {
	// Unsafe passes raw HTML in the source through to the output.
	Unsafe bool
	// Extensions names goldmark extensions; unknown names are ignored. Empty
	// selects gfm.
	Extensions []string
}

var markdownExtensions = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"tasklist":      extension.TaskList,
	"footnote":      extension.Footnote,
	"typographer":   extension.Typographer,
}

// Markdown returns a transform rendering markdown to HTML. The goldmark
// engine is built once and shared by every invocation.
func Markdown(opts MarkdownOptions) Transform {
	engine := newMarkdownEngine(opts)
	return TransformFunc(func(ctx *Context) (string, error) {
		var buf bytes.Buffer
		if err := engine.Convert([]byte(ctx.Body), &buf); err != nil {
			return "", fmt.Errorf("markdown render: %w", err)
		}
		return buf.String(), nil
	})
}

func newMarkdownEngine(opts MarkdownOptions) goldmark.Markdown {
	var rendererOptions []renderer.Option
	if opts.Unsafe {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	engineOptions := []goldmark.Option{
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithExtensions(collectExtensions(opts.Extensions)...),
	}
	if len(rendererOptions) > 0 {
		engineOptions = append(engineOptions, goldmark.WithRendererOptions(rendererOptions...))
	}
	return goldmark.New(engineOptions...)
}

func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM}
	}

	seen := map[string]struct{}{}
	var extenders []goldmark.Extender
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, ok := seen[key]; ok {
			continue
		}
		ext, ok := markdownExtensions[key]
		if !ok {
			continue
		}
		seen[key] = struct{}{}
		extenders = append(extenders, ext)
	}
	return extenders
}
