package transform

import (
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
)

// Template returns a transform executing the body as an html/template with
// the front matter map as its data. Options are passed to template.Option,
// e.g. "missingkey=error".
func Template(options ...string) Transform {
	return TransformFunc(func(ctx *Context) (string, error) {
		name := filepath.Base(ctx.Descriptor.OriginalPath)
		tmpl, err := template.New(name).Option(options...).Parse(ctx.Body)
		if err != nil {
			return "", fmt.Errorf("parse template: %w", err)
		}
		var sb strings.Builder
		if err := tmpl.Execute(&sb, ctx.Matter); err != nil {
			return "", fmt.Errorf("execute template: %w", err)
		}
		return sb.String(), nil
	})
}
