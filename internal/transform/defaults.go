package transform

import (
	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/sitemirror/internal/config"
)

// Options configures the built-in transforms.
type Options struct {
	Markdown MarkdownOptions
	Script   ScriptOptions
	Bundle   BundleOptions
}

// OptionsFromConfig maps the project's transforms section to Options.
func OptionsFromConfig(cfg config.TransformsConfig) Options {
	return Options{
		Markdown: MarkdownOptions{
			Unsafe:     cfg.Markdown.Unsafe,
			Extensions: cfg.Markdown.Extensions,
		},
		Script: ScriptOptions{Target: cfg.Script.Target},
		Bundle: BundleOptions{Target: cfg.Script.Target, Minify: cfg.Bundle.Minify},
	}
}

// Defaults returns a registry holding the built-in transforms.
func Defaults(opts Options) (*Registry, error) {
	r := NewRegistry()

	md := Markdown(opts.Markdown)
	r.MustRegister("md", md)
	r.MustRegister("markdown", md)
	r.MustRegister("tmpl", Template())

	for id, loader := range map[string]api.Loader{
		"ts":  api.LoaderTS,
		"tsx": api.LoaderTSX,
		"jsx": api.LoaderJSX,
	} {
		t, err := Script(loader, opts.Script)
		if err != nil {
			return nil, err
		}
		r.MustRegister(id, t)
	}

	bundle, err := Bundle(opts.Bundle)
	if err != nil {
		return nil, err
	}
	r.MustRegister("bundle", bundle)

	return r, nil
}
