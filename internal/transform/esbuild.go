package transform

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// ScriptOptions configures the ts/tsx/jsx transforms.
type ScriptOptions struct {
	// Target is an ECMAScript version name such as "es2020" or "esnext".
	Target string
}

// BundleOptions configures the bundle transform.
type BundleOptions struct {
	Target string
	Minify bool
}

var esTargets = map[string]api.Target{
	"es5":    api.ES5,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"esnext": api.ESNext,
}

// ParseTarget maps an ECMAScript version name to an esbuild target. The
// empty string selects esbuild's default.
func ParseTarget(name string) (api.Target, error) {
	if name == "" {
		return api.DefaultTarget, nil
	}
	t, ok := esTargets[strings.ToLower(name)]
	if !ok {
		return api.DefaultTarget, fmt.Errorf("unknown script target %q", name)
	}
	return t, nil
}

// Script returns a transform transpiling TypeScript or JSX with the given
// esbuild loader.
func Script(loader api.Loader, opts ScriptOptions) (Transform, error) {
	target, err := ParseTarget(opts.Target)
	if err != nil {
		return nil, err
	}
	return TransformFunc(func(ctx *Context) (string, error) {
		result := api.Transform(ctx.Body, api.TransformOptions{
			Loader:     loader,
			Target:     target,
			Sourcefile: ctx.Descriptor.OriginalPath,
			LogLevel:   api.LogLevelSilent,
		})
		if len(result.Errors) > 0 {
			return "", messagesError(result.Errors)
		}
		return string(result.Code), nil
	}), nil
}

// Bundle returns a transform that bundles the body with everything it
// imports. The loader follows the output suffix: "css" bundles stylesheets,
// anything else JavaScript. Imports resolve against the file's source
// directory and every bundled file is reported as a dependency.
func Bundle(opts BundleOptions) (Transform, error) {
	target, err := ParseTarget(opts.Target)
	if err != nil {
		return nil, err
	}
	return bundleTransform{target: target, minify: opts.Minify}, nil
}

type bundleTransform struct {
	target api.Target
	minify bool
}

func (b bundleTransform) Run(ctx *Context) (Result, error) {
	desc := ctx.Descriptor
	dir := desc.SourceDir
	if dir == "" {
		dir = filepath.Dir(desc.OriginalPath)
	}

	loader := api.LoaderJS
	if strings.EqualFold(desc.OutputSuffix, "css") {
		loader = api.LoaderCSS
	}

	result := api.Build(api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   ctx.Body,
			ResolveDir: dir,
			Sourcefile: filepath.Base(desc.OriginalPath),
			Loader:     loader,
		},
		AbsWorkingDir:     dir,
		Bundle:            true,
		Write:             false,
		Metafile:          true,
		LogLevel:          api.LogLevelSilent,
		Target:            b.target,
		MinifyWhitespace:  b.minify,
		MinifyIdentifiers: b.minify,
		MinifySyntax:      b.minify,
	})
	if len(result.Errors) > 0 {
		return Result{}, messagesError(result.Errors)
	}
	if len(result.OutputFiles) == 0 {
		return Result{}, errors.New("bundle produced no output")
	}

	deps, err := metafileInputs(result.Metafile, dir)
	if err != nil {
		return Result{}, err
	}
	return Result{Output: string(result.OutputFiles[0].Contents), Dependencies: deps}, nil
}

// metafileInputs lists the on-disk inputs recorded in an esbuild metafile,
// as absolute paths.
func metafileInputs(metafile, dir string) ([]string, error) {
	if metafile == "" {
		return nil, nil
	}
	var meta struct {
		Inputs map[string]json.RawMessage `json:"inputs"`
	}
	if err := json.Unmarshal([]byte(metafile), &meta); err != nil {
		return nil, fmt.Errorf("decode bundle metafile: %w", err)
	}

	deps := make([]string, 0, len(meta.Inputs))
	for in := range meta.Inputs {
		if strings.HasPrefix(in, "<") || (strings.Contains(in, ":") && !filepath.IsAbs(in)) {
			continue
		}
		if !filepath.IsAbs(in) {
			in = filepath.Join(dir, in)
		}
		deps = append(deps, filepath.Clean(in))
	}
	sort.Strings(deps)
	return deps, nil
}

func messagesError(msgs []api.Message) error {
	errs := make([]error, 0, len(msgs))
	for _, m := range msgs {
		if m.Location != nil {
			errs = append(errs, fmt.Errorf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text))
			continue
		}
		errs = append(errs, errors.New(m.Text))
	}
	return errors.Join(errs...)
}
