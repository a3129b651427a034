package transform

import (
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/sitemirror/internal/classify"
	ferrors "git.home.luguber.info/inful/sitemirror/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemirror/internal/frontmatter"
)

// LayoutKey is the front matter key naming a layout file.
const LayoutKey = "layout"

// LayoutComposer weaves transformed content into a layout. No composer is
// installed by default: the layout is read and validated but the output is
// the transform's output unchanged.
type LayoutComposer interface {
	Compose(layoutPath string, layout []byte, content string, ctx *Context) (string, error)
}

// Output is what the Dispatcher produced for one file.
type Output struct {
	Bytes        []byte
	Dependencies []string
}

// Dispatcher produces output bytes for classified files.
type Dispatcher struct {
	registry *Registry
	baseDir  string
	composer LayoutComposer
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithBaseDir sets the project directory layout paths resolve against.
// Without it, layouts resolve against the file's source directory.
func WithBaseDir(dir string) DispatcherOption {
	return func(d *Dispatcher) { d.baseDir = dir }
}

// WithLayoutComposer installs a composer for files that name a layout.
func WithLayoutComposer(c LayoutComposer) DispatcherOption {
	return func(d *Dispatcher) { d.composer = c }
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{registry: registry}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Produce returns the output for desc given the source bytes raw. Files that
// need no transform are returned byte-for-byte. Failures of the transform
// itself are classified as transform errors carrying the file and transform
// id in their context.
func (d *Dispatcher) Produce(desc classify.Descriptor, raw []byte) (Output, error) {
	if !desc.NeedsTransform {
		return Output{Bytes: raw}, nil
	}

	t, err := d.registry.Get(desc.TransformID)
	if err != nil {
		return Output{}, d.transformError(desc, "no transform registered", err)
	}

	body, matter, err := frontmatter.Extract(raw)
	if err != nil {
		return Output{}, d.transformError(desc, "invalid front matter", err)
	}

	ctx := &Context{Body: string(body), Matter: matter, Descriptor: desc}
	res, err := t.Run(ctx)
	if err != nil {
		return Output{}, d.transformError(desc, "transform failed", err)
	}

	out := res.Output
	if layout, ok := matter[LayoutKey]; ok {
		out, err = d.applyLayout(desc, layout, out, ctx)
		if err != nil {
			return Output{}, err
		}
	}

	return Output{Bytes: []byte(out), Dependencies: res.Dependencies}, nil
}

func (d *Dispatcher) applyLayout(desc classify.Descriptor, value any, content string, ctx *Context) (string, error) {
	name, ok := value.(string)
	if !ok || name == "" {
		return "", ferrors.TransformError("layout must be a file path").
			WithCause(fmt.Errorf("got %v", value)).
			WithContext("file", desc.OriginalPath).
			WithContext("transform", desc.TransformID).
			Build()
	}

	path := name
	if !filepath.IsAbs(path) {
		base := d.baseDir
		if base == "" {
			base = desc.SourceDir
		}
		path = filepath.Join(base, path)
	}

	layout, err := os.ReadFile(path)
	if err != nil {
		return "", ferrors.FileSystemError("read layout").
			WithCause(err).
			WithContext("file", desc.OriginalPath).
			WithContext("path", path).
			Build()
	}

	if d.composer == nil {
		return content, nil
	}
	composed, err := d.composer.Compose(path, layout, content, ctx)
	if err != nil {
		return "", d.transformError(desc, "layout composition failed", err)
	}
	return composed, nil
}

func (d *Dispatcher) transformError(desc classify.Descriptor, msg string, cause error) error {
	return ferrors.TransformError(msg).
		WithCause(cause).
		WithContext("file", desc.OriginalPath).
		WithContext("transform", desc.TransformID).
		Build()
}
