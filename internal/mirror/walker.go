package mirror

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitemirror/internal/classify"
	ferrors "git.home.luguber.info/inful/sitemirror/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemirror/internal/ignore"
	"git.home.luguber.info/inful/sitemirror/internal/logfields"
	"git.home.luguber.info/inful/sitemirror/internal/transform"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// RebuildFunc re-produces one file's output from its current source and
// returns the dependencies its transform reported.
type RebuildFunc func() ([]string, error)

// Registrar arranges for a file to be rebuilt when it or one of deps changes.
type Registrar interface {
	Watch(desc classify.Descriptor, rebuild RebuildFunc, deps []string) error
}

// Walker mirrors a directory tree.
type Walker struct {
	ignore     *ignore.Set
	classifier *classify.Classifier
	dispatcher *transform.Dispatcher
	observer   Observer
	registrar  Registrar
	logger     *slog.Logger

	report *Report
}

// NewWalker creates a walker. registrar may be nil, in which case no file is
// registered for rebuilds.
func NewWalker(ignores *ignore.Set, classifier *classify.Classifier, dispatcher *transform.Dispatcher,
	observer Observer, registrar Registrar, logger *slog.Logger,
) *Walker {
	if observer == nil {
		observer = NoopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{
		ignore:     ignores,
		classifier: classifier,
		dispatcher: dispatcher,
		observer:   observer,
		registrar:  registrar,
		logger:     logger,
		report:     &Report{},
	}
}

// frame is one directory being walked.
type frame struct {
	src, dst string
	entries  []fs.DirEntry
	next     int
}

// Mirror walks src depth-first and materializes it under dst, which must
// exist. Entries are visited in directory order. The first error stops the
// walk; whatever was written so far stays.
func (w *Walker) Mirror(src, dst string) error {
	root, err := w.open(src, dst)
	if err != nil {
		return err
	}

	stack := []*frame{root}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next == len(top.entries) {
			stack = stack[:len(stack)-1]
			continue
		}
		entry := top.entries[top.next]
		top.next++

		srcPath := filepath.Join(top.src, entry.Name())
		if w.ignore != nil && w.ignore.ShouldIgnore(srcPath, entry.Name()) {
			w.report.Skipped++
			w.observer.OnEvent(Event{Kind: EventSkipped, Path: srcPath})
			continue
		}

		switch {
		case entry.IsDir():
			dstPath := filepath.Join(top.dst, entry.Name())
			if err := w.mkdir(srcPath, dstPath); err != nil {
				return err
			}
			child, err := w.open(srcPath, dstPath)
			if err != nil {
				return err
			}
			stack = append(stack, child)
		case !isMaterializable(entry.Type()), isDirLink(srcPath, entry.Type()):
			w.report.Skipped++
			w.observer.OnEvent(Event{Kind: EventSkipped, Path: srcPath})
		default:
			if err := w.materialize(srcPath, top.dst); err != nil {
				return err
			}
		}
	}
	return nil
}

// Report returns the counters accumulated by Mirror.
func (w *Walker) Report() *Report { return w.report }

func (w *Walker) open(src, dst string) (*frame, error) {
	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, w.fail(src, ferrors.FileSystemError("read directory").
			WithCause(err).WithContext("path", src).Build())
	}
	return &frame{src: src, dst: dst, entries: entries}, nil
}

func (w *Walker) mkdir(src, dst string) error {
	if err := os.MkdirAll(dst, dirPerm); err != nil {
		return w.fail(src, ferrors.FileSystemError("create directory").
			WithCause(err).WithContext("path", dst).Build())
	}
	w.report.Dirs++
	w.observer.OnEvent(Event{Kind: EventDirCreated, Path: src, Output: dst})
	return nil
}

func (w *Walker) materialize(src, dstDir string) error {
	start := time.Now()
	desc := w.classifier.Classify(src, dstDir)

	deps, err := w.write(desc)
	if err != nil {
		return w.fail(src, err)
	}

	w.report.Files++
	if desc.NeedsTransform {
		w.report.Transformed++
	}
	w.observer.OnEvent(Event{
		Kind:       EventProcessed,
		Path:       src,
		Output:     desc.OutputPath,
		Descriptor: &desc,
		Duration:   time.Since(start),
	})

	if w.registrar == nil {
		return nil
	}
	rebuild := func() ([]string, error) { return w.write(desc) }
	if err := w.registrar.Watch(desc, rebuild, deps); err != nil {
		w.logger.Warn("Could not watch file; edits will not rebuild it",
			logfields.Path(src), logfields.Error(err))
		return nil
	}
	w.report.Watched++
	return nil
}

// write reads the source of desc, produces its output and writes it,
// overwriting whatever is there.
func (w *Walker) write(desc classify.Descriptor) ([]string, error) {
	raw, err := os.ReadFile(desc.OriginalPath)
	if err != nil {
		return nil, ferrors.FileSystemError("read source file").
			WithCause(err).WithContext("path", desc.OriginalPath).Build()
	}
	out, err := w.dispatcher.Produce(desc, raw)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(desc.OutputPath, out.Bytes, filePerm); err != nil {
		return nil, ferrors.FileSystemError("write output file").
			WithCause(err).WithContext("path", desc.OutputPath).Build()
	}
	return out.Dependencies, nil
}

func (w *Walker) fail(path string, err error) error {
	w.observer.OnEvent(Event{Kind: EventError, Path: path, Err: err})
	return err
}

// isDirLink reports whether a symlink entry points at a directory. Such links
// are skipped rather than followed, so link cycles cannot hang the walk.
func isDirLink(path string, t fs.FileMode) bool {
	if t&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// isMaterializable reports whether an entry of type t can be read as a file.
// Symlinks are followed on read.
func isMaterializable(t fs.FileMode) bool {
	return t&(fs.ModeNamedPipe|fs.ModeSocket|fs.ModeDevice|fs.ModeCharDevice|fs.ModeIrregular) == 0
}
