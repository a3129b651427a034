package mirror

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitemirror/internal/classify"
	"git.home.luguber.info/inful/sitemirror/internal/config"
	ferrors "git.home.luguber.info/inful/sitemirror/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemirror/internal/ignore"
	"git.home.luguber.info/inful/sitemirror/internal/logfields"
	"git.home.luguber.info/inful/sitemirror/internal/metrics"
	"git.home.luguber.info/inful/sitemirror/internal/transform"
)

// Options configures Build.
type Options struct {
	// SourceDir is the project directory holding config.json.
	SourceDir string
	Mode      Mode

	// Registry supplies the transforms. Nil selects the built-ins configured
	// from config.json.
	Registry *transform.Registry
	// LayoutComposer is handed to the dispatcher; nil leaves layouts unwoven.
	LayoutComposer transform.LayoutComposer

	// Observer receives walker events in addition to the log and metrics
	// observers Build always installs.
	Observer Observer
	Recorder metrics.Recorder
	// Registrar receives every file in ModeContinuous. Ignored otherwise.
	Registrar Registrar
	Logger    *slog.Logger
}

// OutputDir returns the output directory Build uses for mode under baseDir.
func OutputDir(baseDir string, mode Mode) string {
	if mode == ModeContinuous {
		return filepath.Join(baseDir, config.CacheDirName)
	}
	return filepath.Join(baseDir, config.BuildDirName)
}

// Build runs one full build. Only the output directory of opts.Mode is
// removed and recreated; the other one is never touched. The returned report
// is non-nil even on error.
func Build(opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rec := opts.Recorder
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}

	report := &Report{RunID: uuid.NewString(), Mode: opts.Mode, Start: time.Now()}
	logger = logger.With(logfields.RunID(report.RunID), logfields.Mode(opts.Mode.String()))
	observer := Multi(NewLogObserver(logger, opts.Mode), NewMetricsObserver(rec), opts.Observer)

	finish := func(err error) (*Report, error) {
		report.End = time.Now()
		report.Err = err
		observer.OnBuildComplete(report)
		return report, err
	}

	cfg, err := config.Load(opts.SourceDir)
	if err != nil {
		return finish(err)
	}
	report.SourceDir = cfg.BaseDir
	report.OutputDir = OutputDir(cfg.BaseDir, opts.Mode)

	registry := opts.Registry
	if registry == nil {
		registry, err = transform.Defaults(transform.OptionsFromConfig(cfg.Transforms))
		if err != nil {
			return finish(ferrors.ConfigError("invalid transforms configuration").WithCause(err).Build())
		}
	}

	if err := resetDir(report.OutputDir); err != nil {
		return finish(err)
	}
	logger.Debug("Output directory ready", logfields.Output(report.OutputDir))

	var registrar Registrar
	if opts.Mode == ModeContinuous {
		registrar = opts.Registrar
	}

	walker := NewWalker(
		ignore.FromConfig(cfg),
		classify.New(cfg.BaseDir, report.OutputDir, registry),
		transform.NewDispatcher(registry,
			transform.WithBaseDir(cfg.BaseDir),
			transform.WithLayoutComposer(opts.LayoutComposer)),
		observer,
		registrar,
		logger,
	)
	err = walker.Mirror(cfg.BaseDir, report.OutputDir)

	counts := walker.Report()
	report.Files = counts.Files
	report.Transformed = counts.Transformed
	report.Skipped = counts.Skipped
	report.Dirs = counts.Dirs
	report.Watched = counts.Watched
	return finish(err)
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return ferrors.FileSystemError("remove previous output directory").
			WithCause(err).WithContext("path", dir).Build()
	}
	if err := os.Mkdir(dir, dirPerm); err != nil {
		return ferrors.FileSystemError("create output directory").
			WithCause(err).WithContext("path", dir).Build()
	}
	return nil
}
