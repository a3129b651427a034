package watch

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/sitemirror/internal/classify"
	ferrors "git.home.luguber.info/inful/sitemirror/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemirror/internal/logfields"
	"git.home.luguber.info/inful/sitemirror/internal/metrics"
	"git.home.luguber.info/inful/sitemirror/internal/mirror"
)

// State is the state of a Rebuilder.
type State int32

const (
	StateIdle State = iota
	StateRebuilding
)

func (s State) String() string {
	if s == StateRebuilding {
		return "rebuilding"
	}
	return "idle"
}

// DependencyFunc registers deps as additional triggers of r.
type DependencyFunc func(r *Rebuilder, deps []string) error

// Rebuilder rebuilds one file on demand. It is safe for concurrent use.
type Rebuilder struct {
	desc     classify.Descriptor
	rebuild  mirror.RebuildFunc
	onDeps   DependencyFunc
	logger   *slog.Logger
	recorder metrics.Recorder

	state       atomic.Int32
	depsWatched atomic.Bool
}

// RebuilderOption configures a Rebuilder.
type RebuilderOption func(*Rebuilder)

// WithRebuilderLogger sets the logger rebuild results are reported to.
func WithRebuilderLogger(l *slog.Logger) RebuilderOption {
	return func(r *Rebuilder) { r.logger = l }
}

// WithRebuilderRecorder sets the metrics recorder.
func WithRebuilderRecorder(rec metrics.Recorder) RebuilderOption {
	return func(r *Rebuilder) { r.recorder = rec }
}

// WithDependencyFunc sets the callback that starts watching the dependencies
// a transform reports. It is called at most once per Rebuilder with a
// non-empty list.
func WithDependencyFunc(fn DependencyFunc) RebuilderOption {
	return func(r *Rebuilder) { r.onDeps = fn }
}

// NewRebuilder returns an idle Rebuilder for desc.
func NewRebuilder(desc classify.Descriptor, rebuild mirror.RebuildFunc, opts ...RebuilderOption) *Rebuilder {
	r := &Rebuilder{
		desc:     desc,
		rebuild:  rebuild,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Descriptor returns the descriptor of the rebuilt file.
func (r *Rebuilder) Descriptor() classify.Descriptor { return r.desc }

// State returns the current state.
func (r *Rebuilder) State() State { return State(r.state.Load()) }

// Trigger handles one change notification synchronously. It returns false
// when the notification was dropped because a rebuild was already running.
func (r *Rebuilder) Trigger() bool {
	if !r.state.CompareAndSwap(int32(StateIdle), int32(StateRebuilding)) {
		r.recorder.IncRebuildDropped()
		r.logger.Debug("Rebuild already running; change dropped",
			logfields.Path(r.desc.OriginalPath), logfields.State(r.State().String()))
		return false
	}
	defer r.state.Store(int32(StateIdle))

	start := time.Now()
	deps, err := r.rebuild()
	if err != nil {
		r.recorder.IncRebuildResult(metrics.ResultFailed)
		attrs := []slog.Attr{logfields.Path(r.desc.OriginalPath), logfields.Error(err)}
		if diag := ferrors.DiagnosticContext(err); diag != "" {
			attrs = append(attrs, slog.String("diagnostic", diag))
		}
		r.logger.LogAttrs(context.Background(), slog.LevelError, "Rebuild failed", attrs...)
		return true
	}

	r.recorder.IncRebuildResult(metrics.ResultSuccess)
	r.logger.Info("Rebuilt",
		logfields.Path(r.desc.OriginalPath),
		logfields.Output(r.desc.OutputPath),
		logfields.Elapsed(time.Since(start)))
	r.watchDependencies(deps)
	return true
}

func (r *Rebuilder) watchDependencies(deps []string) {
	if len(deps) == 0 || r.onDeps == nil || !r.depsWatched.CompareAndSwap(false, true) {
		return
	}
	if err := r.onDeps(r, deps); err != nil {
		r.depsWatched.Store(false)
		r.logger.Warn("Could not watch dependencies",
			logfields.Path(r.desc.OriginalPath), logfields.Count(len(deps)), logfields.Error(err))
	}
}
