package mirror

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitemirror/internal/classify"
	"git.home.luguber.info/inful/sitemirror/internal/logfields"
	"git.home.luguber.info/inful/sitemirror/internal/metrics"
)

// EventKind classifies walker events.
type EventKind int

const (
	EventProcessed EventKind = iota
	EventSkipped
	EventDirCreated
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventProcessed:
		return "processed"
	case EventSkipped:
		return "skipped"
	case EventDirCreated:
		return "dir_created"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event describes one walked entry.
type Event struct {
	Kind EventKind
	// Path is the absolute source path of the entry.
	Path string
	// Output is the written file or created directory; empty for skips.
	Output string
	// Descriptor is set for processed files.
	Descriptor *classify.Descriptor
	Duration   time.Duration
	Err        error
}

// Observer receives walker events and the final report.
type Observer interface {
	OnEvent(ev Event)
	OnBuildComplete(report *Report)
}

// NoopObserver is a no-op implementation.
type NoopObserver struct{}

func (NoopObserver) OnEvent(Event)           {}
func (NoopObserver) OnBuildComplete(*Report) {}

// LogObserver renders events as slog records. Processed files are logged at
// Level, which callers set to Info for builds and Debug for continuous mode.
type LogObserver struct {
	Logger *slog.Logger
	Level  slog.Level
}

// NewLogObserver returns a LogObserver for mode.
func NewLogObserver(logger *slog.Logger, mode Mode) LogObserver {
	level := slog.LevelInfo
	if mode == ModeContinuous {
		level = slog.LevelDebug
	}
	if logger == nil {
		logger = slog.Default()
	}
	return LogObserver{Logger: logger, Level: level}
}

func (o LogObserver) OnEvent(ev Event) {
	ctx := context.Background()
	switch ev.Kind {
	case EventProcessed:
		attrs := []slog.Attr{logfields.Path(ev.Path), logfields.Output(ev.Output), logfields.Elapsed(ev.Duration)}
		if d := ev.Descriptor; d != nil {
			if d.NeedsTransform {
				attrs = append(attrs, logfields.Transform(d.TransformID))
			}
			if d.Role != classify.RoleOrdinary {
				attrs = append(attrs, logfields.Role(d.Role.String()))
			}
		}
		o.Logger.LogAttrs(ctx, o.Level, "Processed", attrs...)
	case EventDirCreated:
		o.Logger.LogAttrs(ctx, slog.LevelDebug, "Created directory", logfields.Output(ev.Output))
	case EventSkipped:
		o.Logger.LogAttrs(ctx, slog.LevelDebug, "Skipped", logfields.Path(ev.Path))
	case EventError:
		o.Logger.LogAttrs(ctx, slog.LevelError, "Failed", logfields.Path(ev.Path), logfields.Error(ev.Err))
	}
}

func (o LogObserver) OnBuildComplete(r *Report) {
	o.Logger.LogAttrs(context.Background(), slog.LevelInfo, "Build complete",
		logfields.Output(r.OutputDir),
		slog.Int("files", r.Files),
		slog.Int("transformed", r.Transformed),
		slog.Int("skipped", r.Skipped),
		slog.Int("dirs", r.Dirs),
		logfields.Elapsed(r.Duration()),
	)
}

// recorderObserver adapts metrics.Recorder into an Observer.
type recorderObserver struct{ rec metrics.Recorder }

// NewMetricsObserver returns an Observer feeding rec.
func NewMetricsObserver(rec metrics.Recorder) Observer {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return recorderObserver{rec: rec}
}

func (r recorderObserver) OnEvent(ev Event) {
	switch ev.Kind {
	case EventProcessed:
		id := ""
		if ev.Descriptor != nil {
			id = ev.Descriptor.TransformID
		}
		r.rec.ObserveFileDuration(id, ev.Duration)
		r.rec.IncFileResult(metrics.ResultSuccess)
	case EventSkipped:
		r.rec.IncFileResult(metrics.ResultSkipped)
	case EventError:
		r.rec.IncFileResult(metrics.ResultFailed)
	}
}

func (r recorderObserver) OnBuildComplete(report *Report) {
	r.rec.ObserveBuildDuration(report.Duration())
	if report.Err != nil {
		r.rec.IncBuildOutcome(metrics.BuildOutcomeFailed)
		return
	}
	r.rec.IncBuildOutcome(metrics.BuildOutcomeSuccess)
}

// multiObserver fans events out to several observers in order.
type multiObserver []Observer

// Multi combines observers; nil entries are dropped.
func Multi(observers ...Observer) Observer {
	var m multiObserver
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	return m
}

func (m multiObserver) OnEvent(ev Event) {
	for _, o := range m {
		o.OnEvent(ev)
	}
}

func (m multiObserver) OnBuildComplete(r *Report) {
	for _, o := range m {
		o.OnBuildComplete(r)
	}
}
