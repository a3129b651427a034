package metrics

import "time"

// ResultLabel enumerates per-file result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultSkipped ResultLabel = "skipped"
	ResultFailed  ResultLabel = "failed"
)

// BuildOutcomeLabel is the final status of a full build.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess BuildOutcomeLabel = "success"
	BuildOutcomeFailed  BuildOutcomeLabel = "failed"
)

// Recorder defines observability hooks for builds and rebuilds.
// Implementations must be safe for concurrent use: watch rebuilds of distinct
// files run in parallel.
type Recorder interface {
	// ObserveFileDuration records the time spent producing one output file.
	// transform is empty for verbatim copies.
	ObserveFileDuration(transform string, d time.Duration)
	IncFileResult(result ResultLabel)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	IncRebuildResult(result ResultLabel)
	// IncRebuildDropped counts change notifications that arrived while the
	// file was already rebuilding.
	IncRebuildDropped()
	SetWatchedPaths(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveFileDuration(string, time.Duration) {}
func (NoopRecorder) IncFileResult(ResultLabel)                 {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)        {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)         {}
func (NoopRecorder) IncRebuildResult(ResultLabel)              {}
func (NoopRecorder) IncRebuildDropped()                        {}
func (NoopRecorder) SetWatchedPaths(int)                       {}
