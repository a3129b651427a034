package mirror

import "time"

// Mode selects the output directory and the per-file behavior of a build.
type Mode int

const (
	// ModeBuild writes an inspectable tree into _build and logs every file.
	ModeBuild Mode = iota
	// ModeContinuous writes into the hidden cache directory, logs quietly and
	// registers every file for watch rebuilds.
	ModeContinuous
)

func (m Mode) String() string {
	if m == ModeContinuous {
		return "continuous"
	}
	return "build"
}

// Report summarizes one build run.
type Report struct {
	RunID     string
	Mode      Mode
	SourceDir string
	OutputDir string
	Start     time.Time
	End       time.Time

	Files       int
	Transformed int
	Skipped     int
	Dirs        int
	Watched     int

	// Err is the error that stopped the run, if any.
	Err error
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return 0
	}
	return r.End.Sub(r.Start)
}
