package mirror

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitemirror/internal/classify"
	"git.home.luguber.info/inful/sitemirror/internal/metrics"
)

func bufferLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})), &buf
}

func TestLogObserver_BuildModeLogsProcessedAtInfo(t *testing.T) {
	logger, buf := bufferLogger(slog.LevelInfo)
	obs := NewLogObserver(logger, ModeBuild)
	desc := classify.Descriptor{NeedsTransform: true, TransformID: "md"}

	obs.OnEvent(Event{Kind: EventProcessed, Path: "/s/a.html.md", Output: "/o/a.html", Descriptor: &desc, Duration: 1500 * time.Microsecond})
	obs.OnEvent(Event{Kind: EventSkipped, Path: "/s/.git"})

	out := buf.String()
	require.Contains(t, out, "msg=Processed")
	require.Contains(t, out, "path=/s/a.html.md")
	require.Contains(t, out, "transform=md")
	require.Contains(t, out, "duration_ms=1.5")
	require.NotContains(t, out, "Skipped")
}

func TestLogObserver_ProcessedLogsNonOrdinaryRole(t *testing.T) {
	logger, buf := bufferLogger(slog.LevelInfo)
	obs := NewLogObserver(logger, ModeBuild)
	layout := classify.Descriptor{Role: classify.RoleLayout}
	plain := classify.Descriptor{}

	obs.OnEvent(Event{Kind: EventProcessed, Path: "/s/base.layout.html", Output: "/o/base.html", Descriptor: &layout})
	require.Contains(t, buf.String(), "role=layout")

	buf.Reset()
	obs.OnEvent(Event{Kind: EventProcessed, Path: "/s/a.txt", Output: "/o/a.txt", Descriptor: &plain})
	require.NotContains(t, buf.String(), "role=")
}

func TestLogObserver_ContinuousModeIsQuiet(t *testing.T) {
	logger, buf := bufferLogger(slog.LevelInfo)
	obs := NewLogObserver(logger, ModeContinuous)

	obs.OnEvent(Event{Kind: EventProcessed, Path: "/s/a.txt", Output: "/o/a.txt"})
	require.Empty(t, buf.String())

	obs.OnEvent(Event{Kind: EventError, Path: "/s/b.txt", Err: errors.New("denied")})
	require.Contains(t, buf.String(), "error=denied")
}

func TestLogObserver_BuildComplete(t *testing.T) {
	logger, buf := bufferLogger(slog.LevelInfo)
	start := time.Now()
	NewLogObserver(logger, ModeBuild).OnBuildComplete(&Report{
		RunID: "run-1", Files: 3, Transformed: 1, Start: start, End: start.Add(time.Second),
	})

	out := buf.String()
	require.Contains(t, out, "files=3")
	require.Contains(t, out, "duration_ms=1000")
}

type countingRecorder struct {
	metrics.NoopRecorder
	files    map[metrics.ResultLabel]int
	outcomes map[metrics.BuildOutcomeLabel]int
	timed    []string
}

func (c *countingRecorder) IncFileResult(r metrics.ResultLabel) { c.files[r]++ }
func (c *countingRecorder) IncBuildOutcome(o metrics.BuildOutcomeLabel) {
	c.outcomes[o]++
}
func (c *countingRecorder) ObserveFileDuration(id string, _ time.Duration) {
	c.timed = append(c.timed, id)
}

func TestMetricsObserver(t *testing.T) {
	rec := &countingRecorder{files: map[metrics.ResultLabel]int{}, outcomes: map[metrics.BuildOutcomeLabel]int{}}
	obs := NewMetricsObserver(rec)
	desc := classify.Descriptor{TransformID: "md"}

	obs.OnEvent(Event{Kind: EventProcessed, Descriptor: &desc})
	obs.OnEvent(Event{Kind: EventProcessed})
	obs.OnEvent(Event{Kind: EventSkipped})
	obs.OnEvent(Event{Kind: EventDirCreated})
	obs.OnEvent(Event{Kind: EventError})
	obs.OnBuildComplete(&Report{Err: errors.New("x")})
	obs.OnBuildComplete(&Report{})

	require.Equal(t, 2, rec.files[metrics.ResultSuccess])
	require.Equal(t, 1, rec.files[metrics.ResultSkipped])
	require.Equal(t, 1, rec.files[metrics.ResultFailed])
	require.Equal(t, []string{"md", ""}, rec.timed)
	require.Equal(t, 1, rec.outcomes[metrics.BuildOutcomeFailed])
	require.Equal(t, 1, rec.outcomes[metrics.BuildOutcomeSuccess])
}

func TestMulti(t *testing.T) {
	a, b := &recordingObserver{}, &recordingObserver{}
	m := Multi(a, nil, b)

	m.OnEvent(Event{Kind: EventSkipped, Path: "x"})
	r := &Report{}
	m.OnBuildComplete(r)

	require.Len(t, a.events, 1)
	require.Len(t, b.events, 1)
	require.Same(t, r, a.report)
	require.Same(t, r, b.report)
}

func TestEventKindAndModeStrings(t *testing.T) {
	require.Equal(t, "processed", EventProcessed.String())
	require.Equal(t, "dir_created", EventDirCreated.String())
	require.Equal(t, "build", ModeBuild.String())
	require.Equal(t, "continuous", ModeContinuous.String())
}
