package watch

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitemirror/internal/classify"
	ferrors "git.home.luguber.info/inful/sitemirror/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemirror/internal/metrics"
)

type countingRecorder struct {
	metrics.NoopRecorder
	mu      sync.Mutex
	results map[metrics.ResultLabel]int
	dropped int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{results: map[metrics.ResultLabel]int{}}
}

func (c *countingRecorder) IncRebuildResult(r metrics.ResultLabel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[r]++
}

func (c *countingRecorder) IncRebuildDropped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropped++
}

func desc(path string) classify.Descriptor {
	return classify.Descriptor{OriginalPath: path, OutputPath: path + ".out", NeedsTransform: true, TransformID: "md"}
}

func TestRebuilder_SyntheticTrigger(t *testing.T) {
	var calls atomic.Int32
	r := NewRebuilder(desc("/src/a.html.md"), func() ([]string, error) {
		calls.Add(1)
		return nil, nil
	})

	require.Equal(t, StateIdle, r.State())
	require.True(t, r.Trigger())
	require.True(t, r.Trigger())
	require.Equal(t, int32(2), calls.Load())
	require.Equal(t, StateIdle, r.State())
}

func TestRebuilder_DropsTriggersWhileRebuilding(t *testing.T) {
	rec := newCountingRecorder()
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := NewRebuilder(desc("/src/a.html.md"), func() ([]string, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		return nil, nil
	}, WithRebuilderRecorder(rec), WithRebuilderLogger(logger))

	done := make(chan bool)
	go func() { done <- r.Trigger() }()

	<-started
	require.Equal(t, StateRebuilding, r.State())
	require.False(t, r.Trigger())
	require.Contains(t, logs.String(), "state=rebuilding")

	close(release)
	require.True(t, <-done)
	require.Equal(t, StateIdle, r.State())
	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, 1, rec.dropped)
	require.Equal(t, 1, rec.results[metrics.ResultSuccess])
}

func TestRebuilder_FailureReturnsToIdleAndRetries(t *testing.T) {
	rec := newCountingRecorder()
	fail := true
	r := NewRebuilder(desc("/src/a.html.md"), func() ([]string, error) {
		if fail {
			return nil, ferrors.TransformError("transform failed").
				WithCause(errors.New("unexpected token")).
				WithContext("file", "/src/a.html.md").
				WithContext("transform", "md").
				Build()
		}
		return nil, nil
	}, WithRebuilderRecorder(rec))

	require.True(t, r.Trigger())
	require.Equal(t, StateIdle, r.State())

	fail = false
	require.True(t, r.Trigger())
	require.Equal(t, 1, rec.results[metrics.ResultFailed])
	require.Equal(t, 1, rec.results[metrics.ResultSuccess])
}

func TestRebuilder_RegistersDependenciesOnce(t *testing.T) {
	var registered [][]string
	r := NewRebuilder(desc("/src/site.css.bundle"), func() ([]string, error) {
		return []string{"/src/_vars.css"}, nil
	}, WithDependencyFunc(func(_ *Rebuilder, deps []string) error {
		registered = append(registered, deps)
		return nil
	}))

	r.Trigger()
	r.Trigger()
	require.Equal(t, [][]string{{"/src/_vars.css"}}, registered)
}

func TestRebuilder_RetriesDependencyRegistrationAfterFailure(t *testing.T) {
	attempts := 0
	r := NewRebuilder(desc("/src/site.css.bundle"), func() ([]string, error) {
		return []string{"/src/_vars.css"}, nil
	}, WithDependencyFunc(func(*Rebuilder, []string) error {
		attempts++
		if attempts == 1 {
			return errors.New("no space left on watch table")
		}
		return nil
	}))

	r.Trigger()
	r.Trigger()
	r.Trigger()
	require.Equal(t, 2, attempts)
}

func TestRebuilder_ConcurrentTriggersNeverOverlap(t *testing.T) {
	var running, maxRunning atomic.Int32
	r := NewRebuilder(desc("/src/a.txt"), func() ([]string, error) {
		n := running.Add(1)
		for {
			m := maxRunning.Load()
			if n <= m || maxRunning.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		running.Add(-1)
		return nil, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Trigger()
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), maxRunning.Load())
	require.Equal(t, StateIdle, r.State())
}

func TestStateString(t *testing.T) {
	require.Equal(t, "idle", StateIdle.String())
	require.Equal(t, "rebuilding", StateRebuilding.String())
}
