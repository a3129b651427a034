package watch

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitemirror/internal/classify"
	ferrors "git.home.luguber.info/inful/sitemirror/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemirror/internal/logfields"
	"git.home.luguber.info/inful/sitemirror/internal/metrics"
	"git.home.luguber.info/inful/sitemirror/internal/mirror"
	"git.home.luguber.info/inful/sitemirror/internal/util/sets"
)

var _ mirror.Registrar = (*Hub)(nil)

// Hub routes filesystem notifications to Rebuilders. Directories are watched
// rather than files so editors that replace a file on save keep triggering.
type Hub struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	recorder metrics.Recorder

	mu     sync.Mutex
	routes map[string][]*Rebuilder
	dirs   sets.Set[string]

	inflight sync.WaitGroup
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithLogger sets the hub's logger; Rebuilders inherit it.
func WithLogger(l *slog.Logger) HubOption {
	return func(h *Hub) { h.logger = l }
}

// WithRecorder sets the metrics recorder; Rebuilders inherit it.
func WithRecorder(rec metrics.Recorder) HubOption {
	return func(h *Hub) { h.recorder = rec }
}

// NewHub creates a hub with its own fsnotify watcher.
func NewHub(opts ...HubOption) (*Hub, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WatchError("create file watcher").WithCause(err).Fatal().Build()
	}
	h := &Hub{
		watcher:  w,
		logger:   slog.Default(),
		recorder: metrics.NoopRecorder{},
		routes:   make(map[string][]*Rebuilder),
		dirs:     sets.New[string](),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Watch registers a Rebuilder for desc triggered by its source and by deps.
func (h *Hub) Watch(desc classify.Descriptor, rebuild mirror.RebuildFunc, deps []string) error {
	r := NewRebuilder(desc, rebuild,
		WithRebuilderLogger(h.logger),
		WithRebuilderRecorder(h.recorder),
		WithDependencyFunc(h.addDependencies))
	if err := h.route(desc.OriginalPath, r); err != nil {
		return err
	}
	r.watchDependencies(deps)
	return nil
}

func (h *Hub) addDependencies(r *Rebuilder, deps []string) error {
	own := filepath.Clean(r.Descriptor().OriginalPath)
	var errs []error
	for _, dep := range deps {
		if filepath.Clean(dep) == own {
			continue
		}
		if err := h.route(dep, r); err != nil {
			errs = append(errs, err)
		}
	}
	h.logger.Debug("Watching dependencies", logfields.Path(own), logfields.Count(len(deps)))
	return errors.Join(errs...)
}

func (h *Hub) route(path string, r *Rebuilder) error {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.dirs.Has(dir) {
		if err := h.watcher.Add(dir); err != nil {
			return ferrors.WatchError("watch directory").WithCause(err).WithContext("path", dir).Warning().Build()
		}
		h.dirs.Add(dir)
	}
	if !slices.Contains(h.routes[path], r) {
		h.routes[path] = append(h.routes[path], r)
	}
	h.recorder.SetWatchedPaths(len(h.routes))
	return nil
}

// rebuilders returns the Rebuilders triggered by path.
func (h *Hub) rebuilders(path string) []*Rebuilder {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.routes[filepath.Clean(path)])
}

// Notify delivers a change notification for path, as if the filesystem had
// reported a write. Each matching Rebuilder is triggered on its own
// goroutine. It returns the number of Rebuilders notified.
func (h *Hub) Notify(path string) int {
	rs := h.rebuilders(path)
	for _, r := range rs {
		r := r
		h.inflight.Add(1)
		go func() {
			defer h.inflight.Done()
			r.Trigger()
		}()
	}
	return len(rs)
}

// Run delivers filesystem notifications until ctx is done, then closes the
// watcher and waits for in-flight rebuilds.
func (h *Hub) Run(ctx context.Context) error {
	defer h.inflight.Wait()
	defer func() {
		if err := h.watcher.Close(); err != nil {
			h.logger.Error("Error closing file watcher", logfields.Error(err))
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-h.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if n := h.Notify(event.Name); n > 0 {
				h.logger.Debug("Change detected", logfields.Path(event.Name), logfields.Count(n))
			}
		case err, ok := <-h.watcher.Errors:
			if !ok {
				return nil
			}
			h.logger.Error("File watcher error", logfields.Error(err))
		}
	}
}

// Wait blocks until every rebuild started so far has finished.
func (h *Hub) Wait() { h.inflight.Wait() }

// Close releases the watcher without running the event loop.
func (h *Hub) Close() error { return h.watcher.Close() }
