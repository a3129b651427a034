package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	ferrors "git.home.luguber.info/inful/sitemirror/internal/foundation/errors"
	"git.home.luguber.info/inful/sitemirror/internal/logfields"
	"git.home.luguber.info/inful/sitemirror/internal/metrics"
	"git.home.luguber.info/inful/sitemirror/internal/mirror"
	"git.home.luguber.info/inful/sitemirror/internal/watch"
)

// WatchCmd builds into the hidden cache directory, then rebuilds single files
// as they change until interrupted.
type WatchCmd struct {
	Dir         string `arg:"" optional:"" default:"." type:"existingdir" help:"Project directory containing config.json"`
	MetricsAddr string `name:"metrics-addr" help:"Serve Prometheus metrics on this address (e.g. 127.0.0.1:9464)"`
}

func (w *WatchCmd) Run(g *Global, _ *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return w.run(ctx, g)
}

func (w *WatchCmd) run(ctx context.Context, g *Global) error {
	logger := g.logger()

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var srv *http.Server
	if w.MetricsAddr != "" {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		var err error
		srv, err = serveMetrics(w.MetricsAddr, reg, logger)
		if err != nil {
			return err
		}
		defer shutdown(srv, logger)
	}

	hub, err := watch.NewHub(watch.WithLogger(logger), watch.WithRecorder(recorder))
	if err != nil {
		return err
	}

	report, err := mirror.Build(mirror.Options{
		SourceDir: w.Dir,
		Mode:      mirror.ModeContinuous,
		Recorder:  recorder,
		Registrar: hub,
		Logger:    logger,
	})
	if err != nil {
		_ = hub.Close()
		return err
	}

	if _, err := fmt.Fprintf(g.out(), "Watching %d files; output in %s\n", report.Watched, report.OutputDir); err != nil {
		_ = hub.Close()
		return err
	}
	return hub.Run(ctx)
}

func serveMetrics(addr string, reg *prom.Registry, logger *slog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, ferrors.ConfigError("cannot listen for metrics").
			WithCause(err).WithContext("addr", addr).Build()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server stopped", logfields.Error(err))
		}
	}()
	logger.Info("Serving metrics", slog.String("addr", ln.Addr().String()))
	return srv, nil
}

func shutdown(srv *http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("Metrics server shutdown", logfields.Error(err))
	}
}
