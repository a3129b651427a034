// Package metrics records build and rebuild metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check:
//
//	rec := metrics.Recorder(metrics.NoopRecorder{})
//	if addr != "" {
//	    reg := prom.NewRegistry()
//	    rec = metrics.NewPrometheusRecorder(reg)
//	    http.Handle("/metrics", metrics.HTTPHandler(reg))
//	}
//
// Only the watch command exposes metrics; a one-shot build exits before any
// scrape could happen.
package metrics
