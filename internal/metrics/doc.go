// Package metrics records build and stage metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder. The build command swaps in a PrometheusRecorder when a state
// directory is configured and writes its values to a textfile after each
// build:
//
//	recorder := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
//	svc := site.NewService(cfg, site.WithRecorder(recorder))
//	...
//	_ = recorder.WriteTextfile(filepath.Join(stateDir, "metrics.prom"))
package metrics
