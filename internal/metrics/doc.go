// Package metrics records build observability data.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics cost nothing unless a real recorder is wired in:
//
//	reg := prometheus.NewRegistry()
//	b := builder.New(builder.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// One-shot CLI runs have no scrape endpoint; WriteTextfile dumps a registry
// in the node exporter textfile format instead.
package metrics
