// Package metrics provides observability hooks for the compilation pipeline.
//
// Components receive a Recorder through their options and default to
// NoopRecorder, so metrics collection never requires nil checks at call sites:
//
//	gen, err := generator.New(generator.Options{
//	    Recorder: metrics.NewPrometheusRecorder(registry),
//	    ...
//	})
//
// HTTPHandler exposes a registry in the Prometheus text/OpenMetrics format.
package metrics
