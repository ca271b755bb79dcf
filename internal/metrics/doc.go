// Package metrics provides an observability framework for launch and serving metrics.
//
// # Design Philosophy
//
// This package implements the Null Object pattern to enable metrics collection
// without requiring explicit nil checks throughout the codebase. By default,
// all components use NoopRecorder which implements the Recorder interface with
// no-op methods that inline to nothing at compile time.
//
// # Architecture
//
// The metrics system has three components:
//
//  1. Recorder interface - Defines all metrics operations
//  2. NoopRecorder - Default implementation that does nothing (zero overhead)
//  3. PrometheusRecorder - Prometheus adapter backing the /metrics endpoint
//
// # Usage Pattern
//
// Components receive a Recorder through dependency injection:
//
//	type Coordinator struct {
//	    recorder metrics.Recorder
//	}
//
// To enable metrics, swap NoopRecorder for a real implementation:
//
//	reg := metrics.NewRegistry()
//	recorder := metrics.NewPrometheusRecorder(reg)
//
// This approach allows:
//   - Zero overhead when metrics are disabled (noop methods inline away)
//   - Metrics activation without code changes (just swap implementation)
//   - Clean testing (inject mock recorder for verification)
package metrics
