// Package metrics exposes the daemon's Prometheus instrumentation: challenge
// and escalation counters, lifecycle gauges and the time-to-silence
// histogram.
package metrics
