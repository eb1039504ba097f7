// Package escalation couples wrong challenge answers to the external
// capture-and-broadcast pipeline: camera capture, subscriber registry
// refresh, best-effort photo delivery. Pipelines run detached and
// concurrently; all failures are isolated from the gate and scheduler.
package escalation
