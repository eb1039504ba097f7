// Package daemon is the composition root: it loads configuration, wires the
// tone engine, scheduler, gate, escalation pipeline and presentation surface
// together and runs the process until shutdown.
package daemon
