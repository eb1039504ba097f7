// Package scheduler drives the alarm lifecycle state machine
// (Idle -> Armed -> Firing -> Idle): it computes fire deadlines, keeps the
// tone engine in the right mode, opens the challenge gate on fire and
// publishes lifecycle events to the presentation boundary.
package scheduler
