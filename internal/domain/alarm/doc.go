// Package alarm contains core domain types for the wake-up alarm.
//
// It defines the lifecycle Phase, the gate Feedback verdicts, the arithmetic
// Challenge, the pending Schedule and the Status snapshot handed to the
// presentation boundary.
package alarm
