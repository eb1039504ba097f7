// Package common holds shared service helpers: actor detection for
// escalation captions and the single-instance process guard.
package common
