// Package camera defines the still-image capture collaborator and a
// command-backed implementation that shells out to a configured capture
// program. Capture failure is expected and non-fatal.
package camera
