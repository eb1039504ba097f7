// Package version carries build metadata. Version, Commit and BuildTime are
// overridden via ldflags at build time; Short and Full render them for CLI
// output.
package version
