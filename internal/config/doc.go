// Package config loads, validates and persists the daemon's YAML settings:
// listen address, alarm time, challenge quota, tone parameters and the
// escalation collaborators (Telegram, camera, registry file).
package config
