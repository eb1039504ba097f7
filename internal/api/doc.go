// Package api is the HTTP presentation boundary: arming and disarming the
// alarm, submitting challenge answers, status snapshots, the websocket event
// stream and the Prometheus metrics endpoint.
package api
