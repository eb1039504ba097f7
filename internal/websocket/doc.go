// Package websocket fans alarm lifecycle events out to connected
// presentation clients. The hub implements scheduler.Sink; sends are
// non-blocking and slow clients are dropped.
package websocket
