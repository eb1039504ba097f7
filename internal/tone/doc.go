// Package tone implements the real-time alarm tone synthesis engine.
//
// The Synth renders a gated sine ("beep-beep") or exact silence sample by
// sample, with the active Mode published through an atomic pointer so the
// render path never blocks on the control path. The Engine wraps the synth
// with an audio device (oto); device failure degrades to silent operation
// instead of failing the alarm.
package tone
