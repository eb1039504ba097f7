package tone

import "time"

// Mode describes what the render path should produce. It is published to the
// render path through an atomic pointer swap, so a value is never mutated
// after construction.
type Mode struct {
	// Alarm selects audible beeping; false means silent keep-alive output.
	Alarm bool
	// FrequencyHz is the sine frequency while the beep gate is open.
	FrequencyHz float64
	// GateOnSamples is how many samples the gate stays open per cycle.
	GateOnSamples uint
	// GateOffSamples is how many samples the gate stays closed per cycle.
	GateOffSamples uint
}

// SilentMode returns the keep-alive descriptor: exact-zero output, oscillator
// state preserved.
func SilentMode() *Mode {
	return &Mode{}
}

// AlarmMode returns an audible beeping descriptor. The gate sample counts are
// derived from the live sample rate so the beep cadence stays the same on any
// output device.
func AlarmMode(frequencyHz float64, beepInterval time.Duration, sampleRate int) *Mode {
	gateSamples := uint(float64(sampleRate) * beepInterval.Seconds())
	if gateSamples == 0 {
		gateSamples = 1
	}

	return &Mode{
		Alarm:          true,
		FrequencyHz:    frequencyHz,
		GateOnSamples:  gateSamples,
		GateOffSamples: gateSamples,
	}
}
