package tone

import (
	"encoding/binary"
	"math"
	"sync/atomic"
)

// amplitude is 0.9 of full scale to avoid clipping.
const amplitude = 0.9

// bytesPerSample is the size of one float32 PCM sample.
const bytesPerSample = 4

// Synth produces the alarm signal sample by sample as little-endian float32
// PCM. It implements io.Reader so an audio player can pull from it directly.
//
// Read runs on the real-time render path: it takes no locks, performs no
// allocation and never blocks. The active Mode is read through an atomic
// pointer on every frame, so a control-path Configure takes effect
// sample-exactly and the render path never observes a torn update.
//
// Oscillator state (phase, gate counter) is owned exclusively by Read and is
// reset only by Reset, never on a mode switch, so switching modes produces no
// phase discontinuity.
type Synth struct {
	// mode is the active descriptor, swapped atomically by the control path.
	mode atomic.Pointer[Mode]

	// sampleRate is the output rate in Hz, fixed at construction.
	sampleRate int
	// channelCount is how many interleaved channels each frame carries.
	channelCount int

	// phase is the sine phase in [0, 2π).
	phase float64
	// gateCounter counts samples within the current gate half-cycle.
	gateCounter uint
	// gateOpen reports whether the beep gate currently passes the tone.
	gateOpen bool
}

// NewSynth creates a synth producing frames for the given rate and channel count.
// It starts in silent mode.
func NewSynth(sampleRate, channelCount int) *Synth {
	s := &Synth{
		sampleRate:   sampleRate,
		channelCount: channelCount,
	}
	s.mode.Store(SilentMode())
	s.Reset()

	return s
}

// SampleRate returns the output sample rate in Hz.
func (s *Synth) SampleRate() int {
	return s.sampleRate
}

// SetMode atomically publishes a new mode descriptor to the render path.
// It never blocks and never allocates.
func (s *Synth) SetMode(m *Mode) {
	if m == nil {
		m = SilentMode()
	}

	s.mode.Store(m)
}

// Mode returns the currently active descriptor.
func (s *Synth) Mode() *Mode {
	return s.mode.Load()
}

// Reset restores the oscillator to its initial state: phase zero, gate open.
// Called on engine (re)start only.
func (s *Synth) Reset() {
	s.phase = 0
	s.gateCounter = 0
	s.gateOpen = true
}

// Read fills p with interleaved float32 frames and never returns an error,
// so the audio player treats the synth as an endless stream.
func (s *Synth) Read(p []byte) (int, error) {
	frameSize := bytesPerSample * s.channelCount
	frames := len(p) / frameSize

	for i := range frames {
		mode := s.mode.Load()

		var value float32

		if mode.Alarm {
			s.gateCounter++

			limit := mode.GateOnSamples
			if !s.gateOpen {
				limit = mode.GateOffSamples
			}

			if s.gateCounter >= limit {
				s.gateCounter = 0
				s.gateOpen = !s.gateOpen
			}

			if s.gateOpen {
				value = float32(math.Sin(s.phase)) * amplitude

				s.phase += 2 * math.Pi * mode.FrequencyHz / float64(s.sampleRate)
				if s.phase > 2*math.Pi {
					s.phase -= 2 * math.Pi
				}
			}
		}

		bits := math.Float32bits(value)
		for ch := range s.channelCount {
			offset := i*frameSize + ch*bytesPerSample
			binary.LittleEndian.PutUint32(p[offset:offset+bytesPerSample], bits)
		}
	}

	return frames * frameSize, nil
}
