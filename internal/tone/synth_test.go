package tone

import (
	"context"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// renderSamples pulls n mono samples from the synth and decodes them.
func renderSamples(t *testing.T, s *Synth, n int) []float32 {
	t.Helper()

	buf := make([]byte, n*bytesPerSample)

	read, err := s.Read(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), read)

	samples := make([]float32, n)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(buf[i*bytesPerSample:])
		samples[i] = math.Float32frombits(bits)
	}

	return samples
}

// TestSynthSilentProducesExactZeros verifies the keep-alive mode writes
// all-zero frames, not merely quiet ones.
func TestSynthSilentProducesExactZeros(t *testing.T) {
	t.Parallel()

	s := NewSynth(44100, 1)

	for _, sample := range renderSamples(t, s, 4096) {
		require.Zero(t, sample)
	}
}

// TestSynthAlarmDutyCycle verifies a symmetric beep gate keeps the tone
// audible roughly half the time.
func TestSynthAlarmDutyCycle(t *testing.T) {
	t.Parallel()

	s := NewSynth(44100, 1)
	s.SetMode(&Mode{
		Alarm:          true,
		FrequencyHz:    880,
		GateOnSamples:  100,
		GateOffSamples: 100,
	})

	var audible int

	for _, sample := range renderSamples(t, s, 10000) {
		if sample != 0 {
			audible++
		}

		// Small tolerance for float32 rounding of the peak.
		require.LessOrEqual(t, math.Abs(float64(sample)), amplitude+1e-6)
	}

	fraction := float64(audible) / 10000
	require.InDelta(t, 0.5, fraction, 0.05)
}

// TestSynthModeSwitchTakesEffect verifies a Configure mid-stream flips the
// output without restarting the oscillator.
func TestSynthModeSwitchTakesEffect(t *testing.T) {
	t.Parallel()

	s := NewSynth(44100, 1)

	for _, sample := range renderSamples(t, s, 256) {
		require.Zero(t, sample)
	}

	s.SetMode(AlarmMode(880, 90*time.Millisecond, 44100))

	var audible int

	for _, sample := range renderSamples(t, s, 256) {
		if sample != 0 {
			audible++
		}
	}

	require.Positive(t, audible)

	// Back to silence, sample-exact.
	s.SetMode(SilentMode())

	for _, sample := range renderSamples(t, s, 256) {
		require.Zero(t, sample)
	}
}

// TestSynthInterleavesChannels verifies every channel of a frame carries the
// same sample value.
func TestSynthInterleavesChannels(t *testing.T) {
	t.Parallel()

	s := NewSynth(44100, 2)
	s.SetMode(AlarmMode(880, 90*time.Millisecond, 44100))

	const frames = 512

	buf := make([]byte, frames*2*bytesPerSample)

	read, err := s.Read(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), read)

	for i := range frames {
		left := binary.LittleEndian.Uint32(buf[i*2*bytesPerSample:])
		right := binary.LittleEndian.Uint32(buf[(i*2+1)*bytesPerSample:])
		require.Equal(t, left, right, "frame %d", i)
	}
}

// TestAlarmModeGateSamples verifies gate sample counts derive from the sample
// rate and never collapse to zero.
func TestAlarmModeGateSamples(t *testing.T) {
	t.Parallel()

	m := AlarmMode(880, 90*time.Millisecond, 44100)
	require.True(t, m.Alarm)
	require.Equal(t, uint(3969), m.GateOnSamples)
	require.Equal(t, m.GateOnSamples, m.GateOffSamples)

	tiny := AlarmMode(880, time.Nanosecond, 44100)
	require.Equal(t, uint(1), tiny.GateOnSamples)
}

// TestEngineWithoutDevice verifies the degraded engine starts and stops
// without touching the audio subsystem.
func TestEngineWithoutDevice(t *testing.T) {
	t.Parallel()

	e := NewEngine(44100, WithoutDevice())
	require.Equal(t, 44100, e.SampleRate())
	require.False(t, e.Running())

	ctx := context.Background()

	require.NoError(t, e.Start(ctx))
	require.True(t, e.Running())

	e.Configure(AlarmMode(880, 90*time.Millisecond, 44100))
	require.True(t, e.Synth().Mode().Alarm)

	e.Stop(ctx)
	require.False(t, e.Running())
	require.False(t, e.Synth().Mode().Alarm)
}
