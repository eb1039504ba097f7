package tone

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/dsemenov/wakeup-alarm/internal/logger"
)

// channelCount is the number of output channels the engine renders.
const channelCount = 2

// deviceBufferSize keeps the device buffer short so mode switches become
// audible quickly.
const deviceBufferSize = 50 * time.Millisecond

// Engine owns the audio device and the render path. The control path talks to
// it through Configure/Start/Stop; the device pulls samples from the synth on
// its own real-time goroutine.
//
// A failure to open the audio device is not fatal: the engine degrades to
// silent operation and the challenge gate stays the authoritative wake
// condition.
type Engine struct {
	// synth is the sample source shared with the device.
	synth *Synth

	// mu serializes Start/Stop; it is never touched by the render path.
	mu sync.Mutex
	// otoCtx is the process-wide audio context, created on first Start.
	otoCtx *oto.Context
	// player pulls from the synth while the engine runs.
	player *oto.Player
	// running reports whether Start has been called without a matching Stop.
	running bool
	// degraded is set when the audio subsystem failed to initialize.
	degraded bool
}

// Option customizes engine construction.
type Option func(*Engine)

// WithoutDevice keeps the engine off the audio subsystem entirely.
// Used by tests and headless deployments.
func WithoutDevice() Option {
	return func(e *Engine) {
		e.degraded = true
	}
}

// NewEngine creates an engine rendering at the provided sample rate.
func NewEngine(sampleRate int, opts ...Option) *Engine {
	e := &Engine{
		synth: NewSynth(sampleRate, channelCount),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// SampleRate returns the engine's output sample rate in Hz.
// Callers use it to derive gate sample counts for AlarmMode.
func (e *Engine) SampleRate() int {
	return e.synth.SampleRate()
}

// Configure atomically replaces the active mode descriptor.
// It does not block and does not allocate.
func (e *Engine) Configure(m *Mode) {
	e.synth.SetMode(m)
}

// Start begins continuous sample production. It is idempotent.
// On audio subsystem failure the engine keeps running in degraded (silent)
// mode and the error is reported once.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return nil
	}

	e.running = true
	e.synth.Reset()

	if e.degraded {
		return nil
	}

	if e.otoCtx == nil {
		otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   e.synth.SampleRate(),
			ChannelCount: channelCount,
			Format:       oto.FormatFloat32LE,
			BufferSize:   deviceBufferSize,
		})
		if err != nil {
			e.degraded = true
			logger.WarnKV(ctx, "Audio subsystem unavailable, running silent", "error", err)

			return fmt.Errorf("open audio device: %w", err)
		}

		<-ready

		e.otoCtx = otoCtx
	}

	e.player = e.otoCtx.NewPlayer(e.synth)
	e.player.Play()

	logger.InfoKV(ctx, "Tone engine started", "sample_rate", e.synth.SampleRate())

	return nil
}

// Stop halts sample production and releases the render path. It is idempotent.
// The audio context is kept so a later Start reuses the device.
func (e *Engine) Stop(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	e.running = false
	e.synth.SetMode(SilentMode())

	if e.player != nil {
		if err := e.player.Close(); err != nil {
			logger.WarnKV(ctx, "Closing audio player failed", "error", err)
		}

		e.player = nil
	}

	logger.Info(ctx, "Tone engine stopped")
}

// Running reports whether the engine has been started.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.running
}

// Synth exposes the sample source for tests that render without a device.
func (e *Engine) Synth() *Synth {
	return e.synth
}
