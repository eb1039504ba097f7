package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dsemenov/wakeup-alarm/internal/api"
	"github.com/dsemenov/wakeup-alarm/internal/camera"
	"github.com/dsemenov/wakeup-alarm/internal/challenge"
	"github.com/dsemenov/wakeup-alarm/internal/config"
	"github.com/dsemenov/wakeup-alarm/internal/escalation"
	"github.com/dsemenov/wakeup-alarm/internal/logger"
	"github.com/dsemenov/wakeup-alarm/internal/metrics"
	"github.com/dsemenov/wakeup-alarm/internal/repository/registry"
	"github.com/dsemenov/wakeup-alarm/internal/scheduler"
	"github.com/dsemenov/wakeup-alarm/internal/service/common"
	"github.com/dsemenov/wakeup-alarm/internal/telegram"
	"github.com/dsemenov/wakeup-alarm/internal/tone"
	"github.com/dsemenov/wakeup-alarm/internal/websocket"
)

// Options controls the wakeup-alarm daemon process and configuration.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional HTTP listen address override.
	ListenAddress string
	// AlarmTime provides an optional "HH:MM" pre-arm override.
	AlarmTime string
}

// readHeaderTimeout bounds slow-header clients on the control surface.
const readHeaderTimeout = 5 * time.Second

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// Run starts the daemon and blocks until the context is canceled.
// It wires every collaborator together, pre-arms the alarm if a time is
// configured and serves the HTTP control surface.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "wakeup-alarm")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if opts.ListenAddress != "" {
		cfg.ListenAddress = opts.ListenAddress
	}

	if opts.AlarmTime != "" {
		cfg.AlarmTime = opts.AlarmTime
	}

	// A second instance would fight over the audio device and double-fire
	// escalations.
	if err = common.EnsureSingleInstance(); err != nil {
		return err
	}

	// Metrics registry is process-local so tests never collide on globals.
	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	collector := metrics.NewCollector(promRegistry)

	// Escalation pipeline: camera -> registry refresh -> Telegram broadcast.
	trigger := escalation.NewTrigger(
		camera.NewCommand(cfg.Camera.Command, cfg.Camera.Args, cfg.Camera.Timeout),
		newBroadcaster(ctx, cfg),
		registry.NewFileStore(cfg.RegistryFile),
		collector,
		buildCaption(ctx, cfg),
	)

	hub := websocket.NewHub(ctx)

	sched := scheduler.New(ctx, scheduler.Options{
		Engine:          tone.NewEngine(cfg.Tone.SampleRate),
		Generator:       challenge.NewDefault(),
		Trigger:         trigger,
		Collector:       collector,
		Sink:            hub,
		Quota:           cfg.Quota,
		ToneFrequencyHz: cfg.Tone.FrequencyHz,
		BeepInterval:    cfg.Tone.BeepInterval,
		FeedbackDelay:   cfg.FeedbackDelay,
		StatusInterval:  cfg.StatusInterval,
	})

	// Pre-arm from configuration so a reboot re-arms the alarm unattended.
	if cfg.AlarmTime != "" {
		parsed, parseErr := time.Parse("15:04", cfg.AlarmTime)
		if parseErr != nil {
			return fmt.Errorf("parse alarm time: %w", parseErr)
		}

		if _, armErr := sched.Arm(ctx, parsed.Hour(), parsed.Minute()); armErr != nil {
			return fmt.Errorf("pre-arm alarm: %w", armErr)
		}
	}

	err = serve(ctx, cfg.ListenAddress, api.NewRouter(api.NewHandler(sched, hub, promRegistry)))

	// Tear the scheduler down and let in-flight escalations finish before exit.
	sched.Shutdown(ctx)
	trigger.Wait()

	return err
}

// serve runs the HTTP control surface until the context is canceled.
func serve(ctx context.Context, listenAddress string, handler http.Handler) error {
	server := &http.Server{
		Addr:              listenAddress,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	logger.InfoKV(ctx, "Control surface listening", "listen_address", listenAddress)

	// Done channel is closed after Shutdown finishes to ensure we block
	// until the server fully stops before returning.
	done := make(chan struct{})

	go func() {
		<-ctx.Done()
		logger.Info(ctx, "Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WarnKV(ctx, "HTTP shutdown failed", "error", err)
		}

		close(done)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve HTTP: %w", err)
	}

	<-done
	logger.Info(ctx, "HTTP server stopped")

	return nil
}

// newBroadcaster builds the Telegram client, or nil when no bot token is
// configured (escalations then stop after capture).
func newBroadcaster(ctx context.Context, cfg *config.Config) escalation.Broadcaster {
	if cfg.Telegram.BotToken == "" {
		logger.Warn(ctx, "No bot token configured, photo delivery disabled")

		return nil
	}

	client, err := telegram.New(
		cfg.Telegram.APIBase,
		cfg.Telegram.BotToken,
		telegram.WithHTTPClient(&http.Client{Timeout: cfg.Telegram.Timeout}),
	)
	if err != nil {
		logger.ErrorKV(ctx, "Telegram client unavailable, photo delivery disabled", "error", err)

		return nil
	}

	return client
}

// buildCaption composes the escalation caption, suffixed with the local
// actor so recipients know whose alarm is ringing.
func buildCaption(ctx context.Context, cfg *config.Config) string {
	actor, err := common.DetectActor()
	if err != nil {
		logger.WarnKV(ctx, "Actor detection failed, using bare caption", "error", err)

		return cfg.Telegram.Caption
	}

	return fmt.Sprintf("%s (%s)", cfg.Telegram.Caption, actor)
}
