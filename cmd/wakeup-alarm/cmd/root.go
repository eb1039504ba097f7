package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dsemenov/wakeup-alarm/internal/config"
	"github.com/dsemenov/wakeup-alarm/internal/logger"
	"github.com/dsemenov/wakeup-alarm/internal/service/daemon"
	"github.com/dsemenov/wakeup-alarm/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// listenAddress overrides the HTTP control surface address.
	listenAddress string
	// alarmTime pre-arms the alarm at the given "HH:MM".
	alarmTime string
	// logLevel sets the logging verbosity.
	logLevel string

	// rootCmd represents the base command for running the alarm daemon.
	rootCmd = &cobra.Command{
		Use:   "wakeup-alarm",
		Short: "Run the coercive wake-up alarm daemon.",
		Long: `Starts the wake-up alarm daemon.

The daemon arms at a scheduled time of day, fires a gated alarm tone and
refuses to go silent until a quota of arithmetic challenges is solved.
Wrong answers capture a photo and broadcast it to the bot's subscribers.
The HTTP control surface exposes arming, answering, status, a websocket
event stream and Prometheus metrics.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			if level, ok := logger.ParseLogLevel(logLevel); ok {
				logger.SetLevel(level)
			}

			options := &daemon.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				AlarmTime:     alarmTime,
			}

			return daemon.Run(ctx, options)
		},
	}
)

// Execute runs the wakeup-alarm CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&listenAddress, "listen", "l", "", "HTTP listen address override")
	rootCmd.Flags().StringVarP(&alarmTime, "time", "t", "", "pre-arm the alarm at HH:MM")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "logging level (debug, info, warn, error)")
}
