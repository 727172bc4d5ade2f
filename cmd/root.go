package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cfg "github.com/andreas-weise/individual-variation/config"
	"github.com/andreas-weise/individual-variation/observability"
	"github.com/andreas-weise/individual-variation/resilience"
	"github.com/andreas-weise/individual-variation/store"
)

// app holds what the persistent pre-run resolved for the subcommands.
type app struct {
	conf    *cfg.Root
	log     *logrus.Logger
	metrics *observability.Metrics
}

var (
	configPath string
	logLevel   string
	state      app
)

var rootCmd = &cobra.Command{
	Use:           "entrain",
	Short:         "Measure acoustic-prosodic entrainment of individual speakers",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		conf, err := cfg.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			conf.Pipeline.LogLvl = logLevel
		}
		if err := conf.Validate(); err != nil {
			return err
		}
		state = app{
			conf:    conf,
			log:     observability.NewLogger(conf.Pipeline.LogLvl, conf.Pipeline.LogFormat),
			metrics: observability.NewMetrics(),
		}
		state.log.WithFields(logrus.Fields{
			"pipeline": conf.Pipeline.Name,
			"version":  conf.Pipeline.Version,
			"command":  cmd.Name(),
		}).Debug("configuration loaded")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default: config/$CONFIG_ENV/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override pipeline.log_level")
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openStore connects to the configured database. Write retries are counted
// in the metrics.
func openStore(ctx context.Context) (*store.Store, error) {
	retry := resilience.DefaultRetryConfig()
	if n := state.conf.Extraction.Retries; n > 0 {
		retry.MaxAttempts = n
	}
	retry.InitialBackoff = 50 * time.Millisecond
	retry.OnRetry = func(attempt int, err error) {
		state.metrics.RecordWriteRetry()
		state.log.WithError(err).WithField("attempt", attempt).Debug("database busy, retrying")
	}
	return store.Open(ctx, state.conf.Database.Driver, state.conf.Database.DSN, store.Options{
		Log:   state.log,
		Retry: retry,
	})
}
