package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"eventcal/internal/batch"
	"eventcal/internal/config"
	"eventcal/internal/events"
	appLog "eventcal/internal/log"
	"eventcal/internal/metrics"
	"eventcal/internal/predicthq"
	"eventcal/internal/session"
	"eventcal/internal/web"
)

var version = "0.1.0-dev"

var (
	flagConfig string
	flagListen string
	flagDebug  bool
)

var rootCmd = &cobra.Command{
	Use:          "eventcal",
	Short:        "Generate downloadable event calendars for a location",
	Long:         "eventcal turns a location, a set of interest categories and a duration into an iCalendar file of local events.",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (and the batch scheduler when enabled)",
	RunE:  runServe,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the batch events.ics once and exit",
	RunE:  runGenerate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("eventcal %s\n", version)
	},
}

func init() {
	defaultConfig := os.Getenv("EVENTCAL_CONFIG")
	if defaultConfig == "" {
		defaultConfig = "./config.yaml"
	}
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", defaultConfig, "path to config file")
	rootCmd.PersistentFlags().StringVar(&flagListen, "listen", "", "HTTP listen address (overrides config and PORT)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "human-readable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	defer appLog.Sync()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds everything built from the configuration.
type app struct {
	cfg      *config.Config
	loc      *time.Location
	metrics  *metrics.Metrics
	acquirer *events.Acquirer
	job      *batch.Job
}

// loadApp builds the shared pipeline. The batch job is built only when
// batch is enabled or forceJob is set.
func loadApp(forceJob bool) (*app, error) {
	conf, err := config.Load(flagConfig)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flagConfig)
		return nil, err
	}
	if flagListen != "" {
		conf.Listen = flagListen
	}

	level := appLog.ParseLevel(conf.LogLevel)
	if flagDebug {
		level = appLog.LevelDebug
	}
	appLog.Init(flagDebug, level)

	loc := resolveLocationOrLocal(conf.Timezone)

	appLog.Info("effective config",
		"version", version,
		"listen", conf.Listen,
		"timezone", loc.String(),
		"provider_configured", conf.Provider.Token != "",
		"provider_rate_per_minute", conf.Provider.RatePerMinute,
		"session_ttl", conf.Session.TTL.String(),
		"batch_enabled", conf.Batch.Enabled,
		"batch_schedule", conf.Batch.Schedule,
	)

	client := predicthq.NewClient(predicthq.Options{
		BaseURL:       conf.Provider.BaseURL,
		Token:         conf.Provider.Token,
		Timeout:       conf.Provider.Timeout,
		Limit:         conf.Provider.Limit,
		RatePerMinute: conf.Provider.RatePerMinute,
	})
	var source events.Source
	if client.Configured() {
		source = client
	} else {
		appLog.Info("PREDICTHQ_TOKEN not set; all calendars will use synthesized events")
	}

	rnd := events.NewSharedRand(events.NewSeed())
	m := metrics.New()
	acq := events.NewAcquirer(source, events.NewNormalizer(loc), rnd, time.Now)

	a := &app{cfg: conf, loc: loc, metrics: m, acquirer: acq}
	if forceJob || conf.Batch.Enabled {
		job, err := batch.NewJob(conf, acq, rnd, loc, m)
		if err != nil {
			return nil, err
		}
		a.job = job
	}
	return a, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(false)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.cfg.Batch.Enabled {
		sched, err := batch.NewScheduler(a.cfg.Batch.Schedule, a.loc, a.job)
		if err != nil {
			return err
		}
		sched.Start(ctx)
		// Produce the file right away so /events.ics is available before the first tick.
		go func() { _, _ = a.job.Run(context.Background()) }()
	}

	store := session.NewStore(
		session.WithTTL(a.cfg.Session.TTL),
		session.WithGrace(a.cfg.Session.Grace),
	)
	srv := web.NewServer(web.Deps{
		Config:   a.cfg,
		Acquirer: a.acquirer,
		Store:    store,
		Metrics:  a.metrics,
		Location: a.loc,
	})

	err = web.StartServer(ctx, a.cfg, srv)
	appLog.Info("eventcal exiting")
	return err
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	a, err := loadApp(true)
	if err != nil {
		return err
	}
	n, err := a.job.Run(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("wrote %d events to %s\n", n, a.cfg.Batch.Output)
	return nil
}

func resolveLocationOrLocal(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}
