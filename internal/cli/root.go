package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vietddude/buswatch/internal/core/apperr"
	"github.com/vietddude/buswatch/internal/core/config"
	"github.com/vietddude/buswatch/internal/core/domain"
	"github.com/vietddude/buswatch/internal/emitter"
	"github.com/vietddude/buswatch/internal/health"
	"github.com/vietddude/buswatch/internal/infra/bus"
	"github.com/vietddude/buswatch/internal/infra/retry"
	"github.com/vietddude/buswatch/internal/watch"
)

// exitError carries a process exit status through cobra.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

type app struct {
	dialer bus.Dialer
	stdout io.Writer
	stderr io.Writer

	cfgPath           string
	envFile           string
	isDebug           bool
	iface             string
	monitor           string
	status            string
	format            string
	statusPolicy      string
	streamErrorPolicy string
	metricsAddr       string

	returnTrue  string
	returnFalse string
}

// Execute runs the command line against the real bus and exits.
func Execute() {
	os.Exit(run(os.Args[1:], bus.NewDBusDialer(), os.Stdout, os.Stderr))
}

func run(args []string, dialer bus.Dialer, stdout, stderr io.Writer) int {
	a := &app{dialer: dialer, stdout: stdout, stderr: stderr}

	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintln(stderr, "Error:", err)
	return 1
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "buswatch",
		Short: "Watch a D-Bus signal and print its boolean payload",
		Long: `buswatch subscribes to a D-Bus signal and prints one line per received boolean,
mapped to configurable text, for status bars such as waybar.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd)
		},
	}

	// stdout carries observation lines only
	rootCmd.SetOut(a.stderr)
	rootCmd.SetErr(a.stderr)
	rootCmd.SetGlobalNormalizationFunc(normalizeFlags)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.cfgPath, "config", "", "optional YAML config file")
	flags.StringVar(&a.envFile, "env-file", "", "optional .env file (default .env if present)")
	flags.BoolVar(&a.isDebug, "debug", false, "enable debug logging")
	flags.StringVar(&a.iface, "interface", "", "D-Bus interface emitting the signal")
	flags.StringVar(&a.monitor, "monitor", "", "signal member to watch (alias --member)")
	flags.StringVar(&a.status, "status", "", `initial status query: "service/path interface property"`)
	flags.StringVar(&a.format, "format", "", "output format: text or json")
	flags.StringVar(&a.statusPolicy, "status-policy", "", "status query failures: best-effort or strict")
	flags.StringVar(&a.streamErrorPolicy, "stream-error-policy", "", "stream errors: fatal or connection-only")
	flags.StringVar(&a.metricsAddr, "metrics-addr", "", "serve /health and /metrics on this address")

	rootCmd.AddCommand(newBooleanCmd(a))
	rootCmd.AddCommand(newStatusCmd(a))
	return rootCmd
}

func normalizeFlags(f *pflag.FlagSet, name string) pflag.NormalizedName {
	switch name {
	case "member":
		name = "monitor"
	}
	return pflag.NormalizedName(name)
}

func (a *app) runWatch(cmd *cobra.Command) error {
	runID := uuid.NewString()
	setupLogger(a.stderr, slog.LevelInfo, runID)

	if err := a.loadEnv(); err != nil {
		slog.Error("Failed to load env file", "path", a.envFile, "error", err)
		return &exitError{code: 1}
	}

	cfg, err := a.loadConfig(cmd.Flags())
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		return &exitError{code: 1}
	}
	setupLogger(a.stderr, a.logLevel(cfg), runID)

	format, err := emitter.ParseFormat(cfg.Output.Format)
	if err != nil {
		slog.Error("Invalid output format", "error", err)
		return &exitError{code: 1}
	}
	out := emitter.New(a.stdout, format)

	watchCfg, err := buildWatchConfig(cfg)
	if err != nil {
		slog.Error("Invalid watch configuration", "error", err)
		return &exitError{code: out.EmitFatal(err)}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := watch.New(watchCfg, bus.NewEstablisher(a.dialer, watchCfg.Retry), out)

	if cfg.Metrics.Addr != "" {
		srv := health.NewServer(health.NewMonitor(w), cfg.Metrics.Addr)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Health server failed", "addr", cfg.Metrics.Addr, "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				slog.Error("Error stopping health server", "error", err)
			}
		}()
		slog.Info("Health server started", "addr", cfg.Metrics.Addr)
	}

	slog.Info("Watcher starting",
		"interface", watchCfg.Subscription.Interface,
		"member", watchCfg.Subscription.Member,
	)

	err = w.Run(ctx)
	if ctx.Err() != nil {
		slog.Info("Received signal, shutting down")
		return nil
	}
	if err != nil {
		return &exitError{code: out.EmitFatal(err)}
	}
	return nil
}

// loadConfig reads the optional config file and lets explicitly set flags
// override it. Callers validate the sections they use.
func (a *app) loadConfig(flags *pflag.FlagSet) (*config.AppConfig, error) {
	cfg := config.Default()
	if a.cfgPath != "" {
		loaded, err := config.Load(a.cfgPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	overrides := []struct {
		flag   string
		value  string
		target *string
	}{
		{"interface", a.iface, &cfg.Watch.Interface},
		{"monitor", a.monitor, &cfg.Watch.Monitor},
		{"status", a.status, &cfg.Watch.Status},
		{"status-policy", a.statusPolicy, &cfg.Watch.StatusPolicy},
		{"stream-error-policy", a.streamErrorPolicy, &cfg.Watch.StreamErrorPolicy},
		{"format", a.format, &cfg.Output.Format},
		{"metrics-addr", a.metricsAddr, &cfg.Metrics.Addr},
		{"return-true", a.returnTrue, &cfg.Output.ReturnTrue},
		{"return-false", a.returnFalse, &cfg.Output.ReturnFalse},
	}
	for _, o := range overrides {
		if flags.Lookup(o.flag) != nil && flags.Changed(o.flag) {
			*o.target = o.value
		}
	}

	return cfg, nil
}

// loadEnv loads --env-file, or .env from the working directory if present.
func (a *app) loadEnv() error {
	if a.envFile == "" {
		_ = godotenv.Load()
		return nil
	}
	return godotenv.Load(a.envFile)
}

func (a *app) logLevel(cfg *config.AppConfig) slog.Level {
	if a.isDebug {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func buildWatchConfig(cfg *config.AppConfig) (watch.Config, error) {
	statusPolicy, err := watch.ParseStatusPolicy(cfg.Watch.StatusPolicy)
	if err != nil {
		return watch.Config{}, err
	}
	streamPolicy, err := watch.ParseStreamErrorPolicy(cfg.Watch.StreamErrorPolicy)
	if err != nil {
		return watch.Config{}, err
	}

	watchCfg := watch.Config{
		Subscription: domain.SubscriptionSpec{
			Interface: cfg.Watch.Interface,
			Member:    cfg.Watch.Monitor,
		},
		Mapping: domain.OutputMapping{
			True:  cfg.Output.ReturnTrue,
			False: cfg.Output.ReturnFalse,
		},
		Retry: retry.Policy{
			MaxAttempts:   cfg.Retry.MaxAttempts,
			InitialDelay:  cfg.Retry.InitialDelay,
			MaxDelay:      cfg.Retry.MaxDelay,
			BackoffFactor: cfg.Retry.BackoffFactor,
		},
		StatusPolicy:      statusPolicy,
		StreamErrorPolicy: streamPolicy,
	}

	if cfg.Watch.Status != "" {
		status, err := domain.ParseStatus(cfg.Watch.Status)
		if err != nil {
			return watch.Config{}, apperr.Wrap(apperr.NotFound, err, "invalid status format %q", cfg.Watch.Status)
		}
		watchCfg.Status = &status
	}

	return watchCfg, nil
}

func setupLogger(w io.Writer, level slog.Level, runID string) {
	handler := tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})
	slog.SetDefault(slog.New(handler).With("run_id", runID))
}
