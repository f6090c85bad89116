package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vietddude/buswatch/internal/core/apperr"
	"github.com/vietddude/buswatch/internal/core/domain"
	"github.com/vietddude/buswatch/internal/infra/bus"
	"github.com/vietddude/buswatch/internal/infra/retry"
	"github.com/vietddude/buswatch/internal/watch"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   `status ["service/path interface property"]`,
		Short: "Query a boolean property once and print it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStatus(cmd, args)
		},
	}
}

func (a *app) runStatus(cmd *cobra.Command, args []string) error {
	runID := uuid.NewString()
	setupLogger(a.stderr, slog.LevelInfo, runID)

	if err := a.loadEnv(); err != nil {
		slog.Error("Failed to load env file", "path", a.envFile, "error", err)
		return &exitError{code: 1}
	}

	cfg, err := a.loadConfig(cmd.Flags())
	if err == nil {
		err = cfg.ValidateQuery()
	}
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		return &exitError{code: 1}
	}
	setupLogger(a.stderr, a.logLevel(cfg), runID)

	raw := cfg.Watch.Status
	if len(args) == 1 {
		raw = args[0]
	}
	if raw == "" {
		return fmt.Errorf("no status query given")
	}

	spec, err := domain.ParseStatus(raw)
	if err != nil {
		return a.statusFailed(apperr.Wrap(apperr.NotFound, err, "invalid status format %q", raw))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	policy := retry.Policy{
		MaxAttempts:   cfg.Retry.MaxAttempts,
		InitialDelay:  cfg.Retry.InitialDelay,
		MaxDelay:      cfg.Retry.MaxDelay,
		BackoffFactor: cfg.Retry.BackoffFactor,
	}

	conn, err := bus.NewEstablisher(a.dialer, policy).Establish(ctx)
	if err != nil {
		return a.statusFailed(err)
	}
	defer func() {
		_ = conn.Close()
	}()

	value, err := watch.QueryStatus(ctx, conn, spec, policy)
	if err != nil {
		return a.statusFailed(err)
	}

	mapping := domain.OutputMapping{True: cfg.Output.ReturnTrue, False: cfg.Output.ReturnFalse}

	w := tabwriter.NewWriter(a.stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "BUS\tSERVICE\tPATH\tINTERFACE\tPROPERTY\tVALUE")
	_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		conn.Bus(), spec.Service, spec.Path, spec.Interface, spec.Property, mapping.Text(value))
	_ = w.Flush()
	return nil
}

func (a *app) statusFailed(err error) error {
	classified := apperr.Classify(err)
	slog.Error("Status query failed", "code", classified.Kind.Marker(), "error", classified)
	return &exitError{code: classified.Code()}
}
