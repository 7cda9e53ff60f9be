package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sirkon/jumbotrace/events"
	"github.com/sirkon/jumbotrace/internal/config"
	"github.com/sirkon/jumbotrace/internal/diag"
	"github.com/sirkon/jumbotrace/internal/driver"
	"github.com/sirkon/jumbotrace/internal/load"
	"github.com/sirkon/jumbotrace/internal/metrics"
)

var (
	instrumentConfig  string
	instrumentOut     string
	instrumentTests   bool
	instrumentWatch   bool
	instrumentMetrics string
)

func init() {
	instrumentCmd.Flags().StringVarP(&instrumentConfig, "config", "c", "", "config file (.yaml, .yml or .toml)")
	instrumentCmd.Flags().StringVarP(&instrumentOut, "out", "o", "", "output directory, jumbotrace-<uuid> when empty")
	instrumentCmd.Flags().BoolVar(&instrumentTests, "tests", false, "instrument test files too")
	instrumentCmd.Flags().BoolVar(&instrumentWatch, "watch", false, "rerun on config changes")
	instrumentCmd.Flags().StringVar(&instrumentMetrics, "metrics", "", "write run metrics to this file")
}

var instrumentCmd = &cobra.Command{
	Use:   "instrument [packages]",
	Short: "Rewrite packages with trace probes",
	Long: `Rewrite packages with trace probes. Rewritten files and an overlay.json are written
into the output directory, build with go build -overlay <out>/overlay.json.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setupColor(cmd); err != nil {
			return err
		}
		if len(args) == 0 {
			args = []string{"."}
		}
		log := logger(cmd)

		out := instrumentOut
		if out == "" {
			out = "jumbotrace-" + uuid.NewString()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if instrumentConfig == "" {
			if instrumentWatch {
				return errors.New("--watch needs --config")
			}
			return instrument(ctx, log, config.Default(), args, out)
		}

		loader, err := config.NewLoader(instrumentConfig, log)
		if err != nil {
			return err
		}
		if err := instrument(ctx, log, loader.Config(), args, out); err != nil && !instrumentWatch {
			return err
		}
		if !instrumentWatch {
			return nil
		}

		loader.OnChange(func(cfg *config.Config) {
			if err := instrument(ctx, log, cfg, args, out); err != nil {
				log.Error("instrumentation failed", slog.Any("err", err))
			}
		})
		stopWatch, err := loader.Watch()
		if err != nil {
			return err
		}
		defer stopWatch()

		log.Info("watching config", slog.String("path", instrumentConfig))
		<-ctx.Done()
		return nil
	},
}

// instrument runs a single instrumentation pass.
func instrument(ctx context.Context, log *slog.Logger, cfg *config.Config, patterns []string, out string) error {
	if instrumentTests {
		cfg.Tests = true
	}

	pkgs, err := load.Packages(ctx, patterns, load.Options{Tests: cfg.Tests, Logger: log})
	if err != nil {
		return err
	}

	rep := &diag.Reporter{}
	m := metrics.New()
	d, err := driver.New(driver.Options{Config: cfg, OutDir: out, Logger: log, Metrics: m}, rep)
	if err != nil {
		return err
	}

	sum, err := d.Run(ctx, pkgs)
	printReports(os.Stderr, rep.Reports())
	if err != nil {
		return err
	}

	if instrumentMetrics != "" {
		if err := m.WriteFile(instrumentMetrics); err != nil {
			return err
		}
	}

	probes := sum.Probes()
	var total int
	for _, k := range events.Kinds() {
		total += probes[k]
	}
	if sum.Overlay != "" {
		okColor().Fprintf(os.Stdout, "%d probes in %d files, build with -overlay %s\n", total, len(sum.Outputs), sum.Overlay)
	} else {
		fmt.Fprintln(os.Stdout, "nothing to instrument")
	}

	if len(sum.Failed) > 0 {
		return fmt.Errorf("%d files could not be instrumented", len(sum.Failed))
	}
	return nil
}
