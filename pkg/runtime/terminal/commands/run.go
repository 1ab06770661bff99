package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/de-tools/alca/pkg/adapters"
	"github.com/de-tools/alca/pkg/runtime/terminal/export"
	"github.com/de-tools/alca/pkg/services/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type RunCmd struct {
	global      *GlobalOptions
	factory     Factory
	outputDir   string
	concurrency int
	timeout     time.Duration
}

func NewRunCmd(global *GlobalOptions, factory Factory) *cobra.Command {
	rc := &RunCmd{global: global, factory: factory}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Reconcile storage inventory and cost exports by workspace",
		Args:  cobra.NoArgs,
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.outputDir, "output-dir", "", "Directory to write the grouped tables to as CSV")
	cmd.Flags().IntVar(&rc.concurrency, "download-concurrency", 0,
		"Number of exports downloaded in parallel (overrides download_concurrency)")
	cmd.Flags().DurationVar(&rc.timeout, "timeout", 0, "Abort the run after this long (0 disables)")

	return cmd
}

func (rc *RunCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)

	cfg, err := rc.global.loadConfig()
	if err != nil {
		return err
	}
	if rc.concurrency > 0 {
		cfg.DownloadConcurrency = rc.concurrency
		if err := config.Validate(cfg); err != nil {
			return err
		}
	}

	handler, err := rc.global.handler()
	if err != nil {
		return err
	}

	if rc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rc.timeout)
		defer cancel()
	}

	runner, err := rc.factory(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to set up reconciliation: %w", err)
	}

	analysis, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	if rc.outputDir != "" {
		paths, err := export.WriteAnalysis(rc.outputDir, analysis)
		if err != nil {
			return err
		}
		logger.Info().Strs("files", paths).Msg("wrote grouped tables")
	}

	return handler.Handle(adapters.MapAnalysisToReport(analysis))
}
