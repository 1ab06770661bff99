package commands

import (
	"fmt"

	"github.com/de-tools/alca/pkg/adapters"
	"github.com/spf13/cobra"
)

type ExportsCmd struct {
	global  *GlobalOptions
	factory Factory
}

func NewExportsCmd(global *GlobalOptions, factory Factory) *cobra.Command {
	ec := &ExportsCmd{global: global, factory: factory}
	return &cobra.Command{
		Use:   "exports",
		Short: "Show which cost exports a run would use, without copying anything",
		Args:  cobra.NoArgs,
		RunE:  ec.run,
	}
}

func (ec *ExportsCmd) run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := ec.global.loadConfig()
	if err != nil {
		return err
	}

	handler, err := ec.global.handler()
	if err != nil {
		return err
	}

	runner, err := ec.factory(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to set up reconciliation: %w", err)
	}

	selected, err := runner.SelectExports(ctx)
	if err != nil {
		return err
	}

	return handler.Handle(adapters.MapExportsToReport(selected, cfg.AnalysisWindowSize))
}
