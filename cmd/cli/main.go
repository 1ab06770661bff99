package main

import (
	"context"
	"fmt"
	"os"

	"github.com/de-tools/alca/pkg/models/domain"
	"github.com/de-tools/alca/pkg/runtime/terminal"
	"github.com/de-tools/alca/pkg/runtime/terminal/commands"
	"github.com/de-tools/alca/pkg/services/aggregator"
)

func main() {
	cli := terminal.NewCLI(terminal.Options{
		Factory: func(ctx context.Context, cfg domain.Config) (commands.Runner, error) {
			agg, err := aggregator.Factory(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return agg, nil
		},
		Output: os.Stdout,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(domain.ExitCode(err))
	}
}
