package commands

import (
	"context"
	"io"

	"github.com/de-tools/alca/pkg/models/domain"
	"github.com/de-tools/alca/pkg/runtime/terminal/export"
	"github.com/de-tools/alca/pkg/services/config"
)

// Runner is a configured reconciliation.
type Runner interface {
	Run(ctx context.Context) (*domain.Analysis, error)
	SelectExports(ctx context.Context) (domain.Exports, error)
}

// Factory builds a Runner for a loaded configuration.
type Factory func(ctx context.Context, cfg domain.Config) (Runner, error)

// GlobalOptions are the persistent flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
	Format     string
	Output     io.Writer
}

func (o *GlobalOptions) loadConfig() (domain.Config, error) {
	return config.Load(o.ConfigPath)
}

func (o *GlobalOptions) handler() (export.Handler, error) {
	return export.NewHandler(o.Format, o.Output)
}
