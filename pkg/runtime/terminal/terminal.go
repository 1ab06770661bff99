package terminal

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/de-tools/alca/pkg/models/domain"
	"github.com/de-tools/alca/pkg/runtime/terminal/commands"
	"github.com/de-tools/alca/pkg/runtime/terminal/export"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// CLI represents the command-line interface
type CLI struct {
	factory   commands.Factory
	global    *commands.GlobalOptions
	logOutput io.Writer
	rootCmd   *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Factory   commands.Factory
	Output    io.Writer
	LogOutput io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}

	cli := &CLI{
		factory:   opts.Factory,
		global:    &commands.GlobalOptions{Output: opts.Output},
		logOutput: opts.LogOutput,
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.ExecuteContext(context.Background())
}

func (cli *CLI) ExecuteContext(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

// SetArgs overrides os.Args, for tests.
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "alca",
		Short:             "Workspace cost and storage reconciliation for Azure",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: cli.setup,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&cli.global.ConfigPath, "config", "c", "", "Path to the YAML configuration file")
	flags.StringVar(&cli.global.LogLevel, "log-level", zerolog.InfoLevel.String(), "Log level (debug, info, warn, error)")
	flags.StringVar(&cli.global.LogFormat, "log-format", LogFormatJSON, "Log format (json, console)")
	flags.StringVar(&cli.global.Format, "format", export.FormatTable, "Report format (table, text)")

	cmd.AddCommand(commands.NewRunCmd(cli.global, cli.factory))
	cmd.AddCommand(commands.NewExportsCmd(cli.global, cli.factory))

	return cmd
}

// setup loads .env and attaches the logger to the command context.
func (cli *CLI) setup(cmd *cobra.Command, _ []string) error {
	envErr := godotenv.Load()

	level, err := zerolog.ParseLevel(cli.global.LogLevel)
	if err != nil {
		return &domain.ConfigError{Field: "log-level", Message: err.Error()}
	}

	var out io.Writer
	switch cli.global.LogFormat {
	case LogFormatJSON:
		out = cli.logOutput
	case LogFormatConsole:
		out = zerolog.ConsoleWriter{Out: cli.logOutput}
	default:
		return &domain.ConfigError{Field: "log-format", Message: "expected json or console"}
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		logger.Warn().Err(envErr).Msg("error loading .env file")
	}

	cmd.SetContext(logger.WithContext(cmd.Context()))
	return nil
}
