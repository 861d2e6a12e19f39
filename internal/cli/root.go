// Package cli implements the chino command line tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chino"
	"github.com/kailas-cloud/chino/internal/config"
	"github.com/kailas-cloud/chino/internal/logger"
	"github.com/kailas-cloud/chino/internal/version"
)

// Output formats.
const (
	outputTable = "table"
	outputJSON  = "json"
)

// skipClient marks commands that run without loading config.
const skipClient = "skip-client"

type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	env        string
	baseURL    string
	logLevel   string
	output     string

	cfg    config.Config
	logger *zap.Logger
	client *chino.Client
}

// NewRootCommand builds the chino command tree writing to stdout and stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:               "chino",
		Short:             "Command line client for the Chino.io API",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: a.teardown,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&a.env, "env", config.GetEnv(), "environment whose config/<env>.yaml is loaded")
	flags.StringVar(&a.baseURL, "base-url", "", "override api.base_url")
	flags.StringVar(&a.logLevel, "log-level", "", "override logging.level (debug, info, warn, error)")
	flags.StringVarP(&a.output, "output", "o", outputTable, "output format: table or json")

	root.AddCommand(
		a.searchCommand(),
		a.documentsCommand(),
		a.consentsCommand(),
		a.versionCommand(),
	)
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	root := NewRootCommand(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipClient] != "" {
		return nil
	}
	if a.output != outputTable && a.output != outputJSON {
		return fmt.Errorf("unknown output format %q", a.output)
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	a.cfg = cfg

	l, err := logger.New(a.stderr, cfg.Logging.Format, cfg.Logging.Level)
	if err != nil {
		return err
	}
	a.logger = l

	opts := []chino.Option{
		chino.WithBaseURL(cfg.API.BaseURL),
		chino.WithTimeout(cfg.Timeout()),
		chino.WithRetry(*cfg.Retry.MaxRetries, cfg.RetryInitial(), cfg.RetryMax()),
		chino.WithPageSize(cfg.Search.PageSize),
		chino.WithUserAgent(version.UserAgent() + " (cli)"),
		chino.WithLogger(l),
	}
	switch {
	case cfg.API.BearerToken != "":
		opts = append(opts, chino.WithBearerToken(cfg.API.BearerToken))
	case cfg.API.CustomerID != "":
		opts = append(opts, chino.WithCustomerCredentials(cfg.API.CustomerID, cfg.API.CustomerKey))
	}
	client, err := chino.New(opts...)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	a.client = client

	cmd.SetContext(logger.WithContext(cmd.Context(), l))
	l.Debug("client ready", zap.String("base_url", client.BaseURL()), zap.String("command", cmd.CommandPath()))
	return nil
}

func (a *app) teardown(*cobra.Command, []string) {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// loadConfig picks --config, then config/<env>.yaml, then CHINO_* variables.
func (a *app) loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	switch {
	case a.configPath != "":
		cfg, err = config.LoadFile(a.configPath)
	case config.Exists(a.env):
		cfg, err = config.Load(a.env)
	default:
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return config.Config{}, err
	}
	if a.baseURL != "" {
		cfg.API.BaseURL = a.baseURL
		if err := cfg.Validate(); err != nil {
			return config.Config{}, fmt.Errorf("invalid config: %w", err)
		}
	}
	return cfg, nil
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print build information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipClient: "true"},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "chino %s\n", version.String())
		},
	}
}

// ExitCode maps an error returned by Execute onto a process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, chino.ErrUnauthorized), errors.Is(err, chino.ErrForbidden):
		return 3
	case errors.Is(err, chino.ErrNotFound):
		return 4
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}
