// Package cli implements the dataexec command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/txn2/dataexec/pkg/credentials"
	"github.com/txn2/dataexec/pkg/platform"
)

// Version is set at build time.
var Version = "dev"

const (
	outputTable = "table"
	outputJSON  = "json"
)

// app carries the state shared by all commands of one invocation.
type app struct {
	configPath string
	verbose    bool
	output     string

	lookup  credentials.LookupFunc
	homeDir func() (string, error)
	options []platform.Option

	platform *platform.Platform
}

func newApp() *app {
	return &app{
		lookup:  os.LookupEnv,
		homeDir: os.UserHomeDir,
	}
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	a := newApp()
	rootCmd := newRootCmd(a)
	err := rootCmd.ExecuteContext(ctx)
	if cerr := a.close(); cerr != nil {
		slog.Warn("closing platform", "error", cerr)
	}
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dataexec",
		Short:         "Object store and relational table helpers",
		Long:          "Search, download and manage buckets, and read and write relational tables.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(cmd.ErrOrStderr(), a.verbose)
			if a.output != outputTable && a.output != outputJSON {
				return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", a.output)
			}
			return credentials.LoadDotEnv()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to YAML config file (environment when empty)")
	rootCmd.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "Log at debug level, including SQL statements")
	rootCmd.PersistentFlags().StringVarP(&a.output, "output", "o", outputTable, "Output format (table, json)")

	rootCmd.AddCommand(newSetupCredentialsCmd(a))
	rootCmd.AddCommand(newBucketsCmd(a))
	rootCmd.AddCommand(newSearchCmd(a))
	rootCmd.AddCommand(newDownloadCmd(a))
	rootCmd.AddCommand(newCreateBucketCmd(a))
	rootCmd.AddCommand(newEmptyBucketCmd(a))
	rootCmd.AddCommand(newTablesCmd(a))
	rootCmd.AddCommand(newReadCmd(a))
	rootCmd.AddCommand(newCheckCmd(a))

	return rootCmd
}

func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// loadConfig reads --config when given, the environment otherwise.
func (a *app) loadConfig() (*platform.Config, error) {
	var (
		cfg *platform.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = platform.LoadConfig(a.configPath)
	} else {
		cfg, err = platform.ConfigFromEnv(a.lookup)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if a.verbose {
		cfg.Database.Verbose = true
	}
	return cfg, nil
}

// open builds the platform on first use.
func (a *app) open() (*platform.Platform, error) {
	if a.platform != nil {
		return a.platform, nil
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	p, err := platform.New(append([]platform.Option{platform.WithConfig(cfg)}, a.options...)...)
	if err != nil {
		return nil, err
	}
	a.platform = p
	return p, nil
}

func (a *app) close() error {
	if a.platform == nil {
		return nil
	}
	return a.platform.Close()
}
