// schemagen generates the SQL scripts and the data-access layer of a
// manga catalog from YAML schema files.
//
//	schemagen scripts --config schemagen.yaml
//	schemagen access --schema schema.yaml --target internal/store --version 3
//	schemagen graph --schema schema.yaml
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mangaloom/schemagen/compiler/gen"
	"github.com/mangaloom/schemagen/compiler/load"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// app holds the state shared by the commands of one invocation.
type app struct {
	configPath string
	verbose    bool
	watch      bool

	// flag values, applied over the config when set.
	schemas []string
	version int

	cfg    *Config
	logger *zap.Logger
	out    io.Writer
}

func newRootCmd() *cobra.Command { return (&app{}).rootCmd() }

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "schemagen",
		Short:         "Generate SQL scripts and data-access code from entity schemas",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	f := root.PersistentFlags()
	f.StringVarP(&a.configPath, "config", "c", "", "path to a YAML or TOML config file")
	f.StringSliceVarP(&a.schemas, "schema", "s", nil, "YAML schema files (repeatable)")
	f.IntVar(&a.version, "version", 0, "version cutoff: columns introduced later are left out")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "development logging at debug level")
	root.AddCommand(
		a.scriptsCmd(),
		a.accessCmd(),
		a.graphCmd(),
		a.verifyCmd(),
		a.lintCmd(),
	)
	return root
}

// setup loads the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("schema") {
		cfg.Schemas = a.schemas
	}
	if flags.Changed("version") {
		cfg.Version = a.version
	}
	a.cfg = cfg
	a.out = cmd.OutOrStdout()
	if a.logger == nil {
		if a.logger, err = newLogger(a.verbose); err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// graph loads the schema files and resolves their graph.
func (a *app) graph() (*gen.Graph, error) {
	if len(a.cfg.Schemas) == 0 {
		return nil, gen.NewConfigError("schemas", nil, "no schema file given")
	}
	schemas, err := load.ReadFiles(a.cfg.Schemas...)
	if err != nil {
		return nil, err
	}
	c, err := gen.NewConfig(append([]gen.Option{gen.WithLogger(a.logger)}, a.cfg.genOptions()...)...)
	if err != nil {
		return nil, err
	}
	return gen.NewGraph(c, schemas...)
}
