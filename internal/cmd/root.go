package cmd

import (
	"context"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chazu/metricgraph/internal/app"
	"github.com/chazu/metricgraph/internal/config"
	"github.com/chazu/metricgraph/internal/logger"
	"github.com/chazu/metricgraph/pkg/metrics"
)

const rootUsage = `Graph and metric-space transformers for point clouds and time series

Common actions for metricgraph:
- metricgraph kneighbors     Build k-nearest-neighbor graphs of point clouds
- metricgraph transition     Build transition graphs of time series
- metricgraph geodesic       Shortest path distances on graphs
- metricgraph fermat         Sample Fermat distances of point clouds
- metricgraph run            Run a pipeline program
- metricgraph surface        Geodesic distances on the surface of a solid
`

// rootOptions carries what PersistentPreRunE sets up for the subcommands.
type rootOptions struct {
	configDir string
	cfg       *config.Config
	log       *zap.Logger
	app       *app.App
}

func newRootCmd() *cobra.Command {
	options := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "metricgraph",
		Short:        "Graph and metric-space transformers",
		Long:         rootUsage,
		SilenceUsage: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			return options.setup(c)
		},
		PersistentPostRunE: func(c *cobra.Command, args []string) error {
			return options.teardown()
		},
	}

	cmd.Flags().SortFlags = false
	flags := cmd.PersistentFlags()
	flags.StringVar(&options.configDir, "config-dir", "", "Directory containing metricgraph.yaml (default: current directory)")
	flags.Int("workers", 1, "Samples transformed in parallel; negative uses all CPUs")
	flags.String("log-level", "info", "Log level; one of \"debug\", \"info\", \"warn\" or \"error\"")
	flags.String("log-format", "console", "Log format; one of \"console\" or \"json\"")
	flags.String("metrics", "", "Write transformer metrics to this file after the command; \"-\" for stderr")
	flags.Duration("timeout", 5*time.Second, "Evaluation timeout for pipeline programs")

	cmd.AddCommand(
		newVersionCmd(),
		newTransitionCmd(options),
		newKNeighborsCmd(options),
		newGeodesicCmd(options),
		newFermatCmd(options),
		newRunCmd(options),
		newSurfaceCmd(options),
	)

	return cmd
}

func (o *rootOptions) setup(c *cobra.Command) error {
	var paths []string
	if o.configDir != "" {
		paths = append(paths, o.configDir)
	}
	cfg, err := config.Load(c.Flags(), paths...)
	if err != nil {
		return err
	}
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.log = log.Named("metricgraph")
	o.app = app.New(cfg, o.log)
	return nil
}

func (o *rootOptions) teardown() error {
	if o.log != nil {
		// Sync fails on terminals; there is nothing to flush there.
		_ = o.log.Sync()
	}
	if o.cfg == nil || o.cfg.Metrics.Output == "" {
		return nil
	}
	if o.cfg.Metrics.Output == "-" {
		return metrics.WriteText(os.Stderr)
	}
	f, err := os.Create(o.cfg.Metrics.Output)
	if err != nil {
		return errors.Wrap(err, "write metrics")
	}
	defer f.Close()
	return errors.Wrap(metrics.WriteText(f), "write metrics")
}

// Execute runs the metricgraph command line.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}
