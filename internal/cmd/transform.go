package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chazu/metricgraph/pkg/metric"
	"github.com/chazu/metricgraph/pkg/neighbors"
	"github.com/chazu/metricgraph/pkg/pipeline"
	"github.com/chazu/metricgraph/pkg/shortest"
	"github.com/chazu/metricgraph/pkg/transform"
)

const transitionUsage = `Build undirected transition graphs of time series

Each input sample is a matrix whose rows are consecutive observations.
Rows are mapped to states (by default their argsort, i.e. ordinal
pattern) and an edge joins two states whenever one follows the other.`

type transitionOptions struct {
	dataOptions
	state string
}

func newTransitionCmd(root *rootOptions) *cobra.Command {
	options := &transitionOptions{}
	t := transform.NewTransitionGraph()

	cmd := &cobra.Command{
		Use:          "transition INPUT",
		Short:        "Build transition graphs",
		Long:         transitionUsage,
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		PreRunE: func(c *cobra.Command, args []string) error {
			switch strings.ToLower(options.state) {
			case "argsort", "ordinal":
				t.StateFunc = transform.Argsort
			case "identity":
				t.StateFunc = transform.Identity
			default:
				return fmt.Errorf("invalid value for flag --%s: %s", "state", options.state)
			}
			return options.validate()
		},
		RunE: func(c *cobra.Command, args []string) error {
			return runStep(c, root, &options.dataOptions, args[0], pipeline.Transition(t))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&options.state, "state", "argsort", "State function; one of \"argsort\" or \"identity\"")
	options.addFlags(flags)

	return cmd
}

const kneighborsUsage = `Build k-nearest-neighbor graphs of point clouds

With --metric precomputed the input samples are square distance matrices.
The result is symmetric: i and j are joined when either is among the
other's nearest neighbors.`

type kneighborsOptions struct {
	dataOptions
	mode      string
	metric    string
	algorithm string
}

func newKNeighborsCmd(root *rootOptions) *cobra.Command {
	options := &kneighborsOptions{}
	t := transform.NewKNeighborsGraph()

	cmd := &cobra.Command{
		Use:          "kneighbors INPUT",
		Short:        "Build k-nearest-neighbor graphs",
		Long:         kneighborsUsage,
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		PreRunE: func(c *cobra.Command, args []string) (err error) {
			if t.Mode, err = transform.ParseMode(options.mode); err != nil {
				return err
			}
			if t.Metric, err = metric.ParseMetric(options.metric); err != nil {
				return err
			}
			if t.Algorithm, err = neighbors.ParseAlgorithm(options.algorithm); err != nil {
				return err
			}
			return options.validate()
		},
		RunE: func(c *cobra.Command, args []string) error {
			return runStep(c, root, &options.dataOptions, args[0], pipeline.KNeighbors(t))
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&t.NNeighbors, "n-neighbors", "k", t.NNeighbors, "Number of neighbors of each point")
	flags.StringVar(&options.mode, "mode", "connectivity", "Edge weights; one of \"connectivity\" or \"distance\"")
	flags.StringVar(&options.metric, "metric", "euclidean", "Distance metric, or \"precomputed\"")
	flags.Float64Var(&t.P, "p", t.P, "Minkowski exponent")
	flags.StringVar(&options.algorithm, "algorithm", "auto", "Neighbor search; one of \"auto\", \"brute\" or \"kd_tree\"")
	options.addFlags(flags)

	return cmd
}

const geodesicUsage = `Compute all-pairs shortest path distances on graphs

The input is a graphs collection, or a distances collection holding dense
adjacency matrices in which null (+Inf) marks a missing edge. Unreachable
pairs come out as null.`

type geodesicOptions struct {
	dataOptions
	method string
}

func newGeodesicCmd(root *rootOptions) *cobra.Command {
	options := &geodesicOptions{}
	t := transform.NewGraphGeodesicDistance()

	cmd := &cobra.Command{
		Use:          "geodesic INPUT",
		Short:        "Compute graph geodesic distances",
		Long:         geodesicUsage,
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		PreRunE: func(c *cobra.Command, args []string) (err error) {
			if t.Method, err = shortest.ParseMethod(options.method); err != nil {
				return err
			}
			return options.validate()
		},
		RunE: func(c *cobra.Command, args []string) error {
			in, err := readInput(c, args[0])
			if err != nil {
				return err
			}
			if in.Kind == pipeline.Distances {
				graphs, err := transform.FromDense(in.Matrices)
				if err != nil {
					return err
				}
				in = pipeline.GraphsData(graphs)
			}
			out, err := root.app.Run(c.Context(), pipeline.New(pipeline.Geodesic(t)), in)
			if err != nil {
				return err
			}
			return options.write(c, out)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&t.Directed, "directed", false, "Follow edges only in their stored direction")
	flags.BoolVar(&t.Unweighted, "unweighted", false, "Count hops instead of summing weights")
	flags.StringVar(&options.method, "method", "auto", "Algorithm; one of \"auto\", \"FW\", \"D\", \"BF\" or \"J\"")
	options.addFlags(flags)

	return cmd
}

const fermatUsage = `Compute sample Fermat distances of point clouds

Edges of the complete graph, or of the k-nearest-neighbor graph when
--n-neighbors is set, are weighted by distance raised to --p. The result
is the shortest path distance in that graph.`

type fermatOptions struct {
	dataOptions
	metric string
	method string
}

func newFermatCmd(root *rootOptions) *cobra.Command {
	options := &fermatOptions{}
	t := transform.NewFermatDistance()

	cmd := &cobra.Command{
		Use:          "fermat INPUT",
		Short:        "Compute Fermat distances",
		Long:         fermatUsage,
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		PreRunE: func(c *cobra.Command, args []string) (err error) {
			if t.Metric, err = metric.ParseMetric(options.metric); err != nil {
				return err
			}
			if t.Method, err = shortest.ParseMethod(options.method); err != nil {
				return err
			}
			return options.validate()
		},
		RunE: func(c *cobra.Command, args []string) error {
			return runStep(c, root, &options.dataOptions, args[0], pipeline.Fermat(t))
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&t.P, "p", t.P, "Exponent applied to edge lengths; at least 1")
	flags.StringVar(&options.metric, "metric", "euclidean", "Distance metric, or \"precomputed\"")
	flags.Float64Var(&t.MinkowskiP, "minkowski-p", t.MinkowskiP, "Minkowski exponent of the metric")
	flags.IntVarP(&t.NNeighbors, "n-neighbors", "k", 0, "Restrict to the k-nearest-neighbor graph; 0 uses the complete graph")
	flags.StringVar(&options.method, "method", "auto", "Algorithm; one of \"auto\", \"FW\", \"D\", \"BF\" or \"J\"")
	options.addFlags(flags)

	return cmd
}

// runStep reads the input collection, runs one step on it and writes the
// result.
func runStep(c *cobra.Command, root *rootOptions, out *dataOptions, input string, s pipeline.Step) error {
	in, err := readInput(c, input)
	if err != nil {
		return err
	}
	data, err := root.app.Run(c.Context(), pipeline.New(s), in)
	if err != nil {
		return err
	}
	return out.write(c, data)
}
