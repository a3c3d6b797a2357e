package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/chazu/metricgraph/internal/app"
	"github.com/chazu/metricgraph/pkg/graph"
	"github.com/chazu/metricgraph/pkg/kernel"
	"github.com/chazu/metricgraph/pkg/pipeline"
)

const surfaceUsage = `Compute geodesic distances on the surface of a solid

The named solid is meshed with marching cubes, coincident vertices are
welded, and shortest paths along mesh edges are computed between every
pair of vertices. With --points the welded vertices are written instead.

Shapes: `

type surfaceOptions struct {
	dataOptions
	app.SurfaceOptions
	points bool
	graph  bool
}

func newSurfaceCmd(root *rootOptions) *cobra.Command {
	options := &surfaceOptions{}

	cmd := &cobra.Command{
		Use:          "surface SHAPE",
		Short:        "Compute surface geodesic distances",
		Long:         surfaceUsage + strings.Join(kernel.ShapeNames(), ", "),
		SilenceUsage: true,
		Args:         cobra.ExactArgs(1),
		ValidArgs:    kernel.ShapeNames(),
		PreRunE: func(c *cobra.Command, args []string) error {
			if options.points && options.graph {
				return fmt.Errorf("flags --points and --graph are mutually exclusive")
			}
			return options.validate()
		},
		RunE: func(c *cobra.Command, args []string) error {
			options.Shape = args[0]
			res, err := root.app.Surface(c.Context(), options.SurfaceOptions)
			if err != nil {
				return err
			}
			switch {
			case options.points:
				return options.write(c, pipeline.PointsData([]mat.Matrix{res.Points}))
			case options.graph:
				return options.write(c, pipeline.GraphsData([]*graph.Adjacency{res.Graph}))
			}
			return options.write(c, pipeline.DistancesData([]mat.Matrix{res.Distances}))
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&options.Size, "size", 1, "Characteristic size of the solid")
	flags.IntVar(&options.Cells, "cells", 0, "Marching cubes cells along the longest axis (default from config)")
	flags.Float64Var(&options.Weld, "weld", -1, "Vertex weld tolerance; negative uses the config value")
	flags.BoolVar(&options.points, "points", false, "Write the welded vertices instead of distances")
	flags.BoolVar(&options.graph, "graph", false, "Write the mesh edge graph instead of distances")
	options.addFlags(flags)

	return cmd
}
