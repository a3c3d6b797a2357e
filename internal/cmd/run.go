package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const runUsage = `Run a pipeline program on a collection

The program is Lisp source whose last pipeline expression is run, e.g.

  (pipeline
    (kneighbors-graph :n-neighbors 4 :mode :distance)
    (graph-geodesic-distance))
`

type runOptions struct {
	dataOptions
	expression string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	options := &runOptions{}

	cmd := &cobra.Command{
		Use:          "run [PROGRAM] INPUT",
		Short:        "Run a pipeline program",
		Long:         runUsage,
		SilenceUsage: true,
		Args: func(c *cobra.Command, args []string) error {
			if options.expression != "" {
				return cobra.ExactArgs(1)(c, args)
			}
			return cobra.ExactArgs(2)(c, args)
		},
		PreRunE: func(c *cobra.Command, args []string) error {
			return options.validate()
		},
		RunE: func(c *cobra.Command, args []string) error {
			source := options.expression
			if source == "" {
				raw, err := os.ReadFile(args[0])
				if err != nil {
					return errors.Wrap(err, "read program")
				}
				source = string(raw)
				args = args[1:]
			}
			in, err := readInput(c, args[0])
			if err != nil {
				return err
			}
			result := root.app.Evaluate(c.Context(), source, in)
			if err := result.Err(); err != nil {
				return err
			}
			return options.write(c, result.Output)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&options.expression, "expression", "e", "", "Program source given inline instead of a PROGRAM file")
	options.addFlags(flags)

	return cmd
}
