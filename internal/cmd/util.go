package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/chazu/metricgraph/pkg/dataio"
	"github.com/chazu/metricgraph/pkg/pipeline"
)

func must[T any](x T, err error) T {
	if err != nil {
		panic(err)
	}
	return x
}

// dataOptions selects where a command writes its result collection.
type dataOptions struct {
	outputFormat string
	file         string
}

func (o *dataOptions) addFlags(flags *pflag.FlagSet) {
	flags.StringVarP(&o.outputFormat, "output", "o", "json", "Output format on stdout; one of \"json\" or \"yaml\"")
	flags.StringVarP(&o.file, "file", "f", "", "Write the result to this file instead of stdout; the format follows the extension")
}

func (o *dataOptions) validate() error {
	if _, err := dataio.ParseFormat(o.outputFormat); err != nil {
		return fmt.Errorf("invalid value for flag --%s: %s", "output", o.outputFormat)
	}
	return nil
}

func (o *dataOptions) write(c *cobra.Command, d pipeline.Data) error {
	if o.file != "" && o.file != "-" {
		return dataio.WriteFile(o.file, d)
	}
	return dataio.Write(c.OutOrStdout(), d, must(dataio.ParseFormat(o.outputFormat)))
}

// readInput reads the collection named by the single positional argument.
func readInput(c *cobra.Command, path string) (pipeline.Data, error) {
	if path == "-" {
		return dataio.Read(c.InOrStdin())
	}
	return dataio.ReadFile(path)
}
