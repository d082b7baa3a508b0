package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-fxchain/dsp/effectchain"
)

func paramsCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "params",
		Short: "List the effect parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ds := effectchain.Descriptors()
			out := cmd.OutOrStdout()

			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(ds)
			case "yaml":
				enc := yaml.NewEncoder(out)
				defer enc.Close()
				return enc.Encode(ds)
			case "text":
				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tUNIT\tMIN\tMAX\tDEFAULT")
				for _, d := range ds {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%g\t%g\n", d.ID, d.Name, d.Unit, d.Min, d.Max, d.Default)
				}
				return tw.Flush()
			default:
				return fmt.Errorf("unknown format %q (text, json, yaml)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json or yaml")

	return cmd
}
