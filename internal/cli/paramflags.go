package cli

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/cwbudde/algo-fxchain/dsp/effectchain"
)

// addParamFlags registers one flag per parameter, named by its ID.
func addParamFlags(fs *pflag.FlagSet) {
	for _, d := range effectchain.Descriptors() {
		usage := fmt.Sprintf("%s, %g..%g", d.Name, d.Min, d.Max)
		if d.Unit != "" {
			usage += " " + d.Unit
		}
		fs.Float64(string(d.ID), d.Default, usage)
	}
}

// applyParamFlags copies every parameter flag set on the command line into
// params.
func applyParamFlags(fs *pflag.FlagSet, params *effectchain.Params) error {
	for _, d := range effectchain.Descriptors() {
		name := string(d.ID)
		if !fs.Changed(name) {
			continue
		}

		v, err := fs.GetFloat64(name)
		if err != nil {
			return err
		}

		if err := params.Set(d.ID, v); err != nil {
			return err
		}
	}

	return nil
}
