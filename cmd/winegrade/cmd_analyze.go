package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/straja-ai/winegrade/internal/features"
	"github.com/straja-ai/winegrade/internal/samples"
)

func newAnalyzeCommand(opts *rootOptions) *cobra.Command {
	var (
		v       = features.Default
		sample  int
		jsonOut bool
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Classify one sample and explain each measurement",
		Example: `  winegrade analyze --alc 12.1 --va 0.27 --cl 0.035 --fso2 37 --tso2 150 --fa 7.2
  winegrade analyze --sample 3 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("sample") {
				wine, err := samples.Get(sample)
				if err != nil {
					return err
				}
				v = wine.Vector
			}

			a, err := newApp(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			analysis, err := a.svc.Analyze(cmd.Context(), v)
			if err != nil {
				return fmt.Errorf("analyze: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(analysis)
			}
			newRenderer(out, noColor).analysis(analysis)
			return nil
		},
	}

	f := cmd.Flags()
	f.Float64Var(&v.Alcohol, "alc", v.Alcohol, "Alcohol (% vol)")
	f.Float64Var(&v.VolatileAcidity, "va", v.VolatileAcidity, "Volatile acidity (g/L)")
	f.Float64Var(&v.Chlorides, "cl", v.Chlorides, "Chlorides (g/L)")
	f.Float64Var(&v.FreeSO2, "fso2", v.FreeSO2, "Free SO2 (mg/L)")
	f.Float64Var(&v.TotalSO2, "tso2", v.TotalSO2, "Total SO2 (mg/L)")
	f.Float64Var(&v.FixedAcidity, "fa", v.FixedAcidity, "Fixed acidity (g/L)")
	f.IntVar(&sample, "sample", 0, "Analyze the example wine at this index instead")
	f.BoolVar(&jsonOut, "json", false, "Print the analysis as JSON")
	f.BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}
