package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/straja-ai/winegrade/internal/bands"
	"github.com/straja-ai/winegrade/internal/samples"
)

func newSamplesCommand() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "samples",
		Short: "List the example wines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := samples.All()
			if err != nil {
				return err
			}
			for i := range all {
				all[i] = all[i].Rounded()
			}
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(all)
			}
			newRenderer(cmd.OutOrStdout(), false).samples(all)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print as JSON")
	return cmd
}

func newBandsCommand() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "bands",
		Short: "Print the band tables and check them",
		Long: `Print the band tables and check them.

Every table must partition the real line into exactly five tiers. Severity
anomalies (a side that never reaches red) are reported but do not fail.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables := bands.Tables()
			out := cmd.OutOrStdout()
			newRenderer(out, noColor).bands(tables)

			for _, tb := range tables {
				if err := bands.CheckPartition(tb); err != nil {
					return fmt.Errorf("band table check: %w", err)
				}
				if err := bands.CheckSeverity(tb); err != nil {
					fmt.Fprintf(out, "note: %v\n", err)
				}
			}
			fmt.Fprintf(out, "%d tables partition the real line\n", len(tables))
			return nil
		},
	}
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	return cmd
}
