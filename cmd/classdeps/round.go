package main

import (
	"os"

	"github.com/ritzau/classdeps/pkg/analysis"
	"github.com/ritzau/classdeps/pkg/output"
	"github.com/spf13/cobra"
)

var (
	roundFormat  string
	roundVerbose bool
)

var roundCmd = &cobra.Command{
	Use:   "round",
	Short: "Run one invalidation round and print the units to recompile",
	Example: `  classdeps round --old build/old.json --new build/new.json
  classdeps round --old old.json --new new.json --changed com.acme.Engine --trace`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := requireSnapshots(cfg); err != nil {
			return err
		}

		report, err := newRunner(cfg, nil).Run(cmd.Context(), analysis.RoundOptions{
			Changed: cfg.Changed,
			Reason:  "command line",
		})
		if err != nil {
			return err
		}

		if roundFormat == "json" {
			return output.PrintRoundJSON(os.Stdout, report)
		}
		output.PrintRoundReport(os.Stdout, report, roundVerbose)
		return nil
	},
}

func init() {
	roundCmd.Flags().StringVar(&roundFormat, "format", "text", "Output format: text or json")
	roundCmd.Flags().BoolVar(&roundVerbose, "trace", false, "Print the rule that marked each unit")
	rootCmd.AddCommand(roundCmd)
}
