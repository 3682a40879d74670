package main

import (
	"fmt"
	"os"

	"github.com/ritzau/classdeps/pkg/driver"
	"github.com/ritzau/classdeps/pkg/finder"
	"github.com/ritzau/classdeps/pkg/output"
	"github.com/ritzau/classdeps/pkg/snapshot"
	"github.com/ritzau/classdeps/pkg/symbols"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [snapshot|dir...]",
	Short: "Check snapshots for corrupted hierarchy metadata",
	Long: `validate loads each snapshot and reports supertype cycles. Without
arguments it checks the --old and --new snapshots; directories are searched
for snapshot documents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		var paths []string
		for _, arg := range args {
			found, err := finder.FindSnapshots(arg)
			if err != nil {
				return err
			}
			paths = append(paths, found...)
		}
		if len(args) == 0 {
			for _, p := range []string{cfg.OldSnapshot, cfg.NewSnapshot} {
				if p != "" {
					paths = append(paths, p)
				}
			}
		}
		if len(paths) == 0 {
			return fmt.Errorf("no snapshots to validate")
		}

		total := 0
		for _, path := range paths {
			table := symbols.NewTable()
			c, err := snapshot.Load(path, table)
			if err != nil {
				return err
			}
			found := driver.Validate(c)
			output.PrintCycles(os.Stdout, path, found, table)
			total += len(found)
		}
		if total > 0 {
			return fmt.Errorf("found %d supertype cycle(s)", total)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
