package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ritzau/classdeps/pkg/analysis"
	"github.com/ritzau/classdeps/pkg/analysis/api"
	"github.com/ritzau/classdeps/pkg/config"
	"github.com/ritzau/classdeps/pkg/logging"
	"github.com/ritzau/classdeps/pkg/pubsub"
	"github.com/ritzau/classdeps/pkg/snapshot"
	"github.com/spf13/cobra"
)

var log = logging.New("main")

var rootCmd = &cobra.Command{
	Use:   "classdeps",
	Short: "Find the classes a change forces to recompile",
	Long: `classdeps compares the structural metadata of compiled classes before and
after a build and reports every class whose compiled form may be invalidated.`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("old", "", "Snapshot of the last successful build")
	pf.String("new", "", "Snapshot of the units recompiled since")
	pf.String("oldcmd", "", "Extractor command printing the old snapshot (instead of --old)")
	pf.String("newcmd", "", "Extractor command printing the new snapshot (instead of --new)")
	pf.StringSlice("changed", nil, "Units changed this round (default: every unit in the new snapshot)")
	pf.Int("workers", 0, "Concurrent diff batches (default: number of CPUs)")
	pf.Int("signatures", 4096, "Parsed method descriptor cache size")
	pf.String("root", "java.lang.Object", "Root of the class hierarchy")
	pf.Bool("validate", true, "Check the snapshots for supertype cycles when loading")
	pf.Bool("json", false, "Write logs as JSON")
	pf.String("verbosity", "", "Log level: trace, debug, info, warn or error")
	pf.CountP("verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig merges flags over env, file and defaults and configures logging
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	if cfg.JSONLogs {
		logging.SetJSONOutput(level)
	} else {
		logging.SetLevel(level)
	}
	return cfg, nil
}

func requireSnapshots(cfg *config.Config) error {
	if cfg.OldSnapshot == "" && cfg.OldCommand == "" {
		return fmt.Errorf("an old snapshot is required (--old or --oldcmd)")
	}
	if cfg.NewSnapshot == "" && cfg.NewCommand == "" {
		return fmt.Errorf("a new snapshot is required (--new or --newcmd)")
	}
	return nil
}

func sourceFor(path, command string) api.Source {
	if command != "" {
		return snapshot.NewCommandSource(command, ".")
	}
	return snapshot.FileSource{Path: path}
}

func newRunner(cfg *config.Config, pub pubsub.Publisher) *analysis.Runner {
	return analysis.NewRunner(cfg,
		sourceFor(cfg.OldSnapshot, cfg.OldCommand),
		sourceFor(cfg.NewSnapshot, cfg.NewCommand),
		pub)
}
