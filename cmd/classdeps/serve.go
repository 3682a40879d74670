package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ritzau/classdeps/pkg/analysis"
	"github.com/ritzau/classdeps/pkg/pubsub"
	"github.com/ritzau/classdeps/pkg/watcher"
	"github.com/ritzau/classdeps/pkg/web"
	"github.com/spf13/cobra"
)

const (
	quietPeriod = 500 * time.Millisecond
	maxWait     = 5 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve rounds over HTTP and optionally rerun them when snapshots change",
	Example: `  classdeps serve --old old.json --new new.json --port 8080 --watch
  curl -X POST localhost:8080/api/rounds -d '{"changed":["com.acme.Engine"]}'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := requireSnapshots(cfg); err != nil {
			return err
		}
		ctx := cmd.Context()

		pub := pubsub.NewRoundPublisher()
		defer pub.Close()
		runner := newRunner(cfg, pub)
		server := web.NewServer(runner, pub)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(cfg.Port)
		}()

		// Initial round in the background so the status endpoints answer while loading
		go func() {
			if _, err := runner.Run(ctx, analysis.RoundOptions{Changed: cfg.Changed, Reason: "initial round"}); err != nil {
				log.Error("initial round failed", "error", err)
			}
		}()

		if cfg.Watch {
			if cfg.OldSnapshot == "" || cfg.NewSnapshot == "" {
				return fmt.Errorf("--watch needs --old and --new snapshot files")
			}
			if err := startWatching(ctx, runner, cfg.OldSnapshot, cfg.NewSnapshot); err != nil {
				return err
			}
		}

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			log.Info("shutting down")
			return nil
		}
	},
}

func startWatching(ctx context.Context, runner *analysis.Runner, oldPath, newPath string) error {
	fw, err := watcher.NewFileWatcher(oldPath, newPath)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), quietPeriod, maxWait)
	debouncer.Start(ctx)

	go func() {
		defer fw.Stop()
		for event := range debouncer.Output() {
			change := watcher.AnalyzeChanges(event)
			log.Info("snapshot changed", "type", event.Type.String(), "files", change.ChangedFiles)
			if _, err := runner.HandleChange(ctx, change); err != nil {
				log.Error("round after snapshot change failed", "error", err)
			}
		}
	}()

	log.Info("watching snapshots", "old", oldPath, "new", newPath)
	return nil
}

func init() {
	serveCmd.Flags().Int("port", 8080, "Port for the web server")
	serveCmd.Flags().Bool("watch", false, "Rerun rounds when a snapshot file changes")
	rootCmd.AddCommand(serveCmd)
}
