package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/watcher"
	"github.com/custodia-labs/manualqa/internal/core/domain"
)

var (
	watchExisting bool
	watchSettle   time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest PDFs dropped into a directory",
	Long: `Watches a directory and ingests every PDF that is created or rewritten in it.

A file is ingested once it has stopped changing for the settle interval.
Failures are reported and the watcher keeps running until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchExisting, "existing", false, "ingest PDFs already in the directory first")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", watcher.DefaultSettle, "quiet period before a file is ingested")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []watcher.Option{
		watcher.WithSettle(watchSettle),
		watcher.WithResults(func(path string, result *domain.IngestResult, err error) {
			switch {
			case errors.Is(err, domain.ErrExtractionEmpty):
				cmd.Printf("Skipped %s: no text could be extracted\n", path)
			case err != nil:
				cmd.Printf("Failed %s: %v\n", path, err)
			default:
				printIngestResult(cmd, path, result)
			}
		}),
	}
	if watchExisting {
		opts = append(opts, watcher.WithExisting())
	}

	cmd.Printf("Watching %s for PDFs (Ctrl+C to stop)\n", args[0])
	err := watcher.New(args[0], ingestService, opts...).Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch failed: %w", err)
	}
	return nil
}
