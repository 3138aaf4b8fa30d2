package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent questions and answers",
	RunE:  runHistory,
}

var historyIngestsCmd = &cobra.Command{
	Use:   "ingests",
	Short: "Show recent ingests",
	RunE:  runHistoryIngests,
}

func init() {
	historyCmd.PersistentFlags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries")
	historyCmd.AddCommand(historyIngestsCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	records, err := historyService.Recent(context.Background(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if len(records) == 0 {
		cmd.Println("No questions asked yet.")
		return nil
	}

	for i := range records {
		r := &records[i]
		cmd.Printf("[%s] %s (scope: %s, %s)\n", r.AskedAt.Format("2006-01-02 15:04"), r.Outcome, r.Scope, r.Duration.Round(time.Millisecond))
		cmd.Printf("  Q: %s\n", r.Question)
		cmd.Printf("  A: %s\n", snippet(r.Answer, 200))
		cmd.Println()
	}
	return nil
}

func runHistoryIngests(cmd *cobra.Command, _ []string) error {
	if historyService == nil {
		return errors.New("history service not configured")
	}

	records, err := historyService.RecentIngests(context.Background(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if len(records) == 0 {
		cmd.Println("No manuals ingested yet.")
		return nil
	}

	for i := range records {
		r := &records[i]
		status := fmt.Sprintf("%d pages (%d OCR), %d chunks", r.Pages, r.OCRPages, r.Chunks)
		if r.Duplicate {
			status = "duplicate"
		}
		cmd.Printf("[%s] %s -> %s: %s\n", r.IngestedAt.Format("2006-01-02 15:04"), r.Name, r.CollectionID, status)
	}
	return nil
}
