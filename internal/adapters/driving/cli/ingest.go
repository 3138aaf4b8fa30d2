package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

var ingestChunkSize int

var ingestCmd = &cobra.Command{
	Use:   "ingest [file.pdf...]",
	Short: "Ingest PDF manuals",
	Long: `Extracts text from each PDF, splits it into chunks, embeds them and stores
them in a collection named after the file.

Pages without a text layer are recognised with OCR. A file that yields no text
at all is reported and skipped; the remaining files are still ingested.
Re-ingesting a file with identical content reuses the existing collection.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", 0, "tokens per chunk (default from settings)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var skipped int
	for _, path := range args {
		opts := domain.IngestOptions{
			ChunkSize: ingestChunkSize,
			Progress:  pageProgress(cmd.OutOrStdout(), filepath.Base(path)),
		}

		result, err := ingestService.IngestFile(ctx, path, opts)
		if errors.Is(err, domain.ErrExtractionEmpty) {
			cmd.Printf("Skipped %s: no text could be extracted\n", path)
			skipped++
			continue
		}
		if err != nil {
			return fmt.Errorf("ingest %s failed: %w", path, err)
		}

		printIngestResult(cmd, path, result)
	}

	if skipped > 0 {
		cmd.Printf("%d of %d files skipped.\n", skipped, len(args))
	}
	return nil
}

func printIngestResult(cmd *cobra.Command, path string, result *domain.IngestResult) {
	if result.Duplicate {
		cmd.Printf("%s already ingested as %s\n", path, result.Collection.ID)
		return
	}
	cmd.Printf("Ingested %s as %s\n", path, result.Collection.ID)
	cmd.Printf("  Pages: %d (%d via OCR)\n", result.Pages, result.OCRPages)
	cmd.Printf("  Chunks: %d\n", result.Chunks)
}

// pageProgress returns a progress callback that redraws one status line.
// Progress is only shown when w is a terminal.
func pageProgress(w io.Writer, name string) domain.ProgressFunc {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}
	return func(index, total int) {
		fmt.Fprintf(f, "\rExtracting %s: page %d/%d", name, index+1, total)
		if index+1 == total {
			fmt.Fprintln(f)
		}
	}
}
