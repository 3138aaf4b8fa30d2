package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

var (
	retrieveCollection string
	retrieveK          int
	retrieveJSON       bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve [question]",
	Short: "Show the context selected for a question",
	Long: `Runs hybrid retrieval without calling the language model.

The vector index is over-fetched, duplicate chunks are dropped and chunks
containing a question keyword are preferred. Use this to inspect what the
answer would be grounded on.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRetrieve,
}

func init() {
	retrieveCmd.Flags().StringVarP(&retrieveCollection, "collection", "c", "", "collection ID to search (default: all)")
	retrieveCmd.Flags().IntVarP(&retrieveK, "top-k", "k", 0, "number of context chunks (default from settings)")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	question := strings.Join(args, " ")
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	retrieval, err := retrievalService.Retrieve(ctx, question, domain.Scope(retrieveCollection), resolveK(cmd, retrieveK))
	found := true
	if errors.Is(err, domain.ErrNoRelevantContext) {
		found = false
	} else if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}

	if retrieveJSON {
		return outputRetrievalJSON(cmd, retrieval, found)
	}
	return outputRetrievalTable(cmd, retrieval, found)
}

// candidateRow is one context chunk in command output.
type candidateRow struct {
	Collection   string  `json:"collection"`
	Distance     float64 `json:"distance"`
	KeywordMatch bool    `json:"keyword_match"`
	Text         string  `json:"text"`
}

func candidateRows(candidates []domain.Candidate) []candidateRow {
	rows := make([]candidateRow, len(candidates))
	for i, c := range candidates {
		rows[i] = candidateRow{
			Collection:   c.CollectionID,
			Distance:     c.Distance,
			KeywordMatch: c.KeywordMatch,
			Text:         c.Text,
		}
	}
	return rows
}

// retrievalJSON is the machine-readable form of a retrieval.
type retrievalJSON struct {
	Found           bool           `json:"found"`
	Keywords        []string       `json:"keywords"`
	KeywordFiltered bool           `json:"keyword_filtered"`
	Candidates      int            `json:"candidates"`
	Chunks          []candidateRow `json:"chunks"`
}

func outputRetrievalJSON(cmd *cobra.Command, retrieval *domain.Retrieval, found bool) error {
	out := retrievalJSON{Found: found, Keywords: []string{}, Chunks: []candidateRow{}}
	if retrieval != nil {
		if retrieval.Keywords != nil {
			out.Keywords = retrieval.Keywords
		}
		out.KeywordFiltered = retrieval.KeywordFiltered
		out.Candidates = len(retrieval.Candidates)
		out.Chunks = candidateRows(retrieval.Selected)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputRetrievalTable(cmd *cobra.Command, retrieval *domain.Retrieval, found bool) error {
	if !found || retrieval == nil {
		cmd.Println("No relevant context found.")
		return nil
	}

	cmd.Printf("Keywords: %s\n", strings.Join(retrieval.Keywords, ", "))
	mode := "vector order"
	if retrieval.KeywordFiltered {
		mode = "keyword filtered"
	}
	cmd.Printf("Selected %d of %d candidates (%s)\n", len(retrieval.Selected), len(retrieval.Candidates), mode)
	cmd.Println()
	printCandidates(cmd, retrieval.Selected)
	return nil
}

// printCandidates prints each chunk with its collection and distance.
func printCandidates(cmd *cobra.Command, candidates []domain.Candidate) {
	for i, c := range candidates {
		marker := ""
		if c.KeywordMatch {
			marker = " *"
		}
		cmd.Printf("  [%d] %s (%.4f)%s\n", i+1, c.CollectionID, c.Distance, marker)
		cmd.Printf("      %s\n", snippet(c.Text, 200))
		cmd.Println()
	}
}

// snippet collapses whitespace and truncates text to at most n runes.
func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
