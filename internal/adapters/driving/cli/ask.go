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
	askCollection string
	askK          int
	askShowSource bool
	askJSON       bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the ingested manuals",
	Long: `Retrieves the most relevant manual excerpts and asks the language model.

Without --collection every ingested manual is searched. If nothing relevant is
found the answer says so; if the language model fails a fixed fallback answer
is printed instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askCollection, "collection", "c", "", "collection ID to search (default: all)")
	askCmd.Flags().IntVarP(&askK, "top-k", "k", 0, "number of context chunks (default from settings)")
	askCmd.Flags().BoolVarP(&askShowSource, "sources", "s", false, "print the context chunks used")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	question := strings.Join(args, " ")
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	answer, err := answerService.Ask(ctx, question, domain.Scope(askCollection), resolveK(cmd, askK))
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, answer)
	}

	cmd.Println(answer.Text)
	if askShowSource && answer.Retrieval != nil && len(answer.Retrieval.Selected) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		printCandidates(cmd, answer.Retrieval.Selected)
	}
	return nil
}

// answerJSON is the machine-readable form of an answer.
type answerJSON struct {
	Question string         `json:"question"`
	Answer   string         `json:"answer"`
	Outcome  string         `json:"outcome"`
	Sources  []candidateRow `json:"sources"`
}

func outputAnswerJSON(cmd *cobra.Command, answer *domain.Answer) error {
	out := answerJSON{
		Question: answer.Question,
		Answer:   answer.Text,
		Outcome:  string(answer.Outcome),
		Sources:  []candidateRow{},
	}
	if answer.Retrieval != nil {
		out.Sources = candidateRows(answer.Retrieval.Selected)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
