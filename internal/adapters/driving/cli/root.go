// Package cli provides the cobra command tree for manualqa.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/core/domain"
	"github.com/custodia-labs/manualqa/internal/core/ports/driving"
	"github.com/custodia-labs/manualqa/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// verbose mirrors the --verbose flag.
var verbose bool

// SettingsManager is the settings port plus the connectivity checks used by
// the interactive configuration commands.
type SettingsManager interface {
	driving.SettingsService

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error

	// ValidateLLMConfig pings the configured LLM provider.
	ValidateLLMConfig() error
}

// Services groups the driving ports the commands call.
// Any field may be nil; commands that need a missing service return an error.
type Services struct {
	Ingest     driving.IngestService
	Retrieval  driving.RetrievalService
	Answer     driving.AnswerService
	Collection driving.CollectionService
	History    driving.HistoryService
	Settings   SettingsManager

	// TopK is the default number of context chunks when -k is not given.
	TopK int

	// Warnings are start-up degradations, logged once --verbose is known.
	Warnings []string
}

var (
	ingestService     driving.IngestService
	retrievalService  driving.RetrievalService
	answerService     driving.AnswerService
	collectionService driving.CollectionService
	historyService    driving.HistoryService
	settingsService   SettingsManager
	defaultTopK       int
	startupWarnings   []string
)

var rootCmd = &cobra.Command{
	Use:   "manualqa",
	Short: "Ask questions about your PDF manuals",
	Long: `manualqa ingests PDF manuals into local vector collections and answers
questions from them with a language model.

Text is extracted per page, with OCR for scanned pages. Answers are grounded
in the chunks selected by hybrid vector and keyword retrieval.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
		for _, w := range startupWarnings {
			logger.Warn("%s", w)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline diagnostics to stderr")
}

// SetServices installs the services used by every command.
func SetServices(s Services) {
	ingestService = s.Ingest
	retrievalService = s.Retrieval
	answerService = s.Answer
	collectionService = s.Collection
	historyService = s.History
	settingsService = s.Settings
	defaultTopK = s.TopK
	startupWarnings = s.Warnings
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx available to every command.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// resolveK returns the --top-k flag value when it was given, else the configured default.
// Explicit values are passed through unchanged so the services reject k <= 0.
func resolveK(cmd *cobra.Command, value int) int {
	if cmd.Flags().Changed("top-k") {
		return value
	}
	if defaultTopK > 0 {
		return defaultTopK
	}
	return domain.DefaultTopK
}
