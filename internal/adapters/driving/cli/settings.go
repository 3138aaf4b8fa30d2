package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

const settingsHint = "Run 'manualqa settings wizard' to fix configuration issues."

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, retrieval parameters, OCR and storage.

Use subcommands to configure specific settings or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure the embedding and LLM providers step by step.`,
	RunE:  runSettingsWizard,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long: `Configure the embedding provider used for ingest and retrieval.

Collections remember the model they were built with. Changing the model makes
existing collections unsearchable until they are ingested again.`,
	RunE: runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider that writes answers from the retrieved context.`,
	RunE:  runSettingsLLM,
}

var settingsRetrievalCmd = &cobra.Command{
	Use:   "retrieval",
	Short: "Set chunking and retrieval parameters",
	Long: `Set chunk size, over-fetch multiplier and default k.

Chunk size applies to manuals ingested afterwards. Over-fetch is the number of
candidates requested per selected chunk and is at least 2.`,
	RunE: runSettingsRetrieval,
}

var settingsOCRCmd = &cobra.Command{
	Use:   "ocr",
	Short: "Set OCR engine, languages and resolution",
	Long: `Set how pages without a text layer are recognised.

Engines:
  tesseract - tesseract and pdftoppm command line tools (default)
  gosseract - in-process libtesseract (requires a gosseract build)
  none      - skip OCR; scanned pages yield no text`,
	RunE: runSettingsOCR,
}

var settingsIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Select the vector index backend",
	Long: `Select where collections are stored.

Backends:
  flat     - one directory per collection under the data directory (default)
  pgvector - PostgreSQL with the pgvector extension (requires --database-url)`,
	RunE: runSettingsIndex,
}

var settingsCacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Configure the query embedding cache",
	Long:  `Cache query embeddings in Redis. An empty --redis-url disables the cache.`,
	RunE:  runSettingsCache,
}

var (
	flagChunkSize    int
	flagOverfetch    int
	flagTopK         int
	flagOCREngine    string
	flagOCRLanguages []string
	flagOCRDPI       int
	flagIndexBackend string
	flagDatabaseURL  string
	flagRedisURL     string
	flagCacheTTL     time.Duration
)

func init() {
	settingsRetrievalCmd.Flags().IntVar(&flagChunkSize, "chunk-size", 0, "tokens per chunk")
	settingsRetrievalCmd.Flags().IntVar(&flagOverfetch, "overfetch", 0, "vector candidates per selected chunk")
	settingsRetrievalCmd.Flags().IntVar(&flagTopK, "top-k", 0, "default number of context chunks")

	settingsOCRCmd.Flags().StringVar(&flagOCREngine, "engine", "", "OCR engine (tesseract, gosseract, none)")
	settingsOCRCmd.Flags().StringSliceVar(&flagOCRLanguages, "languages", nil, "tesseract language codes, e.g. kor,eng")
	settingsOCRCmd.Flags().IntVar(&flagOCRDPI, "dpi", 0, "page render resolution")

	settingsIndexCmd.Flags().StringVar(&flagIndexBackend, "backend", "", "index backend (flat, pgvector)")
	settingsIndexCmd.Flags().StringVar(&flagDatabaseURL, "database-url", "", "PostgreSQL connection string")

	settingsCacheCmd.Flags().StringVar(&flagRedisURL, "redis-url", "", "redis://host:port/db")
	settingsCacheCmd.Flags().DurationVar(&flagCacheTTL, "ttl", 0, "how long cached embeddings live")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsRetrievalCmd)
	settingsCmd.AddCommand(settingsOCRCmd)
	settingsCmd.AddCommand(settingsIndexCmd)
	settingsCmd.AddCommand(settingsCacheCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	// Embedding settings
	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.Provider == domain.AIProviderOllama {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	printAPIKey(cmd, settings.Embedding.Provider, settings.Embedding.APIKey)
	printStatus(cmd, settings.Embedding.IsConfigured())
	cmd.Println()

	// LLM settings
	cmd.Println("[LLM]")
	if settings.LLM.Provider == "" {
		cmd.Println("  Provider: (none, answers use the fallback text)")
	} else {
		cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
		cmd.Printf("  Model: %s\n", settings.LLM.Model)
		if settings.LLM.Provider.IsLocal() {
			cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
		}
		printAPIKey(cmd, settings.LLM.Provider, settings.LLM.APIKey)
	}
	cmd.Printf("  Max tokens: %d\n", settings.LLM.MaxTokens)
	printStatus(cmd, settings.LLM.IsConfigured())
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Chunk size: %d tokens\n", settings.Retrieval.ChunkSize)
	cmd.Printf("  Over-fetch: %dx\n", settings.Retrieval.Overfetch)
	cmd.Printf("  Top k: %d\n", settings.Retrieval.TopK)
	cmd.Println()

	cmd.Println("[Extraction]")
	cmd.Printf("  OCR engine: %s\n", settings.Extraction.OCREngine)
	if settings.Extraction.OCREngine != domain.OCREngineNone {
		cmd.Printf("  OCR languages: %s\n", strings.Join(settings.Extraction.OCRLanguages, "+"))
		cmd.Printf("  OCR DPI: %d\n", settings.Extraction.OCRDPI)
	}
	cmd.Println()

	cmd.Println("[Index]")
	cmd.Printf("  Backend: %s\n", settings.Index.Backend)
	if settings.Index.Backend == domain.IndexBackendPgvector {
		cmd.Printf("  Database URL: %s\n", maskDatabaseURL(settings.Index.DatabaseURL))
	}
	cmd.Println()

	cmd.Println("[Cache]")
	if settings.Cache.Enabled() {
		cmd.Printf("  Redis URL: %s\n", maskDatabaseURL(settings.Cache.RedisURL))
		cmd.Printf("  TTL: %s\n", settings.Cache.TTL)
	} else {
		cmd.Println("  Enabled: no")
	}
	cmd.Println()

	// Validation
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println(settingsHint)
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printAPIKey(cmd *cobra.Command, provider domain.AIProvider, key string) {
	if !provider.RequiresAPIKey() {
		return
	}
	if key != "" {
		cmd.Printf("  API Key: %s\n", maskAPIKey(key))
	} else {
		cmd.Printf("  API Key: (not set)\n")
	}
}

func printStatus(cmd *cobra.Command, configured bool) {
	status := "configured"
	if !configured {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("manualqa Settings Wizard")
	cmd.Println("========================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Configure Embedding Provider")
	cmd.Println("------------------------------------")
	cmd.Println("Manuals and questions are embedded with the same model.")
	cmd.Println()
	if err := configureEmbeddingProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Step 2: Configure LLM Provider")
	cmd.Println("------------------------------")
	cmd.Println("The LLM writes answers from the retrieved manual excerpts.")
	cmd.Print("Configure an LLM now? [Y/n]: ")
	if answer := strings.ToLower(readLine(reader)); answer == "n" || answer == "no" {
		cmd.Println("Skipped. Answers will use the fallback text until an LLM is configured.")
		cmd.Println()
	} else if err := configureLLMProvider(cmd, reader); err != nil {
		return err
	}

	// Final validation
	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}

	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureEmbeddingProvider(cmd, reader)
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureLLMProvider(cmd, reader)
}

func runSettingsRetrieval(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	retrieval := settings.Retrieval
	if cmd.Flags().Changed("chunk-size") {
		retrieval.ChunkSize = flagChunkSize
	}
	if cmd.Flags().Changed("overfetch") {
		retrieval.Overfetch = flagOverfetch
	}
	if cmd.Flags().Changed("top-k") {
		retrieval.TopK = flagTopK
	}

	if err := settingsService.SetRetrieval(retrieval); err != nil {
		return fmt.Errorf("failed to set retrieval settings: %w", err)
	}

	cmd.Printf("Retrieval: chunk size %d, over-fetch %dx, top k %d\n",
		retrieval.ChunkSize, retrieval.Overfetch, retrieval.TopK)
	return nil
}

func runSettingsOCR(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	extraction := settings.Extraction
	if cmd.Flags().Changed("engine") {
		extraction.OCREngine = domain.OCREngineType(flagOCREngine)
	}
	if cmd.Flags().Changed("languages") {
		extraction.OCRLanguages = flagOCRLanguages
	}
	if cmd.Flags().Changed("dpi") {
		extraction.OCRDPI = flagOCRDPI
	}

	if err := settingsService.SetExtraction(extraction); err != nil {
		return fmt.Errorf("failed to set OCR settings: %w", err)
	}

	cmd.Printf("OCR: %s (%s, %d DPI)\n",
		extraction.OCREngine, strings.Join(extraction.OCRLanguages, "+"), extraction.OCRDPI)
	return nil
}

func runSettingsIndex(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	index := settings.Index
	if cmd.Flags().Changed("backend") {
		index.Backend = domain.IndexBackend(flagIndexBackend)
	}
	if cmd.Flags().Changed("database-url") {
		index.DatabaseURL = flagDatabaseURL
	}

	if err := settingsService.SetIndex(index); err != nil {
		return fmt.Errorf("failed to set index settings: %w", err)
	}

	cmd.Printf("Index backend set to: %s\n", index.Backend)
	cmd.Println("Existing collections are not migrated between backends.")
	return nil
}

func runSettingsCache(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	if cmd.Flags().Changed("redis-url") {
		settings.Cache.RedisURL = flagRedisURL
	}
	if cmd.Flags().Changed("ttl") {
		if flagCacheTTL < 0 {
			return fmt.Errorf("%w: ttl must not be negative", domain.ErrInvalidInput)
		}
		settings.Cache.TTL = flagCacheTTL
	}

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save cache settings: %w", err)
	}

	if settings.Cache.Enabled() {
		cmd.Printf("Embedding cache enabled (TTL %s)\n", settings.Cache.TTL)
	} else {
		cmd.Println("Embedding cache disabled")
	}
	return nil
}

//nolint:dupl // Similar to configureLLMProvider but for embeddings - intentional for CLI flow clarity
func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultEmbeddingModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetEmbeddingProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

//nolint:dupl // Similar to configureEmbeddingProvider but for LLM - intentional for CLI flow clarity
func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select LLM Provider")
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultLLMModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetLLMProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n\n", selectedProvider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal, else one line from reader.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// maskDatabaseURL hides the password of a connection URL.
func maskDatabaseURL(raw string) string {
	at := strings.LastIndex(raw, "@")
	scheme := strings.Index(raw, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return raw
	}
	userinfo := raw[scheme+3 : at]
	user, _, hasPassword := strings.Cut(userinfo, ":")
	if !hasPassword {
		return raw
	}
	return raw[:scheme+3] + user + ":****" + raw[at:]
}
