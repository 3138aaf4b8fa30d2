package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/adapters/driving/tui"
)

// TUIConfig holds TUI-only dependencies that the other commands do not use.
type TUIConfig struct {
	// ReloadPrompts re-reads the answer prompt files. Optional.
	ReloadPrompts func()
}

// tuiConfig holds the current TUI configuration.
var tuiConfig *TUIConfig

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive chat",
	Long: `Launch the interactive terminal chat for manualqa.

Ask questions about your manuals and read the answers with their sources.
The scope selector limits retrieval to one manual or searches all of them.

Controls:
  Enter    - Ask / Select
  Tab      - Next scope
  Ctrl+R   - Reload answer prompts
  Esc      - Back / Cancel
  ?        - Toggle help
  Ctrl+C   - Quit`,
	RunE: runTUI,
}

// SetTUIConfig sets the configuration for the TUI command.
func SetTUIConfig(config *TUIConfig) {
	tuiConfig = config
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// Add panic recovery to get stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ports := &tui.Ports{
		Answer:     answerService,
		Collection: collectionService,
		Settings:   settingsService,
		TopK:       defaultTopK,
	}
	if tuiConfig != nil {
		ports.ReloadPrompts = tuiConfig.ReloadPrompts
	}

	// Create the TUI app
	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}

	if ctx := cmd.Context(); ctx != nil {
		app.WithContext(ctx)
	}

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
