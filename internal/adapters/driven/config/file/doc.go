// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML configuration at <home>/config.toml
//   - PromptStore: editable answer prompts under <home>/prompts
//
// The home directory is ~/.manualqa unless MANUALQA_HOME is set.
package file
