// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem.
//
// Adapters:
//   - ConfigStore: TOML configuration with SHEETRAG_* environment overrides
//   - PromptStore: user-editable chat prompts with embedded defaults
package file
