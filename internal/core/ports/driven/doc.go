// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Loader: Extracts RawDocuments from one file format
//   - LoaderRegistry: Dispatches a file to its format loader
//   - EmbeddingService: Generates vector embeddings
//   - VectorStore: Tagged vector persistence and similarity search
//   - HistoryStore: Per-session conversation persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Language model operations. Without it, chat is disabled.
//   - EventPublisher: Upload lifecycle events. Without it, events are dropped.
//   - PromptStore: User-editable prompts. Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or loader package
package driven
