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
//   - Tokenizer: Subword tokenisation for chunk windowing
//   - EmbeddingService: Generates vector embeddings
//   - VectorIndex: Vector storage, similarity query, delete-by-source
//   - LLMService: Language model round trips with tool support
//   - DocumentStore: Document metadata persistence
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
