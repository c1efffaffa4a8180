// Package domain defines the core business entities for docchat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A registered source document and its processing status
//   - Chunk: A bounded, page-tracked slice of document text
//   - IndexEntry: A chunk vector plus metadata as stored in the index
//   - Match: A similarity search hit returned to callers
//   - StructuredAnswer: A grounded answer with its citations
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
