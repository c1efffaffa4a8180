package driving

import (
	"context"

	"github.com/arkive-labs/docchat/internal/core/domain"
)

// Chatter answers user questions grounded in the ingested corpus.
type Chatter interface {
	// Answer runs the bounded retrieval loop for one user message and
	// returns the parsed answer with citations. The turn history is
	// discarded afterwards; separate messages share no memory.
	Answer(ctx context.Context, message string) (*domain.StructuredAnswer, error)
}
