// Package tiktoken provides a subword tokenizer adapter backed by the
// tiktoken BPE encodings.
package tiktoken

import (
	"fmt"

	tiktokengo "github.com/pkoukk/tiktoken-go"

	"github.com/arkive-labs/docchat/internal/core/ports/driven"
)

// Ensure Tokenizer implements the interface.
var _ driven.Tokenizer = (*Tokenizer)(nil)

// DefaultEncoding is the BPE encoding used for chunk windowing.
const DefaultEncoding = "cl100k_base"

// Tokenizer wraps a tiktoken encoding.
type Tokenizer struct {
	enc *tiktokengo.Tiktoken
}

// New creates a tokenizer for the given encoding name. An empty name
// selects the default encoding.
func New(encoding string) (*Tokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}

	enc, err := tiktokengo.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("tiktoken: load encoding %q: %w", encoding, err)
	}

	return &Tokenizer{enc: enc}, nil
}

// Encode converts text to token ids.
func (t *Tokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

// Decode converts token ids back to text.
func (t *Tokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}
