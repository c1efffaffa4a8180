package driven

// Tokenizer converts text to and from subword token ids.
// Chunk windows are measured in these tokens, so the same tokenizer
// must be used for chunking and for any token budgeting.
type Tokenizer interface {
	// Encode converts text to token ids.
	Encode(text string) []int

	// Decode converts token ids back to text.
	Decode(tokens []int) string
}
