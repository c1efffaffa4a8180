package domain

// Citation names a source document backing part of an answer.
type Citation struct {
	// Name is the display name, "{source} (Page: {page})" when a page
	// is known, else just the source name.
	Name string

	// Snippet is the quoted supporting text, may be empty.
	Snippet string
}

// StructuredAnswer is the final result of one orchestrated query:
// the grounded answer text plus its citations, deduplicated by
// display name in first-seen order.
type StructuredAnswer struct {
	AnswerText string
	Sources    []Citation
}
