// Package answer parses the model's marker-delimited output contract:
// an [ANSWER]...[/ANSWER] block, a [CITED_SOURCES]...[/CITED_SOURCES]
// block of quoted citation lines, and an optional [COMPLETED] marker.
// Handling for malformed model output lives here rather than in the
// orchestrator.
package answer

import (
	"regexp"
	"strings"

	"github.com/arkive-labs/docchat/internal/core/domain"
)

// Fallback strings when the model output yields no usable answer.
const (
	// NotFoundMessage is returned when the model indicated the answer
	// is not in the documents.
	NotFoundMessage = "The answer was not found in the provided documents."

	// ApologyMessage is the last-resort answer text.
	ApologyMessage = "Sorry, I could not produce an answer from the provided documents. Please try rephrasing your question."
)

// minAnswerLength is the threshold below which extracted text is treated
// as unusable and the fallback chain kicks in.
const minAnswerLength = 5

// Markers are matched case-insensitively.
var (
	answerOpen   = regexp.MustCompile(`(?i)\[ANSWER\]`)
	answerClose  = regexp.MustCompile(`(?i)\[/ANSWER\]`)
	sourcesOpen  = regexp.MustCompile(`(?i)\[CITED_SOURCES\]`)
	sourcesClose = regexp.MustCompile(`(?i)\[/CITED_SOURCES\]`)
	completed    = regexp.MustCompile(`(?i)\[COMPLETED\]`)

	allMarkers = []*regexp.Regexp{answerOpen, answerClose, sourcesOpen, sourcesClose, completed}

	citationSource  = regexp.MustCompile(`(?i)Source:\s*"([^"]*)"`)
	citationPage    = regexp.MustCompile(`(?i)Page:\s*"([^"]*)"`)
	citationSnippet = regexp.MustCompile(`(?i)Snippet:\s*"([^"]*)"`)
)

// HasAnswerBlock reports whether raw contains a complete
// [ANSWER]...[/ANSWER] block.
func HasAnswerBlock(raw string) bool {
	open := answerOpen.FindStringIndex(raw)
	if open == nil {
		return false
	}
	close := answerClose.FindStringIndex(raw[open[1]:])
	return close != nil
}

// HasCompleted reports whether raw carries the [COMPLETED] marker.
func HasCompleted(raw string) bool {
	return completed.MatchString(raw)
}

// Parse extracts the answer text and citation list from raw model
// output. It never fails: malformed input degrades through the fallback
// chain. Duplicate citations are kept; deduplication is the caller's
// decision.
func Parse(raw string) (string, []domain.Citation) {
	return extractAnswer(raw), extractCitations(raw)
}

// extractAnswer applies the answer grammar to raw.
func extractAnswer(raw string) string {
	var text string

	if open := answerOpen.FindStringIndex(raw); open != nil {
		rest := raw[open[1]:]
		if close := answerClose.FindStringIndex(rest); close != nil {
			text = rest[:close[0]]
		} else {
			// Missing close tag: run to the citations block or the end.
			text = rest
			if src := sourcesOpen.FindStringIndex(rest); src != nil {
				text = rest[:src[0]]
			}
		}
	} else {
		// No [ANSWER] block: take everything before the citations.
		text = raw
		if src := sourcesOpen.FindStringIndex(raw); src != nil {
			text = raw[:src[0]]
		}
	}

	text = completed.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, `\n`, "\n")
	text = strings.TrimSpace(text)

	if len(text) >= minAnswerLength {
		return text
	}

	// Fallback chain for empty or implausibly short answers.
	if strings.Contains(strings.ToLower(raw), "not found") {
		return NotFoundMessage
	}
	stripped := stripMarkers(raw)
	if len(stripped) >= minAnswerLength {
		return stripped
	}
	return ApologyMessage
}

// extractCitations parses the [CITED_SOURCES] block line by line.
func extractCitations(raw string) []domain.Citation {
	open := sourcesOpen.FindStringIndex(raw)
	if open == nil {
		return nil
	}

	block := raw[open[1]:]
	if close := sourcesClose.FindStringIndex(block); close != nil {
		block = block[:close[0]]
	}

	var citations []domain.Citation
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") {
			continue
		}

		source := firstGroup(citationSource, line)
		if source == "" {
			// A line without a source cites nothing.
			continue
		}

		name := source
		if page := firstGroup(citationPage, line); page != "" {
			name = source + " (Page: " + page + ")"
		}

		citations = append(citations, domain.Citation{
			Name:    name,
			Snippet: firstGroup(citationSnippet, line),
		})
	}

	return citations
}

// stripMarkers removes every known marker from raw and trims the result.
func stripMarkers(raw string) string {
	for _, m := range allMarkers {
		raw = m.ReplaceAllString(raw, "")
	}
	return strings.TrimSpace(raw)
}

// firstGroup returns the first capture group of re in s, or "".
func firstGroup(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}
