package docs

import (
	"fmt"

	"github.com/fabricux/docsmcp/internal/store"
)

// NoResultsMessage is returned as the single output item when a query
// matched nothing. Callers always receive at least one renderable string.
const NoResultsMessage = "No relevant documents found for your query."

// Placeholders for metadata fields the store failed to return. Partial
// metadata degrades to these instead of aborting formatting.
const (
	unknownTitle   = "Unknown Title"
	unknownPath    = "Unknown Path"
	unknownSection = "Unknown Section"
	missingText    = "No text content found."
)

// FormatMatches renders nearest-neighbor matches into display strings, one
// per match, preserving the store's descending-similarity order.
func FormatMatches(matches []store.QueryMatch) []string {
	if len(matches) == 0 {
		return []string{NoResultsMessage}
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, formatMatch(m))
	}
	return out
}

func formatMatch(m store.QueryMatch) string {
	title := m.Metadata.Title
	if title == "" {
		title = unknownTitle
	}
	path := m.Metadata.FilePath
	if path == "" {
		path = unknownPath
	}
	section := m.Metadata.Section
	if section == "" {
		section = unknownSection
	}
	text := m.Metadata.Text
	if text == "" {
		text = missingText
	}

	return fmt.Sprintf("Title: %s\nSource: %s\nSection: %s\nSimilarity: %.4f\n\n%s",
		title, path, section, m.Score, text)
}
