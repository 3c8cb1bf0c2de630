package docs

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fabricux/docsmcp/internal/store"
)

// sanitizeFallback is used when a section name sanitizes down to nothing.
const sanitizeFallback = "content"

var nonSlugRun = regexp.MustCompile(`[^a-z0-9-]+`)

// SanitizeSectionName lower-cases a section name, collapses every run of
// characters outside [a-z0-9-] into a single hyphen, and trims leading and
// trailing hyphens. An empty result falls back to "content".
func SanitizeSectionName(name string) string {
	s := strings.ToLower(name)
	s = nonSlugRun.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return sanitizeFallback
	}
	return s
}

// ChunkID derives the stable chunk identifier for a section of a document.
// Re-indexing an unchanged document yields identical ids. Two sections whose
// names sanitize identically collide; the later upsert wins.
func ChunkID(docID, sectionName string) string {
	return fmt.Sprintf("%s-section-%s", docID, SanitizeSectionName(sectionName))
}

// BuildChunk assembles the retrievable unit for one enriched section.
// Returns false when the section's embed text is empty and no chunk should
// be stored.
func BuildChunk(meta Meta, sec Section, filePath string, vector []float32) (store.Record, bool) {
	if strings.TrimSpace(sec.EmbedText) == "" {
		return store.Record{}, false
	}

	id := ChunkID(meta.ID, sec.Name)
	return store.Record{
		ID:     id,
		Vector: vector,
		Metadata: store.Metadata{
			DocID:       meta.ID,
			Title:       meta.Title,
			Area:        meta.Area,
			Tags:        meta.Tags,
			LastUpdated: meta.LastUpdated,
			FilePath:    filePath,
			ChunkID:     id,
			Section:     sec.Heading,
			Text:        sec.Text,
		},
	}, true
}
