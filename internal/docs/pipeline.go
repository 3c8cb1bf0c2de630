package docs

import (
	"errors"
	"fmt"

	"github.com/fabricux/docsmcp/internal/store"
)

// EmbedFunc computes an embedding vector for one text. The indexer passes
// the provider's document embedding; tests pass fakes.
type EmbedFunc func(text string) ([]float32, error)

// ProcessFile runs the full per-document pipeline: frontmatter extraction,
// required-field validation, section splitting, enrichment, embedding, and
// chunk record building. filePath is the path recorded in chunk metadata.
//
// Skippable document shapes (ErrNoFrontmatter, *MissingFieldsError,
// ErrNoSections) and embedding failures all return an error and zero
// records; the caller decides whether to continue the run. Sections are
// embedded in source order.
func ProcessFile(filePath, content string, embed EmbedFunc) ([]store.Record, error) {
	meta, body, _, err := ParseFrontmatter(content)
	if err != nil {
		return nil, err
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	sections := SplitSections(body)
	if len(sections) == 0 {
		return nil, ErrNoSections
	}

	var records []store.Record
	for _, sec := range sections {
		vec, err := embed(sec.EmbedText)
		if err != nil {
			// One failed embedding voids the whole file: partial documents
			// must never be indexed.
			return nil, fmt.Errorf("embed section %q: %w", sec.Name, err)
		}
		if rec, ok := BuildChunk(meta, sec, filePath, vec); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// IsSkippable reports whether err is a normal skip-this-document condition
// rather than a transient provider failure.
func IsSkippable(err error) bool {
	if err == nil {
		return false
	}
	var mf *MissingFieldsError
	if errors.Is(err, ErrNoFrontmatter) || errors.Is(err, ErrNoSections) {
		return true
	}
	return errors.As(err, &mf)
}
