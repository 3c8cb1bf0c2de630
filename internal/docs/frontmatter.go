// Package docs implements the document processing core: frontmatter
// extraction, marker-based section splitting, heading enrichment, chunk
// record building, and query result formatting.
package docs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Skippable document errors. A file that fails with one of these contributes
// zero chunks; the indexing run continues with the next file.
var (
	ErrNoFrontmatter = errors.New("no frontmatter block found")
	ErrNoSections    = errors.New("no content sections found")
)

// MissingFieldsError reports which required frontmatter fields are absent.
type MissingFieldsError struct {
	Fields error
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required frontmatter: %v", e.Fields)
}

// Meta holds a document's parsed frontmatter. Tags may be written either as
// a YAML sequence or as a comma-separated scalar; both normalize to a slice
// of trimmed, non-empty strings. LastUpdated is empty when the document
// carries no date, and that absence is preserved all the way to the store.
type Meta struct {
	ID          string
	Title       string
	Area        string
	Tags        []string
	LastUpdated string
}

// rawMeta is the YAML shape before tag normalization.
type rawMeta struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Area        string `yaml:"area"`
	Tags        any    `yaml:"tags"`
	LastUpdated string `yaml:"lastUpdated"`
}

// Validate checks the required fields and names every missing one.
func (m Meta) Validate() error {
	err := validation.ValidateStruct(&m,
		validation.Field(&m.ID, validation.Required),
		validation.Field(&m.Title, validation.Required),
		validation.Field(&m.Area, validation.Required),
	)
	if err != nil {
		return &MissingFieldsError{Fields: err}
	}
	return nil
}

// ParseFrontmatter splits raw document text into parsed metadata and the
// remaining body, returning the byte offset of the body in the original
// text. The body is the literal tail of the input, never a re-serialized
// document, so section marker comments survive intact.
//
// A document without a recognizable frontmatter block fails with
// ErrNoFrontmatter; an unparseable block fails with a wrapped parse error.
// Required field validation is the caller's job (Meta.Validate).
func ParseFrontmatter(content string) (Meta, string, int, error) {
	var raw rawMeta
	rest, err := frontmatter.MustParse(strings.NewReader(content), &raw)
	if err != nil {
		if errors.Is(err, frontmatter.ErrNotFound) {
			return Meta{}, "", 0, ErrNoFrontmatter
		}
		return Meta{}, "", 0, fmt.Errorf("parse frontmatter: %w", err)
	}

	body := string(rest)
	offset := len(content) - len(body)

	meta := Meta{
		ID:          strings.TrimSpace(raw.ID),
		Title:       strings.TrimSpace(raw.Title),
		Area:        strings.TrimSpace(raw.Area),
		Tags:        NormalizeTags(raw.Tags),
		LastUpdated: strings.TrimSpace(raw.LastUpdated),
	}
	return meta, body, offset, nil
}

// NormalizeTags converts a frontmatter tags value into a slice of trimmed,
// non-empty strings. Accepted shapes: a comma-separated string, a []string,
// or a YAML sequence ([]any). Anything else yields nil.
func NormalizeTags(v any) []string {
	var parts []string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		parts = strings.Split(t, ",")
	case []string:
		parts = t
	case []any:
		for _, item := range t {
			parts = append(parts, fmt.Sprint(item))
		}
	default:
		return nil
	}

	var tags []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
