package docs

import (
	"regexp"
	"strings"
)

// DefaultSectionName is the sentinel section name for documents that contain
// no marker pairs: the whole body is indexed as one section.
const DefaultSectionName = "default content"

// Section is a contiguous named span of a document body. Text is the literal
// content shown to users; EmbedText (heading + text) exists only for the
// embedding computation and is never displayed.
type Section struct {
	Name      string
	Text      string
	Heading   string
	EmbedText string
}

// sectionMarker matches both BEGIN-SECTION and END-SECTION comment markers,
// tolerating whitespace around the name.
var sectionMarker = regexp.MustCompile(`<!--\s*(BEGIN|END)-SECTION:\s*(.*?)\s*-->`)

// h2Line matches a level-2 markdown heading.
var h2Line = regexp.MustCompile(`(?m)^##\s+(.+)$`)

// trailingParen strips a trailing parenthetical annotation from a heading.
var trailingParen = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

// SplitSections partitions a document body into named sections delimited by
// BEGIN-SECTION/END-SECTION comment pairs. Pairs must match by name;
// BEGIN(Foo)...END(Bar) never pairs. Free text before a pair folds into that
// pair's section, free text after the last pair folds into the last section.
// A body without any matched pair becomes a single section named
// DefaultSectionName. Sections whose text ends up empty are dropped; the
// function never fails on malformed marker text.
func SplitSections(body string) []Section {
	markers := sectionMarker.FindAllStringSubmatchIndex(body, -1)

	type marker struct {
		start, end int
		kind       string
		name       string
	}
	ms := make([]marker, 0, len(markers))
	for _, loc := range markers {
		ms = append(ms, marker{
			start: loc[0],
			end:   loc[1],
			kind:  body[loc[2]:loc[3]],
			name:  body[loc[4]:loc[5]],
		})
	}

	var sections []Section
	cursor := 0
	for i := 0; i < len(ms); i++ {
		if ms[i].kind != "BEGIN" {
			continue
		}
		// Find the matching END by name
		matched := -1
		for j := i + 1; j < len(ms); j++ {
			if ms[j].kind == "END" && ms[j].name == ms[i].name {
				matched = j
				break
			}
		}
		if matched < 0 {
			continue
		}

		text := strings.TrimSpace(body[ms[i].end:ms[matched].start])
		preceding := strings.TrimSpace(body[cursor:ms[i].start])
		text = joinBlocks(preceding, text)

		sections = append(sections, Section{Name: ms[i].name, Text: text})
		cursor = ms[matched].end
		i = matched
	}

	if len(sections) == 0 {
		// No matched pairs anywhere: whole body is one section
		if whole := strings.TrimSpace(body); whole != "" {
			return []Section{enrich(Section{Name: DefaultSectionName, Text: whole})}
		}
		return nil
	}

	if trailing := strings.TrimSpace(body[cursor:]); trailing != "" {
		last := &sections[len(sections)-1]
		last.Text = joinBlocks(last.Text, trailing)
	}

	// Drop sections that captured nothing
	kept := sections[:0]
	for _, s := range sections {
		if s.Text != "" {
			kept = append(kept, enrich(s))
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

// enrich derives the section heading and embed text. The heading is the
// first H2 line inside the text with any trailing parenthetical removed,
// falling back to the marker name. Absence of a heading is a normal document
// shape, not an error.
func enrich(s Section) Section {
	s.Heading = s.Name
	if m := h2Line.FindStringSubmatch(s.Text); m != nil {
		heading := strings.TrimSpace(trailingParen.ReplaceAllString(m[1], ""))
		if heading != "" {
			s.Heading = heading
		}
	}
	s.EmbedText = joinBlocks(s.Heading, s.Text)
	return s
}

// joinBlocks concatenates two text blocks with a blank line, skipping
// whichever is empty.
func joinBlocks(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "\n\n" + b
	}
}
