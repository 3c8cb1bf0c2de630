package indexer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fabricux/docsmcp/internal/store"
)

// fakeStore is an in-memory VectorStore for exercising index runs.
type fakeStore struct {
	records    map[string]store.Record
	order      []string
	upserts    int // batches, not records
	upsertErr  error
	deletedIDs []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]store.Record{}}
}

func (f *fakeStore) Upsert(records []store.Record) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts++
	for _, r := range records {
		if _, ok := f.records[r.ID]; !ok {
			f.order = append(f.order, r.ID)
		}
		f.records[r.ID] = r
	}
	return nil
}

func (f *fakeStore) Query(vector []float32, topK int) ([]store.QueryMatch, error) {
	return nil, nil
}

func (f *fakeStore) Count() (int, error) { return len(f.records), nil }

func (f *fakeStore) ListIDs(limit int) ([]string, error) {
	ids := make([]string, 0, len(f.records))
	for _, id := range f.order {
		if _, ok := f.records[id]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeStore) Delete(ids []string) error {
	for _, id := range ids {
		delete(f.records, id)
		f.deletedIDs = append(f.deletedIDs, id)
	}
	return nil
}

func (f *fakeStore) DeleteBySource(filePath string) error {
	for id, r := range f.records {
		if r.Metadata.FilePath == filePath {
			delete(f.records, id)
			f.deletedIDs = append(f.deletedIDs, id)
		}
	}
	return nil
}

// fakeProvider returns a fixed vector, or an error for texts containing a
// trigger substring.
type fakeProvider struct {
	failOn string
}

func (p *fakeProvider) embed(text string) ([]float32, error) {
	if p.failOn != "" && strings.Contains(text, p.failOn) {
		return nil, errors.New("embedding backend unavailable")
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (p *fakeProvider) EmbedDocument(text string) ([]float32, error) { return p.embed(text) }
func (p *fakeProvider) EmbedQuery(text string) ([]float32, error)    { return p.embed(text) }
func (p *fakeProvider) Name() string                                 { return "fake" }
func (p *fakeProvider) Model() string                                { return "fake-model" }
func (p *fakeProvider) Dimensions() int                              { return 3 }

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const goodDoc = `---
id: guide
title: Guide
area: docs
---
<!-- BEGIN-SECTION: intro -->
## Getting started

Install the thing.
<!-- END-SECTION: intro -->
`

func TestReindexHappyPath(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "guide.md", goodDoc)
	writeDoc(t, dir, "plain.md", "---\nid: plain\ntitle: Plain\narea: docs\n---\nNo markers here.\n")

	st := newFakeStore()
	stats, err := Reindex(st, dir, nil, &fakeProvider{}, nil)
	if err != nil {
		t.Fatalf("reindex: %v", err)
	}

	if stats.TotalFiles != 2 || stats.IndexedFiles != 2 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.ChunksProduced != 2 || stats.ChunksUpserted != 2 {
		t.Errorf("expected 2 chunks, got %+v", stats)
	}
	if _, ok := st.records["guide-section-intro"]; !ok {
		t.Error("expected guide-section-intro in store")
	}
	if _, ok := st.records["plain-section-default-content"]; !ok {
		t.Error("expected fallback chunk for unmarked doc")
	}
}

func TestReindexClearsExistingChunks(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "guide.md", goodDoc)

	st := newFakeStore()
	stale := store.Record{ID: "old-section-gone", Vector: []float32{1, 1, 1}}
	stale.Metadata.ChunkID = stale.ID
	if err := st.Upsert([]store.Record{stale}); err != nil {
		t.Fatal(err)
	}

	stats, err := Reindex(st, dir, nil, &fakeProvider{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Cleared != 1 {
		t.Errorf("expected 1 cleared chunk, got %d", stats.Cleared)
	}
	if _, ok := st.records["old-section-gone"]; ok {
		t.Error("stale chunk survived the rebuild")
	}
}

func TestReindexSkipsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "good.md", goodDoc)
	writeDoc(t, dir, "nofm.md", "Just a body, no frontmatter.\n")
	writeDoc(t, dir, "partial.md", "---\nid: partial\n---\nMissing title and area.\n")

	st := newFakeStore()
	stats, err := Reindex(st, dir, nil, &fakeProvider{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if stats.SkippedFiles != 2 {
		t.Errorf("expected 2 skipped files, got %d", stats.SkippedFiles)
	}
	if stats.IndexedFiles != 1 {
		t.Errorf("expected 1 indexed file, got %d", stats.IndexedFiles)
	}
	if len(stats.Failures) != 0 {
		t.Errorf("skips must not count as failures: %+v", stats.Failures)
	}
}

func TestReindexEmbedFailureIsolatedPerFile(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "good.md", goodDoc)
	writeDoc(t, dir, "bad.md", "---\nid: bad\ntitle: Bad\narea: docs\n---\nPOISON text.\n")

	st := newFakeStore()
	stats, err := Reindex(st, dir, nil, &fakeProvider{failOn: "POISON"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	if stats.IndexedFiles != 1 {
		t.Errorf("expected 1 indexed file, got %d", stats.IndexedFiles)
	}
	if len(stats.Failures) != 1 || stats.Failures[0].Path != "bad.md" {
		t.Errorf("expected one failure for bad.md, got %+v", stats.Failures)
	}
	for id := range st.records {
		if strings.HasPrefix(id, "bad-") {
			t.Errorf("failed file contributed chunk %q", id)
		}
	}
}

func TestReindexProgressCallback(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.md", goodDoc)
	writeDoc(t, dir, "b.md", goodDoc)

	var calls int
	_, err := Reindex(newFakeStore(), dir, nil, &fakeProvider{}, func(current, total int, path string) {
		calls++
		if total != 2 {
			t.Errorf("expected total 2, got %d", total)
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 2 {
		t.Errorf("expected 2 progress calls, got %d", calls)
	}
}

func TestWalkDocsSkipDirs(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "keep.md", "x")
	writeDoc(t, dir, filepath.Join("node_modules", "dep.md"), "x")
	writeDoc(t, dir, filepath.Join("nested", "deep.md"), "x")
	writeDoc(t, dir, "notes.txt", "x")

	files := WalkDocs(dir, []string{"node_modules"})
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %v", files)
	}
	for _, f := range files {
		if strings.Contains(f, "node_modules") {
			t.Errorf("skip dir not honored: %s", f)
		}
		if strings.HasSuffix(f, ".txt") {
			t.Errorf("non-markdown file picked up: %s", f)
		}
	}
}

func TestIndexSingleFileReplacesOldChunks(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "guide.md", goodDoc)

	st := newFakeStore()
	fp := filepath.Join(dir, "guide.md")
	if err := IndexSingleFile(st, fp, dir, &fakeProvider{}); err != nil {
		t.Fatal(err)
	}
	if len(st.records) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(st.records))
	}

	// Rewrite with a different section name; the old chunk must go.
	writeDoc(t, dir, "guide.md", strings.ReplaceAll(goodDoc, "intro", "setup"))
	if err := IndexSingleFile(st, fp, dir, &fakeProvider{}); err != nil {
		t.Fatal(err)
	}
	if _, ok := st.records["guide-section-intro"]; ok {
		t.Error("old chunk survived single-file reindex")
	}
	if _, ok := st.records["guide-section-setup"]; !ok {
		t.Error("expected new chunk after rewrite")
	}
}

func TestSaveAndLoadStats(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats", "index_stats.json")
	SaveStats(&Stats{TotalFiles: 3, IndexedFiles: 2, ChunksUpserted: 7}, path)

	st := newFakeStore()
	result := LoadStats(st, path)
	if result["total_files"] != float64(3) {
		t.Errorf("expected total_files 3, got %v", result["total_files"])
	}
	if result["chunks_in_index"] != 0 {
		t.Errorf("expected live chunk count 0, got %v", result["chunks_in_index"])
	}
}

func TestLoadStatsFallsBackToLiveCount(t *testing.T) {
	st := newFakeStore()
	st.records["x"] = store.Record{ID: "x"}
	st.order = append(st.order, "x")

	result := LoadStats(st, filepath.Join(t.TempDir(), "missing.json"))
	if result["chunks_in_index"] != 1 {
		t.Errorf("expected chunk count 1, got %v", result["chunks_in_index"])
	}
}
