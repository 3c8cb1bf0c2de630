// Package indexer walks the docs corpus, runs the chunking pipeline, and
// rebuilds the vector index.
package indexer

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fabricux/docsmcp/internal/config"
	"github.com/fabricux/docsmcp/internal/docs"
	"github.com/fabricux/docsmcp/internal/embedding"
	"github.com/fabricux/docsmcp/internal/store"
)

// Stats holds the outcome of one indexing run.
type Stats struct {
	TotalFiles     int           `json:"total_files"`
	IndexedFiles   int           `json:"indexed_files"`
	SkippedFiles   int           `json:"skipped_files"`
	ChunksProduced int           `json:"chunks_produced"`
	ChunksUpserted int           `json:"chunks_upserted"`
	Cleared        int           `json:"cleared"`
	Failures       []FileFailure `json:"failures,omitempty"`
	Timestamp      string        `json:"timestamp"`
}

// FileFailure records a per-file error. Failed files contribute zero chunks;
// the run continues.
type FileFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// ProgressFunc is called as files finish processing.
type ProgressFunc func(current, total int, path string)

// fileResult carries one file's pipeline output back to the collector.
type fileResult struct {
	path    string
	records []store.Record
	err     error
}

// Reindex enumerates markdown files under docsPath, clears previously stored
// chunks, processes every file through the chunking pipeline, and upserts the
// resulting records in batches. One bad file never aborts the run.
func Reindex(st store.VectorStore, docsPath string, skipDirs []string, embedClient embedding.Provider, progress ProgressFunc) (*Stats, error) {
	files := walkDocs(docsPath, skipDirs)
	stats := &Stats{
		TotalFiles: len(files),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	cleared, err := clearIndex(st)
	if err != nil {
		return nil, fmt.Errorf("clear index: %w", err)
	}
	stats.Cleared = cleared

	// Process files with a small worker pool. Files are independent; section
	// embeddings within one file stay in source order inside ProcessFile.
	const numWorkers = 4
	workCh := make(chan string, len(files))
	resultCh := make(chan fileResult, len(files))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for fp := range workCh {
				resultCh <- processPath(fp, docsPath, embedClient)
			}
		}()
	}
	for _, fp := range files {
		workCh <- fp
	}
	close(workCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var all []store.Record
	processed := 0
	for res := range resultCh {
		processed++
		switch {
		case res.err != nil && docs.IsSkippable(res.err):
			fmt.Fprintf(os.Stderr, "  [WARN] %s: %v\n", res.path, res.err)
			stats.SkippedFiles++
		case res.err != nil:
			fmt.Fprintf(os.Stderr, "  [ERROR] %s: %v\n", res.path, res.err)
			stats.Failures = append(stats.Failures, FileFailure{Path: res.path, Error: res.err.Error()})
		default:
			stats.IndexedFiles++
			stats.ChunksProduced += len(res.records)
			all = append(all, res.records...)
		}
		if progress != nil {
			progress(processed, stats.TotalFiles, res.path)
		}
	}
	sort.Slice(stats.Failures, func(i, j int) bool {
		return stats.Failures[i].Path < stats.Failures[j].Path
	})

	for start := 0; start < len(all); start += config.UpsertBatchSize {
		end := start + config.UpsertBatchSize
		if end > len(all) {
			end = len(all)
		}
		if err := st.Upsert(all[start:end]); err != nil {
			return stats, fmt.Errorf("upsert batch %d-%d: %w", start, end, err)
		}
		stats.ChunksUpserted += end - start
	}

	return stats, nil
}

// clearIndex removes every previously stored chunk: count, list ids, delete.
// Stale chunks from deleted or renamed sections must never survive a re-index,
// so the whole index is rebuilt rather than diffed.
func clearIndex(st store.VectorStore) (int, error) {
	count, err := st.Count()
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	if count == 0 {
		return 0, nil
	}
	ids, err := st.ListIDs(count)
	if err != nil {
		return 0, fmt.Errorf("list ids: %w", err)
	}
	if err := st.Delete(ids); err != nil {
		return 0, fmt.Errorf("delete: %w", err)
	}
	return len(ids), nil
}

// IndexSingleFile re-indexes one file: old chunks for its path are removed,
// new ones upserted. Used by the watcher to avoid full rebuilds.
func IndexSingleFile(st store.VectorStore, filePath, docsPath string, embedClient embedding.Provider) error {
	res := processPath(filePath, docsPath, embedClient)
	if res.err != nil {
		return res.err
	}
	if err := st.DeleteBySource(res.path); err != nil {
		return fmt.Errorf("delete old chunks: %w", err)
	}
	return st.Upsert(res.records)
}

func processPath(filePath, docsPath string, embedClient embedding.Provider) fileResult {
	relPath := relativePath(filePath, docsPath)

	content, err := os.ReadFile(filePath)
	if err != nil {
		return fileResult{path: relPath, err: fmt.Errorf("read file: %w", err)}
	}

	records, err := docs.ProcessFile(relPath, string(content), embedClient.EmbedDocument)
	return fileResult{path: relPath, records: records, err: err}
}

// SaveStats writes run statistics next to the database for the stats command.
func SaveStats(stats *Stats, path string) {
	os.MkdirAll(filepath.Dir(path), 0o755)
	data, _ := json.MarshalIndent(stats, "", "  ")
	os.WriteFile(path, data, 0o644)
}

// LoadStats reads the last saved index stats, falling back to live counts.
func LoadStats(st store.VectorStore, path string) map[string]interface{} {
	data, err := os.ReadFile(path)
	if err != nil {
		count, cerr := st.Count()
		if cerr != nil {
			return map[string]interface{}{
				"status": "no index found",
				"hint":   "run 'docsmcp index' first",
			}
		}
		return map[string]interface{}{
			"chunks_in_index": count,
			"status":          "live query (no saved stats)",
		}
	}

	var result map[string]interface{}
	json.Unmarshal(data, &result)
	if count, err := st.Count(); err == nil {
		result["chunks_in_index"] = count
	}
	return result
}

// WalkDocs returns all markdown file paths under root, respecting skip dirs.
func WalkDocs(root string, skipDirs []string) []string {
	return walkDocs(root, skipDirs)
}

func walkDocs(root string, skipDirs []string) []string {
	skip := make(map[string]bool, len(skipDirs))
	for _, d := range skipDirs {
		skip[d] = true
	}

	var files []string
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if skip[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(d.Name(), ".md") {
			files = append(files, path)
		}
		return nil
	})
	return files
}

func relativePath(filePath, root string) string {
	rel, err := filepath.Rel(root, filePath)
	if err != nil {
		return filePath
	}
	return filepath.ToSlash(rel)
}
