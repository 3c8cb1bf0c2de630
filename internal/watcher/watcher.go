// Package watcher monitors the docs corpus for file changes and re-indexes
// changed documents incrementally.
package watcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fabricux/docsmcp/internal/docs"
	"github.com/fabricux/docsmcp/internal/embedding"
	"github.com/fabricux/docsmcp/internal/indexer"
	"github.com/fabricux/docsmcp/internal/store"
)

const debounceDelay = 2 * time.Second

// Watch watches docsPath for markdown changes and keeps the index current.
// It blocks until the watcher channel closes or an unrecoverable error occurs.
func Watch(st store.VectorStore, docsPath string, skipDirs []string, embedClient embedding.Provider) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	skip := make(map[string]bool, len(skipDirs))
	for _, d := range skipDirs {
		skip[d] = true
	}

	dirs := walkDirs(docsPath, skip)
	for _, d := range dirs {
		if err := w.Add(d); err != nil {
			fmt.Fprintf(os.Stderr, "  [WARN] Could not watch %s: %v\n", d, err)
		}
	}

	fmt.Fprintf(os.Stderr, "Watching %d directories in %s\n", len(dirs), docsPath)
	fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop.\n\n")

	// Debounce: collect changed files over a window before reindexing
	var (
		mu      sync.Mutex
		pending = make(map[string]bool)
		timer   *time.Timer
	)

	flush := func() {
		mu.Lock()
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		pending = make(map[string]bool)
		mu.Unlock()

		if len(paths) == 0 {
			return
		}

		fmt.Fprintf(os.Stderr, "  Reindexing %d changed file(s)...\n", len(paths))
		reindexFiles(st, paths, docsPath, embedClient)
	}

	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}

			if !strings.HasSuffix(event.Name, ".md") {
				// But watch newly created directories
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !skip[filepath.Base(event.Name)] {
						if err := w.Add(event.Name); err != nil {
							fmt.Fprintf(os.Stderr, "  [WARN] Could not watch %s: %v\n", event.Name, err)
						}
					}
				}
				continue
			}

			if event.Has(fsnotify.Rename) {
				// Rename events refer to the old path; drop it so stale paths
				// don't survive file moves.
				removeFromIndex(st, event.Name, docsPath)
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				mu.Lock()
				pending[event.Name] = true
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounceDelay, flush)
				mu.Unlock()
			}

			if event.Has(fsnotify.Remove) {
				removeFromIndex(st, event.Name, docsPath)
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "  [WARN] Watch error: %v\n", err)
		}
	}
}

func reindexFiles(st store.VectorStore, paths []string, docsPath string, embedClient embedding.Provider) {
	for _, fp := range paths {
		relPath := relativePath(fp, docsPath)
		info, statErr := os.Stat(fp)
		if statErr != nil {
			if os.IsNotExist(statErr) {
				// File disappeared before the debounce flush
				removeFromIndex(st, fp, docsPath)
			} else {
				fmt.Fprintf(os.Stderr, "  [ERROR] stat %s: %v\n", relPath, statErr)
			}
			continue
		}
		if info.IsDir() {
			continue
		}

		if err := indexer.IndexSingleFile(st, fp, docsPath, embedClient); err != nil {
			if docs.IsSkippable(err) {
				// The file is no longer indexable; drop its stale chunks.
				fmt.Fprintf(os.Stderr, "  [WARN] %s: %v\n", relPath, err)
				removeFromIndex(st, fp, docsPath)
			} else {
				fmt.Fprintf(os.Stderr, "  [ERROR] %s: %v\n", relPath, err)
			}
			continue
		}
		fmt.Fprintf(os.Stderr, "  Indexed: %s\n", relPath)
	}
}

func removeFromIndex(st store.VectorStore, absPath, docsPath string) {
	relPath := relativePath(absPath, docsPath)
	if err := st.DeleteBySource(relPath); err != nil {
		fmt.Fprintf(os.Stderr, "  [ERROR] remove %s: %v\n", relPath, err)
		return
	}
	fmt.Fprintf(os.Stderr, "  Removed from index: %s\n", relPath)
}

func walkDirs(root string, skip map[string]bool) []string {
	var dirs []string
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if skip[d.Name()] {
				return filepath.SkipDir
			}
			dirs = append(dirs, path)
		}
		return nil
	})
	return dirs
}

func relativePath(filePath, docsPath string) string {
	rel, err := filepath.Rel(docsPath, filePath)
	if err != nil {
		return filePath
	}
	return filepath.ToSlash(rel)
}
