// Package store provides the SQLite + sqlite-vec vector index for doc chunks.
package store

// Metadata is the per-chunk metadata persisted alongside the embedding.
// LastUpdated is empty when the source frontmatter carried no date; it is
// stored as NULL and omitted from JSON, never written as an empty string.
type Metadata struct {
	DocID       string   `json:"doc_id"`
	Title       string   `json:"title"`
	Area        string   `json:"area"`
	Tags        []string `json:"tags,omitempty"`
	LastUpdated string   `json:"last_updated,omitempty"`
	FilePath    string   `json:"file_path"`
	ChunkID     string   `json:"chunk_id"`
	Section     string   `json:"section"`
	Text        string   `json:"text"`
}

// Record is one upsertable chunk: a stable id, its embedding, and metadata.
type Record struct {
	ID       string
	Vector   []float32
	Metadata Metadata
}

// QueryMatch is a single nearest-neighbor result. Score is a similarity
// measure where higher means more relevant.
type QueryMatch struct {
	ID       string   `json:"id"`
	Score    float64  `json:"score"`
	Metadata Metadata `json:"metadata"`
}

// VectorStore is the index contract used by the indexer and the query path.
// Implementations must make Upsert replace-by-id.
type VectorStore interface {
	Upsert(records []Record) error
	Query(vector []float32, topK int) ([]QueryMatch, error)
	Count() (int, error)
	ListIDs(limit int) ([]string, error)
	Delete(ids []string) error
	DeleteBySource(filePath string) error
}
