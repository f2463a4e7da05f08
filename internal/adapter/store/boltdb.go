package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"go.etcd.io/bbolt"

	"hrassist/internal/domain"
)

var (
	bucketChunks  = []byte("chunks")
	bucketVectors = []byte("vectors")
	bucketMeta    = []byte("meta")

	keyModel      = []byte("model")
	keyDimension  = []byte("dimension")
	keyCorpusHash = []byte("corpus_hash")
	keyComplete   = []byte("complete")
	keyStats      = []byte("stats")
)

var (
	// ErrCorrupt means the index file exists but cannot be read back. The
	// caller should discard it and rebuild.
	ErrCorrupt = errors.New("index corrupt")

	// ErrIncomplete means a previous build never finished. Treated the same
	// as an absent index.
	ErrIncomplete = errors.New("index incomplete")

	// ErrModelMismatch means the index was built with a different embedding
	// model or dimension than the current configuration. Rebuilding silently
	// would hide a configuration problem, so this is fatal.
	ErrModelMismatch = errors.New("index built with different embedding model")
)

// BoltIndex is the persisted chunk+vector index. Vectors and chunks are kept
// in memory for search; BoltDB is the durable copy. Brute-force cosine
// similarity is fine at policy-handbook scale.
type BoltIndex struct {
	db         *bbolt.DB
	model      string
	dimension  int
	corpusHash string
	stats      domain.Stats

	mu      sync.RWMutex
	chunks  map[string]domain.Chunk
	vectors map[string][]float32
}

// Exists reports whether an index file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Delete removes the index file at path. Missing files are not an error.
func Delete(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Open loads an existing index and validates it against the embedding model
// the caller is configured with.
func Open(path, wantModel string, wantDimension int) (*BoltIndex, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	idx := &BoltIndex{
		db:      db,
		chunks:  make(map[string]domain.Chunk),
		vectors: make(map[string][]float32),
	}

	if err := idx.load(wantModel, wantDimension); err != nil {
		db.Close()
		return nil, err
	}

	return idx, nil
}

func (idx *BoltIndex) load(wantModel string, wantDimension int) error {
	return idx.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		chunks := tx.Bucket(bucketChunks)
		vectors := tx.Bucket(bucketVectors)
		if meta == nil || chunks == nil || vectors == nil {
			return fmt.Errorf("%w: missing buckets", ErrCorrupt)
		}

		if string(meta.Get(keyComplete)) != "1" {
			return ErrIncomplete
		}

		idx.model = string(meta.Get(keyModel))
		idx.corpusHash = string(meta.Get(keyCorpusHash))
		if err := json.Unmarshal(meta.Get(keyDimension), &idx.dimension); err != nil {
			return fmt.Errorf("%w: bad dimension: %v", ErrCorrupt, err)
		}
		if data := meta.Get(keyStats); data != nil {
			if err := json.Unmarshal(data, &idx.stats); err != nil {
				return fmt.Errorf("%w: bad stats: %v", ErrCorrupt, err)
			}
		}

		if idx.model != wantModel || idx.dimension != wantDimension {
			return fmt.Errorf("%w: index has model=%s dim=%d, config wants model=%s dim=%d",
				ErrModelMismatch, idx.model, idx.dimension, wantModel, wantDimension)
		}

		err := chunks.ForEach(func(k, v []byte) error {
			var chunk domain.Chunk
			if err := json.Unmarshal(v, &chunk); err != nil {
				return fmt.Errorf("%w: bad chunk %s: %v", ErrCorrupt, k, err)
			}
			idx.chunks[string(k)] = chunk
			return nil
		})
		if err != nil {
			return err
		}

		err = vectors.ForEach(func(k, v []byte) error {
			var vec []float32
			if err := json.Unmarshal(v, &vec); err != nil {
				return fmt.Errorf("%w: bad vector %s: %v", ErrCorrupt, k, err)
			}
			if len(vec) != idx.dimension {
				return fmt.Errorf("%w: vector %s has dimension %d, want %d", ErrCorrupt, k, len(vec), idx.dimension)
			}
			idx.vectors[string(k)] = vec
			return nil
		})
		if err != nil {
			return err
		}

		if len(idx.chunks) != len(idx.vectors) {
			return fmt.Errorf("%w: %d chunks but %d vectors", ErrCorrupt, len(idx.chunks), len(idx.vectors))
		}
		return nil
	})
}

// Write persists a freshly built index in a single transaction. The complete
// marker goes in with everything else, so a crash mid-write leaves a file
// that Open reports as incomplete rather than a torn index.
func Write(path, model string, dimension int, corpusHash string, chunks []domain.Chunk, vectors [][]float32) (*BoltIndex, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("store: %d chunks but %d vectors", len(chunks), len(vectors))
	}
	for i, vec := range vectors {
		if len(vec) != dimension {
			return nil, fmt.Errorf("store: vector for chunk %s has dimension %d, want %d", chunks[i].ID, len(vec), dimension)
		}
	}

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	stats := computeStats(chunks)

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketChunks, bucketVectors, bucketMeta} {
			if err := tx.DeleteBucket(name); err != nil && err != bbolt.ErrBucketNotFound {
				return err
			}
			if _, err := tx.CreateBucket(name); err != nil {
				return err
			}
		}

		chunkBucket := tx.Bucket(bucketChunks)
		vectorBucket := tx.Bucket(bucketVectors)
		for i, chunk := range chunks {
			data, err := json.Marshal(chunk)
			if err != nil {
				return err
			}
			if err := chunkBucket.Put([]byte(chunk.ID), data); err != nil {
				return err
			}

			vecData, err := json.Marshal(vectors[i])
			if err != nil {
				return err
			}
			if err := vectorBucket.Put([]byte(chunk.ID), vecData); err != nil {
				return err
			}
		}

		meta := tx.Bucket(bucketMeta)
		if err := meta.Put(keyModel, []byte(model)); err != nil {
			return err
		}
		dimData, _ := json.Marshal(dimension)
		if err := meta.Put(keyDimension, dimData); err != nil {
			return err
		}
		if err := meta.Put(keyCorpusHash, []byte(corpusHash)); err != nil {
			return err
		}
		statsData, err := json.Marshal(stats)
		if err != nil {
			return err
		}
		if err := meta.Put(keyStats, statsData); err != nil {
			return err
		}
		return meta.Put(keyComplete, []byte("1"))
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	idx := &BoltIndex{
		db:         db,
		model:      model,
		dimension:  dimension,
		corpusHash: corpusHash,
		stats:      stats,
		chunks:     make(map[string]domain.Chunk, len(chunks)),
		vectors:    make(map[string][]float32, len(chunks)),
	}
	for i, chunk := range chunks {
		idx.chunks[chunk.ID] = chunk
		idx.vectors[chunk.ID] = vectors[i]
	}

	return idx, nil
}

func computeStats(chunks []domain.Chunk) domain.Stats {
	docs := make(map[string]bool)
	totalLen := 0
	for _, chunk := range chunks {
		docs[chunk.DocID] = true
		totalLen += len([]rune(chunk.Text))
	}

	stats := domain.Stats{
		TotalDocs:   len(docs),
		TotalChunks: len(chunks),
	}
	if len(chunks) > 0 {
		stats.AvgChunkLen = float64(totalLen) / float64(len(chunks))
	}
	return stats
}

// Search returns the k chunks most similar to the query vector, ordered by
// descending cosine similarity.
func (idx *BoltIndex) Search(query []float32, k int) ([]domain.ScoredChunk, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(query) != idx.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", idx.dimension, len(query))
	}
	if len(idx.vectors) == 0 || k <= 0 {
		return nil, nil
	}

	scored := make([]domain.ScoredChunk, 0, len(idx.vectors))
	for id, vec := range idx.vectors {
		scored = append(scored, domain.ScoredChunk{
			Chunk: idx.chunks[id],
			Score: cosineSimilarity(query, vec),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Count returns the number of indexed chunks.
func (idx *BoltIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.chunks)
}

// Model returns the embedding model the index was built with.
func (idx *BoltIndex) Model() string {
	return idx.model
}

// CorpusHash returns the hash of the document set the index was built from.
func (idx *BoltIndex) CorpusHash() string {
	return idx.corpusHash
}

// Stats returns corpus statistics recorded at build time.
func (idx *BoltIndex) Stats() domain.Stats {
	return idx.stats
}

func (idx *BoltIndex) Close() error {
	return idx.db.Close()
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
