// Package index maintains the embedding index over the dataset catalog:
// built once at startup, persisted to a local snapshot, and queried by
// cosine nearest-neighbor search.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"datagov-chat/internal/model"
)

const (
	// DefaultTopK is the number of neighbors returned when the caller
	// does not specify k.
	DefaultTopK = 10

	// Catalog names are embedded in batches; providers commonly cap
	// array input size.
	buildBatchSize = 32
)

// Candidate is one nearest-neighbor result, highest similarity first.
type Candidate struct {
	Name  string  `json:"name"`
	Score float32 `json:"score"`
}

// Embedder produces fixed-dimension vectors for a batch of texts.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// CatalogSource lists the dataset names to be indexed.
type CatalogSource interface {
	ListDatasetNames(ctx context.Context) ([]string, error)
}

// Index is a process-wide, read-only-after-build vector index. Readers
// never observe a partially built index: records are installed in one
// assignment under the write lock.
type Index struct {
	mu      sync.RWMutex
	records []model.DatasetRecord
	dim     int

	buildMu sync.Mutex
	built   bool

	embedder     Embedder
	catalog      CatalogSource
	snapshotPath string
	logger       *zap.Logger
}

func New(embedder Embedder, catalog CatalogSource, snapshotPath string, logger *zap.Logger) *Index {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Index{
		embedder:     embedder,
		catalog:      catalog,
		snapshotPath: snapshotPath,
		logger:       logger,
	}
}

// BuildOrLoad populates the index exactly once per process. A persisted
// snapshot is preferred; otherwise the catalog is fetched, every name is
// embedded in batches, and the result is snapshotted for warm restarts.
// A catalog fetch failure is soft: the index stays empty and the system
// serves zero retrieval candidates. An embedding failure during a cold
// build is returned to the caller, which treats it as fatal at startup.
func (ix *Index) BuildOrLoad(ctx context.Context) error {
	ix.buildMu.Lock()
	defer ix.buildMu.Unlock()

	if ix.built {
		return nil
	}

	if records, err := loadSnapshot(ix.snapshotPath); err == nil {
		ix.install(records)
		ix.built = true
		ix.logger.Info("dataset index loaded from snapshot",
			zap.String("path", ix.snapshotPath),
			zap.Int("records", len(records)))
		return nil
	} else if !isNotExist(err) {
		ix.logger.Warn("dataset snapshot unreadable, rebuilding",
			zap.String("path", ix.snapshotPath),
			zap.Error(err))
	}

	names, err := ix.catalog.ListDatasetNames(ctx)
	if err != nil {
		ix.logger.Error("catalog fetch failed, serving with empty index", zap.Error(err))
		ix.built = true
		return nil
	}
	names = dedupe(names)
	if len(names) == 0 {
		ix.logger.Warn("catalog returned no dataset names")
		ix.built = true
		return nil
	}

	records, err := ix.embedAll(ctx, names)
	if err != nil {
		return fmt.Errorf("embed catalog names failed: %w", err)
	}

	if err := saveSnapshot(ix.snapshotPath, records); err != nil {
		// The live index still works; only warm restarts lose out.
		ix.logger.Warn("persist dataset snapshot failed",
			zap.String("path", ix.snapshotPath),
			zap.Error(err))
	}

	ix.install(records)
	ix.built = true
	ix.logger.Info("dataset index built from catalog", zap.Int("records", len(records)))
	return nil
}

// Query returns up to k nearest neighbors by cosine similarity, highest
// first. An empty index yields an empty result, never an error.
func (ix *Index) Query(vector []float32, k int) []Candidate {
	if k <= 0 {
		k = DefaultTopK
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.records) == 0 || len(vector) == 0 {
		return nil
	}

	candidates := make([]Candidate, 0, len(ix.records))
	for i := range ix.records {
		candidates = append(candidates, Candidate{
			Name:  ix.records[i].Name,
			Score: cosineSimilarity(vector, ix.records[i].Embedding),
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if k < len(candidates) {
		candidates = candidates[:k]
	}
	return candidates
}

// Len reports the number of indexed records.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.records)
}

// Dimension reports the embedding dimension, 0 when empty.
func (ix *Index) Dimension() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.dim
}

func (ix *Index) install(records []model.DatasetRecord) {
	dim := 0
	if len(records) > 0 {
		dim = len(records[0].Embedding)
	}
	ix.mu.Lock()
	ix.records = records
	ix.dim = dim
	ix.mu.Unlock()
}

func (ix *Index) embedAll(ctx context.Context, names []string) ([]model.DatasetRecord, error) {
	records := make([]model.DatasetRecord, 0, len(names))
	for start := 0; start < len(names); start += buildBatchSize {
		end := start + buildBatchSize
		if end > len(names) {
			end = len(names)
		}
		batch := names[start:end]
		vectors, err := ix.embedder.EmbedBatch(ctx, batch)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(batch) {
			return nil, fmt.Errorf("embedding count mismatch: want %d got %d", len(batch), len(vectors))
		}
		for i, name := range batch {
			records = append(records, model.DatasetRecord{
				ID:        strconv.Itoa(start + i),
				Name:      name,
				Embedding: vectors[i],
				Metadata:  map[string]string{"name": name},
			})
		}
	}

	for i := 1; i < len(records); i++ {
		if len(records[i].Embedding) != len(records[0].Embedding) {
			return nil, fmt.Errorf("inconsistent embedding dimension at record %d", i)
		}
	}
	return records, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
