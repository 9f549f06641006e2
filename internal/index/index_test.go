package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, ok := s.vectors[t]
		if !ok {
			vec = []float32{0, 0, 1}
		}
		out[i] = vec
	}
	return out, nil
}

type stubCatalog struct {
	names []string
	err   error
}

func (s stubCatalog) ListDatasetNames(ctx context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.names, nil
}

func testEmbedder() *stubEmbedder {
	return &stubEmbedder{vectors: map[string][]float32{
		"vocational-training-2020": {1, 0, 0},
		"vocational-training-2019": {0.9, 0.1, 0},
		"road-traffic-volumes":     {0, 1, 0},
	}}
}

func snapshotPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "dataset_embeddings.json")
}

func TestBuildFromCatalogAndQuery(t *testing.T) {
	path := snapshotPath(t)
	embedder := testEmbedder()
	catalog := stubCatalog{names: []string{
		"vocational-training-2020",
		"vocational-training-2019",
		"road-traffic-volumes",
	}}

	ix := New(embedder, catalog, path, nil)
	require.NoError(t, ix.BuildOrLoad(context.Background()))
	assert.Equal(t, 3, ix.Len())
	assert.Equal(t, 3, ix.Dimension())

	candidates := ix.Query([]float32{1, 0, 0}, 2)
	require.Len(t, candidates, 2)
	assert.Equal(t, "vocational-training-2020", candidates[0].Name)
	assert.Equal(t, "vocational-training-2019", candidates[1].Name)
	assert.GreaterOrEqual(t, candidates[0].Score, candidates[1].Score)

	_, err := os.Stat(path)
	assert.NoError(t, err, "cold build should persist a snapshot")
}

func TestBuildOrLoadIsIdempotent(t *testing.T) {
	embedder := testEmbedder()
	catalog := stubCatalog{names: []string{"vocational-training-2020", "road-traffic-volumes"}}

	ix := New(embedder, catalog, snapshotPath(t), nil)
	require.NoError(t, ix.BuildOrLoad(context.Background()))
	sizeAfterFirst := ix.Len()
	callsAfterFirst := embedder.calls

	require.NoError(t, ix.BuildOrLoad(context.Background()))
	assert.Equal(t, sizeAfterFirst, ix.Len())
	assert.Equal(t, callsAfterFirst, embedder.calls, "second build must not re-embed")
}

func TestDuplicateCatalogNamesIndexedOnce(t *testing.T) {
	embedder := testEmbedder()
	catalog := stubCatalog{names: []string{
		"vocational-training-2020",
		"vocational-training-2020",
		"road-traffic-volumes",
	}}

	ix := New(embedder, catalog, snapshotPath(t), nil)
	require.NoError(t, ix.BuildOrLoad(context.Background()))
	assert.Equal(t, 2, ix.Len())
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := snapshotPath(t)
	catalog := stubCatalog{names: []string{
		"vocational-training-2020",
		"vocational-training-2019",
		"road-traffic-volumes",
	}}

	first := New(testEmbedder(), catalog, path, nil)
	require.NoError(t, first.BuildOrLoad(context.Background()))
	query := []float32{0.8, 0.2, 0}
	want := first.Query(query, 3)

	// A reloaded index must not touch the catalog or embedder at all.
	reloaded := New(
		&stubEmbedder{err: errors.New("embedder must not be called")},
		stubCatalog{err: errors.New("catalog must not be called")},
		path,
		nil,
	)
	require.NoError(t, reloaded.BuildOrLoad(context.Background()))
	assert.Equal(t, first.Len(), reloaded.Len())
	assert.Equal(t, want, reloaded.Query(query, 3))
}

func TestCatalogFailureLeavesIndexEmpty(t *testing.T) {
	ix := New(testEmbedder(), stubCatalog{err: errors.New("boom")}, snapshotPath(t), nil)

	require.NoError(t, ix.BuildOrLoad(context.Background()), "catalog failure is soft")
	assert.Equal(t, 0, ix.Len())
	assert.Empty(t, ix.Query([]float32{1, 0, 0}, 5))
}

func TestEmbeddingFailureDuringColdBuildIsFatal(t *testing.T) {
	ix := New(
		&stubEmbedder{err: errors.New("embedding service down")},
		stubCatalog{names: []string{"vocational-training-2020"}},
		snapshotPath(t),
		nil,
	)
	assert.Error(t, ix.BuildOrLoad(context.Background()))
}

func TestQueryDefaultsAndEdges(t *testing.T) {
	names := make([]string, 0, 15)
	vectors := make(map[string][]float32, 15)
	for _, suffix := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m", "n", "o"} {
		name := "dataset-" + suffix
		names = append(names, name)
		vectors[name] = []float32{1, float32(len(name)), 0}
	}
	ix := New(&stubEmbedder{vectors: vectors}, stubCatalog{names: names}, snapshotPath(t), nil)
	require.NoError(t, ix.BuildOrLoad(context.Background()))

	assert.Len(t, ix.Query([]float32{1, 1, 0}, 0), DefaultTopK, "k<=0 defaults to 10")
	assert.Len(t, ix.Query([]float32{1, 1, 0}, 100), 15, "k beyond size returns everything")
	assert.Empty(t, ix.Query(nil, 5), "empty query vector yields no candidates")
}
