package model

// DatasetRecord is one catalog entry in the embedding index. Records are
// immutable once indexed; the full set is rebuilt only when the snapshot
// is deleted or the catalog changes.
type DatasetRecord struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Embedding []float32         `json:"embedding"`
	Metadata  map[string]string `json:"metadata"`
}
