package domain

// Document is a single policy document loaded from the docs directory.
// Immutable once loaded; discarded after chunking.
type Document struct {
	ID   string
	Name string
	Text string
}

// Chunk is a bounded window of a document's text. Start and End are rune
// offsets into the source document.
type Chunk struct {
	ID     string
	DocID  string
	Source string
	Seq    int
	Start  int
	End    int
	Text   string
}

// ScoredChunk pairs a chunk with its similarity score against a query.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}

// Answer is what every question resolves to: either a model-generated
// response grounded in retrieved chunks, or the fixed HR-contact fallback.
type Answer struct {
	Text     string
	Fallback bool
	Model    string
	Sources  []string
}

type Stats struct {
	TotalDocs   int
	TotalChunks int
	AvgChunkLen float64
}
