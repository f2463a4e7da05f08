package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"hrassist/internal/adapter/chunker"
	"hrassist/internal/adapter/store"
	"hrassist/internal/domain"
)

type stubSource struct {
	docs []domain.Document
}

func (s *stubSource) Load() ([]domain.Document, error) {
	return s.docs, nil
}

// countingEmbedder behaves like the mock embedder but records how many texts
// it was asked to embed.
type countingEmbedder struct {
	dimension int
	embedded  int
}

func (e *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.embedded += len(texts)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, e.dimension)
		for j, r := range []rune(texts[i]) {
			if j < e.dimension {
				out[i][j] = float32(r) / 1000.0
			}
		}
	}
	return out, nil
}

func (e *countingEmbedder) Dimension() int    { return e.dimension }
func (e *countingEmbedder) ModelName() string { return "mock" }

func newTestIndexUseCase(t *testing.T, path string, embedder *countingEmbedder, verifyCorpus bool, docs ...domain.Document) *IndexUseCase {
	t.Helper()
	c, err := chunker.NewWindowChunker(50, 10)
	if err != nil {
		t.Fatal(err)
	}
	return NewIndexUseCase(&stubSource{docs: docs}, c, embedder, path, 10, verifyCorpus)
}

func policyDoc() domain.Document {
	return domain.Document{
		ID:   "d1",
		Name: "vacation.md",
		Text: "Employees receive 25 vacation days per year. Unused days may be carried over to the next year with manager approval.",
	}
}

func TestBuildOrLoad_Build(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	embedder := &countingEmbedder{dimension: 8}
	u := newTestIndexUseCase(t, path, embedder, false, policyDoc())

	idx, result, err := u.BuildOrLoad(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	if !result.Rebuilt {
		t.Error("expected a fresh build")
	}
	if result.Docs != 1 {
		t.Errorf("expected 1 doc, got %d", result.Docs)
	}
	if result.Chunks != idx.Count() {
		t.Errorf("result reports %d chunks, index has %d", result.Chunks, idx.Count())
	}
	// Every chunk is embedded exactly once.
	if embedder.embedded != result.Chunks {
		t.Errorf("embedded %d texts for %d chunks", embedder.embedded, result.Chunks)
	}
}

func TestBuildOrLoad_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	first := &countingEmbedder{dimension: 8}
	u := newTestIndexUseCase(t, path, first, false, policyDoc())
	idx, _, err := u.BuildOrLoad(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	idx.Close()

	second := &countingEmbedder{dimension: 8}
	u = newTestIndexUseCase(t, path, second, false, policyDoc())
	idx, result, err := u.BuildOrLoad(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	if result.Rebuilt {
		t.Error("second run should load the persisted index")
	}
	if second.embedded != 0 {
		t.Errorf("second run embedded %d texts, expected 0", second.embedded)
	}
}

func TestBuildOrLoad_DeletedIndexRebuilds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	first := &countingEmbedder{dimension: 8}
	u := newTestIndexUseCase(t, path, first, false, policyDoc())
	idx, firstResult, err := u.BuildOrLoad(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	idx.Close()

	if err := store.Delete(path); err != nil {
		t.Fatal(err)
	}

	second := &countingEmbedder{dimension: 8}
	u = newTestIndexUseCase(t, path, second, false, policyDoc())
	idx, result, err := u.BuildOrLoad(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	if !result.Rebuilt {
		t.Error("expected rebuild after index deletion")
	}
	if second.embedded != firstResult.Chunks {
		t.Errorf("re-embedded %d texts, expected %d", second.embedded, firstResult.Chunks)
	}
}

type failingEmbedder struct {
	countingEmbedder
	err error
}

func (e *failingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, e.err
}

func TestBuildOrLoad_EmbedFailurePersistsNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	wantErr := errors.New("embedding provider down")

	c, err := chunker.NewWindowChunker(50, 10)
	if err != nil {
		t.Fatal(err)
	}
	u := NewIndexUseCase(
		&stubSource{docs: []domain.Document{policyDoc()}},
		c,
		&failingEmbedder{countingEmbedder: countingEmbedder{dimension: 8}, err: wantErr},
		path,
		10,
		false,
	)

	if _, _, err := u.BuildOrLoad(context.Background(), nil); !errors.Is(err, wantErr) {
		t.Fatalf("expected embedding failure to be fatal, got %v", err)
	}
	// A failed build must leave no partial index behind.
	if store.Exists(path) {
		t.Error("failed build persisted an index file")
	}
}

func TestBuildOrLoad_CorruptIndexRebuilds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	if err := os.WriteFile(path, []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}

	embedder := &countingEmbedder{dimension: 8}
	u := newTestIndexUseCase(t, path, embedder, false, policyDoc())
	idx, result, err := u.BuildOrLoad(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	if !result.Rebuilt {
		t.Error("expected rebuild from corrupt index")
	}
}

func TestBuildOrLoad_ModelMismatchFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	idx, err := store.Write(path, "other-model", 8, "h", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	idx.Close()

	embedder := &countingEmbedder{dimension: 8}
	u := newTestIndexUseCase(t, path, embedder, false, policyDoc())

	if _, _, err := u.BuildOrLoad(context.Background(), nil); !errors.Is(err, store.ErrModelMismatch) {
		t.Errorf("expected ErrModelMismatch, got %v", err)
	}
	if embedder.embedded != 0 {
		t.Errorf("mismatch must not trigger a rebuild, embedded %d texts", embedder.embedded)
	}
}

func TestBuildOrLoad_VerifyCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	u := newTestIndexUseCase(t, path, &countingEmbedder{dimension: 8}, true, policyDoc())
	idx, _, err := u.BuildOrLoad(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	idx.Close()

	// Unchanged corpus loads without re-embedding.
	unchanged := &countingEmbedder{dimension: 8}
	u = newTestIndexUseCase(t, path, unchanged, true, policyDoc())
	idx, result, err := u.BuildOrLoad(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	idx.Close()
	if result.Rebuilt || unchanged.embedded != 0 {
		t.Errorf("unchanged corpus should load as-is (rebuilt=%v embedded=%d)", result.Rebuilt, unchanged.embedded)
	}

	// A changed document triggers a rebuild.
	changedDoc := policyDoc()
	changedDoc.Text = "Employees receive 30 vacation days per year."
	changed := &countingEmbedder{dimension: 8}
	u = newTestIndexUseCase(t, path, changed, true, changedDoc)
	idx, result, err = u.BuildOrLoad(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()
	if !result.Rebuilt {
		t.Error("changed corpus should rebuild")
	}
	if changed.embedded == 0 {
		t.Error("rebuild should re-embed the corpus")
	}
}

func TestBuildOrLoad_Progress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	u := newTestIndexUseCase(t, path, &countingEmbedder{dimension: 8}, false, policyDoc())

	var calls int
	var lastDone, lastTotal int
	idx, result, err := u.BuildOrLoad(context.Background(), func(done, total int) {
		calls++
		lastDone, lastTotal = done, total
	})
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	if calls == 0 {
		t.Fatal("expected progress callbacks during build")
	}
	if lastDone != result.Chunks || lastTotal != result.Chunks {
		t.Errorf("final progress (%d/%d) should reach chunk count %d", lastDone, lastTotal, result.Chunks)
	}
}
