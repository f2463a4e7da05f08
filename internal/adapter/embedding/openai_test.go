package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestEmbedder(t *testing.T, handler http.HandlerFunc) (*OpenAIEmbedder, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("TEST_OPENAI_KEY", "test-key")
	e, err := NewOpenAIEmbedder("TEST_OPENAI_KEY", "text-embedding-3-small", srv.URL, 0, 2, 5)
	if err != nil {
		t.Fatal(err)
	}
	return e, srv
}

func TestNewOpenAIEmbedder_MissingKey(t *testing.T) {
	t.Setenv("EMPTY_KEY_ENV", "")
	if _, err := NewOpenAIEmbedder("EMPTY_KEY_ENV", "text-embedding-3-small", "", 0, 0, 0); err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestNewOpenAIEmbedder_Dimension(t *testing.T) {
	t.Setenv("TEST_OPENAI_KEY", "test-key")

	cases := []struct {
		model      string
		configured int
		want       int
	}{
		{"text-embedding-3-small", 0, 1536},
		{"text-embedding-3-large", 0, 3072},
		{"text-embedding-ada-002", 0, 1536},
		{"unknown-model", 0, 1536},
		// A configured dimension overrides the model table.
		{"custom-embed", 256, 256},
		{"text-embedding-3-large", 1024, 1024},
	}

	for _, tc := range cases {
		e, err := NewOpenAIEmbedder("TEST_OPENAI_KEY", tc.model, "", tc.configured, 0, 0)
		if err != nil {
			t.Fatal(err)
		}
		if e.Dimension() != tc.want {
			t.Errorf("model=%s configured=%d: got dimension %d, want %d",
				tc.model, tc.configured, e.Dimension(), tc.want)
		}
	}
}

func TestEmbed_Batches(t *testing.T) {
	var calls int
	e, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}

		data := make([]map[string]any, len(req.Input))
		for i := range req.Input {
			data[i] = map[string]any{"embedding": []float32{0.1, 0.2}, "index": i}
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	})

	// Batch size is 2, so 5 texts should take 3 calls.
	vecs, err := e.Embed(context.Background(), []string{"a", "b", "c", "d", "e"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 5 {
		t.Errorf("expected 5 vectors, got %d", len(vecs))
	}
	if calls != 3 {
		t.Errorf("expected 3 API calls, got %d", calls)
	}
}

func TestEmbed_Empty(t *testing.T) {
	e, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no API call expected for empty input")
	})

	vecs, err := e.Embed(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if vecs != nil {
		t.Errorf("expected nil, got %v", vecs)
	}
}

func TestEmbed_ServerError(t *testing.T) {
	e, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusInternalServerError)
	})

	_, err := e.Embed(context.Background(), []string{"a"})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestEmbed_CountMismatch(t *testing.T) {
	e, _ := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"embedding": []float32{0.1}, "index": 0}},
		})
	})

	_, err := e.Embed(context.Background(), []string{"a", "b"})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable for partial response, got %v", err)
	}
}

func TestMockEmbedder_Deterministic(t *testing.T) {
	e := NewMockEmbedder(8)

	first, err := e.Embed(context.Background(), []string{"hello"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Embed(context.Background(), []string{"hello"})
	if err != nil {
		t.Fatal(err)
	}

	if len(first[0]) != 8 {
		t.Errorf("expected dimension 8, got %d", len(first[0]))
	}
	for i := range first[0] {
		if first[0][i] != second[0][i] {
			t.Errorf("vectors differ at %d", i)
		}
	}
}
