package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"hrassist/internal/domain"
)

// WindowChunker splits document text into fixed-size character windows with a
// configurable overlap between consecutive windows. Offsets are rune-based so
// multi-byte text never gets cut mid-character.
type WindowChunker struct {
	size    int
	overlap int
}

func NewWindowChunker(size, overlap int) (*WindowChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunker: size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunker: overlap must satisfy 0 <= overlap < size, got overlap=%d size=%d", overlap, size)
	}
	return &WindowChunker{size: size, overlap: overlap}, nil
}

func (c *WindowChunker) Chunk(doc domain.Document) ([]domain.Chunk, error) {
	runes := []rune(doc.Text)
	if len(runes) == 0 {
		return nil, nil
	}

	step := c.size - c.overlap

	var chunks []domain.Chunk
	seq := 0
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, domain.Chunk{
			ID:     generateChunkID(doc.ID, start, end),
			DocID:  doc.ID,
			Source: doc.Name,
			Seq:    seq,
			Start:  start,
			End:    end,
			Text:   string(runes[start:end]),
		})
		seq++

		if end == len(runes) {
			break
		}
	}

	return chunks, nil
}

func generateChunkID(docID string, start, end int) string {
	data := fmt.Sprintf("%s:%d-%d", docID, start, end)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}
