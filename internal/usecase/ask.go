package usecase

import (
	"context"
	"fmt"
	"strings"

	"hrassist/internal/domain"
	"hrassist/internal/port"
)

// FallbackAnswer is returned whenever the pipeline cannot produce a grounded
// answer: no relevant context, embedding failure, or every candidate model
// failing.
const FallbackAnswer = "I'm not fully sure - please contact HR at hr@company.ch"

const systemPrompt = "You are Swiss AI Office Assistant, an internal HR bot for employees.\n" +
	"Answer clearly, politely, and in a professional corporate tone.\n" +
	"If you're unsure, say so and suggest contacting HR."

// AskUseCase answers one question: retrieve, gate on the top similarity
// score, then try candidate models in order. It never returns an error; every
// failure collapses into the fallback answer.
type AskUseCase struct {
	retriever  port.Retriever
	chat       port.ChatModel
	candidates []string
	topK       int
	threshold  float64
}

func NewAskUseCase(retriever port.Retriever, chat port.ChatModel, candidates []string, topK int, threshold float64) *AskUseCase {
	return &AskUseCase{
		retriever:  retriever,
		chat:       chat,
		candidates: candidates,
		topK:       topK,
		threshold:  threshold,
	}
}

func (u *AskUseCase) Ask(ctx context.Context, question string) domain.Answer {
	results, err := u.retriever.Search(ctx, question, u.topK)
	if err != nil {
		return fallback()
	}

	// The gate looks only at the best score. Below threshold means the
	// corpus has nothing usable, so the model is never invoked.
	if len(results) == 0 || results[0].Score < u.threshold {
		return fallback()
	}

	userPrompt := buildUserPrompt(question, results)

	for _, model := range u.candidates {
		text, err := u.chat.Complete(ctx, model, systemPrompt, userPrompt)
		if err != nil {
			continue
		}
		return domain.Answer{
			Text:    text,
			Model:   model,
			Sources: sources(results),
		}
	}

	return fallback()
}

func fallback() domain.Answer {
	return domain.Answer{
		Text:     FallbackAnswer,
		Fallback: true,
	}
}

func buildUserPrompt(question string, results []domain.ScoredChunk) string {
	var b strings.Builder
	b.WriteString("Using the provided context excerpts, answer the user's question.\n")
	b.WriteString("- Be concise, polite, and professional.\n")
	b.WriteString("- If the context is insufficient to answer confidently, say you are not fully sure and suggest contacting HR at hr@company.ch.\n\n")

	b.WriteString("Context (top relevant excerpts):")
	for i, result := range results {
		fmt.Fprintf(&b, "\n\n[%d] Source: %s\n%s", i+1, result.Chunk.Source, result.Chunk.Text)
	}

	fmt.Fprintf(&b, "\n\nUser question: %s", question)
	return b.String()
}

func sources(results []domain.ScoredChunk) []string {
	var out []string
	seen := make(map[string]bool)
	for _, result := range results {
		if !seen[result.Chunk.Source] {
			seen[result.Chunk.Source] = true
			out = append(out, result.Chunk.Source)
		}
	}
	return out
}
