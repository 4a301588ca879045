package llm

import "context"

// Generator is a text-in/text-out LLM call. Implementations own their own
// timeout; callers treat the round-trip as a single blocking operation.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Embedder turns texts into embedding vectors, batched in one request
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
