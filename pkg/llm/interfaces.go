// Package llm provides the OpenAI-compatible embedding client used by the
// search engine's vector strategy and by document ingestion.
package llm

import (
	"context"
)

// EmbeddingClient is the embedding collaborator contract. Use this interface
// for dependency injection to enable mocking in tests.
type EmbeddingClient interface {
	// CreateEmbedding generates an embedding vector for the input text.
	CreateEmbedding(ctx context.Context, input string) ([]float32, error)

	// CreateEmbeddings generates embeddings for multiple inputs.
	CreateEmbeddings(ctx context.Context, inputs []string) ([][]float32, error)

	// Dimensions returns the vector dimensionality the client produces.
	Dimensions() int
}

// Ensure Client implements EmbeddingClient at compile time.
var _ EmbeddingClient = (*Client)(nil)
