// Package embedding defines the interface for text embedding providers, so the
// application can swap backends (Ollama locally, Hugging Face remotely) without
// the TUI or import flows caring which one produced a vector.
package embedding

// Embedder converts text into high-dimensional vectors.
type Embedder interface {
	// Embed returns the embedding vector for the given text, or an error if
	// the backend request fails. Empty input yields a nil vector and no error.
	Embed(text string) ([]float32, error)
}
