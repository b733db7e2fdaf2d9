// Package ollama provides an HTTP client for the Ollama embedding API. It turns
// text into high-dimensional vectors via a locally running Ollama server, which
// is the default embedding source for interactive input.
package ollama

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// requestTimeout bounds a single embedding call. Local models occasionally
// stall on first load, so this is generous rather than snappy.
const requestTimeout = 60 * time.Second

// Client talks to the Ollama /api/embed endpoint with a fixed model.
type Client struct {
	baseURL    string
	modelName  string
	httpClient *http.Client
}

// embedRequest is the JSON payload for /api/embed.
type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// embedResponse is the JSON reply from /api/embed. The API returns a batch of
// vectors even for a single input.
type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewClient creates a client for the Ollama server at baseURL using the given
// embedding model, e.g. "nomic-embed-text".
func NewClient(baseURL, modelName string) *Client {
	return &Client{
		baseURL:    baseURL,
		modelName:  modelName,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Embed converts text into a vector embedding. Empty input returns nil without
// touching the network.
func (client *Client) Embed(text string) ([]float32, error) {
	if text == "" {
		return nil, nil
	}

	body, err := json.Marshal(embedRequest{Model: client.modelName, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	response, err := client.httpClient.Post(client.baseURL+"/api/embed", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("post request: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", response.StatusCode)
	}

	var parsed embedResponse
	if err := json.NewDecoder(response.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return parsed.Embeddings[0], nil
}
