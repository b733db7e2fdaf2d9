package huggingface

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
)

const inferenceAPIBaseURL = "https://api-inference.huggingface.co"

// EmbeddingsClient generates text embeddings through the Hugging Face Inference
// API. It satisfies the same Embedder contract as the Ollama client, so the
// application can run without any local model server.
type EmbeddingsClient struct {
	modelID    string
	token      string
	httpClient *http.Client
}

// embeddingsRequest is the JSON payload for the feature-extraction pipeline.
type embeddingsRequest struct {
	Inputs  string          `json:"inputs"`
	Options map[string]bool `json:"options,omitempty"`
}

// NewEmbeddingsClient creates an Inference API embeddings client for the given
// model. An empty token falls back to the HF_TOKEN environment variable.
func NewEmbeddingsClient(modelID, token string) *EmbeddingsClient {
	if token == "" {
		token = os.Getenv("HF_TOKEN")
	}
	return &EmbeddingsClient{
		modelID:    modelID,
		token:      token,
		httpClient: &http.Client{},
	}
}

// Embed converts text into a vector embedding via the Inference API. Empty
// input returns nil without touching the network.
func (c *EmbeddingsClient) Embed(text string) ([]float32, error) {
	if text == "" {
		return nil, nil
	}

	body, err := json.Marshal(embeddingsRequest{
		Inputs: text,
		// Cold models return 503 unless the request opts into waiting.
		Options: map[string]bool{"wait_for_model": true},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/pipeline/feature-extraction/%s", inferenceAPIBaseURL, c.modelID)
	request, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("post request: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		var errorBody map[string]interface{}
		json.NewDecoder(response.Body).Decode(&errorBody)
		return nil, fmt.Errorf("API error %d: %v", response.StatusCode, errorBody)
	}

	// The pipeline replies with a batch: [[v0, v1, ...]] for a single input.
	var vectors [][]float32
	if err := json.NewDecoder(response.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return vectors[0], nil
}
