// Package huggingface provides clients for two Hugging Face services: the
// Dataset Viewer API, used to pull text columns out of hosted datasets for bulk
// import, and the Inference API, used as an alternative embedding backend.
package huggingface

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

const datasetViewerBaseURL = "https://datasets-server.huggingface.co"

// The viewer API caps a single /rows request at 100 rows.
const rowsPageSize = 100

// Client fetches dataset rows from the Hugging Face Dataset Viewer API.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a Dataset Viewer API client.
func NewClient() *Client {
	return &Client{httpClient: &http.Client{}}
}

// SplitsResponse is the reply from the /splits endpoint.
type SplitsResponse struct {
	Splits []Split `json:"splits"`
}

// Split identifies one split of a dataset configuration.
type Split struct {
	Dataset string `json:"dataset"`
	Config  string `json:"config"`
	Split   string `json:"split"`
}

// RowsResponse is the reply from the /rows endpoint.
type RowsResponse struct {
	Rows []RowWrapper `json:"rows"`
}

// RowWrapper wraps an individual dataset row with its index.
type RowWrapper struct {
	RowIdx int                    `json:"row_idx"`
	Row    map[string]interface{} `json:"row"`
}

// GetSplits fetches the available splits for a dataset.
func (c *Client) GetSplits(dataset string) (*SplitsResponse, error) {
	endpoint := fmt.Sprintf("%s/splits?dataset=%s", datasetViewerBaseURL, url.QueryEscape(dataset))

	var result SplitsResponse
	if err := c.getJSON(endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetRows fetches a page of rows from a dataset split.
func (c *Client) GetRows(dataset, config, split string, offset, length int) (*RowsResponse, error) {
	endpoint := fmt.Sprintf("%s/rows?dataset=%s&config=%s&split=%s&offset=%s&length=%s",
		datasetViewerBaseURL,
		url.QueryEscape(dataset),
		url.QueryEscape(config),
		url.QueryEscape(split),
		strconv.Itoa(offset),
		strconv.Itoa(length),
	)

	var result RowsResponse
	if err := c.getJSON(endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchTexts collects non-empty string values from one column of a dataset
// split, paginating until maxRows values have been seen or the split runs out.
// A maxRows of zero or less means no limit.
func (c *Client) FetchTexts(dataset, config, split, column string, maxRows int) ([]string, error) {
	var texts []string
	offset := 0

	for {
		if maxRows > 0 && offset >= maxRows {
			break
		}

		pageLength := rowsPageSize
		if maxRows > 0 && offset+pageLength > maxRows {
			pageLength = maxRows - offset
		}

		page, err := c.GetRows(dataset, config, split, offset, pageLength)
		if err != nil {
			return nil, err
		}
		if len(page.Rows) == 0 {
			break
		}

		texts = append(texts, extractColumnTexts(page, column)...)
		offset += len(page.Rows)

		if len(page.Rows) < pageLength {
			break
		}
	}

	return texts, nil
}

// extractColumnTexts pulls the non-empty string values of one column out of a
// page of rows. Rows where the column is missing or not a string are skipped.
func extractColumnTexts(page *RowsResponse, column string) []string {
	var texts []string
	for _, wrapper := range page.Rows {
		value, exists := wrapper.Row[column]
		if !exists {
			continue
		}
		if text, isString := value.(string); isString && text != "" {
			texts = append(texts, text)
		}
	}
	return texts
}

// getJSON performs a GET request and decodes the JSON reply into target.
func (c *Client) getJSON(endpoint string, target interface{}) error {
	response, err := c.httpClient.Get(endpoint)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(response.Body)
		return fmt.Errorf("API error %d: %s", response.StatusCode, string(body))
	}

	if err := json.NewDecoder(response.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
