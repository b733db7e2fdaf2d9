// Package dataimport loads datasets from local CSV and JSON files for bulk
// import: plain texts (optionally labeled) that still need embedding, and JSON
// records carrying precomputed vectors that can be stored as-is.
package dataimport

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Sample is one text to embed, with an optional grouping label.
type Sample struct {
	Text  string
	Label string
}

// VectorRecord is one text with its precomputed embedding vector, imported
// without an embedding round-trip.
type VectorRecord struct {
	Text   string
	Label  string
	Vector []float32
}

// jsonRecord is the on-disk JSON object shape. Vector and label are optional.
type jsonRecord struct {
	Text   string    `json:"text"`
	Label  string    `json:"label,omitempty"`
	Vector []float32 `json:"vector,omitempty"`
}

// LoadSamples reads texts (and optional labels) from a CSV or JSON file.
// CSV files need a "text" column header and may have a "label" column; JSON
// files hold either an array of strings or an array of objects with a "text"
// field.
func LoadSamples(path string) ([]Sample, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadCSV(path)
	case ".json":
		return loadJSON(path)
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", filepath.Ext(path))
	}
}

// LoadVectorRecords reads texts with precomputed vectors from a JSON file.
// Every entry must carry both a text and a non-empty vector.
func LoadVectorRecords(path string) ([]VectorRecord, error) {
	if strings.ToLower(filepath.Ext(path)) != ".json" {
		return nil, fmt.Errorf("vector import only supports JSON files")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var records []jsonRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}

	results := make([]VectorRecord, 0, len(records))
	for i, record := range records {
		if record.Text == "" {
			return nil, fmt.Errorf("entry %d missing text field", i)
		}
		if len(record.Vector) == 0 {
			return nil, fmt.Errorf("entry %d missing vector field", i)
		}
		results = append(results, VectorRecord{
			Text:   record.Text,
			Label:  record.Label,
			Vector: record.Vector,
		})
	}
	return results, nil
}

// HasVectors reports whether a JSON file's first entry carries a vector, so
// callers can pick between the embed-then-store and the direct import path.
func HasVectors(path string) bool {
	if strings.ToLower(filepath.Ext(path)) != ".json" {
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var records []jsonRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return false
	}
	return len(records) > 0 && len(records[0].Vector) > 0
}

func loadCSV(path string) ([]Sample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening CSV file: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("CSV file is empty")
	}

	textColumn := -1
	labelColumn := -1
	for i, header := range records[0] {
		switch strings.ToLower(strings.TrimSpace(header)) {
		case "text":
			textColumn = i
		case "label":
			labelColumn = i
		}
	}
	if textColumn == -1 {
		return nil, fmt.Errorf("CSV missing 'text' column header")
	}

	samples := make([]Sample, 0, len(records)-1)
	for _, row := range records[1:] {
		if textColumn >= len(row) || row[textColumn] == "" {
			continue
		}
		sample := Sample{Text: row[textColumn]}
		if labelColumn >= 0 && labelColumn < len(row) {
			sample.Label = row[labelColumn]
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

func loadJSON(path string) ([]Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading JSON file: %w", err)
	}

	// Try the simple shape first: a bare array of strings.
	var texts []string
	if err := json.Unmarshal(data, &texts); err == nil {
		samples := make([]Sample, 0, len(texts))
		for _, text := range texts {
			if text != "" {
				samples = append(samples, Sample{Text: text})
			}
		}
		return samples, nil
	}

	var records []jsonRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing JSON: expected array of strings or objects with 'text' field: %w", err)
	}

	samples := make([]Sample, 0, len(records))
	for i, record := range records {
		if record.Text == "" {
			return nil, fmt.Errorf("entry %d missing text field", i)
		}
		samples = append(samples, Sample{Text: record.Text, Label: record.Label})
	}
	return samples, nil
}
