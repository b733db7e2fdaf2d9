package dataimport

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

func TestLoadSamples_CSVWithLabels(t *testing.T) {
	path := writeTempFile(t, "data.csv", "text,label\napple,fruit\ndog,animal\n,empty\n")

	samples, err := LoadSamples(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(samples) != 2 {
		t.Fatalf("expected 2 samples (empty text skipped), got %d", len(samples))
	}
	if samples[0].Text != "apple" || samples[0].Label != "fruit" {
		t.Errorf("unexpected first sample: %+v", samples[0])
	}
	if samples[1].Text != "dog" || samples[1].Label != "animal" {
		t.Errorf("unexpected second sample: %+v", samples[1])
	}
}

func TestLoadSamples_CSVMissingTextColumn(t *testing.T) {
	path := writeTempFile(t, "data.csv", "name,label\napple,fruit\n")

	if _, err := LoadSamples(path); err == nil {
		t.Error("expected error for CSV without text column")
	}
}

func TestLoadSamples_JSONStringArray(t *testing.T) {
	path := writeTempFile(t, "data.json", `["alpha","beta",""]`)

	samples, err := LoadSamples(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0].Text != "alpha" {
		t.Errorf("expected 'alpha', got %q", samples[0].Text)
	}
}

func TestLoadSamples_JSONObjects(t *testing.T) {
	path := writeTempFile(t, "data.json", `[{"text":"alpha","label":"x"},{"text":"beta"}]`)

	samples, err := LoadSamples(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0].Label != "x" || samples[1].Label != "" {
		t.Errorf("unexpected labels: %q, %q", samples[0].Label, samples[1].Label)
	}
}

func TestLoadSamples_UnsupportedExtension(t *testing.T) {
	path := writeTempFile(t, "data.txt", "whatever")

	if _, err := LoadSamples(path); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestLoadVectorRecords(t *testing.T) {
	path := writeTempFile(t, "vectors.json",
		`[{"text":"a","label":"g1","vector":[0.1,0.2]},{"text":"b","vector":[0.3,0.4]}]`)

	records, err := LoadVectorRecords(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Label != "g1" || len(records[0].Vector) != 2 {
		t.Errorf("unexpected first record: %+v", records[0])
	}
}

func TestLoadVectorRecords_MissingVector(t *testing.T) {
	path := writeTempFile(t, "vectors.json", `[{"text":"a","vector":[0.1]},{"text":"b"}]`)

	if _, err := LoadVectorRecords(path); err == nil {
		t.Error("expected error for entry without vector")
	}
}

func TestHasVectors(t *testing.T) {
	withVectors := writeTempFile(t, "with.json", `[{"text":"a","vector":[0.1]}]`)
	withoutVectors := writeTempFile(t, "without.json", `[{"text":"a"}]`)
	csvFile := writeTempFile(t, "plain.csv", "text\na\n")

	if !HasVectors(withVectors) {
		t.Error("expected HasVectors=true for JSON with vectors")
	}
	if HasVectors(withoutVectors) {
		t.Error("expected HasVectors=false for JSON without vectors")
	}
	if HasVectors(csvFile) {
		t.Error("expected HasVectors=false for CSV")
	}
}
