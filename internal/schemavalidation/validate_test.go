package schemavalidation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResultsSchemaCompiles(t *testing.T) {
	if _, err := ResultsSchema(); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !strings.Contains(string(ResultsSchemaSource()), ResultsSchemaID) {
		t.Error("schema source does not name its format")
	}
}

func TestValidateResultsFixture(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "typing-results-v1.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	if err := ValidateResults(data); err != nil {
		t.Fatalf("fixture should validate: %v", err)
	}
}

func TestValidateResultsRejects(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "typing-results-v1.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(doc map[string]any)
	}{
		{"wrong schema id", func(doc map[string]any) { doc["schema"] = "typing-results-v0" }},
		{"missing results", func(doc map[string]any) { delete(doc, "results") }},
		{"bad timestamp", func(doc map[string]any) { doc["exported_at"] = "yesterday" }},
		{"unknown layout", func(doc map[string]any) { firstResult(doc)["layout"] = "dvorak" }},
		{"accuracy above 100", func(doc map[string]any) { firstResult(doc)["accuracy"] = 101.5 }},
		{"negative errors", func(doc map[string]any) { firstResult(doc)["errors"] = -1 }},
		{"fractional chars", func(doc map[string]any) { firstResult(doc)["total_chars"] = 1.5 }},
		{"extra field", func(doc map[string]any) { firstResult(doc)["text"] = "secret" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var doc map[string]any
			if err := json.Unmarshal(data, &doc); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			tc.mutate(doc)
			out, err := json.Marshal(doc)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if err := ValidateResults(out); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateResultsMalformed(t *testing.T) {
	if err := ValidateResults([]byte("{not json")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestValidateResultsEmptyList(t *testing.T) {
	doc := `{"schema":"typing-results-v1","exported_at":"2026-10-01T00:00:00Z","results":[]}`
	if err := ValidateResults([]byte(doc)); err != nil {
		t.Errorf("empty export should validate: %v", err)
	}
}

func firstResult(doc map[string]any) map[string]any {
	return doc["results"].([]any)[0].(map[string]any)
}
