package cli

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/example/focusarea/internal/apperr"
)

func TestReadBatch_YAMLEnvelope(t *testing.T) {
	input := `
base_version_id: 71
summary: tidy scores
records:
  - id: 11
    properties:
      title: Churn
      score: 1.50
      weight: 0x1F
  - id: new
    properties: {title: Pricing, budget: 1_000}
  - id: "12"
    deleted: true
    properties: {}
`
	batch, err := ReadBatch(strings.NewReader(input))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if batch.BaseVersionID != 71 || batch.Summary != "tidy scores" {
		t.Errorf("unexpected envelope: %+v", batch)
	}
	if len(batch.Records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(batch.Records))
	}

	first := batch.Records[0]
	if id, ok := first.Identity.ID(); !ok || id != 11 {
		t.Errorf("expected id 11, got %s", first.Identity)
	}
	if first.Properties["score"] != json.Number("1.50") {
		t.Errorf("expected score literal 1.50, got %v", first.Properties["score"])
	}
	if first.Properties["weight"] != json.Number("31") {
		t.Errorf("expected hex weight to become 31, got %v", first.Properties["weight"])
	}

	if !batch.Records[1].Identity.IsNew() {
		t.Errorf("expected second record to be new, got %s", batch.Records[1].Identity)
	}
	if batch.Records[1].Properties["budget"] != json.Number("1000") {
		t.Errorf("expected budget 1000, got %v", batch.Records[1].Properties["budget"])
	}

	if id, ok := batch.Records[2].Identity.ID(); !ok || id != 12 || !batch.Records[2].Deleted {
		t.Errorf("expected deleted record 12, got %+v", batch.Records[2])
	}
}

func TestReadBatch_BareJSONArray(t *testing.T) {
	batch, err := ReadBatch(strings.NewReader(`[{"id":null,"properties":{"n":2.500}}]`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if batch.BaseVersionID != 0 {
		t.Errorf("expected no base version, got %d", batch.BaseVersionID)
	}
	if len(batch.Records) != 1 || !batch.Records[0].Identity.IsNew() {
		t.Fatalf("unexpected records: %+v", batch.Records)
	}
	if batch.Records[0].Properties["n"] != json.Number("2.500") {
		t.Errorf("expected 2.500 preserved, got %v", batch.Records[0].Properties["n"])
	}
}

func TestReadBatch_EnvelopeWithoutRecords(t *testing.T) {
	batch, err := ReadBatch(strings.NewReader("base_version_id: 5\n"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if batch.BaseVersionID != 5 || batch.Records != nil {
		t.Errorf("unexpected batch: %+v", batch)
	}
}

func TestReadBatch_Rejected(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "empty"},
		{"not yaml", "records: [unclosed", "not valid YAML"},
		{"infinite number", "- properties: {x: .inf}", "cannot be represented"},
		{"records not list", "records: {a: 1}", "must be a JSON array"},
		{"scalar document", "42", "must be a JSON array"},
		{"missing properties", "- id: 3", "record 0"},
		{"bad identity", "- id: [1]\n  properties: {}", "record 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadBatch(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, apperr.ErrInvalidInput) {
				t.Errorf("expected invalid input, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error to contain %q, got '%s'", tt.want, err.Error())
			}
		})
	}
}
