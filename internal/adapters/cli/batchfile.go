package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/focusarea/internal/apperr"
	"github.com/example/focusarea/internal/core/revision"
)

// BatchFile is a mutation batch read from disk. The file is either a bare
// list of records or an object with base_version_id, summary and records.
// JSON files are read the same way since JSON is valid YAML.
type BatchFile struct {
	BaseVersionID int64
	Summary       string
	Records       []revision.IncomingRecord
}

type batchEnvelope struct {
	BaseVersionID int64           `json:"base_version_id"`
	Summary       string          `json:"summary"`
	Records       json.RawMessage `json:"records"`
}

// ReadBatch parses a YAML or JSON batch file. Records go through the same
// untrusted decoding as API input.
func ReadBatch(r io.Reader) (*BatchFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, apperr.InvalidInput("batch file is not valid YAML or JSON: %v", err)
	}
	if doc.Kind == 0 {
		return nil, apperr.InvalidInput("batch file is empty")
	}

	value, err := nodeToJSON(&doc)
	if err != nil {
		return nil, apperr.InvalidInput("batch file: %v", err)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, apperr.InvalidInput("batch file: %v", err)
	}

	batch := &BatchFile{}
	recordsJSON := json.RawMessage(raw)
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		var env batchEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return nil, apperr.InvalidInput("batch file: %v", err)
		}
		batch.BaseVersionID = env.BaseVersionID
		batch.Summary = env.Summary
		recordsJSON = env.Records
	}
	if len(recordsJSON) == 0 || string(recordsJSON) == "null" {
		return batch, nil
	}

	batch.Records, err = revision.DecodeBatch(recordsJSON)
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// nodeToJSON converts a YAML node into values encoding/json can marshal.
// Numbers become json.Number carrying the literal text, so 1.50 stays 1.50.
func nodeToJSON(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return nodeToJSON(n.Content[0])
	case yaml.AliasNode:
		return nodeToJSON(n.Alias)
	case yaml.SequenceNode:
		list := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeToJSON(c)
			if err != nil {
				return nil, err
			}
			list = append(list, v)
		}
		return list, nil
	case yaml.MappingNode:
		obj := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", key.Line)
			}
			v, err := nodeToJSON(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj[key.Value] = v
		}
		return obj, nil
	case yaml.ScalarNode:
		return scalarToJSON(n)
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node", n.Line)
}

func scalarToJSON(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int", "!!float":
		if isJSONNumber(n.Value) {
			return json.Number(n.Value), nil
		}
		// YAML spellings such as 0x1F, 1_000 or +5
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return nil, fmt.Errorf("line %d: %s cannot be represented in JSON", n.Line, n.Value)
		}
		if n.ShortTag() == "!!int" {
			var i int64
			if err := n.Decode(&i); err == nil {
				return json.Number(strconv.FormatInt(i, 10)), nil
			}
		}
		return json.Number(strconv.FormatFloat(f, 'g', -1, 64)), nil
	default:
		return n.Value, nil
	}
}

func isJSONNumber(s string) bool {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return false
	}
	_, ok := v.(json.Number)
	return ok && !dec.More()
}
