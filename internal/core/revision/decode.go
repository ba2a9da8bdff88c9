package revision

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/example/focusarea/internal/apperr"
)

type wireRecord struct {
	ID         json.RawMessage `json:"id"`
	Deleted    json.RawMessage `json:"deleted"`
	Properties json.RawMessage `json:"properties"`
}

// DecodeBatch parses an untrusted JSON array of incoming records.
// Every malformed item rejects the whole batch with an InvalidInput error.
func DecodeBatch(data []byte) ([]IncomingRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil, apperr.InvalidInput("records must be a JSON array")
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, apperr.InvalidInput("records must be a JSON array: %v", err)
	}

	items := make([]IncomingRecord, 0, len(raw))
	for i, r := range raw {
		item, err := DecodeRecord(r)
		if err != nil {
			return nil, apperr.InvalidInput("record %d: %v", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// DecodeRecord parses one incoming record object.
func DecodeRecord(data []byte) (IncomingRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return IncomingRecord{}, fmt.Errorf("must be an object")
	}

	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return IncomingRecord{}, err
	}

	var item IncomingRecord
	if err := item.Identity.UnmarshalJSON(w.ID); err != nil {
		return IncomingRecord{}, err
	}

	if d := bytes.TrimSpace(w.Deleted); len(d) > 0 && !bytes.Equal(d, []byte("null")) {
		if err := json.Unmarshal(d, &item.Deleted); err != nil {
			return IncomingRecord{}, fmt.Errorf("deleted must be a boolean")
		}
	}

	props, err := DecodeProperties(w.Properties)
	if err != nil {
		return IncomingRecord{}, err
	}
	item.Properties = props
	return item, nil
}

// DecodeProperties parses a JSON object into Properties, keeping numbers as
// json.Number so stored values round-trip exactly.
func DecodeProperties(data []byte) (Properties, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("properties must be an object")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var props Properties
	if err := dec.Decode(&props); err != nil {
		return nil, fmt.Errorf("properties: %w", err)
	}
	return props, nil
}

// UnmarshalJSON lets IncomingRecord sit inside request bodies while keeping
// the same validation as DecodeRecord.
func (r *IncomingRecord) UnmarshalJSON(data []byte) error {
	item, err := DecodeRecord(data)
	if err != nil {
		return err
	}
	*r = item
	return nil
}
