package revision

import (
	"maps"
	"slices"
)

// Properties is the schema-free property map of a record.
// Numbers decoded from JSON are kept as json.Number.
type Properties map[string]any

// Clone returns a shallow copy; nil stays nil.
func (p Properties) Clone() Properties {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// Record is one row of a version.
type Record struct {
	ID           int64      `json:"id,omitempty"`
	VersionID    int64      `json:"version_id,omitempty"`
	GridIndex    int        `json:"grid_index"`
	DisplayOrder int        `json:"display_order"`
	Properties   Properties `json:"properties"`
	Deleted      bool       `json:"deleted"`
	SourceRef    string     `json:"source_ref,omitempty"`
	CopiedFromID int64      `json:"copied_from_id,omitempty"`
}

// IncomingRecord is one item of a mutation batch.
type IncomingRecord struct {
	Identity   Identity   `json:"id"`
	Deleted    bool       `json:"deleted"`
	Properties Properties `json:"properties"`
}

// Stats counts what a reconciliation pass did.
// Deleted is the number of records flagged deleted in the resulting set.
type Stats struct {
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Carried int `json:"carried"`
	Deleted int `json:"deleted"`
}

// Result is the record set to persist in a new version.
type Result struct {
	Records []Record
	Stats   Stats
}

// carry copies r forward into a new version: identity and owning version are
// cleared and lineage points back at r.
func (r Record) carry() Record {
	return Record{
		GridIndex:    r.GridIndex,
		DisplayOrder: r.DisplayOrder,
		Properties:   r.Properties.Clone(),
		Deleted:      r.Deleted,
		SourceRef:    r.SourceRef,
		CopiedFromID: r.ID,
	}
}

// byGridIndex returns a copy of records ordered by grid index.
func byGridIndex(records []Record) []Record {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b Record) int {
		return a.GridIndex - b.GridIndex
	})
	return sorted
}

func countDeleted(records []Record) int {
	n := 0
	for _, r := range records {
		if r.Deleted {
			n++
		}
	}
	return n
}

// Initial lays out the records of a brand-new focus area: grid index from 0,
// display order grid index + 1. sourceRef, when set, is recorded as the
// provenance of every record.
func Initial(items []IncomingRecord, sourceRef string) (Result, error) {
	for i, item := range items {
		if err := validateItem(i, item); err != nil {
			return Result{}, err
		}
		if !item.Identity.IsNew() {
			return Result{}, invalidItem(i, "a new focus area cannot reference existing record %s", item.Identity)
		}
	}

	records := make([]Record, len(items))
	for i, item := range items {
		records[i] = Record{
			GridIndex:    i,
			DisplayOrder: i + 1,
			Properties:   item.Properties.Clone(),
			Deleted:      item.Deleted,
			SourceRef:    sourceRef,
		}
	}
	return Result{
		Records: records,
		Stats:   Stats{Added: len(records), Deleted: countDeleted(records)},
	}, nil
}
