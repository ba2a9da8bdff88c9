package revision

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

type checksumEntry struct {
	GridIndex    int        `json:"g"`
	DisplayOrder int        `json:"o"`
	Deleted      bool       `json:"d"`
	SourceRef    string     `json:"s,omitempty"`
	Properties   Properties `json:"p"`
}

// Checksum hashes the content of a record set. Identities and lineage are
// excluded, so a recovered version hashes the same as the version it copied.
func Checksum(records []Record) (string, error) {
	entries := make([]checksumEntry, 0, len(records))
	for _, r := range byGridIndex(records) {
		entries = append(entries, checksumEntry{
			GridIndex:    r.GridIndex,
			DisplayOrder: r.DisplayOrder,
			Deleted:      r.Deleted,
			SourceRef:    r.SourceRef,
			Properties:   r.Properties,
		})
	}

	// encoding/json sorts map keys, which makes the encoding canonical.
	data, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
