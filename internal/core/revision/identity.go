// Package revision contains the pure record reconciliation logic used to
// build a new focus-area version from a prior version and an incoming batch.
//
// Nothing in this package touches storage. Functions take the prior version's
// records and return the record set to persist; identities of the returned
// records are assigned by the store.
package revision

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type identityKind uint8

const (
	identityNew identityKind = iota
	identityExisting
)

// Identity names the persisted record an incoming item refers to, or marks
// the item as a brand-new record. The zero value is New.
type Identity struct {
	kind identityKind
	id   int64
}

// New returns the identity of a record that has not been persisted yet.
func New() Identity {
	return Identity{kind: identityNew}
}

// Existing returns the identity of a persisted record.
func Existing(id int64) Identity {
	return Identity{kind: identityExisting, id: id}
}

// IsNew reports whether the identity refers to no persisted record.
func (i Identity) IsNew() bool {
	return i.kind == identityNew
}

// ID returns the persisted id and true, or 0 and false for New.
func (i Identity) ID() (int64, bool) {
	if i.kind != identityExisting {
		return 0, false
	}
	return i.id, true
}

func (i Identity) String() string {
	if i.IsNew() {
		return "new"
	}
	return strconv.FormatInt(i.id, 10)
}

// MarshalJSON encodes New as the string "new" and Existing as a number.
func (i Identity) MarshalJSON() ([]byte, error) {
	if i.IsNew() {
		return []byte(`"new"`), nil
	}
	return []byte(strconv.FormatInt(i.id, 10)), nil
}

// UnmarshalJSON accepts null, "new", a positive integer, or a string holding
// a positive integer.
func (i *Identity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*i = New()
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("identity: %w", err)
		}
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "new") {
			*i = New()
			return nil
		}
		raw = s
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("identity %s is neither \"new\" nor an integer id", string(data))
	}
	if id <= 0 {
		return fmt.Errorf("identity %d must be positive", id)
	}
	*i = Existing(id)
	return nil
}
