package db

import (
	"database/sql"
	"fmt"
)

// SeedFixtures populates the database with development packages so focus
// areas can be created straight after `fa init --seed`. Focus areas
// themselves are created through the service so their first version carries
// a real checksum.
func SeedFixtures(database *sql.DB) ([]int64, error) {
	packages := []struct {
		name    string
		deleted bool
	}{
		{"Market entry: Nordics", false},
		{"Vendor consolidation review", false},
		{"Retired pricing study", true},
	}

	ids := make([]int64, 0, len(packages))
	for _, p := range packages {
		res, err := database.Exec(
			"INSERT INTO packages (name, deleted) VALUES (?, ?)",
			p.name, boolToInt(p.deleted),
		)
		if err != nil {
			return nil, fmt.Errorf("seed packages: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("seed packages: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
