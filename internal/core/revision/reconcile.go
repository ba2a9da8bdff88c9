package revision

import (
	"fmt"

	"github.com/example/focusarea/internal/apperr"
)

// Options tunes reconciliation.
type Options struct {
	// AllowDuplicateIDs makes the last item win when a batch names the same
	// existing record twice. When false such a batch is rejected.
	AllowDuplicateIDs bool

	// SourceRef is recorded as the provenance of records appended by this
	// pass. Matched and carried records keep their own.
	SourceRef string
}

// Reconcile computes the records of a new version from the prior version's
// records and an incoming batch. Rules, in order:
//
//  1. An item whose identity names a prior record is copied forward from that
//     record with properties and deleted flag taken from the item.
//  2. An item with a New identity is appended with the next grid index.
//  3. A prior record not named by any item is copied forward unchanged.
//
// Omission never deletes. The whole batch is rejected on the first invalid
// item.
func Reconcile(prior []Record, batch []IncomingRecord, opts Options) (Result, error) {
	known := make(map[int64]struct{}, len(prior))
	for _, r := range prior {
		known[r.ID] = struct{}{}
	}

	matched := make(map[int64]IncomingRecord, len(batch))
	var fresh []IncomingRecord
	for i, item := range batch {
		if err := validateItem(i, item); err != nil {
			return Result{}, err
		}
		id, existing := item.Identity.ID()
		if !existing {
			fresh = append(fresh, item)
			continue
		}
		if _, ok := known[id]; !ok {
			return Result{}, invalidItem(i, "record %d is not part of the base version", id)
		}
		if _, dup := matched[id]; dup && !opts.AllowDuplicateIDs {
			return Result{}, invalidItem(i, "record %d appears more than once in the batch", id)
		}
		matched[id] = item
	}

	var stats Stats
	records := make([]Record, 0, len(prior)+len(fresh))
	maxGrid := -1
	for _, p := range byGridIndex(prior) {
		rec := p.carry()
		if item, ok := matched[p.ID]; ok {
			rec.Properties = item.Properties.Clone()
			rec.Deleted = item.Deleted
			stats.Updated++
		} else {
			stats.Carried++
		}
		maxGrid = max(maxGrid, rec.GridIndex)
		records = append(records, rec)
	}

	for _, item := range fresh {
		maxGrid++
		records = append(records, Record{
			GridIndex:    maxGrid,
			DisplayOrder: maxGrid + 1,
			Properties:   item.Properties.Clone(),
			Deleted:      item.Deleted,
			SourceRef:    opts.SourceRef,
		})
		stats.Added++
	}

	stats.Deleted = countDeleted(records)
	return Result{Records: records, Stats: stats}, nil
}

// ForceDeleted copies every prior record forward with deleted set,
// regardless of its current flag.
func ForceDeleted(prior []Record) Result {
	records := make([]Record, 0, len(prior))
	for _, p := range byGridIndex(prior) {
		rec := p.carry()
		rec.Deleted = true
		records = append(records, rec)
	}
	return Result{
		Records: records,
		Stats:   Stats{Carried: len(records), Deleted: len(records)},
	}
}

// CopyWholesale reintroduces a past version's records exactly as persisted,
// including their own deleted flags. Nothing is merged with the live version.
func CopyWholesale(target []Record) Result {
	records := make([]Record, 0, len(target))
	for _, t := range byGridIndex(target) {
		records = append(records, t.carry())
	}
	return Result{
		Records: records,
		Stats:   Stats{Carried: len(records), Deleted: countDeleted(records)},
	}
}

func validateItem(index int, item IncomingRecord) error {
	if item.Properties == nil {
		return invalidItem(index, "properties must be an object")
	}
	if id, ok := item.Identity.ID(); ok && id <= 0 {
		return invalidItem(index, "identity %d must be positive", id)
	}
	return nil
}

func invalidItem(index int, format string, args ...any) error {
	return apperr.InvalidInput("record %d: %s", index, fmt.Sprintf(format, args...))
}
