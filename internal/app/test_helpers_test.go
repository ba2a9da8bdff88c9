package app

import (
	"context"
	"slices"
	"sync"

	"github.com/example/focusarea/internal/apperr"
	"github.com/example/focusarea/internal/core/revision"
	"github.com/example/focusarea/internal/ports/secondary"
)

// ============================================================================
// Mock Implementations
// ============================================================================

// Ensure mocks implement the interfaces
var (
	_ secondary.VersionStore      = (*mockVersionStore)(nil)
	_ secondary.PackageRepository = (*mockPackageRepository)(nil)
	_ secondary.RevisionGenerator = (*mockGenerator)(nil)
)

// mockVersionStore implements secondary.VersionStore in memory, including the
// compare-and-swap on the current pointer.
type mockVersionStore struct {
	mu         sync.Mutex
	nextID     int64
	focusAreas map[int64]*secondary.FocusAreaRecord
	versions   map[int64]*secondary.VersionRecord
	records    map[int64][]revision.Record // versionID -> records

	createErr      error
	commitErr      error
	listRecordsErr error

	// beforeCommit runs before the compare-and-swap, simulating a writer
	// that commits between a caller's read and its write.
	beforeCommit func()
}

func newMockVersionStore() *mockVersionStore {
	return &mockVersionStore{
		focusAreas: make(map[int64]*secondary.FocusAreaRecord),
		versions:   make(map[int64]*secondary.VersionRecord),
		records:    make(map[int64][]revision.Record),
	}
}

func (m *mockVersionStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *mockVersionStore) appendVersion(v *secondary.VersionRecord, records []revision.Record) {
	v.ID = m.id()
	v.CreatedAt = "2026-01-01T00:00:00Z"
	m.versions[v.ID] = v

	stored := make([]revision.Record, len(records))
	for i, r := range records {
		r.ID = m.id()
		r.VersionID = v.ID
		r.Properties = r.Properties.Clone()
		stored[i] = r
	}
	m.records[v.ID] = stored
}

func (m *mockVersionStore) CreateFocusArea(ctx context.Context, params secondary.CreateFocusAreaParams) (*secondary.FocusAreaRecord, *secondary.VersionRecord, error) {
	if m.createErr != nil {
		return nil, nil, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	fa := &secondary.FocusAreaRecord{ID: m.id(), PackageID: params.PackageID, Name: params.Name}
	v := &secondary.VersionRecord{
		FocusAreaID: fa.ID,
		Summary:     params.Summary,
		Operation:   "create",
		CreatedBy:   params.CreatedBy,
		Checksum:    params.Checksum,
		Stats:       params.Stats,
	}
	m.appendVersion(v, params.Records)
	fa.CurrentVersionID = v.ID
	m.focusAreas[fa.ID] = fa

	faCopy, vCopy := *fa, *v
	return &faCopy, &vCopy, nil
}

func (m *mockVersionStore) CommitVersion(ctx context.Context, params secondary.CommitParams) (*secondary.VersionRecord, error) {
	if m.commitErr != nil {
		return nil, m.commitErr
	}
	if hook := m.beforeCommit; hook != nil {
		m.beforeCommit = nil
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	fa, ok := m.focusAreas[params.FocusAreaID]
	if !ok {
		return nil, apperr.NotFound("focus area %d not found", params.FocusAreaID)
	}
	if fa.CurrentVersionID != params.BaseVersionID {
		return nil, &apperr.ConflictError{
			FocusAreaID:          fa.ID,
			BaseVersionID:        params.BaseVersionID,
			CurrentVersionID:     fa.CurrentVersionID,
			CurrentVersionNumber: m.versions[fa.CurrentVersionID].VersionNumber,
		}
	}

	maxNumber := -1
	for _, v := range m.versions {
		if v.FocusAreaID == fa.ID {
			maxNumber = max(maxNumber, v.VersionNumber)
		}
	}
	v := &secondary.VersionRecord{
		FocusAreaID:   fa.ID,
		VersionNumber: maxNumber + 1,
		Summary:       params.Summary,
		Operation:     params.Operation,
		CreatedBy:     params.CreatedBy,
		Checksum:      params.Checksum,
		Stats:         params.Stats,
	}
	m.appendVersion(v, params.Records)
	fa.CurrentVersionID = v.ID
	fa.CurrentVersionNumber = v.VersionNumber
	if params.SetDeleted != nil {
		fa.Deleted = *params.SetDeleted
	}

	vCopy := *v
	return &vCopy, nil
}

func (m *mockVersionStore) GetFocusArea(ctx context.Context, id int64) (*secondary.FocusAreaRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fa, ok := m.focusAreas[id]
	if !ok {
		return nil, apperr.NotFound("focus area %d not found", id)
	}
	faCopy := *fa
	return &faCopy, nil
}

func (m *mockVersionStore) ListFocusAreas(ctx context.Context, packageID int64) ([]*secondary.FocusAreaRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*secondary.FocusAreaRecord
	for _, fa := range m.focusAreas {
		if fa.PackageID == packageID {
			faCopy := *fa
			list = append(list, &faCopy)
		}
	}
	slices.SortFunc(list, func(a, b *secondary.FocusAreaRecord) int { return int(a.ID - b.ID) })
	return list, nil
}

func (m *mockVersionStore) GetCurrentVersion(ctx context.Context, focusAreaID int64) (*secondary.VersionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fa, ok := m.focusAreas[focusAreaID]
	if !ok {
		return nil, apperr.NotFound("focus area %d not found", focusAreaID)
	}
	vCopy := *m.versions[fa.CurrentVersionID]
	return &vCopy, nil
}

func (m *mockVersionStore) GetVersion(ctx context.Context, versionID int64) (*secondary.VersionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.versions[versionID]
	if !ok {
		return nil, apperr.NotFound("version %d not found", versionID)
	}
	vCopy := *v
	return &vCopy, nil
}

func (m *mockVersionStore) GetVersionByNumber(ctx context.Context, focusAreaID int64, number int) (*secondary.VersionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.versions {
		if v.FocusAreaID == focusAreaID && v.VersionNumber == number {
			vCopy := *v
			return &vCopy, nil
		}
	}
	return nil, apperr.NotFound("version %d of focus area %d not found", number, focusAreaID)
}

func (m *mockVersionStore) ListVersions(ctx context.Context, focusAreaID int64) ([]*secondary.VersionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*secondary.VersionRecord
	for _, v := range m.versions {
		if v.FocusAreaID == focusAreaID {
			vCopy := *v
			list = append(list, &vCopy)
		}
	}
	slices.SortFunc(list, func(a, b *secondary.VersionRecord) int { return b.VersionNumber - a.VersionNumber })
	return list, nil
}

func (m *mockVersionStore) ListRecords(ctx context.Context, versionID int64, includeDeleted bool) ([]revision.Record, error) {
	if m.listRecordsErr != nil {
		return nil, m.listRecordsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []revision.Record{}
	for _, r := range m.records[versionID] {
		if r.Deleted && !includeDeleted {
			continue
		}
		r.Properties = r.Properties.Clone()
		out = append(out, r)
	}
	slices.SortStableFunc(out, func(a, b revision.Record) int { return a.DisplayOrder - b.DisplayOrder })
	return out, nil
}

// versionCount returns how many versions a focus area has.
func (m *mockVersionStore) versionCount(focusAreaID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, v := range m.versions {
		if v.FocusAreaID == focusAreaID {
			n++
		}
	}
	return n
}

// mockPackageRepository implements secondary.PackageRepository for testing.
type mockPackageRepository struct {
	packages  map[int64]*secondary.PackageRecord
	nextID    int64
	getErr    error
	createErr error
}

func newMockPackageRepository() *mockPackageRepository {
	return &mockPackageRepository{packages: make(map[int64]*secondary.PackageRecord)}
}

func (m *mockPackageRepository) add(name string, deleted bool) int64 {
	m.nextID++
	m.packages[m.nextID] = &secondary.PackageRecord{ID: m.nextID, Name: name, Deleted: deleted}
	return m.nextID
}

func (m *mockPackageRepository) GetPackage(ctx context.Context, id int64) (*secondary.PackageRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.packages[id]
	if !ok {
		return nil, apperr.NotFound("package %d not found", id)
	}
	pCopy := *p
	return &pCopy, nil
}

func (m *mockPackageRepository) Create(ctx context.Context, name string) (*secondary.PackageRecord, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	id := m.add(name, false)
	return m.GetPackage(ctx, id)
}

func (m *mockPackageRepository) List(ctx context.Context) ([]*secondary.PackageRecord, error) {
	var list []*secondary.PackageRecord
	for id := int64(1); id <= m.nextID; id++ {
		if p, ok := m.packages[id]; ok {
			list = append(list, p)
		}
	}
	return list, nil
}

func (m *mockPackageRepository) SoftDelete(ctx context.Context, id int64) error {
	p, ok := m.packages[id]
	if !ok {
		return apperr.NotFound("package %d not found", id)
	}
	p.Deleted = true
	return nil
}

// mockGenerator implements secondary.RevisionGenerator for testing.
type mockGenerator struct {
	proposal   *secondary.RevisionProposal
	err        error
	lastPrompt secondary.RevisionPrompt
	calls      int
}

func (m *mockGenerator) Propose(ctx context.Context, prompt secondary.RevisionPrompt) (*secondary.RevisionProposal, error) {
	m.calls++
	m.lastPrompt = prompt
	if m.err != nil {
		return nil, m.err
	}
	return m.proposal, nil
}
