package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/example/focusarea/internal/apperr"
	"github.com/example/focusarea/internal/core/revision"
	"github.com/example/focusarea/internal/ports/primary"
)

// mockFocusAreaService implements primary.FocusAreaService for testing
type mockFocusAreaService struct {
	createFn  func(ctx context.Context, req primary.CreateFocusAreaRequest) (*primary.MutationResponse, error)
	currentFn func(ctx context.Context, focusAreaID int64, includeDeleted bool) (*primary.CurrentView, error)
	listFn    func(ctx context.Context, packageID int64) ([]*primary.FocusArea, error)
	mutateFn  func(ctx context.Context) (*primary.MutationResponse, error)

	// Track calls for verification
	lastCreateReq   primary.CreateFocusAreaRequest
	lastBatchReq    primary.ApplyBatchRequest
	lastRecoverReq  primary.RecoverRequest
	lastReviseReq   primary.AIRevisionRequest
	lastProposalReq primary.ProposalRequest
	lastRemoveReq   primary.RemoveFocusAreaRequest
}

func (m *mockFocusAreaService) CreateFocusArea(ctx context.Context, req primary.CreateFocusAreaRequest) (*primary.MutationResponse, error) {
	m.lastCreateReq = req
	if m.createFn != nil {
		return m.createFn(ctx, req)
	}
	return &primary.MutationResponse{FocusAreaID: 7, VersionID: 70, Stats: revision.Stats{Added: len(req.Records)}}, nil
}

func (m *mockFocusAreaService) GetCurrent(ctx context.Context, focusAreaID int64, includeDeleted bool) (*primary.CurrentView, error) {
	if m.currentFn != nil {
		return m.currentFn(ctx, focusAreaID, includeDeleted)
	}
	return &primary.CurrentView{}, nil
}

func (m *mockFocusAreaService) ListFocusAreas(ctx context.Context, packageID int64) ([]*primary.FocusArea, error) {
	if m.listFn != nil {
		return m.listFn(ctx, packageID)
	}
	return nil, nil
}

func (m *mockFocusAreaService) mutate(ctx context.Context) (*primary.MutationResponse, error) {
	if m.mutateFn != nil {
		return m.mutateFn(ctx)
	}
	return &primary.MutationResponse{FocusAreaID: 7, VersionID: 71, VersionNumber: 1, Stats: revision.Stats{Updated: 1, Carried: 2}}, nil
}

func (m *mockFocusAreaService) ApplyBatch(ctx context.Context, req primary.ApplyBatchRequest) (*primary.MutationResponse, error) {
	m.lastBatchReq = req
	return m.mutate(ctx)
}

func (m *mockFocusAreaService) RemoveFocusArea(ctx context.Context, req primary.RemoveFocusAreaRequest) (*primary.MutationResponse, error) {
	m.lastRemoveReq = req
	return m.mutate(ctx)
}

func (m *mockFocusAreaService) ApplyAIRevision(ctx context.Context, req primary.AIRevisionRequest) (*primary.MutationResponse, error) {
	m.lastReviseReq = req
	return m.mutate(ctx)
}

func (m *mockFocusAreaService) ApplyRevisionProposal(ctx context.Context, req primary.ProposalRequest) (*primary.MutationResponse, error) {
	m.lastProposalReq = req
	return m.mutate(ctx)
}

func (m *mockFocusAreaService) RecoverVersion(ctx context.Context, req primary.RecoverRequest) (*primary.MutationResponse, error) {
	m.lastRecoverReq = req
	return m.mutate(ctx)
}

// mockHistoryService implements primary.HistoryService for testing
type mockHistoryService struct {
	entries []*primary.HistoryEntry
	view    *primary.VersionView
	report  *primary.VerifyReport
	err     error
}

func (m *mockHistoryService) ListHistory(ctx context.Context, focusAreaID int64) ([]*primary.HistoryEntry, error) {
	return m.entries, m.err
}

func (m *mockHistoryService) GetVersionRecords(ctx context.Context, focusAreaID int64, versionNumber int, includeDeleted bool) (*primary.VersionView, error) {
	return m.view, m.err
}

func (m *mockHistoryService) VerifyHistory(ctx context.Context, focusAreaID int64) (*primary.VerifyReport, error) {
	return m.report, m.err
}

func sampleView() *primary.CurrentView {
	return &primary.CurrentView{
		FocusArea: primary.FocusArea{ID: 7, PackageID: 1, Name: "Risks", CurrentVersionID: 71, CurrentVersionNumber: 1},
		Version:   primary.HistoryEntry{VersionID: 71, VersionNumber: 1, Summary: "edited 1 record(s)", Current: true},
		Records: []revision.Record{
			{ID: 11, GridIndex: 0, Properties: revision.Properties{"title": "Churn", "score": json.Number("1.50")}},
			{ID: 12, GridIndex: 1, Properties: revision.Properties{"title": "Pricing"}, Deleted: true},
		},
	}
}

func newFocusAreaTestAdapter(format Format) (*FocusAreaAdapter, *mockFocusAreaService, *mockHistoryService, *bytes.Buffer) {
	svc := &mockFocusAreaService{}
	hist := &mockHistoryService{}
	var buf bytes.Buffer
	return NewFocusAreaAdapter(svc, hist, &buf, format), svc, hist, &buf
}

func TestFocusAreaAdapter_Create_Success(t *testing.T) {
	adapter, svc, _, buf := newFocusAreaTestAdapter(FormatText)

	err := adapter.Create(context.Background(), primary.CreateFocusAreaRequest{
		PackageID: 1,
		Name:      "Risks",
		Records:   []revision.IncomingRecord{{Identity: revision.New()}},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if svc.lastCreateReq.Name != "Risks" {
		t.Errorf("expected name 'Risks', got '%s'", svc.lastCreateReq.Name)
	}
	if !strings.Contains(buf.String(), "Created focus area 7 with 1 record(s)") {
		t.Errorf("expected creation message, got '%s'", buf.String())
	}
}

func TestFocusAreaAdapter_Create_ServiceError(t *testing.T) {
	adapter, svc, _, buf := newFocusAreaTestAdapter(FormatText)
	svc.createFn = func(ctx context.Context, req primary.CreateFocusAreaRequest) (*primary.MutationResponse, error) {
		return nil, apperr.InvalidInput("package %d not found", req.PackageID)
	}

	err := adapter.Create(context.Background(), primary.CreateFocusAreaRequest{PackageID: 9, Name: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "package 9 not found") {
		t.Errorf("expected guard message, got '%s'", err.Error())
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output on error, got '%s'", buf.String())
	}
}

func TestFocusAreaAdapter_Show(t *testing.T) {
	adapter, svc, _, buf := newFocusAreaTestAdapter(FormatText)
	svc.currentFn = func(ctx context.Context, id int64, includeDeleted bool) (*primary.CurrentView, error) {
		if !includeDeleted {
			t.Error("expected includeDeleted to be passed through")
		}
		return sampleView(), nil
	}

	if err := adapter.Show(context.Background(), 7, true); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	output := buf.String()
	for _, want := range []string{"Risks", "edited 1 record(s)", `"score":1.50`, "deleted", "Pricing"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got '%s'", want, output)
		}
	}
}

func TestFocusAreaAdapter_Show_JSON(t *testing.T) {
	adapter, svc, _, buf := newFocusAreaTestAdapter(FormatJSON)
	svc.currentFn = func(ctx context.Context, id int64, includeDeleted bool) (*primary.CurrentView, error) {
		return sampleView(), nil
	}

	if err := adapter.Show(context.Background(), 7, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	var decoded struct {
		FocusArea struct {
			Name string `json:"name"`
		} `json:"focus_area"`
		Records []json.RawMessage `json:"records"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("expected JSON output, got %v: %s", err, buf.String())
	}
	if decoded.FocusArea.Name != "Risks" || len(decoded.Records) != 2 {
		t.Errorf("unexpected JSON output: %s", buf.String())
	}
}

func TestFocusAreaAdapter_Mutations(t *testing.T) {
	ctx := context.Background()
	adapter, svc, _, buf := newFocusAreaTestAdapter(FormatText)

	if err := adapter.Apply(ctx, primary.ApplyBatchRequest{FocusAreaID: 7, BaseVersionID: 70}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if svc.lastBatchReq.BaseVersionID != 70 {
		t.Errorf("expected base 70, got %d", svc.lastBatchReq.BaseVersionID)
	}
	if !strings.Contains(buf.String(), "version 1 (id 71), 0 added, 1 updated, 2 carried, 0 deleted") {
		t.Errorf("expected stats line, got '%s'", buf.String())
	}

	buf.Reset()
	if err := adapter.Recover(ctx, primary.RecoverRequest{FocusAreaID: 7, VersionNumber: 0}); err != nil {
		t.Fatalf("recover: %v", err)
	}
	if !strings.Contains(buf.String(), "Recovered version 0 of focus area 7") {
		t.Errorf("expected recover message, got '%s'", buf.String())
	}

	buf.Reset()
	if err := adapter.Revise(ctx, primary.AIRevisionRequest{FocusAreaID: 7, BaseVersionID: 71, Instructions: "tighten"}); err != nil {
		t.Fatalf("revise: %v", err)
	}
	if svc.lastReviseReq.Instructions != "tighten" {
		t.Errorf("expected instructions to be passed, got '%s'", svc.lastReviseReq.Instructions)
	}

	buf.Reset()
	if err := adapter.Remove(ctx, primary.RemoveFocusAreaRequest{FocusAreaID: 7, BaseVersionID: 71}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !strings.Contains(buf.String(), "Removed focus area 7") {
		t.Errorf("expected remove message, got '%s'", buf.String())
	}
}

func TestFocusAreaAdapter_Mutation_Conflict(t *testing.T) {
	adapter, svc, _, buf := newFocusAreaTestAdapter(FormatText)
	svc.mutateFn = func(ctx context.Context) (*primary.MutationResponse, error) {
		return nil, &apperr.ConflictError{FocusAreaID: 7, BaseVersionID: 70, CurrentVersionID: 71, CurrentVersionNumber: 1}
	}

	err := adapter.Apply(context.Background(), primary.ApplyBatchRequest{FocusAreaID: 7, BaseVersionID: 70})
	if apperr.KindOf(err) != apperr.KindVersionConflict {
		t.Fatalf("expected version conflict, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got '%s'", buf.String())
	}
}

func TestFocusAreaAdapter_History(t *testing.T) {
	adapter, _, hist, buf := newFocusAreaTestAdapter(FormatText)
	hist.entries = []*primary.HistoryEntry{
		{VersionID: 71, VersionNumber: 1, Operation: "edit", Summary: "edited 1 record(s)", Current: true},
		{VersionID: 70, VersionNumber: 0, Operation: "create", Summary: "initial version"},
	}

	if err := adapter.History(context.Background(), 7); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	var current, initial string
	for _, l := range lines {
		if strings.Contains(l, "edited 1 record(s)") {
			current = l
		}
		if strings.Contains(l, "initial version") {
			initial = l
		}
	}
	if !strings.Contains(current, "current") {
		t.Errorf("expected current marker on version 1, got '%s'", current)
	}
	if strings.Contains(initial, "current") {
		t.Errorf("expected no current marker on version 0, got '%s'", initial)
	}
}

func TestFocusAreaAdapter_Verify(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		adapter, _, hist, buf := newFocusAreaTestAdapter(FormatText)
		hist.report = &primary.VerifyReport{FocusAreaID: 7, Versions: 3, OK: true, CurrentIsLatest: true}

		if err := adapter.Verify(context.Background(), 7); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(buf.String(), "3 version(s) verified") {
			t.Errorf("expected success line, got '%s'", buf.String())
		}
	})

	t.Run("failed", func(t *testing.T) {
		adapter, _, hist, buf := newFocusAreaTestAdapter(FormatText)
		hist.report = &primary.VerifyReport{
			FocusAreaID:     7,
			Versions:        2,
			CurrentIsLatest: true,
			Mismatches:      []primary.VerifyIssue{{VersionNumber: 1, Stored: "aaaaaaaaaaaaaaaa", Computed: "bbbbbbbbbbbbbbbb"}},
			Gaps:            []int{2},
		}

		err := adapter.Verify(context.Background(), 7)
		if err == nil {
			t.Fatal("expected error for failed verification")
		}
		output := buf.String()
		if !strings.Contains(output, "version 1: checksum aaaaaaaaaaaa") {
			t.Errorf("expected mismatch line, got '%s'", output)
		}
		if !strings.Contains(output, "version 2 is missing") {
			t.Errorf("expected gap line, got '%s'", output)
		}
	})
}

func TestFocusAreaAdapter_ExportRoundTrip(t *testing.T) {
	adapter, svc, _, buf := newFocusAreaTestAdapter(FormatText)
	svc.currentFn = func(ctx context.Context, id int64, includeDeleted bool) (*primary.CurrentView, error) {
		return sampleView(), nil
	}

	if err := adapter.Export(context.Background(), 7, true); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	batch, err := ReadBatch(strings.NewReader(buf.String()))
	if err != nil {
		t.Fatalf("exported batch did not read back: %v\n%s", err, buf.String())
	}
	if batch.BaseVersionID != 71 {
		t.Errorf("expected base version 71, got %d", batch.BaseVersionID)
	}
	if len(batch.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(batch.Records))
	}
	if id, ok := batch.Records[0].Identity.ID(); !ok || id != 11 {
		t.Errorf("expected first record to reference 11, got %s", batch.Records[0].Identity)
	}
	if got := batch.Records[0].Properties["score"]; got != json.Number("1.50") {
		t.Errorf("expected score 1.50 to survive export, got %v", got)
	}
	if !batch.Records[1].Deleted {
		t.Error("expected deleted flag to survive export")
	}
}
