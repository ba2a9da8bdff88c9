package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/sebdah/goldie/v2"

	"github.com/example/focusarea/internal/core/revision"
	"github.com/example/focusarea/internal/ports/primary"
)

func TestMain(m *testing.M) {
	// output assertions compare plain text
	color.NoColor = true
	os.Exit(m.Run())
}

func newGolden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestGolden_History(t *testing.T) {
	g := newGolden(t)
	hist := &mockHistoryService{entries: []*primary.HistoryEntry{
		{VersionID: 72, VersionNumber: 2, Operation: "recover", CreatedAt: "2026-03-01 10:02:00", Summary: "recovered version 0", Stats: revision.Stats{Carried: 2}, Current: true},
		{VersionID: 71, VersionNumber: 1, Operation: "remove", CreatedAt: "2026-03-01 10:01:00", Summary: "focus area removed", Stats: revision.Stats{Carried: 2, Deleted: 2}},
		{VersionID: 70, VersionNumber: 0, Operation: "create", CreatedAt: "2026-03-01 10:00:00", Summary: "initial version", Stats: revision.Stats{Added: 2}},
	}}
	var buf bytes.Buffer
	adapter := NewFocusAreaAdapter(&mockFocusAreaService{}, hist, &buf, FormatText)

	if err := adapter.History(context.Background(), 7); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	g.Assert(t, "history", buf.Bytes())
}

func TestGolden_ExportYAML(t *testing.T) {
	g := newGolden(t)
	svc := &mockFocusAreaService{
		currentFn: func(ctx context.Context, id int64, includeDeleted bool) (*primary.CurrentView, error) {
			return &primary.CurrentView{
				Version: primary.HistoryEntry{VersionID: 72},
				Records: []revision.Record{
					{ID: 11, Properties: revision.Properties{"title": "Churn", "score": json.Number("1.50")}},
					{ID: 12, Properties: revision.Properties{"title": "Pricing: tiers"}},
				},
			}, nil
		},
	}
	var buf bytes.Buffer
	adapter := NewFocusAreaAdapter(svc, &mockHistoryService{}, &buf, FormatYAML)

	if err := adapter.Export(context.Background(), 7, false); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	g.Assert(t, "export", buf.Bytes())
}
