package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/focusarea/internal/apperr"
	"github.com/example/focusarea/internal/core/revision"
	"github.com/example/focusarea/internal/ports/primary"
)

// FocusAreaHandler handles focus-area HTTP requests
type FocusAreaHandler struct {
	focusAreas primary.FocusAreaService
	history    primary.HistoryService
	logger     *zap.Logger
}

// NewFocusAreaHandler creates a new focus-area handler
func NewFocusAreaHandler(focusAreas primary.FocusAreaService, history primary.HistoryService, logger *zap.Logger) *FocusAreaHandler {
	return &FocusAreaHandler{focusAreas: focusAreas, history: history, logger: logger}
}

// CreateFocusAreaBody is the request body for creating a focus area.
type CreateFocusAreaBody struct {
	Name      string          `json:"name" validate:"required,max=200"`
	Summary   string          `json:"summary" validate:"max=500"`
	SourceRef string          `json:"source_ref" validate:"max=200"`
	Records   json.RawMessage `json:"records"`
}

// BatchBody is the request body for an edit batch.
type BatchBody struct {
	BaseVersionID int64           `json:"base_version_id" validate:"required,gt=0"`
	Summary       string          `json:"summary" validate:"max=500"`
	Records       json.RawMessage `json:"records"`
	DeleteAll     bool            `json:"delete_all"`
}

// AIRevisionBody is the request body for an AI revision.
type AIRevisionBody struct {
	BaseVersionID int64  `json:"base_version_id" validate:"required,gt=0"`
	Instructions  string `json:"instructions" validate:"required,max=4000"`
}

// ProposalBody is the request body for a batch already merged by the AI
// service.
type ProposalBody struct {
	BaseVersionID int64           `json:"base_version_id" validate:"required,gt=0"`
	Summary       string          `json:"summary" validate:"max=500"`
	SourceRef     string          `json:"source_ref" validate:"max=200"`
	Records       json.RawMessage `json:"records"`
}

// RecoverBody is the request body for recovering a past version.
type RecoverBody struct {
	VersionNumber *int   `json:"version_number" validate:"required,gte=0"`
	BaseVersionID int64  `json:"base_version_id" validate:"gte=0"`
	Summary       string `json:"summary" validate:"max=500"`
}

// decodeRecords parses an optional records array. Absent and null mean an
// empty batch.
func decodeRecords(raw json.RawMessage) ([]revision.IncomingRecord, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	return revision.DecodeBatch(trimmed)
}

// CreateFocusArea handles POST /packages/{packageID}/focus-areas
func (h *FocusAreaHandler) CreateFocusArea(w http.ResponseWriter, r *http.Request) {
	packageID, err := pathID(r, "packageID")
	if err != nil {
		respondError(w, err)
		return
	}
	var body CreateFocusAreaBody
	if err := decodeBody(w, r, &body); err != nil {
		respondError(w, err)
		return
	}
	records, err := decodeRecords(body.Records)
	if err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.focusAreas.CreateFocusArea(r.Context(), primary.CreateFocusAreaRequest{
		PackageID: packageID,
		Name:      body.Name,
		Summary:   body.Summary,
		SourceRef: body.SourceRef,
		Records:   records,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// GetCurrent handles GET /focus-areas/{focusAreaID}
func (h *FocusAreaHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	focusAreaID, err := pathID(r, "focusAreaID")
	if err != nil {
		respondError(w, err)
		return
	}
	includeDeleted, err := queryBool(r, "include_deleted")
	if err != nil {
		respondError(w, err)
		return
	}

	view, err := h.focusAreas.GetCurrent(r.Context(), focusAreaID, includeDeleted)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// ApplyBatch handles POST /focus-areas/{focusAreaID}/versions
func (h *FocusAreaHandler) ApplyBatch(w http.ResponseWriter, r *http.Request) {
	focusAreaID, err := pathID(r, "focusAreaID")
	if err != nil {
		respondError(w, err)
		return
	}
	var body BatchBody
	if err := decodeBody(w, r, &body); err != nil {
		respondError(w, err)
		return
	}
	records, err := decodeRecords(body.Records)
	if err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.focusAreas.ApplyBatch(r.Context(), primary.ApplyBatchRequest{
		FocusAreaID:   focusAreaID,
		BaseVersionID: body.BaseVersionID,
		Summary:       body.Summary,
		Records:       records,
		DeleteAll:     body.DeleteAll,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// RemoveFocusArea handles DELETE /focus-areas/{focusAreaID}?base_version_id=
func (h *FocusAreaHandler) RemoveFocusArea(w http.ResponseWriter, r *http.Request) {
	focusAreaID, err := pathID(r, "focusAreaID")
	if err != nil {
		respondError(w, err)
		return
	}
	raw := r.URL.Query().Get("base_version_id")
	baseVersionID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || baseVersionID <= 0 {
		respondError(w, apperr.InvalidInput("base_version_id must be a positive integer, got %q", raw))
		return
	}

	resp, err := h.focusAreas.RemoveFocusArea(r.Context(), primary.RemoveFocusAreaRequest{
		FocusAreaID:   focusAreaID,
		BaseVersionID: baseVersionID,
		Summary:       r.URL.Query().Get("summary"),
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// ApplyAIRevision handles POST /focus-areas/{focusAreaID}/ai-revisions
func (h *FocusAreaHandler) ApplyAIRevision(w http.ResponseWriter, r *http.Request) {
	focusAreaID, err := pathID(r, "focusAreaID")
	if err != nil {
		respondError(w, err)
		return
	}
	var body AIRevisionBody
	if err := decodeBody(w, r, &body); err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.focusAreas.ApplyAIRevision(r.Context(), primary.AIRevisionRequest{
		FocusAreaID:   focusAreaID,
		BaseVersionID: body.BaseVersionID,
		Instructions:  body.Instructions,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// ApplyProposal handles POST /focus-areas/{focusAreaID}/proposals
func (h *FocusAreaHandler) ApplyProposal(w http.ResponseWriter, r *http.Request) {
	focusAreaID, err := pathID(r, "focusAreaID")
	if err != nil {
		respondError(w, err)
		return
	}
	var body ProposalBody
	if err := decodeBody(w, r, &body); err != nil {
		respondError(w, err)
		return
	}
	records, err := decodeRecords(body.Records)
	if err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.focusAreas.ApplyRevisionProposal(r.Context(), primary.ProposalRequest{
		FocusAreaID:   focusAreaID,
		BaseVersionID: body.BaseVersionID,
		Summary:       body.Summary,
		SourceRef:     body.SourceRef,
		Records:       records,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// RecoverVersion handles POST /focus-areas/{focusAreaID}/recoveries
func (h *FocusAreaHandler) RecoverVersion(w http.ResponseWriter, r *http.Request) {
	focusAreaID, err := pathID(r, "focusAreaID")
	if err != nil {
		respondError(w, err)
		return
	}
	var body RecoverBody
	if err := decodeBody(w, r, &body); err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.focusAreas.RecoverVersion(r.Context(), primary.RecoverRequest{
		FocusAreaID:   focusAreaID,
		VersionNumber: *body.VersionNumber,
		BaseVersionID: body.BaseVersionID,
		Summary:       body.Summary,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// ListHistory handles GET /focus-areas/{focusAreaID}/versions
func (h *FocusAreaHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	focusAreaID, err := pathID(r, "focusAreaID")
	if err != nil {
		respondError(w, err)
		return
	}
	entries, err := h.history.ListHistory(r.Context(), focusAreaID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"versions": entries})
}

// GetVersion handles GET /focus-areas/{focusAreaID}/versions/{versionNumber}
func (h *FocusAreaHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	focusAreaID, err := pathID(r, "focusAreaID")
	if err != nil {
		respondError(w, err)
		return
	}
	raw := chi.URLParam(r, "versionNumber")
	number, err := strconv.Atoi(raw)
	if err != nil {
		respondError(w, apperr.InvalidInput("version number must be an integer, got %q", raw))
		return
	}
	includeDeleted, err := queryBool(r, "include_deleted")
	if err != nil {
		respondError(w, err)
		return
	}

	view, err := h.history.GetVersionRecords(r.Context(), focusAreaID, number, includeDeleted)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// VerifyHistory handles GET /focus-areas/{focusAreaID}/verify
func (h *FocusAreaHandler) VerifyHistory(w http.ResponseWriter, r *http.Request) {
	focusAreaID, err := pathID(r, "focusAreaID")
	if err != nil {
		respondError(w, err)
		return
	}
	report, err := h.history.VerifyHistory(r.Context(), focusAreaID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}
