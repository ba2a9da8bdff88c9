package rest

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/example/focusarea/internal/ports/primary"
)

// PackageHandler handles package HTTP requests
type PackageHandler struct {
	packages   primary.PackageService
	focusAreas primary.FocusAreaService
	logger     *zap.Logger
}

// NewPackageHandler creates a new package handler
func NewPackageHandler(packages primary.PackageService, focusAreas primary.FocusAreaService, logger *zap.Logger) *PackageHandler {
	return &PackageHandler{packages: packages, focusAreas: focusAreas, logger: logger}
}

// CreatePackageBody is the request body for creating a package.
type CreatePackageBody struct {
	Name string `json:"name" validate:"required,max=200"`
}

// CreatePackage handles POST /packages
func (h *PackageHandler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	var body CreatePackageBody
	if err := decodeBody(w, r, &body); err != nil {
		respondError(w, err)
		return
	}
	pkg, err := h.packages.CreatePackage(r.Context(), primary.CreatePackageRequest{Name: body.Name})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, pkg)
}

// ListPackages handles GET /packages
func (h *PackageHandler) ListPackages(w http.ResponseWriter, r *http.Request) {
	list, err := h.packages.ListPackages(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	if list == nil {
		list = []*primary.Package{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"packages": list})
}

// GetPackage handles GET /packages/{packageID}
func (h *PackageHandler) GetPackage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "packageID")
	if err != nil {
		respondError(w, err)
		return
	}
	pkg, err := h.packages.GetPackage(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, pkg)
}

// DeletePackage handles DELETE /packages/{packageID}
func (h *PackageHandler) DeletePackage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "packageID")
	if err != nil {
		respondError(w, err)
		return
	}
	if err := h.packages.DeletePackage(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	h.logger.Info("package deleted", zap.Int64("package_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// ListFocusAreas handles GET /packages/{packageID}/focus-areas
func (h *PackageHandler) ListFocusAreas(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "packageID")
	if err != nil {
		respondError(w, err)
		return
	}
	list, err := h.focusAreas.ListFocusAreas(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"focus_areas": list})
}
