package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/example/focusarea/internal/apperr"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 8 << 20

// ErrorInfo is the body of every failed response.
type ErrorInfo struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type errorResponse struct {
	Error ErrorInfo `json:"error"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report the JSON field name rather than the Go one
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError maps err onto a status code and an ErrorInfo body.
// Conflicts carry the live version so the caller can re-read and retry.
func respondError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	info := ErrorInfo{
		Code:    string(apperr.KindOf(err)),
		Message: err.Error(),
	}

	var conflict *apperr.ConflictError
	var appErr *apperr.Error
	switch {
	case errors.As(err, &conflict):
		info.Message = "the focus area changed since the base version was read"
		info.Details = map[string]any{
			"focus_area_id":          conflict.FocusAreaID,
			"base_version_id":        conflict.BaseVersionID,
			"current_version_id":     conflict.CurrentVersionID,
			"current_version_number": conflict.CurrentVersionNumber,
		}
	case errors.As(err, &appErr):
		info.Message = appErr.Message
		info.Details = appErr.Details
	}
	if status >= http.StatusInternalServerError && !errors.As(err, &appErr) {
		info.Message = "internal error"
	}

	respondJSON(w, status, errorResponse{Error: info})
}

// decodeBody decodes a JSON request body into dst and validates it.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.InvalidInput("invalid request body: %v", err)
	}
	return validateStruct(dst)
}

func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.InvalidInput("invalid request: %v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fieldMessage(e))
	}
	return apperr.InvalidInput("%s", strings.Join(msgs, "; "))
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", e.Field(), e.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s must be a positive number", e.Field())
	default:
		return fmt.Sprintf("%s is invalid", e.Field())
	}
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.InvalidInput("%s must be a positive integer, got %q", name, raw)
	}
	return id, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperr.InvalidInput("%s must be a boolean, got %q", name, raw)
	}
	return v, nil
}
