package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sleepoutside/backend/internal/models"
	"github.com/sleepoutside/backend/internal/services"
	"github.com/sleepoutside/backend/internal/validation"
)

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	return json.NewDecoder(r.Body).Decode(dst)
}

// readBody returns the raw bounded request body.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	return io.ReadAll(r.Body)
}

// categoryParam resolves the {category} URL parameter, writing a 400 when
// it is not a known inventory category.
func categoryParam(w http.ResponseWriter, r *http.Request) (models.Category, bool) {
	category, ok := models.ParseCategory(chi.URLParam(r, "category"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Unknown category"))
		return "", false
	}
	return category, true
}

func intQuery(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// validateField answers the on-blur single-field check shared by the
// checkout and product forms. The field may be named by field name or by
// form element id.
func validateField(w http.ResponseWriter, r *http.Request, v *validation.Validator) {
	var req models.FieldRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}
	name, ok := v.Resolve(strings.TrimSpace(req.Field))
	if !ok {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Unknown field"))
		return
	}
	elementID, _ := v.ElementID(name)
	message := v.ValidateField(name, req.Value)

	writeJSON(w, http.StatusOK, models.NewSuccessResponse(models.FieldValidation{
		Field:     string(name),
		ElementID: elementID,
		Valid:     message == "",
		Message:   message,
	}))
}

// persistError maps a state-manager write failure to a response.
func persistError(w http.ResponseWriter, err error) {
	if errors.Is(err, services.ErrPersist) {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to save changes"))
		return
	}
	writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Internal server error"))
}
