package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sleepoutside/backend/internal/models"
	"github.com/sleepoutside/backend/internal/services"
	"github.com/sleepoutside/backend/internal/validation"
)

type InventoryHandler struct {
	managers  map[models.Category]*services.InventoryManager
	validator *validation.Validator
	logger    *zap.Logger
}

func NewInventoryHandler(managers map[models.Category]*services.InventoryManager, validator *validation.Validator, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		managers:  managers,
		validator: validator,
		logger:    logger,
	}
}

func (h *InventoryHandler) manager(w http.ResponseWriter, category models.Category) (*services.InventoryManager, bool) {
	m, ok := h.managers[category]
	if !ok {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Unknown category"))
		return nil, false
	}
	return m, true
}

// ListRecords returns one category when ?category= is set, otherwise every
// category in display order.
func (h *InventoryHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("category"); raw != "" {
		category, ok := models.ParseCategory(raw)
		if !ok {
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Unknown category"))
			return
		}
		m, ok := h.manager(w, category)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, models.NewSuccessResponse(m.GetAll()))
		return
	}

	all := []models.InventoryRecord{}
	for _, c := range models.Categories {
		if m, ok := h.managers[c]; ok {
			all = append(all, m.GetAll()...)
		}
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(all))
}

func (h *InventoryHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	category, ok := categoryParam(w, r)
	if !ok {
		return
	}
	m, ok := h.manager(w, category)
	if !ok {
		return
	}

	rec, err := m.GetByID(chi.URLParam(r, "recordId"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Product not found"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(rec))
}

func (h *InventoryHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var form map[string]string
	if err := decodeJSON(w, r, &form); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	values := h.validator.ValuesFrom(form)
	if result := h.validator.ValidateForm(values); !result.IsValid {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(result.StringErrors()))
		return
	}

	req := validation.ProductRequest(values)
	m, ok := h.manager(w, req.Category)
	if !ok {
		return
	}
	rec, err := m.AddRecord(req)
	if err != nil {
		persistError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, models.NewSuccessResponse(rec))
}

// UpdateRecord validates only the fields present in the body and merges
// them over the stored record.
func (h *InventoryHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	category, ok := categoryParam(w, r)
	if !ok {
		return
	}
	m, ok := h.manager(w, category)
	if !ok {
		return
	}

	var form map[string]string
	if err := decodeJSON(w, r, &form); err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	values := h.validator.ValuesFrom(form)
	errs := make(map[string]string)
	for name, value := range values {
		if msg := h.validator.ValidateField(name, value); msg != "" {
			errs[string(name)] = msg
		}
	}
	if raw, present := values[validation.FieldCategory]; present && strings.TrimSpace(raw) != string(category) {
		if _, exists := errs[string(validation.FieldCategory)]; !exists {
			errs[string(validation.FieldCategory)] = "Category cannot be changed"
		}
	}
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, models.NewValidationErrorResponse(errs))
		return
	}

	rec, err := m.UpdateRecord(chi.URLParam(r, "recordId"), patchFrom(values))
	if err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Product not found"))
			return
		}
		persistError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(rec))
}

func (h *InventoryHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	category, ok := categoryParam(w, r)
	if !ok {
		return
	}
	m, ok := h.manager(w, category)
	if !ok {
		return
	}

	if err := m.DeleteRecord(chi.URLParam(r, "recordId")); err != nil {
		if errors.Is(err, services.ErrRecordNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewErrorResponse("Product not found"))
			return
		}
		persistError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Product deleted successfully"))
}

func (h *InventoryHandler) Export(w http.ResponseWriter, r *http.Request) {
	category, ok := categoryParam(w, r)
	if !ok {
		return
	}
	m, ok := h.manager(w, category)
	if !ok {
		return
	}

	exported, err := m.Export()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, models.NewErrorResponse("Failed to export inventory"))
		return
	}
	writeJSON(w, http.StatusOK, models.NewSuccessResponse(exported))
}

// Import replaces the category with the JSON array in the request body.
func (h *InventoryHandler) Import(w http.ResponseWriter, r *http.Request) {
	category, ok := categoryParam(w, r)
	if !ok {
		return
	}
	m, ok := h.manager(w, category)
	if !ok {
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
		return
	}

	n, err := m.Import(string(body))
	if err != nil {
		if errors.Is(err, services.ErrInvalidImport) {
			writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Import data must be a JSON array of products"))
			return
		}
		persistError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Imported "+strconv.Itoa(n)+" products"))
}

func (h *InventoryHandler) ValidateField(w http.ResponseWriter, r *http.Request) {
	validateField(w, r, h.validator)
}

func patchFrom(values map[validation.FieldName]string) models.UpdateRecordRequest {
	var patch models.UpdateRecordRequest
	if v, ok := values[validation.FieldProductName]; ok {
		name := strings.TrimSpace(v)
		patch.Name = &name
	}
	if v, ok := values[validation.FieldPrice]; ok {
		price, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		patch.Price = &price
	}
	if v, ok := values[validation.FieldDescription]; ok {
		desc := strings.TrimSpace(v)
		patch.Description = &desc
	}
	if v, ok := values[validation.FieldImageURL]; ok {
		u := strings.TrimSpace(v)
		patch.ImageURL = &u
	}
	return patch
}
