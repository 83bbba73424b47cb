package api

import (
	"net/http"
	"strings"

	"github.com/gosimple/slug"
)

type categoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 100 {
		respondError(w, http.StatusBadRequest, "el nombre de la categoría debe tener entre 1 y 100 caracteres")
		return
	}
	category, err := h.store.Q().CreateCategory(r.Context(), name, slug.Make(name), req.Description)
	if err != nil {
		respondDomainError(w, r, err, "Error al crear categoría")
		return
	}
	respondJSON(w, http.StatusCreated, category)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.Q().ListCategories(r.Context())
	if err != nil {
		respondDomainError(w, r, err, "Error al obtener categorías")
		return
	}
	respondJSON(w, http.StatusOK, categories)
}
