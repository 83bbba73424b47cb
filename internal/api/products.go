package api

import (
	"fmt"
	"net/http"
	"strconv"

	"inventory/m/domain"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	var filter domain.ProductFilter
	filter.Skip, filter.Limit = paging(r)
	query := r.URL.Query()
	if v := query.Get("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "category_id inválido")
			return
		}
		filter.CategoryID = &id
	}
	if v := query.Get("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "is_active inválido")
			return
		}
		filter.IsActive = &active
	}

	products, err := h.store.Q().ListProducts(r.Context(), filter)
	if err != nil {
		respondDomainError(w, r, err, "Error al obtener productos")
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "ID de producto inválido")
		return
	}
	if cached, hit := h.products.Get(r.Context(), id); hit {
		respondJSON(w, http.StatusOK, cached)
		return
	}
	product, err := h.store.Q().GetProduct(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err, "Error al obtener producto")
		return
	}
	h.products.Set(r.Context(), product)
	respondJSON(w, http.StatusOK, product)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.NewProduct
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	product, err := h.store.Q().CreateProduct(r.Context(), req)
	if err != nil {
		respondDomainError(w, r, err, "Error al crear producto")
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "ID de producto inválido")
		return
	}
	var patch domain.ProductPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := patch.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	product, err := h.store.Q().UpdateProduct(r.Context(), id, patch)
	if err != nil {
		respondDomainError(w, r, err, "Error al actualizar producto")
		return
	}
	h.products.Invalidate(r.Context(), id)
	respondJSON(w, http.StatusOK, product)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "ID de producto inválido")
		return
	}
	name, err := h.store.Q().DeleteProduct(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err, "Error al eliminar producto")
		return
	}
	h.products.Invalidate(r.Context(), id)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Producto eliminado exitosamente",
		"detail":  fmt.Sprintf("Producto '%s' (ID: %d) eliminado", name, id),
	})
}

func (h *Handler) lowStockProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.Q().LowStockProducts(r.Context())
	if err != nil {
		respondDomainError(w, r, err, "Error al obtener alertas de stock")
		return
	}
	respondJSON(w, http.StatusOK, products)
}
