package api

import (
	"net/http"

	"inventory/m/domain"
)

type saleRequest struct {
	Items []domain.SaleLine `json:"items"`
	Notes *string           `json:"notes"`
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, _ := principal(r.Context())
	sale, err := h.ledger.CreateSale(r.Context(), domain.NewSale{UserID: p.ID, Items: req.Items, Notes: req.Notes})
	if err != nil {
		respondDomainError(w, r, err, "Error interno al procesar venta")
		return
	}
	respondJSON(w, http.StatusCreated, sale)
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	var filter domain.SaleFilter
	filter.Skip, filter.Limit = paging(r)
	if v := r.URL.Query().Get("status"); v != "" {
		status := domain.SaleStatus(v)
		if !status.Valid() {
			respondError(w, http.StatusBadRequest, "status debe ser completed, cancelled o pending")
			return
		}
		filter.Status = &status
	}
	sales, err := h.store.Q().ListSales(r.Context(), filter)
	if err != nil {
		respondDomainError(w, r, err, "Error al obtener lista de ventas")
		return
	}
	respondJSON(w, http.StatusOK, sales)
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "ID de venta inválido")
		return
	}
	sale, err := h.store.Q().GetSale(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err, "Error al obtener venta")
		return
	}
	respondJSON(w, http.StatusOK, sale)
}

func (h *Handler) saleItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "ID de venta inválido")
		return
	}
	q := h.store.Q()
	if _, err := q.GetSale(r.Context(), id); err != nil {
		respondDomainError(w, r, err, "Error al obtener items de venta")
		return
	}
	items, err := q.SaleItemDetails(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err, "Error al obtener items de venta")
		return
	}
	respondJSON(w, http.StatusOK, items)
}

func (h *Handler) cancelSale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "ID de venta inválido")
		return
	}
	result, err := h.ledger.CancelSale(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, err, "Error interno al cancelar venta")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type salesSummaryResponse struct {
	Summary     domain.SalesSummary `json:"summary"`
	TopProducts []domain.TopProduct `json:"top_products"`
}

func (h *Handler) salesSummary(w http.ResponseWriter, r *http.Request) {
	q := h.store.Q()
	summary, err := q.SalesSummary(r.Context())
	if err != nil {
		respondDomainError(w, r, err, "Error al calcular estadísticas")
		return
	}
	top, err := q.TopProducts(r.Context(), 5)
	if err != nil {
		respondDomainError(w, r, err, "Error al calcular estadísticas")
		return
	}
	respondJSON(w, http.StatusOK, salesSummaryResponse{Summary: summary, TopProducts: top})
}
