package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/pressplay/gamestore/internal/catalog"
)

type CatalogHandler struct {
	Ledger *catalog.Ledger
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
}

func (h *CatalogHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Ledger.ListProducts(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *CatalogHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseObjectID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	p, err := h.Ledger.Product(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func parseObjectID(w http.ResponseWriter, s string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		writeError(w, http.StatusBadRequest, "request/invalid-id", "Invalid id")
		return primitive.NilObjectID, false
	}
	return id, true
}
