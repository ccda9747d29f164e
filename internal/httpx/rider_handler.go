package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/pressplay/gamestore/internal/orders"
	"github.com/pressplay/gamestore/internal/redisx"
)

// RiderHandler serves the delivery surface. Mounted behind
// RequireRole(rider); the order service additionally enforces that a rider
// only touches orders assigned to them.
type RiderHandler struct {
	Orders *orders.Service
	Redis  *redis.Client
}

func (h *RiderHandler) Register(r chi.Router) {
	r.Get("/orders", h.myOrders)
	r.Patch("/orders/{id}", h.updateStatus)
}

func (h *RiderHandler) myOrders(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	list, err := h.Orders.ListForRider(r.Context(), p.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": list})
}

type riderStatusReq struct {
	Status string `json:"status"`
}

func (h *RiderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id, ok := parseObjectID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	var req riderStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "request/invalid-json", "Invalid JSON body")
		return
	}
	target, valid := orders.ParseStatus(req.Status)
	if !valid {
		writeError(w, http.StatusBadRequest, "order/invalid-status", "Unknown status")
		return
	}

	ord, err := h.Orders.Transition(r.Context(), id, target, p, nil)
	if err != nil {
		writeErr(w, err)
		return
	}

	key := fmt.Sprintf(redisx.KeyOrderStatus, ord.ID.Hex())
	body, _ := json.Marshal(statusCacheEntry{Status: ord.Status, Owner: ord.UserID.Hex()})
	_ = h.Redis.Set(r.Context(), key, body, redisx.TTLStatusCache).Err()

	writeJSON(w, http.StatusOK, ord)
}
